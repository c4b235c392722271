package jupiter

// QuoteParams contains the parameters for requesting a quote.
type QuoteParams struct {
	InputMint   string `json:"inputMint"`   // Input token mint address
	OutputMint  string `json:"outputMint"`  // Output token mint address
	Amount      string `json:"amount"`      // Amount in smallest units (lamports/base units)
	SlippageBps int    `json:"slippageBps"` // Slippage tolerance in basis points
}

// QuoteResponse contains the response from the quote API. The aggregator
// reports routing failures through the error field with a 200 status.
type QuoteResponse struct {
	InputMint            string      `json:"inputMint"`
	InAmount             string      `json:"inAmount"`
	OutputMint           string      `json:"outputMint"`
	OutAmount            string      `json:"outAmount"`
	OtherAmountThreshold string      `json:"otherAmountThreshold"`
	SwapMode             string      `json:"swapMode"`
	SlippageBps          int         `json:"slippageBps"`
	PriceImpactPct       string      `json:"priceImpactPct"`
	RoutePlan            []RoutePlan `json:"routePlan"`
	ContextSlot          int64       `json:"contextSlot,omitempty"`
	Error                string      `json:"error,omitempty"`
}

// RoutePlan describes a single step in the swap route.
type RoutePlan struct {
	SwapInfo SwapInfo `json:"swapInfo"`
	Percent  int      `json:"percent"`
}

// SwapInfo contains details about a swap step.
type SwapInfo struct {
	AmmKey     string `json:"ammKey"`
	Label      string `json:"label"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
	FeeAmount  string `json:"feeAmount"`
	FeeMint    string `json:"feeMint"`
}

// SwapParams contains the parameters for building a swap transaction.
type SwapParams struct {
	QuoteResponse    *QuoteResponse `json:"quoteResponse"`
	UserPublicKey    string         `json:"userPublicKey"`
	WrapAndUnwrapSol bool           `json:"wrapAndUnwrapSol"`
}

// SwapResponse contains the response from the swap API.
type SwapResponse struct {
	SwapTransaction      string `json:"swapTransaction"` // Base64-encoded transaction
	LastValidBlockHeight int64  `json:"lastValidBlockHeight"`
}
