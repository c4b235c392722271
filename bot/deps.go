package bot

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/benhmida0588/solbot2026/jupiter"
)

// ChainClient is the RPC collaborator the pipeline submits through.
// chain.Client is the production implementation.
type ChainClient interface {
	Balance(ctx context.Context, account solana.PublicKey) (uint64, error)
	AccountExists(ctx context.Context, account solana.PublicKey) (bool, error)
	TokenBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	LatestBlockhash(ctx context.Context) (solana.Hash, uint64, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	ConfirmTransaction(ctx context.Context, sig solana.Signature, blockhash solana.Hash, lastValidBlockHeight uint64) error
}

// SwapClient is the quote/swap aggregation collaborator.
// jupiter.Client is the production implementation.
type SwapClient interface {
	GetQuote(ctx context.Context, params *jupiter.QuoteParams) (*jupiter.QuoteResponse, error)
	BuildSwapTransaction(ctx context.Context, params *jupiter.SwapParams) (*jupiter.SwapResponse, error)
}
