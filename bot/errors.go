package bot

import "errors"

// Trade-level failures. All of these are per-wallet and non-fatal: they are
// caught at the pipeline boundary, recorded in the transaction log, and
// reflected as wallet status failed.
var (
	ErrAlreadyTrading    = errors.New("trading already active")
	ErrNoWallets         = errors.New("no wallets configured")
	ErrNoToken           = errors.New("no tokens configured in tokenList or tokenAddress")
	ErrNoMainWallet      = errors.New("main wallet not loaded")
	ErrInsufficientFunds = errors.New("insufficient SOL")
	ErrNoSwapTransaction = errors.New("no swap transaction in response")
	ErrInvalidAmount     = errors.New("invalid fund amount")
)

// errNothingToSell short-circuits the sell-all pipeline for a wallet whose
// on-chain token balance is zero. It is never logged or surfaced.
var errNothingToSell = errors.New("nothing to sell")
