// Package chain wraps the Solana JSON-RPC collaborator: balance and account
// lookups, transaction submission and confirmation.
package chain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// DefaultConfirmTimeout bounds how long Confirm polls before giving up.
const DefaultConfirmTimeout = 90 * time.Second

// Client talks to a single RPC endpoint.
type Client struct {
	rpc            *rpc.Client
	commitment     rpc.CommitmentType
	pollInterval   time.Duration
	confirmTimeout time.Duration
}

// New builds a client for the given RPC URL, confirming at processed
// commitment like the rest of the pipeline.
func New(rpcURL string) *Client {
	return &Client{
		rpc:            rpc.New(rpcURL),
		commitment:     rpc.CommitmentProcessed,
		pollInterval:   500 * time.Millisecond,
		confirmTimeout: DefaultConfirmTimeout,
	}
}

// Balance returns the lamport balance of an account.
func (c *Client) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	out, err := c.rpc.GetBalance(ctx, account, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("get balance for %s: %w", account, err)
	}
	return out.Value, nil
}

// AccountExists reports whether an account is present on chain.
func (c *Client) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	out, err := c.rpc.GetAccountInfo(ctx, account)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get account info for %s: %w", account, err)
	}
	return out != nil && out.Value != nil, nil
}

// TokenBalance returns the base-unit balance of a token account. A missing
// account reads as zero; the sell-all pipeline treats the chain as the
// authoritative source either way.
func (c *Client) TokenBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	out, err := c.rpc.GetTokenAccountBalance(ctx, account, c.commitment)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("get token balance for %s: %w", account, err)
	}
	if out == nil || out.Value == nil {
		return 0, nil
	}
	amount, err := strconv.ParseUint(out.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse token balance %q: %w", out.Value.Amount, err)
	}
	return amount, nil
}

// LatestBlockhash returns the most recent blockhash and its last valid
// block height.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	out, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Hash{}, 0, fmt.Errorf("get latest blockhash: %w", err)
	}
	return out.Value.Blockhash, out.Value.LastValidBlockHeight, nil
}

// SendTransaction submits a signed transaction.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	maxRetries := uint(3)
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		MaxRetries:          &maxRetries,
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	return sig, nil
}

// ConfirmTransaction polls signature status until the transaction reaches
// the client's commitment, the blockhash expires past lastValidBlockHeight,
// or the confirmation timeout elapses.
func (c *Client) ConfirmTransaction(ctx context.Context, sig solana.Signature, blockhash solana.Hash, lastValidBlockHeight uint64) error {
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	for {
		out, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
		if err == nil && out != nil && len(out.Value) > 0 && out.Value[0] != nil {
			status := out.Value[0]
			if status.Err != nil {
				return fmt.Errorf("transaction %s failed on chain: %v", sig, status.Err)
			}
			switch status.ConfirmationStatus {
			case rpc.ConfirmationStatusProcessed, rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return nil
			}
		}

		height, herr := c.rpc.GetBlockHeight(ctx, c.commitment)
		if herr == nil && height > lastValidBlockHeight {
			return fmt.Errorf("transaction %s expired: blockhash %s past height %d", sig, blockhash, lastValidBlockHeight)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("confirm transaction %s: %w", sig, ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}
}
