package bot

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"

	"github.com/benhmida0588/solbot2026/models"
	"github.com/benhmida0588/solbot2026/wallets"
)

// EnsureTokenAccount guarantees the wallet owns the associated token
// account for the mint and returns its address. The registry mapping is
// checked first, then the chain (which self-heals a stale registry), and
// only then is a creation transaction submitted with the main wallet as
// fee payer. Errors propagate to the caller; provisioning is not retried
// here.
func (e *Engine) EnsureTokenAccount(ctx context.Context, address string, mint solana.PublicKey) (solana.PublicKey, error) {
	w, ok := e.registry.Get(address)
	if !ok {
		return solana.PublicKey{}, fmt.Errorf("%w: %s", wallets.ErrWalletNotFound, address)
	}
	mintKey := mint.String()

	if existing, ok := w.TokenAccounts[mintKey]; ok {
		account, err := solana.PublicKeyFromBase58(existing)
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("recorded token account %q is invalid: %w", existing, err)
		}
		return account, nil
	}

	owner, err := solana.PublicKeyFromBase58(w.PublicKey)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid wallet address: %w", err)
	}
	account, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive token account: %w", err)
	}

	exists, err := e.chain.AccountExists(ctx, account)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("check token account: %w", err)
	}
	if exists {
		// Chain already has it; record and move on.
		if err := e.registry.Apply(address, func(wl *models.Wallet) {
			wl.TokenAccounts[mintKey] = account.String()
		}); err != nil {
			return solana.PublicKey{}, err
		}
		return account, nil
	}

	main := e.registry.Main()
	if main == nil {
		return solana.PublicKey{}, ErrNoMainWallet
	}

	blockhash, lastValid, err := e.chain.LatestBlockhash(ctx)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("latest blockhash: %w", err)
	}
	ix := associatedtokenaccount.NewCreateInstruction(main.PublicKey, owner, mint).Build()
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, blockhash, solana.TransactionPayer(main.PublicKey))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("build token account creation: %w", err)
	}
	if _, err := tx.Sign(signerFor(main.Secret)); err != nil {
		return solana.PublicKey{}, fmt.Errorf("sign token account creation: %w", err)
	}

	sig, err := e.chain.SendTransaction(ctx, tx)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("submit token account creation: %w", err)
	}
	if err := e.chain.ConfirmTransaction(ctx, sig, blockhash, lastValid); err != nil {
		return solana.PublicKey{}, fmt.Errorf("confirm token account creation: %w", err)
	}

	if err := e.registry.Apply(address, func(wl *models.Wallet) {
		wl.TokenAccounts[mintKey] = account.String()
	}); err != nil {
		return solana.PublicKey{}, err
	}
	e.tl.Append(address, models.OpATACreation, sig.String(), models.LogSuccess,
		fmt.Sprintf("Created token account for %s", mintKey))
	return account, nil
}

// CreateTokenAccounts provisions the configured token's account for every
// managed wallet. Per-wallet failures are recorded and the loop continues.
func (e *Engine) CreateTokenAccounts(ctx context.Context) error {
	if e.registry.Main() == nil {
		return ErrNoMainWallet
	}
	if e.registry.Count() == 0 {
		return ErrNoWallets
	}
	cfg := e.cfg.Get()
	mint, err := solana.PublicKeyFromBase58(cfg.TokenAddress)
	if err != nil {
		return fmt.Errorf("no token mint configured: %w", err)
	}

	for _, w := range e.registry.List() {
		if _, err := e.EnsureTokenAccount(ctx, w.PublicKey, mint); err != nil {
			e.log.WithError(err).WithField("wallet", w.PublicKey).Error("token account creation failed")
			e.tl.Append(w.PublicKey, models.OpATACreation, "", models.LogFailed,
				fmt.Sprintf("ATA creation failed: %v", err))
		}
	}
	return nil
}
