package bot

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/benhmida0588/solbot2026/jupiter"
	"github.com/benhmida0588/solbot2026/models"
	"github.com/benhmida0588/solbot2026/wallets"
)

// TradeWallets runs one trade cycle over every managed wallet, strictly
// sequentially. A wallet's failure marks that wallet failed and moves on;
// it never aborts the cycle for the others.
func (e *Engine) TradeWallets(ctx context.Context) error {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	cfg := e.cfg.Get()
	if !cfg.IsTrading || len(cfg.TokenList) == 0 {
		e.log.Debug("trading not active or no tokens configured")
		return nil
	}
	mint, err := solana.PublicKeyFromBase58(cfg.TokenAddress)
	if err != nil {
		return fmt.Errorf("invalid token mint %q: %w", cfg.TokenAddress, err)
	}

	for _, w := range e.registry.List() {
		e.tradeWallet(ctx, w.PublicKey, cfg, mint)
	}
	return nil
}

func (e *Engine) tradeWallet(ctx context.Context, address string, cfg models.Config, mint solana.PublicKey) {
	if err := e.registry.Apply(address, func(w *models.Wallet) {
		w.TradeStatus = models.StatusTrading
	}); err != nil {
		e.log.WithError(err).WithField("wallet", address).Error("trade skipped")
		return
	}

	if err := e.executeTrade(ctx, address, cfg, mint); err != nil {
		e.log.WithError(err).WithField("wallet", address).Error("trade failed")
		if aerr := e.registry.Apply(address, func(w *models.Wallet) {
			w.TradeStatus = models.StatusFailed
		}); aerr != nil {
			e.log.WithError(aerr).WithField("wallet", address).Error("failed to mark wallet failed")
		}
		e.tl.Append(address, models.OpTrade, "", models.LogFailed, fmt.Sprintf("Trade failed: %v", err))
	}
}

func (e *Engine) executeTrade(ctx context.Context, address string, cfg models.Config, mint solana.PublicKey) error {
	w, ok := e.registry.Get(address)
	if !ok {
		return fmt.Errorf("%w: %s", wallets.ErrWalletNotFound, address)
	}
	owner, err := solana.PublicKeyFromBase58(w.PublicKey)
	if err != nil {
		return fmt.Errorf("invalid wallet address: %w", err)
	}

	isBuy := cfg.TradeMode == models.ModeBuy || (cfg.TradeMode == models.ModeRandom && e.coinFlip())

	if _, err := e.EnsureTokenAccount(ctx, address, mint); err != nil {
		return fmt.Errorf("ensure token account: %w", err)
	}

	spend := uint64(cfg.SwapAmount * lamportsPerSOL)
	balance, err := e.chain.Balance(ctx, owner)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	if isBuy && balance < spend+txFeeLamports {
		return fmt.Errorf("%w: have %d lamports, need %d", ErrInsufficientFunds, balance, spend+txFeeLamports)
	}

	inputMint, outputMint, amount := solMint, mint, spend
	if !isBuy {
		inputMint, outputMint, amount = mint, solMint, sellUnitAmount
	}
	e.log.WithFields(map[string]interface{}{
		"wallet": address,
		"buy":    isBuy,
		"amount": amount,
	}).Info("attempting swap")

	quote, sig, err := e.swapExact(ctx, w, inputMint, outputMint, amount)
	if err != nil {
		return err
	}
	out, err := strconv.ParseUint(quote.OutAmount, 10, 64)
	if err != nil {
		return fmt.Errorf("parse quote output %q: %w", quote.OutAmount, err)
	}

	mintKey := mint.String()
	if err := e.registry.Apply(address, func(wl *models.Wallet) {
		if isBuy {
			if wl.SolBalance >= spend {
				wl.SolBalance -= spend
			} else {
				wl.SolBalance = 0
			}
			wl.TokenBalances[mintKey] += out
		} else {
			wl.SolBalance += out
			if wl.TokenBalances[mintKey] >= sellUnitAmount {
				wl.TokenBalances[mintKey] -= sellUnitAmount
			} else {
				wl.TokenBalances[mintKey] = 0
			}
		}
		wl.TradeStatus = models.StatusIdle
	}); err != nil {
		return err
	}

	symbol := tokenSymbol(cfg, mintKey)
	var detail string
	if isBuy {
		detail = fmt.Sprintf("Bought %v SOL of %s for %s base units", cfg.SwapAmount, symbol, quote.OutAmount)
	} else {
		detail = fmt.Sprintf("Sold %d %s base units for %s lamports", sellUnitAmount, symbol, quote.OutAmount)
	}
	e.tl.Append(address, models.OpTrade, sig.String(), models.LogSuccess, detail)
	return nil
}

// SellAllTokens liquidates each wallet's full on-chain token balance back
// to SOL and closes the emptied token account, reclaiming its rent. The
// on-chain balance, not the tracked figure, is authoritative.
func (e *Engine) SellAllTokens(ctx context.Context) error {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	if e.registry.Count() == 0 {
		return ErrNoWallets
	}
	cfg := e.cfg.Get()
	mint, err := solana.PublicKeyFromBase58(cfg.TokenAddress)
	if err != nil {
		return fmt.Errorf("invalid token mint %q: %w", cfg.TokenAddress, err)
	}

	for _, w := range e.registry.List() {
		e.sellWallet(ctx, w.PublicKey, cfg, mint)
	}
	return nil
}

func (e *Engine) sellWallet(ctx context.Context, address string, cfg models.Config, mint solana.PublicKey) {
	if err := e.registry.Apply(address, func(w *models.Wallet) {
		w.TradeStatus = models.StatusSelling
	}); err != nil {
		e.log.WithError(err).WithField("wallet", address).Error("sell skipped")
		return
	}

	err := e.executeSellAll(ctx, address, cfg, mint)
	if errors.Is(err, errNothingToSell) {
		e.log.WithField("wallet", address).Info("no tokens to sell")
		if aerr := e.registry.Apply(address, func(w *models.Wallet) {
			w.TradeStatus = models.StatusIdle
		}); aerr != nil {
			e.log.WithError(aerr).WithField("wallet", address).Error("failed to reset wallet status")
		}
		return
	}
	if err != nil {
		e.log.WithError(err).WithField("wallet", address).Error("sell failed")
		if aerr := e.registry.Apply(address, func(w *models.Wallet) {
			w.TradeStatus = models.StatusFailed
		}); aerr != nil {
			e.log.WithError(aerr).WithField("wallet", address).Error("failed to mark wallet failed")
		}
		e.tl.Append(address, models.OpSellAll, "", models.LogFailed, fmt.Sprintf("Sell failed: %v", err))
	}
}

// executeSellAll is a two-transaction saga: swap the full balance, then
// close the account. Each step name is carried in the error so the log
// records which step broke; balance updates applied before a later failure
// are deliberately not rolled back.
func (e *Engine) executeSellAll(ctx context.Context, address string, cfg models.Config, mint solana.PublicKey) error {
	w, ok := e.registry.Get(address)
	if !ok {
		return fmt.Errorf("%w: %s", wallets.ErrWalletNotFound, address)
	}
	mintKey := mint.String()

	account, err := e.EnsureTokenAccount(ctx, address, mint)
	if err != nil {
		return fmt.Errorf("ensure token account: %w", err)
	}

	tokenBalance, err := e.chain.TokenBalance(ctx, account)
	if err != nil {
		return fmt.Errorf("read token balance: %w", err)
	}
	if tokenBalance == 0 {
		return errNothingToSell
	}

	quote, swapSig, err := e.swapExact(ctx, w, mint, solMint, tokenBalance)
	if err != nil {
		return err
	}
	out, err := strconv.ParseUint(quote.OutAmount, 10, 64)
	if err != nil {
		return fmt.Errorf("parse quote output %q: %w", quote.OutAmount, err)
	}

	if err := e.registry.Apply(address, func(wl *models.Wallet) {
		wl.SolBalance += out
		wl.TokenBalances[mintKey] = 0
	}); err != nil {
		return err
	}

	closeSig, err := e.closeTokenAccount(ctx, w, account)
	if err != nil {
		return fmt.Errorf("close account: %w", err)
	}

	if err := e.registry.Apply(address, func(wl *models.Wallet) {
		delete(wl.TokenAccounts, mintKey)
		wl.SolBalance += ataRentLamports
		wl.TradeStatus = models.StatusIdle
	}); err != nil {
		return err
	}

	e.tl.Append(address, models.OpSellAll, swapSig.String(), models.LogSuccess,
		fmt.Sprintf("Sold %d %s base units for %s lamports, closed token account (%s)",
			tokenBalance, tokenSymbol(cfg, mintKey), quote.OutAmount, closeSig))
	return nil
}

// swapExact quotes, builds, signs, submits and confirms one swap. The
// quote fetch, payload build and submission run inside the retry envelope;
// confirmation does not.
func (e *Engine) swapExact(ctx context.Context, w models.Wallet, inputMint, outputMint solana.PublicKey, amount uint64) (*jupiter.QuoteResponse, solana.Signature, error) {
	quote, err := retry(ctx, retryAttempts, e.retryDelay, func() (*jupiter.QuoteResponse, error) {
		return e.swap.GetQuote(ctx, &jupiter.QuoteParams{
			InputMint:   inputMint.String(),
			OutputMint:  outputMint.String(),
			Amount:      strconv.FormatUint(amount, 10),
			SlippageBps: slippageBps,
		})
	})
	if err != nil {
		return nil, solana.Signature{}, fmt.Errorf("quote: %w", err)
	}

	swapResp, err := retry(ctx, retryAttempts, e.retryDelay, func() (*jupiter.SwapResponse, error) {
		resp, err := e.swap.BuildSwapTransaction(ctx, &jupiter.SwapParams{
			QuoteResponse:    quote,
			UserPublicKey:    w.PublicKey,
			WrapAndUnwrapSol: true,
		})
		if err != nil {
			return nil, err
		}
		if resp.SwapTransaction == "" {
			return nil, ErrNoSwapTransaction
		}
		return resp, nil
	})
	if err != nil {
		return nil, solana.Signature{}, fmt.Errorf("swap build: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(swapResp.SwapTransaction)
	if err != nil {
		return nil, solana.Signature{}, fmt.Errorf("decode swap transaction: %w", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, solana.Signature{}, fmt.Errorf("deserialize swap transaction: %w", err)
	}
	if _, err := tx.Sign(signerFor(w.Secret)); err != nil {
		return nil, solana.Signature{}, fmt.Errorf("sign swap transaction: %w", err)
	}

	sig, err := retry(ctx, retryAttempts, e.retryDelay, func() (solana.Signature, error) {
		return e.chain.SendTransaction(ctx, tx)
	})
	if err != nil {
		return nil, solana.Signature{}, fmt.Errorf("submit: %w", err)
	}

	_, lastValid, err := e.chain.LatestBlockhash(ctx)
	if err != nil {
		return nil, sig, fmt.Errorf("latest blockhash: %w", err)
	}
	if err := e.chain.ConfirmTransaction(ctx, sig, tx.Message.RecentBlockhash, lastValid); err != nil {
		return nil, sig, fmt.Errorf("confirm: %w", err)
	}
	return quote, sig, nil
}

// closeTokenAccount submits the rent-reclaiming close for an emptied
// token account, signed and paid by the owning wallet.
func (e *Engine) closeTokenAccount(ctx context.Context, w models.Wallet, account solana.PublicKey) (solana.Signature, error) {
	owner, err := solana.PublicKeyFromBase58(w.PublicKey)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("invalid wallet address: %w", err)
	}

	blockhash, lastValid, err := e.chain.LatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("latest blockhash: %w", err)
	}
	ix := token.NewCloseAccountInstruction(account, owner, owner, nil).Build()
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, blockhash, solana.TransactionPayer(owner))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build close: %w", err)
	}
	if _, err := tx.Sign(signerFor(w.Secret)); err != nil {
		return solana.Signature{}, fmt.Errorf("sign close: %w", err)
	}

	sig, err := e.chain.SendTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("submit close: %w", err)
	}
	if err := e.chain.ConfirmTransaction(ctx, sig, blockhash, lastValid); err != nil {
		return sig, fmt.Errorf("confirm close: %w", err)
	}
	return sig, nil
}

func tokenSymbol(cfg models.Config, mint string) string {
	for _, t := range cfg.TokenList {
		if t.Mint == mint {
			return t.Symbol
		}
	}
	return "token"
}
