// Package bot is the trading orchestrator: the scheduled trade cycle, the
// swap execution pipeline, and the token account provisioner.
package bot

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/sirupsen/logrus"

	"github.com/benhmida0588/solbot2026/config"
	"github.com/benhmida0588/solbot2026/models"
	"github.com/benhmida0588/solbot2026/txlog"
	"github.com/benhmida0588/solbot2026/wallets"
)

const (
	lamportsPerSOL = 1_000_000_000

	// Flat fee reserve per transaction.
	txFeeLamports = 5_000

	// Rent deposit returned when a token account is closed.
	ataRentLamports = 10_000_000

	// Fixed base-unit amount sold per cycle in sell mode.
	sellUnitAmount = 10_000

	slippageBps = 100

	// One initial attempt plus three retries for the external calls.
	retryAttempts = 4

	defaultInterval   = 30 * time.Second
	defaultRetryDelay = time.Second

	// Wallets created per provisioning call.
	walletBatchSize = 2
)

var solMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

// Engine owns all orchestrator state. One engine runs per process; tests
// construct as many independent ones as they need.
type Engine struct {
	log      logrus.FieldLogger
	registry *wallets.Registry
	cfg      *config.Store
	tl       *txlog.Log
	chain    ChainClient
	swap     SwapClient

	interval   time.Duration
	retryDelay time.Duration
	coinFlip   func() bool

	// mu guards the scheduler; cycleMu serializes trade cycles so a manual
	// trigger can never overlap the timer-driven one.
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}

	cycleMu sync.Mutex
}

// New builds an engine around its collaborators.
func New(log logrus.FieldLogger, registry *wallets.Registry, cfg *config.Store, tl *txlog.Log, chain ChainClient, swap SwapClient) *Engine {
	return &Engine{
		log:        log,
		registry:   registry,
		cfg:        cfg,
		tl:         tl,
		chain:      chain,
		swap:       swap,
		interval:   defaultInterval,
		retryDelay: defaultRetryDelay,
		coinFlip:   func() bool { return rand.Intn(2) == 0 },
	}
}

// Wallets returns a snapshot of all managed wallets.
func (e *Engine) Wallets() []models.Wallet {
	return e.registry.List()
}

// Config returns the current trading configuration.
func (e *Engine) Config() models.Config {
	return e.cfg.Get()
}

// UpdateConfig merges a partial configuration update.
func (e *Engine) UpdateConfig(p config.Partial) error {
	return e.cfg.Update(p)
}

// Logs returns the retained transaction log.
func (e *Engine) Logs() []models.TransactionLogEntry {
	return e.tl.Entries()
}

// MainWalletInfo returns the treasury address with its live balance.
func (e *Engine) MainWalletInfo(ctx context.Context) (models.MainWalletInfo, error) {
	main := e.registry.Main()
	if main == nil {
		return models.MainWalletInfo{}, ErrNoMainWallet
	}
	balance, err := e.chain.Balance(ctx, main.PublicKey)
	if err != nil {
		return models.MainWalletInfo{}, err
	}
	return models.MainWalletInfo{PublicKey: main.PublicKey.String(), Balance: balance}, nil
}

// ProvisionWallets replaces the registry with a fresh batch of wallets.
func (e *Engine) ProvisionWallets() error {
	_, err := e.registry.Provision(walletBatchSize)
	return err
}

// FundWallets transfers the given lamport amount from the main wallet to
// every managed wallet. One wallet's failure never aborts the loop.
func (e *Engine) FundWallets(ctx context.Context, amount uint64) error {
	main := e.registry.Main()
	if main == nil {
		return ErrNoMainWallet
	}
	if e.registry.Count() == 0 {
		return ErrNoWallets
	}
	if amount == 0 {
		return ErrInvalidAmount
	}

	e.log.WithFields(logrus.Fields{
		"wallets": e.registry.Count(),
		"amount":  float64(amount) / lamportsPerSOL,
	}).Info("funding wallets")

	for _, w := range e.registry.List() {
		if err := e.fundWallet(ctx, main, w.PublicKey, amount); err != nil {
			e.log.WithError(err).WithField("wallet", w.PublicKey).Error("funding failed")
			e.tl.Append(w.PublicKey, models.OpFunding, "", models.LogFailed, fmt.Sprintf("Funding failed: %v", err))
		}
	}
	return nil
}

func (e *Engine) fundWallet(ctx context.Context, main *models.MainWallet, address string, amount uint64) error {
	recipient, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return fmt.Errorf("invalid wallet address: %w", err)
	}

	sig, err := e.transfer(ctx, main.PublicKey, recipient, amount, main.Secret)
	if err != nil {
		return err
	}

	if err := e.registry.Apply(address, func(w *models.Wallet) {
		w.SolBalance += amount
	}); err != nil {
		return err
	}
	e.tl.Append(address, models.OpFunding, sig.String(), models.LogSuccess,
		fmt.Sprintf("Funded %v SOL", float64(amount)/lamportsPerSOL))
	return nil
}

// RestoreSolToMainWallet sweeps each wallet's on-chain SOL back to the
// treasury, leaving the fee reserve behind. Dust balances are skipped
// without submitting anything.
func (e *Engine) RestoreSolToMainWallet(ctx context.Context) error {
	main := e.registry.Main()
	if main == nil {
		return ErrNoMainWallet
	}
	if e.registry.Count() == 0 {
		return ErrNoWallets
	}

	for _, w := range e.registry.List() {
		if err := e.restoreWallet(ctx, main, w.PublicKey); err != nil {
			e.log.WithError(err).WithField("wallet", w.PublicKey).Error("restore failed")
			e.tl.Append(w.PublicKey, models.OpRestore, "", models.LogFailed, fmt.Sprintf("Restore failed: %v", err))
		}
	}
	return nil
}

func (e *Engine) restoreWallet(ctx context.Context, main *models.MainWallet, address string) error {
	w, ok := e.registry.Get(address)
	if !ok {
		return fmt.Errorf("%w: %s", wallets.ErrWalletNotFound, address)
	}
	owner, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return fmt.Errorf("invalid wallet address: %w", err)
	}

	balance, err := e.chain.Balance(ctx, owner)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	if balance <= txFeeLamports {
		e.log.WithField("wallet", address).Info("skipping restore, balance below fee reserve")
		e.tl.Append(address, models.OpRestore, "", models.LogSkipped,
			fmt.Sprintf("Insufficient balance: %v SOL", float64(balance)/lamportsPerSOL))
		return nil
	}
	transferAmount := balance - txFeeLamports

	sig, err := e.transfer(ctx, owner, main.PublicKey, transferAmount, w.Secret)
	if err != nil {
		return err
	}

	if err := e.registry.Apply(address, func(wl *models.Wallet) {
		wl.SolBalance = txFeeLamports
	}); err != nil {
		return err
	}
	e.tl.Append(address, models.OpRestore, sig.String(), models.LogSuccess,
		fmt.Sprintf("Restored %v SOL", float64(transferAmount)/lamportsPerSOL))
	return nil
}

// transfer builds, signs, submits and confirms a system transfer where the
// sender pays the fee.
func (e *Engine) transfer(ctx context.Context, from, to solana.PublicKey, amount uint64, signer solana.PrivateKey) (solana.Signature, error) {
	blockhash, lastValid, err := e.chain.LatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("latest blockhash: %w", err)
	}

	ix := system.NewTransferInstruction(amount, from, to).Build()
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, blockhash, solana.TransactionPayer(from))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build transfer: %w", err)
	}
	if _, err := tx.Sign(signerFor(signer)); err != nil {
		return solana.Signature{}, fmt.Errorf("sign transfer: %w", err)
	}

	sig, err := e.chain.SendTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("submit transfer: %w", err)
	}
	if err := e.chain.ConfirmTransaction(ctx, sig, blockhash, lastValid); err != nil {
		return sig, fmt.Errorf("confirm transfer: %w", err)
	}
	return sig, nil
}

// signerFor returns a key getter for a single signing credential.
func signerFor(key solana.PrivateKey) func(solana.PublicKey) *solana.PrivateKey {
	pub := key.PublicKey()
	return func(candidate solana.PublicKey) *solana.PrivateKey {
		if candidate.Equals(pub) {
			return &key
		}
		return nil
	}
}

// StartTrade validates preconditions, flips the trading flag and arms the
// scheduler: one immediate cycle, then the recurring timer. Calling it
// while trading is already active is rejected without side effects.
func (e *Engine) StartTrade() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		e.log.Info("trading already active")
		return ErrAlreadyTrading
	}

	cfg := e.cfg.Get()
	if err := e.tradePreconditions(cfg); err != nil {
		e.log.WithError(err).Error("failed to start trade")
		e.tl.Append("", models.OpStartTrade, "", models.LogFailed, fmt.Sprintf("Failed to start trade: %v", err))
		return err
	}

	// the flag and the scheduler state flip under the same lock, so a
	// concurrent StopTrade can never observe one without the other
	if err := e.cfg.SetTrading(true); err != nil {
		e.tl.Append("", models.OpStartTrade, "", models.LogFailed, fmt.Sprintf("Failed to start trade: %v", err))
		return err
	}
	e.running = true
	e.stopCh = make(chan struct{})

	e.log.Info("trade started")
	go e.loop(e.stopCh)
	return nil
}

func (e *Engine) tradePreconditions(cfg models.Config) error {
	if e.registry.Count() == 0 {
		return ErrNoWallets
	}
	if len(cfg.TokenList) == 0 || cfg.TokenAddress == "" {
		return ErrNoToken
	}
	if _, err := solana.PublicKeyFromBase58(cfg.TokenAddress); err != nil {
		return fmt.Errorf("invalid tokenAddress %q: %w", cfg.TokenAddress, err)
	}
	return nil
}

// loop drives the recurring trade cycle. Closing stop guarantees no
// further cycle is dispatched; the in-flight one runs to completion.
func (e *Engine) loop(stop <-chan struct{}) {
	// StopTrade may have fired before this goroutine was scheduled
	select {
	case <-stop:
		return
	default:
	}
	e.runCycle()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			e.log.Info("trade loop stopped")
			return
		case <-ticker.C:
			e.runCycle()
		}
	}
}

// runCycle swallows cycle-level errors so the timer never dies.
func (e *Engine) runCycle() {
	if err := e.TradeWallets(context.Background()); err != nil {
		e.log.WithError(err).Error("trade cycle failed")
	}
}

// StopTrade clears the trading flag and cancels the timer. Stopping an
// engine that is not running is a true no-op: nothing is logged and the
// persisted snapshot is left alone. Idempotent.
func (e *Engine) StopTrade() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return nil
	}
	close(e.stopCh)
	e.stopCh = nil
	e.running = false

	e.log.Info("trade stopped")
	return e.cfg.SetTrading(false)
}

// isRunning reports the scheduler state under its lock.
func (e *Engine) isRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}
