// Package wallets owns the set of managed wallets. All mutation goes
// through the registry so a manual API trigger and the scheduled cycle can
// never interleave writes to the same wallet.
package wallets

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/benhmida0588/solbot2026/models"
	"github.com/benhmida0588/solbot2026/store"
	"github.com/benhmida0588/solbot2026/txlog"
)

// ErrWalletNotFound is returned when a mutation targets an unknown address.
var ErrWalletNotFound = errors.New("wallet not found")

// Registry is the single writer for managed wallet state. Every mutation
// and the persistence write it implies happen under one lock.
type Registry struct {
	log   logrus.FieldLogger
	store store.Store
	tl    *txlog.Log

	mu   sync.Mutex
	list []*models.Wallet
	main *models.MainWallet
}

// New builds an empty registry backed by the given store.
func New(st store.Store, tl *txlog.Log, log logrus.FieldLogger) *Registry {
	return &Registry{log: log, store: st, tl: tl}
}

// Load restores the wallet snapshot. Wallet load is fail-open: a corrupt or
// unreadable snapshot leaves the registry empty and records the failure,
// it never aborts the process.
func (r *Registry) Load() {
	wallets, err := r.store.LoadWallets()
	if err != nil {
		r.mu.Lock()
		r.list = nil
		r.mu.Unlock()
		if errors.Is(err, fs.ErrNotExist) {
			r.log.Info("no wallet snapshot found, starting with empty registry")
			return
		}
		r.log.WithError(err).Error("failed to load wallets")
		r.tl.Append("", models.OpLoadWallets, "", models.LogFailed, fmt.Sprintf("Failed to load wallets: %v", err))
		return
	}

	r.mu.Lock()
	r.list = make([]*models.Wallet, len(wallets))
	for i := range wallets {
		w := wallets[i].Clone()
		r.list[i] = &w
	}
	r.mu.Unlock()
	r.log.WithField("count", len(wallets)).Info("loaded wallets")
}

// LoadMain decodes the base58-encoded treasury secret key.
func (r *Registry) LoadMain(secret string) error {
	if secret == "" {
		return errors.New("main wallet secret key missing")
	}
	raw, err := base58.Decode(secret)
	if err != nil {
		return fmt.Errorf("decode main wallet secret: %w", err)
	}
	if len(raw) != 64 {
		return fmt.Errorf("main wallet secret has %d bytes, want 64", len(raw))
	}
	key := solana.PrivateKey(raw)

	r.mu.Lock()
	r.main = &models.MainWallet{PublicKey: key.PublicKey(), Secret: key}
	r.mu.Unlock()
	r.log.WithField("wallet", key.PublicKey().String()).Info("loaded main wallet")
	return nil
}

// Main returns the treasury wallet, or nil when none is loaded.
func (r *Registry) Main() *models.MainWallet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.main
}

// List returns a snapshot of all wallets in insertion order.
func (r *Registry) List() []models.Wallet {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Wallet, len(r.list))
	for i, w := range r.list {
		out[i] = w.Clone()
	}
	return out
}

// Get returns a snapshot of one wallet.
func (r *Registry) Get(address string) (models.Wallet, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.list {
		if w.PublicKey == address {
			return w.Clone(), true
		}
	}
	return models.Wallet{}, false
}

// Count reports the number of managed wallets.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.list)
}

// Provision replaces the entire registry with n freshly generated wallets
// and persists the new snapshot. Existing wallets are discarded, so any
// SOL or tokens they still hold must be restored first.
func (r *Registry) Provision(n int) ([]models.Wallet, error) {
	fresh := make([]*models.Wallet, n)
	for i := 0; i < n; i++ {
		key, err := solana.NewRandomPrivateKey()
		if err != nil {
			return nil, fmt.Errorf("generate keypair: %w", err)
		}
		fresh[i] = &models.Wallet{
			PublicKey:     key.PublicKey().String(),
			Secret:        key,
			SolBalance:    0,
			TokenBalances: map[string]uint64{},
			TradeStatus:   models.StatusIdle,
			TokenAccounts: map[string]string{},
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = fresh
	if err := r.persistLocked(); err != nil {
		return nil, err
	}
	r.log.WithField("count", n).Info("provisioned wallets")

	out := make([]models.Wallet, n)
	for i, w := range r.list {
		out[i] = w.Clone()
	}
	return out, nil
}

// Apply runs fn against one wallet and persists the resulting snapshot.
// The mutation and the write are atomic with respect to every other
// registry operation.
func (r *Registry) Apply(address string, fn func(w *models.Wallet)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.list {
		if w.PublicKey == address {
			fn(w)
			return r.persistLocked()
		}
	}
	return fmt.Errorf("%w: %s", ErrWalletNotFound, address)
}

func (r *Registry) persistLocked() error {
	snapshot := make([]models.Wallet, len(r.list))
	for i, w := range r.list {
		snapshot[i] = w.Clone()
	}
	if err := r.store.SaveWallets(snapshot); err != nil {
		return fmt.Errorf("persist wallets: %w", err)
	}
	return nil
}
