package store

import (
	"io/fs"
	"sync"

	"github.com/benhmida0588/solbot2026/models"
)

// MemoryStore is an in-process Store used by tests. It round-trips through
// the same snapshot codec as the durable implementations.
type MemoryStore struct {
	mu      sync.Mutex
	wallets []walletSnapshot
	cfg     *models.Config
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) SaveWallets(wallets []models.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snaps := make([]walletSnapshot, len(wallets))
	for i, w := range wallets {
		snaps[i] = snapshotWallet(w)
	}
	m.wallets = snaps
	return nil
}

func (m *MemoryStore) LoadWallets() ([]models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.wallets == nil {
		return nil, fs.ErrNotExist
	}
	wallets := make([]models.Wallet, 0, len(m.wallets))
	for _, s := range m.wallets {
		w, err := restoreWallet(s)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, nil
}

func (m *MemoryStore) SaveConfig(cfg models.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := cfg
	m.cfg = &c
	return nil
}

func (m *MemoryStore) LoadConfig() (models.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cfg == nil {
		return models.Config{}, fs.ErrNotExist
	}
	return *m.cfg, nil
}

// WalletCount reports how many wallets the last snapshot held.
func (m *MemoryStore) WalletCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.wallets)
}
