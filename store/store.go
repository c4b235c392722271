// Package store is the serialization boundary for wallet and config
// snapshots. It carries no business logic; the registry and config store
// decide when to persist, implementations decide only where.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"github.com/benhmida0588/solbot2026/models"
)

// Store persists wallet and config snapshots.
type Store interface {
	SaveWallets(wallets []models.Wallet) error
	// LoadWallets returns fs.ErrNotExist-compatible errors when no snapshot
	// has ever been written.
	LoadWallets() ([]models.Wallet, error)
	SaveConfig(cfg models.Config) error
	LoadConfig() (models.Config, error)
}

// walletSnapshot is the JSON shape of one persisted wallet. Secret keys are
// base58-encoded so a snapshot round-trips the key material byte for byte.
type walletSnapshot struct {
	PublicKey     string            `json:"publicKey"`
	SecretKey     string            `json:"secretKey"`
	SolBalance    uint64            `json:"solBalance"`
	TokenBalances map[string]uint64 `json:"tokenBalances"`
	TradeStatus   string            `json:"tradeStatus"`
	TokenAccounts map[string]string `json:"tokenAccounts"`
}

func snapshotWallet(w models.Wallet) walletSnapshot {
	return walletSnapshot{
		PublicKey:     w.PublicKey,
		SecretKey:     base58.Encode(w.Secret),
		SolBalance:    w.SolBalance,
		TokenBalances: w.TokenBalances,
		TradeStatus:   string(w.TradeStatus),
		TokenAccounts: w.TokenAccounts,
	}
}

func restoreWallet(s walletSnapshot) (models.Wallet, error) {
	secret, err := base58.Decode(s.SecretKey)
	if err != nil {
		return models.Wallet{}, fmt.Errorf("decode secret key for %s: %w", s.PublicKey, err)
	}
	if len(secret) != 64 {
		return models.Wallet{}, fmt.Errorf("secret key for %s has %d bytes, want 64", s.PublicKey, len(secret))
	}
	w := models.Wallet{
		PublicKey:     s.PublicKey,
		Secret:        solana.PrivateKey(secret),
		SolBalance:    s.SolBalance,
		TokenBalances: s.TokenBalances,
		TradeStatus:   models.TradeStatus(s.TradeStatus),
		TokenAccounts: s.TokenAccounts,
	}
	if w.TokenBalances == nil {
		w.TokenBalances = map[string]uint64{}
	}
	if w.TokenAccounts == nil {
		w.TokenAccounts = map[string]string{}
	}
	if w.TradeStatus == "" {
		w.TradeStatus = models.StatusIdle
	}
	return w, nil
}

func marshalTokenList(list []models.TokenInfo) (string, error) {
	if list == nil {
		list = []models.TokenInfo{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("marshal token list: %w", err)
	}
	return string(raw), nil
}

func unmarshalTokenList(raw string) ([]models.TokenInfo, error) {
	if raw == "" {
		return []models.TokenInfo{}, nil
	}
	var list []models.TokenInfo
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("unmarshal token list: %w", err)
	}
	return list, nil
}
