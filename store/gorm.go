package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"gorm.io/gorm"

	"github.com/benhmida0588/solbot2026/models"
)

// GormStore keeps the same wallet/config snapshots in MySQL rows, one row
// per wallet plus a singleton config row. It also doubles as the durable
// sink for transaction log entries.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore builds a database-backed store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// SaveWallets replaces the wallet table with the given snapshot.
func (g *GormStore) SaveWallets(wallets []models.Wallet) error {
	records := make([]models.WalletRecord, 0, len(wallets))
	for _, w := range wallets {
		snap := snapshotWallet(w)
		balances, err := json.Marshal(snap.TokenBalances)
		if err != nil {
			return fmt.Errorf("marshal token balances for %s: %w", w.PublicKey, err)
		}
		accounts, err := json.Marshal(snap.TokenAccounts)
		if err != nil {
			return fmt.Errorf("marshal token accounts for %s: %w", w.PublicKey, err)
		}
		records = append(records, models.WalletRecord{
			Address:       snap.PublicKey,
			SecretKey:     snap.SecretKey,
			SolBalance:    snap.SolBalance,
			TokenBalances: string(balances),
			TradeStatus:   snap.TradeStatus,
			TokenAccounts: string(accounts),
		})
	}

	return g.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.WalletRecord{}).Error; err != nil {
			return fmt.Errorf("clear wallet snapshot: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.Create(&records).Error; err != nil {
			return fmt.Errorf("write wallet snapshot: %w", err)
		}
		return nil
	})
}

// LoadWallets reads every wallet row in insertion order.
func (g *GormStore) LoadWallets() ([]models.Wallet, error) {
	var records []models.WalletRecord
	if err := g.db.Order("id asc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("read wallet snapshot: %w", err)
	}
	if len(records) == 0 {
		return nil, fs.ErrNotExist
	}
	wallets := make([]models.Wallet, 0, len(records))
	for _, rec := range records {
		snap := walletSnapshot{
			PublicKey:   rec.Address,
			SecretKey:   rec.SecretKey,
			SolBalance:  rec.SolBalance,
			TradeStatus: rec.TradeStatus,
		}
		if rec.TokenBalances != "" {
			if err := json.Unmarshal([]byte(rec.TokenBalances), &snap.TokenBalances); err != nil {
				return nil, fmt.Errorf("parse token balances for %s: %w", rec.Address, err)
			}
		}
		if rec.TokenAccounts != "" {
			if err := json.Unmarshal([]byte(rec.TokenAccounts), &snap.TokenAccounts); err != nil {
				return nil, fmt.Errorf("parse token accounts for %s: %w", rec.Address, err)
			}
		}
		w, err := restoreWallet(snap)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, nil
}

// SaveConfig upserts the singleton config row.
func (g *GormStore) SaveConfig(cfg models.Config) error {
	tokenList, err := marshalTokenList(cfg.TokenList)
	if err != nil {
		return err
	}
	record := models.ConfigRecord{
		ID:               1,
		SwapAmount:       cfg.SwapAmount,
		TradeMode:        string(cfg.TradeMode),
		ConcurrencyLimit: cfg.ConcurrencyLimit,
		TokenAddress:     cfg.TokenAddress,
		TokenList:        tokenList,
		IsTrading:        cfg.IsTrading,
	}
	if err := g.db.Save(&record).Error; err != nil {
		return fmt.Errorf("write config snapshot: %w", err)
	}
	return nil
}

// LoadConfig reads the singleton config row.
func (g *GormStore) LoadConfig() (models.Config, error) {
	var record models.ConfigRecord
	if err := g.db.First(&record, 1).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Config{}, fs.ErrNotExist
		}
		return models.Config{}, fmt.Errorf("read config snapshot: %w", err)
	}
	tokenList, err := unmarshalTokenList(record.TokenList)
	if err != nil {
		return models.Config{}, err
	}
	return models.Config{
		SwapAmount:       record.SwapAmount,
		TradeMode:        models.TradeMode(record.TradeMode),
		ConcurrencyLimit: record.ConcurrencyLimit,
		TokenAddress:     record.TokenAddress,
		TokenList:        tokenList,
		IsTrading:        record.IsTrading,
	}, nil
}

// AppendLog persists one transaction log entry. Implements txlog.Sink.
func (g *GormStore) AppendLog(entry models.TransactionLogEntry) error {
	entry.ID = 0
	if err := g.db.Create(&entry).Error; err != nil {
		return fmt.Errorf("write transaction log entry: %w", err)
	}
	return nil
}
