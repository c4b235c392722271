// Package config owns the validated trading configuration. Loading fails
// closed; updates are merged field by field and re-validated as a whole
// before anything is persisted.
package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/benhmida0588/solbot2026/models"
	"github.com/benhmida0588/solbot2026/store"
	"github.com/benhmida0588/solbot2026/txlog"
)

// ErrInvalid marks a configuration that must not be traded with.
var ErrInvalid = errors.New("invalid config")

// Store holds the current configuration and persists every mutation.
type Store struct {
	log logrus.FieldLogger
	st  store.Store

	mu  sync.Mutex
	cur models.Config
}

// Partial is a field-by-field configuration update. Nil fields keep their
// current value.
type Partial struct {
	SwapAmount       *float64           `json:"swapAmount"`
	TradeMode        *models.TradeMode  `json:"tradeMode"`
	ConcurrencyLimit *int               `json:"concurrencyLimit"`
	TokenAddress     *string            `json:"tokenAddress"`
	TokenList        []models.TokenInfo `json:"tokenList"`
	IsTrading        *bool              `json:"isTrading"`
}

// Load reads and validates the persisted configuration. Any failure is
// fatal to the caller: the process must not trade with a defaulted or
// partial config. The failure is recorded before it is returned.
func Load(st store.Store, tl *txlog.Log, log logrus.FieldLogger) (*Store, error) {
	cfg, err := st.LoadConfig()
	if err == nil {
		err = Validate(cfg)
	}
	if err != nil {
		log.WithError(err).Error("failed to load config")
		tl.Append("", models.OpLoadConfig, "", models.LogFailed, fmt.Sprintf("Failed to load config: %v", err))
		return nil, fmt.Errorf("load config: %w", err)
	}

	log.WithFields(logrus.Fields{
		"tradeMode":  cfg.TradeMode,
		"swapAmount": cfg.SwapAmount,
		"token":      cfg.TokenAddress,
		"isTrading":  cfg.IsTrading,
	}).Info("loaded config")
	return &Store{log: log, st: st, cur: cfg}, nil
}

// Validate checks the invariants every trading run depends on.
func Validate(cfg models.Config) error {
	if cfg.SwapAmount <= 0 {
		return fmt.Errorf("%w: swapAmount must be positive, got %v", ErrInvalid, cfg.SwapAmount)
	}
	switch cfg.TradeMode {
	case models.ModeBuy, models.ModeSell, models.ModeRandom:
	default:
		return fmt.Errorf("%w: tradeMode must be buy, sell or random, got %q", ErrInvalid, cfg.TradeMode)
	}
	if cfg.ConcurrencyLimit <= 0 {
		return fmt.Errorf("%w: concurrencyLimit must be positive, got %d", ErrInvalid, cfg.ConcurrencyLimit)
	}
	if cfg.TokenAddress == "" {
		return fmt.Errorf("%w: tokenAddress is required", ErrInvalid)
	}
	if _, err := solana.PublicKeyFromBase58(cfg.TokenAddress); err != nil {
		return fmt.Errorf("%w: tokenAddress %q is not a valid address", ErrInvalid, cfg.TokenAddress)
	}
	if cfg.TokenList == nil {
		return fmt.Errorf("%w: tokenList is required", ErrInvalid)
	}
	return nil
}

// Get returns the current configuration.
func (s *Store) Get() models.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Update merges the partial into the current configuration, validates the
// merged result, and persists it. An invalid merge is rejected atomically:
// neither memory nor the store changes.
func (s *Store) Update(p Partial) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.cur
	if p.SwapAmount != nil {
		merged.SwapAmount = *p.SwapAmount
	}
	if p.TradeMode != nil {
		merged.TradeMode = *p.TradeMode
	}
	if p.ConcurrencyLimit != nil {
		merged.ConcurrencyLimit = *p.ConcurrencyLimit
	}
	if p.TokenAddress != nil {
		merged.TokenAddress = *p.TokenAddress
	}
	if p.TokenList != nil {
		merged.TokenList = p.TokenList
	}
	if p.IsTrading != nil {
		merged.IsTrading = *p.IsTrading
	}

	if err := Validate(merged); err != nil {
		return err
	}
	if err := s.st.SaveConfig(merged); err != nil {
		return fmt.Errorf("persist config: %w", err)
	}
	s.cur = merged
	return nil
}

// SetTrading flips the scheduler flag and persists.
func (s *Store) SetTrading(v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := s.cur
	merged.IsTrading = v
	if err := s.st.SaveConfig(merged); err != nil {
		return fmt.Errorf("persist config: %w", err)
	}
	s.cur = merged
	return nil
}
