package models

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// TradeStatus tracks where a wallet is in its trade lifecycle.
type TradeStatus string

const (
	StatusIdle    TradeStatus = "idle"
	StatusTrading TradeStatus = "trading"
	StatusSelling TradeStatus = "selling"
	StatusFailed  TradeStatus = "failed"
)

// TradeMode selects the direction of scheduled swaps.
type TradeMode string

const (
	ModeBuy    TradeMode = "buy"
	ModeSell   TradeMode = "sell"
	ModeRandom TradeMode = "random"
)

// Operation types recorded in the transaction log.
const (
	OpFunding     = "funding"
	OpATACreation = "ata_creation"
	OpRestore     = "restore"
	OpTrade       = "trade"
	OpSellAll     = "sell_all"
	OpStartTrade  = "start_trade"
	OpLoadWallets = "load_wallets"
	OpLoadConfig  = "load_config"
)

// Transaction log entry statuses.
const (
	LogSuccess = "success"
	LogFailed  = "failed"
	LogSkipped = "skipped"
)

// Wallet is a bot-managed trading wallet. The secret key is held only by
// this process and never leaves the store boundary unencoded.
type Wallet struct {
	PublicKey     string            `json:"publicKey"`
	Secret        solana.PrivateKey `json:"-"`
	SolBalance    uint64            `json:"solBalance"`
	TokenBalances map[string]uint64 `json:"tokenBalances"`
	TradeStatus   TradeStatus       `json:"tradeStatus"`
	TokenAccounts map[string]string `json:"tokenAccounts"`
}

// Clone returns a deep copy so callers can read wallet state without
// holding the registry lock.
func (w Wallet) Clone() Wallet {
	c := w
	c.Secret = append(solana.PrivateKey(nil), w.Secret...)
	c.TokenBalances = make(map[string]uint64, len(w.TokenBalances))
	for k, v := range w.TokenBalances {
		c.TokenBalances[k] = v
	}
	c.TokenAccounts = make(map[string]string, len(w.TokenAccounts))
	for k, v := range w.TokenAccounts {
		c.TokenAccounts[k] = v
	}
	return c
}

// MainWallet is the treasury identity that funds managed wallets and pays
// account-creation fees.
type MainWallet struct {
	PublicKey solana.PublicKey
	Secret    solana.PrivateKey
}

// MainWalletInfo is the API-facing view of the main wallet.
type MainWalletInfo struct {
	PublicKey string `json:"publicKey"`
	Balance   uint64 `json:"balance"`
}

// TokenInfo is one tradable token entry in the configured token list.
type TokenInfo struct {
	Symbol string `json:"symbol"`
	Mint   string `json:"mint"`
}

// Config holds the trading parameters shared by every wallet.
type Config struct {
	SwapAmount       float64     `json:"swapAmount"`
	TradeMode        TradeMode   `json:"tradeMode"`
	ConcurrencyLimit int         `json:"concurrencyLimit"`
	TokenAddress     string      `json:"tokenAddress"`
	TokenList        []TokenInfo `json:"tokenList"`
	IsTrading        bool        `json:"isTrading"`
}

// TransactionLogEntry is an immutable record of one attempted operation.
type TransactionLogEntry struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	Wallet    string    `json:"wallet" gorm:"size:44;index"`
	Type      string    `json:"type" gorm:"size:16;index;not null"`
	Signature string    `json:"signature" gorm:"size:88"`
	Status    string    `json:"status" gorm:"size:8;index;not null"`
	Details   string    `json:"details" gorm:"type:text"`
	Timestamp time.Time `json:"timestamp" gorm:"index"`
}

// TableName returns the table name for TransactionLogEntry
func (TransactionLogEntry) TableName() string {
	return "transaction_logs"
}

// WalletRecord is the persisted snapshot row for one managed wallet.
type WalletRecord struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	Address       string    `json:"address" gorm:"uniqueIndex;size:44;not null"`
	SecretKey     string    `json:"-" gorm:"size:96;not null"`
	SolBalance    uint64    `json:"sol_balance"`
	TokenBalances string    `json:"token_balances" gorm:"type:text"`
	TradeStatus   string    `json:"trade_status" gorm:"size:8;index"`
	TokenAccounts string    `json:"token_accounts" gorm:"type:text"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name for WalletRecord
func (WalletRecord) TableName() string {
	return "wallets"
}

// ConfigRecord is the persisted snapshot row for the singleton config.
type ConfigRecord struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	SwapAmount       float64   `json:"swap_amount"`
	TradeMode        string    `json:"trade_mode" gorm:"size:8"`
	ConcurrencyLimit int       `json:"concurrency_limit"`
	TokenAddress     string    `json:"token_address" gorm:"size:44"`
	TokenList        string    `json:"token_list" gorm:"type:text"`
	IsTrading        bool      `json:"is_trading"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name for ConfigRecord
func (ConfigRecord) TableName() string {
	return "config"
}
