package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/benhmida0588/solbot2026/models"
)

// FileStore keeps wallet and config snapshots in two JSON files, the same
// wallets.json / config.json layout the dashboard tooling reads.
type FileStore struct {
	walletsPath string
	configPath  string
}

// NewFileStore builds a file-backed store rooted at the given paths.
func NewFileStore(walletsPath, configPath string) *FileStore {
	return &FileStore{walletsPath: walletsPath, configPath: configPath}
}

// SaveWallets atomically rewrites the wallet snapshot file.
func (f *FileStore) SaveWallets(wallets []models.Wallet) error {
	snaps := make([]walletSnapshot, len(wallets))
	for i, w := range wallets {
		snaps[i] = snapshotWallet(w)
	}
	raw, err := json.MarshalIndent(snaps, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal wallets: %w", err)
	}
	return writeFileAtomic(f.walletsPath, raw)
}

// LoadWallets reads the wallet snapshot file. A missing file returns
// fs.ErrNotExist so callers can distinguish "never written" from corruption.
func (f *FileStore) LoadWallets() ([]models.Wallet, error) {
	raw, err := os.ReadFile(f.walletsPath)
	if err != nil {
		return nil, err
	}
	var snaps []walletSnapshot
	if err := json.Unmarshal(raw, &snaps); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.walletsPath, err)
	}
	wallets := make([]models.Wallet, 0, len(snaps))
	for _, s := range snaps {
		w, err := restoreWallet(s)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, nil
}

// SaveConfig atomically rewrites the config snapshot file.
func (f *FileStore) SaveConfig(cfg models.Config) error {
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeFileAtomic(f.configPath, raw)
}

// LoadConfig reads the config snapshot file.
func (f *FileStore) LoadConfig() (models.Config, error) {
	raw, err := os.ReadFile(f.configPath)
	if err != nil {
		return models.Config{}, err
	}
	var cfg models.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return models.Config{}, fmt.Errorf("parse %s: %w", f.configPath, err)
	}
	return cfg, nil
}

// writeFileAtomic writes via a temp file and rename so a crash mid-write
// never leaves a truncated snapshot behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
