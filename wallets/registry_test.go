package wallets

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benhmida0588/solbot2026/models"
	"github.com/benhmida0588/solbot2026/store"
	"github.com/benhmida0588/solbot2026/txlog"
)

type brokenStore struct {
	store.Store
}

func (brokenStore) LoadWallets() ([]models.Wallet, error) {
	return nil, errors.New("snapshot corrupt")
}

func newTestRegistry(t *testing.T) (*Registry, *store.MemoryStore, *txlog.Log) {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	st := store.NewMemoryStore()
	tl := txlog.New(log, nil)
	return New(st, tl, log), st, tl
}

func TestProvisionCreatesIdleZeroedWallets(t *testing.T) {
	reg, st, _ := newTestRegistry(t)

	created, err := reg.Provision(2)
	require.NoError(t, err)
	require.Len(t, created, 2)

	seen := map[string]bool{}
	for _, w := range created {
		assert.Equal(t, models.StatusIdle, w.TradeStatus)
		assert.Zero(t, w.SolBalance)
		assert.Empty(t, w.TokenBalances)
		assert.Empty(t, w.TokenAccounts)
		assert.Len(t, w.Secret, 64)
		assert.False(t, seen[w.PublicKey], "duplicate address %s", w.PublicKey)
		seen[w.PublicKey] = true
	}

	// persisted immediately
	assert.Equal(t, 2, st.WalletCount())
}

func TestProvisionReplacesExistingRegistry(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	first, err := reg.Provision(2)
	require.NoError(t, err)
	second, err := reg.Provision(2)
	require.NoError(t, err)

	assert.Equal(t, 2, reg.Count())
	_, found := reg.Get(first[0].PublicKey)
	assert.False(t, found)
	_, found = reg.Get(second[0].PublicKey)
	assert.True(t, found)
}

func TestApplyMutatesAndPersists(t *testing.T) {
	reg, st, _ := newTestRegistry(t)
	created, err := reg.Provision(1)
	require.NoError(t, err)
	addr := created[0].PublicKey

	err = reg.Apply(addr, func(w *models.Wallet) {
		w.SolBalance = 42
		w.TradeStatus = models.StatusTrading
		w.TokenBalances["mint"] = 7
	})
	require.NoError(t, err)

	got, ok := reg.Get(addr)
	require.True(t, ok)
	assert.Equal(t, uint64(42), got.SolBalance)
	assert.Equal(t, models.StatusTrading, got.TradeStatus)

	// reload from the store to prove the mutation was persisted
	fresh := New(st, txlog.New(logrus.New(), nil), logrus.New())
	fresh.Load()
	reloaded, ok := fresh.Get(addr)
	require.True(t, ok)
	assert.Equal(t, uint64(42), reloaded.SolBalance)
	assert.Equal(t, uint64(7), reloaded.TokenBalances["mint"])
}

func TestApplyUnknownWallet(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	err := reg.Apply("missing", func(w *models.Wallet) {})
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestLoadRoundTripsSecretMaterial(t *testing.T) {
	reg, st, _ := newTestRegistry(t)
	created, err := reg.Provision(2)
	require.NoError(t, err)

	fresh := New(st, txlog.New(logrus.New(), nil), logrus.New())
	fresh.Load()

	require.Equal(t, 2, fresh.Count())
	for _, orig := range created {
		got, ok := fresh.Get(orig.PublicKey)
		require.True(t, ok)
		assert.Equal(t, []byte(orig.Secret), []byte(got.Secret))
		assert.Equal(t, orig.TradeStatus, got.TradeStatus)
	}
}

func TestLoadFailOpenOnCorruptStore(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	tl := txlog.New(log, nil)
	reg := New(brokenStore{}, tl, log)

	reg.Load()

	assert.Equal(t, 0, reg.Count())
	entries := tl.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, models.OpLoadWallets, entries[0].Type)
	assert.Equal(t, models.LogFailed, entries[0].Status)
	assert.Contains(t, entries[0].Details, "snapshot corrupt")
}

func TestLoadMissingSnapshotIsSilent(t *testing.T) {
	reg, _, tl := newTestRegistry(t)
	reg.Load()

	assert.Equal(t, 0, reg.Count())
	assert.Zero(t, tl.Len())
}

func TestLoadMain(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	created, err := reg.Provision(1)
	require.NoError(t, err)
	secret := created[0].Secret.String()

	require.NoError(t, reg.LoadMain(secret))
	main := reg.Main()
	require.NotNil(t, main)
	assert.Equal(t, created[0].PublicKey, main.PublicKey.String())

	assert.Error(t, reg.LoadMain(""))
	assert.Error(t, reg.LoadMain("not-base58-!!!"))
}
