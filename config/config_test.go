package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benhmida0588/solbot2026/models"
	"github.com/benhmida0588/solbot2026/store"
	"github.com/benhmida0588/solbot2026/txlog"
)

const solMint = "So11111111111111111111111111111111111111112"

func validConfig() models.Config {
	return models.Config{
		SwapAmount:       0.01,
		TradeMode:        models.ModeBuy,
		ConcurrencyLimit: 1,
		TokenAddress:     solMint,
		TokenList:        []models.TokenInfo{{Symbol: "SOL", Mint: solMint}},
		IsTrading:        false,
	}
}

func silentLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestLoadValidConfig(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.SaveConfig(validConfig()))

	s, err := Load(st, txlog.New(silentLogger(), nil), silentLogger())
	require.NoError(t, err)
	assert.Equal(t, models.ModeBuy, s.Get().TradeMode)
	assert.Equal(t, 0.01, s.Get().SwapAmount)
}

func TestLoadFailsClosed(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*models.Config)
	}{
		{"zero swap amount", func(c *models.Config) { c.SwapAmount = 0 }},
		{"unknown trade mode", func(c *models.Config) { c.TradeMode = "hodl" }},
		{"zero concurrency", func(c *models.Config) { c.ConcurrencyLimit = 0 }},
		{"missing token address", func(c *models.Config) { c.TokenAddress = "" }},
		{"malformed token address", func(c *models.Config) { c.TokenAddress = "not-an-address" }},
		{"missing token list", func(c *models.Config) { c.TokenList = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)

			st := store.NewMemoryStore()
			require.NoError(t, st.SaveConfig(cfg))
			tl := txlog.New(silentLogger(), nil)

			_, err := Load(st, tl, silentLogger())
			require.ErrorIs(t, err, ErrInvalid)

			entries := tl.Entries()
			require.Len(t, entries, 1)
			assert.Equal(t, models.OpLoadConfig, entries[0].Type)
			assert.Equal(t, models.LogFailed, entries[0].Status)
		})
	}
}

func TestLoadMissingSnapshot(t *testing.T) {
	tl := txlog.New(silentLogger(), nil)
	_, err := Load(store.NewMemoryStore(), tl, silentLogger())
	require.Error(t, err)
	assert.Equal(t, 1, tl.Len())
}

func TestUpdateMergesAndPersists(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.SaveConfig(validConfig()))
	s, err := Load(st, txlog.New(silentLogger(), nil), silentLogger())
	require.NoError(t, err)

	amount := 0.05
	mode := models.ModeRandom
	require.NoError(t, s.Update(Partial{SwapAmount: &amount, TradeMode: &mode}))

	got := s.Get()
	assert.Equal(t, 0.05, got.SwapAmount)
	assert.Equal(t, models.ModeRandom, got.TradeMode)
	// unspecified fields retained
	assert.Equal(t, solMint, got.TokenAddress)
	assert.Equal(t, 1, got.ConcurrencyLimit)

	persisted, err := st.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 0.05, persisted.SwapAmount)
}

func TestUpdateRejectsInvalidMergeAtomically(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.SaveConfig(validConfig()))
	s, err := Load(st, txlog.New(silentLogger(), nil), silentLogger())
	require.NoError(t, err)

	badMode := models.TradeMode("yolo")
	err = s.Update(Partial{TradeMode: &badMode})
	require.ErrorIs(t, err, ErrInvalid)

	// neither memory nor the store changed
	assert.Equal(t, models.ModeBuy, s.Get().TradeMode)
	persisted, err := st.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, models.ModeBuy, persisted.TradeMode)
}

func TestSetTradingPersists(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.SaveConfig(validConfig()))
	s, err := Load(st, txlog.New(silentLogger(), nil), silentLogger())
	require.NoError(t, err)

	require.NoError(t, s.SetTrading(true))
	assert.True(t, s.Get().IsTrading)

	persisted, err := st.LoadConfig()
	require.NoError(t, err)
	assert.True(t, persisted.IsTrading)
}
