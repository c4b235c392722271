package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benhmida0588/solbot2026/models"
)

func TestTradeCycleBuySuccess(t *testing.T) {
	env := newTestEnv(t, testConfig(), 1)
	env.chain.balances[env.addr] = lamportsPerSOL
	require.NoError(t, env.reg.Apply(env.addr, func(w *models.Wallet) { w.SolBalance = lamportsPerSOL }))
	env.swap.outAmount = "25000"

	require.NoError(t, env.engine.TradeWallets(context.Background()))

	quoteCalls, swapCalls := env.swap.calls()
	assert.Equal(t, 1, quoteCalls)
	assert.Equal(t, 1, swapCalls)

	// 0.01 SOL spent, quoted in lamports
	require.NotNil(t, env.swap.lastQuote)
	assert.Equal(t, "10000000", env.swap.lastQuote.Amount)
	assert.Equal(t, solMint.String(), env.swap.lastQuote.InputMint)
	assert.Equal(t, testMint, env.swap.lastQuote.OutputMint)
	assert.Equal(t, slippageBps, env.swap.lastQuote.SlippageBps)

	assert.Equal(t, 1, env.chain.sentCount())

	w, ok := env.reg.Get(env.addr)
	require.True(t, ok)
	assert.Equal(t, models.StatusIdle, w.TradeStatus)
	assert.Equal(t, uint64(lamportsPerSOL-10_000_000), w.SolBalance)
	assert.Equal(t, uint64(25000), w.TokenBalances[testMint])

	entries := entriesOfType(env.tl, models.OpTrade)
	require.Len(t, entries, 1)
	assert.Equal(t, models.LogSuccess, entries[0].Status)
	assert.Equal(t, env.addr, entries[0].Wallet)
	assert.NotEmpty(t, entries[0].Signature)
}

func TestTradeCycleNoOpWhenInactive(t *testing.T) {
	cfg := testConfig()
	cfg.IsTrading = false
	env := newTestEnv(t, cfg, 1)

	require.NoError(t, env.engine.TradeWallets(context.Background()))

	quoteCalls, _ := env.swap.calls()
	assert.Zero(t, quoteCalls)
	assert.Empty(t, env.tl.Entries())
}

func TestTradeCycleInsufficientFunds(t *testing.T) {
	env := newTestEnv(t, testConfig(), 1)
	env.chain.balances[env.addr] = txFeeLamports // can't cover spend plus fee

	require.NoError(t, env.engine.TradeWallets(context.Background()))

	quoteCalls, _ := env.swap.calls()
	assert.Zero(t, quoteCalls, "no swap may be attempted without funds")
	assert.Zero(t, env.chain.sentCount())

	w, _ := env.reg.Get(env.addr)
	assert.Equal(t, models.StatusFailed, w.TradeStatus)

	entries := entriesOfType(env.tl, models.OpTrade)
	require.Len(t, entries, 1)
	assert.Equal(t, models.LogFailed, entries[0].Status)
	assert.Contains(t, entries[0].Details, "insufficient")
}

func TestTradeCycleSellMode(t *testing.T) {
	cfg := testConfig()
	cfg.TradeMode = models.ModeSell
	env := newTestEnv(t, cfg, 1)
	env.swap.outAmount = "7500"
	require.NoError(t, env.reg.Apply(env.addr, func(w *models.Wallet) {
		w.TokenBalances[testMint] = 50_000
	}))

	require.NoError(t, env.engine.TradeWallets(context.Background()))

	require.NotNil(t, env.swap.lastQuote)
	assert.Equal(t, testMint, env.swap.lastQuote.InputMint)
	assert.Equal(t, solMint.String(), env.swap.lastQuote.OutputMint)
	assert.Equal(t, "10000", env.swap.lastQuote.Amount)

	w, _ := env.reg.Get(env.addr)
	assert.Equal(t, uint64(50_000-sellUnitAmount), w.TokenBalances[testMint])
	assert.Equal(t, uint64(7500), w.SolBalance)
	assert.Equal(t, models.StatusIdle, w.TradeStatus)
}

func TestTradeCycleRandomModeFollowsCoinFlip(t *testing.T) {
	cfg := testConfig()
	cfg.TradeMode = models.ModeRandom
	env := newTestEnv(t, cfg, 1)
	env.chain.balances[env.addr] = lamportsPerSOL
	env.engine.coinFlip = func() bool { return true } // force the buy branch

	require.NoError(t, env.engine.TradeWallets(context.Background()))
	require.NotNil(t, env.swap.lastQuote)
	assert.Equal(t, solMint.String(), env.swap.lastQuote.InputMint)

	env.engine.coinFlip = func() bool { return false }
	require.NoError(t, env.engine.TradeWallets(context.Background()))
	assert.Equal(t, testMint, env.swap.lastQuote.InputMint)
}

func TestTradeRetryIsTransparent(t *testing.T) {
	env := newTestEnv(t, testConfig(), 1)
	env.chain.balances[env.addr] = lamportsPerSOL
	env.swap.quoteErrs = 3 // recovers on the final attempt

	require.NoError(t, env.engine.TradeWallets(context.Background()))

	quoteCalls, _ := env.swap.calls()
	assert.Equal(t, retryAttempts, quoteCalls)

	entries := entriesOfType(env.tl, models.OpTrade)
	require.Len(t, entries, 1, "retries must not produce intermediate entries")
	assert.Equal(t, models.LogSuccess, entries[0].Status)
}

func TestTradeRetryExhaustion(t *testing.T) {
	env := newTestEnv(t, testConfig(), 1)
	env.chain.balances[env.addr] = lamportsPerSOL
	env.swap.quoteErrs = retryAttempts

	require.NoError(t, env.engine.TradeWallets(context.Background()))

	quoteCalls, _ := env.swap.calls()
	assert.Equal(t, retryAttempts, quoteCalls)
	assert.Zero(t, env.chain.sentCount())

	w, _ := env.reg.Get(env.addr)
	assert.Equal(t, models.StatusFailed, w.TradeStatus)

	entries := entriesOfType(env.tl, models.OpTrade)
	require.Len(t, entries, 1)
	assert.Equal(t, models.LogFailed, entries[0].Status)
	assert.Contains(t, entries[0].Details, "quote")
}

func TestTradeEmptySwapPayloadRetriedThenFails(t *testing.T) {
	env := newTestEnv(t, testConfig(), 1)
	env.chain.balances[env.addr] = lamportsPerSOL
	env.swap.noPayload = true

	require.NoError(t, env.engine.TradeWallets(context.Background()))

	_, swapCalls := env.swap.calls()
	assert.Equal(t, retryAttempts, swapCalls)
	assert.Zero(t, env.chain.sentCount())

	entries := entriesOfType(env.tl, models.OpTrade)
	require.Len(t, entries, 1)
	assert.Equal(t, models.LogFailed, entries[0].Status)
	assert.Contains(t, entries[0].Details, "swap build")
}

func TestSellAllSkipsEmptyAccount(t *testing.T) {
	env := newTestEnv(t, testConfig(), 1)
	// token account exists on chain but holds nothing

	require.NoError(t, env.engine.SellAllTokens(context.Background()))

	quoteCalls, _ := env.swap.calls()
	assert.Zero(t, quoteCalls)
	assert.Zero(t, env.chain.sentCount())
	assert.Empty(t, entriesOfType(env.tl, models.OpSellAll))

	w, _ := env.reg.Get(env.addr)
	assert.Equal(t, models.StatusIdle, w.TradeStatus)
}

func TestSellAllLiquidatesAndClosesAccount(t *testing.T) {
	env := newTestEnv(t, testConfig(), 1)
	env.chain.tokenBalances[env.ata.String()] = 500_000
	env.swap.outAmount = "900000"
	require.NoError(t, env.reg.Apply(env.addr, func(w *models.Wallet) {
		w.TokenBalances[testMint] = 500_000
	}))

	require.NoError(t, env.engine.SellAllTokens(context.Background()))

	// swap plus account close
	assert.Equal(t, 2, env.chain.sentCount())
	require.NotNil(t, env.swap.lastQuote)
	assert.Equal(t, "500000", env.swap.lastQuote.Amount, "on-chain balance is authoritative")

	w, _ := env.reg.Get(env.addr)
	assert.Equal(t, models.StatusIdle, w.TradeStatus)
	assert.Equal(t, uint64(900_000+ataRentLamports), w.SolBalance)
	assert.Zero(t, w.TokenBalances[testMint])
	assert.NotContains(t, w.TokenAccounts, testMint)

	entries := entriesOfType(env.tl, models.OpSellAll)
	require.Len(t, entries, 1)
	assert.Equal(t, models.LogSuccess, entries[0].Status)
	assert.NotEmpty(t, entries[0].Signature)
	assert.Contains(t, entries[0].Details, "closed token account")
}

func TestSellAllCloseFailureKeepsSwapDeltas(t *testing.T) {
	env := newTestEnv(t, testConfig(), 1)
	env.chain.tokenBalances[env.ata.String()] = 500_000
	env.swap.outAmount = "900000"
	env.chain.failSendFrom = 2 // swap submits, the close does not

	require.NoError(t, env.engine.SellAllTokens(context.Background()))

	w, _ := env.reg.Get(env.addr)
	assert.Equal(t, models.StatusFailed, w.TradeStatus)

	// the swap's deltas survive the failed close; the rent credit and
	// the mapping removal belong to the close step and must not happen
	assert.Equal(t, uint64(900_000), w.SolBalance)
	assert.Zero(t, w.TokenBalances[testMint])
	assert.Equal(t, env.ata.String(), w.TokenAccounts[testMint])

	entries := entriesOfType(env.tl, models.OpSellAll)
	require.Len(t, entries, 1)
	assert.Equal(t, models.LogFailed, entries[0].Status)
	assert.Contains(t, entries[0].Details, "close account")
}

func TestSellAllFailureLogged(t *testing.T) {
	env := newTestEnv(t, testConfig(), 1)
	env.chain.tokenBalances[env.ata.String()] = 500_000
	env.swap.quoteErrs = retryAttempts

	require.NoError(t, env.engine.SellAllTokens(context.Background()))

	w, _ := env.reg.Get(env.addr)
	assert.Equal(t, models.StatusFailed, w.TradeStatus)

	entries := entriesOfType(env.tl, models.OpSellAll)
	require.Len(t, entries, 1)
	assert.Equal(t, models.LogFailed, entries[0].Status)
}

func TestSellAllRequiresWallets(t *testing.T) {
	env := newTestEnv(t, testConfig(), 0)
	require.ErrorIs(t, env.engine.SellAllTokens(context.Background()), ErrNoWallets)
}
