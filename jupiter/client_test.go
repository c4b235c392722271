package jupiter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetQuoteForwardsParams(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"inputMint":   q.Get("inputMint"),
			"outputMint":  q.Get("outputMint"),
			"amount":      q.Get("amount"),
			"slippageBps": q.Get("slippageBps"),
		}
		json.NewEncoder(w).Encode(QuoteResponse{
			InputMint:  q.Get("inputMint"),
			OutputMint: q.Get("outputMint"),
			InAmount:   q.Get("amount"),
			OutAmount:  "123456",
		})
	}))
	defer srv.Close()

	client := NewClient(&ClientConfig{BaseURL: srv.URL})
	quote, err := client.GetQuote(context.Background(), &QuoteParams{
		InputMint:   "So11111111111111111111111111111111111111112",
		OutputMint:  "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Amount:      "10000000",
		SlippageBps: 100,
	})
	require.NoError(t, err)

	assert.Equal(t, "123456", quote.OutAmount)
	assert.Equal(t, "10000000", gotQuery["amount"])
	assert.Equal(t, "100", gotQuery["slippageBps"])
	assert.Equal(t, "So11111111111111111111111111111111111111112", gotQuery["inputMint"])
}

func TestGetQuoteInBandError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(QuoteResponse{Error: "no route found"})
	}))
	defer srv.Close()

	client := NewClient(&ClientConfig{BaseURL: srv.URL})
	_, err := client.GetQuote(context.Background(), &QuoteParams{
		InputMint:  "a",
		OutputMint: "b",
		Amount:     "1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no route found")
}

func TestGetQuoteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(&ClientConfig{BaseURL: srv.URL})
	_, err := client.GetQuote(context.Background(), &QuoteParams{
		InputMint:  "a",
		OutputMint: "b",
		Amount:     "1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestBuildSwapTransactionPostsQuote(t *testing.T) {
	var gotBody SwapParams
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(SwapResponse{SwapTransaction: "c3dhcA==", LastValidBlockHeight: 42})
	}))
	defer srv.Close()

	client := NewClient(&ClientConfig{BaseURL: srv.URL})
	resp, err := client.BuildSwapTransaction(context.Background(), &SwapParams{
		QuoteResponse:    &QuoteResponse{OutAmount: "5"},
		UserPublicKey:    "user-key",
		WrapAndUnwrapSol: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "c3dhcA==", resp.SwapTransaction)
	assert.Equal(t, int64(42), resp.LastValidBlockHeight)
	assert.Equal(t, "user-key", gotBody.UserPublicKey)
	assert.True(t, gotBody.WrapAndUnwrapSol)
	require.NotNil(t, gotBody.QuoteResponse)
	assert.Equal(t, "5", gotBody.QuoteResponse.OutAmount)
}

func TestBuildSwapTransactionRequiresQuote(t *testing.T) {
	client := NewClient(nil)
	_, err := client.BuildSwapTransaction(context.Background(), &SwapParams{UserPublicKey: "x"})
	require.Error(t, err)
}
