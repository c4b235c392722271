// Command inspect fetches a confirmed transaction by signature and prints
// the decoded swap, so a bot operator can verify what a logged signature
// actually did on chain.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"math/big"
	"os"
	"time"

	solanaswapgo "github.com/franco-bianco/solanaswap-go/solanaswap-go"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/joho/godotenv"
)

const (
	wsolMint = "So11111111111111111111111111111111111111112"
	usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	usdtMint = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
)

// swapSummary is the operator-facing view of one parsed swap.
type swapSummary struct {
	Direction      string `json:"direction"`
	DexProvider    string `json:"dexProvider"`
	Timestamp      int64  `json:"timestamp"`
	WalletAddress  string `json:"walletAddress"`
	TokenIn        string `json:"tokenIn"`
	TokenOut       string `json:"tokenOut"`
	TokenInAmount  string `json:"tokenInAmount"`
	TokenOutAmount string `json:"tokenOutAmount"`
	Signature      string `json:"signature"`
}

func parseTokenAmount(amount uint64, decimals uint8) *big.Float {
	amountFloat := new(big.Float).SetUint64(amount)
	decimalFactor := new(big.Float).SetFloat64(math.Pow(10, float64(decimals)))
	return new(big.Float).Quo(amountFloat, decimalFactor)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment variables")
	}

	rpcURL := os.Getenv("RPC_URL")
	if rpcURL == "" {
		rpcURL = rpc.MainNetBeta.RPC
		log.Printf("RPC_URL not set, using default mainnet: %s", rpcURL)
	}

	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <transaction-signature>", os.Args[0])
	}
	signature := solana.MustSignatureFromBase58(os.Args[1])

	fmt.Printf("Parsing transaction: %s\n", signature.String())
	fmt.Printf("Using RPC: %s\n\n", rpcURL)

	rpcClient := rpc.New(rpcURL)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var maxTxVersion uint64 = 0
	tx, err := rpcClient.GetTransaction(
		ctx,
		signature,
		&rpc.GetTransactionOpts{
			Commitment:                     rpc.CommitmentConfirmed,
			MaxSupportedTransactionVersion: &maxTxVersion,
		},
	)
	if err != nil {
		log.Fatalf("Error getting transaction: %s", err)
	}

	parser, err := solanaswapgo.NewTransactionParser(tx)
	if err != nil {
		log.Fatalf("Error creating parser: %s", err)
	}

	transactionData, err := parser.ParseTransaction()
	if err != nil {
		log.Fatalf("Error parsing transaction: %s", err)
	}

	swapInfo, err := parser.ProcessSwapData(transactionData)
	if err != nil {
		log.Fatalf("Error processing swap data: %s", err)
	}

	// a swap out of the token and into SOL or a stable is a sell
	direction := "BUY"
	tokenOut := swapInfo.TokenOutMint.String()
	if tokenOut == wsolMint || tokenOut == usdcMint || tokenOut == usdtMint {
		direction = "SELL"
	}

	summary := swapSummary{
		Direction:      direction,
		DexProvider:    swapInfo.AMMs[0],
		Timestamp:      time.Now().Unix(),
		WalletAddress:  swapInfo.Signers[0].String(),
		TokenIn:        swapInfo.TokenInMint.String(),
		TokenOut:       tokenOut,
		TokenInAmount:  parseTokenAmount(swapInfo.TokenInAmount, swapInfo.TokenInDecimals).String(),
		TokenOutAmount: parseTokenAmount(swapInfo.TokenOutAmount, swapInfo.TokenOutDecimals).String(),
		Signature:      signature.String(),
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		log.Fatalf("Error rendering summary: %s", err)
	}
	fmt.Println(string(out))
}
