package test

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"interactdapp/pkg/config"
	"interactdapp/pkg/sol"
)

var (
	// SOL (wrapped)
	WSOL = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	// USDC
	USDC = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

	// Raydium CLMM SOL/USDC pool
	SOL_USDC_CLMM_POOL = solana.MustPublicKeyFromBase58("2QdhepnKRTLjjSqPL1PtKNwqrUkoLee5Gqs8bvZhRdMv")
)

// liveClient returns a mainnet RPC pool or skips the test when no endpoints
// are configured.
func liveClient(t *testing.T) (context.Context, *sol.RPCPool) {
	t.Helper()

	// Load .env file from parent directory
	if err := config.LoadEnv("../.env"); err != nil {
		t.Logf("Warning: Could not load .env file: %v", err)
	}

	endpoints := config.GetRPCEndpoints()
	if len(endpoints) == 0 {
		t.Skip("No RPC endpoints configured. Set RPC_ENDPOINTS in .env")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	t.Cleanup(cancel)

	pool, err := sol.NewRPCPool(ctx, endpoints, "", 20, sol.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return ctx, pool
}
