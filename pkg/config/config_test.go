package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"RPC_ENDPOINTS", "WS_ENDPOINT", "JITO_RPC", "KEYPAIR_PATH", "COMMITMENT", "LOG_LEVEL", "METRICS_ADDR", "RATE_LIMIT"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, defaultRateLimit, cfg.RateLimit)
	assert.Equal(t, "confirmed", cfg.Commitment)
	assert.Equal(t, defaultTickArrays, cfg.Clmm.TickArrays)
	assert.Equal(t, "v2", cfg.Clmm.PoolLayout)
	assert.Empty(t, cfg.RPCEndpoints)
}

func TestLoadYAMLAndEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
rpc_endpoints:
  - https://api.devnet.solana.com
ws_endpoint: wss://api.devnet.solana.com
rate_limit: 5
lending:
  mint: 4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU
  vault: CWFPa1gcDqGyeTHTmdbhGjCnQv7eRfdhnBpZKFzNr1R2
clmm:
  program: DRayAUgENGQBKVaX8owNhgzkEDyoHTGVEGHVJT1E9pfH
  input_mint: So11111111111111111111111111111111111111112
  output_mint: USDCoctVLVnvTXBEuP9s8hntucdJokbo17RwHuNXemT
  tick_arrays: 2
  pool_layout: v1
`)
	t.Setenv("RATE_LIMIT", "7")
	t.Setenv("RPC_ENDPOINTS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.RPCEndpoints)
	assert.Equal(t, "wss://api.devnet.solana.com", cfg.WSEndpoint)
	assert.Equal(t, 7, cfg.RateLimit)
	assert.Equal(t, "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU", cfg.Lending.Mint)
	assert.Equal(t, 2, cfg.Clmm.TickArrays)
	assert.Equal(t, "v1", cfg.Clmm.PoolLayout)
	assert.Equal(t, "confirmed", cfg.Commitment)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "rate_limit: [oops"))
	assert.Error(t, err)

	t.Setenv("RATE_LIMIT", "fast")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RPC endpoint")

	cfg.RPCEndpoints = []string{"https://api.devnet.solana.com"}
	require.NoError(t, cfg.Validate())

	cfg.WSEndpoint = "https://not-a-websocket"
	cfg.Commitment = "eventually"
	cfg.Lending.Mint = "not-base58!"
	cfg.Clmm.PriceLimitBps = 10_000
	cfg.Clmm.PoolLayout = "v9"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ws endpoint")
	assert.Contains(t, err.Error(), "unknown commitment")
	assert.Contains(t, err.Error(), "lending.mint")
	assert.Contains(t, err.Error(), "price_limit_bps")
	assert.Contains(t, err.Error(), "clmm.pool_layout")
}

func TestParsePublicKey(t *testing.T) {
	key, err := ParsePublicKey("")
	require.NoError(t, err)
	assert.True(t, key.IsZero())

	key, err = ParsePublicKey("So11111111111111111111111111111111111111112")
	require.NoError(t, err)
	assert.Equal(t, solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112"), key)

	_, err = ParsePublicKey("0OIl")
	assert.Error(t, err)
}

func TestLoadKeypair(t *testing.T) {
	wallet := solana.NewWallet()
	raw := make([]int, len(wallet.PrivateKey))
	for i, b := range wallet.PrivateKey {
		raw[i] = int(b)
	}
	content, err := json.Marshal(raw)
	require.NoError(t, err)

	key, err := LoadKeypair(writeFile(t, "id.json", string(content)))
	require.NoError(t, err)
	assert.Equal(t, wallet.PublicKey(), key.PublicKey())

	_, err = LoadKeypair("")
	assert.Error(t, err)
	_, err = LoadKeypair(filepath.Join(t.TempDir(), "none.json"))
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("INTERACT_TEST_A", "")
	t.Setenv("INTERACT_TEST_B", "preset")
	t.Setenv("INTERACT_TEST_C", "")
	path := writeFile(t, ".env", "# comment\nINTERACT_TEST_A=one\nINTERACT_TEST_B=two\nexport INTERACT_TEST_C=\"three\"\nmalformed\n")

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "one", os.Getenv("INTERACT_TEST_A"))
	assert.Equal(t, "preset", os.Getenv("INTERACT_TEST_B"))
	assert.Equal(t, "three", os.Getenv("INTERACT_TEST_C"))

	assert.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "absent.env")))
}

func TestString(t *testing.T) {
	cfg := Default()
	cfg.RPCEndpoints = []string{"https://rpc.example/?api-key=secret"}
	assert.NotContains(t, cfg.String(), "secret")
}
