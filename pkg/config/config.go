package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"
	"interactdapp/pkg/layout"
)

// Config holds the client configuration
type Config struct {
	RPCEndpoints []string `yaml:"rpc_endpoints"`
	WSEndpoint   string   `yaml:"ws_endpoint"`
	RateLimit    int      `yaml:"rate_limit"`
	Commitment   string   `yaml:"commitment"`

	// JitoRPC routes transactions through a Jito block engine when set
	JitoRPC         string `yaml:"jito_rpc"`
	JitoTipAccount  string `yaml:"jito_tip_account"`
	JitoTipLamports uint64 `yaml:"jito_tip_lamports"`

	KeypairPath string `yaml:"keypair_path"`
	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`

	Lending LendingConfig `yaml:"lending"`
	Clmm    ClmmConfig    `yaml:"clmm"`
}

// LendingConfig selects the Jupiter Lend earn market. Empty program IDs fall
// back to the mainnet deployments.
type LendingConfig struct {
	LendingProgram   string `yaml:"lending_program"`
	LiquidityProgram string `yaml:"liquidity_program"`
	Mint             string `yaml:"mint"`
	Vault            string `yaml:"vault"`
	RewardsRateModel string `yaml:"rewards_rate_model"`
}

// ClmmConfig selects the Raydium CLMM pool used by swaps
type ClmmConfig struct {
	Program        string `yaml:"program"`
	AmmConfigIndex uint16 `yaml:"amm_config_index"`
	InputMint      string `yaml:"input_mint"`
	OutputMint     string `yaml:"output_mint"`
	TickArrays     int    `yaml:"tick_arrays"`
	PriceLimitBps  uint16 `yaml:"price_limit_bps"`
	// PoolLayout picks the pool account offsets: "v2" for the deployed
	// program, "v1" for the offsets the original swap scripts used.
	PoolLayout string `yaml:"pool_layout"`
}

const (
	defaultRateLimit  = 20
	defaultCommitment = "confirmed"
	defaultTickArrays = 3
	defaultKeypair    = "~/.config/solana/id.json"
)

// Default returns a configuration with every optional field filled in
func Default() *Config {
	return &Config{
		RateLimit:   defaultRateLimit,
		Commitment:  defaultCommitment,
		KeypairPath: defaultKeypair,
		LogLevel:    "info",
		Clmm: ClmmConfig{
			TickArrays: defaultTickArrays,
			PoolLayout: layout.PoolLayoutV2,
		},
	}
}

// Load reads the YAML file at path (optional) on top of the defaults and then
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if endpoints := GetRPCEndpoints(); len(endpoints) > 0 {
		c.RPCEndpoints = endpoints
	}
	setString(&c.WSEndpoint, "WS_ENDPOINT")
	setString(&c.JitoRPC, "JITO_RPC")
	setString(&c.KeypairPath, "KEYPAIR_PATH")
	setString(&c.Commitment, "COMMITMENT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.MetricsAddr, "METRICS_ADDR")

	if v := os.Getenv("RATE_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT %q: %w", v, err)
		}
		c.RateLimit = limit
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate checks that required configuration fields are set
func (c *Config) Validate() error {
	var errs []string

	if len(c.RPCEndpoints) == 0 {
		errs = append(errs, "at least one RPC endpoint is required (RPC_ENDPOINTS)")
	}
	for _, endpoint := range c.RPCEndpoints {
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			errs = append(errs, fmt.Sprintf("rpc endpoint %q must be http(s)", endpoint))
		}
	}
	if c.WSEndpoint != "" && !strings.HasPrefix(c.WSEndpoint, "ws://") && !strings.HasPrefix(c.WSEndpoint, "wss://") {
		errs = append(errs, fmt.Sprintf("ws endpoint %q must be ws(s)", c.WSEndpoint))
	}
	if c.RateLimit < 0 {
		errs = append(errs, "rate limit must not be negative")
	}
	switch c.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		errs = append(errs, fmt.Sprintf("unknown commitment %q", c.Commitment))
	}
	if c.Clmm.TickArrays < 1 {
		errs = append(errs, "clmm.tick_arrays must be at least 1")
	}
	if c.Clmm.PriceLimitBps >= 10_000 {
		errs = append(errs, "clmm.price_limit_bps must be below 10000")
	}
	if _, err := layout.PoolLayoutByVersion(c.Clmm.PoolLayout); err != nil {
		errs = append(errs, fmt.Sprintf("clmm.pool_layout: %v", err))
	}
	if c.JitoTipLamports > 0 && c.JitoTipAccount == "" {
		errs = append(errs, "jito_tip_account is required when jito_tip_lamports is set")
	}

	keys := map[string]string{
		"jito_tip_account":           c.JitoTipAccount,
		"lending.lending_program":    c.Lending.LendingProgram,
		"lending.liquidity_program":  c.Lending.LiquidityProgram,
		"lending.mint":               c.Lending.Mint,
		"lending.vault":              c.Lending.Vault,
		"lending.rewards_rate_model": c.Lending.RewardsRateModel,
		"clmm.program":               c.Clmm.Program,
		"clmm.input_mint":            c.Clmm.InputMint,
		"clmm.output_mint":           c.Clmm.OutputMint,
	}
	for name, value := range keys {
		if _, err := ParsePublicKey(value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ParsePublicKey parses a base58 address. An empty string yields the zero key.
func ParsePublicKey(s string) (solana.PublicKey, error) {
	if s == "" {
		return solana.PublicKey{}, nil
	}
	return solana.PublicKeyFromBase58(s)
}

// LoadKeypair reads a solana-keygen JSON keypair, expanding a leading "~".
func LoadKeypair(path string) (solana.PrivateKey, error) {
	if path == "" {
		return nil, errors.New("keypair path is empty")
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		path = home + path[1:]
	}
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("load keypair %s: %w", path, err)
	}
	return key, nil
}

// String returns a sanitized string representation of the config
func (c *Config) String() string {
	endpoints := make([]string, 0, len(c.RPCEndpoints))
	for _, endpoint := range c.RPCEndpoints {
		endpoints = append(endpoints, maskURL(endpoint))
	}
	return fmt.Sprintf("Config{RPC=[%s], WS=%s, Jito=%s, RateLimit=%d, Commitment=%s}",
		strings.Join(endpoints, ", "), maskURL(c.WSEndpoint), maskURL(c.JitoRPC), c.RateLimit, c.Commitment)
}

// maskURL hides query strings, which commonly carry API keys
func maskURL(u string) string {
	if i := strings.Index(u, "?"); i >= 0 {
		return u[:i] + "?****"
	}
	return u
}
