package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"interactdapp/pkg/clmm"
	"interactdapp/pkg/config"
	"interactdapp/pkg/layout"
	"interactdapp/pkg/lending"
	"interactdapp/pkg/observability"
	"interactdapp/pkg/pipeline"
	"interactdapp/pkg/sol"
	"interactdapp/pkg/subscription"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, args []string) error
}

var commands = []command{
	{"addresses", "print the derived lending and CLMM addresses", runAddresses},
	{"tick-array", "resolve the tick array holding a pool's current tick", runTickArray},
	{"deposit", "deposit into the Jupiter Lend earn market", runDeposit},
	{"withdraw", "withdraw from the Jupiter Lend earn market", runWithdraw},
	{"swap", "swap through a Raydium CLMM pool via proxy_swap", runSwap},
	{"wrap-sol", "wrap lamports into the payer's WSOL account", runWrapSol},
	{"watch", "stream tick array changes of a CLMM pool", runWatch},
}

func main() {
	// Load .env file
	if err := config.LoadEnv(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	name := os.Args[1]
	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}
		if err := cmd.run(ctx, os.Args[2:]); err != nil {
			outputError(err)
			os.Exit(1)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", name)
	usage()
	os.Exit(2)
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: interact <command> [flags]")
	fmt.Fprintln(os.Stderr, "\nCommands:")
	for _, cmd := range commands {
		fmt.Fprintf(os.Stderr, "  %-12s %s\n", cmd.name, cmd.usage)
	}
	fmt.Fprintln(os.Stderr, "\nRun 'interact <command> -h' for the flags of a command.")
}

// commonFlags are shared by every command. Flags override the config file,
// which overrides the environment defaults.
type commonFlags struct {
	configPath string
	rpc        string
	ws         string
	keypair    string
	logLevel   string
	metrics    string
	wait       bool
}

func newFlagSet(name string) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	c := &commonFlags{}
	fs.StringVar(&c.configPath, "config", "", "YAML config file")
	fs.StringVar(&c.rpc, "rpc", "", "Comma-separated Solana RPC endpoints (overrides config)")
	fs.StringVar(&c.ws, "ws", "", "Solana websocket endpoint (overrides config)")
	fs.StringVar(&c.keypair, "keypair", "", "Payer keypair file (overrides config)")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&c.metrics, "metrics-addr", "", "Serve Prometheus metrics on this address")
	fs.BoolVar(&c.wait, "wait", false, "Wait for confirmation over the websocket endpoint")
	return fs, c
}

func (c *commonFlags) load() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.rpc != "" {
		cfg.RPCEndpoints = nil
		for _, endpoint := range strings.Split(c.rpc, ",") {
			if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
				cfg.RPCEndpoints = append(cfg.RPCEndpoints, endpoint)
			}
		}
	}
	if c.ws != "" {
		cfg.WSEndpoint = c.ws
	}
	if c.keypair != "" {
		cfg.KeypairPath = c.keypair
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if c.metrics != "" {
		cfg.MetricsAddr = c.metrics
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// env is everything a command needs, built from the flags and config.
type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *observability.Metrics
	rpcPool *sol.RPCPool
	ws      *subscription.WebSocketClient
	payer   solana.PrivateKey
	client  *pipeline.Client

	poolLayout layout.Table

	metricsServer *http.Server
}

// setup builds the RPC pool and pipeline client. A payer keypair is only
// loaded when needPayer is set.
func setup(ctx context.Context, flags *commonFlags, needPayer bool) (*env, error) {
	cfg, err := flags.load()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, logger: logger}
	logger.Debug("loaded configuration", zap.Stringer("config", cfg))

	registry := observability.NewRegistry()
	e.metrics = observability.NewMetrics(registry)
	if e.metricsServer = observability.NewServer(cfg.MetricsAddr, registry); e.metricsServer != nil {
		go func() {
			if err := e.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		logger.Info("serving metrics", zap.String("addr", cfg.MetricsAddr))
	}

	opts := []sol.Option{
		sol.WithCommitment(rpc.CommitmentType(cfg.Commitment)),
		sol.WithMetrics(e.metrics),
		sol.WithLogger(logger),
	}
	if needPayer {
		e.payer, err = config.LoadKeypair(cfg.KeypairPath)
		if err != nil {
			e.close()
			return nil, err
		}
		opts = append(opts, sol.WithPayer(e.payer))
	}
	if cfg.JitoTipLamports > 0 {
		tipAccount, err := config.ParsePublicKey(cfg.JitoTipAccount)
		if err != nil {
			e.close()
			return nil, fmt.Errorf("jito tip account: %w", err)
		}
		opts = append(opts, sol.WithJitoTip(tipAccount, cfg.JitoTipLamports))
	}

	e.rpcPool, err = sol.NewRPCPool(ctx, cfg.RPCEndpoints, cfg.JitoRPC, cfg.RateLimit, opts...)
	if err != nil {
		e.close()
		return nil, fmt.Errorf("failed to create RPC pool: %w", err)
	}
	logger.Info("using RPC pool", zap.Int("endpoints", e.rpcPool.Size()))

	market, err := lendingMarket(cfg.Lending)
	if err != nil {
		e.close()
		return nil, err
	}
	clmmProgram, err := parseClmmProgram(cfg.Clmm)
	if err != nil {
		e.close()
		return nil, err
	}
	if e.poolLayout, err = layout.PoolLayoutByVersion(cfg.Clmm.PoolLayout); err != nil {
		e.close()
		return nil, fmt.Errorf("clmm.pool_layout: %w", err)
	}

	clientOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithLendingMarket(market),
		pipeline.WithClmmProgram(clmmProgram),
		pipeline.WithPoolLayout(e.poolLayout),
	}
	if flags.wait {
		if cfg.WSEndpoint == "" {
			e.close()
			return nil, errors.New("-wait needs a websocket endpoint (WS_ENDPOINT or -ws)")
		}
		if err := e.dialWebSocket(ctx); err != nil {
			e.close()
			return nil, err
		}
		clientOpts = append(clientOpts, pipeline.WithConfirmer(subscription.NewSignatureWaiter(e.ws, e.metrics, logger)))
	}

	var payer solana.PublicKey
	if needPayer {
		payer = e.payer.PublicKey()
	}
	e.client = pipeline.New(e.rpcPool, e.rpcPool, payer, clientOpts...)
	return e, nil
}

func (e *env) dialWebSocket(ctx context.Context) error {
	ws, err := subscription.NewWebSocketClient(ctx, e.cfg.WSEndpoint,
		subscription.WithLogger(e.logger),
		subscription.WithCommitment(e.cfg.Commitment))
	if err != nil {
		return err
	}
	e.ws = ws
	return nil
}

func (e *env) close() {
	if e.ws != nil {
		if err := e.ws.Close(); err != nil {
			e.logger.Warn("closing websocket", zap.Error(err))
		}
	}
	if e.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.metricsServer.Shutdown(ctx)
	}
	_ = e.logger.Sync()
}

func lendingMarket(cfg config.LendingConfig) (lending.Params, error) {
	var p lending.Params
	fields := []struct {
		name  string
		value string
		dst   *solana.PublicKey
	}{
		{"lending.lending_program", cfg.LendingProgram, &p.LendingProgram},
		{"lending.liquidity_program", cfg.LiquidityProgram, &p.LiquidityProgram},
		{"lending.mint", cfg.Mint, &p.Mint},
		{"lending.vault", cfg.Vault, &p.Vault},
		{"lending.rewards_rate_model", cfg.RewardsRateModel, &p.RewardsRateModel},
	}
	for _, f := range fields {
		key, err := config.ParsePublicKey(f.value)
		if err != nil {
			return lending.Params{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = key
	}
	return p, nil
}

func parseClmmProgram(cfg config.ClmmConfig) (solana.PublicKey, error) {
	if cfg.Program == "" {
		return clmm.RaydiumClmmProgramID, nil
	}
	key, err := config.ParsePublicKey(cfg.Program)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("clmm.program: %w", err)
	}
	return key, nil
}

func printJSON(v interface{}) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(jsonData))
	return nil
}

func outputError(err error) {
	jsonData, _ := json.MarshalIndent(map[string]string{"error": err.Error()}, "", "  ")
	fmt.Fprintln(os.Stderr, string(jsonData))
}
