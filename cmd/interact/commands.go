package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"interactdapp/pkg/anchor"
	"interactdapp/pkg/clmm"
	"interactdapp/pkg/config"
	"interactdapp/pkg/lending"
	"interactdapp/pkg/pipeline"
	"interactdapp/pkg/subscription"
	"lukechampine.com/uint128"
)

// parseAmount parses a positive integer amount in the token's smallest unit.
func parseAmount(s string) (uint64, error) {
	amount, ok := math.NewIntFromString(s)
	if !ok || !amount.IsPositive() || !amount.IsUint64() {
		return 0, fmt.Errorf("invalid amount %q: must be a positive integer below 2^64", s)
	}
	return amount.Uint64(), nil
}

const maxUint16 = 1<<16 - 1

// uint16Flag checks an int flag that defaults to -1 (unset) and must
// otherwise fit in a uint16.
func uint16Flag(name string, v int) (value uint16, set bool, err error) {
	if v == -1 {
		return 0, false, nil
	}
	if v < 0 || v > maxUint16 {
		return 0, false, fmt.Errorf("-%s %d: must be between 0 and %d", name, v, maxUint16)
	}
	return uint16(v), true, nil
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return nil
}

// pairFromConfig resolves the swap mints, preferring explicit flags.
func pairFromConfig(cfg config.ClmmConfig, input, output string) (solana.PublicKey, solana.PublicKey, error) {
	if input == "" {
		input = cfg.InputMint
	}
	if output == "" {
		output = cfg.OutputMint
	}
	if input == "" || output == "" {
		return solana.PublicKey{}, solana.PublicKey{}, errors.New("input and output mints are required (-input/-output or clmm.input_mint/clmm.output_mint)")
	}
	in, err := solana.PublicKeyFromBase58(input)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("invalid input mint: %w", err)
	}
	out, err := solana.PublicKeyFromBase58(output)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("invalid output mint: %w", err)
	}
	return in, out, nil
}

type addressesOutput struct {
	Lending *lendingAddresses `json:"lending,omitempty"`
	Clmm    *clmmAddresses    `json:"clmm,omitempty"`

	Discriminators map[string]string `json:"discriminators"`
}

type lendingAddresses struct {
	User                   string `json:"user"`
	Mint                   string `json:"mint"`
	LendingAdmin           string `json:"lendingAdmin"`
	Lending                string `json:"lending"`
	FTokenMint             string `json:"fTokenMint"`
	Liquidity              string `json:"liquidity"`
	TokenReserve           string `json:"tokenReserve"`
	UserSupplyPosition     string `json:"userSupplyPosition"`
	RateModel              string `json:"rateModel"`
	RewardsRateModel       string `json:"rewardsRateModel"`
	ClaimAccount           string `json:"claimAccount"`
	Vault                  string `json:"vault"`
	UnderlyingTokenAccount string `json:"underlyingTokenAccount"`
	FTokenAccount          string `json:"fTokenAccount"`
}

type clmmAddresses struct {
	Program     string `json:"program"`
	AmmConfig   string `json:"ammConfig"`
	Pool        string `json:"pool"`
	Mint0       string `json:"mint0"`
	Mint1       string `json:"mint1"`
	Vault0      string `json:"vault0"`
	Vault1      string `json:"vault1"`
	Observation string `json:"observation"`
	BitmapExt   string `json:"bitmapExtension"`
}

// runAddresses works offline: it only derives, it never calls the RPC.
func runAddresses(_ context.Context, args []string) error {
	fs, flags := newFlagSet("addresses")
	user := fs.String("user", "", "User address (defaults to the keypair's public key)")
	input := fs.String("input", "", "Input mint of the CLMM pair")
	output := fs.String("output", "", "Output mint of the CLMM pair")
	ammConfig := fs.Int("amm-config", -1, "AMM config index (defaults to clmm.amm_config_index)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	ammIndex, ammIndexSet, err := uint16Flag("amm-config", *ammConfig)
	if err != nil {
		return err
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.keypair != "" {
		cfg.KeypairPath = flags.keypair
	}

	out := addressesOutput{
		Discriminators: map[string]string{
			"PoolState":      anchor.AccountDiscriminatorBase58("PoolState"),
			"AmmConfig":      anchor.AccountDiscriminatorBase58("AmmConfig"),
			"TickArrayState": anchor.AccountDiscriminatorBase58("TickArrayState"),
		},
	}

	market, err := lendingMarket(cfg.Lending)
	if err != nil {
		return err
	}
	if !market.Mint.IsZero() {
		if *user != "" {
			market.User, err = solana.PublicKeyFromBase58(*user)
			if err != nil {
				return fmt.Errorf("invalid user: %w", err)
			}
		} else {
			payer, err := config.LoadKeypair(cfg.KeypairPath)
			if err != nil {
				return fmt.Errorf("need -user or a keypair: %w", err)
			}
			market.User = payer.PublicKey()
		}
		acc, err := lending.DeriveAccounts(market)
		if err != nil {
			return err
		}
		out.Lending = &lendingAddresses{
			User:                   acc.User.String(),
			Mint:                   acc.Mint.String(),
			LendingAdmin:           acc.LendingAdmin.String(),
			Lending:                acc.Lending.String(),
			FTokenMint:             acc.FTokenMint.String(),
			Liquidity:              acc.Liquidity.String(),
			TokenReserve:           acc.TokenReserve.String(),
			UserSupplyPosition:     acc.UserSupplyPosition.String(),
			RateModel:              acc.RateModel.String(),
			RewardsRateModel:       acc.RewardsRateModel.String(),
			ClaimAccount:           acc.ClaimAccount.String(),
			Vault:                  acc.Vault.String(),
			UnderlyingTokenAccount: acc.UnderlyingTokenAccount.String(),
			FTokenAccount:          acc.FTokenAccount.String(),
		}
	}

	if in, outMint, err := pairFromConfig(cfg.Clmm, *input, *output); err == nil {
		program, err := parseClmmProgram(cfg.Clmm)
		if err != nil {
			return err
		}
		index := cfg.Clmm.AmmConfigIndex
		if ammIndexSet {
			index = ammIndex
		}
		keys, err := clmm.DerivePoolKeys(index, in, outMint, program)
		if err != nil {
			return err
		}
		out.Clmm = &clmmAddresses{
			Program:     program.String(),
			AmmConfig:   keys.AmmConfig.String(),
			Pool:        keys.Pool.String(),
			Mint0:       keys.Mint0.String(),
			Mint1:       keys.Mint1.String(),
			Vault0:      keys.Vault0.String(),
			Vault1:      keys.Vault1.String(),
			Observation: keys.Observation.String(),
			BitmapExt:   keys.BitmapExt.String(),
		}
	}

	return printJSON(out)
}

func runTickArray(ctx context.Context, args []string) error {
	fs, flags := newFlagSet("tick-array")
	poolAddr := fs.String("pool", "", "CLMM pool address (required)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *poolAddr == "" {
		return errors.New("-pool is required")
	}
	pool, err := solana.PublicKeyFromBase58(*poolAddr)
	if err != nil {
		return fmt.Errorf("invalid pool: %w", err)
	}

	e, err := setup(ctx, flags, false)
	if err != nil {
		return err
	}
	defer e.close()

	ta, err := e.client.ResolveTickArray(ctx, pool)
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{
		"pool":        ta.Pool.String(),
		"tickSpacing": ta.TickSpacing,
		"tickCurrent": ta.TickCurrent,
		"startIndex":  ta.StartIndex,
		"tickArray":   ta.Address.String(),
		"bump":        ta.Bump,
	})
}

func runDeposit(ctx context.Context, args []string) error {
	fs, flags := newFlagSet("deposit")
	amountFlag := fs.String("amount", "", "Amount in the mint's smallest unit (required)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	amount, err := parseAmount(*amountFlag)
	if err != nil {
		return err
	}

	e, err := setup(ctx, flags, true)
	if err != nil {
		return err
	}
	defer e.close()

	sig, err := e.client.DepositEarn(ctx, amount)
	if err != nil {
		return err
	}
	return printJSON(map[string]string{"signature": sig.String()})
}

func runWithdraw(ctx context.Context, args []string) error {
	fs, flags := newFlagSet("withdraw")
	assetsFlag := fs.String("assets", "", "Underlying assets to withdraw in the smallest unit (required)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	assets, err := parseAmount(*assetsFlag)
	if err != nil {
		return err
	}

	e, err := setup(ctx, flags, true)
	if err != nil {
		return err
	}
	defer e.close()

	sig, err := e.client.WithdrawEarn(ctx, assets)
	if err != nil {
		return err
	}
	return printJSON(map[string]string{"signature": sig.String()})
}

func runSwap(ctx context.Context, args []string) error {
	fs, flags := newFlagSet("swap")
	input := fs.String("input", "", "Input mint (defaults to clmm.input_mint)")
	output := fs.String("output", "", "Output mint (defaults to clmm.output_mint)")
	amountFlag := fs.String("amount", "", "Amount in the smallest unit (required)")
	threshold := fs.String("threshold", "0", "Minimum output (base input) or maximum input (base output)")
	baseOutput := fs.Bool("base-output", false, "Treat -amount as the exact output amount")
	limitFlag := fs.String("sqrt-price-limit", "", "Explicit sqrt price limit in Q64.64")
	limitBps := fs.Int("price-limit-bps", -1, "Price limit distance in bps (defaults to clmm.price_limit_bps)")
	tickArrays := fs.Int("tick-arrays", 0, "Tick arrays to pass (defaults to clmm.tick_arrays)")
	ammConfig := fs.Int("amm-config", -1, "AMM config index (defaults to clmm.amm_config_index)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	amount, err := parseAmount(*amountFlag)
	if err != nil {
		return err
	}
	ammIndex, ammIndexSet, err := uint16Flag("amm-config", *ammConfig)
	if err != nil {
		return err
	}
	bps, bpsSet, err := uint16Flag("price-limit-bps", *limitBps)
	if err != nil {
		return err
	}
	otherAmount := uint64(0)
	if *threshold != "0" {
		if otherAmount, err = parseAmount(*threshold); err != nil {
			return fmt.Errorf("threshold: %w", err)
		}
	}

	e, err := setup(ctx, flags, true)
	if err != nil {
		return err
	}
	defer e.close()

	in, out, err := pairFromConfig(e.cfg.Clmm, *input, *output)
	if err != nil {
		return err
	}
	params := pipeline.SwapParams{
		AmmConfigIndex:       e.cfg.Clmm.AmmConfigIndex,
		InputMint:            in,
		OutputMint:           out,
		Amount:               amount,
		OtherAmountThreshold: otherAmount,
		IsBaseInput:          !*baseOutput,
		PriceLimitBps:        e.cfg.Clmm.PriceLimitBps,
		TickArrays:           e.cfg.Clmm.TickArrays,
	}
	if ammIndexSet {
		params.AmmConfigIndex = ammIndex
	}
	if bpsSet {
		params.PriceLimitBps = bps
	}
	if *tickArrays > 0 {
		params.TickArrays = *tickArrays
	}
	if *limitFlag != "" {
		if params.SqrtPriceLimitX64, err = uint128.FromString(*limitFlag); err != nil {
			return fmt.Errorf("invalid sqrt price limit: %w", err)
		}
	}

	res, err := e.client.SwapClmm(ctx, params)
	if err != nil {
		return err
	}
	tickArrayStrs := make([]string, 0, len(res.TickArrays))
	for _, ta := range res.TickArrays {
		tickArrayStrs = append(tickArrayStrs, ta.String())
	}
	return printJSON(map[string]interface{}{
		"signature":         res.Signature.String(),
		"pool":              res.Pool.Pool.String(),
		"zeroForOne":        res.ZeroForOne,
		"tickArrays":        tickArrayStrs,
		"sqrtPriceLimitX64": res.SqrtPriceLimitX64.String(),
		"price":             clmm.SqrtPriceX64ToPrice(res.SqrtPriceLimitX64),
	})
}

func runWrapSol(ctx context.Context, args []string) error {
	fs, flags := newFlagSet("wrap-sol")
	lamportsFlag := fs.String("lamports", "", "Lamports to wrap (required)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	lamports, err := parseAmount(*lamportsFlag)
	if err != nil {
		return err
	}

	e, err := setup(ctx, flags, true)
	if err != nil {
		return err
	}
	defer e.close()

	sig, err := e.client.WrapSol(ctx, lamports)
	if err != nil {
		return err
	}
	return printJSON(map[string]string{"signature": sig.String()})
}

// runWatch follows a pool over the websocket and prints a line whenever its
// current tick crosses into another tick array.
func runWatch(ctx context.Context, args []string) error {
	fs, flags := newFlagSet("watch")
	poolAddr := fs.String("pool", "", "CLMM pool address (defaults to the configured pair's pool)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	e, err := setup(ctx, flags, false)
	if err != nil {
		return err
	}
	defer e.close()
	if e.cfg.WSEndpoint == "" {
		return errors.New("watch needs a websocket endpoint (WS_ENDPOINT or -ws)")
	}

	program, err := parseClmmProgram(e.cfg.Clmm)
	if err != nil {
		return err
	}
	var pool solana.PublicKey
	if *poolAddr != "" {
		if pool, err = solana.PublicKeyFromBase58(*poolAddr); err != nil {
			return fmt.Errorf("invalid pool: %w", err)
		}
	} else {
		in, out, err := pairFromConfig(e.cfg.Clmm, "", "")
		if err != nil {
			return err
		}
		keys, err := clmm.DerivePoolKeys(e.cfg.Clmm.AmmConfigIndex, in, out, program)
		if err != nil {
			return err
		}
		pool = keys.Pool
	}

	current, err := e.client.ResolveTickArray(ctx, pool)
	if err != nil {
		return err
	}
	if err := printJSON(current); err != nil {
		return err
	}

	if e.ws == nil {
		if err := e.dialWebSocket(ctx); err != nil {
			return err
		}
	}
	cache := subscription.NewPoolCache(e.rpcPool, subscription.WithPoolLayout(e.poolLayout))
	manager := subscription.NewSubscriptionManager(e.ws, cache, program, e.logger)
	defer func() {
		if err := manager.Close(); err != nil {
			e.logger.Warn("closing subscriptions", zap.Error(err))
		}
	}()

	err = manager.SubscribePool(pool, func(update subscription.TickArrayUpdate) {
		if err := printJSON(update); err != nil {
			e.logger.Warn("print update", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	<-ctx.Done()
	e.logger.Info("stopping watch", zap.Any("stats", manager.Stats()))
	return nil
}
