package pipeline

import (
	"context"
	"fmt"

	cosmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"interactdapp/pkg/clmm"
	"interactdapp/pkg/layout"
	"interactdapp/pkg/program"
	"lukechampine.com/uint128"
)

// SwapParams describes one proxy_swap through a Raydium CLMM pool.
type SwapParams struct {
	AmmConfigIndex uint16
	InputMint      solana.PublicKey
	OutputMint     solana.PublicKey

	Amount               uint64
	OtherAmountThreshold uint64
	IsBaseInput          bool

	// SqrtPriceLimitX64 is passed through when non-zero. Otherwise a limit
	// PriceLimitBps away from the vault-implied price is used, or no limit
	// when PriceLimitBps is zero.
	SqrtPriceLimitX64 uint128.Uint128
	PriceLimitBps     uint16

	// TickArrays is how many tick arrays to pass, starting with the current
	// one and walking in the swap direction. Defaults to 1.
	TickArrays int

	// token programs of the two mints, default SPL Token
	InputTokenProgram  solana.PublicKey
	OutputTokenProgram solana.PublicKey
}

// SwapResult reports what was submitted.
type SwapResult struct {
	Signature         solana.Signature
	Pool              clmm.PoolKeys
	ZeroForOne        bool
	TickArrays        []solana.PublicKey
	SqrtPriceLimitX64 uint128.Uint128
}

// SwapClmm derives the pool accounts, resolves tick arrays from the pool
// state, computes the price limit and submits proxy_swap.
func (c *Client) SwapClmm(ctx context.Context, p SwapParams) (SwapResult, error) {
	if p.Amount == 0 {
		return SwapResult{}, fmt.Errorf("swap: %w", ErrInvalidAmount)
	}
	if p.InputMint.Equals(p.OutputMint) {
		return SwapResult{}, fmt.Errorf("swap: input and output mint are both %s", p.InputMint)
	}
	if p.TickArrays <= 0 {
		p.TickArrays = 1
	}
	if p.InputTokenProgram.IsZero() {
		p.InputTokenProgram = solana.TokenProgramID
	}
	if p.OutputTokenProgram.IsZero() {
		p.OutputTokenProgram = solana.TokenProgramID
	}

	keys, err := clmm.DerivePoolKeys(p.AmmConfigIndex, p.InputMint, p.OutputMint, c.clmmProgram)
	if err != nil {
		return SwapResult{}, fmt.Errorf("swap: derive pool keys: %w", err)
	}
	zeroForOne := p.InputMint.Equals(keys.Mint0)
	inputVault, err := keys.VaultFor(p.InputMint)
	if err != nil {
		return SwapResult{}, fmt.Errorf("swap: %w", err)
	}
	outputVault, err := keys.VaultFor(p.OutputMint)
	if err != nil {
		return SwapResult{}, fmt.Errorf("swap: %w", err)
	}

	tickArrays, err := c.swapTickArrays(ctx, keys.Pool, zeroForOne, p.TickArrays)
	if err != nil {
		return SwapResult{}, fmt.Errorf("swap: %w", err)
	}

	limit, err := c.sqrtPriceLimit(ctx, keys, zeroForOne, p)
	if err != nil {
		return SwapResult{}, fmt.Errorf("swap: %w", err)
	}

	inputAccount, err := c.requireTokenAccount(ctx, p.InputMint, p.InputTokenProgram)
	if err != nil {
		return SwapResult{}, fmt.Errorf("swap: input %w", err)
	}
	instructions, outputAccount, err := c.ensureTokenAccount(ctx, c.payer, p.OutputMint, p.OutputTokenProgram)
	if err != nil {
		return SwapResult{}, fmt.Errorf("swap: output %w", err)
	}

	instructions = append(instructions, program.NewProxySwapInstruction(
		p.Amount,
		p.OtherAmountThreshold,
		limit,
		p.IsBaseInput,
		program.SwapAccounts{
			ClmmProgram:        c.clmmProgram,
			Payer:              c.payer,
			AmmConfig:          keys.AmmConfig,
			PoolState:          keys.Pool,
			InputTokenAccount:  inputAccount,
			OutputTokenAccount: outputAccount,
			InputVault:         inputVault,
			OutputVault:        outputVault,
			ObservationState:   keys.Observation,
			TokenProgram:       solana.TokenProgramID,
			TokenProgram2022:   clmm.Token2022ProgramID,
			MemoProgram:        clmm.MemoProgramID,
			InputVaultMint:     p.InputMint,
			OutputVaultMint:    p.OutputMint,
			TickArrays:         tickArrays,
		},
	))

	c.logger.Info("swapping",
		zap.Stringer("pool", keys.Pool),
		zap.Stringer("inputMint", p.InputMint),
		zap.Stringer("outputMint", p.OutputMint),
		zap.Uint64("amount", p.Amount),
		zap.Uint64("otherAmountThreshold", p.OtherAmountThreshold),
		zap.Bool("zeroForOne", zeroForOne),
		zap.String("sqrtPriceLimitX64", limit.String()),
		zap.Int("tickArrays", len(tickArrays)))

	sig, err := c.submit(ctx, "swap", instructions)
	result := SwapResult{
		Signature:         sig,
		Pool:              keys,
		ZeroForOne:        zeroForOne,
		TickArrays:        tickArrays,
		SqrtPriceLimitX64: limit,
	}
	return result, err
}

// swapTickArrays resolves the current tick array and the following ones in
// the swap direction.
func (c *Client) swapTickArrays(ctx context.Context, pool solana.PublicKey, zeroForOne bool, count int) ([]solana.PublicKey, error) {
	current, err := c.ResolveTickArray(ctx, pool)
	if err != nil {
		return nil, err
	}
	starts, err := clmm.TickArrayStarts(current.TickCurrent, current.TickSpacing, zeroForOne, count)
	if err != nil {
		return nil, fmt.Errorf("tick array starts: %w", err)
	}
	out := make([]solana.PublicKey, 0, len(starts))
	for _, start := range starts {
		addr, err := clmm.TickArrayAddress(pool, start, c.clmmProgram)
		if err != nil {
			return nil, fmt.Errorf("derive tick array %d: %w", start, err)
		}
		out = append(out, addr.Address)
	}
	return out, nil
}

func (c *Client) sqrtPriceLimit(ctx context.Context, keys clmm.PoolKeys, zeroForOne bool, p SwapParams) (uint128.Uint128, error) {
	if !p.SqrtPriceLimitX64.IsZero() || p.PriceLimitBps == 0 {
		return clmm.SqrtPriceLimitX64(zeroForOne, p.SqrtPriceLimitX64)
	}

	reserve0, err := c.tokenBalance(ctx, keys.Vault0)
	if err != nil {
		return uint128.Zero, fmt.Errorf("vault0: %w", err)
	}
	reserve1, err := c.tokenBalance(ctx, keys.Vault1)
	if err != nil {
		return uint128.Zero, fmt.Errorf("vault1: %w", err)
	}
	sqrtPrice, err := clmm.SqrtPriceX64FromAmounts(reserve0, reserve1)
	if err != nil {
		return uint128.Zero, fmt.Errorf("vault price: %w", err)
	}
	return clmm.PriceLimitFromSqrtPrice(sqrtPrice, zeroForOne, p.PriceLimitBps)
}

func (c *Client) tokenBalance(ctx context.Context, account solana.PublicKey) (cosmath.Int, error) {
	data, err := c.fetcher.GetAccountData(ctx, account)
	if err != nil {
		return cosmath.Int{}, fmt.Errorf("fetch %s: %w", account, err)
	}
	view, err := layout.DecodeTokenAccount(data)
	if err != nil {
		return cosmath.Int{}, err
	}
	return cosmath.NewIntFromUint64(view.Amount), nil
}

// requireTokenAccount returns the payer's token account for mint, which must
// already exist.
func (c *Client) requireTokenAccount(ctx context.Context, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	_, ata, err := program.NewCreateIdempotentATAInstruction(c.payer, c.payer, mint, tokenProgram)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if _, err := c.fetcher.GetAccountData(ctx, ata); err != nil {
		return solana.PublicKey{}, fmt.Errorf("token account %s: %w", ata, err)
	}
	return ata, nil
}
