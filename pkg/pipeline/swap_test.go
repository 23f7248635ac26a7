package pipeline

import (
	"context"
	"testing"

	cosmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"interactdapp/pkg/clmm"
	"interactdapp/pkg/program"
	"lukechampine.com/uint128"
)

func swapHarness(t *testing.T) (*harness, clmm.PoolKeys) {
	h := newHarness(t, WithClmmProgram(clmm.RaydiumClmmDevnetProgramID))
	keys, err := clmm.DerivePoolKeys(0, program.NativeMint, devnetUSDC, clmm.RaydiumClmmDevnetProgramID)
	require.NoError(t, err)
	h.chain.set(keys.Pool, poolData(60, 1234))
	h.chain.set(ataOf(t, h.payer, program.NativeMint), tokenAccountData(program.NativeMint, h.payer, 1_000_000_000))
	return h, keys
}

func TestSwapClmm(t *testing.T) {
	h, keys := swapHarness(t)

	res, err := h.client.SwapClmm(context.Background(), SwapParams{
		InputMint:            program.NativeMint,
		OutputMint:           devnetUSDC,
		Amount:               1_000_000,
		OtherAmountThreshold: 10,
		IsBaseInput:          true,
		TickArrays:           3,
	})
	require.NoError(t, err)
	assert.Equal(t, solana.Signature{9}, res.Signature)
	assert.Equal(t, keys, res.Pool)
	assert.Equal(t, program.NativeMint.Equals(keys.Mint0), res.ZeroForOne)

	starts, err := clmm.TickArrayStarts(1234, 60, res.ZeroForOne, 3)
	require.NoError(t, err)
	require.Len(t, res.TickArrays, len(starts))
	for i, start := range starts {
		want, err := clmm.TickArrayAddress(keys.Pool, start, clmm.RaydiumClmmDevnetProgramID)
		require.NoError(t, err)
		assert.Equal(t, want.Address, res.TickArrays[i])
	}

	wantLimit, err := clmm.SqrtPriceLimitX64(res.ZeroForOne, uint128.Zero)
	require.NoError(t, err)
	assert.Equal(t, wantLimit, res.SqrtPriceLimitX64)

	// output account is missing, so it gets created first
	instructions := h.submitter.last(t)
	require.Len(t, instructions, 2)
	assert.Equal(t, solana.SPLAssociatedTokenAccountProgramID, instructions[0].ProgramID())

	swap, ok := instructions[1].(*program.ProxySwapInstruction)
	require.True(t, ok)
	assert.Equal(t, uint64(1_000_000), swap.Amount)
	assert.Equal(t, uint64(10), swap.OtherAmountThreshold)
	assert.True(t, swap.IsBaseInput)

	metas := swap.Accounts()
	assert.Equal(t, clmm.RaydiumClmmDevnetProgramID, metas[0].PublicKey)
	assert.Equal(t, h.payer, metas[1].PublicKey)
	assert.Equal(t, keys.Pool, metas[3].PublicKey)
	assert.Equal(t, ataOf(t, h.payer, program.NativeMint), metas[4].PublicKey)
	assert.Equal(t, ataOf(t, h.payer, devnetUSDC), metas[5].PublicKey)
	inputVault, err := keys.VaultFor(program.NativeMint)
	require.NoError(t, err)
	assert.Equal(t, inputVault, metas[6].PublicKey)
	assert.Len(t, metas, 14+3)
}

func TestSwapClmmPriceLimitFromVaults(t *testing.T) {
	h, keys := swapHarness(t)
	h.chain.set(keys.Vault0, tokenAccountData(keys.Mint0, keys.Pool, 100))
	h.chain.set(keys.Vault1, tokenAccountData(keys.Mint1, keys.Pool, 400))

	res, err := h.client.SwapClmm(context.Background(), SwapParams{
		InputMint:     program.NativeMint,
		OutputMint:    devnetUSDC,
		Amount:        5,
		PriceLimitBps: 100,
	})
	require.NoError(t, err)
	assert.Len(t, res.TickArrays, 1)

	sqrtPrice, err := clmm.SqrtPriceX64FromAmounts(cosmath.NewInt(100), cosmath.NewInt(400))
	require.NoError(t, err)
	want, err := clmm.PriceLimitFromSqrtPrice(sqrtPrice, res.ZeroForOne, 100)
	require.NoError(t, err)
	assert.Equal(t, want, res.SqrtPriceLimitX64)

	unlimited, err := clmm.SqrtPriceLimitX64(res.ZeroForOne, uint128.Zero)
	require.NoError(t, err)
	assert.NotEqual(t, unlimited, res.SqrtPriceLimitX64)
}

func TestSwapClmmExplicitLimit(t *testing.T) {
	h, _ := swapHarness(t)
	limit := uint128.From64(1 << 40)

	res, err := h.client.SwapClmm(context.Background(), SwapParams{
		InputMint:         program.NativeMint,
		OutputMint:        devnetUSDC,
		Amount:            5,
		SqrtPriceLimitX64: limit,
		PriceLimitBps:     100,
	})
	require.NoError(t, err)
	assert.Equal(t, limit, res.SqrtPriceLimitX64)
}

func TestSwapClmmErrors(t *testing.T) {
	h, keys := swapHarness(t)
	ctx := context.Background()

	_, err := h.client.SwapClmm(ctx, SwapParams{InputMint: program.NativeMint, OutputMint: devnetUSDC})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = h.client.SwapClmm(ctx, SwapParams{InputMint: devnetUSDC, OutputMint: devnetUSDC, Amount: 1})
	assert.Error(t, err)

	// no USDC account to spend from
	_, err = h.client.SwapClmm(ctx, SwapParams{InputMint: devnetUSDC, OutputMint: program.NativeMint, Amount: 1})
	assert.ErrorIs(t, err, ErrAccountNotFound)

	// vaults are not funded
	_, err = h.client.SwapClmm(ctx, SwapParams{InputMint: program.NativeMint, OutputMint: devnetUSDC, Amount: 1, PriceLimitBps: 50})
	assert.ErrorIs(t, err, ErrAccountNotFound)

	h.chain.mu.Lock()
	delete(h.chain.accounts, keys.Pool)
	h.chain.mu.Unlock()
	_, err = h.client.SwapClmm(ctx, SwapParams{InputMint: program.NativeMint, OutputMint: devnetUSDC, Amount: 1})
	assert.ErrorIs(t, err, ErrAccountNotFound)

	assert.Empty(t, h.submitter.submitted)
}
