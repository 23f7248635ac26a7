package clmm

import (
	"errors"
	"fmt"
	"math/big"

	cosmath "cosmossdk.io/math"
	"lukechampine.com/uint128"
)

const bpsDenominator = 10_000

var ErrSqrtPriceLimitOutOfRange = errors.New("sqrt price limit out of range")

// SqrtPriceLimitX64 returns the limit to pass to a swap. A zero limit means
// "no limit" and becomes the extreme allowed price in the swap direction.
func SqrtPriceLimitX64(zeroForOne bool, limit uint128.Uint128) (uint128.Uint128, error) {
	if limit.IsZero() {
		if zeroForOne {
			return MIN_SQRT_PRICE_X64.Add64(1), nil
		}
		return MAX_SQRT_PRICE_X64.Sub64(1), nil
	}
	if limit.Cmp(MIN_SQRT_PRICE_X64) <= 0 || limit.Cmp(MAX_SQRT_PRICE_X64) >= 0 {
		return uint128.Zero, fmt.Errorf("%w: %s", ErrSqrtPriceLimitOutOfRange, limit)
	}
	return limit, nil
}

// SqrtPriceX64FromAmounts computes floor(sqrt(amount1/amount0) * 2^64) from
// raw token amounts, e.g. the two vault balances. Raw amounts are what the
// pool prices in, so decimals need no adjustment.
func SqrtPriceX64FromAmounts(amount0, amount1 cosmath.Int) (uint128.Uint128, error) {
	if amount0.IsNil() || amount1.IsNil() || !amount0.IsPositive() || !amount1.IsPositive() {
		return uint128.Zero, fmt.Errorf("amounts must be positive: %v / %v", amount0, amount1)
	}
	// sqrt(a1/a0) * 2^64 == sqrt(a1 * 2^128 / a0)
	ratio := new(big.Int).Lsh(amount1.BigInt(), 128)
	ratio.Quo(ratio, amount0.BigInt())
	root := new(big.Int).Sqrt(ratio)
	if root.BitLen() > 128 {
		return uint128.Zero, fmt.Errorf("%w: %s", ErrSqrtPriceLimitOutOfRange, root)
	}
	return uint128.FromBig(root), nil
}

// PriceLimitFromSqrtPrice moves the price (not the sqrt price) by bps in the
// swap direction and clamps the result inside the valid bounds.
func PriceLimitFromSqrtPrice(sqrtPrice uint128.Uint128, zeroForOne bool, bps uint16) (uint128.Uint128, error) {
	if bps >= bpsDenominator {
		return uint128.Zero, fmt.Errorf("slippage %d bps must be below %d", bps, bpsDenominator)
	}
	factor := int64(bpsDenominator + int64(bps))
	if zeroForOne {
		factor = int64(bpsDenominator - int64(bps))
	}
	// sqrt(p * f) == sqrt(sqrtPrice^2 * f)
	limit := new(big.Int).Mul(sqrtPrice.Big(), sqrtPrice.Big())
	limit.Mul(limit, big.NewInt(factor))
	limit.Quo(limit, big.NewInt(bpsDenominator))
	limit.Sqrt(limit)

	lo := MIN_SQRT_PRICE_X64.Add64(1).Big()
	hi := MAX_SQRT_PRICE_X64.Sub64(1).Big()
	if limit.Cmp(lo) < 0 {
		limit = lo
	}
	if limit.Cmp(hi) > 0 {
		limit = hi
	}
	return uint128.FromBig(limit), nil
}

// SqrtPriceX64ToPrice converts a Q64.64 sqrt price to a float price in raw units.
func SqrtPriceX64ToPrice(sqrtPriceX64 uint128.Uint128) float64 {
	p := new(big.Float).Quo(new(big.Float).SetInt(sqrtPriceX64.Big()), new(big.Float).SetInt(q64))
	p.Mul(p, p)
	f, _ := p.Float64()
	return f
}
