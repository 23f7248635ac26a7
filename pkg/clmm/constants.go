package clmm

import (
	"math/big"

	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
)

// Raydium CLMM program IDs
const (
	RAYDIUM_CLMM_PROGRAM_ID        = "CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK"
	RAYDIUM_CLMM_DEVNET_PROGRAM_ID = "DRayAUgENGQBKVaX8owNhgzkEDyoHTGVEGHVJT1E9pfH"
)

var (
	RaydiumClmmProgramID       = solana.MustPublicKeyFromBase58(RAYDIUM_CLMM_PROGRAM_ID)
	RaydiumClmmDevnetProgramID = solana.MustPublicKeyFromBase58(RAYDIUM_CLMM_DEVNET_PROGRAM_ID)

	MemoProgramID      = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")
	Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
)

// Tick constants
const (
	TICK_ARRAY_SIZE = 88
	MIN_TICK        = -443636
	MAX_TICK        = 443636
)

// Sqrt price bounds in Q64.64
var (
	MIN_SQRT_PRICE_X64    = uint128.From64(4295048016)
	MAX_SQRT_PRICE_X64, _ = uint128.FromString("79226673521066979257578248091")

	q64 = new(big.Int).Lsh(big.NewInt(1), 64)
)
