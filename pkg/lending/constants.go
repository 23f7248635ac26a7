package lending

import "github.com/gagliardetto/solana-go"

// Jupiter Lend program IDs
const (
	LENDING_PROGRAM_ID   = "7tjE28izRUjzmxC1QNXnNwcc4N82CNYCexf3k8mw67s3"
	LIQUIDITY_PROGRAM_ID = "5uDkCoM96pwGYhAUucvCzLfm5UcjVRuxz6gH81RnRBmL"
)

var (
	LendingProgramID   = solana.MustPublicKeyFromBase58(LENDING_PROGRAM_ID)
	LiquidityProgramID = solana.MustPublicKeyFromBase58(LIQUIDITY_PROGRAM_ID)
)
