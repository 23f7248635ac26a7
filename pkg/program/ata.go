package program

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"interactdapp/pkg/pda"
)

const (
	NATIVE_MINT = "So11111111111111111111111111111111111111112"

	// associated token program instruction index
	ataCreateIdempotent byte = 1
)

var NativeMint = solana.MustPublicKeyFromBase58(NATIVE_MINT)

// NewCreateIdempotentATAInstruction creates owner's associated token account
// for mint unless it already exists. It returns the instruction and the
// account address.
func NewCreateIdempotentATAInstruction(payer, owner, mint, tokenProgram solana.PublicKey) (solana.Instruction, solana.PublicKey, error) {
	ata, err := pda.AssociatedTokenAddress(owner, mint, tokenProgram)
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("derive associated token account: %w", err)
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(payer, true, true),
		solana.NewAccountMeta(ata.Address, true, false),
		solana.NewAccountMeta(owner, false, false),
		solana.NewAccountMeta(mint, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(tokenProgram, false, false),
	}
	inst := solana.NewInstruction(solana.SPLAssociatedTokenAccountProgramID, accounts, []byte{ataCreateIdempotent})
	return inst, ata.Address, nil
}
