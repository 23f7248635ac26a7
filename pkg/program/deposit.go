package program

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"interactdapp/pkg/anchor"
	"interactdapp/pkg/lending"
)

var depositAccountNames = []string{
	"signer",
	"depositor_token_account",
	"recipient_token_account",
	"mint",
	"lending_admin",
	"lending",
	"f_token_mint",
	"supply_token_reserves_liquidity",
	"lending_supply_position_on_liquidity",
	"rate_model",
	"vault",
	"liquidity",
	"liquidity_program",
	"rewards_rate_model",
	"token_program",
	"associated_token_program",
	"system_program",
	"lending_program",
}

type DepositEarnInstruction struct {
	bin.BaseVariant
	Amount                  uint64
	solana.AccountMetaSlice `bin:"-" borsh_skip:"true"`
}

// NewDepositEarnInstruction deposits amount of the underlying mint into the
// earn market and credits fTokens to the user's fToken account.
func NewDepositEarnInstruction(amount uint64, acc lending.Accounts) *DepositEarnInstruction {
	inst := &DepositEarnInstruction{
		Amount:           amount,
		AccountMetaSlice: make(solana.AccountMetaSlice, len(depositAccountNames)),
	}
	inst.AccountMetaSlice[0] = solana.NewAccountMeta(acc.User, true, true)
	inst.AccountMetaSlice[1] = solana.NewAccountMeta(acc.UnderlyingTokenAccount, true, false)
	inst.AccountMetaSlice[2] = solana.NewAccountMeta(acc.FTokenAccount, true, false)
	inst.AccountMetaSlice[3] = solana.NewAccountMeta(acc.Mint, false, false)
	inst.AccountMetaSlice[4] = solana.NewAccountMeta(acc.LendingAdmin, false, false)
	inst.AccountMetaSlice[5] = solana.NewAccountMeta(acc.Lending, true, false)
	inst.AccountMetaSlice[6] = solana.NewAccountMeta(acc.FTokenMint, true, false)
	inst.AccountMetaSlice[7] = solana.NewAccountMeta(acc.TokenReserve, true, false)
	inst.AccountMetaSlice[8] = solana.NewAccountMeta(acc.UserSupplyPosition, true, false)
	inst.AccountMetaSlice[9] = solana.NewAccountMeta(acc.RateModel, false, false)
	inst.AccountMetaSlice[10] = solana.NewAccountMeta(acc.Vault, true, false)
	inst.AccountMetaSlice[11] = solana.NewAccountMeta(acc.Liquidity, true, false)
	inst.AccountMetaSlice[12] = solana.NewAccountMeta(acc.LiquidityProgram, true, false)
	inst.AccountMetaSlice[13] = solana.NewAccountMeta(acc.RewardsRateModel, false, false)
	inst.AccountMetaSlice[14] = solana.NewAccountMeta(acc.TokenProgram, false, false)
	inst.AccountMetaSlice[15] = solana.NewAccountMeta(solana.SPLAssociatedTokenAccountProgramID, false, false)
	inst.AccountMetaSlice[16] = solana.NewAccountMeta(solana.SystemProgramID, false, false)
	inst.AccountMetaSlice[17] = solana.NewAccountMeta(acc.LendingProgram, false, false)
	inst.BaseVariant = bin.BaseVariant{
		Impl: inst,
	}
	return inst
}

func (inst *DepositEarnInstruction) ProgramID() solana.PublicKey {
	return InteractDappProgramID
}

func (inst *DepositEarnInstruction) Accounts() (out []*solana.AccountMeta) {
	return inst.Impl.(solana.AccountsGettable).GetAccounts()
}

func (inst *DepositEarnInstruction) Validate() error {
	return checkAccounts(depositAccountNames, inst.AccountMetaSlice)
}

func (inst *DepositEarnInstruction) Data() ([]byte, error) {
	buf := new(bytes.Buffer)

	if _, err := buf.Write(anchor.InstructionDiscriminator(depositEarnName)); err != nil {
		return nil, fmt.Errorf("failed to write discriminator: %w", err)
	}

	if err := bin.NewBorshEncoder(buf).WriteUint64(inst.Amount, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode amount: %w", err)
	}

	return buf.Bytes(), nil
}
