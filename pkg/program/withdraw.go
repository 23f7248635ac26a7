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

var withdrawAccountNames = []string{
	"signer",
	"owner_token_account",
	"recipient_token_account",
	"lending_admin",
	"lending",
	"mint",
	"f_token_mint",
	"supply_token_reserves_liquidity",
	"lending_supply_position_on_liquidity",
	"rate_model",
	"vault",
	"claim_account",
	"liquidity",
	"liquidity_program",
	"rewards_rate_model",
	"token_program",
	"associated_token_program",
	"system_program",
	"lending_program",
}

type WithdrawEarnInstruction struct {
	bin.BaseVariant
	Assets                  uint64
	solana.AccountMetaSlice `bin:"-" borsh_skip:"true"`
}

// NewWithdrawEarnInstruction burns the user's fTokens for assets of the
// underlying mint, paid to the user's underlying token account.
func NewWithdrawEarnInstruction(assets uint64, acc lending.Accounts) *WithdrawEarnInstruction {
	inst := &WithdrawEarnInstruction{
		Assets:           assets,
		AccountMetaSlice: make(solana.AccountMetaSlice, len(withdrawAccountNames)),
	}
	inst.AccountMetaSlice[0] = solana.NewAccountMeta(acc.User, true, true)
	inst.AccountMetaSlice[1] = solana.NewAccountMeta(acc.FTokenAccount, true, false)
	inst.AccountMetaSlice[2] = solana.NewAccountMeta(acc.UnderlyingTokenAccount, true, false)
	inst.AccountMetaSlice[3] = solana.NewAccountMeta(acc.LendingAdmin, false, false)
	inst.AccountMetaSlice[4] = solana.NewAccountMeta(acc.Lending, true, false)
	inst.AccountMetaSlice[5] = solana.NewAccountMeta(acc.Mint, false, false)
	inst.AccountMetaSlice[6] = solana.NewAccountMeta(acc.FTokenMint, true, false)
	inst.AccountMetaSlice[7] = solana.NewAccountMeta(acc.TokenReserve, true, false)
	inst.AccountMetaSlice[8] = solana.NewAccountMeta(acc.UserSupplyPosition, true, false)
	inst.AccountMetaSlice[9] = solana.NewAccountMeta(acc.RateModel, false, false)
	inst.AccountMetaSlice[10] = solana.NewAccountMeta(acc.Vault, true, false)
	inst.AccountMetaSlice[11] = solana.NewAccountMeta(acc.ClaimAccount, true, false)
	inst.AccountMetaSlice[12] = solana.NewAccountMeta(acc.Liquidity, true, false)
	inst.AccountMetaSlice[13] = solana.NewAccountMeta(acc.LiquidityProgram, true, false)
	inst.AccountMetaSlice[14] = solana.NewAccountMeta(acc.RewardsRateModel, false, false)
	inst.AccountMetaSlice[15] = solana.NewAccountMeta(acc.TokenProgram, false, false)
	inst.AccountMetaSlice[16] = solana.NewAccountMeta(solana.SPLAssociatedTokenAccountProgramID, false, false)
	inst.AccountMetaSlice[17] = solana.NewAccountMeta(solana.SystemProgramID, false, false)
	inst.AccountMetaSlice[18] = solana.NewAccountMeta(acc.LendingProgram, false, false)
	inst.BaseVariant = bin.BaseVariant{
		Impl: inst,
	}
	return inst
}

func (inst *WithdrawEarnInstruction) ProgramID() solana.PublicKey {
	return InteractDappProgramID
}

func (inst *WithdrawEarnInstruction) Accounts() (out []*solana.AccountMeta) {
	return inst.Impl.(solana.AccountsGettable).GetAccounts()
}

func (inst *WithdrawEarnInstruction) Validate() error {
	return checkAccounts(withdrawAccountNames, inst.AccountMetaSlice)
}

func (inst *WithdrawEarnInstruction) Data() ([]byte, error) {
	buf := new(bytes.Buffer)

	if _, err := buf.Write(anchor.InstructionDiscriminator(withdrawEarnName)); err != nil {
		return nil, fmt.Errorf("failed to write discriminator: %w", err)
	}

	if err := bin.NewBorshEncoder(buf).WriteUint64(inst.Assets, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode assets: %w", err)
	}

	return buf.Bytes(), nil
}
