package program

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"interactdapp/pkg/anchor"
	"lukechampine.com/uint128"
)

var proxySwapAccountNames = []string{
	"clmm_program",
	"payer",
	"amm_config",
	"pool_state",
	"input_token_account",
	"output_token_account",
	"input_vault",
	"output_vault",
	"observation_state",
	"token_program",
	"token_program_2022",
	"memo_program",
	"input_vault_mint",
	"output_vault_mint",
}

// SwapAccounts are the accounts proxy_swap forwards to the CLMM swap_v2.
type SwapAccounts struct {
	ClmmProgram        solana.PublicKey
	Payer              solana.PublicKey
	AmmConfig          solana.PublicKey
	PoolState          solana.PublicKey
	InputTokenAccount  solana.PublicKey
	OutputTokenAccount solana.PublicKey
	InputVault         solana.PublicKey
	OutputVault        solana.PublicKey
	ObservationState   solana.PublicKey
	TokenProgram       solana.PublicKey
	TokenProgram2022   solana.PublicKey
	MemoProgram        solana.PublicKey
	InputVaultMint     solana.PublicKey
	OutputVaultMint    solana.PublicKey

	// TickArrays are appended as writable remaining accounts, in swap order.
	TickArrays []solana.PublicKey
}

type ProxySwapInstruction struct {
	bin.BaseVariant
	Amount                  uint64
	OtherAmountThreshold    uint64
	SqrtPriceLimitX64       uint128.Uint128
	IsBaseInput             bool
	solana.AccountMetaSlice `bin:"-" borsh_skip:"true"`
}

func NewProxySwapInstruction(
	amount uint64,
	otherAmountThreshold uint64,
	sqrtPriceLimitX64 uint128.Uint128,
	isBaseInput bool,
	acc SwapAccounts,
) *ProxySwapInstruction {
	inst := &ProxySwapInstruction{
		Amount:               amount,
		OtherAmountThreshold: otherAmountThreshold,
		SqrtPriceLimitX64:    sqrtPriceLimitX64,
		IsBaseInput:          isBaseInput,
		AccountMetaSlice:     make(solana.AccountMetaSlice, 0, len(proxySwapAccountNames)+len(acc.TickArrays)),
	}
	inst.AccountMetaSlice = append(inst.AccountMetaSlice,
		solana.NewAccountMeta(acc.ClmmProgram, false, false),
		solana.NewAccountMeta(acc.Payer, false, true),
		solana.NewAccountMeta(acc.AmmConfig, false, false),
		solana.NewAccountMeta(acc.PoolState, true, false),
		solana.NewAccountMeta(acc.InputTokenAccount, true, false),
		solana.NewAccountMeta(acc.OutputTokenAccount, true, false),
		solana.NewAccountMeta(acc.InputVault, true, false),
		solana.NewAccountMeta(acc.OutputVault, true, false),
		solana.NewAccountMeta(acc.ObservationState, true, false),
		solana.NewAccountMeta(acc.TokenProgram, false, false),
		solana.NewAccountMeta(acc.TokenProgram2022, false, false),
		solana.NewAccountMeta(acc.MemoProgram, false, false),
		solana.NewAccountMeta(acc.InputVaultMint, false, false),
		solana.NewAccountMeta(acc.OutputVaultMint, false, false),
	)
	for _, tickArray := range acc.TickArrays {
		inst.AccountMetaSlice = append(inst.AccountMetaSlice, solana.NewAccountMeta(tickArray, true, false))
	}
	inst.BaseVariant = bin.BaseVariant{
		Impl: inst,
	}
	return inst
}

func (inst *ProxySwapInstruction) ProgramID() solana.PublicKey {
	return InteractDappProgramID
}

func (inst *ProxySwapInstruction) Accounts() (out []*solana.AccountMeta) {
	return inst.Impl.(solana.AccountsGettable).GetAccounts()
}

// Validate requires every named account and at least one tick array.
func (inst *ProxySwapInstruction) Validate() error {
	if err := checkAccounts(proxySwapAccountNames, inst.AccountMetaSlice); err != nil {
		return err
	}
	if len(inst.AccountMetaSlice) == len(proxySwapAccountNames) {
		return fmt.Errorf("%w: tick array", ErrMissingAccount)
	}
	return nil
}

func (inst *ProxySwapInstruction) Data() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)

	if _, err := buf.Write(anchor.InstructionDiscriminator(proxySwapName)); err != nil {
		return nil, fmt.Errorf("failed to write discriminator: %w", err)
	}

	if err := enc.WriteUint64(inst.Amount, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode amount: %w", err)
	}

	if err := enc.WriteUint64(inst.OtherAmountThreshold, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode other amount threshold: %w", err)
	}

	// u128 is little-endian: low word first
	if err := enc.WriteUint64(inst.SqrtPriceLimitX64.Lo, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode sqrt price limit lo: %w", err)
	}
	if err := enc.WriteUint64(inst.SqrtPriceLimitX64.Hi, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode sqrt price limit hi: %w", err)
	}

	if err := enc.WriteBool(inst.IsBaseInput); err != nil {
		return nil, fmt.Errorf("failed to encode is base input: %w", err)
	}

	return buf.Bytes(), nil
}
