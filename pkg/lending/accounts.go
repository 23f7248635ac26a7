package lending

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"interactdapp/pkg/pda"
)

// Params selects the earn market and the user acting on it.
type Params struct {
	LendingProgram   solana.PublicKey
	LiquidityProgram solana.PublicKey
	TokenProgram     solana.PublicKey
	Mint             solana.PublicKey
	User             solana.PublicKey

	// Optional overrides for accounts the deployment pins explicitly.
	Vault            solana.PublicKey
	RewardsRateModel solana.PublicKey
}

func (p Params) withDefaults() Params {
	if p.LendingProgram.IsZero() {
		p.LendingProgram = LendingProgramID
	}
	if p.LiquidityProgram.IsZero() {
		p.LiquidityProgram = LiquidityProgramID
	}
	if p.TokenProgram.IsZero() {
		p.TokenProgram = solana.TokenProgramID
	}
	return p
}

// Accounts are the addresses deposit_earn and withdraw_earn reference.
type Accounts struct {
	LendingProgram   solana.PublicKey
	LiquidityProgram solana.PublicKey
	TokenProgram     solana.PublicKey
	Mint             solana.PublicKey
	User             solana.PublicKey

	LendingAdmin       solana.PublicKey
	FTokenMint         solana.PublicKey
	Lending            solana.PublicKey
	Liquidity          solana.PublicKey
	UserSupplyPosition solana.PublicKey
	TokenReserve       solana.PublicKey
	RateModel          solana.PublicKey
	RewardsRateModel   solana.PublicKey
	ClaimAccount       solana.PublicKey
	Vault              solana.PublicKey

	// user token accounts
	UnderlyingTokenAccount solana.PublicKey
	FTokenAccount          solana.PublicKey
}

// DeriveAccounts derives every PDA of the earn market for p.
func DeriveAccounts(p Params) (Accounts, error) {
	if p.Mint.IsZero() {
		return Accounts{}, fmt.Errorf("mint is required")
	}
	if p.User.IsZero() {
		return Accounts{}, fmt.Errorf("user is required")
	}
	p = p.withDefaults()

	out := Accounts{
		LendingProgram:   p.LendingProgram,
		LiquidityProgram: p.LiquidityProgram,
		TokenProgram:     p.TokenProgram,
		Mint:             p.Mint,
		User:             p.User,
	}
	mint := p.Mint.Bytes()

	steps := []struct {
		name string
		dst  *solana.PublicKey
		fn   func() (pda.ProgramAddress, error)
	}{
		{"lending admin", &out.LendingAdmin, func() (pda.ProgramAddress, error) {
			return pda.DeriveRole(pda.SeedLendingAdmin, p.LendingProgram)
		}},
		{"f token mint", &out.FTokenMint, func() (pda.ProgramAddress, error) {
			return pda.DeriveRole(pda.SeedFTokenMint, p.LendingProgram, mint)
		}},
		{"lending", &out.Lending, func() (pda.ProgramAddress, error) {
			return pda.DeriveRole(pda.SeedLending, p.LendingProgram, mint, out.FTokenMint.Bytes())
		}},
		{"liquidity", &out.Liquidity, func() (pda.ProgramAddress, error) {
			return pda.DeriveRole(pda.SeedLiquidity, p.LiquidityProgram)
		}},
		{"user supply position", &out.UserSupplyPosition, func() (pda.ProgramAddress, error) {
			return pda.DeriveRole(pda.SeedUserSupplyPosition, p.LiquidityProgram, mint, out.Lending.Bytes())
		}},
		{"token reserve", &out.TokenReserve, func() (pda.ProgramAddress, error) {
			return pda.DeriveRole(pda.SeedTokenReserve, p.LiquidityProgram, mint)
		}},
		{"rate model", &out.RateModel, func() (pda.ProgramAddress, error) {
			return pda.DeriveRole(pda.SeedRateModel, p.LiquidityProgram, mint)
		}},
		{"rewards rate model", &out.RewardsRateModel, func() (pda.ProgramAddress, error) {
			return pda.DeriveRole(pda.SeedLendingRewardsRateModel, p.LendingProgram, mint)
		}},
		{"claim account", &out.ClaimAccount, func() (pda.ProgramAddress, error) {
			return pda.DeriveRole(pda.SeedClaimAccount, p.LiquidityProgram, p.User.Bytes(), mint)
		}},
		{"vault", &out.Vault, func() (pda.ProgramAddress, error) {
			return pda.AssociatedTokenAddress(out.Liquidity, p.Mint, p.TokenProgram)
		}},
		{"underlying token account", &out.UnderlyingTokenAccount, func() (pda.ProgramAddress, error) {
			return pda.AssociatedTokenAddress(p.User, p.Mint, p.TokenProgram)
		}},
		{"f token account", &out.FTokenAccount, func() (pda.ProgramAddress, error) {
			return pda.AssociatedTokenAddress(p.User, out.FTokenMint, p.TokenProgram)
		}},
	}
	for _, step := range steps {
		addr, err := step.fn()
		if err != nil {
			return Accounts{}, fmt.Errorf("derive %s: %w", step.name, err)
		}
		*step.dst = addr.Address
	}

	if !p.Vault.IsZero() {
		out.Vault = p.Vault
	}
	if !p.RewardsRateModel.IsZero() {
		out.RewardsRateModel = p.RewardsRateModel
	}
	return out, nil
}
