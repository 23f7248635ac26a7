package pda

import "fmt"

// Seed identifies the role of a program-derived account. Each role maps to
// one immutable byte string defined by the owning program.
type Seed uint8

const (
	// Jupiter Lend earn
	SeedLendingAdmin Seed = iota
	SeedFTokenMint
	SeedLending
	SeedLiquidity
	SeedUserSupplyPosition
	SeedTokenReserve
	SeedRateModel
	SeedVaultState
	SeedLendingRewardsRateModel
	SeedLendingRewardsAdmin
	SeedClaimAccount

	// Raydium CLMM
	SeedAmmConfig
	SeedPool
	SeedPoolVault
	SeedObservation
	SeedTickArray
	SeedTickArrayBitmapExtension

	seedCount
)

var seedTable = [seedCount]string{
	SeedLendingAdmin:            "lending_admin",
	SeedFTokenMint:              "f_token_mint",
	SeedLending:                 "lending",
	SeedLiquidity:               "liquidity",
	SeedUserSupplyPosition:      "user_supply_position",
	SeedTokenReserve:            "reserve",
	SeedRateModel:               "rate_model",
	SeedVaultState:              "vault_state",
	SeedLendingRewardsRateModel: "lending_rewards_rate_model",
	SeedLendingRewardsAdmin:     "lending_rewards_admin",
	SeedClaimAccount:            "user_claim",

	SeedAmmConfig:   "amm_config",
	SeedPool:        "pool",
	SeedPoolVault:   "pool_vault",
	SeedObservation: "observation",
	SeedTickArray:   "tick_array",

	SeedTickArrayBitmapExtension: "pool_tick_array_bitmap_extension",
}

func init() {
	if err := ValidateSeedTable(); err != nil {
		panic(err)
	}
}

// ValidateSeedTable checks every role has a usable seed.
func ValidateSeedTable() error {
	seen := make(map[string]Seed, len(seedTable))
	for i, s := range seedTable {
		role := Seed(i)
		if len(s) == 0 {
			return fmt.Errorf("%w: role %d has an empty seed", ErrInvalidSeeds, i)
		}
		if len(s) > MaxSeedLength {
			return fmt.Errorf("%w: role %q is %d bytes, max %d", ErrInvalidSeeds, s, len(s), MaxSeedLength)
		}
		if prev, ok := seen[s]; ok {
			return fmt.Errorf("%w: roles %d and %d share seed %q", ErrInvalidSeeds, prev, role, s)
		}
		seen[s] = role
	}
	return nil
}

// Bytes returns a copy of the role's seed.
func (s Seed) Bytes() []byte {
	if !s.Valid() {
		return nil
	}
	return []byte(seedTable[s])
}

func (s Seed) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Seed(%d)", uint8(s))
	}
	return seedTable[s]
}

func (s Seed) Valid() bool {
	return s < seedCount
}

// Seeds lists every known role.
func Seeds() []Seed {
	out := make([]Seed, 0, seedCount)
	for s := Seed(0); s < seedCount; s++ {
		out = append(out, s)
	}
	return out
}
