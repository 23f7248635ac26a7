package pda

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/gagliardetto/solana-go"
)

const (
	// MaxSeedLength is the largest single seed the runtime accepts.
	MaxSeedLength = 32
	// MaxSeeds counts the bump seed too.
	MaxSeeds = 16

	pdaMarker = "ProgramDerivedAddress"
)

// overridden in tests
var onCurve = IsOnCurve

var (
	ErrInvalidSeeds = errors.New("invalid seeds")
	ErrNoValidBump  = errors.New("no viable bump seed")
)

// ProgramAddress is a derived address together with the bump that produced it.
type ProgramAddress struct {
	Address solana.PublicKey
	Bump    uint8
}

func (p ProgramAddress) String() string {
	return p.Address.String()
}

// Derive finds the highest bump in [0,255] for which the address built from
// seeds, bump and program falls off the ed25519 curve.
func Derive(seeds [][]byte, program solana.PublicKey) (ProgramAddress, error) {
	if len(seeds) > MaxSeeds-1 {
		return ProgramAddress{}, fmt.Errorf("%w: %d seeds, max %d", ErrInvalidSeeds, len(seeds), MaxSeeds-1)
	}
	if err := checkSeedLengths(seeds); err != nil {
		return ProgramAddress{}, err
	}

	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	bump := []byte{0}
	withBump[len(seeds)] = bump

	for b := 255; b >= 0; b-- {
		bump[0] = uint8(b)
		addr, ok := hashAddress(withBump, program)
		if ok {
			return ProgramAddress{Address: addr, Bump: uint8(b)}, nil
		}
	}
	return ProgramAddress{}, ErrNoValidBump
}

// DeriveRole derives the address for a role seed followed by extra seeds.
func DeriveRole(role Seed, program solana.PublicKey, extra ...[]byte) (ProgramAddress, error) {
	if !role.Valid() {
		return ProgramAddress{}, fmt.Errorf("%w: unknown role %s", ErrInvalidSeeds, role)
	}
	seeds := make([][]byte, 0, len(extra)+1)
	seeds = append(seeds, role.Bytes())
	seeds = append(seeds, extra...)
	return Derive(seeds, program)
}

// CreateAddress computes one candidate address. The bump, if any, must already
// be the last seed. It fails with ErrInvalidSeeds when the result is on curve.
func CreateAddress(seeds [][]byte, program solana.PublicKey) (solana.PublicKey, error) {
	if len(seeds) > MaxSeeds {
		return solana.PublicKey{}, fmt.Errorf("%w: %d seeds, max %d", ErrInvalidSeeds, len(seeds), MaxSeeds)
	}
	if err := checkSeedLengths(seeds); err != nil {
		return solana.PublicKey{}, err
	}
	addr, ok := hashAddress(seeds, program)
	if !ok {
		return solana.PublicKey{}, fmt.Errorf("%w: address lies on the ed25519 curve", ErrInvalidSeeds)
	}
	return addr, nil
}

// IsOnCurve reports whether b decodes to a valid ed25519 point.
func IsOnCurve(b []byte) bool {
	if len(b) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

func checkSeedLengths(seeds [][]byte) error {
	for i, s := range seeds {
		if len(s) > MaxSeedLength {
			return fmt.Errorf("%w: seed %d is %d bytes, max %d", ErrInvalidSeeds, i, len(s), MaxSeedLength)
		}
	}
	return nil
}

func hashAddress(seeds [][]byte, program solana.PublicKey) (solana.PublicKey, bool) {
	h := sha256.New()
	for _, s := range seeds {
		h.Write(s)
	}
	h.Write(program[:])
	h.Write([]byte(pdaMarker))
	var out solana.PublicKey
	copy(out[:], h.Sum(nil))
	if onCurve(out[:]) {
		return solana.PublicKey{}, false
	}
	return out, true
}

// AssociatedTokenAddress derives the associated token account of owner for
// mint under tokenProgram (legacy SPL or Token-2022).
func AssociatedTokenAddress(owner, mint, tokenProgram solana.PublicKey) (ProgramAddress, error) {
	return Derive([][]byte{owner[:], tokenProgram[:], mint[:]}, solana.SPLAssociatedTokenAccountProgramID)
}
