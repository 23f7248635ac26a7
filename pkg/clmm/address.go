package clmm

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"interactdapp/pkg/pda"
)

// AmmConfigAddress derives the config account for a fee tier index.
func AmmConfigAddress(index uint16, program solana.PublicKey) (pda.ProgramAddress, error) {
	idx := make([]byte, 2)
	binary.BigEndian.PutUint16(idx, index)
	return pda.DeriveRole(pda.SeedAmmConfig, program, idx)
}

// PoolAddress derives the pool state account. The program requires
// mint0 < mint1; use SortMints first when the order is unknown.
func PoolAddress(ammConfig, mint0, mint1, program solana.PublicKey) (pda.ProgramAddress, error) {
	return pda.DeriveRole(pda.SeedPool, program, ammConfig.Bytes(), mint0.Bytes(), mint1.Bytes())
}

func PoolVaultAddress(pool, mint, program solana.PublicKey) (pda.ProgramAddress, error) {
	return pda.DeriveRole(pda.SeedPoolVault, program, pool.Bytes(), mint.Bytes())
}

func ObservationAddress(pool, program solana.PublicKey) (pda.ProgramAddress, error) {
	return pda.DeriveRole(pda.SeedObservation, program, pool.Bytes())
}

// TickArrayAddress derives the tick array starting at startIndex. The index
// is encoded big-endian.
func TickArrayAddress(pool solana.PublicKey, startIndex int32, program solana.PublicKey) (pda.ProgramAddress, error) {
	idx := make([]byte, 4)
	binary.BigEndian.PutUint32(idx, uint32(startIndex))
	return pda.DeriveRole(pda.SeedTickArray, program, pool.Bytes(), idx)
}

func TickArrayBitmapExtensionAddress(pool, program solana.PublicKey) (pda.ProgramAddress, error) {
	return pda.DeriveRole(pda.SeedTickArrayBitmapExtension, program, pool.Bytes())
}

// SortMints orders two mints the way the pool seeds expect.
func SortMints(a, b solana.PublicKey) (mint0, mint1 solana.PublicKey) {
	if bytes.Compare(a[:], b[:]) < 0 {
		return a, b
	}
	return b, a
}

// PoolKeys are the addresses a swap through one pool needs.
type PoolKeys struct {
	AmmConfig   solana.PublicKey
	Pool        solana.PublicKey
	Mint0       solana.PublicKey
	Mint1       solana.PublicKey
	Vault0      solana.PublicKey
	Vault1      solana.PublicKey
	Observation solana.PublicKey
	BitmapExt   solana.PublicKey
}

// VaultFor returns the pool vault holding mint.
func (k PoolKeys) VaultFor(mint solana.PublicKey) (solana.PublicKey, error) {
	switch {
	case mint.Equals(k.Mint0):
		return k.Vault0, nil
	case mint.Equals(k.Mint1):
		return k.Vault1, nil
	}
	return solana.PublicKey{}, fmt.Errorf("mint %s is not in pool %s", mint, k.Pool)
}

// DerivePoolKeys derives every static account of the pool for a config
// index and an unordered mint pair.
func DerivePoolKeys(configIndex uint16, mintA, mintB, program solana.PublicKey) (PoolKeys, error) {
	cfg, err := AmmConfigAddress(configIndex, program)
	if err != nil {
		return PoolKeys{}, fmt.Errorf("amm config: %w", err)
	}
	mint0, mint1 := SortMints(mintA, mintB)
	pool, err := PoolAddress(cfg.Address, mint0, mint1, program)
	if err != nil {
		return PoolKeys{}, fmt.Errorf("pool: %w", err)
	}
	vault0, err := PoolVaultAddress(pool.Address, mint0, program)
	if err != nil {
		return PoolKeys{}, fmt.Errorf("vault0: %w", err)
	}
	vault1, err := PoolVaultAddress(pool.Address, mint1, program)
	if err != nil {
		return PoolKeys{}, fmt.Errorf("vault1: %w", err)
	}
	obs, err := ObservationAddress(pool.Address, program)
	if err != nil {
		return PoolKeys{}, fmt.Errorf("observation: %w", err)
	}
	ext, err := TickArrayBitmapExtensionAddress(pool.Address, program)
	if err != nil {
		return PoolKeys{}, fmt.Errorf("bitmap extension: %w", err)
	}
	return PoolKeys{
		AmmConfig:   cfg.Address,
		Pool:        pool.Address,
		Mint0:       mint0,
		Mint1:       mint1,
		Vault0:      vault0.Address,
		Vault1:      vault1.Address,
		Observation: obs.Address,
		BitmapExt:   ext.Address,
	}, nil
}
