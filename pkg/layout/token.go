package layout

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const (
	// TokenAccountSize is the size of an SPL token account without extensions.
	TokenAccountSize = 165
	// MintSize is the size of an SPL mint without extensions.
	MintSize = 82

	tokenAmountOffset  = 64
	mintDecimalsOffset = 44
)

// TokenAccountLayout covers the integer fields of an SPL token account.
var TokenAccountLayout = Table{
	"amount": {Offset: tokenAmountOffset, Width: Width64},
}

// MintLayout covers the integer fields of an SPL mint.
var MintLayout = Table{
	"decimals": {Offset: mintDecimalsOffset, Width: Width8},
}

// TokenAccountView is the prefix of an SPL token account: mint(32) | owner(32) | amount(8).
type TokenAccountView struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

func DecodeTokenAccount(data []byte) (TokenAccountView, error) {
	v, err := Decode(data, TokenAccountLayout)
	if err != nil {
		return TokenAccountView{}, fmt.Errorf("decode token account: %w", err)
	}
	return TokenAccountView{
		Mint:   solana.PublicKeyFromBytes(data[0:32]),
		Owner:  solana.PublicKeyFromBytes(data[32:64]),
		Amount: uint64(v["amount"]),
	}, nil
}

// MintView exposes the mint fields the client needs.
type MintView struct {
	Decimals uint8
}

func DecodeMint(data []byte) (MintView, error) {
	v, err := Decode(data, MintLayout)
	if err != nil {
		return MintView{}, fmt.Errorf("decode mint: %w", err)
	}
	return MintView{Decimals: uint8(v["decimals"])}, nil
}
