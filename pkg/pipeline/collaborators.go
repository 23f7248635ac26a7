package pipeline

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

// ErrAccountNotFound is returned by an AccountFetcher when the address holds
// no account.
var ErrAccountNotFound = errors.New("account not found")

// AccountFetcher reads raw account data.
type AccountFetcher interface {
	GetAccountData(ctx context.Context, account solana.PublicKey) ([]byte, error)
}

// Submitter signs and sends instructions as one transaction.
type Submitter interface {
	Submit(ctx context.Context, instructions []solana.Instruction) (solana.Signature, error)
}

// Confirmer blocks until a submitted transaction is confirmed.
type Confirmer interface {
	WaitForSignature(ctx context.Context, signature solana.Signature) error
}
