// Package pipeline composes address derivation, account decoding and
// instruction building into the fetch, decode, derive, build and submit flows
// the client runs against the interact_dapp program.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"interactdapp/pkg/clmm"
	"interactdapp/pkg/layout"
	"interactdapp/pkg/lending"
	"interactdapp/pkg/program"
)

var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Client runs the pipelines on behalf of payer.
type Client struct {
	fetcher   AccountFetcher
	submitter Submitter
	confirmer Confirmer
	payer     solana.PublicKey

	clmmProgram solana.PublicKey
	poolLayout  layout.Table
	market      lending.Params

	logger *zap.Logger
}

type Option func(*Client)

// WithConfirmer makes every submission wait for confirmation.
func WithConfirmer(confirmer Confirmer) Option {
	return func(c *Client) { c.confirmer = confirmer }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithClmmProgram overrides the Raydium CLMM program (e.g. devnet).
func WithClmmProgram(id solana.PublicKey) Option {
	return func(c *Client) { c.clmmProgram = id }
}

// WithPoolLayout sets the table used to read CLMM pool accounts. The default
// is layout.ClmmPoolLayoutV2.
func WithPoolLayout(table layout.Table) Option {
	return func(c *Client) { c.poolLayout = table }
}

// WithLendingMarket selects the Jupiter Lend market. The User field is
// ignored; the payer always acts as the user.
func WithLendingMarket(market lending.Params) Option {
	return func(c *Client) { c.market = market }
}

func New(fetcher AccountFetcher, submitter Submitter, payer solana.PublicKey, opts ...Option) *Client {
	c := &Client{
		fetcher:     fetcher,
		submitter:   submitter,
		payer:       payer,
		clmmProgram: clmm.RaydiumClmmProgramID,
		poolLayout:  layout.ClmmPoolLayoutV2,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type validator interface {
	Validate() error
}

// submit validates, sends and optionally confirms instructions.
func (c *Client) submit(ctx context.Context, op string, instructions []solana.Instruction) (solana.Signature, error) {
	for _, inst := range instructions {
		if v, ok := inst.(validator); ok {
			if err := v.Validate(); err != nil {
				return solana.Signature{}, fmt.Errorf("%s: validate: %w", op, err)
			}
		}
	}

	sig, err := c.submitter.Submit(ctx, instructions)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%s: submit: %w", op, err)
	}
	c.logger.Info("transaction submitted", zap.String("op", op), zap.Stringer("signature", sig))

	if c.confirmer != nil {
		if err := c.confirmer.WaitForSignature(ctx, sig); err != nil {
			return sig, fmt.Errorf("%s: confirm %s: %w", op, sig, err)
		}
	}
	return sig, nil
}

// ensureTokenAccount returns a create instruction when owner has no
// associated token account for mint yet.
func (c *Client) ensureTokenAccount(ctx context.Context, owner, mint, tokenProgram solana.PublicKey) ([]solana.Instruction, solana.PublicKey, error) {
	inst, ata, err := program.NewCreateIdempotentATAInstruction(c.payer, owner, mint, tokenProgram)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	_, err = c.fetcher.GetAccountData(ctx, ata)
	switch {
	case err == nil:
		return nil, ata, nil
	case errors.Is(err, ErrAccountNotFound):
		c.logger.Debug("creating token account", zap.Stringer("account", ata), zap.Stringer("mint", mint))
		return []solana.Instruction{inst}, ata, nil
	default:
		return nil, solana.PublicKey{}, fmt.Errorf("fetch token account %s: %w", ata, err)
	}
}
