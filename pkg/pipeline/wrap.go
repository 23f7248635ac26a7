package pipeline

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"go.uber.org/zap"
	"interactdapp/pkg/program"
)

// WrapSol moves lamports into the payer's wrapped SOL account, creating it
// when needed, and syncs the token balance.
func (c *Client) WrapSol(ctx context.Context, lamports uint64) (solana.Signature, error) {
	if lamports == 0 {
		return solana.Signature{}, fmt.Errorf("wrap sol: %w", ErrInvalidAmount)
	}

	create, wsol, err := program.NewCreateIdempotentATAInstruction(c.payer, c.payer, program.NativeMint, solana.TokenProgramID)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("wrap sol: %w", err)
	}

	instructions := []solana.Instruction{
		create,
		system.NewTransferInstruction(lamports, c.payer, wsol).Build(),
		token.NewSyncNativeInstruction(wsol).Build(),
	}

	c.logger.Info("wrapping sol", zap.Uint64("lamports", lamports), zap.Stringer("account", wsol))
	return c.submit(ctx, "wrap sol", instructions)
}
