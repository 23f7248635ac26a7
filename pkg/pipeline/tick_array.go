package pipeline

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"interactdapp/pkg/clmm"
	"interactdapp/pkg/layout"
)

// TickArray is the tick array holding a pool's current tick.
type TickArray struct {
	Pool        solana.PublicKey
	TickSpacing uint16
	TickCurrent int32
	StartIndex  int32
	Address     solana.PublicKey
	Bump        uint8
}

// ResolveTickArray fetches pool, decodes its tick spacing and current tick
// and derives the tick array that contains the current tick.
func (c *Client) ResolveTickArray(ctx context.Context, pool solana.PublicKey) (TickArray, error) {
	data, err := c.fetcher.GetAccountData(ctx, pool)
	if err != nil {
		return TickArray{}, fmt.Errorf("fetch pool %s: %w", pool, err)
	}

	tickSpacing, tickCurrent, err := layout.DecodePoolTicksWith(data, c.poolLayout)
	if err != nil {
		return TickArray{}, fmt.Errorf("decode pool %s: %w", pool, err)
	}

	start, err := clmm.TickArrayStart(tickCurrent, tickSpacing)
	if err != nil {
		return TickArray{}, fmt.Errorf("tick array start for pool %s: %w", pool, err)
	}

	addr, err := clmm.TickArrayAddress(pool, start, c.clmmProgram)
	if err != nil {
		return TickArray{}, fmt.Errorf("derive tick array for pool %s: %w", pool, err)
	}

	c.logger.Debug("resolved tick array",
		zap.Stringer("pool", pool),
		zap.Uint16("tickSpacing", tickSpacing),
		zap.Int32("tickCurrent", tickCurrent),
		zap.Int32("startIndex", start),
		zap.Stringer("tickArray", addr.Address))

	return TickArray{
		Pool:        pool,
		TickSpacing: tickSpacing,
		TickCurrent: tickCurrent,
		StartIndex:  start,
		Address:     addr.Address,
		Bump:        addr.Bump,
	}, nil
}
