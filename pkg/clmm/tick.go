package clmm

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidTickSpacing = errors.New("tick spacing must be positive")
	ErrTickOutOfRange     = errors.New("tick array start out of range")
)

// TickArrayWidth is the number of ticks covered by one tick array.
func TickArrayWidth(tickSpacing uint16) int64 {
	return int64(tickSpacing) * TICK_ARRAY_SIZE
}

// TickArrayStart returns the start index of the tick array containing
// tickCurrent. The division floors toward negative infinity, so
// TickArrayStart(-100, 10) is -880, not 0.
func TickArrayStart(tickCurrent int32, tickSpacing uint16) (int32, error) {
	if tickSpacing == 0 {
		return 0, ErrInvalidTickSpacing
	}
	width := TickArrayWidth(tickSpacing)
	tick := int64(tickCurrent)

	q := tick / width
	if tick%width != 0 && tick < 0 {
		q--
	}
	start := q * width
	if start < math.MinInt32 || start > math.MaxInt32 {
		return 0, fmt.Errorf("%w: tick %d spacing %d", ErrTickOutOfRange, tickCurrent, tickSpacing)
	}
	return int32(start), nil
}

// TickArrayStarts returns count consecutive tick array starts beginning with
// the array holding tickCurrent and walking in the swap direction. A
// zeroForOne swap moves the price down, so it walks toward lower ticks.
func TickArrayStarts(tickCurrent int32, tickSpacing uint16, zeroForOne bool, count int) ([]int32, error) {
	if count < 1 {
		return nil, fmt.Errorf("tick array count %d: must be at least 1", count)
	}
	first, err := TickArrayStart(tickCurrent, tickSpacing)
	if err != nil {
		return nil, err
	}
	width := TickArrayWidth(tickSpacing)
	step := width
	if !zeroForOne {
		step = -width
	}

	starts := make([]int32, 0, count)
	next := int64(first)
	for i := 0; i < count; i++ {
		// stop once the array no longer overlaps [MIN_TICK, MAX_TICK]
		if next+width <= MIN_TICK || next > MAX_TICK {
			break
		}
		starts = append(starts, int32(next))
		next -= step
	}
	return starts, nil
}
