package subscription

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"interactdapp/pkg/layout"
	"interactdapp/pkg/pipeline"
)

// PoolCacheEntry represents a cached pool account with metadata
type PoolCacheEntry struct {
	Data        []byte
	TickSpacing uint16
	TickCurrent int32
	LastUpdate  time.Time
	LastSlot    uint64
}

// PoolCache keeps the latest data of watched CLMM pool accounts. It serves
// reads from memory and falls back to another fetcher on a miss.
type PoolCache struct {
	pools    map[solana.PublicKey]*PoolCacheEntry
	fallback pipeline.AccountFetcher
	table    layout.Table
	mu       sync.RWMutex
}

type PoolCacheOption func(*PoolCache)

// WithPoolLayout sets the table used to decode pool updates. The default is
// layout.ClmmPoolLayoutV2.
func WithPoolLayout(table layout.Table) PoolCacheOption {
	return func(pc *PoolCache) { pc.table = table }
}

// NewPoolCache creates a new pool cache; fallback may be nil.
func NewPoolCache(fallback pipeline.AccountFetcher, opts ...PoolCacheOption) *PoolCache {
	pc := &PoolCache{
		pools:    make(map[solana.PublicKey]*PoolCacheEntry),
		fallback: fallback,
		table:    layout.ClmmPoolLayoutV2,
	}
	for _, opt := range opts {
		opt(pc)
	}
	return pc
}

// UpdatePoolAccount stores data for pool observed at slot. Updates older than
// the cached slot are ignored and reported with applied == false.
func (pc *PoolCache) UpdatePoolAccount(pool solana.PublicKey, data []byte, slot uint64) (entry PoolCacheEntry, applied bool, err error) {
	tickSpacing, tickCurrent, err := layout.DecodePoolTicksWith(data, pc.table)
	if err != nil {
		return PoolCacheEntry{}, false, fmt.Errorf("decode pool %s: %w", pool, err)
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()

	if existing, ok := pc.pools[pool]; ok && slot < existing.LastSlot {
		return existing.copy(), false, nil
	}

	updated := &PoolCacheEntry{
		Data:        append([]byte(nil), data...),
		TickSpacing: tickSpacing,
		TickCurrent: tickCurrent,
		LastUpdate:  time.Now(),
		LastSlot:    slot,
	}
	pc.pools[pool] = updated
	return updated.copy(), true, nil
}

// GetPoolEntry returns a copy of the cache entry for a pool
func (pc *PoolCache) GetPoolEntry(pool solana.PublicKey) (PoolCacheEntry, bool) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	entry, exists := pc.pools[pool]
	if !exists {
		return PoolCacheEntry{}, false
	}
	return entry.copy(), true
}

// GetAccountData serves account from the cache or the fallback fetcher.
func (pc *PoolCache) GetAccountData(ctx context.Context, account solana.PublicKey) ([]byte, error) {
	if entry, ok := pc.GetPoolEntry(account); ok {
		return entry.Data, nil
	}
	if pc.fallback == nil {
		return nil, fmt.Errorf("%s: %w", account, pipeline.ErrAccountNotFound)
	}
	return pc.fallback.GetAccountData(ctx, account)
}

// RemovePool removes a pool from the cache
func (pc *PoolCache) RemovePool(pool solana.PublicKey) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	delete(pc.pools, pool)
}

// Size returns the number of cached pools
func (pc *PoolCache) Size() int {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	return len(pc.pools)
}

// Clear removes all pools from the cache
func (pc *PoolCache) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.pools = make(map[solana.PublicKey]*PoolCacheEntry)
}

// GetStalePools returns pools that haven't been updated within maxAge
func (pc *PoolCache) GetStalePools(maxAge time.Duration) []solana.PublicKey {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	now := time.Now()
	stale := make([]solana.PublicKey, 0)

	for pool, entry := range pc.pools {
		if now.Sub(entry.LastUpdate) > maxAge {
			stale = append(stale, pool)
		}
	}

	return stale
}

func (e *PoolCacheEntry) copy() PoolCacheEntry {
	out := *e
	out.Data = append([]byte(nil), e.Data...)
	return out
}
