package subscription

import (
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"interactdapp/pkg/clmm"
)

type accountSubscriber interface {
	SubscribeAccount(account solana.PublicKey, handler AccountUpdateHandler) (uint64, error)
	Unsubscribe(id uint64) error
	IsConnected() bool
}

// TickArrayUpdate is emitted when a pool's current tick moves into a
// different tick array.
type TickArrayUpdate struct {
	Pool        solana.PublicKey
	Slot        uint64
	TickSpacing uint16
	TickCurrent int32
	StartIndex  int32
	TickArray   solana.PublicKey
}

// TickArrayHandler is called when a watched pool changes tick array
type TickArrayHandler func(update TickArrayUpdate)

// SubscriptionManager watches CLMM pool accounts and keeps the pool cache and
// each pool's current tick array up to date.
type SubscriptionManager struct {
	wsClient      accountSubscriber
	poolCache     *PoolCache
	clmmProgram   solana.PublicKey
	subscriptions map[solana.PublicKey]uint64 // pool -> subscription ID
	handlers      map[solana.PublicKey]TickArrayHandler
	lastStart     map[solana.PublicKey]int32
	mu            sync.RWMutex
	logger        *zap.Logger
}

// NewSubscriptionManager creates a new subscription manager
func NewSubscriptionManager(wsClient accountSubscriber, poolCache *PoolCache, clmmProgram solana.PublicKey, logger *zap.Logger) *SubscriptionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriptionManager{
		wsClient:      wsClient,
		poolCache:     poolCache,
		clmmProgram:   clmmProgram,
		subscriptions: make(map[solana.PublicKey]uint64),
		handlers:      make(map[solana.PublicKey]TickArrayHandler),
		lastStart:     make(map[solana.PublicKey]int32),
		logger:        logger,
	}
}

// SubscribePool subscribes to updates for a pool. handler may be nil.
func (sm *SubscriptionManager) SubscribePool(pool solana.PublicKey, handler TickArrayHandler) error {
	sm.mu.Lock()
	if _, exists := sm.subscriptions[pool]; exists {
		sm.mu.Unlock()
		return nil
	}
	if handler != nil {
		sm.handlers[pool] = handler
	}
	sm.mu.Unlock()

	subID, err := sm.wsClient.SubscribeAccount(pool, sm.handleAccountUpdate)
	if err != nil {
		sm.mu.Lock()
		delete(sm.handlers, pool)
		sm.mu.Unlock()
		return fmt.Errorf("subscribe pool %s: %w", pool, err)
	}

	sm.mu.Lock()
	sm.subscriptions[pool] = subID
	sm.mu.Unlock()

	sm.logger.Info("subscribed to pool", zap.Stringer("pool", pool), zap.Uint64("subID", subID))
	return nil
}

// UnsubscribePool stops watching a pool and drops it from the cache
func (sm *SubscriptionManager) UnsubscribePool(pool solana.PublicKey) error {
	sm.mu.Lock()
	subID, exists := sm.subscriptions[pool]
	delete(sm.subscriptions, pool)
	delete(sm.handlers, pool)
	delete(sm.lastStart, pool)
	sm.mu.Unlock()

	sm.poolCache.RemovePool(pool)
	if !exists {
		return nil
	}
	return sm.wsClient.Unsubscribe(subID)
}

// handleAccountUpdate processes account updates from WebSocket
func (sm *SubscriptionManager) handleAccountUpdate(pool solana.PublicKey, data []byte, slot uint64) {
	entry, applied, err := sm.poolCache.UpdatePoolAccount(pool, data, slot)
	if err != nil {
		sm.logger.Warn("failed to update pool", zap.Stringer("pool", pool), zap.Error(err))
		return
	}
	if !applied {
		return
	}

	start, err := clmm.TickArrayStart(entry.TickCurrent, entry.TickSpacing)
	if err != nil {
		sm.logger.Warn("invalid pool ticks", zap.Stringer("pool", pool), zap.Error(err))
		return
	}

	sm.mu.Lock()
	last, seen := sm.lastStart[pool]
	sm.lastStart[pool] = start
	handler := sm.handlers[pool]
	sm.mu.Unlock()

	if seen && last == start {
		return
	}

	tickArray, err := clmm.TickArrayAddress(pool, start, sm.clmmProgram)
	if err != nil {
		sm.logger.Warn("derive tick array", zap.Stringer("pool", pool), zap.Error(err))
		return
	}

	sm.logger.Debug("tick array changed",
		zap.Stringer("pool", pool),
		zap.Int32("startIndex", start),
		zap.Stringer("tickArray", tickArray.Address))

	if handler != nil {
		handler(TickArrayUpdate{
			Pool:        pool,
			Slot:        slot,
			TickSpacing: entry.TickSpacing,
			TickCurrent: entry.TickCurrent,
			StartIndex:  start,
			TickArray:   tickArray.Address,
		})
	}
}

// Close unsubscribes from all pools
func (sm *SubscriptionManager) Close() error {
	sm.mu.RLock()
	pools := make([]solana.PublicKey, 0, len(sm.subscriptions))
	for pool := range sm.subscriptions {
		pools = append(pools, pool)
	}
	sm.mu.RUnlock()

	var firstErr error
	for _, pool := range pools {
		if err := sm.UnsubscribePool(pool); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Stats returns subscription statistics
func (sm *SubscriptionManager) Stats() map[string]interface{} {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return map[string]interface{}{
		"subscriptions": len(sm.subscriptions),
		"cachedPools":   sm.poolCache.Size(),
		"connected":     sm.wsClient.IsConnected(),
		"timestamp":     time.Now().Format(time.RFC3339),
	}
}
