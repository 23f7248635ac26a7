package subscription

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"interactdapp/pkg/layout"
	"interactdapp/pkg/pipeline"
)

func poolData(tickSpacing uint16, tickCurrent int32) []byte {
	buf := make([]byte, layout.ClmmPoolLayoutV2.Size())
	binary.LittleEndian.PutUint16(buf[235:], tickSpacing)
	binary.LittleEndian.PutUint32(buf[269:], uint32(tickCurrent))
	return buf
}

type mapFetcher map[solana.PublicKey][]byte

func (m mapFetcher) GetAccountData(_ context.Context, account solana.PublicKey) ([]byte, error) {
	data, ok := m[account]
	if !ok {
		return nil, pipeline.ErrAccountNotFound
	}
	return data, nil
}

func TestPoolCacheUpdate(t *testing.T) {
	cache := NewPoolCache(nil)
	pool := solana.NewWallet().PublicKey()

	entry, applied, err := cache.UpdatePoolAccount(pool, poolData(10, -100), 7)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, uint16(10), entry.TickSpacing)
	assert.Equal(t, int32(-100), entry.TickCurrent)
	assert.Equal(t, uint64(7), entry.LastSlot)

	_, applied, err = cache.UpdatePoolAccount(pool, poolData(10, 500), 6)
	require.NoError(t, err)
	assert.False(t, applied)

	got, ok := cache.GetPoolEntry(pool)
	require.True(t, ok)
	assert.Equal(t, int32(-100), got.TickCurrent)
	assert.Equal(t, 1, cache.Size())
}

func TestPoolCacheRejectsShortData(t *testing.T) {
	cache := NewPoolCache(nil)
	_, _, err := cache.UpdatePoolAccount(solana.NewWallet().PublicKey(), make([]byte, 100), 1)
	assert.Error(t, err)
	assert.Equal(t, 0, cache.Size())
}

func TestPoolCacheEntryIsCopy(t *testing.T) {
	cache := NewPoolCache(nil)
	pool := solana.NewWallet().PublicKey()
	_, _, err := cache.UpdatePoolAccount(pool, poolData(1, 0), 1)
	require.NoError(t, err)

	entry, _ := cache.GetPoolEntry(pool)
	entry.Data[0] = 0xff

	again, _ := cache.GetPoolEntry(pool)
	assert.Equal(t, byte(0), again.Data[0])
}

func TestPoolCacheGetAccountData(t *testing.T) {
	cached := solana.NewWallet().PublicKey()
	remote := solana.NewWallet().PublicKey()
	missing := solana.NewWallet().PublicKey()

	cache := NewPoolCache(mapFetcher{remote: {1, 2, 3}})
	_, _, err := cache.UpdatePoolAccount(cached, poolData(60, 1), 1)
	require.NoError(t, err)

	data, err := cache.GetAccountData(context.Background(), cached)
	require.NoError(t, err)
	assert.Len(t, data, 265)

	data, err = cache.GetAccountData(context.Background(), remote)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	_, err = cache.GetAccountData(context.Background(), missing)
	assert.ErrorIs(t, err, pipeline.ErrAccountNotFound)

	_, err = NewPoolCache(nil).GetAccountData(context.Background(), missing)
	assert.ErrorIs(t, err, pipeline.ErrAccountNotFound)
}

func TestPoolCacheStaleAndClear(t *testing.T) {
	cache := NewPoolCache(nil)
	pool := solana.NewWallet().PublicKey()
	_, _, err := cache.UpdatePoolAccount(pool, poolData(1, 0), 1)
	require.NoError(t, err)

	assert.Empty(t, cache.GetStalePools(time.Hour))
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, []solana.PublicKey{pool}, cache.GetStalePools(time.Millisecond))

	cache.RemovePool(pool)
	assert.Equal(t, 0, cache.Size())

	_, _, err = cache.UpdatePoolAccount(pool, poolData(1, 0), 1)
	require.NoError(t, err)
	cache.Clear()
	assert.Equal(t, 0, cache.Size())
}

func TestPoolCacheScriptLayout(t *testing.T) {
	cache := NewPoolCache(nil, WithPoolLayout(layout.ClmmPoolLayoutV1))
	buf := make([]byte, layout.ClmmPoolLayoutV1.Size())
	binary.LittleEndian.PutUint16(buf[227:], 8)
	tickCurrent := int32(-7)
	binary.LittleEndian.PutUint32(buf[261:], uint32(tickCurrent))

	entry, applied, err := cache.UpdatePoolAccount(solana.NewWallet().PublicKey(), buf, 1)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, uint16(8), entry.TickSpacing)
	assert.Equal(t, int32(-7), entry.TickCurrent)
}
