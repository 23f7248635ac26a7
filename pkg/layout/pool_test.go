package layout

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func poolBuffer(tickSpacing uint16, tickCurrent int32) []byte {
	buf := make([]byte, 1544)
	defaultRange := int32(-10)
	binary.LittleEndian.PutUint16(buf[223:], 2500)
	binary.LittleEndian.PutUint16(buf[227:], tickSpacing)
	binary.LittleEndian.PutUint32(buf[229:], uint32(defaultRange))
	binary.LittleEndian.PutUint32(buf[233:], 7)
	binary.LittleEndian.PutUint32(buf[237:], 9)
	binary.LittleEndian.PutUint32(buf[261:], uint32(tickCurrent))
	return buf
}

func TestDecodePoolAccount(t *testing.T) {
	view, err := DecodePoolAccount(poolBuffer(10, -100))
	require.NoError(t, err)
	assert.Equal(t, uint16(10), view.TickSpacing)
	assert.Equal(t, int32(-100), view.TickCurrent)
	assert.Equal(t, uint16(2500), view.TradeFeeRate)
	assert.Equal(t, int32(-10), view.DefaultRange)
	assert.Equal(t, [2]int32{7, 9}, view.DefaultRangePoint)
}

func TestDecodePoolAccountShort(t *testing.T) {
	_, err := DecodePoolAccount(make([]byte, 262))
	require.ErrorIs(t, err, ErrBufferTooShort)
	assert.ErrorContains(t, err, FieldTickCurrent)
}

func TestDecodePoolTicks(t *testing.T) {
	spacing, tick, err := DecodePoolTicks(poolBuffer(60, 12345))
	require.NoError(t, err)
	assert.Equal(t, uint16(60), spacing)
	assert.Equal(t, int32(12345), tick)
	assert.Equal(t, 265, ClmmPoolLayoutV1.Size())
}

// raydiumPoolBuffer lays out the deployed PoolState prefix.
func raydiumPoolBuffer(tickSpacing uint16, tickCurrent int32) []byte {
	buf := make([]byte, 1544)
	buf[233] = 9
	buf[234] = 6
	binary.LittleEndian.PutUint16(buf[235:], tickSpacing)
	binary.LittleEndian.PutUint32(buf[269:], uint32(tickCurrent))
	return buf
}

func TestDecodePoolTicksV2(t *testing.T) {
	buf := raydiumPoolBuffer(60, -1234)

	spacing, tick, err := DecodePoolTicksWith(buf, ClmmPoolLayoutV2)
	require.NoError(t, err)
	assert.Equal(t, uint16(60), spacing)
	assert.Equal(t, int32(-1234), tick)

	// the same bytes read with the script offsets give garbage
	spacing, _, err = DecodePoolTicks(buf)
	require.NoError(t, err)
	assert.NotEqual(t, uint16(60), spacing)

	view, err := DecodePoolAccountWith(buf, ClmmPoolLayoutV2)
	require.NoError(t, err)
	assert.Equal(t, [2]uint8{9, 6}, view.MintDecimals)
	assert.Equal(t, uint16(60), view.TickSpacing)
	assert.Equal(t, int32(-1234), view.TickCurrent)
	assert.Zero(t, view.TradeFeeRate)
}

func TestDecodePoolTicksWithShortBuffer(t *testing.T) {
	_, _, err := DecodePoolTicksWith(make([]byte, 272), ClmmPoolLayoutV2)
	assert.ErrorIs(t, err, ErrBufferTooShort)

	_, _, err = DecodePoolTicksWith(make([]byte, 273), ClmmPoolLayoutV2)
	assert.NoError(t, err)

	_, _, err = DecodePoolTicksWith(make([]byte, 512), Table{FieldTickSpacing: {Offset: 0, Width: Width16}})
	assert.ErrorContains(t, err, FieldTickCurrent)
}

func TestPoolLayoutByVersion(t *testing.T) {
	v1, err := PoolLayoutByVersion(PoolLayoutV1)
	require.NoError(t, err)
	assert.Equal(t, ClmmPoolLayoutV1, v1)

	v2, err := PoolLayoutByVersion(PoolLayoutV2)
	require.NoError(t, err)
	assert.Equal(t, ClmmPoolLayoutV2, v2)
	assert.NoError(t, v2.Validate())

	_, err = PoolLayoutByVersion("v3")
	assert.Error(t, err)
}

func TestDecodeTokenAccountLargeAmount(t *testing.T) {
	data := make([]byte, TokenAccountSize)
	binary.LittleEndian.PutUint64(data[64:72], math.MaxUint64-1)

	view, err := DecodeTokenAccount(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64-1), view.Amount)
}

func TestDecodeTokenAccount(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	data := make([]byte, TokenAccountSize)
	copy(data[0:32], mint[:])
	copy(data[32:64], owner[:])
	binary.LittleEndian.PutUint64(data[64:72], 1_500_000)

	view, err := DecodeTokenAccount(data)
	require.NoError(t, err)
	assert.Equal(t, mint, view.Mint)
	assert.Equal(t, owner, view.Owner)
	assert.Equal(t, uint64(1_500_000), view.Amount)

	_, err = DecodeTokenAccount(data[:70])
	assert.ErrorIs(t, err, ErrBufferTooShort)
}

func TestDecodeMint(t *testing.T) {
	data := make([]byte, MintSize)
	data[44] = 9
	view, err := DecodeMint(data)
	require.NoError(t, err)
	assert.Equal(t, uint8(9), view.Decimals)
}
