package layout

import "fmt"

// Field names of the CLMM pool view.
const (
	FieldTradeFeeRate       = "trade_fee_rate"
	FieldProtocolFeeRate    = "protocol_fee_rate"
	FieldFundFeeRate        = "fund_fee_rate"
	FieldTickSpacing        = "tick_spacing"
	FieldDefaultRange       = "default_range"
	FieldDefaultRangePoint0 = "default_range_point_0"
	FieldDefaultRangePoint1 = "default_range_point_1"
	FieldTickCurrent        = "tick_current"
	FieldMintDecimals0      = "mint_decimals_0"
	FieldMintDecimals1      = "mint_decimals_1"
)

// Pool layout versions accepted by PoolLayoutByVersion.
const (
	PoolLayoutV1 = "v1"
	PoolLayoutV2 = "v2"
)

// ClmmPoolLayoutV1 is the set of pool-account offsets the swap scripts read.
// A program upgrade that moves these fields needs a new table version.
var ClmmPoolLayoutV1 = Table{
	FieldTradeFeeRate:       {Offset: 223, Width: Width16},
	FieldProtocolFeeRate:    {Offset: 225, Width: Width16},
	FieldFundFeeRate:        {Offset: 226, Width: Width16},
	FieldTickSpacing:        {Offset: 227, Width: Width16},
	FieldDefaultRange:       {Offset: 229, Width: Width32, Signed: true},
	FieldDefaultRangePoint0: {Offset: 233, Width: Width32, Signed: true},
	FieldDefaultRangePoint1: {Offset: 237, Width: Width32, Signed: true},
	FieldTickCurrent:        {Offset: 261, Width: Width32, Signed: true},
}

// ClmmPoolLayoutV2 follows the deployed Raydium PoolState, counting the
// 8-byte account discriminator: bump, amm_config, owner, both mints, both
// vaults and observation_key come first, then the mint decimals.
var ClmmPoolLayoutV2 = Table{
	FieldMintDecimals0: {Offset: 233, Width: Width8},
	FieldMintDecimals1: {Offset: 234, Width: Width8},
	FieldTickSpacing:   {Offset: 235, Width: Width16},
	FieldTickCurrent:   {Offset: 269, Width: Width32, Signed: true},
}

// PoolLayoutByVersion returns the pool table for version.
func PoolLayoutByVersion(version string) (Table, error) {
	switch version {
	case PoolLayoutV1:
		return ClmmPoolLayoutV1, nil
	case PoolLayoutV2:
		return ClmmPoolLayoutV2, nil
	default:
		return nil, fmt.Errorf("unknown pool layout %q", version)
	}
}

// PoolAccountView is a point-in-time snapshot of a CLMM pool account.
type PoolAccountView struct {
	TickSpacing       uint16
	TickCurrent       int32
	ProtocolFeeRate   uint16
	TradeFeeRate      uint16
	FundFeeRate       uint16
	DefaultRange      int32
	DefaultRangePoint [2]int32
	MintDecimals      [2]uint8
}

// DecodePoolAccount decodes buf with ClmmPoolLayoutV1.
func DecodePoolAccount(buf []byte) (PoolAccountView, error) {
	return DecodePoolAccountWith(buf, ClmmPoolLayoutV1)
}

// DecodePoolAccountWith decodes buf with table. Fields the table does not
// carry stay zero.
func DecodePoolAccountWith(buf []byte, table Table) (PoolAccountView, error) {
	v, err := Decode(buf, table)
	if err != nil {
		return PoolAccountView{}, fmt.Errorf("decode pool account: %w", err)
	}
	return PoolAccountView{
		TickSpacing:     uint16(v[FieldTickSpacing]),
		TickCurrent:     int32(v[FieldTickCurrent]),
		ProtocolFeeRate: uint16(v[FieldProtocolFeeRate]),
		TradeFeeRate:    uint16(v[FieldTradeFeeRate]),
		FundFeeRate:     uint16(v[FieldFundFeeRate]),
		DefaultRange:    int32(v[FieldDefaultRange]),
		DefaultRangePoint: [2]int32{
			int32(v[FieldDefaultRangePoint0]),
			int32(v[FieldDefaultRangePoint1]),
		},
		MintDecimals: [2]uint8{
			uint8(v[FieldMintDecimals0]),
			uint8(v[FieldMintDecimals1]),
		},
	}, nil
}

// DecodePoolTicks reads tick spacing and the current tick with ClmmPoolLayoutV1.
func DecodePoolTicks(buf []byte) (tickSpacing uint16, tickCurrent int32, err error) {
	return DecodePoolTicksWith(buf, ClmmPoolLayoutV1)
}

// DecodePoolTicksWith reads only the tick fields of table, so buf need not
// cover the rest of it.
func DecodePoolTicksWith(buf []byte, table Table) (tickSpacing uint16, tickCurrent int32, err error) {
	spacing, ok := table[FieldTickSpacing]
	if !ok {
		return 0, 0, fmt.Errorf("decode pool ticks: layout has no %s", FieldTickSpacing)
	}
	current, ok := table[FieldTickCurrent]
	if !ok {
		return 0, 0, fmt.Errorf("decode pool ticks: layout has no %s", FieldTickCurrent)
	}
	v, err := Decode(buf, Table{FieldTickSpacing: spacing, FieldTickCurrent: current})
	if err != nil {
		return 0, 0, fmt.Errorf("decode pool ticks: %w", err)
	}
	return uint16(v[FieldTickSpacing]), int32(v[FieldTickCurrent]), nil
}
