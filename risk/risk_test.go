package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evotrade/trader/config"
	"github.com/evotrade/trader/market"
)

var unitSymbol = config.SymbolInfo{PointValue: 1, ContractSize: 1}

func bars(ohlc ...[4]float64) []market.Candle {
	out := make([]market.Candle, len(ohlc))
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, b := range ohlc {
		out[i] = market.Candle{
			Date: base.Add(time.Duration(i) * time.Hour),
			Open: b[0], High: b[1], Low: b[2], Close: b[3],
		}
	}
	return out
}

func TestStopLossPricePoints(t *testing.T) {
	t.Parallel()

	cfg := config.StopConfig{Kind: config.StopPoints, Points: 5}

	sl, prov := StopLossPrice(cfg, market.Long, 100, unitSymbol, nil)
	require.False(t, prov)
	assert.Equal(t, 95.0, sl)

	sl, prov = StopLossPrice(cfg, market.Short, 100, unitSymbol, nil)
	require.False(t, prov)
	assert.Equal(t, 105.0, sl)

	// Point value scales the distance.
	fx := config.SymbolInfo{PointValue: 0.0001, ContractSize: 100000}
	sl, _ = StopLossPrice(config.StopConfig{Kind: config.StopPoints, Points: 50}, market.Long, 1.1000, fx, nil)
	assert.InDelta(t, 1.0950, sl, 1e-9)
}

func TestStopLossPricePercent(t *testing.T) {
	t.Parallel()

	cfg := config.StopConfig{Kind: config.StopPercent, Percent: 0.02}

	sl, prov := StopLossPrice(cfg, market.Long, 200, unitSymbol, nil)
	require.False(t, prov)
	assert.InDelta(t, 196.0, sl, 1e-9)

	sl, _ = StopLossPrice(cfg, market.Short, 200, unitSymbol, nil)
	assert.InDelta(t, 204.0, sl, 1e-9)
}

func TestStopLossPriceExtremum(t *testing.T) {
	t.Parallel()

	cfg := config.StopConfig{Kind: config.StopExtremum, Lookback: 3}
	history := bars(
		[4]float64{100, 102, 97, 101},
		[4]float64{101, 104, 99, 103},
		[4]float64{103, 105, 98, 104},
		[4]float64{104, 106, 100, 105},
	)

	// Long stop sits at the lowest low of the last 3 bars.
	sl, prov := StopLossPrice(cfg, market.Long, 105, unitSymbol, history)
	require.False(t, prov)
	assert.Equal(t, 98.0, sl)

	// Short stop sits at the highest high.
	sl, prov = StopLossPrice(cfg, market.Short, 105, unitSymbol, history)
	require.False(t, prov)
	assert.Equal(t, 106.0, sl)

	// Lookback longer than history: provisional, best effort.
	sl, prov = StopLossPrice(cfg, market.Long, 105, unitSymbol, history[:2])
	assert.True(t, prov)
	assert.Equal(t, 97.0, sl)
}

func TestStopLossPriceATR(t *testing.T) {
	t.Parallel()

	cfg := config.StopConfig{Kind: config.StopATR, ATRPeriod: 2, ATRMultiplier: 2}
	// True ranges of 4 each bar: ATR 4, stop distance 8.
	history := bars(
		[4]float64{100, 102, 98, 100},
		[4]float64{100, 102, 98, 100},
		[4]float64{100, 102, 98, 100},
	)

	sl, prov := StopLossPrice(cfg, market.Long, 100, unitSymbol, history)
	require.False(t, prov)
	assert.InDelta(t, 92.0, sl, 1e-9)

	// Too little history for the period: degraded and provisional.
	_, prov = StopLossPrice(cfg, market.Long, 100, unitSymbol, history[:2])
	assert.True(t, prov)

	_, prov = StopLossPrice(cfg, market.Long, 100, unitSymbol, history[:1])
	assert.True(t, prov)
}

func TestTakeProfitPriceMirrors(t *testing.T) {
	t.Parallel()

	cfg := config.StopConfig{Kind: config.StopPoints, Points: 10}

	tp, prov := TakeProfitPrice(cfg, market.Long, 100, unitSymbol, nil)
	require.False(t, prov)
	assert.Equal(t, 110.0, tp)

	tp, _ = TakeProfitPrice(cfg, market.Short, 100, unitSymbol, nil)
	assert.Equal(t, 90.0, tp)

	// Extremum take-profit targets the favorable extreme.
	history := bars(
		[4]float64{100, 108, 97, 101},
		[4]float64{101, 104, 96, 103},
	)
	tp, prov = TakeProfitPrice(config.StopConfig{Kind: config.StopExtremum, Lookback: 2}, market.Long, 101, unitSymbol, history)
	require.False(t, prov)
	assert.Equal(t, 108.0, tp)
}

func TestTrailingStopPoints(t *testing.T) {
	t.Parallel()

	cfg := config.TrailingConfig{Kind: config.TrailingPoints, ActivationPoints: 2, DistancePoints: 1}

	// Below activation: inactive.
	_, active := TrailingStop(cfg, market.Long, 100, 101.5, unitSymbol)
	assert.False(t, active)

	candidate, active := TrailingStop(cfg, market.Long, 100, 103, unitSymbol)
	require.True(t, active)
	assert.Equal(t, 102.0, candidate)

	candidate, active = TrailingStop(cfg, market.Short, 100, 97, unitSymbol)
	require.True(t, active)
	assert.Equal(t, 98.0, candidate)
}

func TestTrailingStopPercent(t *testing.T) {
	t.Parallel()

	cfg := config.TrailingConfig{Kind: config.TrailingPercent, ActivationPercent: 0.02, DistancePercent: 0.01}

	_, active := TrailingStop(cfg, market.Long, 100, 101, unitSymbol)
	assert.False(t, active)

	candidate, active := TrailingStop(cfg, market.Long, 100, 104, unitSymbol)
	require.True(t, active)
	assert.InDelta(t, 102.96, candidate, 1e-9)
}

func TestImproves(t *testing.T) {
	t.Parallel()

	assert.True(t, Improves(market.Long, 102, 95))
	assert.False(t, Improves(market.Long, 95, 102))
	assert.False(t, Improves(market.Long, 102, 102))
	assert.True(t, Improves(market.Short, 98, 105))
	assert.False(t, Improves(market.Short, 105, 98))
}

func TestPositionSize(t *testing.T) {
	t.Parallel()

	base := SizeInputs{
		Balance:        10000,
		RiskPerTrade:   0.02,
		EntryPrice:     100,
		StopPrice:      95,
		ContractSize:   1,
		MinLot:         1,
		MaxLot:         100,
		LotStep:        1,
		QuoteToAccount: 1,
	}

	// 200 at risk over a 5-point stop: 40 lots.
	assert.Equal(t, 40.0, PositionSize(base))

	// Rounded down to the lot step.
	in := base
	in.RiskPerTrade = 0.021
	assert.Equal(t, 42.0, PositionSize(in))

	// Clamped to the maximum lot.
	in = base
	in.MaxLot = 25
	assert.Equal(t, 25.0, PositionSize(in))

	// Below the minimum lot: no trade.
	in = base
	in.RiskPerTrade = 0.0001
	assert.Equal(t, 0.0, PositionSize(in))

	// Degenerate inputs produce zero, never a panic or negative size.
	in = base
	in.StopPrice = in.EntryPrice
	assert.Equal(t, 0.0, PositionSize(in))
	in = base
	in.Balance = 0
	assert.Equal(t, 0.0, PositionSize(in))
}
