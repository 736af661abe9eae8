package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evotrade/trader/market"
)

func candlesFromCloses(closes ...float64) []market.Candle {
	out := make([]market.Candle, len(closes))
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out[i] = market.Candle{
			Date: base.Add(time.Duration(i) * time.Hour),
			Open: c, High: c + 1, Low: c - 1, Close: c,
		}
	}
	return out
}

func TestMA(t *testing.T) {
	t.Parallel()

	candles := candlesFromCloses(1, 2, 3, 4, 5)

	ma, err := MA(candles, 3)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, ma, 1e-9)

	ma, err = MA(candles, 5)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, ma, 1e-9)

	_, err = MA(candles, 6)
	assert.Error(t, err)
	_, err = MA(candles, 0)
	assert.Error(t, err)
}

func TestEMA(t *testing.T) {
	t.Parallel()

	candles := candlesFromCloses(10, 10, 10, 10)
	ema, err := EMA(candles, 3)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, ema, 1e-9, "constant series: EMA equals the level")

	// EMA leans toward recent values more than the SMA does.
	candles = candlesFromCloses(1, 1, 1, 1, 100)
	ema, err = EMA(candles, 4)
	require.NoError(t, err)
	sma, err := MA(candles, 4)
	require.NoError(t, err)
	assert.Greater(t, ema, sma)
}

func TestATRFuncWilder(t *testing.T) {
	t.Parallel()

	// Constant 2-point range, gapless: every true range is 2.
	candles := candlesFromCloses(10, 10, 10, 10, 10)
	atr, err := ATRFunc(candles, 3)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, atr, 1e-9)

	_, err = ATRFunc(candles[:3], 3)
	assert.Error(t, err, "needs period+1 candles")
	_, err = ATRFunc(candles, 0)
	assert.Error(t, err)
}

func TestATRFuncGapsCountTowardRange(t *testing.T) {
	t.Parallel()

	candles := []market.Candle{
		{High: 11, Low: 9, Close: 10},
		{High: 21, Low: 19, Close: 20}, // gap up: TR = |21-10| = 11
	}
	atr, err := ATRFunc(candles, 1)
	require.NoError(t, err)
	assert.InDelta(t, 11.0, atr, 1e-9)
}

func TestStreamingATRMatchesBatch(t *testing.T) {
	t.Parallel()

	candles := candlesFromCloses(10, 12, 11, 14, 13, 15, 16, 14)
	period := 3

	want, err := ATRFunc(candles, period)
	require.NoError(t, err)

	a := NewATR(period)
	for _, c := range candles {
		a.Update(c)
	}
	require.True(t, a.Ready())
	assert.InDelta(t, want, a.Value(), 1e-9)

	a.Reset()
	assert.False(t, a.Ready())
	assert.Equal(t, 0.0, a.Value())
}

func TestMASeriesAlignment(t *testing.T) {
	t.Parallel()

	candles := candlesFromCloses(1, 2, 3, 4)
	series := MASeries(candles, 2)

	require.Len(t, series, len(candles))
	assert.Equal(t, 0.0, series[0], "warmup bars hold zero")
	assert.InDelta(t, 1.5, series[1], 1e-9)
	assert.InDelta(t, 2.5, series[2], 1e-9)
	assert.InDelta(t, 3.5, series[3], 1e-9)
}

func TestATRSeriesAlignment(t *testing.T) {
	t.Parallel()

	candles := candlesFromCloses(10, 10, 10, 10, 10)
	series := ATRSeries(candles, 2)

	require.Len(t, series, len(candles))
	assert.Equal(t, 0.0, series[0])
	assert.Equal(t, 0.0, series[1], "TR needs a previous bar, ATR needs period TRs")
	assert.InDelta(t, 2.0, series[2], 1e-9)
	assert.InDelta(t, 2.0, series[4], 1e-9)
}
