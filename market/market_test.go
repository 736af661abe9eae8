package market

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeframe(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Hour, H1.Duration())
	assert.Equal(t, 24*time.Hour, D1.Duration())
	assert.True(t, M5.Valid())
	assert.False(t, Timeframe("H7").Valid())
	assert.Equal(t, time.Duration(0), Timeframe("H7").Duration())
}

func TestSideString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "long", Long.String())
	assert.Equal(t, "short", Short.String())
}

func TestSnapshotAccessors(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	h1 := []Candle{{Date: now.Add(-time.Hour), Close: 1}, {Date: now, Close: 2}}
	snap := Snapshot{
		Time: now,
		Candles: map[Timeframe][]Candle{
			D1: {{Date: now, Close: 9}},
			M5: {{Date: now, Close: 7}},
			H1: h1,
		},
		Indicators: IndicatorsData{
			H1: {"rsi": {50}, "atr": {2}, "ma": {1.5}},
		},
	}

	cur, ok := snap.Current(H1)
	require.True(t, ok)
	assert.Equal(t, 2.0, cur.Close)

	_, ok = snap.Current(M15)
	assert.False(t, ok)

	assert.Equal(t, h1, snap.History(H1))
	assert.Equal(t, []Timeframe{M5, H1, D1}, snap.Timeframes())
	assert.Equal(t, []string{"atr", "ma", "rsi"}, snap.IndicatorNames(H1))
	assert.Empty(t, snap.IndicatorNames(D1))
}

func TestCandlesCSVRoundTrip(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	candles := []Candle{
		{Date: base, Open: 1.1, High: 1.2, Low: 1.05, Close: 1.15, Volume: 1000, Spread: 0.0002},
		{Date: base.Add(time.Hour), Open: 1.15, High: 1.3, Low: 1.1, Close: 1.25, Volume: 900, Spread: 0.0003},
	}

	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, WriteCandlesCSV(path, candles))

	got, err := LoadCandlesCSV(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Date.Equal(candles[0].Date))
	assert.Equal(t, candles[0].Open, got[0].Open)
	assert.Equal(t, candles[1].Spread, got[1].Spread)
}

func TestReadCandlesRejectsBadInput(t *testing.T) {
	t.Parallel()

	header := "date,open,high,low,close,volume,spread\n"

	// Out-of-order dates.
	_, err := ReadCandles(strings.NewReader(header +
		"2024-01-02T01:00:00Z,1,1,1,1,0,0\n" +
		"2024-01-02T00:00:00Z,1,1,1,1,0,0\n"))
	assert.ErrorContains(t, err, "out of order")

	// Unparseable date.
	_, err = ReadCandles(strings.NewReader(header + "yesterday,1,1,1,1,0,0\n"))
	assert.Error(t, err)

	// Non-numeric field.
	_, err = ReadCandles(strings.NewReader(header + "2024-01-02T00:00:00Z,1,x,1,1,0,0\n"))
	assert.Error(t, err)

	// Header only is an empty, valid series.
	got, err := ReadCandles(strings.NewReader(header))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = LoadCandlesCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
