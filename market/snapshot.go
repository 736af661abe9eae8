package market

import (
	"sort"
	"time"
)

// IndicatorsData maps timeframe -> indicator name -> value series.
// Series are aligned index-for-index with the candle history of the same
// timeframe. The indicator pipeline that produces them lives outside the
// simulation core.
type IndicatorsData map[Timeframe]map[string][]float64

// Snapshot is the market view a trader receives on one simulation step.
// Candle slices contain history up to and including the current bar; the
// last element of each slice is the bar being simulated.
type Snapshot struct {
	Time       time.Time
	Candles    map[Timeframe][]Candle
	Indicators IndicatorsData

	// ConversionRate converts the symbol's quote currency into the
	// account currency (1.0 when they are the same).
	ConversionRate float64
}

// Current returns the bar being simulated on the given timeframe.
func (s Snapshot) Current(tf Timeframe) (Candle, bool) {
	cs := s.Candles[tf]
	if len(cs) == 0 {
		return Candle{}, false
	}
	return cs[len(cs)-1], true
}

// History returns the candle history for tf, oldest first.
func (s Snapshot) History(tf Timeframe) []Candle {
	return s.Candles[tf]
}

// Timeframes returns the snapshot's timeframes sorted by bar duration so
// feature vectors built from a snapshot have a stable layout.
func (s Snapshot) Timeframes() []Timeframe {
	out := make([]Timeframe, 0, len(s.Candles))
	for tf := range s.Candles {
		out = append(out, tf)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Duration() < out[j].Duration()
	})
	return out
}

// IndicatorNames returns the indicator names for tf in sorted order.
func (s Snapshot) IndicatorNames(tf Timeframe) []string {
	series := s.Indicators[tf]
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
