// Package backtest drives trader instances over historical candle data:
// a Feed turns stored series into per-step snapshots, and the Runner
// executes one or many isolated traders over a feed.
package backtest

import (
	"fmt"
	"time"

	"github.com/evotrade/trader/market"
)

// Feed yields one market.Snapshot per bar of the driving timeframe.
// The underlying series are shared read-only; cursors are per-feed, so a
// Clone can be stepped independently on another goroutine.
type Feed struct {
	tf         market.Timeframe
	candles    map[market.Timeframe][]market.Candle
	indicators market.IndicatorsData
	conversion func(time.Time) float64

	start, end time.Time

	idx     int
	cursors map[market.Timeframe]int
}

// NewFeed builds a feed driven by the candles of tf. Candle slices for
// every timeframe must be in ascending date order; indicator series must
// be aligned index-for-index with their timeframe's candles.
func NewFeed(tf market.Timeframe, candles map[market.Timeframe][]market.Candle, indicators market.IndicatorsData) (*Feed, error) {
	if len(candles[tf]) == 0 {
		return nil, fmt.Errorf("feed: no candles for driving timeframe %s", tf)
	}
	for itf, series := range indicators {
		for name, vals := range series {
			if len(vals) != len(candles[itf]) {
				return nil, fmt.Errorf("feed: indicator %s/%s has %d values for %d candles",
					itf, name, len(vals), len(candles[itf]))
			}
		}
	}

	f := &Feed{
		tf:         tf,
		candles:    candles,
		indicators: indicators,
	}
	f.Reset()
	return f, nil
}

// WithConversion sets the base-currency conversion rate lookup. Without
// it, snapshots carry a rate of 1.
func (f *Feed) WithConversion(fn func(time.Time) float64) *Feed {
	f.conversion = fn
	return f
}

// WithRange restricts the feed to bars within [start, end]. Zero times
// leave the corresponding bound open.
func (f *Feed) WithRange(start, end time.Time) *Feed {
	f.start, f.end = start, end
	f.Reset()
	return f
}

// Reset rewinds the feed to its first bar.
func (f *Feed) Reset() {
	f.idx = 0
	f.cursors = make(map[market.Timeframe]int, len(f.candles))
	for tf := range f.candles {
		f.cursors[tf] = 0
	}
}

// Clone returns an independent cursor over the same shared series, for
// evaluating another trader instance in parallel.
func (f *Feed) Clone() *Feed {
	c := &Feed{
		tf:         f.tf,
		candles:    f.candles,
		indicators: f.indicators,
		conversion: f.conversion,
		start:      f.start,
		end:        f.end,
	}
	c.Reset()
	return c
}

// Next returns the snapshot for the next bar, or ok=false at the end of
// the range. Each snapshot's candle histories end at the current bar;
// slower timeframes include every bar closed at or before it.
func (f *Feed) Next() (market.Snapshot, bool) {
	driving := f.candles[f.tf]

	for f.idx < len(driving) && !f.start.IsZero() && driving[f.idx].Date.Before(f.start) {
		f.idx++
	}
	if f.idx >= len(driving) {
		return market.Snapshot{}, false
	}
	now := driving[f.idx].Date
	if !f.end.IsZero() && now.After(f.end) {
		return market.Snapshot{}, false
	}

	snap := market.Snapshot{
		Time:           now,
		Candles:        make(map[market.Timeframe][]market.Candle, len(f.candles)),
		Indicators:     make(market.IndicatorsData, len(f.indicators)),
		ConversionRate: 1,
	}
	if f.conversion != nil {
		snap.ConversionRate = f.conversion(now)
	}

	for tf, series := range f.candles {
		cur := f.cursors[tf]
		for cur < len(series) && !series[cur].Date.After(now) {
			cur++
		}
		f.cursors[tf] = cur
		if cur == 0 {
			continue
		}
		snap.Candles[tf] = series[:cur]
		if ind := f.indicators[tf]; ind != nil {
			views := make(map[string][]float64, len(ind))
			for name, vals := range ind {
				views[name] = vals[:cur]
			}
			snap.Indicators[tf] = views
		}
	}

	f.idx++
	return snap, true
}
