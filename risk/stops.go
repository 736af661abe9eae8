// Package risk holds the pure computations behind stop placement and
// position sizing. Nothing here mutates state: the ledger feeds in the
// position, configuration and recent candles, and applies the results.
package risk

import (
	"math"

	"github.com/evotrade/trader/config"
	"github.com/evotrade/trader/indicators"
	"github.com/evotrade/trader/market"
)

// StopLossPrice computes the stop-loss trigger price for a position opened
// at entry. candles is the recent history (oldest first) on the strategy
// timeframe, including the current bar.
//
// provisional is true when the configured lookback/period exceeds the
// available history; the price is then computed on the best available
// window and the caller must not act on it yet.
func StopLossPrice(cfg config.StopConfig, side market.Side, entry float64, sym config.SymbolInfo, candles []market.Candle) (price float64, provisional bool) {
	dir := float64(side)

	switch cfg.Kind {
	case config.StopPoints:
		// A stop on a long closes below entry, on a short above.
		return entry - dir*cfg.Points*sym.PointValue, false

	case config.StopPercent:
		return entry * (1 - dir*cfg.Percent), false

	case config.StopExtremum:
		if side == market.Long {
			price, provisional = lowestLow(candles, cfg.Lookback)
		} else {
			price, provisional = highestHigh(candles, cfg.Lookback)
		}
		return price, provisional

	case config.StopATR:
		atr, prov := atrOrBest(candles, cfg.ATRPeriod)
		return entry - dir*atr*cfg.ATRMultiplier, prov
	}

	// Unknown kinds are rejected at config validation; treat as provisional
	// so a defective caller never places an order from one.
	return entry, true
}

// TakeProfitPrice computes the take-profit trigger price. Directions are
// mirrored from StopLossPrice: a take-profit on a long fills above entry.
func TakeProfitPrice(cfg config.StopConfig, side market.Side, entry float64, sym config.SymbolInfo, candles []market.Candle) (price float64, provisional bool) {
	dir := float64(side)

	switch cfg.Kind {
	case config.StopPoints:
		return entry + dir*cfg.Points*sym.PointValue, false

	case config.StopPercent:
		return entry * (1 + dir*cfg.Percent), false

	case config.StopExtremum:
		if side == market.Long {
			price, provisional = highestHigh(candles, cfg.Lookback)
		} else {
			price, provisional = lowestLow(candles, cfg.Lookback)
		}
		return price, provisional

	case config.StopATR:
		atr, prov := atrOrBest(candles, cfg.ATRPeriod)
		return entry + dir*atr*cfg.ATRMultiplier, prov
	}

	return entry, true
}

// atrOrBest degrades to the largest period the history supports instead
// of failing. The result is provisional until the configured period fits.
func atrOrBest(candles []market.Candle, period int) (atr float64, provisional bool) {
	if len(candles) < 2 {
		return 0, true
	}
	if len(candles) < period+1 {
		period = len(candles) - 1
		provisional = true
	}
	atr, err := indicators.ATRFunc(candles, period)
	if err != nil {
		return 0, true
	}
	return atr, provisional
}

func lowestLow(candles []market.Candle, lookback int) (float64, bool) {
	window, provisional := trailingWindow(candles, lookback)
	if len(window) == 0 {
		return 0, true
	}
	low := math.Inf(1)
	for _, c := range window {
		if c.Low < low {
			low = c.Low
		}
	}
	return low, provisional
}

func highestHigh(candles []market.Candle, lookback int) (float64, bool) {
	window, provisional := trailingWindow(candles, lookback)
	if len(window) == 0 {
		return 0, true
	}
	high := math.Inf(-1)
	for _, c := range window {
		if c.High > high {
			high = c.High
		}
	}
	return high, provisional
}

func trailingWindow(candles []market.Candle, lookback int) ([]market.Candle, bool) {
	if lookback <= 0 {
		return nil, true
	}
	if len(candles) < lookback {
		return candles, true
	}
	return candles[len(candles)-lookback:], false
}
