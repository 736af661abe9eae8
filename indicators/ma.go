package indicators

import (
	"fmt"

	"github.com/evotrade/trader/market"
)

// MA calculates the Simple Moving Average of closes for the given period.
func MA(candles []market.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(candles) < period {
		return 0, fmt.Errorf("not enough candles: need %d, got %d", period, len(candles))
	}

	sum := 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		sum += candles[i].Close
	}
	return sum / float64(period), nil
}

// EMA calculates the Exponential Moving Average of closes for the given
// period.
func EMA(candles []market.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(candles) < period {
		return 0, fmt.Errorf("not enough candles: need %d, got %d", period, len(candles))
	}

	multiplier := 2.0 / float64(period+1)

	// Start with SMA for the first value
	sma := 0.0
	for i := 0; i < period; i++ {
		sma += candles[i].Close
	}
	ema := sma / float64(period)

	for i := period; i < len(candles); i++ {
		ema = (candles[i].Close-ema)*multiplier + ema
	}

	return ema, nil
}

// MASeries computes the SMA at every bar, aligned index-for-index with the
// input. Bars before the warmup hold 0.
func MASeries(candles []market.Candle, period int) []float64 {
	out := make([]float64, len(candles))
	if period <= 0 {
		return out
	}
	sum := 0.0
	for i, c := range candles {
		sum += c.Close
		if i >= period {
			sum -= candles[i-period].Close
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// ATRSeries computes the streaming ATR at every bar, aligned with the
// input. Bars before the warmup hold 0.
func ATRSeries(candles []market.Candle, period int) []float64 {
	out := make([]float64, len(candles))
	a := NewATR(period)
	for i, c := range candles {
		a.Update(c)
		if a.Ready() {
			out[i] = a.Value()
		}
	}
	return out
}
