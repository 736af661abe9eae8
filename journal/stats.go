package journal

import (
	"math"
	"time"
)

// Stats are pure read-only projections over the trade log and balance
// history. They can be recomputed at any time and hold no state of their
// own.
type Stats struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int

	WinRate      float64 // percent of trades with positive net PnL
	ProfitFactor float64 // gross profit / gross loss, +Inf when no losses

	GrossProfit    float64
	GrossLoss      float64 // positive number
	TotalNetProfit float64
	TotalFees      float64

	TotalReturn    float64 // percent of initial balance
	ReturnPerDay   float64 // percent, simple estimate over the run range
	ReturnPerMonth float64 // percent

	MaxDrawdown float64 // percent, peak-to-trough on balance history

	AverageTradeDuration float64 // bars
	LongestTradeDuration int     // bars
}

// ComputeStats derives Stats from a finished (or in-progress) run.
// start/end bound the simulated range and size the per-day/per-month
// return estimates.
func ComputeStats(trades []Trade, balanceHistory []BalancePoint, initialBalance float64, start, end time.Time) Stats {
	var s Stats

	totalDuration := 0
	for _, t := range trades {
		s.TotalTrades++
		net := t.Net()
		if net > 0 {
			s.WinningTrades++
		} else {
			s.LosingTrades++
		}
		if t.PnL > 0 {
			s.GrossProfit += t.PnL
		} else {
			s.GrossLoss += -t.PnL
		}
		s.TotalNetProfit += net
		s.TotalFees += t.Fees

		totalDuration += t.Duration
		if t.Duration > s.LongestTradeDuration {
			s.LongestTradeDuration = t.Duration
		}
	}

	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades) * 100
		s.AverageTradeDuration = float64(totalDuration) / float64(s.TotalTrades)
	}

	switch {
	case s.GrossLoss > 0:
		s.ProfitFactor = s.GrossProfit / s.GrossLoss
	case s.GrossProfit > 0:
		s.ProfitFactor = math.Inf(1)
	default:
		s.ProfitFactor = 0
	}

	if initialBalance > 0 {
		s.TotalReturn = s.TotalNetProfit / initialBalance * 100
	}

	if days := end.Sub(start).Hours() / 24; days > 0 {
		s.ReturnPerDay = s.TotalReturn / days
		s.ReturnPerMonth = s.TotalReturn / (days / 30.44)
	}

	s.MaxDrawdown = maxDrawdown(balanceHistory)

	return s
}

// maxDrawdown returns the largest peak-to-trough decline of the balance
// history as a percent of the peak.
func maxDrawdown(history []BalancePoint) float64 {
	peak := math.Inf(-1)
	worst := 0.0
	for _, b := range history {
		if b.Balance > peak {
			peak = b.Balance
		}
		if peak > 0 {
			dd := (peak - b.Balance) / peak * 100
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
