// Package evaluate turns run statistics into the two scalars the
// evolutionary trainer consumes: fitness (selection feedback, smoothly
// penalized) and score (ranking value, strict about disqualification).
// Both functions are pure: same inputs, same outputs.
package evaluate

import (
	"fmt"
	"math"

	"github.com/evotrade/trader/config"
	"github.com/evotrade/trader/journal"
)

// Result bundles the evaluation outputs. Details holds one line per
// applied constraint for reporting.
type Result struct {
	Fitness float64
	Score   float64
	Details map[string]string
}

// Evaluate computes fitness and score for a finished run.
//
// Fitness is (1 + net return fraction) multiplied by a ratio penalty per
// violated constraint, floored at zero. Penalties are ratios rather than
// hard rejections so the trainer always sees a gradient: a trader with 3
// of 10 required trades scores 0.3 of the way there, not zero.
//
// Score ranks runs. A run missing minimum_nb_trades scores strictly
// below every qualifying run regardless of its other statistics.
func Evaluate(stats journal.Stats, cfg config.EvaluationConfig, initialBalance float64) Result {
	details := make(map[string]string)

	base := 1.0
	if initialBalance > 0 {
		base = 1.0 + stats.TotalNetProfit/initialBalance
	}
	if base < 0 {
		base = 0
	}
	details["base"] = fmt.Sprintf("net return factor %.4f", base)

	penalty := 1.0
	apply := func(name string, r float64) {
		r = clampRatio(r)
		penalty *= r
		details[name] = fmt.Sprintf("penalty %.4f", r)
	}

	if cfg.MinimumNbTrades != nil && stats.TotalTrades < *cfg.MinimumNbTrades {
		apply("minimum_nb_trades", float64(stats.TotalTrades)/float64(*cfg.MinimumNbTrades))
	}
	if cfg.MaximizeNbTrades != nil && *cfg.MaximizeNbTrades {
		// Monotonically rewards activity, saturating toward 1.
		apply("maximize_nb_trades", float64(stats.TotalTrades)/float64(stats.TotalTrades+1))
	}
	if cfg.MaximumTradeDuration != nil && stats.AverageTradeDuration > float64(*cfg.MaximumTradeDuration) {
		apply("maximum_trade_duration", float64(*cfg.MaximumTradeDuration)/stats.AverageTradeDuration)
	}
	if cfg.MaximumDrawdown != nil && stats.MaxDrawdown > *cfg.MaximumDrawdown {
		apply("maximum_drawdown", *cfg.MaximumDrawdown/stats.MaxDrawdown)
	}
	if cfg.MinimumWinRate != nil && stats.WinRate < *cfg.MinimumWinRate {
		apply("minimum_win_rate", stats.WinRate / *cfg.MinimumWinRate)
	}
	if cfg.MinimumProfitFactor != nil && stats.ProfitFactor < *cfg.MinimumProfitFactor {
		apply("minimum_profit_factor", stats.ProfitFactor / *cfg.MinimumProfitFactor)
	}
	if cfg.ExpectedReturnPerDay != nil && stats.ReturnPerDay < *cfg.ExpectedReturnPerDay {
		apply("expected_return_per_day", stats.ReturnPerDay / *cfg.ExpectedReturnPerDay)
	}
	if cfg.ExpectedReturnPerMonth != nil && stats.ReturnPerMonth < *cfg.ExpectedReturnPerMonth {
		apply("expected_return_per_month", stats.ReturnPerMonth / *cfg.ExpectedReturnPerMonth)
	}
	if cfg.ExpectedReturn != nil && stats.TotalReturn < *cfg.ExpectedReturn {
		apply("expected_return", stats.TotalReturn / *cfg.ExpectedReturn)
	}

	fitness := base * penalty

	score := fitness * 100
	if score < 0 {
		score = 0
	}
	if cfg.MinimumNbTrades != nil && stats.TotalTrades < *cfg.MinimumNbTrades {
		// Disqualified: strictly below any qualifying run (those are
		// floored at zero), ordered by how far short the run fell.
		score = float64(stats.TotalTrades - *cfg.MinimumNbTrades)
		details["disqualified"] = fmt.Sprintf("%d trades, need %d", stats.TotalTrades, *cfg.MinimumNbTrades)
	}

	return Result{
		Fitness: fitness,
		Score:   score,
		Details: details,
	}
}

// clampRatio keeps penalties inside (0, 1] so a single degenerate
// statistic (negative return, +Inf profit factor) cannot zero out or
// inflate the whole evaluation.
func clampRatio(r float64) float64 {
	if math.IsNaN(r) || r < 0 {
		return 0.001
	}
	if r < 0.001 {
		return 0.001
	}
	if r > 1 {
		return 1
	}
	return r
}
