package evaluate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evotrade/trader/config"
	"github.com/evotrade/trader/journal"
)

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }
func boolp(v bool) *bool        { return &v }

func TestEvaluateNoConstraints(t *testing.T) {
	t.Parallel()

	stats := journal.Stats{TotalNetProfit: 500}
	res := Evaluate(stats, config.EvaluationConfig{}, 10000)

	assert.InDelta(t, 1.05, res.Fitness, 1e-9)
	assert.InDelta(t, 105.0, res.Score, 1e-9)
}

func TestEvaluateIsPure(t *testing.T) {
	t.Parallel()

	stats := journal.Stats{TotalTrades: 3, TotalNetProfit: 200, WinRate: 40}
	cfg := config.EvaluationConfig{
		MinimumNbTrades: intp(10),
		MinimumWinRate:  floatp(50),
	}

	a := Evaluate(stats, cfg, 10000)
	b := Evaluate(stats, cfg, 10000)
	assert.Equal(t, a, b)
}

func TestEvaluatePenaltiesAreRatios(t *testing.T) {
	t.Parallel()

	stats := journal.Stats{TotalTrades: 3, TotalNetProfit: 0}
	cfg := config.EvaluationConfig{MinimumNbTrades: intp(10)}

	res := Evaluate(stats, cfg, 10000)
	// Base 1.0 scaled by 3/10: a gradient, not a hard zero.
	assert.InDelta(t, 0.3, res.Fitness, 1e-9)
	assert.Contains(t, res.Details, "minimum_nb_trades")
}

func TestEvaluatePenaltyMonotonicInViolation(t *testing.T) {
	t.Parallel()

	cfg := config.EvaluationConfig{MaximumDrawdown: floatp(10)}

	mild := Evaluate(journal.Stats{MaxDrawdown: 12}, cfg, 10000)
	severe := Evaluate(journal.Stats{MaxDrawdown: 40}, cfg, 10000)
	assert.Greater(t, mild.Fitness, severe.Fitness)

	within := Evaluate(journal.Stats{MaxDrawdown: 8}, cfg, 10000)
	assert.Equal(t, 1.0, within.Fitness, "no penalty inside the constraint")
}

func TestEvaluateDisqualifiedScoresStrictlyBelowQualified(t *testing.T) {
	t.Parallel()

	cfg := config.EvaluationConfig{MinimumNbTrades: intp(5)}

	// A hugely profitable run with too few trades...
	disq := Evaluate(journal.Stats{TotalTrades: 2, TotalNetProfit: 50000}, cfg, 10000)
	assert.Equal(t, -3.0, disq.Score)
	assert.Contains(t, disq.Details, "disqualified")

	// ...ranks below a qualifying run that lost money.
	qual := Evaluate(journal.Stats{TotalTrades: 5, TotalNetProfit: -20000}, cfg, 10000)
	assert.GreaterOrEqual(t, qual.Score, 0.0)
	assert.Less(t, disq.Score, qual.Score)

	// Closer to qualifying ranks higher among the disqualified.
	closer := Evaluate(journal.Stats{TotalTrades: 4, TotalNetProfit: 0}, cfg, 10000)
	assert.Greater(t, closer.Score, disq.Score)
}

func TestEvaluateFitnessFloorsAtZero(t *testing.T) {
	t.Parallel()

	// Losses beyond the initial balance cannot produce negative fitness.
	res := Evaluate(journal.Stats{TotalNetProfit: -20000}, config.EvaluationConfig{}, 10000)
	assert.Equal(t, 0.0, res.Fitness)
	assert.Equal(t, 0.0, res.Score)
}

func TestEvaluateDegenerateStatsStayBounded(t *testing.T) {
	t.Parallel()

	cfg := config.EvaluationConfig{
		MinimumProfitFactor: floatp(1.5),
		MinimumWinRate:      floatp(50),
	}
	stats := journal.Stats{
		TotalNetProfit: 100,
		ProfitFactor:   math.Inf(1), // all winners, but win rate violated
		WinRate:        0,
	}

	res := Evaluate(stats, cfg, 10000)
	require.False(t, math.IsNaN(res.Fitness))
	require.False(t, math.IsInf(res.Fitness, 0))
	assert.Greater(t, res.Fitness, 0.0)
	// The zero win rate clamps to the minimum ratio, not to zero.
	assert.InDelta(t, 1.01*0.001, res.Fitness, 1e-9)
}

func TestEvaluateMaximizeNbTrades(t *testing.T) {
	t.Parallel()

	cfg := config.EvaluationConfig{MaximizeNbTrades: boolp(true)}

	few := Evaluate(journal.Stats{TotalTrades: 1}, cfg, 10000)
	many := Evaluate(journal.Stats{TotalTrades: 99}, cfg, 10000)
	assert.Greater(t, many.Fitness, few.Fitness)
	assert.LessOrEqual(t, many.Fitness, 1.0)
}
