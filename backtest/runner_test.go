package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evotrade/trader/config"
	"github.com/evotrade/trader/journal"
	"github.com/evotrade/trader/market"
	"github.com/evotrade/trader/trader"
)

func runnerConfig() *config.Config {
	cfg := config.Default()
	cfg.General.InitialBalance = 10000
	cfg.General.Leverage = 10
	cfg.Symbol = config.SymbolInfo{
		Asset: "BTC", Base: "USD",
		PointValue: 1, ContractSize: 1,
		MinLotSize: 1, MaxLotSize: 10, LotSizeStep: 1,
	}
	cfg.Strategy.Timeframe = market.H1
	cfg.Strategy.RiskPerTrade = 0.0005
	cfg.Strategy.StopLoss = config.StopConfig{Kind: config.StopPoints, Points: 5}
	cfg.Strategy.TakeProfit = config.StopConfig{Kind: config.StopPoints, Points: 10}
	return cfg
}

func flatFeed(t *testing.T, n int) *Feed {
	t.Helper()
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	candles := make([]market.Candle, n)
	for i := range candles {
		candles[i] = market.Candle{
			Date: start.Add(time.Duration(i) * time.Hour),
			Open: 100, High: 100.5, Low: 99.5, Close: 100,
		}
	}
	feed, err := NewFeed(market.H1, map[market.Timeframe][]market.Candle{market.H1: candles}, nil)
	require.NoError(t, err)
	return feed
}

func holdDecider() trader.Decider {
	return trader.DeciderFunc(func([]float64) []float64 { return []float64{0, 0, 0} })
}

// openOnce opens a long on its first decision, then holds.
type openOnce struct{ done bool }

func (d *openOnce) Decide([]float64) []float64 {
	if d.done {
		return []float64{0, 0, 0}
	}
	d.done = true
	return []float64{1, 0, 0}
}

func TestRunValidatesInputs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := Run(ctx, nil, flatFeed(t, 1), Options{})
	assert.Error(t, err)

	tr, err := trader.New(holdDecider(), runnerConfig())
	require.NoError(t, err)
	_, err = Run(ctx, tr, nil, Options{})
	assert.Error(t, err)
}

func TestRunCompletesAndEvaluates(t *testing.T) {
	t.Parallel()

	tr, err := trader.New(holdDecider(), runnerConfig())
	require.NoError(t, err)

	res, err := Run(context.Background(), tr, flatFeed(t, 6), Options{})
	require.NoError(t, err)

	assert.Equal(t, 6, res.Steps)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 10000.0, res.FinalBalance)
	assert.Len(t, tr.BalanceHistory(), 6)
	assert.InDelta(t, 1.0, res.Fitness, 1e-9, "flat run, no penalty constraints")
	assert.False(t, res.Dead)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), res.Start)
	assert.Equal(t, time.Date(2024, 1, 2, 5, 0, 0, 0, time.UTC), res.End)
}

func TestRunCloseEndFlattensPosition(t *testing.T) {
	t.Parallel()

	tr, err := trader.New(&openOnce{}, runnerConfig())
	require.NoError(t, err)

	res, err := Run(context.Background(), tr, flatFeed(t, 4), Options{CloseEnd: true})
	require.NoError(t, err)

	_, open := tr.Position()
	assert.False(t, open)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, journal.ReasonEndOfRun, res.Trades[0].Reason)
}

func TestRunHonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr, err := trader.New(holdDecider(), runnerConfig())
	require.NoError(t, err)

	_, err = Run(ctx, tr, flatFeed(t, 3), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunAllIsolatesInstances(t *testing.T) {
	t.Parallel()

	traders := make([]*trader.Trader, 4)
	for i := range traders {
		var d trader.Decider = holdDecider()
		if i%2 == 0 {
			d = &openOnce{}
		}
		tr, err := trader.New(d, runnerConfig())
		require.NoError(t, err)
		traders[i] = tr
	}

	results, err := RunAll(context.Background(), traders, flatFeed(t, 5), Options{CloseEnd: true})
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i, res := range results {
		assert.Equal(t, 5, res.Steps, "every instance sees the whole feed")
		if i%2 == 0 {
			assert.Len(t, results[i].Trades, 1)
		} else {
			assert.Empty(t, results[i].Trades, "holders are unaffected by traders")
		}
	}
	assert.NotEqual(t, results[0].RunID, results[1].RunID)
}

func TestExportCopiesJournal(t *testing.T) {
	t.Parallel()

	tr, err := trader.New(&openOnce{}, runnerConfig())
	require.NoError(t, err)

	res, err := Run(context.Background(), tr, flatFeed(t, 4), Options{CloseEnd: true})
	require.NoError(t, err)

	sink := journal.NewMemory()
	require.NoError(t, Export(tr, res, sink))
	assert.Equal(t, tr.Trades(), sink.Trades())
	assert.Len(t, sink.BalanceHistory(), res.Steps)
}
