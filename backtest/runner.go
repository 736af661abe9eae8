package backtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evotrade/trader/internal/metrics"
	"github.com/evotrade/trader/journal"
	"github.com/evotrade/trader/trader"
)

// Options controls end-of-run behavior.
type Options struct {
	// CloseEnd closes any open position at the last bar's close when
	// the feed is exhausted.
	CloseEnd bool
}

// Result summarizes one evaluated run.
type Result struct {
	RunID string

	Fitness float64
	Score   float64
	Stats   journal.Stats
	Details map[string]string

	FinalBalance float64
	Steps        int
	Dead         bool
	DeathReason  string
	Trades       []journal.Trade

	Start, End time.Time
}

// Run drives one trader over the feed until exhaustion, death, or
// context cancellation, then evaluates it. Cancellation is coarse: it is
// only observed between steps, never within one.
func Run(ctx context.Context, tr *trader.Trader, feed *Feed, opts Options) (Result, error) {
	if tr == nil {
		return Result{}, fmt.Errorf("backtest: trader is required")
	}
	if feed == nil {
		return Result{}, fmt.Errorf("backtest: feed is required")
	}

	var start, end time.Time
	steps := 0
	lastClose := 0.0

	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		snap, ok := feed.Next()
		if !ok {
			break
		}
		if start.IsZero() {
			start = snap.Time
		}
		end = snap.Time
		if c, ok := snap.Current(tr.Config().Strategy.Timeframe); ok {
			lastClose = c.Close
		}

		tr.Step(snap)
		steps++

		if tr.Dead() {
			break
		}
	}

	if opts.CloseEnd && lastClose > 0 {
		if _, open := tr.Position(); open {
			_ = tr.ForceClose(lastClose, journal.ReasonEndOfRun)
		}
	}

	tr.CalculateFitness()

	metrics.RunsEvaluated.Inc()
	metrics.StepsSimulated.Add(float64(steps))
	metrics.TradesSimulated.Add(float64(len(tr.Trades())))
	metrics.LastFitness.Set(tr.Fitness())
	if tr.Dead() {
		metrics.Deaths.WithLabelValues(tr.DeathReason()).Inc()
	}

	return Result{
		RunID:        uuid.NewString(),
		Fitness:      tr.Fitness(),
		Score:        tr.Score(),
		Stats:        tr.Stats(),
		Details:      tr.FitnessDetails(),
		FinalBalance: tr.Balance(),
		Steps:        steps,
		Dead:         tr.Dead(),
		DeathReason:  tr.DeathReason(),
		Trades:       tr.Trades(),
		Start:        start,
		End:          end,
	}, nil
}

// RunAll evaluates independent trader instances concurrently, one
// goroutine per trader, each over its own clone of the feed. Traders
// share no mutable state, so no synchronization beyond the join is
// needed; deciders handed to several traders must be read-only.
func RunAll(ctx context.Context, traders []*trader.Trader, feed *Feed, opts Options) ([]Result, error) {
	if feed == nil {
		return nil, fmt.Errorf("backtest: feed is required")
	}

	results := make([]Result, len(traders))
	errs := make([]error, len(traders))

	var wg sync.WaitGroup
	for i, tr := range traders {
		wg.Add(1)
		go func(i int, tr *trader.Trader) {
			defer wg.Done()
			results[i], errs[i] = Run(ctx, tr, feed.Clone(), opts)
		}(i, tr)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// Export replays a finished trader's journal into a sink and records the
// run summary when the sink supports it.
func Export(tr *trader.Trader, res Result, j journal.Journal) error {
	if sq, ok := j.(*journal.SQLiteJournal); ok {
		sq.BeginRun(res.RunID)
		if err := sq.RecordRun(journal.Run{
			RunID:          res.RunID,
			Created:        time.Now().UTC(),
			Symbol:         tr.Config().General.Symbol,
			Timeframe:      string(tr.Config().Strategy.Timeframe),
			Start:          res.Start,
			End:            res.End,
			InitialBalance: tr.Config().General.InitialBalance,
			FinalBalance:   res.FinalBalance,
			Fitness:        res.Fitness,
			Score:          res.Score,
			Trades:         res.Stats.TotalTrades,
			WinRate:        res.Stats.WinRate,
			ProfitFactor:   res.Stats.ProfitFactor,
			MaxDrawdown:    res.Stats.MaxDrawdown,
			Dead:           res.Dead,
			DeathReason:    res.DeathReason,
		}); err != nil {
			return err
		}
	}
	return tr.Journal().CopyTo(j)
}
