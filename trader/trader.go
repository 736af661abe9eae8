// Package trader implements the trading simulation state machine: the
// position and order ledger, the per-step driver, and the bookkeeping
// (balance, history, death conditions) around one simulated trader.
//
// A Trader is strictly sequential: every operation of a step completes
// before the next begins, and each instance owns all of its mutable
// state. Instances never share state, so many traders may be evaluated
// concurrently without synchronization.
package trader

import (
	"errors"
	"fmt"
	"time"

	"github.com/evotrade/trader/config"
	"github.com/evotrade/trader/evaluate"
	"github.com/evotrade/trader/journal"
	"github.com/evotrade/trader/market"
)

var (
	// ErrPositionOpen is returned when opening while a position exists.
	// Hitting it indicates a driver defect, not a runtime condition.
	ErrPositionOpen = errors.New("position already open")

	// ErrNoPosition is returned when closing with no open position.
	ErrNoPosition = errors.New("no open position")
)

// Trader simulates one trading strategy instance over historical data.
type Trader struct {
	cfg     *config.Config
	decider Decider

	// market view, replaced every step
	snap           market.Snapshot
	currentDate    time.Time
	conversionRate float64

	// ledger
	balance    float64
	position   *Position
	openOrders []Order

	// bookkeeping
	journal              *journal.Memory
	durationInPosition   int
	durationWithoutTrade int
	nbTradesToday        int
	lifespan             int
	dead                 bool
	deathReason          string

	vision    []float64
	decisions []float64

	stats          journal.Stats
	fitness        float64
	score          float64
	fitnessDetails map[string]string
}

// New builds a trader from a validated configuration and the decision
// function owned by the trainer. A nil decider or invalid configuration
// is fatal before any simulation step runs.
func New(decider Decider, cfg *config.Config) (*Trader, error) {
	if decider == nil {
		return nil, fmt.Errorf("new trader: decider is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("new trader: config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new trader: %w", err)
	}

	return &Trader{
		cfg:            cfg,
		decider:        decider,
		balance:        cfg.General.InitialBalance,
		conversionRate: 1,
		journal:        journal.NewMemory(),
		fitnessDetails: map[string]string{},
	}, nil
}

// Config returns the run configuration (immutable for the run).
func (t *Trader) Config() *config.Config { return t.cfg }

// Balance returns the current account balance.
func (t *Trader) Balance() float64 { return t.balance }

// Position returns a copy of the open position, if any.
func (t *Trader) Position() (Position, bool) {
	if t.position == nil {
		return Position{}, false
	}
	return *t.position, true
}

// OpenOrders returns a copy of the pending conditional orders.
func (t *Trader) OpenOrders() []Order {
	out := make([]Order, len(t.openOrders))
	copy(out, t.openOrders)
	return out
}

// Journal returns the in-memory trade/balance journal for this run.
func (t *Trader) Journal() *journal.Memory { return t.journal }

// Trades returns the closed trades, oldest first.
func (t *Trader) Trades() []journal.Trade { return t.journal.Trades() }

// BalanceHistory returns one balance sample per processed step.
func (t *Trader) BalanceHistory() []journal.BalancePoint {
	return t.journal.BalanceHistory()
}

// Dead reports whether the trader hit a death condition. The transition
// is one-way: once dead, Step is a no-op.
func (t *Trader) Dead() bool { return t.dead }

// DeathReason returns why the trader died, or "" while alive.
func (t *Trader) DeathReason() string { return t.deathReason }

// Lifespan returns the number of steps survived.
func (t *Trader) Lifespan() int { return t.lifespan }

// Vision returns the feature vector built by the last Look.
func (t *Trader) Vision() []float64 { return t.vision }

// Decisions returns the output of the last Think.
func (t *Trader) Decisions() []float64 { return t.decisions }

// Stats returns the statistics computed by the last CalculateStats.
func (t *Trader) Stats() journal.Stats { return t.stats }

// Fitness returns the fitness computed by the last CalculateFitness.
func (t *Trader) Fitness() float64 { return t.fitness }

// Score returns the ranking score computed by the last CalculateFitness.
func (t *Trader) Score() float64 { return t.score }

// FitnessDetails returns the per-constraint evaluation breakdown.
func (t *Trader) FitnessDetails() map[string]string { return t.fitnessDetails }

// Look builds the vision vector from the snapshot: the latest value of
// every indicator (timeframes sorted by duration, names sorted
// alphabetically) followed by the position features TYPE, PNL, DURATION.
func (t *Trader) Look(snap market.Snapshot) {
	t.vision = t.vision[:0]

	for _, tf := range snap.Timeframes() {
		for _, name := range snap.IndicatorNames(tf) {
			series := snap.Indicators[tf][name]
			v := 0.0
			if len(series) > 0 {
				v = series[len(series)-1]
			}
			t.vision = append(t.vision, v)
		}
	}

	var ptype, pnl, duration float64
	if t.position != nil {
		ptype = float64(t.position.Side)
		if t.balance > 0 {
			pnl = t.position.PnL / t.balance * 100
		}
		duration = float64(t.durationInPosition)
	}
	t.vision = append(t.vision, ptype, pnl, duration)
}

// Think runs the decision function on the current vision vector.
func (t *Trader) Think() {
	t.decisions = t.decider.Decide(t.vision)
}

// Trade interprets the current decision vector into an action, honoring
// the decision threshold and the strategy's open/close permissions. It
// does not mutate the ledger.
func (t *Trader) Trade() Action {
	if len(t.decisions) < 3 {
		return Hold
	}

	best, idx := t.decisions[0], 0
	for i, v := range t.decisions[:3] {
		if v > best {
			best, idx = v, i
		}
	}
	if best < t.cfg.Training.DecisionThreshold {
		return Hold
	}

	switch idx {
	case 0:
		if t.cfg.Strategy.CanOpenLong() {
			return OpenLong
		}
	case 1:
		if t.cfg.Strategy.CanOpenShort() {
			return OpenShort
		}
	case 2:
		if t.cfg.Strategy.CanClose() {
			return Close
		}
	}
	return Hold
}

// CalculateStats recomputes the trader's statistics from its journal.
func (t *Trader) CalculateStats() journal.Stats {
	start, end := t.statsRange()
	t.stats = journal.ComputeStats(
		t.journal.Trades(),
		t.journal.BalanceHistory(),
		t.cfg.General.InitialBalance,
		start, end,
	)
	return t.stats
}

// CalculateFitness recomputes statistics and derives the fitness and
// score scalars consumed by the trainer.
func (t *Trader) CalculateFitness() {
	stats := t.CalculateStats()
	res := evaluate.Evaluate(stats, t.cfg.Evaluation, t.cfg.General.InitialBalance)
	t.fitness = res.Fitness
	t.score = res.Score
	t.fitnessDetails = res.Details
}

func (t *Trader) statsRange() (time.Time, time.Time) {
	if !t.cfg.Training.TrainingStart.IsZero() && !t.cfg.Training.TrainingEnd.IsZero() {
		return t.cfg.Training.TrainingStart, t.cfg.Training.TrainingEnd
	}
	history := t.journal.BalanceHistory()
	if len(history) == 0 {
		return time.Time{}, time.Time{}
	}
	return history[0].Time, history[len(history)-1].Time
}

func (t *Trader) die(reason string) {
	if t.dead {
		return
	}
	t.dead = true
	t.deathReason = reason
}
