package trader

import (
	"time"

	"github.com/evotrade/trader/journal"
	"github.com/evotrade/trader/market"
	"github.com/evotrade/trader/risk"
)

// Step advances the simulation by one bar. The sequence is fixed:
//
//  1. calendar-day rollover resets the daily trade counter
//  2. the market view advances to the snapshot
//  3. with a position open: duration, PnL, trailing stop, order
//     triggers, liquidation — in that order, so triggers and the
//     liquidation check observe the freshest stop level
//  4. strategy duration/schedule force-closes
//  5. if permitted, look → think → act on the decision
//  6. lifespan advances and death conditions are evaluated
//  7. the balance is appended to history
//
// Once dead, Step does nothing: the driver must stop invoking the
// decision function for this run.
func (t *Trader) Step(snap market.Snapshot) {
	if t.dead {
		return
	}

	prevDate := t.currentDate
	t.snap = snap
	t.currentDate = snap.Time
	if snap.ConversionRate > 0 {
		t.conversionRate = snap.ConversionRate
	}
	if !prevDate.IsZero() && !sameDay(prevDate, snap.Time) {
		t.nbTradesToday = 0
	}

	c, ok := snap.Current(t.cfg.Strategy.Timeframe)
	if !ok {
		// No bar on the strategy timeframe: the step still counts.
		t.lifespan++
		t.recordBalance()
		return
	}

	if t.position != nil {
		t.durationInPosition++
		t.UpdatePositionPnL(c.Close)
		t.UpdateTrailingStopLoss()
		t.CheckOpenOrders(c.High, c.Low)
		if t.position != nil {
			t.CheckPositionLiquidation(c.High, c.Low)
		}
	} else {
		t.durationWithoutTrade++
	}

	if t.position != nil && t.cfg.Strategy.MaximumTradeDuration > 0 &&
		t.durationInPosition >= t.cfg.Strategy.MaximumTradeDuration {
		t.closePosition(c.Close, journal.ReasonMaxDuration)
	}

	// Force-close before a non-trading period (rest day or schedule gap).
	if t.position != nil && t.cfg.Strategy.Schedule != nil {
		next := snap.Time.Add(t.cfg.Strategy.Timeframe.Duration())
		if !t.cfg.Strategy.Schedule.Allows(next) {
			t.closePosition(c.Close, journal.ReasonSchedule)
		}
	}

	if t.CanTrade() {
		t.Look(snap)
		t.Think()
		t.applyAction(t.Trade(), c)
	}

	t.lifespan++
	t.checkDeath()
	t.recordBalance()
}

// CanTrade gates decision-driven actions. False means hold, regardless
// of the decision output. Position management (stops, liquidation,
// forced closes) runs either way.
func (t *Trader) CanTrade() bool {
	if t.dead {
		return false
	}
	s := t.cfg.Strategy

	if s.MaximumTradesPerDay > 0 && t.nbTradesToday >= s.MaximumTradesPerDay {
		return false
	}

	c, ok := t.snap.Current(s.Timeframe)
	if !ok {
		return false
	}
	if s.MaximumSpread > 0 && c.Spread > s.MaximumSpread {
		return false
	}
	if s.Schedule != nil && !s.Schedule.Allows(t.currentDate) {
		return false
	}
	if t.position == nil && s.MinimumDurationBeforeNextTrade > 0 &&
		t.durationWithoutTrade < s.MinimumDurationBeforeNextTrade {
		return false
	}
	return true
}

// applyAction executes the interpreted decision against the ledger.
// Actions that conflict with the current state (open while open, close
// while flat) degrade to hold.
func (t *Trader) applyAction(a Action, c market.Candle) {
	s := t.cfg.Strategy

	switch a {
	case OpenLong, OpenShort:
		if t.position != nil {
			return
		}
		side := market.Long
		if a == OpenShort {
			side = market.Short
		}

		history := t.snap.History(s.Timeframe)
		stop, provisional := risk.StopLossPrice(s.StopLoss, side, c.Close, t.cfg.Symbol, history)
		if provisional {
			// Not enough history to place the protective stop yet.
			return
		}

		size := risk.PositionSize(risk.SizeInputs{
			Balance:        t.balance,
			RiskPerTrade:   s.RiskPerTrade,
			EntryPrice:     c.Close,
			StopPrice:      stop,
			ContractSize:   t.cfg.Symbol.ContractSize,
			MinLot:         t.cfg.Symbol.MinLotSize,
			MaxLot:         t.cfg.Symbol.MaxLotSize,
			LotStep:        t.cfg.Symbol.LotSizeStep,
			QuoteToAccount: t.conversionRate,
		})
		if size <= 0 {
			return
		}
		_ = t.OpenPositionByMarket(c.Close, size, side)

	case Close:
		if t.position == nil {
			return
		}
		if s.MinimumTradeDuration > 0 && t.durationInPosition < s.MinimumTradeDuration {
			return
		}
		_ = t.ClosePositionByMarket(c.Close)
	}
}

func (t *Trader) checkDeath() {
	tr := t.cfg.Training

	if t.balance <= 0 {
		t.die("bankrupt")
		return
	}
	if tr.BadTraderThreshold != nil && t.balance < *tr.BadTraderThreshold {
		t.die("bad_trader")
		return
	}
	if tr.InactiveTraderThreshold != nil && t.durationWithoutTrade > *tr.InactiveTraderThreshold {
		t.die("inactive")
	}
}

func (t *Trader) recordBalance() {
	_ = t.journal.RecordBalance(journal.BalancePoint{
		Time:    t.currentDate,
		Balance: t.balance,
	})
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
