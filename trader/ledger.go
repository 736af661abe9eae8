package trader

import (
	"fmt"

	"github.com/evotrade/trader/internal/id"
	"github.com/evotrade/trader/journal"
	"github.com/evotrade/trader/market"
	"github.com/evotrade/trader/risk"
)

// OpenPositionByMarket opens a position at price and installs the
// configured stop-loss and take-profit orders. Only valid from flat; an
// open position means a driver defect.
//
// Orders whose trigger computation is provisional (history shorter than
// the configured lookback) are not installed; the trailing-stop update
// can install a stop later once history suffices.
func (t *Trader) OpenPositionByMarket(price, size float64, side market.Side) error {
	if t.position != nil {
		return ErrPositionOpen
	}
	if size <= 0 {
		return fmt.Errorf("open position: size must be positive, got %v", size)
	}

	t.position = &Position{
		Side:       side,
		Size:       size,
		EntryPrice: price,
		EntryDate:  t.currentDate,
	}
	t.durationInPosition = 0
	t.durationWithoutTrade = 0

	history := t.snap.History(t.cfg.Strategy.Timeframe)
	if sl, provisional := risk.StopLossPrice(t.cfg.Strategy.StopLoss, side, price, t.cfg.Symbol, history); !provisional {
		t.createOpenOrder(OrderStopLoss, side, sl)
	}
	if tp, provisional := risk.TakeProfitPrice(t.cfg.Strategy.TakeProfit, side, price, t.cfg.Symbol, history); !provisional {
		t.createOpenOrder(OrderTakeProfit, side, tp)
	}

	return nil
}

func (t *Trader) createOpenOrder(typ OrderType, side market.Side, price float64) {
	t.openOrders = append(t.openOrders, Order{Side: side, Type: typ, Price: price})
}

// CheckOpenOrders tests every pending order against the bar's range and
// executes the first trigger at its trigger price, not the bar close.
//
// First-touch rule: when a stop and a take-profit would both trigger on
// the same bar, the stop wins. The bar gives no intra-bar ordering, so
// the conservative fill is assumed.
func (t *Trader) CheckOpenOrders(high, low float64) {
	if t.position == nil {
		return
	}

	for _, typ := range []OrderType{OrderStopLoss, OrderTakeProfit} {
		for _, o := range t.openOrders {
			if o.Type != typ || !o.triggered(t.position.Side, high, low) {
				continue
			}
			if typ == OrderStopLoss {
				t.closePosition(o.Price, journal.ReasonStopLoss)
			} else {
				t.closePosition(o.Price, journal.ReasonTakeProfit)
			}
			return
		}
	}
}

// UpdatePositionPnL recomputes unrealized PnL from the given price. It is
// idempotent: repeated calls with the same price change nothing else.
func (t *Trader) UpdatePositionPnL(price float64) {
	if t.position == nil {
		return
	}
	p := t.position
	p.PnL = float64(p.Side) * (price - p.EntryPrice) * p.Size *
		t.cfg.Symbol.ContractSize * t.conversionRate
}

// UpdateTrailingStopLoss moves the stop-loss order toward the market once
// the trailing stop has activated. The stop never retreats: a candidate
// replaces the current stop only when strictly more favorable.
func (t *Trader) UpdateTrailingStopLoss() {
	tc := t.cfg.Strategy.TrailingStop
	if tc == nil || t.position == nil {
		return
	}
	c, ok := t.snap.Current(t.cfg.Strategy.Timeframe)
	if !ok {
		return
	}

	p := t.position
	candidate, active := risk.TrailingStop(*tc, p.Side, p.EntryPrice, c.Close, t.cfg.Symbol)
	if !active {
		return
	}

	for i := range t.openOrders {
		if t.openOrders[i].Type != OrderStopLoss {
			continue
		}
		if risk.Improves(p.Side, candidate, t.openOrders[i].Price) {
			t.openOrders[i].Price = candidate
		}
		return
	}

	// No stop installed yet (provisional at open): the trailing stop
	// arms one now.
	t.createOpenOrder(OrderStopLoss, p.Side, candidate)
}

// CheckPositionLiquidation force-closes the position at the bar's worst
// price once the unrealized loss consumes the margin allocated to it
// (notional / leverage). Fatal to the position, not to the run.
func (t *Trader) CheckPositionLiquidation(high, low float64) {
	p := t.position
	if p == nil {
		return
	}

	notional := p.EntryPrice * p.Size * t.cfg.Symbol.ContractSize * t.conversionRate
	margin := notional / float64(t.cfg.General.Leverage)
	if margin <= 0 {
		return
	}

	if p.PnL <= -margin {
		worst := low
		if p.Side == market.Short {
			worst = high
		}
		t.closePosition(worst, journal.ReasonLiquidation)
	}
}

// ClosePositionByMarket closes the open position at the given market
// price.
func (t *Trader) ClosePositionByMarket(price float64) error {
	if t.position == nil {
		return ErrNoPosition
	}
	t.closePosition(price, journal.ReasonMarket)
	return nil
}

// ClosePositionByLimit closes the open position at the given limit price.
func (t *Trader) ClosePositionByLimit(price float64) error {
	if t.position == nil {
		return ErrNoPosition
	}
	t.closePosition(price, journal.ReasonLimit)
	return nil
}

// ForceClose closes the open position at price with an explicit close
// reason (end of run, schedule, ...). Used by drivers, not decisions.
func (t *Trader) ForceClose(price float64, reason string) error {
	if t.position == nil {
		return ErrNoPosition
	}
	t.closePosition(price, reason)
	return nil
}

// CloseOpenOrders drops all pending conditional orders.
func (t *Trader) CloseOpenOrders() {
	t.openOrders = t.openOrders[:0]
}

// closePosition settles the position at price: realized PnL net of the
// linear commission model, the Trade record, and the ledger reset are one
// atomic step — no path observes a Trade without the position cleared or
// vice versa.
func (t *Trader) closePosition(price float64, reason string) {
	p := t.position
	sym := t.cfg.Symbol

	gross := float64(p.Side) * (price - p.EntryPrice) * p.Size *
		sym.ContractSize * t.conversionRate

	fees := sym.CommissionPerLot * p.Size
	if sym.CommissionBase != t.cfg.General.AccountCurrency {
		fees *= t.conversionRate
	}

	balanceAtEntry := t.balance
	trade := journal.Trade{
		ID:         id.New(),
		Side:       p.Side,
		EntryDate:  p.EntryDate,
		ExitDate:   t.currentDate,
		EntryPrice: p.EntryPrice,
		ExitPrice:  price,
		Size:       p.Size,
		PnL:        gross,
		Fees:       fees,
		Duration:   t.durationInPosition,
		Reason:     reason,
		Closed:     true,
	}
	if balanceAtEntry > 0 {
		trade.PnLPercent = gross / balanceAtEntry * 100
		trade.PnLNetPercent = (gross - fees) / balanceAtEntry * 100
	}

	t.balance += gross - fees
	t.position = nil
	t.openOrders = t.openOrders[:0]
	t.durationInPosition = 0
	t.durationWithoutTrade = 0
	t.nbTradesToday++

	// Memory journal cannot fail
	_ = t.journal.RecordTrade(trade)
}
