package trader

import (
	"time"

	"github.com/evotrade/trader/market"
)

// Position is the single open position. Exactly zero or one exists at any
// time; it is owned by the trader's ledger and converted into a
// journal.Trade on close.
type Position struct {
	Side       market.Side
	Size       float64
	EntryPrice float64
	EntryDate  time.Time
	PnL        float64 // unrealized, account currency
}

// OrderType distinguishes the two conditional order kinds.
type OrderType int8

const (
	OrderStopLoss OrderType = iota
	OrderTakeProfit
)

func (o OrderType) String() string {
	if o == OrderTakeProfit {
		return "take_profit"
	}
	return "stop_loss"
}

// Order is a pending conditional order attached to the open position.
type Order struct {
	Side  market.Side
	Type  OrderType
	Price float64
}

// triggered tests whether price action on a bar crossed the order's
// trigger for a position of the given side. Stops trigger on the adverse
// side, take-profits on the favorable one.
func (o Order) triggered(side market.Side, high, low float64) bool {
	adverse := o.Type == OrderStopLoss
	if side == market.Short {
		adverse = !adverse
	}
	if adverse {
		// long stop / short take-profit: price traded down through trigger
		return low <= o.Price
	}
	// long take-profit / short stop: price traded up through trigger
	return high >= o.Price
}

// Action is the interpreted outcome of one decision vector.
type Action int

const (
	Hold Action = iota
	OpenLong
	OpenShort
	Close
)

func (a Action) String() string {
	switch a {
	case OpenLong:
		return "open_long"
	case OpenShort:
		return "open_short"
	case Close:
		return "close"
	default:
		return "hold"
	}
}

// Decider is the external decision function: a pure mapping from the
// vision vector to a decision vector, owned by the evolutionary trainer.
// Implementations must be safe for shared read-only use when the same
// decider is handed to several trader instances.
type Decider interface {
	Decide(vision []float64) []float64
}

// DeciderFunc adapts a plain function to the Decider interface.
type DeciderFunc func(vision []float64) []float64

func (f DeciderFunc) Decide(vision []float64) []float64 { return f(vision) }
