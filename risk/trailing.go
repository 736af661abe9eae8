package risk

// Trailing-stop computation. The candidate price follows the market at
// the configured distance; activation requires unrealized profit past the
// configured level. The ledger is responsible for the never-retreat rule
// (a candidate only replaces the current stop when strictly more
// favorable).

import (
	"github.com/evotrade/trader/config"
	"github.com/evotrade/trader/market"
)

// TrailingStop returns the candidate stop price for a position of the
// given side opened at entry, with the market currently at price.
// active is false while unrealized profit is below the activation level;
// the candidate must then be ignored.
func TrailingStop(cfg config.TrailingConfig, side market.Side, entry, price float64, sym config.SymbolInfo) (candidate float64, active bool) {
	dir := float64(side)

	switch cfg.Kind {
	case config.TrailingPoints:
		profitPoints := dir * (price - entry) / sym.PointValue
		if profitPoints < cfg.ActivationPoints {
			return 0, false
		}
		return price - dir*cfg.DistancePoints*sym.PointValue, true

	case config.TrailingPercent:
		if entry <= 0 {
			return 0, false
		}
		profitPct := dir * (price - entry) / entry
		if profitPct < cfg.ActivationPercent {
			return 0, false
		}
		return price * (1 - dir*cfg.DistancePercent), true
	}

	return 0, false
}

// Improves reports whether candidate locks in more profit than the
// current stop for the given side.
func Improves(side market.Side, candidate, current float64) bool {
	if side == market.Long {
		return candidate > current
	}
	return candidate < current
}
