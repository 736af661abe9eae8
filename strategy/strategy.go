// Package strategy provides rule-based deciders so the simulation can be
// exercised end-to-end without the external neuroevolution trainer. The
// trainer supplies its own trader.Decider in production; these exist for
// the CLI and for tests.
package strategy

import (
	"fmt"
	"strings"

	"github.com/evotrade/trader/trader"
)

// ByName returns a named sample decider.
func ByName(name string) (trader.Decider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none", "":
		return Noop{}, nil

	case "open-once":
		return &OpenOnce{}, nil

	case "ma-cross", "macross":
		return MACross{}, nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: noop, open-once, ma-cross)", name)
	}
}

// Noop always holds. Useful as a baseline: its run produces a flat
// balance history and zero trades.
type Noop struct{}

func (Noop) Decide(vision []float64) []float64 {
	return []float64{0, 0, 0}
}

// OpenOnce opens one long on its first decision, then holds forever,
// leaving exits to the stop and take-profit orders.
type OpenOnce struct {
	opened bool
}

func (s *OpenOnce) Decide(vision []float64) []float64 {
	if s.opened {
		return []float64{0, 0, 0}
	}
	s.opened = true
	return []float64{1, 0, 0}
}

// MACross expects the first two vision features to be a fast and a slow
// moving average (the CLI builds its indicator data that way) and the
// standard position features at the tail. It goes long when the fast
// average is above the slow one, short when below, and closes when the
// position fights the current signal.
type MACross struct{}

func (MACross) Decide(vision []float64) []float64 {
	if len(vision) < 5 {
		return []float64{0, 0, 0}
	}
	fast, slow := vision[0], vision[1]
	posType := vision[len(vision)-3]

	if fast == 0 || slow == 0 {
		// Averages still warming up
		return []float64{0, 0, 0}
	}

	switch {
	case posType == 0 && fast > slow:
		return []float64{1, 0, 0}
	case posType == 0 && fast < slow:
		return []float64{0, 1, 0}
	case posType > 0 && fast < slow:
		return []float64{0, 0, 1}
	case posType < 0 && fast > slow:
		return []float64{0, 0, 1}
	}
	return []float64{0, 0, 0}
}
