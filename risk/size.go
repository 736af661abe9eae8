package risk

import "math"

// SizeInputs are the parameters for risk-based position sizing.
type SizeInputs struct {
	Balance      float64
	RiskPerTrade float64 // fraction of balance risked, e.g. 0.02
	EntryPrice   float64
	StopPrice    float64
	ContractSize float64
	MinLot       float64
	MaxLot       float64
	LotStep      float64
	// QuoteToAccount converts quote-currency P/L into the account
	// currency (1.0 when they match).
	QuoteToAccount float64
}

// PositionSize returns the lot size such that hitting the stop loses
// approximately Balance*RiskPerTrade, clamped to the symbol's lot bounds
// and rounded down to the lot step. Returns 0 when the inputs cannot
// produce a valid size.
func PositionSize(in SizeInputs) float64 {
	stopDistance := math.Abs(in.EntryPrice - in.StopPrice)
	if stopDistance <= 0 || in.Balance <= 0 || in.RiskPerTrade <= 0 {
		return 0
	}
	if in.ContractSize <= 0 || in.QuoteToAccount <= 0 || in.LotStep <= 0 {
		return 0
	}

	riskAmount := in.Balance * in.RiskPerTrade
	lossPerLot := stopDistance * in.ContractSize * in.QuoteToAccount

	lots := riskAmount / lossPerLot
	lots = math.Floor(lots/in.LotStep) * in.LotStep

	if lots < in.MinLot {
		return 0
	}
	if lots > in.MaxLot {
		lots = in.MaxLot
	}
	return lots
}
