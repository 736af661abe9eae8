// Package journal records what a simulated trader did: an append-only
// trade log, the per-step balance history, and the statistics derived
// from both. Sinks (CSV, SQLite) exist for the reporting side; the
// simulation itself only ever appends.
package journal

import (
	"time"

	"github.com/evotrade/trader/market"
)

// Close reasons recorded on trades.
const (
	ReasonMarket      = "Market"
	ReasonLimit       = "Limit"
	ReasonStopLoss    = "StopLoss"
	ReasonTakeProfit  = "TakeProfit"
	ReasonLiquidation = "Liquidation"
	ReasonSchedule    = "Schedule"
	ReasonMaxDuration = "MaxDuration"
	ReasonEndOfRun    = "EndOfRun"
)

// Trade is the immutable record of a completed position. Appended exactly
// once per position close and never mutated afterward.
type Trade struct {
	ID            string
	Side          market.Side
	EntryDate     time.Time
	ExitDate      time.Time
	EntryPrice    float64
	ExitPrice     float64
	Size          float64
	PnL           float64 // gross, account currency
	PnLPercent    float64 // gross, % of balance at entry
	PnLNetPercent float64 // net of fees, % of balance at entry
	Fees          float64 // account currency
	Duration      int     // bars
	Reason        string
	Closed        bool
}

// Net returns the trade's profit after fees.
func (t Trade) Net() float64 { return t.PnL - t.Fees }

// BalancePoint is one sample of the balance history, recorded once per
// simulated step.
type BalancePoint struct {
	Time    time.Time
	Balance float64
}

// Journal receives trade and balance records from a run.
type Journal interface {
	RecordTrade(Trade) error
	RecordBalance(BalancePoint) error
	Close() error
}

// Memory is the in-run journal: plain slices, no I/O. Each trader owns
// one, so no locking is needed.
type Memory struct {
	trades  []Trade
	balance []BalancePoint
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) RecordTrade(t Trade) error {
	m.trades = append(m.trades, t)
	return nil
}

func (m *Memory) RecordBalance(b BalancePoint) error {
	m.balance = append(m.balance, b)
	return nil
}

func (m *Memory) Close() error { return nil }

// Trades returns the recorded trades, oldest first.
func (m *Memory) Trades() []Trade { return m.trades }

// BalanceHistory returns the recorded balance samples, oldest first.
func (m *Memory) BalanceHistory() []BalancePoint { return m.balance }

// CopyTo replays every record into another journal, typically a CSV or
// SQLite sink once a run has finished.
func (m *Memory) CopyTo(j Journal) error {
	for _, t := range m.trades {
		if err := j.RecordTrade(t); err != nil {
			return err
		}
	}
	for _, b := range m.balance {
		if err := j.RecordBalance(b); err != nil {
			return err
		}
	}
	return nil
}
