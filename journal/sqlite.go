package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteJournal persists trades, balance history and run summaries.
// Records written via the Journal interface are tagged with the journal's
// current run ID (set by BeginRun, may be empty).
type SQLiteJournal struct {
	db    *sql.DB
	runID string
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

// BeginRun tags subsequent trade/balance records with runID.
func (j *SQLiteJournal) BeginRun(runID string) { j.runID = runID }

func (j *SQLiteJournal) RecordTrade(t Trade) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, side, entry_date, exit_date, entry_price, exit_price, size, pnl, pnl_percent, pnl_net_percent, fees, duration, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, j.runID, t.Side.String(), t.EntryDate, t.ExitDate, t.EntryPrice,
		t.ExitPrice, t.Size, t.PnL, t.PnLPercent, t.PnLNetPercent, t.Fees,
		t.Duration, t.Reason,
	)
	return err
}

func (j *SQLiteJournal) RecordBalance(b BalancePoint) error {
	_, err := j.db.Exec(`
		INSERT INTO balance_history (run_id, time, balance)
		VALUES (?, ?, ?)`,
		j.runID, b.Time, b.Balance,
	)
	return err
}

// Run is a persisted run summary for the reporting side.
type Run struct {
	RunID          string
	Created        time.Time
	Symbol         string
	Timeframe      string
	Start          time.Time
	End            time.Time
	InitialBalance float64
	FinalBalance   float64
	Fitness        float64
	Score          float64
	Trades         int
	WinRate        float64
	ProfitFactor   float64
	MaxDrawdown    float64
	Dead           bool
	DeathReason    string
}

func (j *SQLiteJournal) RecordRun(r Run) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, symbol, timeframe, start_date, end_date, initial_balance, final_balance, fitness, score, trades, win_rate, profit_factor, max_drawdown, dead, death_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Symbol, r.Timeframe, r.Start, r.End,
		r.InitialBalance, r.FinalBalance, r.Fitness, r.Score, r.Trades,
		r.WinRate, r.ProfitFactor, r.MaxDrawdown, r.Dead, r.DeathReason,
	)
	return err
}

// GetTrade returns a single trade record by ID.
func (j *SQLiteJournal) GetTrade(tradeID string) (Trade, error) {
	row := j.db.QueryRow(`
		SELECT trade_id, side, entry_date, exit_date, entry_price, exit_price, size, pnl, pnl_percent, pnl_net_percent, fees, duration, reason
		FROM trades
		WHERE trade_id = ?`, tradeID)

	t, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return Trade{}, fmt.Errorf("trade %q not found", tradeID)
	}
	return t, err
}

// ListTradesClosedBetween returns trades whose exit_date is within
// [start, end), oldest first.
func (j *SQLiteJournal) ListTradesClosedBetween(start, end time.Time) ([]Trade, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, side, entry_date, exit_date, entry_price, exit_price, size, pnl, pnl_percent, pnl_net_percent, fees, duration, reason
		FROM trades
		WHERE exit_date >= ? AND exit_date < ?
		ORDER BY exit_date ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListBalanceByRun returns a run's balance history, oldest first.
func (j *SQLiteJournal) ListBalanceByRun(runID string) ([]BalancePoint, error) {
	rows, err := j.db.Query(`
		SELECT time, balance FROM balance_history
		WHERE run_id = ?
		ORDER BY time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BalancePoint
	for rows.Next() {
		var b BalancePoint
		if err := rows.Scan(&b.Time, &b.Balance); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(r rowScanner) (Trade, error) {
	var t Trade
	var side string
	err := r.Scan(
		&t.ID, &side, &t.EntryDate, &t.ExitDate, &t.EntryPrice, &t.ExitPrice,
		&t.Size, &t.PnL, &t.PnLPercent, &t.PnLNetPercent, &t.Fees,
		&t.Duration, &t.Reason,
	)
	if err != nil {
		return Trade{}, err
	}
	if side == "short" {
		t.Side = -1
	} else {
		t.Side = 1
	}
	t.Closed = true
	return t, nil
}
