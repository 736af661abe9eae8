package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSVJournal writes trades and balance samples to two CSV files.
type CSVJournal struct {
	trades  *csv.Writer
	balance *csv.Writer
	tf, bf  *os.File
}

func NewCSV(tradesPath, balancePath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	bf, err := os.Create(balancePath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	bw := csv.NewWriter(bf)

	if err := tw.Write([]string{"trade_id", "side", "entry_date", "exit_date", "entry_price", "exit_price", "size", "pnl", "pnl_percent", "pnl_net_percent", "fees", "duration", "reason"}); err != nil {
		return nil, err
	}
	if err := bw.Write([]string{"time", "balance"}); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	bw.Flush()
	if err := bw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{tw, bw, tf, bf}, nil
}

func (j *CSVJournal) RecordTrade(t Trade) error {
	err := j.trades.Write([]string{
		t.ID,
		t.Side.String(),
		t.EntryDate.Format(time.RFC3339),
		t.ExitDate.Format(time.RFC3339),
		f(t.EntryPrice),
		f(t.ExitPrice),
		f(t.Size),
		f(t.PnL),
		f(t.PnLPercent),
		f(t.PnLNetPercent),
		f(t.Fees),
		strconv.Itoa(t.Duration),
		t.Reason,
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordBalance(b BalancePoint) error {
	err := j.balance.Write([]string{
		b.Time.Format(time.RFC3339),
		f(b.Balance),
	})
	if err != nil {
		return err
	}
	j.balance.Flush()
	return j.balance.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.balance.Flush()
	if err := j.balance.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.bf.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
