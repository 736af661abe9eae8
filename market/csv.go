package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

var csvHeader = []string{"date", "open", "high", "low", "close", "volume", "spread"}

// LoadCandlesCSV reads a candle series from a CSV file with the header
// date,open,high,low,close,volume,spread. Dates are RFC3339. Rows must be
// in ascending date order.
func LoadCandlesCSV(path string) ([]Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candles file: %w", err)
	}
	defer f.Close()
	return ReadCandles(f)
}

// ReadCandles parses candle rows from r. The first row is expected to be
// a header and is skipped.
func ReadCandles(r io.Reader) ([]Candle, error) {
	cr := csv.NewReader(r)

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read candles: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var out []Candle
	var prev time.Time
	for i, row := range rows[1:] {
		if len(row) < 7 {
			return nil, fmt.Errorf("row %d: expected 7 fields, got %d", i+2, len(row))
		}
		date, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad date %q: %w", i+2, row[0], err)
		}
		if !prev.IsZero() && !date.After(prev) {
			return nil, fmt.Errorf("row %d: dates out of order (%s after %s)", i+2, date, prev)
		}
		prev = date

		vals := make([]float64, 6)
		for j := 1; j < 7; j++ {
			v, err := strconv.ParseFloat(row[j], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d field %q: %w", i+2, csvHeader[j], err)
			}
			vals[j-1] = v
		}
		out = append(out, Candle{
			Date:   date,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
			Spread: vals[5],
		})
	}
	return out, nil
}

// WriteCandlesCSV writes a candle series to path in the format read by
// LoadCandlesCSV.
func WriteCandlesCSV(path string, candles []Candle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create candles file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, c := range candles {
		row := []string{
			c.Date.Format(time.RFC3339),
			fmtFloat(c.Open),
			fmtFloat(c.High),
			fmtFloat(c.Low),
			fmtFloat(c.Close),
			fmtFloat(c.Volume),
			fmtFloat(c.Spread),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
