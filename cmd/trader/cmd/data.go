package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/jpillora/backoff"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/evotrade/trader/market"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Download candle data from Binance into a candle CSV",
	Long: `Data downloads klines from the Binance spot API and writes them in the
candle CSV format consumed by the backtest command. API credentials are
read from BINANCE_API_KEY / BINANCE_SECRET_KEY (public kline endpoints
work without them).

Example:
  trader data --symbol BTCUSDT --interval 1h --start 2024-01-01 --out btcusdt_h1.csv`,
	RunE: runData,
}

var (
	dlSymbol   string
	dlInterval string
	dlStart    string
	dlEnd      string
	dlOut      string
)

func init() {
	rootCmd.AddCommand(dataCmd)

	dataCmd.Flags().StringVar(&dlSymbol, "symbol", "", "Binance symbol, e.g. BTCUSDT (required)")
	dataCmd.Flags().StringVar(&dlInterval, "interval", "1h", "kline interval (1m, 5m, 15m, 30m, 1h, 4h, 1d)")
	dataCmd.Flags().StringVar(&dlStart, "start", "", "first candle date, YYYY-MM-DD (required)")
	dataCmd.Flags().StringVar(&dlEnd, "end", "", "last candle date, YYYY-MM-DD (default: now)")
	dataCmd.Flags().StringVarP(&dlOut, "out", "o", "", "output CSV path (required)")

	dataCmd.MarkFlagRequired("symbol")
	dataCmd.MarkFlagRequired("start")
	dataCmd.MarkFlagRequired("out")
}

const klinesPerRequest = 1000

func runData(cmd *cobra.Command, args []string) error {
	start, err := time.Parse("2006-01-02", dlStart)
	if err != nil {
		return fmt.Errorf("bad start date %q: %w", dlStart, err)
	}
	end := time.Now().UTC()
	if dlEnd != "" {
		if end, err = time.Parse("2006-01-02", dlEnd); err != nil {
			return fmt.Errorf("bad end date %q: %w", dlEnd, err)
		}
		// Inclusive of the last day
		end = end.Add(24*time.Hour - time.Second)
	}
	if !start.Before(end) {
		return fmt.Errorf("start %s must be before end %s", dlStart, dlEnd)
	}

	client := binance.NewClient(os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_SECRET_KEY"))
	candles, err := downloadKlines(cmd.Context(), client, dlSymbol, dlInterval, start, end)
	if err != nil {
		return err
	}
	if len(candles) == 0 {
		return fmt.Errorf("no candles returned for %s %s", dlSymbol, dlInterval)
	}

	if err := market.WriteCandlesCSV(dlOut, candles); err != nil {
		return err
	}
	fmt.Printf("Wrote %d candles to %s (%s .. %s)\n", len(candles), dlOut,
		candles[0].Date.Format(time.RFC3339), candles[len(candles)-1].Date.Format(time.RFC3339))
	return nil
}

// downloadKlines pages through the kline endpoint from start to end,
// retrying transient failures with exponential backoff.
func downloadKlines(ctx context.Context, client *binance.Client, symbol, interval string, start, end time.Time) ([]market.Candle, error) {
	b := &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    30 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var out []market.Candle
	from := start.UnixMilli()
	endMs := end.UnixMilli()

	for from < endMs {
		klines, err := client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(from).
			EndTime(endMs).
			Limit(klinesPerRequest).
			Do(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			d := b.Duration()
			fmt.Fprintf(os.Stderr, "klines %s: %v, retrying in %s\n", symbol, err, d)
			select {
			case <-time.After(d):
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		b.Reset()

		if len(klines) == 0 {
			break
		}
		for _, k := range klines {
			c, err := klineToCandle(k)
			if err != nil {
				return nil, fmt.Errorf("kline at %d: %w", k.OpenTime, err)
			}
			out = append(out, c)
		}
		from = klines[len(klines)-1].CloseTime + 1
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// klineToCandle parses the string prices exactly, then narrows to
// float64 once for the simulator.
func klineToCandle(k *binance.Kline) (market.Candle, error) {
	var c market.Candle
	c.Date = time.UnixMilli(k.OpenTime).UTC()

	fields := []struct {
		raw string
		dst *float64
	}{
		{k.Open, &c.Open},
		{k.High, &c.High},
		{k.Low, &c.Low},
		{k.Close, &c.Close},
		{k.Volume, &c.Volume},
	}
	for _, f := range fields {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return market.Candle{}, err
		}
		*f.dst = d.InexactFloat64()
	}
	return c, nil
}
