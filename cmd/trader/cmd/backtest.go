package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/evotrade/trader/backtest"
	"github.com/evotrade/trader/config"
	"github.com/evotrade/trader/indicators"
	"github.com/evotrade/trader/internal/metrics"
	"github.com/evotrade/trader/journal"
	"github.com/evotrade/trader/market"
	"github.com/evotrade/trader/strategy"
	"github.com/evotrade/trader/trader"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a simulation over historical candle data",
	Long: `Backtest drives a decision function bar by bar over a candle CSV and
reports the resulting statistics, fitness and score.

Supported strategies:
  - noop: always holds (baseline test)
  - open-once: opens a single long on the first decision
  - ma-cross: moving-average crossover on the fast/slow features

Example:
  trader backtest -c config.yaml --candles data/eurusd_h1.csv -s ma-cross`,
	RunE: runBacktest,
}

var (
	btConfigPath  string
	btCandlesPath string
	btDBPath      string
	btTradesCSV   string
	btBalanceCSV  string
	btStrategy    string
	btFast        int
	btSlow        int
	btATRPeriod   int
	btCloseEnd    bool
	btMetricsAddr string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "c", "", "path to YAML or JSON run configuration (required)")
	backtestCmd.Flags().StringVar(&btCandlesPath, "candles", "", "path to candle CSV (date,open,high,low,close,volume,spread) (required)")
	backtestCmd.Flags().StringVarP(&btDBPath, "db", "d", "", "path to SQLite journal DB (optional)")
	backtestCmd.Flags().StringVar(&btTradesCSV, "trades-csv", "", "path to write closed trades CSV (optional)")
	backtestCmd.Flags().StringVar(&btBalanceCSV, "balance-csv", "", "path to write balance history CSV (optional)")

	backtestCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "noop", "strategy name (noop, open-once, ma-cross)")
	backtestCmd.Flags().IntVar(&btFast, "fast", 20, "ma-cross: fast MA period")
	backtestCmd.Flags().IntVar(&btSlow, "slow", 50, "ma-cross: slow MA period")
	backtestCmd.Flags().IntVar(&btATRPeriod, "atr", 14, "ATR period for the atr vision feature (0 disables)")
	backtestCmd.Flags().BoolVar(&btCloseEnd, "close-end", true, "close any open position at the last bar")
	backtestCmd.Flags().StringVar(&btMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (optional)")

	backtestCmd.MarkFlagRequired("config")
	backtestCmd.MarkFlagRequired("candles")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(btConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	candles, err := market.LoadCandlesCSV(btCandlesPath)
	if err != nil {
		return fmt.Errorf("load candles: %w", err)
	}

	if btMetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(btMetricsAddr, mux); err != nil {
				log.Printf("metrics server: %v", err)
			}
		}()
	}

	tf := cfg.Strategy.Timeframe
	series := map[string][]float64{
		fmt.Sprintf("ma_%d", btFast): indicators.MASeries(candles, btFast),
		fmt.Sprintf("ma_%d", btSlow): indicators.MASeries(candles, btSlow),
	}
	if btATRPeriod > 0 {
		series[fmt.Sprintf("atr_%d", btATRPeriod)] = indicators.ATRSeries(candles, btATRPeriod)
	}

	feed, err := backtest.NewFeed(tf,
		map[market.Timeframe][]market.Candle{tf: candles},
		market.IndicatorsData{tf: series},
	)
	if err != nil {
		return fmt.Errorf("feed: %w", err)
	}
	if !cfg.Training.TrainingStart.IsZero() || !cfg.Training.TrainingEnd.IsZero() {
		feed.WithRange(cfg.Training.TrainingStart, cfg.Training.TrainingEnd)
	}

	decider, err := strategy.ByName(btStrategy)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	tr, err := trader.New(decider, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Running backtest with strategy: %s\n", btStrategy)
	fmt.Printf("  Symbol: %s  Timeframe: %s\n", cfg.General.Symbol, tf)
	fmt.Printf("  Candles: %s (%d bars)\n\n", btCandlesPath, len(candles))

	res, err := backtest.Run(context.Background(), tr, feed, backtest.Options{CloseEnd: btCloseEnd})
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	if err := exportRun(tr, res); err != nil {
		return err
	}

	printResult(res)
	return nil
}

func exportRun(tr *trader.Trader, res backtest.Result) error {
	if btDBPath != "" {
		j, err := journal.NewSQLite(btDBPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer j.Close()
		if err := backtest.Export(tr, res, j); err != nil {
			return fmt.Errorf("export db: %w", err)
		}
	}

	if btTradesCSV != "" || btBalanceCSV != "" {
		if btTradesCSV == "" || btBalanceCSV == "" {
			return fmt.Errorf("trades-csv and balance-csv must be set together")
		}
		j, err := journal.NewCSV(btTradesCSV, btBalanceCSV)
		if err != nil {
			return fmt.Errorf("open csv journal: %w", err)
		}
		defer j.Close()
		if err := backtest.Export(tr, res, j); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
	}
	return nil
}

func printResult(res backtest.Result) {
	fmt.Printf("\nBacktest Complete! (run %s)\n", res.RunID)
	fmt.Printf("  Period: %s .. %s (%d steps)\n",
		res.Start.Format("2006-01-02"), res.End.Format("2006-01-02"), res.Steps)
	fmt.Printf("  Final Balance: %.2f\n", res.FinalBalance)
	fmt.Printf("  Trades: %d  Win Rate: %.1f%%  Profit Factor: %.2f\n",
		res.Stats.TotalTrades, res.Stats.WinRate, res.Stats.ProfitFactor)
	fmt.Printf("  Max Drawdown: %.2f%%  Return: %.2f%%\n",
		res.Stats.MaxDrawdown, res.Stats.TotalReturn)
	fmt.Printf("  Fitness: %.4f  Score: %.2f\n", res.Fitness, res.Score)
	if res.Dead {
		fmt.Printf("  Trader died: %s\n", res.DeathReason)
	}
	for k, v := range res.Details {
		fmt.Printf("    %s: %s\n", k, v)
	}
}
