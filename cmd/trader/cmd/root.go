package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trader",
	Short: "A bar-by-bar trading simulator for strategy evaluation",
	Long: `Trader simulates trading strategies bar by bar over historical data.

It provides tools for:
  - Backtesting decision functions against historical candles
  - Stop-loss, take-profit, trailing-stop and liquidation handling
  - Trade journals, balance history and performance statistics
  - Fitness scoring for strategy evolution
  - Downloading candle data from Binance`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
