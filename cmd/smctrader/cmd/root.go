package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "smctrader",
	Short: "Smart-money-concepts signal engine and backtester",
	Long: `smctrader detects SMC/ICT price structure (order blocks, fair value
gaps, liquidity grabs, BOS/CHOCH, kill zones, OTE) on bar data, fuses it
into directional signals, and runs them through a risk-managed execution
simulator with spread, slippage and commission.

Typical workflow:
  smctrader config init -o run.yaml
  smctrader backtest -c run.yaml -b bars.csv
  smctrader journal runs --db runs.db`,
}

// Execute runs the root command tree.
func Execute() error {
	return rootCmd.Execute()
}
