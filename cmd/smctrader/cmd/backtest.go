package cmd

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quantfx/smctrader/config"
	"github.com/quantfx/smctrader/feed"
	"github.com/quantfx/smctrader/journal"
	"github.com/quantfx/smctrader/sim"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run the confluence strategy over historical bars",
	Long: `Backtest replays a CSV of OHLCV bars through the signal engine and
execution simulator, writing the trade ledger, equity curve and metrics to
the configured journal.

Example:
  smctrader backtest -c run.yaml -b data/eurusd_m5.csv`,
	RunE: runBacktest,
}

var (
	btConfigPath string
	btBarsPath   string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "c", "", "path to config file (required)")
	backtestCmd.Flags().StringVarP(&btBarsPath, "bars", "b", "", "path to bar CSV: timestamp,open,high,low,close[,volume] (required)")
	backtestCmd.MarkFlagRequired("config")
	backtestCmd.MarkFlagRequired("bars")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(btConfigPath)
	if err != nil {
		return err
	}

	simCfg, err := cfg.SimConfig()
	if err != nil {
		return err
	}

	jnl, err := newJournal(cfg.Journal)
	if err != nil {
		return err
	}
	defer jnl.Close()

	f, err := feed.OpenCSV(btBarsPath)
	if err != nil {
		return err
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := sim.NewEngine(simCfg, sim.NewSMCStrategy(cfg.SignalConfig()), jnl)

	fmt.Printf("Backtesting %s over %s\n\n", simCfg.Instrument, btBarsPath)
	res, err := engine.Run(ctx, f)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	printResult(res)
	return nil
}

// newJournal builds the journal named by the validated config.
func newJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "", "none":
		return journal.Discard{}, nil
	case "csv":
		return journal.NewCSV(jc.TradesFile, jc.EquityFile, jc.MetricsFile)
	case "sqlite":
		return journal.NewSQLite(jc.DBPath)
	}
	return nil, fmt.Errorf("unsupported journal type %q", jc.Type)
}

func printResult(res *sim.Result) {
	m := res.Metrics

	fmt.Printf("Backtest complete (run %s)\n", res.RunID)
	fmt.Printf("  Bars:          %d\n", len(res.Equity))
	fmt.Printf("  Trades:        %d (%d wins / %d losses)\n", m.TotalTrades, m.Wins, m.Losses)
	fmt.Printf("  Win rate:      %.1f%%\n", m.WinRate*100)
	if math.IsInf(m.ProfitFactor, 1) {
		fmt.Printf("  Profit factor: inf\n")
	} else {
		fmt.Printf("  Profit factor: %.2f\n", m.ProfitFactor)
	}
	fmt.Printf("  Net profit:    %.2f\n", m.NetProfit)
	fmt.Printf("  Max drawdown:  %.2f%%\n", m.MaxDrawdown*100)
	fmt.Printf("  Sharpe:        %.2f\n", m.Sharpe)
	fmt.Printf("  Equity:        %.2f -> %.2f\n", res.InitialEquity, res.FinalEquity)
}
