package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantfx/smctrader/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the SQLite trade journal",
	Long: `Query trade records written by backtest runs using the sqlite journal.

Examples:
  smctrader journal run 01JE...  --db runs.db
  smctrader journal today --db runs.db
  smctrader journal day 2026-08-21 --db runs.db`,
}

var journalRunCmd = &cobra.Command{
	Use:   "run <run-id>",
	Short: "List the trades of one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalRun,
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List trades closed today (UTC)",
	Args:  cobra.NoArgs,
	RunE:  runJournalToday,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a specific UTC day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunCmd)
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalDayCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./smctrader.sqlite", "path to SQLite journal DB")
}

func runJournalRun(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	recs, err := j.ListTrades(args[0])
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	printTrades(recs)
	return nil
}

func runJournalToday(cmd *cobra.Command, args []string) error {
	return listDay(time.Now().UTC().Format("2006-01-02"))
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	return listDay(args[0])
}

func listDay(day string) error {
	start, err := time.Parse("2006-01-02", day)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	recs, err := j.ListTradesClosedBetween(start, start.Add(24*time.Hour))
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	printTrades(recs)
	return nil
}

func printTrades(recs []journal.TradeRecord) {
	if len(recs) == 0 {
		fmt.Println("no trades")
		return
	}

	fmt.Printf("%-27s %-8s %-6s %10s %10s %10s %10s  %s\n",
		"TRADE", "INSTR", "SIDE", "ENTRY", "EXIT", "NET P/L", "UNITS", "REASON")
	var net float64
	for _, r := range recs {
		fmt.Printf("%-27s %-8s %-6s %10.5f %10.5f %10.2f %10.0f  %s\n",
			r.TradeID, r.Instrument, r.Direction, r.EntryPrice, r.ExitPrice, r.NetPL, r.Units, r.Reason)
		net += r.NetPL
	}
	fmt.Printf("\n%d trades, net %.2f\n", len(recs), net)
}
