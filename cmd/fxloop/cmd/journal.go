package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxloop/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the decision journal",
	Long: `Query and display cycle and order records from the SQLite journal.

Subcommands:
  cycle  - Show one cycle by ID
  recent - List the most recent cycles
  orders - List orders placed on a day
  stats  - Count cycles by outcome

Examples:
  fxloop journal recent -n 20
  fxloop journal orders 2024-01-15`,
}

var journalCycleCmd = &cobra.Command{
	Use:   "cycle <cycle-id>",
	Short: "Show one cycle",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalCycle,
}

var journalRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recent cycles",
	Args:  cobra.NoArgs,
	RunE:  runJournalRecent,
}

var journalOrdersCmd = &cobra.Command{
	Use:   "orders [YYYY-MM-DD]",
	Short: "List orders placed on a day (today by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runJournalOrders,
}

var journalStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count cycles by outcome",
	Args:  cobra.NoArgs,
	RunE:  runJournalStats,
}

var (
	journalDBPath string
	journalLimit  int
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalCycleCmd)
	journalCmd.AddCommand(journalRecentCmd)
	journalCmd.AddCommand(journalOrdersCmd)
	journalCmd.AddCommand(journalStatsCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./fxloop.db", "path to SQLite journal DB")
	journalRecentCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "number of cycles to list")
}

func runJournalCycle(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetCycle(args[0])
	if err != nil {
		return fmt.Errorf("get cycle: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatCycleOrg(rec))
	return nil
}

func runJournalRecent(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	recs, err := j.ListRecentCycles(journalLimit)
	if err != nil {
		return fmt.Errorf("query cycles: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatCyclesOrg(recs))
	return nil
}

func runJournalOrders(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	loc := time.Local
	day := time.Now().In(loc).Format("2006-01-02")
	if len(args) == 1 {
		day = args[0]
	}
	start, end, err := dayBounds(loc, day)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	orders, err := j.ListOrdersBetween(start, end)
	if err != nil {
		return fmt.Errorf("query orders: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "* Orders %s (%d)\n", day, len(orders))
	for _, o := range orders {
		fmt.Fprintf(w, "- %s %s %s %d @ %.5f SL %.5f TP %.5f [%s]\n",
			o.Time.In(loc).Format("15:04:05"), o.Instrument, o.Side, o.Units, o.Price, o.StopLoss, o.TakeProfit, o.Status)
	}
	return nil
}

func runJournalStats(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	counts, err := j.CountByKind()
	if err != nil {
		return fmt.Errorf("count cycles: %w", err)
	}

	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	w := cmd.OutOrStdout()
	for _, k := range kinds {
		fmt.Fprintf(w, "%-10s %d\n", k, counts[k])
	}
	return nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start, end, nil
}
