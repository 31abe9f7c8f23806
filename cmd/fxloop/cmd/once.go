package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxloop/loop"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single decision cycle and print the outcome",
	Long: `Run exactly one cycle against the configured account and print what
happened. Useful with --dry-run to see the order the loop would place.

Example:
  fxloop once --dry-run --trades`,
	Args: cobra.NoArgs,
	RunE: runOnce,
}

var (
	onceDryRun bool
	onceTrades bool
)

func init() {
	rootCmd.AddCommand(onceCmd)

	onceCmd.Flags().BoolVar(&onceDryRun, "dry-run", false, "size the order but do not send it")
	onceCmd.Flags().BoolVar(&onceTrades, "trades", false, "list open trades after the cycle")
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if onceDryRun {
		cfg.Trading.DryRun = true
	}

	a, err := newApp(cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	out := a.engine.RunCycle(cmd.Context())
	printOutcome(cmd.OutOrStdout(), out)

	if onceTrades {
		trades, err := a.client.OpenTrades(cmd.Context())
		if err != nil {
			return fmt.Errorf("open trades: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nOpen trades: %d\n", len(trades))
		for _, t := range trades {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s %s %d @ %.5f  SL %.5f  TP %.5f  uPL %.2f\n",
				t.ID, t.Instrument, t.Units, t.Price, t.StopLoss, t.TakeProfit, t.UnrealizedPL)
		}
	}

	if out.Kind == loop.Failed {
		return fmt.Errorf("cycle failed: %w", out.Err)
	}
	return nil
}

func printOutcome(w io.Writer, o loop.Outcome) {
	fmt.Fprintf(w, "Cycle %s (%s)\n", o.CycleID, o.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Result: %s %s\n", o.Kind, o.Reason)
	if !o.BarTime.IsZero() {
		fmt.Fprintf(w, "  Bar: %s\n", o.BarTime.UTC().Format("2006-01-02 15:04"))
	}
	if o.Quote.Bid > 0 {
		fmt.Fprintf(w, "  Quote: %.5f / %.5f\n", o.Quote.Bid, o.Quote.Ask)
	}
	if o.Indicators.Ready() {
		fmt.Fprintf(w, "  Indicators: %s\n", o.Indicators)
	}
	if o.Signal.Reason != "" {
		fmt.Fprintf(w, "  Signal: %s (%s)\n", o.Signal.Direction, o.Signal.Reason)
	}
	if p := o.Plan; p != nil {
		fmt.Fprintf(w, "  Plan: %d units, entry %.5f, stop %.5f, target %.5f, risk %.2f %s\n",
			p.Units, p.Entry, p.Stop, p.Target, p.RiskBudget, o.AccountCurrency)
	}
	if r := o.Order; r != nil && r.Status != "" {
		fmt.Fprintf(w, "  Order: %s at %.5f (order %s, trade %s)\n", r.Status, r.Price, r.OrderID, r.TradeID)
	}
	if o.Err != nil {
		fmt.Fprintf(w, "  Error: %v\n", o.Err)
	}
}
