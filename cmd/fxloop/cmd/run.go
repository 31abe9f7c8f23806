package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the decision loop until interrupted",
	Long: `Run one decision cycle now and then one per poll interval until the
process gets SIGINT or SIGTERM. Cycles never overlap; a bar that was
already processed is skipped.

Example:
  OANDA_TOKEN=... OANDA_ACCOUNT=... fxloop run -c fxloop.yaml`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var runDryRun bool

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "size orders but never send them (overrides the config)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runDryRun {
		cfg.Trading.DryRun = true
	}

	a, err := newApp(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.log.Info().
		Str("granularity", cfg.Trading.Granularity).
		Str("strategy", cfg.Strategy.Name).
		Str("env", cfg.Broker.Env).
		Bool("dry_run", cfg.Trading.DryRun).
		Dur("poll", cfg.LoopConfig().PollInterval).
		Msg("loop starting")

	err = a.engine.Run(ctx)
	if errors.Is(err, context.Canceled) {
		a.log.Info().Msg("loop stopped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loop: %w", err)
	}
	return nil
}
