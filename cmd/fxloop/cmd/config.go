package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxloop/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage fxloop configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  fxloop config init -o fxloop.yaml
  fxloop config validate -c fxloop.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings: EUR_USD on M5,
practice environment, dry run on. Secrets are not written; set
OANDA_TOKEN and OANDA_ACCOUNT in the environment or a .env file.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load the configuration (file, .env and environment) and check it the
same way run does before the loop starts.`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

var configInitOutput string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "fxloop.yaml", "output config file path")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Created default configuration: %s\n", configInitOutput)
	fmt.Fprintln(w, "\nEdit the file and run with:")
	fmt.Fprintf(w, "  fxloop run -c %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	w := cmd.OutOrStdout()
	src := configPath
	if src == "" {
		src = "defaults"
	}
	fmt.Fprintf(w, "Configuration valid: %s\n", src)
	fmt.Fprintf(w, "  Broker: %s (dry run: %t, credentials: %t)\n",
		cfg.Broker.Env, cfg.Trading.DryRun, cfg.RequireCredentials() == nil)
	fmt.Fprintf(w, "  Market: %s %s, %d candles every %s\n",
		cfg.Trading.Instrument, cfg.Trading.Granularity, cfg.Trading.CandleCount, cfg.Loop.PollInterval)
	fmt.Fprintf(w, "  Strategy: %s (fast %d, slow %d, ATR %d)\n",
		cfg.Strategy.Name, cfg.Strategy.FastPeriod, cfg.Strategy.SlowPeriod, cfg.Strategy.ATRPeriod)
	fmt.Fprintf(w, "  Risk: %.2f%% of equity, stop %.1f ATR, target %.1f ATR\n",
		cfg.Risk.RiskFraction*100, cfg.Risk.StopATRMultiple, cfg.Risk.TargetATRMultiple)
	fmt.Fprintf(w, "  Journal: %s %s\n", cfg.Journal.Type, cfg.Journal.Path)
	return nil
}
