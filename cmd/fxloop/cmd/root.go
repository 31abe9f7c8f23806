package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fxloop",
	Short: "A guarded FX decision loop for OANDA",
	Long: `fxloop watches one instrument on OANDA and makes at most one trading
decision per completed bar.

Each cycle it:
  - fetches candles, the quote and the account
  - computes moving averages and ATR
  - asks the strategy for a signal
  - sizes the position from equity and an ATR stop
  - places a bracket order unless a guard vetoes it

Practice accounts and dry runs are the default. Live trading needs
broker.allow_live in the config.`,
	SilenceUsage: true,
}

var configPath string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (YAML or JSON); defaults plus environment when empty")
}
