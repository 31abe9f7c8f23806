package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/moznion/go-optional"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxloop/broker/oanda"
	"github.com/rustyeddy/fxloop/indicators"
	"github.com/rustyeddy/fxloop/logging"
	"github.com/rustyeddy/fxloop/market"
)

var candlesCmd = &cobra.Command{
	Use:   "candles",
	Short: "Download recent candles with the loop's indicators to CSV",
	Long: `Fetch the latest candles for the configured instrument and write them
as CSV together with the fast MA, slow MA and ATR the loop would compute
at each bar. Handy for checking a crossover by eye.

Example:
  fxloop candles -n 500 -o eurusd_m5.csv`,
	Args: cobra.NoArgs,
	RunE: runCandles,
}

var (
	candlesCount        int
	candlesOut          string
	candlesCompleteOnly bool
)

func init() {
	rootCmd.AddCommand(candlesCmd)

	candlesCmd.Flags().IntVarP(&candlesCount, "count", "n", 0, "number of candles (default: trading.candle_count)")
	candlesCmd.Flags().StringVarP(&candlesOut, "out", "o", "-", "output CSV path, - for stdout")
	candlesCmd.Flags().BoolVar(&candlesCompleteOnly, "complete-only", true, "only write complete candles")
}

func runCandles(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Broker.Token == "" {
		return fmt.Errorf("missing token: set OANDA_TOKEN")
	}

	count := candlesCount
	if count == 0 {
		count = cfg.Trading.CandleCount
	}
	if count <= 0 || count > oanda.MaxCandles {
		return fmt.Errorf("count must be in 1..%d, got %d", oanda.MaxCandles, count)
	}

	opts := cfg.OandaOptions()
	opts.Logger = logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	client, err := oanda.NewClient(cfg.Broker.Token, cfg.Broker.AccountID, opts)
	if err != nil {
		return fmt.Errorf("oanda client: %w", err)
	}

	candles, err := client.GetCandles(cmd.Context(), cfg.Trading.Instrument, cfg.Trading.Granularity, count)
	if err != nil {
		return fmt.Errorf("get candles: %w", err)
	}
	if candlesCompleteOnly {
		candles = market.CompleteOnly(candles)
	}

	var out io.Writer = cmd.OutOrStdout()
	if candlesOut != "-" {
		f, err := os.Create(candlesOut)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := writeCandlesCSV(out, cfg.Trading.Instrument, candles, cfg.Indicators()); err != nil {
		return err
	}
	if candlesOut != "-" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d candles to %s\n", len(candles), candlesOut)
	}
	return nil
}

var candlesHeader = []string{"time", "instrument", "open", "high", "low", "close", "volume", "complete", "fast", "slow", "atr"}

// writeCandlesCSV writes one row per candle. Indicator columns hold the
// value as of that bar and stay empty during warm-up.
func writeCandlesCSV(w io.Writer, instrument string, candles []market.Candle, p indicators.Params) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(candlesHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, c := range candles {
		snap := indicators.Compute(candles[:i+1], p)
		row := []string{
			c.Time.UTC().Format(time.RFC3339),
			instrument,
			px(c.Open), px(c.High), px(c.Low), px(c.Close),
			strconv.FormatFloat(c.Volume, 'f', -1, 64),
			strconv.FormatBool(c.Complete),
			optPx(snap.Fast), optPx(snap.Slow), optPx(snap.ATR),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func optPx(v optional.Option[float64]) string {
	if v.IsNone() {
		return ""
	}
	return px(v.Unwrap())
}
