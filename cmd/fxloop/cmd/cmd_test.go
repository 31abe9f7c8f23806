package cmd

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxloop/config"
	"github.com/rustyeddy/fxloop/indicators"
	"github.com/rustyeddy/fxloop/journal"
	"github.com/rustyeddy/fxloop/market"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { configPath = "" })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigInitThenValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fxloop.yaml")

	out, err := execute(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created default configuration")

	out, err = execute(t, "config", "validate", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "EUR_USD M5")
	assert.Contains(t, out, "ma-cross")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "fxloop version")
}

func TestRunNeedsCredentials(t *testing.T) {
	t.Setenv(config.EnvToken, "")
	t.Setenv(config.EnvAccount, "")

	_, err := execute(t, "once", "--dry-run")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestOpenJournal(t *testing.T) {
	dir := t.TempDir()

	j, err := openJournal(config.JournalConfig{Type: "none"})
	require.NoError(t, err)
	assert.Nil(t, j)

	j, err = openJournal(config.JournalConfig{Type: "sqlite", Path: filepath.Join(dir, "a.db")})
	require.NoError(t, err)
	assert.IsType(t, &journal.SQLite{}, j)
	require.NoError(t, j.Close())

	j, err = openJournal(config.JournalConfig{Type: "csv", Path: filepath.Join(dir, "cycles.csv")})
	require.NoError(t, err)
	assert.IsType(t, &journal.CSVJournal{}, j)
	require.NoError(t, j.Close())
	assert.FileExists(t, filepath.Join(dir, "cycles_orders.csv"))

	j, err = openJournal(config.JournalConfig{Type: "both", Path: filepath.Join(dir, "b.db")})
	require.NoError(t, err)
	assert.IsType(t, journal.Multi{}, j)
	require.NoError(t, j.Close())
	assert.FileExists(t, filepath.Join(dir, "b.csv"))

	_, err = openJournal(config.JournalConfig{Type: "parquet"})
	assert.Error(t, err)
}

func TestDayBounds(t *testing.T) {
	start, end, err := dayBounds(time.UTC, "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 24*time.Hour, end.Sub(start))

	_, _, err = dayBounds(time.UTC, "10/03/2024")
	assert.Error(t, err)
}

func TestWriteCandlesCSV(t *testing.T) {
	start := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	var candles []market.Candle
	for i, c := range []float64{1.1000, 1.1010, 1.1020, 1.1030} {
		candles = append(candles, market.Candle{
			Time:     start.Add(time.Duration(i) * 5 * time.Minute),
			Open:     c - 0.0005,
			High:     c + 0.0005,
			Low:      c - 0.0010,
			Close:    c,
			Volume:   100,
			Complete: true,
		})
	}

	var buf bytes.Buffer
	require.NoError(t, writeCandlesCSV(&buf, "EUR_USD", candles, indicators.Params{FastPeriod: 2, SlowPeriod: 3, ATRPeriod: 2}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, candlesHeader, rows[0])

	assert.Equal(t, "2024-01-02T10:00:00Z", rows[1][0])
	assert.Equal(t, "", rows[1][8], "fast MA is undefined on the first bar")
	assert.Equal(t, "1.100500", rows[2][8])
	assert.Equal(t, "", rows[2][9])
	assert.Equal(t, "1.101000", rows[3][9])
	assert.Equal(t, "1.102500", rows[4][8])
	assert.Equal(t, "true", rows[4][7])
}
