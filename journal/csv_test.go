package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()
	rows, err := csv.NewReader(fh).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournalHeaders(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cyclesPath := filepath.Join(dir, "cycles.csv")
	ordersPath := filepath.Join(dir, "orders.csv")

	j, err := NewCSV(cyclesPath, ordersPath)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	assert.Equal(t, [][]string{cycleHeader}, readCSV(t, cyclesPath))
	assert.Equal(t, [][]string{orderHeader}, readCSV(t, ordersPath))
}

func TestCSVJournalAppends(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cyclesPath := filepath.Join(dir, "cycles.csv")
	ordersPath := filepath.Join(dir, "orders.csv")
	at := time.Date(2024, 1, 2, 10, 6, 3, 0, time.UTC)

	j, err := NewCSV(cyclesPath, ordersPath)
	require.NoError(t, err)
	require.NoError(t, j.RecordCycle(sampleCycle("C1", at)))
	require.NoError(t, j.RecordOrder(OrderRecord{CycleID: "C1", Time: at, Instrument: "EUR_USD", Side: "BUY", Units: 31250, Status: "FILLED", Price: 1.10503}))
	require.NoError(t, j.Close())

	// Reopening keeps earlier rows and does not repeat the header.
	j, err = NewCSV(cyclesPath, ordersPath)
	require.NoError(t, err)
	require.NoError(t, j.RecordCycle(CycleRecord{CycleID: "C2", Instrument: "EUR_USD", Time: at.Add(time.Minute), Kind: "SKIPPED", Reason: "DUPLICATE_BAR", Signal: "NONE"}))
	require.NoError(t, j.Close())

	cycles := readCSV(t, cyclesPath)
	require.Len(t, cycles, 3)
	assert.Equal(t, "C1", cycles[1][0])
	assert.Equal(t, "2024-01-02T10:06:03Z", cycles[1][2])
	assert.Equal(t, "31250", cycles[1][13])
	assert.Equal(t, "1.103000", cycles[1][15])
	assert.Equal(t, "true", cycles[1][18])
	assert.Equal(t, "C2", cycles[2][0])
	assert.Equal(t, "", cycles[2][3], "zero bar time is left empty")

	orders := readCSV(t, ordersPath)
	require.Len(t, orders, 2)
	assert.Equal(t, "FILLED", orders[1][7])
	assert.Equal(t, "1.105030", orders[1][8])
}
