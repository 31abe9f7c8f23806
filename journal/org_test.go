package journal

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatCycleOrg(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC)
	rec := sampleCycle("01HQZZZZZZZZZZZZZZ12345678", at)

	out := FormatCycleOrg(rec)

	assert.True(t, strings.HasPrefix(out, "** EUR_USD ORDERED: FILLED (12345678)\n"))
	assert.Contains(t, out, ":PROPERTIES:")
	assert.Contains(t, out, ":CYCLE_ID: 01HQZZZZZZZZZZZZZZ12345678")
	assert.Contains(t, out, ":TIME: 2024-03-15T10:30:45Z")
	assert.Contains(t, out, ":BAR_TIME: 2024-03-15T10:25:00Z")
	assert.Contains(t, out, ":UNITS: 31250")
	assert.Contains(t, out, ":STOP_LOSS: 1.10300")
	assert.Contains(t, out, ":ATR: 0.00130")
	assert.Contains(t, out, ":END:")
	assert.Contains(t, out, "*** Review")
	assert.NotContains(t, out, ":ERROR:")
}

func TestFormatCycleOrg_Skip(t *testing.T) {
	t.Parallel()

	rec := CycleRecord{
		CycleID:    "short",
		Instrument: "EUR_USD",
		Time:       time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
		Kind:       "FAILED",
		Reason:     "TRANSIENT_IO",
		Signal:     "NONE",
		Error:      "transient io failure: quote: timeout",
	}
	out := FormatCycleOrg(rec)
	assert.Contains(t, out, "** EUR_USD FAILED: TRANSIENT_IO (short)")
	assert.Contains(t, out, ":ERROR: transient io failure: quote: timeout")
	assert.NotContains(t, out, ":BAR_TIME:")
	assert.NotContains(t, out, ":UNITS:")
}

func TestFormatCyclesOrg(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	out := FormatCyclesOrg([]CycleRecord{sampleCycle("A", at), sampleCycle("B", at)})
	assert.Equal(t, 2, strings.Count(out, ":PROPERTIES:"))
	assert.Contains(t, out, "\n\n\n** EUR_USD")
	assert.Empty(t, FormatCyclesOrg(nil))
}
