package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatCycleOrg renders a CycleRecord as an Org-mode block. Structured
// facts go in a PROPERTIES drawer so they stay searchable.
func FormatCycleOrg(c CycleRecord) string {
	heading := fmt.Sprintf("** %s %s: %s (%s)", c.Instrument, c.Kind, c.Reason, shortID(c.CycleID))

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":CYCLE_ID: %s\n", c.CycleID))
	b.WriteString(fmt.Sprintf(":TIME: %s\n", c.Time.UTC().Format(time.RFC3339)))
	if !c.BarTime.IsZero() {
		b.WriteString(fmt.Sprintf(":BAR_TIME: %s\n", c.BarTime.UTC().Format(time.RFC3339)))
	}
	b.WriteString(fmt.Sprintf(":KIND: %s\n", c.Kind))
	b.WriteString(fmt.Sprintf(":REASON: %s\n", c.Reason))
	b.WriteString(fmt.Sprintf(":SIGNAL: %s\n", c.Signal))
	if c.Bid > 0 {
		b.WriteString(fmt.Sprintf(":BID: %.5f\n", c.Bid))
		b.WriteString(fmt.Sprintf(":ASK: %.5f\n", c.Ask))
	}
	if c.ATR > 0 {
		b.WriteString(fmt.Sprintf(":FAST: %.5f\n", c.Fast))
		b.WriteString(fmt.Sprintf(":SLOW: %.5f\n", c.Slow))
		b.WriteString(fmt.Sprintf(":ATR: %.5f\n", c.ATR))
	}
	if c.Units != 0 {
		b.WriteString(fmt.Sprintf(":UNITS: %d\n", c.Units))
		b.WriteString(fmt.Sprintf(":ENTRY: %.5f\n", c.Entry))
		b.WriteString(fmt.Sprintf(":STOP_LOSS: %.5f\n", c.StopLoss))
		b.WriteString(fmt.Sprintf(":TAKE_PROFIT: %.5f\n", c.TakeProfit))
	}
	if c.Error != "" {
		b.WriteString(fmt.Sprintf(":ERROR: %s\n", c.Error))
	}
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Review\n- \n")

	return b.String()
}

// FormatCyclesOrg renders multiple cycles separated by blank lines.
func FormatCyclesOrg(cycles []CycleRecord) string {
	var b strings.Builder
	for i, c := range cycles {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatCycleOrg(c))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[len(full)-8:]
}
