package utils

import (
	"fmt"
	"strconv"
	"time"
)

// NotAvailable is written wherever a statistic is absent.
const NotAvailable = "N/A"

// FormatMillis renders a value with two decimals, or N/A when absent.
func FormatMillis(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f", *v)
}

// FormatRaw renders a value with the shortest exact representation, or N/A.
func FormatRaw(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// FormatDuration returns a compact human-readable duration.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}
