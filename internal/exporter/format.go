package exporter

import (
	"fmt"
)

// formatShare formats a percentage share for listing output with exactly
// 2 decimal places, so 13.4 appears as 13.40%
func formatShare(f float64) string {
	return fmt.Sprintf("%.2f%%", f)
}

// formatInt formats an int64 count for CSV output
func formatInt(i int64) string {
	return fmt.Sprintf("%d", i)
}
