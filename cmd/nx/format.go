package main

import (
	"fmt"
	"strconv"
	"time"
)

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatDate renders an optional date, or "-" when unset.
func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

// formatHours renders hours with one decimal, dropping a trailing .0.
func formatHours(h float64) string {
	s := strconv.FormatFloat(h, 'f', 1, 64)
	if len(s) > 2 && s[len(s)-2:] == ".0" {
		s = s[:len(s)-2]
	}
	return s + "h"
}

// formatWarning renders a warning level for table output.
func formatWarning(level string) string {
	switch level {
	case "critical":
		return "CRITICAL"
	case "high":
		return "high"
	default:
		return "-"
	}
}

// parseID parses a numeric CLI argument.
func parseID(arg string) (uint, error) {
	v, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return uint(v), nil
}
