// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatMoney formats an amount with two decimals, thousands separators,
// and the given currency symbol.
// e.g., 1234.5 -> "$1,234.50", -3 -> "-$3.00"
func FormatMoney(d decimal.Decimal, symbol string) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)

	whole, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err == nil {
		whole = FormatNumber(n)
	}

	out := symbol + whole + "." + frac
	if neg {
		return "-" + out
	}
	return out
}

// FormatMoneyShort abbreviates large amounts for tight spaces.
// e.g., 999.99 -> "$999.99", 12500 -> "$12.5K", 2300000 -> "$2.3M"
func FormatMoneyShort(d decimal.Decimal, symbol string) string {
	f := d.Abs().InexactFloat64()
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	switch {
	case f >= 1_000_000:
		return fmt.Sprintf("%s%s%.1fM", sign, symbol, f/1_000_000)
	case f >= 10_000:
		return fmt.Sprintf("%s%s%.1fK", sign, symbol, f/1_000)
	default:
		return FormatMoney(d, symbol)
	}
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatDate renders a record date. Dates in the current year drop the
// year. e.g., "Jun 15", "Dec 3 2025"
func FormatDate(t, now time.Time) string {
	if t.Year() == now.Year() {
		return t.Format("Jan 2")
	}
	return t.Format("Jan 2 2006")
}

// FormatRelativeDay names today and yesterday, falling back to FormatDate.
func FormatRelativeDay(t, now time.Time) string {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	}
	return FormatDate(t, now)
}

// FormatDayOfWeek returns a 3-letter day abbreviation from a weekday number.
func FormatDayOfWeek(weekday int) string {
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	if weekday >= 0 && weekday < 7 {
		return days[weekday]
	}
	return "???"
}
