package utils

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FormatCents formats integer cents as a USD string, e.g. 925 -> "$9.25".
// Money stays in cents everywhere else; this is the display boundary.
func FormatCents(cents int64) string {
	d := decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
	return "$" + d.StringFixed(2)
}

// DollarsToCents converts a major-unit amount (as parsed from client JSON)
// to integer cents, rounding half up to the nearest cent.
func DollarsToCents(dollars float64) int64 {
	return decimal.NewFromFloat(dollars).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FormatDuration renders total seconds as HH:MM:SS for receipts and logs.
func FormatDuration(totalSeconds int64) string {
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
