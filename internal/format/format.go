// Package format renders metric values for display.
package format

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Currency is the unit shown with monetary totals.
const Currency = "AED"

// Int renders n with thousands separators: 12345 -> "12,345".
func Int(n int) string {
	return humanize.Comma(int64(n))
}

// Whole truncates f toward zero and renders it with separators.
func Whole(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "-"
	}
	return humanize.Comma(int64(f))
}

// Decimal renders f with one decimal place and separators.
func Decimal(f float64) string {
	return humanize.CommafWithDigits(math.Round(f*10)/10, 1)
}

// Fixed1 renders f with exactly one decimal place: 3 -> "3.0".
func Fixed1(f float64) string {
	return fmt.Sprintf("%.1f", f)
}

// Percent renders f as a one-decimal percentage: 12.345 -> "12.3%".
func Percent(f float64) string {
	return fmt.Sprintf("%.1f%%", f)
}

// PercentWhole renders f as a whole percentage: 4.87 -> "5%".
func PercentWhole(f float64) string {
	return fmt.Sprintf("%.0f%%", f)
}

// Money renders a monetary total truncated to whole units.
func Money(f float64) string {
	return Currency + " " + Whole(f)
}

// Compact renders large values with an SI suffix for chart labels:
// 1234567 -> "1.2M". Values under 1000 are rendered whole.
func Compact(f float64) string {
	if math.Abs(f) < 1000 {
		if f == math.Trunc(f) {
			return humanize.Comma(int64(f))
		}
		return Fixed1(f)
	}
	v, prefix := humanize.ComputeSI(f)
	s := humanize.FtoaWithDigits(v, 1)
	return s + strings.ToUpper(strings.TrimSpace(prefix))
}

// Ago renders a load timestamp relative to now: "3 minutes ago".
func Ago(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// Ratio renders "part/whole".
func Ratio(part, whole int) string {
	return fmt.Sprintf("%d/%d", part, whole)
}
