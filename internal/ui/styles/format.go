package styles

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
)

// TruncateString shortens s to at most maxWidth cells, ending in "..."
// when anything was cut. Escape sequences are not counted.
func TruncateString(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	if maxWidth <= 3 {
		if runewidth.StringWidth(s) <= maxWidth {
			return s
		}
		return strings.Repeat(".", maxWidth)
	}
	return truncate.StringWithTail(s, uint(maxWidth), "...")
}

// PadRight pads s with spaces to width cells. Wider strings are returned
// unchanged.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// PadLeft right-aligns s in width cells.
func PadLeft(s string, width int) string {
	return runewidth.FillLeft(s, width)
}
