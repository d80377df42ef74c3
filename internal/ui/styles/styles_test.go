package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "Research", 10, "Research"},
		{"exact", "Research", 8, "Research"},
		{"cut", "Human Resource Management", 10, "Human R..."},
		{"tiny", "Research", 2, ".."},
		{"tiny fits", "ab", 3, "ab"},
		{"zero", "Research", 0, ""},
		{"wide runes", "جامعة الإمارات", 6, "جام..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, TruncateString(tt.in, tt.width))
		})
	}
}

func TestPad(t *testing.T) {
	require.Equal(t, "ab   ", PadRight("ab", 5))
	require.Equal(t, "   ab", PadLeft("ab", 5))
	require.Equal(t, "abcdef", PadRight("abcdef", 3))
}

func TestRenderWithTitleBorder(t *testing.T) {
	out := ansi.Strip(RenderWithTitleBorder("line one\nline two", "Panel", 20, 5, false))
	lines := strings.Split(out, "\n")

	require.Len(t, lines, 5)
	require.True(t, strings.HasPrefix(lines[0], "╭─ Panel "))
	require.True(t, strings.HasSuffix(lines[0], "╮"))
	require.Equal(t, "│line one          │", lines[1])
	require.Equal(t, "│line two          │", lines[2])
	require.Equal(t, "│                  │", lines[3])
	require.Equal(t, "╰"+strings.Repeat("─", 18)+"╯", lines[4])
	for _, l := range lines {
		require.Equal(t, 20, lipgloss.Width(l), "line %q", l)
	}
}

func TestRenderWithTitleBorder_LongTitle(t *testing.T) {
	out := ansi.Strip(RenderWithTitleBorder("", "Revenue vs Expenses by Institution", 16, 3, true))
	top := strings.Split(out, "\n")[0]
	require.Equal(t, 16, lipgloss.Width(top))
	require.Contains(t, top, "...")
}

func TestSeriesColorCycles(t *testing.T) {
	require.Equal(t, SeriesColor(0), SeriesColor(len(ChartPalette)))
}
