package chart

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/cheds/internal/views"
)

func TestBar(t *testing.T) {
	tests := []struct {
		name    string
		v, peak float64
		width   int
		want    string
	}{
		{"half", 5, 10, 4, "██  "},
		{"full", 10, 10, 4, "████"},
		{"partial", 1, 3, 4, "█▍  "},
		{"zero", 0, 10, 3, "   "},
		{"negative", -2, 10, 3, "   "},
		{"no peak", 1, 0, 2, "  "},
		{"over peak clamps", 20, 10, 2, "██"},
		{"no width", 1, 1, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Bar(tt.v, tt.peak, tt.width))
		})
	}
}

func TestSparkline(t *testing.T) {
	require.Equal(t, "▁▅█", Sparkline([]float64{1, 2, 3}, 10))
	require.Equal(t, "▁█", Sparkline([]float64{1, 1, 3, 3}, 2))
	require.Equal(t, "▁▁", Sparkline([]float64{4, 4}, 5))
	require.Empty(t, Sparkline(nil, 5))
}

func TestRender_Bars(t *testing.T) {
	p := views.Panel{
		Title: "Employees by Institution",
		Kind:  views.KindBar,
		Points: []views.Point{
			{Label: "University One", Value: 30},
			{Label: "U2", Value: 15},
		},
	}
	out := ansi.Strip(Render(p, 60))
	lines := strings.Split(out, "\n")

	require.Len(t, lines, 3)
	require.Equal(t, "Employees by Institution", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "University One "))
	require.True(t, strings.HasSuffix(lines[1], " 30"))
	require.True(t, strings.HasPrefix(lines[2], "U2"+strings.Repeat(" ", 13)))
	for _, l := range lines[1:] {
		require.LessOrEqual(t, lipgloss.Width(l), 60)
	}
	require.Greater(t, strings.Count(lines[1], "█"), strings.Count(lines[2], "█"))
}

func TestRender_PieShowsShare(t *testing.T) {
	p := views.Panel{
		Title:  "Gender Distribution",
		Kind:   views.KindPie,
		Points: []views.Point{{Label: "M", Value: 3}, {Label: "F", Value: 1}},
	}
	out := ansi.Strip(Render(p, 50))
	require.Contains(t, out, "3 (75.0%)")
	require.Contains(t, out, "1 (25.0%)")
}

func TestRender_LineHasSparkline(t *testing.T) {
	p := views.Panel{
		Title:  "Enrollment by Year",
		Kind:   views.KindLine,
		Points: []views.Point{{Label: "2021", Value: 1}, {Label: "2022", Value: 3}},
	}
	lines := strings.Split(ansi.Strip(Render(p, 30)), "\n")
	require.Equal(t, "▁█", lines[1])
}

func TestRender_CompareAddsSecondRowAndLegend(t *testing.T) {
	p := views.Panel{
		Title:   "Revenue vs Expenses by Year",
		Kind:    views.KindLine,
		Unit:    "AED",
		Points:  []views.Point{{Label: "2022", Value: 100}, {Label: "2023", Value: 120}},
		Compare: []views.Point{{Label: "2022", Value: 80}, {Label: "2023", Value: 150}},
		Legend:  []string{"Revenue", "Expenses"},
	}
	lines := strings.Split(ansi.Strip(Render(p, 40)), "\n")

	require.Equal(t, "Revenue vs Expenses by Year (AED)", lines[0])
	require.Len(t, lines, 6)
	require.True(t, strings.HasPrefix(lines[2], "     "))
	require.True(t, strings.HasSuffix(lines[4], " 150"))
	require.Equal(t, "■ Revenue  ■ Expenses", lines[5])
}

func TestRender_Empty(t *testing.T) {
	out := ansi.Strip(Render(views.Panel{Title: "Nothing"}, 20))
	require.Equal(t, "Nothing\nno data", out)
}
