// Package chart draws view panels as text: horizontal bars for rankings,
// shares and distributions, a sparkline over trends, and paired bars for
// comparisons.
package chart

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/zjrosen/cheds/internal/aggregate"
	"github.com/zjrosen/cheds/internal/format"
	"github.com/zjrosen/cheds/internal/ui/styles"
	"github.com/zjrosen/cheds/internal/views"
)

const (
	fullBlock   = "█"
	maxLabel    = 28
	minBarWidth = 4
)

// partial blocks in eighths, index 1..7
var eighths = []string{"", "▏", "▎", "▍", "▌", "▋", "▊", "▉"}

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

// Render draws p in at most width cells. The first line is the title.
func Render(p views.Panel, width int) string {
	var b strings.Builder
	title := p.Title
	if p.Unit != "" {
		title += " (" + p.Unit + ")"
	}
	b.WriteString(styles.TitleStyle.Render(styles.TruncateString(title, width)))

	if len(p.Points) == 0 {
		b.WriteString("\n")
		b.WriteString(styles.MutedStyle.Render("no data"))
		return b.String()
	}

	if p.Kind == views.KindLine && len(p.Compare) == 0 {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(styles.SeriesColor(0)).
			Render(Sparkline(values(p.Points), width)))
	}

	for _, line := range rows(p, width) {
		b.WriteString("\n")
		b.WriteString(line)
	}

	if len(p.Compare) > 0 && len(p.Legend) > 0 {
		b.WriteString("\n")
		b.WriteString(legend(p.Legend))
	}
	return b.String()
}

func rows(p views.Panel, width int) []string {
	labelW := 0
	for _, pt := range p.Points {
		labelW = max(labelW, runewidth.StringWidth(pt.Label))
	}
	labelW = min(labelW, maxLabel, max(width/3, 4))

	total := 0.0
	if p.Kind == views.KindPie {
		for _, pt := range p.Points {
			total += math.Max(pt.Value, 0)
		}
	}

	text := func(pt views.Point) string {
		s := format.Compact(pt.Value)
		if p.Kind == views.KindPie && total > 0 {
			s += " (" + format.Percent(aggregate.Percentage(pt.Value, total)) + ")"
		}
		return s
	}

	peak := 0.0
	valueW := 0
	for _, pt := range p.Points {
		peak = math.Max(peak, pt.Value)
		valueW = max(valueW, runewidth.StringWidth(text(pt)))
	}
	for _, pt := range p.Compare {
		peak = math.Max(peak, pt.Value)
		valueW = max(valueW, runewidth.StringWidth(format.Compact(pt.Value)))
	}

	barW := max(width-labelW-valueW-2, minBarWidth)
	first := lipgloss.NewStyle().Foreground(styles.SeriesColor(0))
	second := lipgloss.NewStyle().Foreground(styles.SeriesColor(1))

	out := make([]string, 0, len(p.Points)*2)
	for i, pt := range p.Points {
		label := styles.PadRight(styles.TruncateString(pt.Label, labelW), labelW)
		out = append(out, label+" "+first.Render(Bar(pt.Value, peak, barW))+" "+text(pt))
		if i < len(p.Compare) {
			c := p.Compare[i]
			out = append(out, strings.Repeat(" ", labelW)+" "+second.Render(Bar(c.Value, peak, barW))+" "+format.Compact(c.Value))
		}
	}
	return out
}

// Bar returns a bar for v scaled so that peak fills width cells, padded to
// width. Non-positive values and peaks draw an empty bar.
func Bar(v, peak float64, width int) string {
	if width <= 0 {
		return ""
	}
	if v <= 0 || peak <= 0 || math.IsNaN(v) {
		return strings.Repeat(" ", width)
	}
	units := int(math.Round(math.Min(v/peak, 1) * float64(width*8)))
	full, rem := units/8, units%8
	s := strings.Repeat(fullBlock, full) + eighths[rem]
	return runewidth.FillRight(s, width)
}

// Sparkline compresses vals into at most width ticks, averaging buckets
// when there are more values than cells.
func Sparkline(vals []float64, width int) string {
	if len(vals) == 0 || width <= 0 {
		return ""
	}
	if len(vals) > width {
		vals = resample(vals, width)
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	out := make([]rune, len(vals))
	for i, v := range vals {
		idx := 0
		if hi > lo {
			idx = int(math.Round((v - lo) / (hi - lo) * float64(len(sparkTicks)-1)))
		}
		out[i] = sparkTicks[idx]
	}
	return string(out)
}

func resample(vals []float64, n int) []float64 {
	out := make([]float64, n)
	for i := range n {
		from := i * len(vals) / n
		to := max((i+1)*len(vals)/n, from+1)
		sum := 0.0
		for _, v := range vals[from:to] {
			sum += v
		}
		out[i] = sum / float64(to-from)
	}
	return out
}

func values(pts []views.Point) []float64 {
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.Value
	}
	return out
}

func legend(names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = lipgloss.NewStyle().Foreground(styles.SeriesColor(i)).Render("■") + " " + n
	}
	return styles.MutedStyle.Render(strings.Join(parts, "  "))
}
