package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	borderTopLeft     = "╭"
	borderTopRight    = "╮"
	borderBottomLeft  = "╰"
	borderBottomRight = "╯"
	borderHorizontal  = "─"
	borderVertical    = "│"
)

// RenderWithTitleBorder draws content inside a rounded box of the given
// outer size with title set into the top edge: ╭─ Title ────╮.
// Content is wrapped to the inner width and clipped to the inner height.
func RenderWithTitleBorder(content, title string, width, height int, focused bool) string {
	var borderColor lipgloss.TerminalColor = BorderDefaultColor
	if focused {
		borderColor = BorderFocusColor
	}
	edge := lipgloss.NewStyle().Foreground(borderColor)
	titleStyle := lipgloss.NewStyle().Foreground(TextPrimaryColor).Bold(focused)

	inner := max(width-2, 1)
	rows := max(height-2, 1)

	body := lipgloss.NewStyle().Width(inner).Render(content)
	lines := strings.Split(body, "\n")

	var b strings.Builder
	b.WriteString(topEdge(title, inner, edge, titleStyle))
	for i := range rows {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		b.WriteString("\n")
		b.WriteString(edge.Render(borderVertical))
		b.WriteString(line)
		if pad := inner - lipgloss.Width(line); pad > 0 {
			b.WriteString(strings.Repeat(" ", pad))
		}
		b.WriteString(edge.Render(borderVertical))
	}
	b.WriteString("\n")
	b.WriteString(edge.Render(borderBottomLeft + strings.Repeat(borderHorizontal, inner) + borderBottomRight))
	return b.String()
}

func topEdge(title string, inner int, edge, titleStyle lipgloss.Style) string {
	// "─ " + title + " " + at least one "─"
	if title == "" || inner < 5 {
		return edge.Render(borderTopLeft + strings.Repeat(borderHorizontal, inner) + borderTopRight)
	}
	title = TruncateString(title, inner-4)
	rest := max(inner-3-lipgloss.Width(title), 0)
	return edge.Render(borderTopLeft+borderHorizontal+" ") +
		titleStyle.Render(title) +
		edge.Render(" "+strings.Repeat(borderHorizontal, rest)+borderTopRight)
}
