package explore

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/zjrosen/cheds/internal/explorer"
	"github.com/zjrosen/cheds/internal/format"
	"github.com/zjrosen/cheds/internal/ui/styles"
)

// header lines above the viewport plus the input line below it
const chromeLines = 5

// maxCellWidth keeps one wide column from pushing the rest off screen.
const maxCellWidth = 32

// View renders the explorer.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.inputFor != inputNone {
		b.WriteString(m.input.View())
	}
	return b.String()
}

func (m Model) renderHeader() string {
	if len(m.products) == 0 {
		return styles.TitleStyle.Render("Data Explorer") + "\n" +
			styles.WarningStyle.Render("No data loaded.") + "\n\n"
	}
	d := m.dataset()
	s := m.state()

	title := fmt.Sprintf("Data Explorer · %s", m.currentID())
	pos := styles.MutedStyle.Render(fmt.Sprintf(" (%d/%d) %s", m.index+1, len(m.products), d.Filename))

	filters := make([]string, 0, len(s.Filters))
	for _, f := range s.ActiveFilters() {
		filters = append(filters, f.String())
	}
	filterLine := "Filters: none"
	if len(filters) > 0 {
		filterLine = "Filters: " + strings.Join(filters, ", ")
	}
	colLine := fmt.Sprintf("Columns: %d of %d selected", len(s.Columns), d.ColumnCount)
	if len(s.Columns) == 0 {
		colLine = fmt.Sprintf("Columns: all %d", d.ColumnCount)
	}

	counts := ""
	if m.view != nil {
		counts = fmt.Sprintf("Showing %s of %s rows (%s before filters)",
			format.Int(m.preview.NumRows()), format.Int(m.view.NumRows()), format.Int(d.RowCount))
	}
	if m.err != nil {
		counts = styles.WarningStyle.Render(m.err.Error())
	}
	switch m.inputFor {
	case inputFilterValues:
		counts = fmt.Sprintf("%s values: %s", m.filterColumn, strings.Join(m.choices, " | "))
	case inputFilterText:
		counts = fmt.Sprintf("%s has more than %d values, filter by text", m.filterColumn, explorer.ValueSetLimit)
	}

	return styles.TitleStyle.Render(title) + pos + "\n" +
		styles.TruncateString(filterLine, m.width) + "\n" +
		styles.TruncateString(colLine, m.width) + "\n" +
		styles.MutedStyle.Render(styles.TruncateString(counts, m.width))
}

// render refreshes the viewport from the current preview.
func (m *Model) render() {
	m.viewport.Height = max(m.height-chromeLines, 1)
	if m.preview == nil {
		m.viewport.SetContent("")
		return
	}
	cols := m.preview.Columns()
	rows := m.preview.Rows()
	for _, r := range rows {
		for j := range r {
			r[j] = styles.TruncateString(r[j], maxCellWidth)
		}
	}
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = styles.TruncateString(c, maxCellWidth)
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(styles.TextPrimaryColor).Padding(0, 1)
	cell := lipgloss.NewStyle().Foreground(styles.TextSecondaryColor).Padding(0, 1)
	t := ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.BorderDefaultColor)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return header
			}
			return cell
		})
	m.viewport.SetContent(t.Render())
}
