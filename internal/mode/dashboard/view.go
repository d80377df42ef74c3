package dashboard

import (
	"context"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/cheds/internal/aggregate"
	"github.com/zjrosen/cheds/internal/format"
	"github.com/zjrosen/cheds/internal/mode/shared"
	"github.com/zjrosen/cheds/internal/ui/chart"
	"github.com/zjrosen/cheds/internal/ui/styles"
	"github.com/zjrosen/cheds/internal/views"
)

// Panels go side by side from this content width up.
const twoColumnWidth = 100

func (m Model) renderTabBar() string {
	full := m.tabBarWidth(func(t tab) string { return t.label })
	useShort := full > m.width

	parts := make([]string, len(m.tabs))
	for i, t := range m.tabs {
		label := t.label
		if useShort {
			label = t.short
		}
		style := styles.TabStyle
		if i == m.active {
			style = styles.ActiveTabStyle
		}
		parts[i] = zone.Mark(makeTabZoneID(i), style.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) tabBarWidth(label func(tab) string) int {
	w := 0
	for _, t := range m.tabs {
		w += lipgloss.Width(label(t)) + styles.TabStyle.GetHorizontalPadding()
	}
	return w
}

func (m Model) renderTab(ctx context.Context, t tab) string {
	switch t.kind {
	case tabDomain:
		v, err := m.services.Views.Domain(ctx, t.domain)
		if err != nil {
			return styles.ErrorStyle.Render(err.Error())
		}
		return m.renderDomain(v)
	case tabProducts:
		return m.renderProducts()
	default:
		return m.renderOverview()
	}
}

func (m Model) renderOverview() string {
	reg, cat := m.services.Registry, m.services.Catalog
	ov := aggregate.Overview(reg, cat)

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("CHEDS Analytics Dashboard"))
	b.WriteString("\n")
	b.WriteString(styles.SubtitleStyle.Render("Comprehensive Higher Education Data System"))
	b.WriteString("\n\n")

	if ov.TotalProducts == 0 {
		b.WriteString(styles.WarningStyle.Render("No data loaded."))
		b.WriteString("\n")
		b.WriteString(styles.MutedStyle.Render("Put the CSV data files in the data directory and press r to reload."))
		return b.String()
	}

	b.WriteString(m.renderMetrics([]views.Metric{
		{Label: "Data Products", Value: format.Ratio(ov.TotalProducts, ov.CatalogTotal), Delta: format.Percent(ov.CatalogCoveragePct)},
		{Label: "Total Records", Value: format.Int(ov.TotalRecords)},
		{Label: "Total Columns", Value: format.Int(ov.TotalColumns)},
		{Label: "Avg Records/Product", Value: format.Int(ov.AvgRecordsPerProduct)},
		{Label: "Active Domains", Value: format.Int(ov.ActiveDomains)},
	}))
	b.WriteString("\n\n")

	summaries := aggregate.DomainSummaries(reg, cat)
	rows := make([][]string, 0, len(summaries))
	records := views.Panel{Title: "Records by Domain", Kind: views.KindBar}
	coverage := views.Panel{Title: "Coverage by Domain", Unit: "%", Kind: views.KindBar}
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Domain,
			format.Ratio(s.LoadedCount, s.TotalCount),
			format.Percent(s.CoveragePct),
			format.Int(s.RecordTotal),
			format.Fixed1(s.AvgColumns),
		})
		records.Points = append(records.Points, views.Point{Label: s.Domain, Value: float64(s.RecordTotal)})
		coverage.Points = append(coverage.Points, views.Point{Label: s.Domain, Value: s.CoveragePct})
	}
	b.WriteString(m.renderTable([]string{"Domain", "Loaded", "Coverage", "Records", "Avg Columns"}, rows))
	b.WriteString("\n\n")
	b.WriteString(m.renderPanels([]views.Panel{records, coverage}))
	return b.String()
}

func (m Model) renderDomain(v views.View) string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(v.Title))
	b.WriteString("\n")
	if v.Subtitle != "" {
		b.WriteString(styles.SubtitleStyle.Render(styles.TruncateString(v.Subtitle, m.width)))
		b.WriteString("\n")
	}
	b.WriteString(styles.MutedStyle.Render(format.Ratio(v.Summary.LoadedCount, v.Summary.TotalCount) +
		" data products loaded, " + format.Int(v.Summary.RecordTotal) + " records"))
	b.WriteString("\n\n")

	if v.Empty {
		b.WriteString(styles.WarningStyle.Render("No data loaded for this domain."))
		return b.String()
	}

	if len(v.Metrics) > 0 {
		b.WriteString(m.renderMetrics(v.Metrics))
		b.WriteString("\n")
	}

	// panels are grouped under their section, sections in first-seen order
	var order []string
	bySection := map[string][]views.Panel{}
	for _, p := range v.Panels {
		if _, seen := bySection[p.Section]; !seen {
			order = append(order, p.Section)
		}
		bySection[p.Section] = append(bySection[p.Section], p)
	}
	for _, sec := range order {
		if sec != "" {
			b.WriteString("\n")
			b.WriteString(styles.TitleStyle.Render(sec))
			b.WriteString("\n")
		}
		b.WriteString(m.renderPanels(bySection[sec]))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderMetrics lays out metric cards left to right, wrapping at the
// content width.
func (m Model) renderMetrics(metrics []views.Metric) string {
	var rows []string
	var row []string
	used := 0
	for _, mt := range metrics {
		body := styles.MetricLabelStyle.Render(mt.Label) + "\n" + styles.MetricValueStyle.Render(mt.Value)
		if mt.Delta != "" {
			body += " " + styles.MetricDeltaStyle.Render(mt.Delta)
		}
		card := styles.MetricCardStyle.Render(body)
		w := lipgloss.Width(card)
		if len(row) > 0 && used+w > m.width {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row, used = nil, 0
		}
		row = append(row, card)
		used += w
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderPanels draws charts one per line, or two per line on wide screens.
func (m Model) renderPanels(panels []views.Panel) string {
	if m.width < twoColumnWidth {
		out := make([]string, len(panels))
		for i, p := range panels {
			out[i] = chart.Render(p, m.width)
		}
		return strings.Join(out, "\n\n")
	}

	half := m.width/2 - 2
	cell := lipgloss.NewStyle().Width(half).MarginRight(2)
	var rows []string
	for i := 0; i < len(panels); i += 2 {
		left := cell.Render(chart.Render(panels[i], half))
		if i+1 == len(panels) {
			rows = append(rows, left)
			continue
		}
		right := cell.Render(chart.Render(panels[i+1], half))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	}
	return strings.Join(rows, "\n\n")
}

func (m Model) renderProducts() string {
	all := m.services.Registry.All()

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Data Products"))
	b.WriteString("\n")
	b.WriteString(styles.MutedStyle.Render(format.Int(len(all)) + " loaded"))
	b.WriteString("\n\n")
	if len(all) == 0 {
		b.WriteString(styles.WarningStyle.Render("No data loaded."))
		return b.String()
	}

	clock := m.services.Clock
	if clock == nil {
		clock = shared.RealClock{}
	}
	rows := make([][]string, 0, len(all))
	for _, d := range all {
		domain, ok := m.services.Catalog.DomainOf(d.ProductID)
		if !ok {
			domain = "-"
		}
		q := aggregate.Quality(d)
		rows = append(rows, []string{
			d.ProductID,
			d.Filename,
			domain,
			format.Int(d.RowCount),
			format.Int(d.ColumnCount),
			format.Percent(q.MissingPct),
			format.Int(q.DuplicateRows),
			string(d.Source),
			shared.LoadedAgo(d.LoadedAt, clock),
		})
	}
	b.WriteString(m.renderTable(
		[]string{"Product", "File", "Domain", "Rows", "Columns", "Missing", "Duplicates", "Source", "Loaded"}, rows))
	return b.String()
}

func (m Model) renderTable(headers []string, rows [][]string) string {
	header := lipgloss.NewStyle().Bold(true).Foreground(styles.TextPrimaryColor).Padding(0, 1)
	cell := lipgloss.NewStyle().Foreground(styles.TextSecondaryColor).Padding(0, 1)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.BorderDefaultColor)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	if m.width > 0 {
		t = t.Width(m.width)
	}
	return t.Render()
}

func upper(s string) string {
	return strings.ToUpper(s)
}
