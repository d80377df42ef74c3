// Package report writes the session as a markdown document: catalog
// coverage, the per-domain views and the list of loaded products.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/zjrosen/cheds/internal/aggregate"
	"github.com/zjrosen/cheds/internal/catalog"
	"github.com/zjrosen/cheds/internal/format"
	"github.com/zjrosen/cheds/internal/ui/markdown"
	"github.com/zjrosen/cheds/internal/views"
)

// Title heads every report.
const Title = "CHEDS Analytics Report"

// Options tunes the document.
type Options struct {
	Views views.Options
	// Now stamps the report; zero means time.Now.
	Now time.Time
}

// Markdown builds the report for everything src holds.
func Markdown(src aggregate.Source, cat *catalog.Catalog, opts Options) string {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	ov := aggregate.Overview(src, cat)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", Title)
	fmt.Fprintf(&b, "_Generated %s_\n\n", now.Format("2006-01-02 15:04"))

	b.WriteString("## Overview\n\n")
	fmt.Fprintf(&b, "- **Data products loaded:** %s of %s (%s)\n",
		format.Int(ov.TotalProducts), format.Int(ov.CatalogTotal), format.Percent(ov.CatalogCoveragePct))
	fmt.Fprintf(&b, "- **Total records:** %s\n", format.Int(ov.TotalRecords))
	fmt.Fprintf(&b, "- **Total columns:** %s\n", format.Int(ov.TotalColumns))
	fmt.Fprintf(&b, "- **Average records per product:** %s\n", format.Int(ov.AvgRecordsPerProduct))
	fmt.Fprintf(&b, "- **Active domains:** %d\n\n", ov.ActiveDomains)

	b.WriteString("| Domain | Loaded | Coverage | Records | Avg columns |\n")
	b.WriteString("| --- | ---: | ---: | ---: | ---: |\n")
	for _, s := range aggregate.DomainSummaries(src, cat) {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			cell(s.Domain), format.Ratio(s.LoadedCount, s.TotalCount),
			format.Percent(s.CoveragePct), format.Int(s.RecordTotal), format.Fixed1(s.AvgColumns))
	}
	b.WriteString("\n")

	for _, v := range views.BuildAll(src, cat, opts.Views) {
		writeView(&b, v)
	}

	writeProducts(&b, src, cat)
	return b.String()
}

func writeView(b *strings.Builder, v views.View) {
	fmt.Fprintf(b, "## %s\n\n", v.Title)
	if v.Subtitle != "" {
		fmt.Fprintf(b, "_%s_\n\n", v.Subtitle)
	}
	if v.Empty {
		b.WriteString("No data loaded for this domain.\n\n")
		return
	}

	if len(v.Metrics) > 0 {
		b.WriteString("| Metric | Value | |\n| --- | ---: | --- |\n")
		for _, m := range v.Metrics {
			fmt.Fprintf(b, "| %s | %s | %s |\n", cell(m.Label), cell(m.Value), cell(m.Delta))
		}
		b.WriteString("\n")
	}

	section := ""
	for _, p := range v.Panels {
		if p.Section != section && p.Section != "" {
			section = p.Section
			fmt.Fprintf(b, "### %s\n\n", section)
		}
		writePanel(b, p)
	}
}

func writePanel(b *strings.Builder, p views.Panel) {
	title := p.Title
	if p.Unit != "" {
		title += " (" + p.Unit + ")"
	}
	fmt.Fprintf(b, "**%s**\n\n", title)

	if len(p.Compare) > 0 {
		first, second := "A", "B"
		if len(p.Legend) == 2 {
			first, second = p.Legend[0], p.Legend[1]
		}
		fmt.Fprintf(b, "| | %s | %s |\n| --- | ---: | ---: |\n", cell(first), cell(second))
		for i, pt := range p.Points {
			other := ""
			if i < len(p.Compare) {
				other = format.Decimal(p.Compare[i].Value)
			}
			fmt.Fprintf(b, "| %s | %s | %s |\n", cell(pt.Label), format.Decimal(pt.Value), other)
		}
		b.WriteString("\n")
		return
	}

	b.WriteString("| | Value |\n| --- | ---: |\n")
	for _, pt := range p.Points {
		fmt.Fprintf(b, "| %s | %s |\n", cell(pt.Label), format.Decimal(pt.Value))
	}
	b.WriteString("\n")
}

func writeProducts(b *strings.Builder, src aggregate.Source, cat *catalog.Catalog) {
	all := src.All()
	b.WriteString("## Loaded Data Products\n\n")
	if len(all) == 0 {
		b.WriteString("No data products loaded.\n")
		return
	}
	b.WriteString("| Product | File | Domain | Rows | Columns |\n")
	b.WriteString("| --- | --- | --- | ---: | ---: |\n")
	for _, d := range all {
		domain, ok := cat.DomainOf(d.ProductID)
		if !ok {
			domain = "-"
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n",
			cell(d.ProductID), cell(d.Filename), cell(domain), format.Int(d.RowCount), format.Int(d.ColumnCount))
	}
}

// Render formats md for a terminal of the given width.
func Render(md string, width int, style string) (string, error) {
	r, err := markdown.New(width, style)
	if err != nil {
		return "", fmt.Errorf("creating renderer: %w", err)
	}
	return r.Render(md)
}

var cellReplacer = strings.NewReplacer("|", `\|`, "\n", " ", "\r", "")

func cell(s string) string {
	return cellReplacer.Replace(s)
}
