package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/zjrosen/cheds/internal/aggregate"
	"github.com/zjrosen/cheds/internal/catalog"
	"github.com/zjrosen/cheds/internal/format"
)

var overviewJSON bool

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Print catalog coverage and per-domain totals",
	Long: `Load the data directory and print the overview metrics and one row per
CHEDS domain.

Example:
  cheds overview
  cheds overview --json
  cheds overview -d ./exports`,
	Args: cobra.NoArgs,
	RunE: runOverview,
}

func init() {
	rootCmd.AddCommand(overviewCmd)
	overviewCmd.Flags().BoolVar(&overviewJSON, "json", false, "print JSON instead of a table")
}

type overviewOutput struct {
	Overview aggregate.OverviewMetrics `json:"overview"`
	Domains  []aggregate.Summary       `json:"domains"`
}

func runOverview(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	out := overviewOutput{
		Overview: aggregate.Overview(s.registry, s.catalog),
		Domains:  aggregate.DomainSummaries(s.registry, s.catalog),
	}
	if overviewJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	writeOverview(cmd.OutOrStdout(), s.catalog, out)
	return nil
}

func writeOverview(w io.Writer, cat *catalog.Catalog, out overviewOutput) {
	o := out.Overview
	_, _ = fmt.Fprintf(w, "Data products loaded:  %s of %s (%s)\n",
		format.Int(o.TotalProducts), format.Int(o.CatalogTotal), format.Percent(o.CatalogCoveragePct))
	_, _ = fmt.Fprintf(w, "Total records:         %s\n", format.Int(o.TotalRecords))
	_, _ = fmt.Fprintf(w, "Total columns:         %s\n", format.Int(o.TotalColumns))
	_, _ = fmt.Fprintf(w, "Avg records/product:   %s\n", format.Int(o.AvgRecordsPerProduct))
	_, _ = fmt.Fprintf(w, "Active domains:        %d of %d\n\n", o.ActiveDomains, len(cat.Domains()))

	rows := make([][]string, 0, len(out.Domains))
	for _, d := range out.Domains {
		rows = append(rows, []string{
			d.Domain,
			fmt.Sprintf("%d/%d", d.LoadedCount, d.TotalCount),
			format.Int(d.RecordTotal),
			format.Percent(d.CoveragePct),
		})
	}
	_, _ = fmt.Fprintln(w, plainTable([]string{"Domain", "Products", "Records", "Coverage"}, rows))
}

// plainTable renders rows for a pipe-friendly terminal listing.
func plainTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderColumn(false).
		BorderLeft(false).
		BorderRight(false).
		BorderTop(false).
		BorderBottom(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(_, _ int) lipgloss.Style {
			return lipgloss.NewStyle().PaddingRight(2)
		}).
		String()
}
