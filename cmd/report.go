package cmd

import (
	"fmt"
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/zjrosen/cheds/internal/report"
	"github.com/zjrosen/cheds/internal/ui/markdown"
	"github.com/zjrosen/cheds/internal/views"
)

var (
	reportWidth  int
	reportStyle  string
	reportRaw    bool
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the overview and every domain as a markdown report",
	Long: `Load the data directory and write a report with the overview metrics,
each domain's metrics and charts as tables, and the loaded products.

The report is rendered for the terminal unless --raw is given or the output
is a file.

Example:
  cheds report
  cheds report --raw -o report.md
  cheds report --style light --width 100`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().IntVar(&reportWidth, "width", 100, "wrap width of the rendered report")
	reportCmd.Flags().StringVar(&reportStyle, "style", "", `render style: "dark", "light" or "notty" (default: ui.markdown_style)`)
	reportCmd.Flags().BoolVar(&reportRaw, "raw", false, "print markdown without rendering")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "write the markdown to a file")
}

func runReport(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	md := report.Markdown(s.registry, s.catalog, report.Options{
		Views: views.Options{TopN: cfg.UI.TopN},
	})

	if reportOutput != "" {
		if err := os.WriteFile(reportOutput, []byte(md), 0o644); err != nil { //nolint:gosec // G306: report is not sensitive
			return fmt.Errorf("writing report: %w", err)
		}
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", reportOutput)
		return nil
	}
	if reportRaw {
		_, err := fmt.Fprint(cmd.OutOrStdout(), md)
		return err
	}

	out, err := report.Render(md, reportWidth, reportRenderStyle())
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

// reportRenderStyle picks the flag, then the config, and falls back to
// plain output when stdout has no color support.
func reportRenderStyle() string {
	if reportStyle != "" {
		return reportStyle
	}
	if termenv.NewOutput(os.Stdout).Profile == termenv.Ascii {
		return markdown.StylePlain
	}
	if cfg.UI.MarkdownStyle != "" {
		return cfg.UI.MarkdownStyle
	}
	return markdown.StyleDark
}
