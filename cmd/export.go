package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/cheds/internal/aggregate"
	"github.com/zjrosen/cheds/internal/explorer"
	"github.com/zjrosen/cheds/internal/log"
)

var (
	exportColumns []string
	exportFilters []string
	exportOutput  string
)

var exportCmd = &cobra.Command{
	Use:   "export PRODUCT_ID",
	Short: "Write a filtered view of a data product as CSV",
	Long: `Write the selected columns of a data product, after up to three filters,
as CSV. Filters are "column:value1|value2" to keep rows whose value is one of
the listed values, or "column~text" to keep rows containing text. A column
with at most 50 distinct values, counted after the earlier filters, takes
values; a wider one takes text. A column listed twice is written once.

Example:
  cheds export CHEDS-HR-21 --columns Emp_Gender,Emp_Nationality
  cheds export CHEDS-HR-21 --filter Emp_Gender:F -o women.csv
  cheds export CHEDS-LT-01 --filter "Program_Name~engineering" -o -`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringSliceVar(&exportColumns, "columns", nil, "columns to keep (default: all)")
	exportCmd.Flags().StringArrayVar(&exportFilters, "filter", nil, `filter, "col:v1|v2" or "col~text" (repeatable)`)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", `output file, "-" for stdout (default: <id>_filtered.csv)`)
}

func runExport(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	d, err := aggregate.Product(s.registry, args[0])
	if err != nil {
		return err
	}
	state := explorer.State{ProductID: d.ProductID, Columns: exportColumns}
	state, err = explorer.WithFilters(state, exportFilters)
	if err != nil {
		return err
	}
	if err := explorer.CheckFilters(d, state); err != nil {
		return err
	}
	view, err := explorer.Apply(d, state)
	if err != nil {
		return err
	}

	path := exportOutput
	if path == "" {
		path = explorer.ExportName(d.ProductID)
	}
	var w io.Writer = cmd.OutOrStdout()
	if path != "-" {
		f, err := os.Create(path) //nolint:gosec // G304: user supplied output path
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	if err := explorer.Export(w, view); err != nil {
		return err
	}

	log.Info(log.CatExport, "exported", "product", d.ProductID, "rows", view.NumRows(), "path", path)
	if path != "-" {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", view.NumRows(), path)
	}
	return nil
}
