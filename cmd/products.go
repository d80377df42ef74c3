package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/cheds/internal/format"
)

var productsJSON bool

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List the loaded data products",
	Args:  cobra.NoArgs,
	RunE:  runProducts,
}

func init() {
	rootCmd.AddCommand(productsCmd)
	productsCmd.Flags().BoolVar(&productsJSON, "json", false, "print JSON instead of a table")
}

type productRow struct {
	ProductID string `json:"product_id"`
	Filename  string `json:"filename"`
	Domain    string `json:"domain,omitempty"`
	Rows      int    `json:"rows"`
	Columns   int    `json:"columns"`
}

func runProducts(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	all := s.registry.All()
	out := make([]productRow, 0, len(all))
	for _, d := range all {
		domain, _ := s.catalog.DomainOf(d.ProductID)
		out = append(out, productRow{
			ProductID: d.ProductID,
			Filename:  d.Filename,
			Domain:    domain,
			Rows:      d.RowCount,
			Columns:   d.ColumnCount,
		})
	}

	if productsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	if len(out) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No data products loaded.")
		return nil
	}
	rows := make([][]string, 0, len(out))
	for _, p := range out {
		domain := p.Domain
		if domain == "" {
			domain = "-"
		}
		rows = append(rows, []string{p.ProductID, p.Filename, domain, format.Int(p.Rows), format.Int(p.Columns)})
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), plainTable([]string{"Product", "File", "Domain", "Rows", "Columns"}, rows))
	return nil
}
