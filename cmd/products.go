package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/routine-advisor/advisor/internal/catalog"
	"github.com/routine-advisor/advisor/internal/filter"
)

func newProductsCmd(opts *rootOptions) *cobra.Command {
	var category string
	var search string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List catalog products matching a category and search text",
		Example: `  # Every product
  advisor products

  # Cleansers mentioning "foam"
  advisor products --category cleanser --search foam

  # Machine-readable output
  advisor products --search retinol --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := catalog.NewLoader(opts.cfg.Catalog.Source, catalog.NewClient(nil))
			cat, err := loader.Load(cmd.Context())
			if err != nil {
				return err
			}

			if category == "" {
				category = filter.AllCategories
			}
			products := filter.Apply(cat.Products, filter.Criteria{Category: category, Search: search})

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(products)
			}

			if len(products) == 0 {
				fmt.Fprintln(out, "No products match your search.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tBRAND\tCATEGORY")
			for _, p := range products {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Brand, p.Category)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Category to show (default all)")
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive text matched against name, brand and description")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print products as JSON")

	return cmd
}
