package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/routine-advisor/advisor/internal/catalog"
	"github.com/routine-advisor/advisor/internal/models"
	"github.com/routine-advisor/advisor/internal/selection"
	"github.com/routine-advisor/advisor/internal/storage"
)

const defaultProfile = "default"

type selectOptions struct {
	root    *rootOptions
	profile string
}

func newSelectCmd(opts *rootOptions) *cobra.Command {
	so := &selectOptions{root: opts}

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Inspect or change a profile's selected products",
		Long: `Reads and mutates the selection stored for a CLI profile. Every change is
persisted immediately, the same way a visitor's selection is in the web
interface. Without a subcommand the selection is listed.`,
		Example: `  advisor select
  advisor select toggle 12 --profile morning
  advisor select remove 12 --profile morning
  advisor select clear --profile morning`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return so.run(cmd, nil)
		},
	}
	cmd.PersistentFlags().StringVar(&so.profile, "profile", defaultProfile, "Profile whose selection is used")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the selected products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return so.run(cmd, nil)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle ID",
		Short: "Select a product, or deselect it when already selected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return so.run(cmd, func(ctx context.Context, sel *selection.Store) error {
				_, err := sel.Toggle(ctx, models.ProductID(args[0]))
				return err
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove ID",
		Short: "Deselect a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return so.run(cmd, func(ctx context.Context, sel *selection.Store) error {
				sel.Remove(ctx, models.ProductID(args[0]))
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Deselect every product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return so.run(cmd, func(ctx context.Context, sel *selection.Store) error {
				sel.Clear(ctx)
				return nil
			})
		},
	})

	return cmd
}

// run opens the profile, applies change when set and prints the result
func (so *selectOptions) run(cmd *cobra.Command, change func(context.Context, *selection.Store) error) error {
	cfg := so.root.cfg
	store, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	loader := catalog.NewLoader(cfg.Catalog.Source, catalog.NewClient(nil))
	sel, err := openProfile(cmd.Context(), loader, store, so.profile)
	if err != nil {
		return err
	}

	if change != nil {
		if err := change(cmd.Context(), sel); err != nil {
			return err
		}
	}
	printSelection(cmd.OutOrStdout(), sel.Products())
	return nil
}

// openProfile restores a profile's persisted selection against the catalog
func openProfile(ctx context.Context, loader *catalog.Loader, store storage.KeyValue, profile string) (*selection.Store, error) {
	cat, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	kv := storage.Namespace(store, "profiles", profile)
	return selection.Open(ctx, cat, kv), nil
}

func printSelection(w io.Writer, products []models.Product) {
	if len(products) == 0 {
		_, _ = fmt.Fprintln(w, "No products selected yet.")
		return
	}
	for i, p := range products {
		_, _ = fmt.Fprintf(w, "%d. %s (%s) [%s]\n", i+1, p.Name, p.Brand, p.ID)
	}
}
