package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/SigNoz/storefront-go-client/internal/app"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/spf13/cobra"
)

func (r *runner) productsCmd() *cobra.Command {
	var search, category string
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products, optionally searching or filtering by category",
		RunE: r.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			var err error
			if search != "" {
				_, err = a.Catalog.Search(cmd.Context(), search)
			} else {
				_, err = a.Catalog.FetchProducts(cmd.Context())
			}
			if err != nil {
				return err
			}

			products := a.Catalog.Products()
			if category != "" {
				products = a.Catalog.FilterByCategory(models.ID(category))
			}
			if r.jsonOut {
				return r.printJSON(cmd.OutOrStdout(), products)
			}
			if len(products) == 0 {
				printf(cmd.OutOrStdout(), "No products found\n")
				return nil
			}
			return printProducts(cmd.OutOrStdout(), products)
		}),
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Search query")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category id")
	return cmd
}

func (r *runner) productCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "product <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: r.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			p, err := a.Catalog.FetchByID(cmd.Context(), models.ID(args[0]))
			if err != nil {
				return err
			}
			if r.jsonOut {
				return r.printJSON(cmd.OutOrStdout(), p)
			}

			w := cmd.OutOrStdout()
			printf(w, "%s (#%s)\n", p.Name, p.ID)
			printf(w, "Price:    $%s\n", p.Price.StringFixed(2))
			printf(w, "Stock:    %d\n", p.Stock)
			printf(w, "Category: %s\n", p.Category)
			if p.Description != "" {
				printf(w, "\n%s\n", p.Description)
			}
			return nil
		}),
	}
}

func (r *runner) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List product categories",
		RunE: r.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			categories, err := a.Catalog.FetchCategories(cmd.Context())
			if err != nil {
				return err
			}
			if r.jsonOut {
				return r.printJSON(cmd.OutOrStdout(), categories)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			for _, c := range categories {
				fmt.Fprintf(tw, "%s\t%s\n", c.ID, c.Name)
			}
			return tw.Flush()
		}),
	}
}
