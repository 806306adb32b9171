package cli

import (
	"fmt"
	"strconv"

	"github.com/SigNoz/storefront-go-client/internal/app"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/SigNoz/storefront-go-client/internal/report"
	"github.com/spf13/cobra"
)

func (r *runner) cartCmd() *cobra.Command {
	cart := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the cart",
		RunE:  r.withApp(r.showCart),
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show the cart with totals",
		RunE:  r.withApp(r.showCart),
	}

	var quantity int
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: r.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			if err := a.Cart.AddToCart(cmd.Context(), models.ID(args[0]), quantity); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Cart: product %s x%d\n", args[0], a.Cart.Quantity(models.ID(args[0])))
			return nil
		}),
	}
	add.Flags().IntVarP(&quantity, "quantity", "q", 1, "Quantity")

	remove := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: r.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			if err := a.Cart.RemoveFromCart(cmd.Context(), models.ID(args[0])); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Removed product %s from cart\n", args[0])
			return nil
		}),
	}

	set := &cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Change the quantity of a cart entry",
		Args:  cobra.ExactArgs(2),
		RunE: r.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			q, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			if err := a.Cart.UpdateQuantity(cmd.Context(), models.ID(args[0]), q); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Cart: product %s x%d\n", args[0], a.Cart.Quantity(models.ID(args[0])))
			return nil
		}),
	}

	var edits map[string]int
	prep := &cobra.Command{
		Use:   "checkout-prep",
		Short: "Save pending quantity edits and show the checkout summary",
		RunE: r.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			if err := commitEdits(cmd, a, edits); err != nil {
				return err
			}
			return r.showCart(cmd, args, a)
		}),
	}
	prep.Flags().StringToIntVar(&edits, "set", nil, "Quantity edits as product-id=quantity")

	cart.AddCommand(list, add, remove, set, prep)
	return cart
}

func (r *runner) showCart(cmd *cobra.Command, _ []string, a *app.App) error {
	if _, err := a.Cart.FetchCart(cmd.Context()); err != nil {
		return err
	}
	sum := a.Cart.Summary(r.cfg.TaxRate)
	if r.jsonOut {
		return r.printJSON(cmd.OutOrStdout(), sum)
	}

	out, err := report.Render(report.CartMarkdown(sum), 0)
	if err != nil {
		return err
	}
	printf(cmd.OutOrStdout(), "%s", out)
	return nil
}

// commitEdits fetches the cart and saves edits. Any rejected edit fails
// the command with the per-product report.
func commitEdits(cmd *cobra.Command, a *app.App, edits map[string]int) error {
	if _, err := a.Cart.FetchCart(cmd.Context()); err != nil {
		return err
	}
	if len(edits) == 0 {
		return nil
	}

	pending := make(map[models.ID]int, len(edits))
	for id, q := range edits {
		pending[models.ID(id)] = q
	}
	return a.Cart.CommitQuantities(cmd.Context(), pending)
}

func (r *runner) favoritesCmd() *cobra.Command {
	listFavorites := func(cmd *cobra.Command, _ []string, a *app.App) error {
		ids, err := a.Cart.FetchFavorites(cmd.Context())
		if err != nil {
			return err
		}
		if r.jsonOut {
			return r.printJSON(cmd.OutOrStdout(), ids)
		}
		if len(ids) == 0 {
			printf(cmd.OutOrStdout(), "No favorites\n")
			return nil
		}
		for _, id := range ids {
			ref, _ := a.Cart.Product(id)
			printf(cmd.OutOrStdout(), "%s\t%s\t$%s\n", id, ref.Name, ref.Price.StringFixed(2))
		}
		return nil
	}

	favorites := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"wishlist"},
		Short:   "Show and change favorite products",
		RunE:    r.withApp(listFavorites),
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List favorite products",
		RunE:  r.withApp(listFavorites),
	}
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Mark a product as favorite",
		Args:  cobra.ExactArgs(1),
		RunE: r.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			if err := a.Cart.AddToFavorites(cmd.Context(), models.ID(args[0])); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Added product %s to favorites\n", args[0])
			return nil
		}),
	}
	remove := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Unmark a favorite product",
		Args:  cobra.ExactArgs(1),
		RunE: r.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			if err := a.Cart.RemoveFromFavorites(cmd.Context(), models.ID(args[0])); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Removed product %s from favorites\n", args[0])
			return nil
		}),
	}
	toggle := &cobra.Command{
		Use:   "toggle <product-id>",
		Short: "Add or remove a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: r.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			if _, err := a.Cart.FetchFavorites(cmd.Context()); err != nil {
				return err
			}
			added, err := a.Cart.ToggleFavorite(cmd.Context(), models.ID(args[0]))
			if err != nil {
				return err
			}
			if added {
				printf(cmd.OutOrStdout(), "Added product %s to favorites\n", args[0])
			} else {
				printf(cmd.OutOrStdout(), "Removed product %s from favorites\n", args[0])
			}
			return nil
		}),
	}

	favorites.AddCommand(list, add, remove, toggle)
	return favorites
}
