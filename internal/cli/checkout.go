package cli

import (
	"fmt"

	"github.com/SigNoz/storefront-go-client/internal/app"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/SigNoz/storefront-go-client/internal/report"
	"github.com/SigNoz/storefront-go-client/internal/services"
	"github.com/spf13/cobra"
)

func (r *runner) checkoutCmd() *cobra.Command {
	var (
		addr  models.Address
		edits map[string]int
	)
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Save pending quantity edits and place an order",
		Long: `Saves any --set quantity edits, then submits the cart for checkout.
No order is placed while any edit was rejected.`,
		RunE: r.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			if err := commitEdits(cmd, a, edits); err != nil {
				if commitErr, ok := services.IsCommitError(err); ok {
					return fmt.Errorf("checkout aborted: %w", commitErr)
				}
				return err
			}

			order, err := a.Orders.PlaceOrder(cmd.Context(), addr)
			if err != nil {
				return err
			}
			if _, err := a.Cart.FetchCart(cmd.Context()); err != nil {
				return fmt.Errorf("order %s placed but the cart could not be reloaded: %w", order.ID, err)
			}

			if r.jsonOut {
				return r.printJSON(cmd.OutOrStdout(), order)
			}
			out, err := report.Render(report.Markdown(nil, []models.Order{order}), 0)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Order %s placed\n%s", order.ID, out)
			return nil
		}),
	}
	cmd.Flags().StringVar(&addr.AddressLine1, "line1", "", "Address line 1")
	cmd.Flags().StringVar(&addr.AddressLine2, "line2", "", "Address line 2")
	cmd.Flags().StringVar(&addr.City, "city", "", "City")
	cmd.Flags().StringVar(&addr.State, "state", "", "State or region")
	cmd.Flags().StringVar(&addr.Country, "country", "", "Country")
	cmd.Flags().StringVar(&addr.PostalCode, "postal-code", "", "Postal code")
	cmd.Flags().StringToIntVar(&edits, "set", nil, "Quantity edits as product-id=quantity")
	return cmd
}

func (r *runner) ordersCmd() *cobra.Command {
	orders := &cobra.Command{
		Use:   "orders",
		Short: "List past orders",
		RunE: r.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			history, err := a.Orders.FetchOrderHistory(cmd.Context())
			if err != nil {
				return err
			}
			if r.jsonOut {
				return r.printJSON(cmd.OutOrStdout(), history)
			}
			if len(history) == 0 {
				printf(cmd.OutOrStdout(), "No orders yet\n")
				return nil
			}
			for _, o := range history {
				printf(cmd.OutOrStdout(), "#%s\t%s\t%s\t$%s\n",
					o.ID, o.CreatedAt.Local().Format("2006-01-02"), o.Status, o.Total.StringFixed(2))
			}
			return nil
		}),
	}

	var width int
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Render a full order history report",
		RunE: r.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			user, err := a.Session.FetchProfile(cmd.Context())
			if err != nil {
				return err
			}
			history, err := a.Orders.FetchOrderHistory(cmd.Context())
			if err != nil {
				return err
			}

			md := report.Markdown(&user, history)
			if r.jsonOut {
				return r.printJSON(cmd.OutOrStdout(), map[string]string{"markdown": md})
			}
			out, err := report.Render(md, width)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "%s", out)
			return nil
		}),
	}
	reportCmd.Flags().IntVar(&width, "width", 100, "Wrap width")

	orders.AddCommand(reportCmd)
	return orders
}
