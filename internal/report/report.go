// Package report renders order history and cart summaries as markdown for
// the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/SigNoz/storefront-go-client/internal/services"
	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02 15:04"

// Markdown builds the order history report for user. Totals are the
// server's values; only the grand total is summed here.
func Markdown(user *models.User, orders []models.Order) string {
	var b strings.Builder

	b.WriteString("# Order history\n\n")
	if user != nil {
		name := strings.TrimSpace(user.FirstName + " " + user.LastName)
		if name == "" {
			name = user.Email
		}
		fmt.Fprintf(&b, "Customer: **%s** (%s)\n\n", name, user.Email)
	}

	if len(orders) == 0 {
		b.WriteString("_No orders yet._\n")
		return b.String()
	}

	grand := decimal.Zero
	for _, o := range orders {
		fmt.Fprintf(&b, "## Order #%s\n\n", o.ID)
		fmt.Fprintf(&b, "- Placed: %s\n", o.CreatedAt.Local().Format(dateLayout))
		fmt.Fprintf(&b, "- Status: %s\n", o.Status)
		fmt.Fprintf(&b, "- Ship to: %s\n\n", formatAddress(o.Address))

		b.WriteString("| Product | Qty | Subtotal |\n|---|---:|---:|\n")
		for _, item := range o.Items {
			fmt.Fprintf(&b, "| %s | %d | $%s |\n", escape(item.Product.Name), item.Quantity, item.Subtotal.StringFixed(2))
		}
		fmt.Fprintf(&b, "\n**Total: $%s**\n\n", o.Total.StringFixed(2))
		grand = grand.Add(o.Total)
	}

	fmt.Fprintf(&b, "---\n\n%d orders, **$%s** in total\n", len(orders), grand.StringFixed(2))
	return b.String()
}

// CartMarkdown builds the pre-checkout cart breakdown.
func CartMarkdown(sum services.Summary) string {
	var b strings.Builder

	b.WriteString("# Cart\n\n")
	if len(sum.Lines) == 0 {
		b.WriteString("_Your cart is empty._\n")
		return b.String()
	}

	b.WriteString("| Id | Product | Price | Qty | Subtotal |\n|---|---|---:|---:|---:|\n")
	for _, l := range sum.Lines {
		fmt.Fprintf(&b, "| %s | %s | $%s | %d | $%s |\n",
			l.Product.ID, escape(l.Product.Name), l.Product.Price.StringFixed(2), l.Quantity, l.Subtotal.StringFixed(2))
	}
	fmt.Fprintf(&b, "\n- Subtotal: $%s\n- Tax: $%s\n- Shipping: $%s\n\n**Total: $%s**\n",
		sum.Subtotal.StringFixed(2), sum.Tax.StringFixed(2), sum.Shipping.StringFixed(2), sum.Total.StringFixed(2))
	return b.String()
}

// Render renders md for a terminal of the given width
func Render(md string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}

	out, err := renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return out, nil
}

func formatAddress(a models.Address) string {
	parts := []string{a.AddressLine1}
	if a.AddressLine2 != "" {
		parts = append(parts, a.AddressLine2)
	}
	parts = append(parts, a.City, a.State+" "+a.PostalCode, a.Country)
	return escape(strings.Join(parts, ", "))
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
