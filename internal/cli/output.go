package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/SigNoz/storefront-go-client/internal/models"
)

func (r *runner) printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func printProducts(w io.Writer, products []models.Product) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK\tCATEGORY")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t$%s\t%d\t%s\n", p.ID, p.Name, p.Price.StringFixed(2), p.Stock, p.Category)
	}
	return tw.Flush()
}

func printUser(w io.Writer, u models.User) {
	fmt.Fprintf(w, "ID:      %s\n", u.ID)
	fmt.Fprintf(w, "Email:   %s\n", u.Email)
	fmt.Fprintf(w, "Name:    %s %s\n", u.FirstName, u.LastName)
	if u.PhoneNumber != "" {
		fmt.Fprintf(w, "Phone:   %s\n", u.PhoneNumber)
	}
	if u.ProfilePicture != nil {
		fmt.Fprintf(w, "Picture: %s\n", *u.ProfilePicture)
	}
}
