// Package cli implements the storefront command line, the thin view layer
// over the application stores.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/SigNoz/storefront-go-client/internal/app"
	"github.com/SigNoz/storefront-go-client/pkg/config"
	"github.com/spf13/cobra"
)

// BootstrapFunc builds the application state for one command run
type BootstrapFunc func(ctx context.Context, cfg *config.Config) (*app.App, error)

// NewRootCmd returns the storefront command tree. bootstrap is called once
// per command that talks to the API.
func NewRootCmd(cfg *config.Config, bootstrap BootstrapFunc) *cobra.Command {
	if bootstrap == nil {
		bootstrap = app.Bootstrap
	}
	r := &runner{cfg: cfg, bootstrap: bootstrap}

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Browse the storefront, manage your cart and place orders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfg.APIBaseURL, "api", cfg.APIBaseURL, "Storefront API base URL")
	root.PersistentFlags().BoolVar(&r.jsonOut, "json", false, "Print raw JSON instead of text")

	root.AddCommand(
		r.loginCmd(),
		r.logoutCmd(),
		r.registerCmd(),
		r.whoamiCmd(),
		r.profileCmd(),
		r.productsCmd(),
		r.productCmd(),
		r.categoriesCmd(),
		r.cartCmd(),
		r.favoritesCmd(),
		r.checkoutCmd(),
		r.ordersCmd(),
		serveMockCmd(cfg),
	)
	return root
}

type runner struct {
	cfg       *config.Config
	bootstrap BootstrapFunc
	jsonOut   bool
}

// withApp bootstraps the application around fn and closes it afterwards.
func (r *runner) withApp(fn func(cmd *cobra.Command, args []string, a *app.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := r.bootstrap(ctx, r.cfg)
		if err != nil {
			return err
		}
		defer a.Close(context.WithoutCancel(ctx))

		cmd.SetContext(ctx)
		return fn(cmd, args, a)
	}
}

func printf(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format, args...)
}
