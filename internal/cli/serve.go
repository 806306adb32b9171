package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/api"
	"github.com/SigNoz/storefront-go-client/pkg/config"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func serveMockCmd(cfg *config.Config) *cobra.Command {
	var (
		port      string
		accessTTL time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve-mock",
		Short: "Run the in-memory reference storefront API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := api.NewDemoServer([]byte(uuid.NewString()), accessTTL)
			return server.ListenAndServe(ctx, port)
		},
	}
	cmd.Flags().StringVar(&port, "port", cfg.MockAPIPort, "Listen port")
	cmd.Flags().DurationVar(&accessTTL, "access-ttl", 5*time.Minute, "Access token lifetime")
	return cmd
}
