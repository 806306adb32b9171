package main

import (
	"context"
	"fmt"
	"os"

	"github.com/SigNoz/storefront-go-client/internal/apperrors"
	"github.com/SigNoz/storefront-go-client/internal/cli"
	"github.com/SigNoz/storefront-go-client/internal/logger"
	"github.com/SigNoz/storefront-go-client/pkg/config"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	// Initialize logging
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	root := cli.NewRootCmd(cfg, nil)
	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Debug().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %s\n", apperrors.Message(err))
		os.Exit(1)
	}
}
