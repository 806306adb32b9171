// Package app wires the client stores into one application state object
// that the command layer receives explicitly.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/SigNoz/storefront-go-client/internal/httpclient"
	"github.com/SigNoz/storefront-go-client/internal/metrics"
	"github.com/SigNoz/storefront-go-client/internal/services"
	"github.com/SigNoz/storefront-go-client/internal/tokenstore"
	"github.com/SigNoz/storefront-go-client/pkg/config"
	"github.com/rs/zerolog/log"
)

// App is the application state shared by every command
type App struct {
	Config  *config.Config
	Client  *httpclient.Client
	Metrics *metrics.AppMetrics

	Session *services.SessionService
	Catalog *services.CatalogService
	Cart    *services.CartService
	Orders  *services.OrderService

	closers []func(context.Context) error
}

// NewApp creates a new application instance
func NewApp(
	cfg *config.Config,
	client *httpclient.Client,
	m *metrics.AppMetrics,
	ss *services.SessionService,
	cs *services.CatalogService,
	cart *services.CartService,
	orders *services.OrderService,
) *App {
	return &App{
		Config:  cfg,
		Client:  client,
		Metrics: m,
		Session: ss,
		Catalog: cs,
		Cart:    cart,
		Orders:  orders,
	}
}

// Bootstrap builds telemetry, the token store, the API client and the
// stores from cfg, and restores a persisted session.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, error) {
	var closers []func(context.Context) error
	fail := func(err error) (*App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i](ctx)
		}
		return nil, err
	}

	appMetrics, shutdownMetrics, err := metrics.InitMetrics(ctx, cfg)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize metrics: %w", err))
	}
	closers = append(closers, shutdownMetrics)

	shutdownTracing, err := metrics.InitTracing(ctx, cfg)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize tracing: %w", err))
	}
	closers = append(closers, shutdownTracing)

	tokens, closeStore, err := tokenstore.Open(ctx, cfg, appMetrics)
	if err != nil {
		return fail(fmt.Errorf("failed to open token store: %w", err))
	}
	closers = append(closers, func(context.Context) error { return closeStore() })

	client := httpclient.New(httpclient.Options{
		BaseURL:             cfg.APIBaseURL,
		Timeout:             cfg.HTTPTimeout,
		CSRFToken:           cfg.CSRFToken,
		BreakerMinRequests:  cfg.BreakerMinRequests,
		BreakerFailureRatio: cfg.BreakerFailureRatio,
		BreakerOpenTimeout:  cfg.BreakerOpenTimeout,
	}, tokens, appMetrics)

	a := NewApp(cfg, client, appMetrics,
		services.NewSessionService(client),
		services.NewCatalogService(client, appMetrics),
		services.NewCartService(client, appMetrics),
		services.NewOrderService(client, appMetrics),
	)
	a.closers = closers

	if ok, err := a.Session.Restore(ctx); err != nil {
		log.Warn().Err(err).Msg("could not restore session")
	} else if ok {
		log.Debug().Msg("restored persisted session")
	}
	return a, nil
}

// Close releases the token store and flushes telemetry, in reverse order
// of creation.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
