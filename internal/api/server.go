package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// Server is a reference implementation of the storefront REST API. It keeps
// all state in memory.
type Server struct {
	backend *Backend
	tokens  *tokenIssuer
	router  *mux.Router
}

// NewServer wires backend behind the /api routes. Access tokens expire
// after accessTTL.
func NewServer(backend *Backend, secret []byte, accessTTL time.Duration) *Server {
	s := &Server{
		backend: backend,
		tokens:  newTokenIssuer(secret, accessTTL),
		router:  mux.NewRouter(),
	}
	s.SetupRoutes(s.router)
	return s
}

// NewDemoServer returns a server over the demo catalog.
func NewDemoServer(secret []byte, accessTTL time.Duration) *Server {
	return NewServer(NewBackend(DemoCatalog()), secret, accessTTL)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Backend() *Backend {
	return s.backend
}

// RevokeAccessTokens invalidates every access token issued so far.
// Refresh tokens stay valid.
func (s *Server) RevokeAccessTokens() {
	s.tokens.mu.Lock()
	s.tokens.generation++
	s.tokens.mu.Unlock()
}

// FailRefresh makes the refresh endpoint reject every token.
func (s *Server) FailRefresh(fail bool) {
	s.tokens.mu.Lock()
	s.tokens.failRefresh = fail
	s.tokens.mu.Unlock()
}

// SetRefreshDelay slows the refresh endpoint down.
func (s *Server) SetRefreshDelay(d time.Duration) {
	s.tokens.mu.Lock()
	s.tokens.refreshDelay = d
	s.tokens.mu.Unlock()
}

// RefreshCount is the number of refresh calls received.
func (s *Server) RefreshCount() int64 {
	return s.tokens.refreshCalls.Load()
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port string) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", port).Msg("reference storefront API starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down reference API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("reference API exited")
	return nil
}
