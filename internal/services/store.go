// Package services holds the client-side stores. Each store owns one slice
// of application state, mutated only after the server confirms a change.
package services

import (
	"context"
	"sync"

	"github.com/SigNoz/storefront-go-client/internal/apperrors"
	"github.com/SigNoz/storefront-go-client/internal/httpclient"
	"github.com/SigNoz/storefront-go-client/internal/logger"
	"github.com/SigNoz/storefront-go-client/internal/tokenstore"
)

// API is the subset of *httpclient.Client the stores call.
type API interface {
	GetJSON(ctx context.Context, path string, out interface{}, opts ...httpclient.CallOption) error
	SendJSON(ctx context.Context, method, path string, in, out interface{}, opts ...httpclient.CallOption) error
	Delete(ctx context.Context, path string, opts ...httpclient.CallOption) error
	PatchMultipart(ctx context.Context, path string, fields map[string]string, file *httpclient.FilePart, out interface{}) error
	Tokens() tokenstore.Store
}

// status tracks in-flight operations and the last failure message of a
// store. The owning store's mutex guards it.
type status struct {
	inflight int
	lastErr  string
}

func (st *status) begin(mu sync.Locker) {
	mu.Lock()
	st.inflight++
	st.lastErr = ""
	mu.Unlock()
}

// end records err (if any) as the store's error and returns it unchanged.
func (st *status) end(ctx context.Context, mu sync.Locker, component, op string, err error) error {
	mu.Lock()
	st.inflight--
	if err != nil {
		st.lastErr = apperrors.Message(err)
	}
	mu.Unlock()

	if err != nil {
		logger.From(ctx).Warn().Err(err).Str("component", component).Str("op", op).Msg("store operation failed")
	}
	return err
}

func (st *status) loading() bool {
	return st.inflight > 0
}
