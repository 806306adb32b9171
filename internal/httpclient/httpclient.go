package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/apperrors"
	"github.com/SigNoz/storefront-go-client/internal/logger"
	"github.com/SigNoz/storefront-go-client/internal/metrics"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/SigNoz/storefront-go-client/internal/tokenstore"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

const (
	TokenPath   = "/auth/token/"
	RefreshPath = "/auth/token/refresh/"
)

// Options configures a Client
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	CSRFToken string

	BreakerMinRequests  uint32
	BreakerFailureRatio float64
	BreakerOpenTimeout  time.Duration

	// Transport overrides the base round tripper; nil uses http.DefaultTransport.
	Transport http.RoundTripper
}

// Request is a single storefront API call. Body must be replayable, so it
// is held as bytes.
type Request struct {
	Method      string
	Path        string
	Route       string
	Query       url.Values
	Body        []byte
	ContentType string
	// NoAuth skips the bearer header and 401 recovery.
	NoAuth bool

	retried bool
}

// Response is a fully read API response
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Client issues authenticated requests against the storefront API. It
// attaches the stored bearer token and recovers from a 401 with at most
// one refresh-and-replay per request. Concurrent 401s share one refresh.
type Client struct {
	baseURL string
	csrf    string
	http    *http.Client
	tokens  tokenstore.Store
	metrics *metrics.AppMetrics
	breaker *gobreaker.CircuitBreaker[*Response]
	refresh singleflight.Group
}

// New creates a Client
func New(opts Options, tokens tokenstore.Store, m *metrics.AppMetrics) *Client {
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if m == nil {
		m = metrics.NewNoop()
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		csrf:    opts.CSRFToken,
		http: &http.Client{
			Transport: otelhttp.NewTransport(base),
			Timeout:   opts.Timeout,
		},
		tokens:  tokens,
		metrics: m,
		breaker: createCircuitBreaker("storefront-api", opts),
	}
}

// Tokens exposes the token store the client reads from.
func (c *Client) Tokens() tokenstore.Store {
	return c.tokens
}

// Do sends req and returns the response for 2xx statuses. Non-2xx
// statuses return an *apperrors.APIError alongside the response.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	pair, err := c.tokens.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokens: %w", err)
	}

	resp, err := c.send(ctx, req, pair.Access)
	if err != nil {
		return resp, err
	}

	if resp.Status == http.StatusUnauthorized && !req.NoAuth && !req.retried {
		req.retried = true
		originalErr := apperrors.NewAPIError(resp.Status, resp.Body)

		access, refreshErr := c.refreshAfter(ctx, pair.Access)
		if refreshErr != nil {
			return resp, fmt.Errorf("%w; token refresh failed: %w", originalErr, refreshErr)
		}

		logger.From(ctx).Debug().Str("path", req.Path).Msg("replaying request with refreshed token")
		resp, err = c.send(ctx, req, access)
		if err != nil {
			return resp, err
		}
	}

	if resp.Status >= 300 {
		return resp, apperrors.NewAPIError(resp.Status, resp.Body)
	}
	return resp, nil
}

// refreshAfter returns an access token newer than stale. When another
// request already refreshed, the stored token is reused; otherwise one
// shared refresh call is made.
func (c *Client) refreshAfter(ctx context.Context, stale string) (string, error) {
	current, err := c.tokens.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load tokens: %w", err)
	}
	if current.Access != "" && current.Access != stale {
		return current.Access, nil
	}
	if current.Refresh == "" {
		c.metrics.RecordTokenRefresh(ctx, "no_refresh_token")
		if err := c.tokens.Clear(ctx); err != nil {
			logger.From(ctx).Warn().Err(err).Msg("failed to clear tokens")
		}
		return "", apperrors.ErrNoToken
	}

	// the shared refresh outlives any single caller
	refreshCtx := context.WithoutCancel(ctx)
	v, err, shared := c.refresh.Do(current.Refresh, func() (interface{}, error) {
		return c.refreshToken(refreshCtx, current.Refresh)
	})
	if err != nil {
		return "", err
	}
	if shared {
		logger.From(ctx).Debug().Msg("joined in-flight token refresh")
	}
	return v.(string), nil
}

func (c *Client) refreshToken(ctx context.Context, refreshToken string) (string, error) {
	body, err := marshal(models.RefreshRequest{Refresh: refreshToken})
	if err != nil {
		return "", err
	}

	resp, err := c.send(ctx, &Request{
		Method: http.MethodPost,
		Path:   RefreshPath,
		Body:   body,
		NoAuth: true,
	}, "")
	if err == nil && resp.Status >= 300 {
		err = apperrors.NewAPIError(resp.Status, resp.Body)
	}

	var pair models.TokenPair
	if err == nil {
		err = decode(resp.Body, &pair)
	}

	if err != nil {
		c.metrics.RecordTokenRefresh(ctx, "failure")
		logger.From(ctx).Warn().Err(err).Msg("token refresh failed, clearing credentials")
		if clearErr := c.tokens.Clear(ctx); clearErr != nil {
			logger.From(ctx).Warn().Err(clearErr).Msg("failed to clear tokens")
		}
		return "", err
	}

	if err := c.tokens.Rotate(ctx, refreshToken, pair); err != nil {
		c.metrics.RecordTokenRefresh(ctx, "failure")
		return "", fmt.Errorf("failed to store refreshed token: %w", err)
	}

	c.metrics.RecordTokenRefresh(ctx, "success")
	return pair.Access, nil
}

func (r *Request) route() string {
	if r.Route != "" {
		return r.Route
	}
	return r.Path
}

// send performs one round trip through the circuit breaker.
func (c *Client) send(ctx context.Context, req *Request, access string) (*Response, error) {
	requestID := uuid.New().String()
	ctx = logger.WithRequestID(ctx, requestID)

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*Response, error) {
		httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bytes.NewReader(req.Body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		contentType := req.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		httpReq.Header.Set("Accept", "application/json")
		httpReq.Header.Set("Content-Type", contentType)
		httpReq.Header.Set("X-Request-ID", requestID)
		if c.csrf != "" {
			httpReq.Header.Set("X-CSRFToken", c.csrf)
		}
		if access != "" && !req.NoAuth {
			httpReq.Header.Set("Authorization", "Bearer "+access)
		}

		httpResp, err := c.http.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrTransport, err)
		}
		defer httpResp.Body.Close()

		body, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read response body: %w", apperrors.ErrTransport, err)
		}

		r := &Response{Status: httpResp.StatusCode, Header: httpResp.Header, Body: body}
		if r.Status >= 500 {
			return r, apperrors.NewAPIError(r.Status, body)
		}
		return r, nil
	})

	status := 0
	if resp != nil {
		status = resp.Status
	}
	c.metrics.RecordHTTPRequest(ctx, req.Method, req.route(), status, start)

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %w", apperrors.ErrCircuitOpen, err)
	}

	event := logger.From(ctx).Debug()
	if err != nil {
		event = logger.From(ctx).Warn().Err(err)
	}
	event.
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", status).
		Int64("latency", time.Since(start).Milliseconds()).
		Msg("storefront api request")

	return resp, err
}
