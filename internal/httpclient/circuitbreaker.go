package httpclient

import (
	"context"
	"errors"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/apperrors"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
)

func createCircuitBreaker(name string, opts Options) *gobreaker.CircuitBreaker[*Response] {
	minRequests := opts.BreakerMinRequests
	if minRequests == 0 {
		minRequests = 5
	}
	ratio := opts.BreakerFailureRatio
	if ratio <= 0 {
		ratio = 0.6
	}
	timeout := opts.BreakerOpenTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var st gobreaker.Settings
	st.Name = name
	st.Timeout = timeout
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= minRequests && failureRatio >= ratio
	}
	// only transport errors and 5xx reach here
	st.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled)
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
	}

	return gobreaker.NewCircuitBreaker[*Response](st)
}

// IsCircuitOpen reports whether err came from an open breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, apperrors.ErrCircuitOpen)
}
