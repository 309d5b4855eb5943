package upstream

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/chinmina/grocery-bridge/internal/config"
	"github.com/chinmina/grocery-bridge/internal/grocery"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

type Option func(*Client)

// WithTimeout bounds each request, including reading its response.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRateLimit holds outbound requests to perSecond, allowing bursts of up
// to burst requests. A non-positive rate leaves requests unlimited.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithCircuitBreaker stops calling the provider for openFor after
// consecutiveFailures requests in a row have failed. Zero failures disables
// the breaker.
func WithCircuitBreaker(consecutiveFailures uint32, openFor time.Duration) Option {
	return func(c *Client) {
		if consecutiveFailures == 0 {
			return
		}

		c.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        c.provider,
			MaxRequests: 1,
			Timeout:     openFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= consecutiveFailures
			},
			IsSuccessful: func(err error) bool {
				return !isProviderFailure(err)
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				log.Warn().
					Str("provider", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("upstream circuit breaker state changed")
			},
		})
	}
}

// FromConfig returns the options described by the shared upstream settings.
func FromConfig(cfg config.UpstreamConfig) []Option {
	return []Option{
		WithTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second),
		WithRateLimit(cfg.RequestsPerSecond, cfg.Burst),
		WithCircuitBreaker(cfg.BreakerFailures, time.Duration(cfg.BreakerOpenSeconds)*time.Second),
	}
}

// isProviderFailure reports whether err indicates the provider is unhealthy:
// transport failures, throttling and server errors. Client errors and
// requests abandoned by the caller do not count.
func isProviderFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var upstreamErr grocery.UpstreamError
	if !errors.As(err, &upstreamErr) {
		return false
	}

	return upstreamErr.StatusCode == 0 ||
		upstreamErr.StatusCode == http.StatusTooManyRequests ||
		upstreamErr.StatusCode >= http.StatusInternalServerError
}
