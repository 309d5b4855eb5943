// Package upstream issues the outbound JSON requests made by the provider
// adapters and maps their failures onto the grocery error kinds.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/chinmina/grocery-bridge/internal/grocery"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// maxResponseBytes bounds the size of a decoded provider response.
const maxResponseBytes = 4 << 20

// Authorizer adds the credentials for a single request to its headers.
type Authorizer func(ctx context.Context, header http.Header) error

type Client struct {
	provider  string
	baseURL   *url.URL
	http      *http.Client
	authorize Authorizer

	timeout time.Duration
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// New creates a client for the named provider rooted at baseURL. A nil
// httpClient selects http.DefaultClient.
func New(provider string, baseURL string, httpClient *http.Client, authorize Authorizer, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("API URL must be configured for %s", provider)
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("could not parse %s API URL: %w", provider, err)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	c := &Client{
		provider:  provider,
		baseURL:   u,
		http:      httpClient,
		authorize: authorize,
	}
	for _, o := range opts {
		o(c)
	}

	return c, nil
}

// GetJSON issues a GET for path below the base URL and decodes the JSON
// response into out. Credential failures are returned as AuthError, all
// other failures as UpstreamError.
func (c *Client) GetJSON(ctx context.Context, operation string, path string, query url.Values, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := c.baseURL.JoinPath(path)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return grocery.UpstreamError{Provider: c.provider, Operation: operation, Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return grocery.UpstreamError{
				Provider:  c.provider,
				Operation: operation,
				Cause:     fmt.Errorf("outbound rate limit: %w", err),
			}
		}
	}

	if c.breaker == nil {
		return c.send(ctx, operation, req, out)
	}

	_, err = c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, c.send(ctx, operation, req, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return grocery.UpstreamError{Provider: c.provider, Operation: operation, Cause: err}
	}

	return err
}

// send authorizes and performs the request. It runs only after the limiter
// and breaker have admitted the request.
func (c *Client) send(ctx context.Context, operation string, req *http.Request, out any) error {
	if c.authorize != nil {
		if err := c.authorize(ctx, req.Header); err != nil {
			var authErr grocery.AuthError
			if errors.As(err, &authErr) {
				return err
			}
			return grocery.AuthError{Provider: c.provider, Cause: err}
		}
	}

	return c.roundTrip(ctx, operation, req, out)
}

func (c *Client) roundTrip(ctx context.Context, operation string, req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return grocery.UpstreamError{Provider: c.provider, Operation: operation, Cause: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()
	}()

	log.Ctx(ctx).Debug().
		Str("provider", c.provider).
		Str("operation", operation).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("upstream request complete")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return grocery.UpstreamError{
			Provider:   c.provider,
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("upstream response: %s", detail),
		}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return grocery.UpstreamError{
			Provider:  c.provider,
			Operation: operation,
			Cause:     fmt.Errorf("could not decode response: %w", err),
		}
	}

	return nil
}
