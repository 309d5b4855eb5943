// Package walmart adapts the Walmart affiliate API, authenticated with a
// signed header set on every request, to the grocery.Provider interface.
package walmart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/chinmina/grocery-bridge/internal/config"
	"github.com/chinmina/grocery-bridge/internal/grocery"
	"github.com/chinmina/grocery-bridge/internal/signature"
	"github.com/chinmina/grocery-bridge/internal/upstream"
)

// Name identifies the provider in routes and cache keys.
const Name = "walmart"

type Client struct {
	api *upstream.Client
}

type clientOptions struct {
	now      func() time.Time
	engine   *signature.Engine
	upstream []upstream.Option
}

type Option func(*clientOptions)

// WithClock replaces the clock used for the request timestamp header.
func WithClock(now func() time.Time) Option {
	return func(o *clientOptions) {
		o.now = now
	}
}

// WithEngine supplies a prepared signing engine in place of the key material
// named in the configuration.
func WithEngine(engine *signature.Engine) Option {
	return func(o *clientOptions) {
		o.engine = engine
	}
}

// WithUpstream applies request limits to the outbound API calls.
func WithUpstream(opts ...upstream.Option) Option {
	return func(o *clientOptions) {
		o.upstream = append(o.upstream, opts...)
	}
}

// New creates a Walmart client. The signing key is loaded immediately so a
// missing or malformed key fails at startup.
func New(ctx context.Context, cfg config.WalmartConfig, httpClient *http.Client, opts ...Option) (*Client, error) {
	options := &clientOptions{now: time.Now}
	for _, o := range opts {
		o(options)
	}

	if cfg.ConsumerID == "" {
		return nil, errors.New("WALMART_CONSUMER_ID must be configured")
	}

	engine := options.engine
	if engine == nil {
		var err error
		engine, err = loadEngine(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	api, err := upstream.New(Name, cfg.APIURL, httpClient, signed(engine, cfg.ConsumerID, cfg.KeyVersion, options.now), options.upstream...)
	if err != nil {
		return nil, err
	}

	return &Client{api: api}, nil
}

func loadEngine(ctx context.Context, cfg config.WalmartConfig) (*signature.Engine, error) {
	configured := 0
	for _, v := range []string{cfg.PrivateKey, cfg.PrivateKeyPath, cfg.PrivateKeyARN} {
		if v != "" {
			configured++
		}
	}
	if configured != 1 {
		return nil, errors.New("exactly one of WALMART_PRIVATE_KEY, WALMART_PRIVATE_KEY_PATH or WALMART_PRIVATE_KEY_ARN must be configured")
	}

	var (
		engine *signature.Engine
		err    error
	)
	switch {
	case cfg.PrivateKey != "":
		engine, err = signature.NewRSA([]byte(cfg.PrivateKey))
	case cfg.PrivateKeyPath != "":
		engine, err = signature.NewRSAFromFile(cfg.PrivateKeyPath)
	default:
		engine, err = signature.LoadKMS(ctx, cfg.PrivateKeyARN)
	}
	if err != nil {
		return nil, fmt.Errorf("could not load Walmart signing key: %w", err)
	}

	return engine, nil
}

// signed sets the signed header set. Names are assigned directly so they are
// sent in the exact case the signature scheme defines.
func signed(engine *signature.Engine, consumerID, keyVersion string, now func() time.Time) upstream.Authorizer {
	return func(ctx context.Context, h http.Header) error {
		headers, err := engine.Headers(ctx, consumerID, keyVersion, now())
		if err != nil {
			return grocery.AuthError{Provider: Name, Cause: err}
		}

		for name, value := range headers {
			h[name] = []string{value}
		}

		return nil
	}
}

func (c *Client) Name() string {
	return Name
}

// ChainWideSearch reports that Walmart product results are the same at every
// store.
func (c *Client) ChainWideSearch() bool {
	return true
}

// Locations returns up to five Walmart stores nearest to coords.
func (c *Client) Locations(ctx context.Context, coords grocery.Coordinates) ([]grocery.StoreLocation, error) {
	query := url.Values{
		"lat":   {coords.LatString()},
		"lon":   {coords.LonString()},
		"limit": {strconv.Itoa(grocery.MaxResults)},
	}

	var stores []rawStore
	if err := c.api.GetJSON(ctx, "locations", "stores", query, &stores); err != nil {
		return nil, err
	}

	return toLocations(stores), nil
}

// Products searches the Walmart catalog for term. The catalog search is
// chain wide; locationID identifies the store the caller asked about but does
// not narrow the upstream query.
func (c *Client) Products(ctx context.Context, locationID string, term string) ([]grocery.Product, error) {
	query := url.Values{
		"query":    {term},
		"numItems": {strconv.Itoa(grocery.MaxResults)},
	}

	var resp searchResponse
	if err := c.api.GetJSON(ctx, "products", "search", query, &resp); err != nil {
		return nil, err
	}

	return toProducts(resp.Items), nil
}
