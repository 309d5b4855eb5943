//go:build integration

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/chinmina/grocery-bridge/internal/bridge"
	"github.com/chinmina/grocery-bridge/internal/config"
	"github.com/chinmina/grocery-bridge/internal/grocery"
	"github.com/chinmina/grocery-bridge/internal/server"
	"github.com/chinmina/grocery-bridge/internal/testhelpers"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"
)

// APITestHarness manages the complete test environment for API integration
// tests: mock provider APIs, the configured providers and the API server.
type APITestHarness struct {
	t           *testing.T
	Server      *httptest.Server
	KrogerMock  *testhelpers.MockKrogerServer
	WalmartMock *testhelpers.MockWalmartServer
	cacheConfig config.CacheConfig
}

// APITestHarnessOption configures the API test harness.
type APITestHarnessOption func(*config.Config)

// WithValkeyCache configures the test harness to use a Valkey cache container.
func WithValkeyCache() APITestHarnessOption {
	return func(cfg *config.Config) {
		cfg.Cache.Type = "valkey"
	}
}

// WithMaxConcurrency bounds the product search fan-out.
func WithMaxConcurrency(n int) APITestHarnessOption {
	return func(cfg *config.Config) {
		cfg.Aggregate.MaxConcurrency = n
	}
}

// NewAPITestHarness creates a complete test harness with all mock servers and
// the API server. Cleanup is handled automatically via t.Cleanup().
func NewAPITestHarness(t *testing.T, options ...APITestHarnessOption) *APITestHarness {
	t.Helper()
	testhelpers.SetupLogger(t)
	hooks := &server.ShutdownHooks{}

	harness := &APITestHarness{
		t:           t,
		KrogerMock:  testhelpers.SetupMockKrogerServer(t),
		WalmartMock: testhelpers.SetupMockWalmartServer(t),
	}
	harness.KrogerMock.ClientID = "test-client"
	harness.KrogerMock.ClientSecret = "test-secret"

	_, keyPEM := testhelpers.GenerateRSAKey(t)

	cfg := config.Config{
		Cache: config.CacheConfig{
			Type:             "memory", // Default to memory cache for tests
			TTLSeconds:       300,
			MaxMemoryEntries: 1000,
		},
		Kroger: config.KrogerConfig{
			APIURL:       harness.KrogerMock.URL(),
			ClientID:     "test-client",
			ClientSecret: "test-secret",
			Scope:        "product.compact",
		},
		Walmart: config.WalmartConfig{
			APIURL:     harness.WalmartMock.URL(),
			ConsumerID: "test-consumer",
			KeyVersion: "1",
			PrivateKey: string(keyPEM),
		},
		Observe: config.ObserveConfig{
			Enabled: false, // Disable observability for tests
		},
		Server: config.ServerConfig{
			Providers: config.KnownProviders,
		},
	}

	for _, opt := range options {
		opt(&cfg)
	}

	if cfg.Cache.Type == "valkey" {
		cfg.Cache = testhelpers.RunValkeyContainer(t)
	}
	harness.cacheConfig = cfg.Cache

	lookup, err := bridge.New(context.Background(), cfg, http.DefaultClient, hooks)
	if err != nil {
		hooks.Execute(context.Background())
	}
	require.NoError(t, err)

	harness.Server = httptest.NewServer(configureServerRoutes(lookup))

	t.Cleanup(func() {
		harness.Server.Close()
		hooks.Execute(context.Background())
		harness.KrogerMock.Close()
		harness.WalmartMock.Close()
	})

	return harness
}

// Client returns a client for the API server.
func (h *APITestHarness) Client() *TestClient {
	return &TestClient{
		baseURL: h.Server.URL,
		client:  http.DefaultClient,
	}
}

// newTestValkeyClient returns a connected valkey client for direct Valkey
// access in tests. Skips the test if this harness does not use Valkey.
func (h *APITestHarness) newTestValkeyClient(t *testing.T) valkey.Client {
	t.Helper()

	if h.cacheConfig.Type != "valkey" {
		t.Skip("not a Valkey harness")
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{h.cacheConfig.Valkey.Address},
		Username:    h.cacheConfig.Valkey.Username,
		Password:    h.cacheConfig.Valkey.Password,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
	})

	return client
}

// APIError represents a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Body       []byte
	Message    string // parsed from JSON error response if available
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error %d", e.StatusCode)
}

// TestClient provides typed access to the lookup endpoints for testing.
type TestClient struct {
	baseURL string
	client  *http.Client
}

// Response wraps raw HTTP response for low-level assertions.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Request performs a low-level GET request and returns the raw response.
func (c *TestClient) Request(path string, query url.Values) (*Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	resp, err := c.client.Get(target)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Headers:    resp.Header,
	}, nil
}

// Locations calls GET /location.
func (c *TestClient) Locations(store string, coords string) ([]grocery.StoreLocation, error) {
	resp, err := c.Request("/location", url.Values{"store": {store}, "latlong": {coords}})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var locations []grocery.StoreLocation
	if err := json.Unmarshal(resp.Body, &locations); err != nil {
		return nil, fmt.Errorf("decode locations: %w", err)
	}
	return locations, nil
}

// Products calls GET /product.
func (c *TestClient) Products(store string, item string, locationIDs ...string) (map[string]LocationResult, error) {
	resp, err := c.Request("/product", url.Values{"store": {store}, "item": {item}, "locationIds": locationIDs})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var results map[string]LocationResult
	if err := json.Unmarshal(resp.Body, &results); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return results, nil
}

func (c *TestClient) parseError(resp *Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: resp.Body}

	var body ErrorResponse
	if err := json.Unmarshal(resp.Body, &body); err == nil {
		apiErr.Message = body.Error
	}

	return apiErr
}
