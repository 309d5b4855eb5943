package config

import (
	"context"
	"fmt"
	"slices"

	"github.com/sethvargo/go-envconfig"
)

// KnownProviders lists the provider names that can be enabled.
var KnownProviders = []string{"kroger", "walmart"}

type Config struct {
	Aggregate AggregateConfig
	Cache     CacheConfig
	Kroger    KrogerConfig
	Walmart   WalmartConfig
	Observe   ObserveConfig
	Server    ServerConfig
	Upstream  UpstreamConfig
}

type ServerConfig struct {
	Port                   int `env:"SERVER_PORT, default=8080"`
	ShutdownTimeoutSeconds int `env:"SERVER_SHUTDOWN_TIMEOUT_SECS, default=25"`

	OutgoingHTTPMaxIdleConns    int `env:"SERVER_OUTGOING_MAX_IDLE_CONNS, default=100"`
	OutgoingHTTPMaxConnsPerHost int `env:"SERVER_OUTGOING_MAX_CONNS_PER_HOST, default=20"`

	// Providers selects the upstream retailers served by this instance.
	Providers []string `env:"PROVIDERS, default=kroger,walmart"`
}

// AggregateConfig controls the fan-out of multi-location queries.
type AggregateConfig struct {
	// MaxConcurrency bounds the number of in-flight upstream calls for a
	// single multi-location request. Zero means unbounded.
	MaxConcurrency int `env:"AGGREGATE_MAX_CONCURRENCY, default=0"`
}

// UpstreamConfig applies to the outbound requests of every provider.
type UpstreamConfig struct {
	TimeoutSeconds int `env:"UPSTREAM_TIMEOUT_SECS, default=10"`

	// RequestsPerSecond caps the outbound request rate per provider, to stay
	// within the provider's quota. Zero disables the limit.
	RequestsPerSecond float64 `env:"UPSTREAM_REQUESTS_PER_SEC, default=0"`
	Burst             int     `env:"UPSTREAM_BURST, default=10"`

	// BreakerFailures is the number of consecutive provider failures that
	// open the circuit breaker. Zero disables the breaker.
	BreakerFailures    uint32 `env:"UPSTREAM_BREAKER_FAILURES, default=5"`
	BreakerOpenSeconds int    `env:"UPSTREAM_BREAKER_OPEN_SECS, default=30"`
}

// CacheConfig specifies cache configuration.
type CacheConfig struct {
	// Type selects the cache implementation: "memory" (default) or "valkey"
	Type string `env:"CACHE_TYPE, default=memory"`

	// TTLSeconds is applied to every cached provider response.
	TTLSeconds int `env:"CACHE_TTL_SECS, default=300"`

	// MaxMemoryEntries bounds the in-memory cache size.
	MaxMemoryEntries int `env:"CACHE_MAX_MEMORY_ENTRIES, default=10000"`

	// Valkey holds distributed cache settings.
	Valkey ValkeyConfig
}

// ValkeyConfig specifies distributed cache configuration.
type ValkeyConfig struct {
	// Address is the Valkey server address (host:port).
	Address string `env:"VALKEY_ADDRESS"`

	// TLS enables TLS connection to Valkey. Defaults to true so the secure option
	// is the default.
	TLS bool `env:"VALKEY_TLS, default=true"`

	// Username for Valkey authentication.
	Username string `env:"VALKEY_USERNAME"`

	// Password for Valkey authentication.
	Password string `env:"VALKEY_PASSWORD"`
}

// KrogerConfig holds the client credentials used for the token exchange.
type KrogerConfig struct {
	APIURL       string `env:"KROGER_API_URL, default=https://api.kroger.com/v1"`
	ClientID     string `env:"KROGER_CLIENT_ID"`
	ClientSecret string `env:"KROGER_SECRET"`
	Scope        string `env:"KROGER_SCOPE, default=product.compact"`
}

// WalmartConfig holds the consumer identity and signing key location. Exactly
// one of PrivateKey, PrivateKeyPath or PrivateKeyARN is expected.
type WalmartConfig struct {
	APIURL     string `env:"WALMART_API_URL, default=https://developer.api.walmart.com/api-proxy/service/affil/product/v2"`
	ConsumerID string `env:"WALMART_CONSUMER_ID"`
	KeyVersion string `env:"WALMART_KEY_VERSION, default=1"`

	PrivateKey     string `env:"WALMART_PRIVATE_KEY"`
	PrivateKeyPath string `env:"WALMART_PRIVATE_KEY_PATH"`
	PrivateKeyARN  string `env:"WALMART_PRIVATE_KEY_ARN"`
}

type ObserveConfig struct {
	SDKLogLevel                string `env:"OBSERVE_OTEL_LOG_LEVEL, default=info"`
	Enabled                    bool   `env:"OBSERVE_ENABLED, default=false"`
	MetricsEnabled             bool   `env:"OBSERVE_METRICS_ENABLED, default=true"`
	Type                       string `env:"OBSERVE_TYPE, default=grpc"`
	ServiceName                string `env:"OBSERVE_SERVICE_NAME, default=grocery-bridge"`
	TraceBatchTimeoutSeconds   int    `env:"OBSERVE_TRACE_BATCH_TIMEOUT_SECS, default=20"`
	MetricReadIntervalSeconds  int    `env:"OBSERVE_METRIC_READ_INTERVAL_SECS, default=60"`
	HTTPTransportEnabled       bool   `env:"OBSERVE_HTTP_TRANSPORT_ENABLED, default=true"`
	HTTPConnectionTraceEnabled bool   `env:"OBSERVE_CONNECTION_TRACE_ENABLED, default=true"`
}

func Load(ctx context.Context) (Config, error) {
	return load(ctx, nil) // load from OS environment
}

func load(ctx context.Context, lookup envconfig.Lookuper) (Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookup, // nil defaults to OS environment
	})
	if err != nil {
		return cfg, err
	}

	err = cfg.Cache.Validate()
	if err != nil {
		return cfg, fmt.Errorf("invalid cache configuration: %w", err)
	}

	err = cfg.Server.Validate()
	if err != nil {
		return cfg, fmt.Errorf("invalid server configuration: %w", err)
	}

	if cfg.Aggregate.MaxConcurrency < 0 {
		return cfg, fmt.Errorf("AGGREGATE_MAX_CONCURRENCY must not be negative")
	}

	err = cfg.Upstream.Validate()
	if err != nil {
		return cfg, fmt.Errorf("invalid upstream configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the cache configuration is valid.
func (c *CacheConfig) Validate() error {
	if c.Type != "memory" && c.Type != "valkey" {
		return fmt.Errorf("CACHE_TYPE must be either \"memory\" or \"valkey\", got %q", c.Type)
	}

	// Valkey requires address
	if c.Type == "valkey" && c.Valkey.Address == "" {
		return fmt.Errorf("VALKEY_ADDRESS required when CACHE_TYPE=valkey")
	}

	if c.TTLSeconds <= 0 {
		return fmt.Errorf("CACHE_TTL_SECS must be positive")
	}

	return nil
}

// Validate checks that only known providers are enabled.
func (s *ServerConfig) Validate() error {
	if len(s.Providers) == 0 {
		return fmt.Errorf("PROVIDERS must name at least one provider")
	}

	for _, p := range s.Providers {
		if !slices.Contains(KnownProviders, p) {
			return fmt.Errorf("unknown provider %q in PROVIDERS", p)
		}
	}

	return nil
}

// Validate checks the outbound request limits.
func (u *UpstreamConfig) Validate() error {
	if u.TimeoutSeconds <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT_SECS must be positive")
	}

	if u.RequestsPerSecond < 0 {
		return fmt.Errorf("UPSTREAM_REQUESTS_PER_SEC must not be negative")
	}

	return nil
}

// ProviderEnabled reports whether the named provider is configured.
func (s ServerConfig) ProviderEnabled(name string) bool {
	return slices.Contains(s.Providers, name)
}
