// Package bridge assembles the configured providers, their caches and the
// aggregator from configuration. The server and the lookup command share it.
package bridge

import (
	"context"
	"fmt"
	"net/http"

	"github.com/chinmina/grocery-bridge/internal/aggregate"
	"github.com/chinmina/grocery-bridge/internal/cache"
	"github.com/chinmina/grocery-bridge/internal/config"
	"github.com/chinmina/grocery-bridge/internal/grocery"
	"github.com/chinmina/grocery-bridge/internal/kroger"
	"github.com/chinmina/grocery-bridge/internal/server"
	"github.com/chinmina/grocery-bridge/internal/upstream"
	"github.com/chinmina/grocery-bridge/internal/walmart"
	"github.com/rs/zerolog/log"
)

// New creates the aggregator over every enabled provider. Resources that
// need releasing are registered with hooks, which the caller must execute
// even when New fails part way through.
func New(ctx context.Context, cfg config.Config, httpClient *http.Client, hooks *server.ShutdownHooks) (*aggregate.Aggregator, error) {
	backend, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("cache configuration failed: %w", err)
	}
	hooks.AddClose("cache backend", backend)

	locationCache, err := cache.New[[]grocery.StoreLocation](backend, "locations")
	if err != nil {
		return nil, fmt.Errorf("location cache configuration failed: %w", err)
	}
	hooks.AddClose("location cache", locationCache)

	productCache, err := cache.New[[]grocery.Product](backend, "products")
	if err != nil {
		return nil, fmt.Errorf("product cache configuration failed: %w", err)
	}
	hooks.AddClose("product cache", productCache)

	limits := upstream.FromConfig(cfg.Upstream)

	var providers []grocery.Provider

	if cfg.Server.ProviderEnabled(kroger.Name) {
		kc, err := kroger.New(cfg.Kroger, httpClient, limits...)
		if err != nil {
			return nil, fmt.Errorf("kroger configuration failed: %w", err)
		}
		providers = append(providers, aggregate.Cached(kc, locationCache, productCache))
	}

	if cfg.Server.ProviderEnabled(walmart.Name) {
		wc, err := walmart.New(ctx, cfg.Walmart, httpClient, walmart.WithUpstream(limits...))
		if err != nil {
			return nil, fmt.Errorf("walmart configuration failed: %w", err)
		}
		providers = append(providers, aggregate.Cached(wc, locationCache, productCache))
	}

	agg := aggregate.New(cfg.Aggregate.MaxConcurrency, providers...)

	log.Info().
		Strs("stores", agg.Stores()).
		Int("max_concurrency", cfg.Aggregate.MaxConcurrency).
		Dur("cache_ttl", backend.TTL()).
		Msg("providers configured")

	return agg, nil
}
