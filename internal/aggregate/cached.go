package aggregate

import (
	"context"

	"github.com/chinmina/grocery-bridge/internal/audit"
	"github.com/chinmina/grocery-bridge/internal/cache"
	"github.com/chinmina/grocery-bridge/internal/grocery"
	"github.com/rs/zerolog/log"
)

// Cached wraps a provider with read-through caches for its location and
// product lookups. Cache failures are logged and treated as a miss; they never
// fail the lookup. Provider errors are not cached.
func Cached(p grocery.Provider, locations cache.Cache[[]grocery.StoreLocation], products cache.Cache[[]grocery.Product]) grocery.Provider {
	return &cachedProvider{
		provider:  p,
		locations: locations,
		products:  products,
	}
}

type cachedProvider struct {
	provider  grocery.Provider
	locations cache.Cache[[]grocery.StoreLocation]
	products  cache.Cache[[]grocery.Product]
}

func (c *cachedProvider) Name() string {
	return c.provider.Name()
}

func (c *cachedProvider) ChainWideSearch() bool {
	cw, ok := c.provider.(grocery.ChainWideSearcher)
	return ok && cw.ChainWideSearch()
}

func (c *cachedProvider) Locations(ctx context.Context, coords grocery.Coordinates) ([]grocery.StoreLocation, error) {
	key := cache.Key(c.provider.Name(), "location", coords.String())

	return readThrough(ctx, c.locations, key, func() ([]grocery.StoreLocation, error) {
		return c.provider.Locations(ctx, coords)
	})
}

func (c *cachedProvider) Products(ctx context.Context, locationID string, term string) ([]grocery.Product, error) {
	slot := grocery.SearchLocation(c.provider, locationID)
	key := cache.Key(c.provider.Name(), "product", slot, grocery.NormalizeTerm(term))

	return readThrough(ctx, c.products, key, func() ([]grocery.Product, error) {
		return c.provider.Products(ctx, locationID, term)
	})
}

func readThrough[T any](ctx context.Context, store cache.Cache[[]T], key string, fetch func() ([]T, error)) ([]T, error) {
	entry := audit.Log(ctx)

	cached, found, err := store.Get(ctx, key)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cache read failed, treating as miss")
	} else if found {
		log.Ctx(ctx).Debug().Str("key", key).Msg("hit: cached provider response")
		entry.CacheHit()
		return grocery.Truncate(cached), nil
	}

	entry.CacheMiss()

	value, err := fetch()
	if err != nil {
		return nil, err
	}

	value = grocery.Truncate(value)

	if err := store.Set(ctx, key, value); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cache write failed")
	}

	return value, nil
}
