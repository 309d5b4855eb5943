package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DefaultTTL is applied to provider responses when no TTL is configured.
const DefaultTTL = 300 * time.Second

// Cache defines the interface for response caching implementations.
// The generic type T represents the payload being cached.
type Cache[T any] interface {
	// Get retrieves a payload from the cache.
	// Returns the payload, whether it was found, and any error.
	Get(ctx context.Context, key string) (T, bool, error)

	// Set stores a payload in the cache.
	Set(ctx context.Context, key string, value T) error

	// Invalidate removes a payload from the cache.
	Invalidate(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// Key builds a cache key of the form "<provider>:<operation>:<part>[:<part>]".
// Parts must already be normalized by the caller so that equivalent queries
// produce identical keys.
func Key(provider string, operation string, parts ...string) string {
	segments := make([]string, 0, len(parts)+2)
	segments = append(segments, provider, operation)
	segments = append(segments, parts...)

	return strings.Join(segments, ":")
}

// UnavailableError indicates the backing store could not be reached or
// returned an unusable value. Callers treat it as a cache miss.
type UnavailableError struct {
	Op    string
	Cause error
}

func (e UnavailableError) Error() string {
	return fmt.Sprintf("cache %s failed: %v", e.Op, e.Cause)
}

func (e UnavailableError) Unwrap() error {
	return e.Cause
}
