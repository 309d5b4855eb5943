package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Distributed implements Cache using Valkey with server-assisted
// client-side caching. Payloads are stored as JSON with SETEX so entries
// expire passively after the TTL.
// The generic type T represents the payload being cached.
type Distributed[T any] struct {
	client valkey.Client
	ttl    time.Duration
}

// NewDistributed creates a new Valkey-backed cache with server-assisted
// client-side caching. The ttl parameter specifies how long payloads remain
// valid in the cache. The client is not closed by Close: it is usually shared
// between caches and owned by a Backend.
func NewDistributed[T any](valkeyClient valkey.Client, ttl time.Duration) (*Distributed[T], error) {
	if ttl < time.Second {
		return nil, fmt.Errorf("distributed cache ttl must be at least one second, got %s", ttl)
	}

	return &Distributed[T]{
		client: valkeyClient,
		ttl:    ttl,
	}, nil
}

// Get retrieves a payload from the cache using server-assisted client-side caching.
// Returns the payload, whether it was found, and any error.
// An entry that cannot be decoded is invalidated on a best-effort basis and
// reported as an error.
func (d *Distributed[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T

	// Use DoCache for server-assisted client-side caching
	// The .Cache() method enables client-side caching with server tracking
	cmd := d.client.B().Get().Key(key).Cache()
	result := d.client.DoCache(ctx, cmd, d.ttl)

	if err := result.Error(); err != nil {
		// Key not found is not an error in our semantics
		if valkey.IsValkeyNil(err) {
			return zero, false, nil
		}
		return zero, false, UnavailableError{Op: "get", Cause: err}
	}

	val, err := result.ToString()
	if err != nil {
		return zero, false, UnavailableError{Op: "get", Cause: fmt.Errorf("failed to convert cached value to string: %w", err)}
	}

	var value T
	if err := json.Unmarshal([]byte(val), &value); err != nil {
		// Best-effort invalidation of the corrupted entry.
		_ = d.client.Do(ctx, d.client.B().Del().Key(key).Build()).Error()

		return zero, false, UnavailableError{Op: "get", Cause: fmt.Errorf("failed to unmarshal cached value for key %q: %w", key, err)}
	}

	return value, true, nil
}

// Set stores a payload in the cache with the configured TTL.
// The payload is JSON-serialized before storage.
func (d *Distributed[T]) Set(ctx context.Context, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	cmd := d.client.B().Setex().Key(key).Seconds(int64(d.ttl.Seconds())).Value(string(data)).Build()
	if err := d.client.Do(ctx, cmd).Error(); err != nil {
		return UnavailableError{Op: "set", Cause: err}
	}
	return nil
}

// Invalidate removes a payload from the cache.
func (d *Distributed[T]) Invalidate(ctx context.Context, key string) error {
	cmd := d.client.B().Del().Key(key).Build()
	if err := d.client.Do(ctx, cmd).Error(); err != nil {
		return UnavailableError{Op: "invalidate", Cause: err}
	}
	return nil
}

// Close is a no-op: the shared client is released by its Backend.
func (d *Distributed[T]) Close() error {
	return nil
}
