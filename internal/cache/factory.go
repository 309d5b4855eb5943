package cache

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/chinmina/grocery-bridge/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/valkey-io/valkey-go"
)

// Backend holds the storage selected by configuration. A single Valkey
// connection is shared by every cache created from the backend.
type Backend struct {
	cacheType string
	ttl       time.Duration
	maxSize   int
	client    valkey.Client
}

// Open creates the backend described by the configuration.
//
// The cache type must be either "memory" or "valkey". Any other value returns an error.
// For "valkey", the cacheConfig.Valkey.Address must be provided.
func Open(ctx context.Context, cacheConfig config.CacheConfig) (*Backend, error) {
	ttl := time.Duration(cacheConfig.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	backend := &Backend{
		cacheType: cacheConfig.Type,
		ttl:       ttl,
		maxSize:   cacheConfig.MaxMemoryEntries,
	}

	switch cacheConfig.Type {
	case "valkey":
		log.Info().
			Str("cache_type", "valkey").
			Str("address", cacheConfig.Valkey.Address).
			Bool("tls", cacheConfig.Valkey.TLS).
			Dur("ttl", ttl).
			Msg("initializing distributed cache")

		if cacheConfig.Valkey.Address == "" {
			return nil, fmt.Errorf("valkey address is required when cache type is valkey")
		}

		valkeyOpts := valkey.ClientOption{
			InitAddress: []string{cacheConfig.Valkey.Address},
			AuthCredentialsFn: StaticCredentialsFn(
				cacheConfig.Valkey.Username,
				cacheConfig.Valkey.Password,
			),
		}

		// Configure TLS if enabled
		if cacheConfig.Valkey.TLS {
			valkeyOpts.TLSConfig = &tls.Config{
				MinVersion: tls.VersionTLS12,
			}
		}

		valkeyClient, err := valkey.NewClient(valkeyOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to create valkey client: %w", err)
		}
		backend.client = valkeyClient

	case "memory":
		log.Info().
			Str("cache_type", "memory").
			Dur("ttl", ttl).
			Int("max_entries", backend.maxSize).
			Msg("initializing in-memory cache")

		if backend.maxSize <= 0 {
			backend.maxSize = 10_000
		}

	default:
		return nil, fmt.Errorf("invalid cache type %q: must be either \"memory\" or \"valkey\"", cacheConfig.Type)
	}

	return backend, nil
}

// TTL reports the expiry applied to every entry.
func (b *Backend) TTL() time.Duration {
	return b.ttl
}

// Close releases the shared connection, if any.
func (b *Backend) Close() error {
	if b.client != nil {
		b.client.Close()
	}
	return nil
}

// New creates an instrumented cache for payloads of type T on the backend.
// The payload name is used only for telemetry.
func New[T any](b *Backend, payload string) (Cache[T], error) {
	switch b.cacheType {
	case "valkey":
		distributed, err := NewDistributed[T](b.client, b.ttl)
		if err != nil {
			return nil, fmt.Errorf("failed to create distributed cache: %w", err)
		}
		return NewInstrumented[T](distributed, "distributed", payload), nil

	default:
		memory, err := NewMemory[T](b.ttl, b.maxSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create memory cache: %w", err)
		}
		return NewInstrumented[T](memory, "memory", payload), nil
	}
}
