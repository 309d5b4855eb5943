package cache

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	metricsOnce     sync.Once
	cacheOperations metric.Int64Counter
	cacheDuration   metric.Float64Histogram
)

func initMetrics() {
	metricsOnce.Do(func() {
		meter := otel.Meter("github.com/chinmina/grocery-bridge/internal/cache")

		var err error
		cacheOperations, err = meter.Int64Counter(
			"cache.operations",
			metric.WithDescription("Total cache operations"),
		)
		if err != nil {
			otel.Handle(err)
		}

		cacheDuration, err = meter.Float64Histogram(
			"cache.operation.duration",
			metric.WithDescription("Cache operation duration"),
			metric.WithUnit("s"),
		)
		if err != nil {
			otel.Handle(err)
		}
	})
}

// Instrumented wraps a Cache with metrics instrumentation. The payload name
// distinguishes caches sharing a backend (e.g. "locations", "products").
type Instrumented[T any] struct {
	wrapped   Cache[T]
	cacheType string
	payload   string
}

// NewInstrumented creates an instrumented cache wrapper.
func NewInstrumented[T any](cache Cache[T], cacheType string, payload string) *Instrumented[T] {
	initMetrics()
	return &Instrumented[T]{
		wrapped:   cache,
		cacheType: cacheType,
		payload:   payload,
	}
}

// Get retrieves a payload from the cache.
func (i *Instrumented[T]) Get(ctx context.Context, key string) (T, bool, error) {
	start := time.Now()

	value, found, err := i.wrapped.Get(ctx, key)

	status := "miss"
	if err != nil {
		status = "error"
	} else if found {
		status = "hit"
	}
	i.record(ctx, "get", status, time.Since(start))

	return value, found, err
}

// Set stores a payload in the cache.
func (i *Instrumented[T]) Set(ctx context.Context, key string, value T) error {
	start := time.Now()

	err := i.wrapped.Set(ctx, key, value)
	i.record(ctx, "set", outcome(err), time.Since(start))

	return err
}

// Invalidate removes a payload from the cache.
func (i *Instrumented[T]) Invalidate(ctx context.Context, key string) error {
	start := time.Now()

	err := i.wrapped.Invalidate(ctx, key)
	i.record(ctx, "invalidate", outcome(err), time.Since(start))

	return err
}

// Close releases any resources held by the cache.
func (i *Instrumented[T]) Close() error {
	return i.wrapped.Close()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (i *Instrumented[T]) record(ctx context.Context, operation, status string, duration time.Duration) {
	common := []attribute.KeyValue{
		attribute.String("cache.type", i.cacheType),
		attribute.String("cache.payload", i.payload),
		attribute.String("cache.operation", operation),
	}

	if cacheOperations != nil {
		cacheOperations.Add(ctx, 1,
			metric.WithAttributes(append(common, attribute.String("cache.status", status))...),
		)
	}

	if cacheDuration != nil {
		cacheDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(common...))
	}

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("cache."+i.payload+"."+operation+".status", status),
		attribute.Float64("cache."+i.payload+"."+operation+".duration", duration.Seconds()),
	)
}
