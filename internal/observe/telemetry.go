package observe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chinmina/grocery-bridge/internal/config"
	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ShutdownFunc flushes and stops the configured telemetry providers.
type ShutdownFunc func(context.Context) error

func noShutdown(context.Context) error { return nil }

// Configure installs the global tracer and meter providers described by cfg.
// When telemetry is disabled the OTel no-op providers remain in place.
func Configure(ctx context.Context, cfg config.ObserveConfig) (ShutdownFunc, error) {
	configureSDKLogging(cfg)

	if !cfg.Enabled {
		log.Info().Msg("telemetry: disabled")
		return noShutdown, nil
	}

	if cfg.Type != "grpc" && cfg.Type != "stdout" {
		return nil, fmt.Errorf("unknown telemetry exporter type %q: must be \"grpc\" or \"stdout\"", cfg.Type)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry resource creation failed: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	var shutdowns []ShutdownFunc

	tp, err := newTracerProvider(ctx, cfg, res)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)
	shutdowns = append(shutdowns, tp.Shutdown)

	if cfg.MetricsEnabled {
		mp, err := newMeterProvider(ctx, cfg, res)
		if err != nil {
			_ = tp.Shutdown(ctx)
			return nil, err
		}
		otel.SetMeterProvider(mp)
		shutdowns = append(shutdowns, mp.Shutdown)
	}

	log.Info().
		Str("type", cfg.Type).
		Bool("metrics", cfg.MetricsEnabled).
		Str("service", cfg.ServiceName).
		Msg("telemetry: configured")

	return func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdowns {
			errs = append(errs, fn(ctx))
		}
		return errors.Join(errs...)
	}, nil
}

func newTracerProvider(ctx context.Context, cfg config.ObserveConfig, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	if cfg.Type == "stdout" {
		exporter, err = stdouttrace.New()
	} else {
		exporter, err = otlptracegrpc.New(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("trace exporter creation failed: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(time.Duration(cfg.TraceBatchTimeoutSeconds)*time.Second),
		),
		sdktrace.WithResource(res),
	), nil
}

func newMeterProvider(ctx context.Context, cfg config.ObserveConfig, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	var (
		exporter sdkmetric.Exporter
		err      error
	)
	if cfg.Type == "stdout" {
		exporter, err = stdoutmetric.New()
	} else {
		exporter, err = otlpmetricgrpc.New(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("metric exporter creation failed: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter,
		sdkmetric.WithInterval(time.Duration(cfg.MetricReadIntervalSeconds)*time.Second),
	)

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	), nil
}

// configureSDKLogging routes the SDK's internal logging and error reporting
// through zerolog at the configured level.
func configureSDKLogging(cfg config.ObserveConfig) {
	level, err := zerolog.ParseLevel(cfg.SDKLogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	sdkLogger := log.Logger.With().Str("component", "otel").Logger().Level(level)
	otel.SetLogger(zerologr.New(&sdkLogger))

	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		sdkLogger.Warn().Err(err).Msg("telemetry error")
	}))
}
