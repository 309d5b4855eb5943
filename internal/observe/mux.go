// Package observe configures OpenTelemetry tracing and metrics for inbound
// routes and outbound provider calls.
package observe

import (
	"net/http"
	"slices"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

// Multiplexer is the subset of http.ServeMux that Mux decorates.
type Multiplexer interface {
	Handle(pattern string, handler http.Handler)
	http.Handler
}

// Mux registers every route with an OTel handler named after the route, so
// spans and request metrics are grouped by route rather than by raw path.
type Mux struct {
	wrapped Multiplexer
}

func NewMux(wrapped Multiplexer) *Mux {
	return &Mux{
		wrapped: wrapped,
	}
}

func (mux *Mux) Handle(pattern string, handler http.Handler) {
	route := TrimMethod(pattern)
	routeAttrs := []attribute.KeyValue{attribute.String("http.route", route)}

	taggedHandler := otelhttp.NewHandler(
		handler,
		route,
		otelhttp.WithMetricAttributesFn(func(*http.Request) []attribute.KeyValue {
			return routeAttrs
		}),
	)

	mux.wrapped.Handle(pattern, taggedHandler)
}

func (mux *Mux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux.wrapped.ServeHTTP(w, r)
}

var methods = []string{
	http.MethodConnect,
	http.MethodDelete,
	http.MethodGet,
	http.MethodHead,
	http.MethodOptions,
	http.MethodPatch,
	http.MethodPost,
	http.MethodPut,
	http.MethodTrace,
}

// TrimMethod strips a leading HTTP method from a ServeMux pattern.
func TrimMethod(pattern string) string {
	method, resource, hasMethod := strings.Cut(pattern, " ")
	if hasMethod && slices.Contains(methods, method) {
		return resource
	}
	return pattern
}
