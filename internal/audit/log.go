// Package audit writes one structured log line per request, describing the
// lookup that was performed and how it was served.
package audit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Level is the level at which audit entries are written.
const Level = zerolog.InfoLevel

// RequestIDHeader carries the request identifier. A valid UUID supplied by
// the caller is kept, otherwise a new one is issued.
const RequestIDHeader = "X-Request-Id"

type key struct{}

// Entry collects the details of a single request. Handlers and decorators
// fill it in through Log; the middleware writes it once the request ends.
type Entry struct {
	RequestID string
	Method    string
	Path      string
	Status    int
	SourceIP  string
	UserAgent string

	Store           string
	Operation       string
	Term            string
	Coordinates     string
	Locations       []string
	Results         int
	FailedLocations []string

	Error string

	cacheHits   atomic.Int32
	cacheMisses atomic.Int32
}

// CacheHit records a lookup served from the cache. Safe for concurrent use.
func (e *Entry) CacheHit() {
	e.cacheHits.Add(1)
}

// CacheMiss records a lookup that went upstream. Safe for concurrent use.
func (e *Entry) CacheMiss() {
	e.cacheMisses.Add(1)
}

// CacheHits reports the number of lookups served from the cache.
func (e *Entry) CacheHits() int {
	return int(e.cacheHits.Load())
}

// CacheMisses reports the number of lookups that went upstream.
func (e *Entry) CacheMisses() int {
	return int(e.cacheMisses.Load())
}

func (e *Entry) MarshalZerologObject(event *zerolog.Event) {
	event.Dict("request", zerolog.Dict().
		Str("id", e.RequestID).
		Str("method", e.Method).
		Str("path", e.Path).
		Int("status", e.Status).
		Str("sourceIP", e.SourceIP).
		Str("userAgent", e.UserAgent),
	)

	lookup := newDict().
		Str("store", e.Store).
		Str("operation", e.Operation).
		Str("term", e.Term).
		Str("coordinates", e.Coordinates).
		Strs("locations", e.Locations).
		Int("results", e.Results).
		Strs("failedLocations", e.FailedLocations)
	lookup.Set(event, "lookup")

	cache := newDict().
		Int("hits", e.CacheHits()).
		Int("misses", e.CacheMisses())
	cache.Set(event, "cache")

	if e.Error != "" {
		event.Str("error", e.Error)
	}
}

// Begin records the request details.
func (e *Entry) Begin(r *http.Request) {
	e.Method = r.Method
	e.Path = r.URL.Path
	e.UserAgent = r.UserAgent()

	if id, err := uuid.Parse(r.Header.Get(RequestIDHeader)); err == nil {
		e.RequestID = id.String()
	} else {
		e.RequestID = uuid.NewString()
	}

	e.SourceIP = r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		e.SourceIP = host
	}

	if e.Status == 0 {
		e.Status = http.StatusOK
	}
}

// End returns a function that writes the entry. It must be deferred directly
// so that a panic in the handler is recorded before being re-raised.
func (e *Entry) End(ctx context.Context) func() {
	return func() {
		r := recover()
		if r != nil {
			if e.Error != "" {
				e.Error += "; "
			}
			e.Error += fmt.Sprintf("panic: %v", r)
			e.Status = http.StatusInternalServerError
		}

		zerolog.Ctx(ctx).WithLevel(Level).EmbedObject(e).Msg("audit_event")

		if r != nil {
			panic(r)
		}
	}
}

// Middleware creates an audit entry for every request and writes it when the
// request completes.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, entry := Context(r.Context())
			entry.Begin(r)

			// every log line written while serving the request carries its id
			logger := zerolog.Ctx(ctx).With().Str("requestId", entry.RequestID).Logger()
			ctx = logger.WithContext(ctx)

			defer entry.End(ctx)()

			w.Header().Set(RequestIDHeader, entry.RequestID)

			recorder := &statusRecorder{ResponseWriter: w, entry: entry}
			next.ServeHTTP(recorder, r.WithContext(ctx))
		})
	}
}

// Context returns the entry stored in ctx, creating and storing a new one if
// none is present.
func Context(ctx context.Context) (context.Context, *Entry) {
	if e, ok := ctx.Value(key{}).(*Entry); ok {
		return ctx, e
	}

	e := &Entry{}
	return context.WithValue(ctx, key{}, e), e
}

// Log returns the entry for the current request. Outside of an audited
// request a detached entry is returned, so callers never need a nil check.
func Log(ctx context.Context) *Entry {
	_, e := Context(ctx)
	return e
}

type statusRecorder struct {
	http.ResponseWriter
	entry *Entry
}

func (s *statusRecorder) WriteHeader(status int) {
	s.entry.Status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// dict is a zerolog dictionary that is only written when at least one value
// was added. Zero values are skipped.
type dict struct {
	ev       *zerolog.Event
	modified bool
}

func newDict() *dict {
	return &dict{ev: zerolog.Dict()}
}

func (d *dict) Str(key, val string) *dict {
	if val != "" {
		d.ev.Str(key, val)
		d.modified = true
	}
	return d
}

func (d *dict) Strs(key string, vals []string) *dict {
	if len(vals) > 0 {
		d.ev.Strs(key, vals)
		d.modified = true
	}
	return d
}

func (d *dict) Int(key string, val int) *dict {
	if val != 0 {
		d.ev.Int(key, val)
		d.modified = true
	}
	return d
}

// Set adds the dictionary to parent under key if anything was recorded.
func (d *dict) Set(parent *zerolog.Event, key string) bool {
	if !d.modified {
		return false
	}
	parent.Dict(key, d.ev)
	return true
}
