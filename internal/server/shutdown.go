// Package server runs the HTTP listener and coordinates an orderly shutdown
// of the resources it depends on.
package server

import (
	"context"
	"io"

	"github.com/rs/zerolog/log"
)

type hookDefinition struct {
	name string
	fn   func(context.Context) error
}

// ShutdownHooks is an ordered list of cleanup functions run once the server
// has stopped accepting requests. A failing hook does not prevent later
// hooks from running.
type ShutdownHooks struct {
	hooks []hookDefinition
}

// AddContext registers a hook that receives the shutdown context, which
// carries the shutdown deadline. Nil hooks are ignored.
func (s *ShutdownHooks) AddContext(name string, hook func(context.Context) error) {
	if hook == nil {
		log.Warn().Str("hook", name).Msg("attempted to add nil shutdown hook; ignoring")
		return
	}

	log.Debug().Str("hook", name).Msg("adding shutdown hook")
	s.hooks = append(s.hooks, hookDefinition{name: name, fn: hook})
}

// Add registers a hook that does not need the shutdown context.
func (s *ShutdownHooks) Add(name string, hook func() error) {
	if hook == nil {
		log.Warn().Str("hook", name).Msg("attempted to add nil shutdown hook; ignoring")
		return
	}

	s.AddContext(name, func(context.Context) error {
		return hook()
	})
}

// AddClose registers the Close method of a resource such as a cache backend
// or provider connection.
func (s *ShutdownHooks) AddClose(name string, closer io.Closer) {
	if closer == nil {
		log.Warn().Str("hook", name).Msg("attempted to add nil shutdown hook; ignoring")
		return
	}

	s.Add(name, closer.Close)
}

// Len reports the number of registered hooks.
func (s *ShutdownHooks) Len() int {
	return len(s.hooks)
}

// Execute runs the hooks in registration order, logging the outcome of each.
func (s *ShutdownHooks) Execute(ctx context.Context) {
	l := log.Ctx(ctx)
	for _, hook := range s.hooks {
		hookLog := l.With().Str("hook", hook.name).Logger()

		if err := hook.fn(ctx); err != nil {
			hookLog.Warn().Err(err).Msg("shutdown hook failed")
			continue
		}

		hookLog.Info().Msg("shutdown hook complete")
	}
}
