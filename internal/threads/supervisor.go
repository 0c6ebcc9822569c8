// Package threads supervises the application-thread set (spec.md §5's
// "independent goroutines + channel messaging" model) using
// golang.org/x/sync/errgroup, the Go-native reading of spec.md's
// watchdog/thread-supervision requirement: the first thread to return
// an error cancels every other thread's context, and Wait returns that
// first error.
package threads

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dl7ad/pecantrack/internal/watchdog"
)

// Thread is anything internal/apps launches: Beacon, Image, Log,
// Digipeater, Receiver.
type Thread interface {
	Name() string
	Run(ctx context.Context) error
}

// Supervisor launches a fixed set of Threads, registers each with a
// watchdog.Registry before starting, and propagates the first error
// (cancelling the rest) the way errgroup.Group already does.
type Supervisor struct {
	registry *watchdog.Registry
	log      zerolog.Logger
}

// NewSupervisor builds a Supervisor backed by registry.
func NewSupervisor(registry *watchdog.Registry, log zerolog.Logger) *Supervisor {
	return &Supervisor{registry: registry, log: log.With().Str("component", "supervisor").Logger()}
}

// Run launches every thread and blocks until ctx is cancelled or one
// thread returns a non-nil error, whichever comes first.
func (s *Supervisor) Run(ctx context.Context, threads ...Thread) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, th := range threads {
		th := th
		s.registry.Register(th.Name())
		g.Go(func() error {
			err := th.Run(gctx)
			if err != nil && gctx.Err() == nil {
				s.log.Error().Err(err).Str("thread", th.Name()).Msg("application thread exited with error")
			}
			return err
		})
	}
	return g.Wait()
}
