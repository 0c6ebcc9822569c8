// Command tracker boots the balloon telemetry tracker: wires every
// component (real hardware under tinygo, host stubs otherwise, see
// constructors_nrf.go/constructors_host.go) and runs the application
// threads until interrupted. Structured entirely the way
// norasector-turbine's cmd/turbine/main.go boots its own worker set:
// a zerolog console writer, an errgroup-driven shutdown on SIGINT/
// SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	pecantrack "github.com/dl7ad/pecantrack"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	tracker, err := pecantrack.New(log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise tracker")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("shutdown signal received")
		cancel()
	}()

	if err := tracker.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("tracker exited with error")
	}
}
