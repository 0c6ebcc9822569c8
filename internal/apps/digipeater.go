package apps

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dl7ad/pecantrack/internal/ax25"
	"github.com/dl7ad/pecantrack/internal/radio"
	"github.com/dl7ad/pecantrack/internal/watchdog"
)

// Digipeater implements the re-transmit half of spec.md §4.7's
// "Digipeater / Receiver" pairing: it drains packets the Receiver
// thread already ran through Dispatcher.Process (path entry consumed,
// H-bit set) and re-encodes and re-transmits them at PriorityDigipeat.
type Digipeater struct {
	queue    <-chan *ax25.Packet
	mgr      *radio.Manager
	registry *watchdog.Registry
	log      zerolog.Logger
}

// NewDigipeater wires a Digipeater thread reading from a Receiver's
// DigipeatQueue.
func NewDigipeater(queue <-chan *ax25.Packet, mgr *radio.Manager, registry *watchdog.Registry, log zerolog.Logger) *Digipeater {
	return &Digipeater{queue: queue, mgr: mgr, registry: registry, log: log.With().Str("thread", "digipeater").Logger()}
}

func (d *Digipeater) Name() string { return "digipeater" }

// Run re-transmits queued packets until ctx is cancelled.
func (d *Digipeater) Run(ctx context.Context) error {
	heartbeat := time.NewTicker(time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-heartbeat.C:
			d.registry.Heartbeat(d.Name())
		case pkt, ok := <-d.queue:
			if !ok {
				return nil
			}
			d.registry.Heartbeat(d.Name())
			d.retransmit(ctx, pkt)
		}
	}
}

func (d *Digipeater) retransmit(ctx context.Context, pkt *ax25.Packet) {
	frame, err := pkt.Encode()
	if err != nil {
		d.log.Warn().Err(err).Msg("digipeat re-encode failed")
		return
	}
	result, err := d.mgr.Submit(ctx, radio.PriorityDigipeat, frame)
	if err != nil {
		d.log.Warn().Err(err).Msg("digipeat submit failed")
		return
	}
	select {
	case r := <-result:
		if r.Err != nil {
			d.log.Warn().Err(r.Err).Msg("digipeat transmission failed")
		}
	case <-ctx.Done():
	}
}
