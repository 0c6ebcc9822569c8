// Package apps holds the five application threads spec.md §4.7
// names — Beacon, Image, Log, Digipeater, Receiver — each a
// threads.Thread launched by threads.Supervisor. They are the
// generalisation of the teacher's single flat main-loop dispatch into
// one goroutine per concern, feeding the shared radio.Manager instead
// of calling transport.Transmitter directly.
package apps

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dl7ad/pecantrack/internal/aprs"
	"github.com/dl7ad/pecantrack/internal/ax25"
	"github.com/dl7ad/pecantrack/internal/collector"
	"github.com/dl7ad/pecantrack/internal/geofence"
	"github.com/dl7ad/pecantrack/internal/pool"
	"github.com/dl7ad/pecantrack/internal/radio"
	"github.com/dl7ad/pecantrack/internal/watchdog"
)

// ParseDigiPath turns a comma-separated path string like "WIDE1-1" or
// "WIDE2-1,WIDE1-1" into the ax25.Address slice a Packet.Path expects.
// Shared by every build-tag constructor, so it lives here rather than
// in each of them.
func ParseDigiPath(s string) []ax25.Address {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var path []ax25.Address
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		call := entry
		ssid := uint8(0)
		if i := strings.LastIndexByte(entry, '-'); i > 0 {
			call = entry[:i]
			if v, err := strconv.Atoi(entry[i+1:]); err == nil {
				ssid = uint8(v)
			}
		}
		addr, err := ax25.NewAddress(call, ssid)
		if err != nil {
			continue
		}
		path = append(path, addr)
	}
	return path
}

// BeaconConfig bundles a Beacon thread's schedule and identity, taken
// from config.Beacon/config.Identity at wiring time so apps doesn't
// import internal/config directly (keeping the dependency direction
// the same as the teacher's constructors_*.go files, which build
// concrete collaborators and hand already-resolved values down).
type BeaconConfig struct {
	Self     ax25.Address
	BaseCall ax25.Address // APRSD summaries addressed here; Self if zero-value
	Path     []ax25.Address
	Comment  string

	Cycle       time.Duration
	TelEncCycle time.Duration

	FreqDescriptor geofence.FrequencyDescriptor
}

// Beacon implements the Beacon application thread of spec.md §4.7:
// every Cycle it transmits a position+telemetry packet; every
// TelEncCycle it additionally transmits the four telemetry-config
// PDUs (5s apart) followed by an APRSD summary.
type Beacon struct {
	cfg        BeaconConfig
	collector  *collector.Collector
	mgr        *radio.Manager
	resolver   *geofence.Resolver
	dispatcher *aprs.Dispatcher
	registry   *watchdog.Registry
	pool       *pool.Pool
	telCfg     aprs.TelemetryConfig
	log        zerolog.Logger

	telSeq uint16
}

// NewBeacon wires a Beacon thread. pkts is the shared packet pool (C8)
// every outgoing frame is acquired from.
func NewBeacon(cfg BeaconConfig, c *collector.Collector, mgr *radio.Manager, resolver *geofence.Resolver, dispatcher *aprs.Dispatcher, registry *watchdog.Registry, pkts *pool.Pool, log zerolog.Logger) *Beacon {
	return &Beacon{
		cfg:        cfg,
		collector:  c,
		mgr:        mgr,
		resolver:   resolver,
		dispatcher: dispatcher,
		registry:   registry,
		pool:       pkts,
		telCfg:     aprs.DefaultTelemetryConfig(),
		log:        log.With().Str("thread", "beacon").Logger(),
	}
}

func (b *Beacon) Name() string { return "beacon" }

// Run drives the Beacon schedule until ctx is cancelled. Per spec §8
// scenario S1 and the original firmware's beacon.c (which seeds
// last_conf_transmission = now - tel_enc_cycle so the config group goes
// out on the very first cycle), the telemetry-config group is sent once
// up front, before the schedule's first position+telemetry frame, so
// config always precedes position within the same boot.
func (b *Beacon) Run(ctx context.Context) error {
	cycleTicker := time.NewTicker(b.cfg.Cycle)
	defer cycleTicker.Stop()

	var telTicker *time.Ticker
	var telCh <-chan time.Time
	if b.cfg.TelEncCycle > 0 {
		b.registry.Heartbeat(b.Name())
		b.transmitTelemetryConfigAndSummary(ctx)

		telTicker = time.NewTicker(b.cfg.TelEncCycle)
		defer telTicker.Stop()
		telCh = telTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-cycleTicker.C:
			b.registry.Heartbeat(b.Name())
			b.transmitPositionTelemetry(ctx)
		case <-telCh:
			b.registry.Heartbeat(b.Name())
			b.transmitTelemetryConfigAndSummary(ctx)
		}
	}
}

func (b *Beacon) transmitPositionTelemetry(ctx context.Context) {
	dp, err := b.collector.RequestSnapshot(ctx, collector.Intent{RequireGPS: true})
	if err != nil {
		b.log.Warn().Err(err).Msg("snapshot request failed")
		return
	}

	hz := b.resolver.Resolve(b.cfg.FreqDescriptor, &dp)
	if err := b.mgr.SetFrequency(hz); err != nil {
		b.log.Warn().Err(err).Msg("set frequency failed")
	}

	posInfo, err := aprs.EncodePosition(&dp, aprs.DefaultSymbol, b.cfg.Comment)
	if err != nil {
		b.log.Warn().Err(err).Msg("position encode skipped (no usable fix)")
	} else {
		b.submit(ctx, radio.PriorityBeacon, b.cfg.Self, posInfo)
	}

	b.telSeq++
	telInfo := aprs.EncodeTelemetryReport(&dp, b.telCfg, b.telSeq)
	b.submit(ctx, radio.PriorityBeacon, b.cfg.Self, telInfo)
}

func (b *Beacon) transmitTelemetryConfigAndSummary(ctx context.Context) {
	pdus := aprs.EncodeTelemetryConfig(b.cfg.Self, b.telCfg)
	for _, pdu := range pdus {
		b.submit(ctx, radio.PriorityBeacon, b.cfg.Self, pdu)
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}

	to := b.cfg.BaseCall
	if to == (ax25.Address{}) {
		to = b.cfg.Self
	}
	heard := b.dispatcher.HeardStations(time.Now())
	info := aprs.EncodeAPRSD(to, heard)
	b.submit(ctx, radio.PriorityBeacon, b.cfg.Self, info)
}

func (b *Beacon) submit(ctx context.Context, p radio.Priority, from ax25.Address, info []byte) {
	ref, err := b.pool.Acquire()
	if err != nil {
		b.log.Warn().Err(err).Msg("packet pool exhausted, dropping frame")
		return
	}
	defer ref.Release()

	pkt := ref.Packet()
	pkt.Dest, pkt.Src, pkt.Path, pkt.Info = apridDest, from, b.cfg.Path, info
	frame, err := pkt.Encode()
	if err != nil {
		b.log.Warn().Err(err).Msg("packet encode failed")
		return
	}
	result, err := b.mgr.Submit(ctx, p, frame)
	if err != nil {
		b.log.Warn().Err(err).Msg("submit failed")
		return
	}
	select {
	case r := <-result:
		if r.Err != nil {
			b.log.Warn().Err(r.Err).Msg("beacon transmission failed")
		}
	case <-ctx.Done():
	}
}

// apridDest is the conventional APRS destination address ("APRS" with
// SSID 0) used on every PDU this tracker originates.
var apridDest = ax25.Address{Call: "APRS"}
