package apps

import (
	"bytes"
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dl7ad/pecantrack/internal/aprs"
	"github.com/dl7ad/pecantrack/internal/ax25"
	"github.com/dl7ad/pecantrack/internal/collector"
	"github.com/dl7ad/pecantrack/internal/pool"
	"github.com/dl7ad/pecantrack/internal/radio"
	"github.com/dl7ad/pecantrack/internal/watchdog"
)

// LogConfig bundles the Log thread's schedule and packing factor.
type LogConfig struct {
	Self             ax25.Address
	Path             []ax25.Address
	Cycle            time.Duration
	RecordsPerPacket int
}

// Log implements the Log application thread of spec.md §4.7: it walks
// the log ring from a cursor it owns, packs RecordsPerPacket records'
// worth of telemetry into one or more APRS packets, transmits them,
// and only then advances its cursor.
type Log struct {
	cfg       LogConfig
	collector *collector.Collector
	mgr       *radio.Manager
	registry  *watchdog.Registry
	pool      *pool.Pool
	log       zerolog.Logger

	readIdx int
}

// NewLog wires a Log thread, starting its read cursor at the ring's
// oldest surviving slot: slot zero while the ring has not wrapped, the
// write cursor once it has. pkts is the shared packet pool (C8) every
// outgoing replay frame is acquired from.
func NewLog(cfg LogConfig, c *collector.Collector, mgr *radio.Manager, registry *watchdog.Registry, pkts *pool.Pool, log zerolog.Logger) *Log {
	start := c.LogCursor()
	if _, ok := c.GetLog(start); !ok {
		start = 0 // ring has not wrapped: the oldest record is in slot zero
	}
	return &Log{
		cfg:       cfg,
		collector: c,
		mgr:       mgr,
		registry:  registry,
		pool:      pkts,
		log:       log.With().Str("thread", "log").Logger(),
		readIdx:   start,
	}
}

func (l *Log) Name() string { return "log" }

// Run drains newly-written log records every Cycle until ctx is cancelled.
func (l *Log) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.Cycle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.registry.Heartbeat(l.Name())
			l.drain(ctx)
		}
	}
}

// drain walks from readIdx up to (but not including) the ring's
// current write cursor, transmitting RecordsPerPacket records per
// frame, and only advances readIdx once each frame's transmission
// completes — a retransmit on failure is simply left for next cycle.
func (l *Log) drain(ctx context.Context) {
	target := l.collector.LogCursor()
	slots := l.collector.LogSlots()
	if slots == 0 {
		return
	}

	for l.readIdx != target {
		var batch [][]byte
		start := l.readIdx
		for len(batch) < l.cfg.RecordsPerPacket && l.readIdx != target {
			if dp, ok := l.collector.GetLog(l.readIdx); ok {
				batch = append(batch, aprs.EncodeTelemetryReport(&dp, aprs.DefaultTelemetryConfig(), uint16(dp.ID)))
			}
			l.readIdx = (l.readIdx + 1) % slots
		}
		if len(batch) == 0 {
			continue
		}

		info := bytes.Join(batch, []byte("|"))
		if len(info) > ax25.MaxInfoLen {
			info = info[:ax25.MaxInfoLen]
		}
		if err := l.submit(ctx, info); err != nil {
			l.log.Warn().Err(err).Int("from_slot", start).Msg("log replay transmission failed, will retry next cycle")
			l.readIdx = start
			return
		}
	}
}

func (l *Log) submit(ctx context.Context, info []byte) error {
	ref, err := l.pool.Acquire()
	if err != nil {
		return err
	}
	pkt := ref.Packet()
	pkt.Dest, pkt.Src, pkt.Path, pkt.Info = apridDest, l.cfg.Self, l.cfg.Path, info
	frame, err := pkt.Encode()
	ref.Release()
	if err != nil {
		return err
	}
	result, err := l.mgr.Submit(ctx, radio.PriorityBeacon, frame)
	if err != nil {
		return err
	}
	select {
	case r := <-result:
		return r.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}
