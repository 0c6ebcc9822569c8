package apps

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dl7ad/pecantrack/internal/aprs"
	"github.com/dl7ad/pecantrack/internal/ax25"
	"github.com/dl7ad/pecantrack/internal/pool"
	"github.com/dl7ad/pecantrack/internal/radio"
	"github.com/dl7ad/pecantrack/internal/watchdog"
)

// digipeatQueueDepth bounds how many pending digipeat re-transmissions
// the Receiver can hand to the Digipeater before it starts dropping
// the oldest one — a slow digipeater lane should never block RX.
const digipeatQueueDepth = 8

// Receiver implements the receive half of spec.md §4.7's "Digipeater /
// Receiver" pairing: it owns the Radio Manager's RX channel, decodes
// every incoming frame, and is the sole caller of Dispatcher.Process
// (other threads only read the heard-set through HeardStations, under
// the dispatcher's lock). Message acks and command replies are
// transmitted directly; frames flagged for digipeating are handed off
// to the Digipeater thread over DigipeatQueue so a slow CCA backoff on
// the digipeat lane never stalls RX draining.
type Receiver struct {
	self     ax25.Address
	mgr      *radio.Manager
	dsp      *aprs.Dispatcher
	registry *watchdog.Registry
	pool     *pool.Pool
	log      zerolog.Logger

	digipeatQueue chan *ax25.Packet
}

// NewReceiver wires a Receiver thread. pkts is the shared packet pool
// (C8) every ack/reply frame is acquired from.
func NewReceiver(self ax25.Address, mgr *radio.Manager, dsp *aprs.Dispatcher, registry *watchdog.Registry, pkts *pool.Pool, log zerolog.Logger) *Receiver {
	return &Receiver{
		self:          self,
		mgr:           mgr,
		dsp:           dsp,
		registry:      registry,
		pool:          pkts,
		log:           log.With().Str("thread", "receiver").Logger(),
		digipeatQueue: make(chan *ax25.Packet, digipeatQueueDepth),
	}
}

func (r *Receiver) Name() string { return "receiver" }

// DigipeatQueue is read by the Digipeater thread.
func (r *Receiver) DigipeatQueue() <-chan *ax25.Packet { return r.digipeatQueue }

// Run starts RX and processes frames until ctx is cancelled.
func (r *Receiver) Run(ctx context.Context) error {
	rx, err := r.mgr.StartRX(ctx)
	if err != nil {
		return err
	}

	heartbeat := time.NewTicker(time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-heartbeat.C:
			r.registry.Heartbeat(r.Name())
		case raw, ok := <-rx:
			if !ok {
				return nil
			}
			r.registry.Heartbeat(r.Name())
			r.handle(ctx, raw)
		}
	}
}

func (r *Receiver) handle(ctx context.Context, raw []byte) {
	pkt, err := ax25.Decode(raw)
	if err != nil {
		r.log.Debug().Err(err).Msg("dropped undecodable frame")
		return
	}

	for _, result := range r.dsp.Process(pkt, time.Now()) {
		switch result.Action {
		case aprs.ActionAck:
			info := aprs.EncodeAck(result.AckTo, result.AckMsgNum)
			r.submit(ctx, radio.PriorityAck, info)
		case aprs.ActionReply:
			info, err := aprs.EncodeMessage(result.ReplyTo, result.ReplyText, "")
			if err != nil {
				r.log.Warn().Err(err).Msg("command reply too long to encode")
				continue
			}
			r.submit(ctx, radio.PriorityAck, info)
		case aprs.ActionDigipeat:
			select {
			case r.digipeatQueue <- result.DigipeatPacket:
			default:
				<-r.digipeatQueue
				r.digipeatQueue <- result.DigipeatPacket
			}
		}
	}
}

func (r *Receiver) submit(ctx context.Context, p radio.Priority, info []byte) {
	ref, err := r.pool.Acquire()
	if err != nil {
		r.log.Warn().Err(err).Msg("packet pool exhausted, dropping reply")
		return
	}
	pkt := ref.Packet()
	pkt.Dest, pkt.Src, pkt.Info = apridDest, r.self, info
	frame, err := pkt.Encode()
	ref.Release()
	if err != nil {
		r.log.Warn().Err(err).Msg("reply encode failed")
		return
	}
	if _, err := r.mgr.Submit(ctx, p, frame); err != nil {
		r.log.Warn().Err(err).Msg("reply submit failed")
	}
}
