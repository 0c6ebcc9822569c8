package apps

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dl7ad/pecantrack/internal/ax25"
	"github.com/dl7ad/pecantrack/internal/camera"
	"github.com/dl7ad/pecantrack/internal/pool"
	"github.com/dl7ad/pecantrack/internal/radio"
	"github.com/dl7ad/pecantrack/internal/ssdv"
	"github.com/dl7ad/pecantrack/internal/watchdog"
)

// ImageConfig bundles the Image thread's schedule and capture settings.
type ImageConfig struct {
	Self       ax25.Address
	Path       []ax25.Address
	Cycle      time.Duration
	Continuous bool
	Resolution camera.Resolution
	Quality    uint8
	Retries    uint8
}

// Image implements the Image application thread of spec.md §4.7: at
// wake it captures a JPEG, packetises it through internal/ssdv, and
// hands each packet to the Radio Manager as one AX.25 UI frame, with a
// per-packet retry policy bounded by Retries.
type Image struct {
	cfg      ImageConfig
	cam      *camera.Device
	mgr      *radio.Manager
	registry *watchdog.Registry
	pool     *pool.Pool
	log      zerolog.Logger

	imageID uint8
}

// NewImage wires an Image thread. pkts is the shared packet pool (C8)
// every outgoing SSDV packet is acquired from.
func NewImage(cfg ImageConfig, cam *camera.Device, mgr *radio.Manager, registry *watchdog.Registry, pkts *pool.Pool, log zerolog.Logger) *Image {
	return &Image{cfg: cfg, cam: cam, mgr: mgr, registry: registry, pool: pkts, log: log.With().Str("thread", "image").Logger()}
}

func (im *Image) Name() string { return "image" }

// Run captures and transmits one image per Cycle, or back-to-back if
// Continuous is set.
func (im *Image) Run(ctx context.Context) error {
	if im.cfg.Continuous {
		for {
			im.registry.Heartbeat(im.Name())
			if err := im.captureAndSend(ctx); err != nil {
				im.log.Warn().Err(err).Msg("image cycle failed")
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
	}

	ticker := time.NewTicker(im.cfg.Cycle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			im.registry.Heartbeat(im.Name())
			if err := im.captureAndSend(ctx); err != nil {
				im.log.Warn().Err(err).Msg("image cycle failed")
			}
		}
	}
}

func (im *Image) captureAndSend(ctx context.Context) error {
	jpeg, err := im.cam.Capture(ctx, im.cfg.Resolution, im.cfg.Quality)
	if err != nil {
		return err
	}

	im.imageID++
	packets := ssdv.Encode(jpeg, im.imageID, im.cfg.Self, im.cfg.Resolution, im.cfg.Quality)

	for _, pkt := range packets {
		if err := im.sendWithRetry(ctx, pkt); err != nil {
			im.log.Warn().Err(err).Uint16("packet_id", pkt.PacketID).Msg("ssdv packet dropped after retries")
		}
	}
	return nil
}

func (im *Image) sendWithRetry(ctx context.Context, pkt ssdv.Packet) error {
	ref, err := im.pool.Acquire()
	if err != nil {
		return err
	}
	p := ref.Packet()
	p.Dest, p.Src, p.Path, p.Info = apridDest, im.cfg.Self, im.cfg.Path, pkt.Bytes()
	frame, err := p.Encode()
	ref.Release()
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := uint8(0); attempt <= im.cfg.Retries; attempt++ {
		result, err := im.mgr.Submit(ctx, radio.PriorityImage, frame)
		if err != nil {
			lastErr = err
			continue
		}
		select {
		case r := <-result:
			if r.Err == nil {
				return nil
			}
			lastErr = r.Err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
