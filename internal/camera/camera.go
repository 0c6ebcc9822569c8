// Package camera is the image-capture façade: a Driver seam like
// transport.RadioDriver, wrapped in a Device that exposes one
// operation — capture a JPEG at a given resolution/quality — to the
// Image application thread.
package camera

import "context"

// Resolution is a capture frame size.
type Resolution uint8

const (
	Resolution320x240 Resolution = iota
	Resolution640x480
	Resolution800x600
)

// Driver is the minimal seam a concrete camera implementation must
// satisfy.
type Driver interface {
	Capture(ctx context.Context, res Resolution, quality uint8) ([]byte, error)
}

// Device wraps a Driver.
type Device struct {
	drv Driver
}

// New wraps drv in a Device.
func New(drv Driver) *Device {
	return &Device{drv: drv}
}

// Capture takes one JPEG frame at the given resolution/quality
// (0-100, JPEG-style).
func (d *Device) Capture(ctx context.Context, res Resolution, quality uint8) ([]byte, error) {
	return d.drv.Capture(ctx, res, quality)
}
