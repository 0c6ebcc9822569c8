//go:build !tinygo && !baremetal

// Package stub is the host-side camera.Driver fake.
package stub

import (
	"context"
	"sync"

	"github.com/dl7ad/pecantrack/internal/camera"
)

// Driver returns a fixed JPEG payload, or an error if SetFailing(true).
type Driver struct {
	mu      sync.Mutex
	jpeg    []byte
	failing bool
}

func New(jpeg []byte) *Driver {
	return &Driver{jpeg: jpeg}
}

func (d *Driver) SetFailing(failing bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failing = failing
}

func (d *Driver) Capture(ctx context.Context, res camera.Resolution, quality uint8) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing {
		return nil, errCaptureFailed
	}
	out := make([]byte, len(d.jpeg))
	copy(out, d.jpeg)
	return out, nil
}

type captureFailedError struct{}

func (captureFailedError) Error() string { return "camera/stub: simulated capture failure" }

var errCaptureFailed = captureFailedError{}
