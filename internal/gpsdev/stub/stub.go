//go:build !tinygo && !baremetal

// Package stub is the host-side gpsdev.Driver fake, the GPS analogue
// of driver/stub's radio fake: tests inject fixes instead of reading
// real NMEA sentences off a UART.
package stub

import (
	"context"
	"sync"

	"github.com/dl7ad/pecantrack/internal/gpsdev"
)

// Driver is a host-side fake satisfying gpsdev.Driver.
type Driver struct {
	mu      sync.Mutex
	on      bool
	queue   []gpsdev.Fix
	failing bool
}

// New returns a Driver usable directly as a gpsdev.Driver.
func New() *Driver { return &Driver{} }

func (d *Driver) PowerOn() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.on = true
	return nil
}

func (d *Driver) PowerOff() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.on = false
	return nil
}

// Inject queues a fix to be returned by the next Read call.
func (d *Driver) Inject(fix gpsdev.Fix) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, fix)
}

// SetFailing makes every subsequent Read return an error, to exercise
// the GPSError path.
func (d *Driver) SetFailing(failing bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failing = failing
}

func (d *Driver) Read(ctx context.Context) (gpsdev.Fix, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing {
		return gpsdev.Fix{}, errNoFix
	}
	if len(d.queue) == 0 {
		return gpsdev.Fix{}, nil
	}
	fix := d.queue[0]
	d.queue = d.queue[1:]
	return fix, nil
}

type noFixError struct{}

func (noFixError) Error() string { return "gpsdev/stub: simulated read failure" }

var errNoFix = noFixError{}
