//go:build !tinygo && !baremetal

// Package stub is the host-side power.Driver fake.
package stub

import (
	"context"
	"sync"

	"github.com/dl7ad/pecantrack/internal/power"
)

// Driver is a host-side fake satisfying power.Driver. Tests set the
// next Reading to return, or force a failure.
type Driver struct {
	mu      sync.Mutex
	next    power.Reading
	failing bool
}

// New returns a Driver usable directly as a power.Driver.
func New() *Driver { return &Driver{} }

// Set installs the Reading the next Read call will return.
func (d *Driver) Set(r power.Reading) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.next = r
}

// SetFailing makes every subsequent Read return an error.
func (d *Driver) SetFailing(failing bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failing = failing
}

func (d *Driver) Read(ctx context.Context) (power.Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing {
		return power.Reading{}, errReadFailed
	}
	return d.next, nil
}

type readFailedError struct{}

func (readFailedError) Error() string { return "power/stub: simulated read failure" }

var errReadFailed = readFailedError{}
