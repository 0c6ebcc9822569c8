//go:build !tinygo && !baremetal

// Package stub provides host-side fakes for sensors.BMEDriver and
// sensors.ThermalDriver.
package stub

import (
	"context"
	"sync"

	"github.com/dl7ad/pecantrack/internal/model"
)

// BME is a host-side fake BME280 instance.
type BME struct {
	mu      sync.Mutex
	next    model.BMEReading
	failing bool
}

func NewBME() *BME { return &BME{} }

func (b *BME) Set(r model.BMEReading) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next = r
}

func (b *BME) SetFailing(failing bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failing = failing
}

func (b *BME) Read(ctx context.Context) (model.BMEReading, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing {
		return model.BMEReading{}, errReadFailed
	}
	return b.next, nil
}

// Thermal is a host-side fake chip thermal sensor.
type Thermal struct {
	mu   sync.Mutex
	next int16
}

func NewThermal() *Thermal { return &Thermal{} }

func (t *Thermal) Set(v int16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next = v
}

func (t *Thermal) ReadTempC(ctx context.Context) (int16, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next, nil
}

type readFailedError struct{}

func (readFailedError) Error() string { return "sensors/stub: simulated read failure" }

var errReadFailed = readFailedError{}
