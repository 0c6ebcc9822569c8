//go:build !tinygo && !baremetal

// Package stub is the host-side radio.TransceiverDriver fake, the
// radio analogue of driver/stub's mock RadioDriver.
package stub

import (
	"context"
	"sync"

	"github.com/dl7ad/pecantrack/internal/bandplan"
	"github.com/dl7ad/pecantrack/internal/radio"
)

// Driver is a host-side fake satisfying radio.TransceiverDriver.
type Driver struct {
	mu         sync.Mutex
	freq       bandplan.Hz
	power      uint8
	mod        radio.Modulation
	rssi       int16
	txLog      [][]byte
	rxCh       chan []byte
	resetCount int
	chipTempC  int16
}

// New returns a Driver with a quiet (-120 dBm) default channel.
func New() *Driver {
	return &Driver{rssi: -120, rxCh: make(chan []byte, 16)}
}

func (d *Driver) SetFrequency(hz bandplan.Hz) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.freq = hz
	return nil
}

func (d *Driver) SetPower(level uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.power = level
	return nil
}

func (d *Driver) SetModulation(m radio.Modulation) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mod = m
	return nil
}

// SetRSSI lets a test simulate channel activity.
func (d *Driver) SetRSSI(dBm int16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rssi = dBm
}

func (d *Driver) MeasureRSSI() (int16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rssi, nil
}

func (d *Driver) TX(ctx context.Context, framed []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := make([]byte, len(framed))
	copy(cp, framed)
	d.txLog = append(d.txLog, cp)
	return nil
}

// TxLog returns every frame handed to TX, in order.
func (d *Driver) TxLog() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]byte, len(d.txLog))
	copy(out, d.txLog)
	return out
}

func (d *Driver) StartRX(ctx context.Context) (<-chan []byte, error) {
	return d.rxCh, nil
}

// InjectRX pushes a frame onto the RX channel as if received over the air.
func (d *Driver) InjectRX(frame []byte) {
	d.rxCh <- frame
}

func (d *Driver) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetCount++
	return nil
}

func (d *Driver) ResetCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resetCount
}

// SetChipTemp lets a test drive chiptherm.Si446x's reading.
func (d *Driver) SetChipTemp(c int16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.chipTempC = c
}

func (d *Driver) ReadChipTempC() (int16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.chipTempC, nil
}
