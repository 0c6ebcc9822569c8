//go:build tinygo || baremetal

// Package ublox is the real gpsdev.Driver, a u-blox NEO-6/7-style
// UART+NMEA receiver wired through tinygo.org/x/drivers/gps, mirroring
// driver/nrf's split of "real hardware behind the same seam the stub
// satisfies on host".
package ublox

import (
	"context"
	"machine"

	"tinygo.org/x/drivers/gps"

	"github.com/dl7ad/pecantrack/internal/gpsdev"
)

// powerPin is the GPIO line gating the receiver's voltage regulator.
const powerPin = machine.D6

// Driver wraps a UART-attached u-blox module.
type Driver struct {
	uart *machine.UART
	dev  gps.Device
}

// New configures the UART and power-gate pin and returns a Driver
// usable as a gpsdev.Driver.
func New(uart *machine.UART) *Driver {
	powerPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &Driver{
		uart: uart,
		dev:  gps.NewUART(uart),
	}
}

func (d *Driver) PowerOn() error {
	powerPin.High()
	return nil
}

func (d *Driver) PowerOff() error {
	powerPin.Low()
	return nil
}

func (d *Driver) Read(ctx context.Context) (gpsdev.Fix, error) {
	fix, err := d.dev.NextFix()
	if err != nil {
		return gpsdev.Fix{}, err
	}
	if !fix.Valid {
		return gpsdev.Fix{Valid: false}, nil
	}
	return gpsdev.Fix{
		Valid: true,
		Sats:  uint8(fix.Satellites),
		PDOP:  uint16(fix.PDOP * 20), // 0.05-unit fixed point
		Alt:   int32(fix.Altitude),
		Lat:   int32(fix.Latitude * 1e7),
		Lon:   int32(fix.Longitude * 1e7),
		Epoch: uint32(fix.Time.Unix()),
	}, nil
}
