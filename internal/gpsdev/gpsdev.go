// Package gpsdev is the GPS fix façade: a Driver seam exactly like
// transport.RadioDriver (a tinygo||baremetal-gated real implementation
// and a host-side stub satisfying the same interface), wrapped in a
// Device that derives the GPSState machine spec.md §4.1/§9 describes.
package gpsdev

import (
	"context"
	"time"

	"github.com/dl7ad/pecantrack/internal/model"
)

// Fix is one raw reading off the GPS receiver, before state-machine
// interpretation.
type Fix struct {
	Valid bool
	Sats  uint8
	PDOP  uint16 // 0.05-unit, matching DataPoint.GPSPDOP
	Alt   int32  // metres
	Lat   int32  // 1e-7 degrees
	Lon   int32  // 1e-7 degrees
	Epoch uint32 // seconds since Unix epoch, 0 if no time solution
}

// Driver is the minimal seam a concrete GPS chip implementation must
// satisfy, matching the shape of transport.RadioDriver.
type Driver interface {
	PowerOn() error
	PowerOff() error
	Read(ctx context.Context) (Fix, error)
}

// Device wraps a Driver with the fix-quality half of the GPSState
// machine: Read reports OFF while unpowered, ERROR on a driver error,
// LOCKED_OFF before the first fix, LOSS once a fix has been lost, and
// LOCKED_ON with a valid fix. Power gating is driven by the collector
// (spec.md §4.1 steps), which stamps LOWBATT_NEVER_ON and FROM_LOG
// itself from its power policy and log fallback; Device never reports
// FROM_APRS_FIX, FROM_LOG or a LOWBATT_* state.
type Device struct {
	drv Driver

	poweredOn  bool
	everLocked bool
	ttffStart  time.Time
	locked     time.Time
}

// New wraps drv in a Device.
func New(drv Driver) *Device {
	return &Device{drv: drv}
}

// PowerOn turns the receiver on and starts the TTFF clock, per
// spec.md §4.1's GPS power policy.
func (d *Device) PowerOn(now time.Time) error {
	if d.poweredOn {
		return nil
	}
	if err := d.drv.PowerOn(); err != nil {
		return err
	}
	d.poweredOn = true
	d.ttffStart = now
	return nil
}

// PowerOff turns the receiver off.
func (d *Device) PowerOff() error {
	if !d.poweredOn {
		return nil
	}
	if err := d.drv.PowerOff(); err != nil {
		return err
	}
	d.poweredOn = false
	return nil
}

// PoweredOn reports whether the device is currently powered.
func (d *Device) PoweredOn() bool { return d.poweredOn }

// Read takes one fix and folds it into the GPSState machine, returning
// everything the collector needs to stamp into a DataPoint.
func (d *Device) Read(ctx context.Context, now time.Time) (model.GPSState, Fix, error) {
	if !d.poweredOn {
		return model.GPSOff, Fix{}, nil
	}

	fix, err := d.drv.Read(ctx)
	if err != nil {
		return model.GPSError, Fix{}, err
	}

	if !fix.Valid {
		if d.everLocked {
			return model.GPSLoss, fix, nil
		}
		return model.GPSLockedOff, fix, nil
	}

	if !d.everLocked {
		d.everLocked = true
	}
	d.locked = now
	return model.GPSLockedOn, fix, nil
}

// TTFF reports the elapsed time since PowerOn, for stamping
// DataPoint.GPSTTFF once a first lock is achieved.
func (d *Device) TTFF(now time.Time) time.Duration {
	if d.ttffStart.IsZero() {
		return 0
	}
	return now.Sub(d.ttffStart)
}
