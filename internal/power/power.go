// Package power is the power-meter façade: PAC1720-style two-channel
// voltage/current sense plus the raw ADC battery/solar rails, behind
// the same Driver-seam pattern as transport.RadioDriver.
package power

import "context"

// Reading is one sample set off the power meter and raw ADC.
type Reading struct {
	ADCVBat uint16 // mV, raw ADC battery rail
	ADCVSol uint16 // mV, raw ADC solar rail
	PACVBat uint16 // mV, PAC1720 battery channel
	PACVSol uint16 // mV, PAC1720 solar channel
	PACPBat int32  // mW, signed (battery can source or sink)
	PACPSol int32  // mW
	Light   uint16 // raw light-sensor intensity
}

// Driver is the minimal seam a concrete power-meter implementation
// must satisfy.
type Driver interface {
	Read(ctx context.Context) (Reading, error)
}

// Device wraps a Driver; today it is a thin pass-through, kept as a
// façade so the collector depends on a stable package rather than a
// swappable driver directly (same shape as gpsdev.Device).
type Device struct {
	drv Driver
}

// New wraps drv in a Device.
func New(drv Driver) *Device {
	return &Device{drv: drv}
}

// Read samples the power meter and ADC.
func (d *Device) Read(ctx context.Context) (Reading, error) {
	return d.drv.Read(ctx)
}
