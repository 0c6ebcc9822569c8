//go:build tinygo || baremetal

// Package pac1720 is the real power.Driver: a Microchip PAC1720
// two-channel voltage/current monitor on I2C, plus the board's raw ADC
// battery/solar rails, read the same register-poke way driver/nrf
// drives the NRF radio peripheral directly.
package pac1720

import (
	"context"
	"machine"

	"github.com/dl7ad/pecantrack/internal/power"
)

const (
	i2cAddr = 0x4C

	regVBus1 = 0x0A
	regVBus2 = 0x0B
	regVSen1 = 0x0C
	regVSen2 = 0x0D

	senseResistorMilliOhm = 100
)

// Driver talks to the PAC1720 over I2C and samples the two raw ADC
// channels for the battery/solar rails.
type Driver struct {
	i2c      *machine.I2C
	adcVBat  machine.ADC
	adcVSol  machine.ADC
	adcLight machine.ADC
}

// New configures the ADC channels and returns a Driver usable as a
// power.Driver. bus must already be configured for I2C master mode.
func New(bus *machine.I2C, vbat, vsol, light machine.Pin) *Driver {
	adcVBat := machine.ADC{Pin: vbat}
	adcVSol := machine.ADC{Pin: vsol}
	adcLight := machine.ADC{Pin: light}
	adcVBat.Configure(machine.ADCConfig{})
	adcVSol.Configure(machine.ADCConfig{})
	adcLight.Configure(machine.ADCConfig{})
	return &Driver{i2c: bus, adcVBat: adcVBat, adcVSol: adcVSol, adcLight: adcLight}
}

func (d *Driver) readReg16(reg uint8) (uint16, error) {
	var buf [2]byte
	if err := d.i2c.Tx(i2cAddr, []byte{reg}, buf[:]); err != nil {
		return 0, err
	}
	return uint16(buf[0])<<8 | uint16(buf[1]), nil
}

// Read implements power.Driver.
func (d *Driver) Read(ctx context.Context) (power.Reading, error) {
	vbus1, err := d.readReg16(regVBus1)
	if err != nil {
		return power.Reading{}, err
	}
	vbus2, err := d.readReg16(regVBus2)
	if err != nil {
		return power.Reading{}, err
	}
	vsen1, err := d.readReg16(regVSen1)
	if err != nil {
		return power.Reading{}, err
	}
	vsen2, err := d.readReg16(regVSen2)
	if err != nil {
		return power.Reading{}, err
	}

	// VBUS LSB is 62.5mV/64 per the PAC1720 datasheet's 11-bit range;
	// VSENSE LSB is 10uV/64, converted to mW via the sense resistor.
	pacVBat := uint16(uint32(vbus1>>5) * 625 / 10)
	pacVSol := uint16(uint32(vbus2>>5) * 625 / 10)
	pacPBat := int32(vsen1>>5) * 10 / senseResistorMilliOhm * int32(pacVBat) / 1000
	pacPSol := int32(vsen2>>5) * 10 / senseResistorMilliOhm * int32(pacVSol) / 1000

	return power.Reading{
		ADCVBat: uint16(d.adcVBat.Get()),
		ADCVSol: uint16(d.adcVSol.Get()),
		PACVBat: pacVBat,
		PACVSol: pacVSol,
		PACPBat: pacPBat,
		PACPSol: pacPSol,
		Light:   uint16(d.adcLight.Get()),
	}, nil
}
