//go:build tinygo || baremetal

// Package chiptherm reads the two chip-internal thermal sensors: the
// STM32's own ADC temperature channel and the Si446x transceiver's
// temperature register (the same SPI register-poke style used to
// drive the radio itself).
package chiptherm

import (
	"context"
	"machine"
)

// STM32 reads the MCU's internal ADC temperature channel.
type STM32 struct {
	adc machine.ADC
}

// NewSTM32 configures the internal temperature channel.
func NewSTM32() *STM32 {
	adc := machine.ADC{Pin: machine.ADC_TEMP_SENSOR}
	adc.Configure(machine.ADCConfig{})
	return &STM32{adc: adc}
}

// ReadTempC implements sensors.ThermalDriver. The raw ADC-to-celsius
// conversion follows the reference-voltage/slope constants in the
// part's datasheet (V25=1.43V, slope=4.3mV/°C), expressed in
// 0.01°C fixed point to stay off floating point on the hot path.
func (s *STM32) ReadTempC(ctx context.Context) (int16, error) {
	raw := s.adc.Get()
	milliVolts := int32(raw) * 3300 / 65535
	return int16(2500 + (1430-milliVolts)*1000/43), nil
}

// Si446xReader is satisfied by the radio driver: the temperature
// register lives behind the same SPI bus the transceiver uses for
// everything else, so chiptherm asks it rather than opening a second
// bus handle.
type Si446xReader interface {
	ReadChipTempC() (int16, error)
}

// Si446x adapts a Si446xReader (the radio driver) to
// sensors.ThermalDriver.
type Si446x struct {
	radio Si446xReader
}

// NewSi446x wraps a radio driver's chip-temperature register read.
func NewSi446x(radio Si446xReader) *Si446x {
	return &Si446x{radio: radio}
}

func (s *Si446x) ReadTempC(ctx context.Context) (int16, error) {
	return s.radio.ReadChipTempC()
}
