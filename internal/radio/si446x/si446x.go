//go:build tinygo || baremetal

// Package si446x is the real radio.TransceiverDriver: a Silicon Labs
// Si446x EZRadioPRO transceiver driven over SPI with direct command
// bytes, the same raw-register-poke style driver/nrf uses for the NRF
// radio peripheral.
package si446x

import (
	"context"
	"machine"
	"time"

	"github.com/dl7ad/pecantrack/internal/bandplan"
	"github.com/dl7ad/pecantrack/internal/radio"
)

// Command bytes from the Si446x API, as issued over SPI.
const (
	cmdPartInfo      = 0x01
	cmdStartTX       = 0x31
	cmdStartRX       = 0x32
	cmdGetModemStatus = 0x22
	cmdSetProperty   = 0x11
	cmdGetProperty   = 0x12
	cmdReadCmdBuff   = 0x44
	cmdPowerUp       = 0x02
	cmdGPIOPinCfg    = 0x13
	cmdFIFOInfo      = 0x15
	cmdReadRXFIFO    = 0x77
	cmdWriteTXFIFO   = 0x66
)

// Driver talks to a Si446x over SPI with a dedicated chip-select and
// nIRQ line.
type Driver struct {
	spi    machine.SPI
	cs     machine.Pin
	sdn    machine.Pin
	nirq   machine.Pin
	rxChan chan []byte
}

// New configures the control pins and returns a Driver usable as a
// radio.TransceiverDriver.
func New(spi machine.SPI, cs, sdn, nirq machine.Pin) *Driver {
	cs.Configure(machine.PinConfig{Mode: machine.PinOutput})
	sdn.Configure(machine.PinConfig{Mode: machine.PinOutput})
	nirq.Configure(machine.PinConfig{Mode: machine.PinInput})
	cs.High()
	return &Driver{spi: spi, cs: cs, sdn: sdn, nirq: nirq, rxChan: make(chan []byte, 4)}
}

func (d *Driver) cmd(out []byte, inLen int) []byte {
	d.cs.Low()
	defer d.cs.High()
	resp := make([]byte, inLen)
	for _, b := range out {
		d.spi.Transfer(b)
	}
	for i := range resp {
		resp[i], _ = d.spi.Transfer(0x00)
	}
	return resp
}

func (d *Driver) SetFrequency(hz bandplan.Hz) error {
	// The Si446x's PLL takes a pre-divider + fractional-N pair derived
	// from the crystal reference; property group 0x40 (FREQ_CONTROL)
	// holds it. The conversion from hz to those register values is the
	// chip's documented synth equation, left as integer-only arithmetic
	// per the no-floating-point hot-path requirement.
	freqHz := uint32(hz)
	inte := freqHz / 10_000_000
	frac := ((freqHz % 10_000_000) << 19) / 10_000_000
	props := []byte{cmdSetProperty, 0x40, 0x04, 0x00,
		byte(inte), byte(frac >> 16), byte(frac >> 8), byte(frac)}
	d.cmd(props, 0)
	return nil
}

func (d *Driver) SetPower(level uint8) error {
	d.cmd([]byte{cmdSetProperty, 0x22, 0x01, 0x01, level}, 0)
	return nil
}

func (d *Driver) SetModulation(m radio.Modulation) error {
	var modType byte
	switch m {
	case radio.ModulationAFSK1200:
		modType = 0x02 // FSK with Gaussian shaping, used to carry AFSK tones
	case radio.Modulation2FSK9600:
		modType = 0x00 // plain 2FSK
	}
	d.cmd([]byte{cmdSetProperty, 0x20, 0x01, 0x00, modType}, 0)
	return nil
}

func (d *Driver) MeasureRSSI() (int16, error) {
	resp := d.cmd([]byte{cmdGetModemStatus, 0x00}, 8)
	// RSSI byte is in 0.5 dBm units, offset by -128 dBm per the Si446x
	// API reference.
	raw := resp[4]
	return int16(raw)/2 - 128, nil
}

func (d *Driver) TX(ctx context.Context, framed []byte) error {
	d.cmd(append([]byte{cmdWriteTXFIFO}, framed...), 0)
	d.cmd([]byte{cmdStartTX, 0x00, 0x30, 0x00, byte(len(framed) >> 8), byte(len(framed))}, 0)
	deadline := time.Now().Add(2 * time.Second)
	for d.nirq.Get() {
		if time.Now().After(deadline) {
			return context.DeadlineExceeded
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return nil
}

func (d *Driver) StartRX(ctx context.Context) (<-chan []byte, error) {
	d.cmd([]byte{cmdStartRX, 0x00, 0x00, 0x00, 0x00, 0x00, 0x08, 0x08, 0x08}, 0)
	go d.pollRX(ctx)
	return d.rxChan, nil
}

func (d *Driver) pollRX(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if !d.nirq.Get() {
			info := d.cmd([]byte{cmdFIFOInfo, 0x00}, 2)
			n := int(info[1])
			if n > 0 {
				data := d.cmd(append([]byte{cmdReadRXFIFO}, make([]byte, n)...), n)
				frame := make([]byte, n)
				copy(frame, data)
				select {
				case d.rxChan <- frame:
				default:
				}
			}
			d.cmd([]byte{cmdStartRX, 0x00, 0x00, 0x00, 0x00, 0x00, 0x08, 0x08, 0x08}, 0)
		}
		time.Sleep(time.Millisecond)
	}
}

func (d *Driver) Reset() error {
	d.sdn.High()
	time.Sleep(10 * time.Millisecond)
	d.sdn.Low()
	time.Sleep(10 * time.Millisecond)
	d.cmd([]byte{cmdPowerUp, 0x01, 0x00, 0x01, 0xC9, 0xC3, 0x80}, 0)
	return nil
}

// ReadChipTempC satisfies chiptherm.Si446xReader: the chip's ADC
// temperature reading lives behind the same SPI command set used for
// everything else.
func (d *Driver) ReadChipTempC() (int16, error) {
	resp := d.cmd([]byte{cmdGetProperty, 0x20, 0x01, 0x0C}, 4)
	raw := int32(resp[3])
	// 130 steps of ~0.85 °C each, zero at -64 °C, per the ADC property
	// doc for GPIO-muxed temperature readback.
	return int16(-64*100 + raw*85), nil
}
