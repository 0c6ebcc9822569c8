//go:build tinygo || baremetal

// This file is built only for embedded targets (real flight hardware),
// wiring every real driver behind its façade, the same board-bring-up
// role constructors_nrf.go played for the NRF24 transport.
package pecantrack

import (
	"machine"

	"github.com/rs/zerolog"

	camdrv "github.com/dl7ad/pecantrack/internal/camera/ov2640"
	gpsdrv "github.com/dl7ad/pecantrack/internal/gpsdev/ublox"
	"github.com/dl7ad/pecantrack/internal/nvstore/flash"
	pwrdrv "github.com/dl7ad/pecantrack/internal/power/pac1720"
	radiodrv "github.com/dl7ad/pecantrack/internal/radio/si446x"
	"github.com/dl7ad/pecantrack/internal/sensors"
	bmedrv "github.com/dl7ad/pecantrack/internal/sensors/bme280"
	"github.com/dl7ad/pecantrack/internal/sensors/chiptherm"
	wdhw "github.com/dl7ad/pecantrack/internal/watchdog/hw"
)

// Flash layout: a reserved config page followed by the log ring,
// sized by the board's linker script.
const (
	configPageBase uint32 = 0x0800_0000
	configPageSize int64  = 4096
	ringBase       uint32 = configPageBase + uint32(configPageSize)
	ringSize       int64  = 512 * 1024
)

// Bus/pin assignment for the tracker board.
var (
	i2cBus  = machine.I2C0
	spiBus  = machine.SPI0
	gpsUART = machine.UART1

	radioCS   = machine.D10
	radioSDN  = machine.D9
	radioIRQ  = machine.D8
	pacVBat   = machine.A0
	pacVSol   = machine.A1
	pacLight  = machine.A2
	bmeI1Addr = uint16(0x76)
	bmeE1Addr = uint16(0x77)
	bmeE2Addr = uint16(0x76) // on a second bus segment in practice; shares the type here
)

// New builds a Tracker wired to real flight hardware.
func New(log zerolog.Logger) (*Tracker, error) {
	i2cBus.Configure(machine.I2CConfig{})
	spiBus.Configure(machine.SPIConfig{})
	gpsUART.Configure(machine.UARTConfig{BaudRate: 9600})

	radioDriver := radiodrv.New(spiBus, radioCS, radioSDN, radioIRQ)

	station := sensors.Station{
		I1:     bmedrv.New(i2cBus, bmeI1Addr),
		E1:     bmedrv.New(i2cBus, bmeE1Addr),
		E2:     bmedrv.New(i2cBus, bmeE2Addr),
		STM32:  chiptherm.NewSTM32(),
		Si446x: chiptherm.NewSi446x(radioDriver),
	}

	usb := machine.USBCDC
	usb.Configure(machine.UARTConfig{BaudRate: 115200})
	console := cliConsole(usb, log)

	return newTracker(components{
		configDev:    flash.New(configPageBase, configPageSize),
		ringDev:      flash.New(ringBase, ringSize),
		gpsDriver:    gpsdrv.New(gpsUART),
		powerDriver:  pwrdrv.New(i2cBus, pacVBat, pacVSol, pacLight),
		station:      station,
		cameraDriver: camdrv.New(i2cBus),
		radioDriver:  radioDriver,
		kicker:       wdhw.New(),
		console:      console,
	}, log)
}
