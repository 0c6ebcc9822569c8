//go:build tinygo || baremetal

// Package bme280 is the real sensors.BMEDriver, wired through
// tinygo.org/x/drivers/bme280 the same way driver/nrf wires the real
// radio peripheral behind transport.RadioDriver.
package bme280

import (
	"context"
	"machine"

	"tinygo.org/x/drivers/bme280"

	"github.com/dl7ad/pecantrack/internal/model"
)

// Driver wraps one BME280 instance on a shared I2C bus.
type Driver struct {
	dev bme280.Device
}

// New constructs a Driver at the given I2C address (0x76 or 0x77,
// letting i1/e1/e2 share one bus when wired to distinct addresses).
func New(bus *machine.I2C, addr uint16) *Driver {
	dev := bme280.New(bus)
	dev.Address = addr
	dev.Configure()
	return &Driver{dev: dev}
}

func (d *Driver) Read(ctx context.Context) (model.BMEReading, error) {
	tempMilli, err := d.dev.ReadTemperature()
	if err != nil {
		return model.BMEReading{}, err
	}
	pressPa, err := d.dev.ReadPressure()
	if err != nil {
		return model.BMEReading{}, err
	}
	humMilli, err := d.dev.ReadHumidity()
	if err != nil {
		return model.BMEReading{}, err
	}

	return model.BMEReading{
		Press: uint32(pressPa / 100),   // mPa -> 0.1 Pa
		Temp:  int16(tempMilli / 10),   // m°C -> 0.01°C
		Hum:   uint16(humMilli / 10),   // milli-% -> 0.01%
	}, nil
}
