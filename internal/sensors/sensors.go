// Package sensors is the BME280 environmental façade (up to three
// instances: i1 on-board, e1/e2 external) plus the chip thermal
// sensors, behind the same Driver-seam pattern as transport.RadioDriver.
package sensors

import (
	"context"

	"github.com/dl7ad/pecantrack/internal/model"
)

// BMEDriver is the minimal seam one BME280 instance must satisfy.
type BMEDriver interface {
	Read(ctx context.Context) (model.BMEReading, error)
}

// ThermalDriver reads a chip-internal thermal sensor (STM32, Si446x).
type ThermalDriver interface {
	ReadTempC(ctx context.Context) (int16, error) // 0.01 °C
}

// Station bundles the three BME280 slots read in strict order (i1, e1,
// e2) per spec.md §4.1, plus the two thermal sensors. A nil BMEDriver
// slot means "not fitted" and always reports model.BMENotFitted
// without touching the bus.
type Station struct {
	I1, E1, E2 BMEDriver
	STM32      ThermalDriver
	Si446x     ThermalDriver
}

// ReadAll samples i1, e1, e2 in that fixed order (spec.md §4.1: "read
// in strict order"), never aborting on an individual sensor failure —
// a failing or unfitted slot is reported via its Status field and the
// cycle continues.
func (s Station) ReadAll(ctx context.Context) (i1, e1, e2 model.BMEReading) {
	i1 = s.readOne(ctx, s.I1)
	e1 = s.readOne(ctx, s.E1)
	e2 = s.readOne(ctx, s.E2)
	return
}

func (s Station) readOne(ctx context.Context, drv BMEDriver) model.BMEReading {
	if drv == nil {
		return model.BMEReading{Status: model.BMENotFitted}
	}
	r, err := drv.Read(ctx)
	if err != nil {
		return model.BMEReading{Status: model.BMEFail}
	}
	r.Status = model.BMEOK
	return r
}

// ReadThermal samples the two chip thermal sensors, returning 0 for
// either that is nil or errors.
func (s Station) ReadThermal(ctx context.Context) (stm32, si446x int16) {
	if s.STM32 != nil {
		if v, err := s.STM32.ReadTempC(ctx); err == nil {
			stm32 = v
		}
	}
	if s.Si446x != nil {
		if v, err := s.Si446x.ReadTempC(ctx); err == nil {
			si446x = v
		}
	}
	return
}
