//go:build tinygo || baremetal

// Package hw wraps machine.Watchdog as a watchdog.Kicker, configured
// and started the same way BryanSouza91-WingFC's firmware main.go does.
package hw

import (
	"machine"
	"time"
)

// Timeout is the hardware watchdog's own reset deadline. It must
// exceed the software Registry's pet interval with margin.
const Timeout = 8 * time.Second

// Kicker wraps the MCU's hardware watchdog timer.
type Kicker struct{}

// New configures and starts the hardware watchdog.
func New() Kicker {
	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: uint32(Timeout / time.Millisecond)})
	machine.Watchdog.Start()
	return Kicker{}
}

func (Kicker) Update() { machine.Watchdog.Update() }
