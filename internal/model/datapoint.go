// Package model holds the data types shared across the collector, log
// ring, radio and APRS codec: the immutable DataPoint snapshot and its
// on-storage LogRecord encoding.
package model

// BMEReading is one BME280 result slot (on-board i1, or external e1/e2).
type BMEReading struct {
	Press  uint32 // 0.1 Pa
	Temp   int16  // 0.01 °C
	Hum    uint16 // 0.01 %
	Status BMEStatus
}

// DataPoint is an immutable, fully-populated telemetry snapshot. Once
// published by the collector it is never mutated; readers observe a
// complete, self-consistent value.
type DataPoint struct {
	// Identity
	ID         uint32
	SysTime    uint32 // seconds since boot
	GPSTime    uint32 // epoch seconds from GPS, 0 if none
	ResetCount uint16

	// GPS
	GPSState GPSState
	GPSSats  uint8
	GPSTTFF  uint16 // seconds
	GPSPDOP  uint16 // 0.05-unit
	GPSAlt   int32  // metres
	GPSLat   int32  // 1e-7 degrees
	GPSLon   int32  // 1e-7 degrees

	// Power
	ADCVBat        uint16 // mV
	ADCVSol        uint16 // mV
	PACVBat        uint16 // mV
	PACVSol        uint16 // mV
	PACPBat        int32  // mW, signed
	PACPSol        int32  // mW, signed
	LightIntensity uint16

	// Environmental
	BMEI1 BMEReading
	BMEE1 BMEReading
	BMEE2 BMEReading

	// Thermal
	STM32Temp  int16 // 0.01 °C
	Si446xTemp int16 // 0.01 °C

	// Flags
	SysError SysError

	// GPIO line snapshot, one bit per monitored line.
	GPIOState uint8
}

// Clone returns a value copy; DataPoint has no pointer fields so a plain
// copy already satisfies the "readers get a consistent snapshot"
// invariant, but Clone documents the intent at call sites.
func (d DataPoint) Clone() DataPoint { return d }
