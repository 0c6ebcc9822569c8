package model

// SysError is the packed flag register carried by every DataPoint,
// mirroring the subsystem status bits a collector cycle can observe.
type SysError uint16

const (
	SysErrorI2C         SysError = 1 << 0
	SysErrorGPS         SysError = 1 << 1
	SysErrorPowerMeter  SysError = 1 << 2
	SysErrorCamera      SysError = 1 << 3
	BMEStatusBits                = 2
	BMEI1StatusShift             = 4
	// BME e1/e2 status live at evenly spaced 2-bit fields starting at
	// BMEI1StatusShift. e2's position (BMEI1StatusShift + 2*BMEStatusBits)
	// is called out explicitly per the open question in the design notes:
	// it is the correct 3rd-slot offset, not an off-by-one.
	BMEE1StatusShift = BMEI1StatusShift + BMEStatusBits
	BMEE2StatusShift = BMEI1StatusShift + 2*BMEStatusBits
)

// BMEStatus is the 2-bit validity tag carried by each BME280 reading.
type BMEStatus uint8

const (
	BMEOK BMEStatus = iota
	BMEFail
	BMENotFitted
)

func (e SysError) withBME(shift uint, st BMEStatus) SysError {
	mask := SysError(0b11) << shift
	return (e &^ mask) | (SysError(st) << shift)
}

// SetBMEI1 stamps the on-board BME280 status into the bitfield.
func (e SysError) SetBMEI1(st BMEStatus) SysError { return e.withBME(BMEI1StatusShift, st) }

// SetBMEE1 stamps the first external BME280 status into the bitfield.
func (e SysError) SetBMEE1(st BMEStatus) SysError { return e.withBME(BMEE1StatusShift, st) }

// SetBMEE2 stamps the second external BME280 status into the bitfield.
func (e SysError) SetBMEE2(st BMEStatus) SysError { return e.withBME(BMEE2StatusShift, st) }

func (e SysError) bmeAt(shift uint) BMEStatus {
	return BMEStatus((e >> shift) & 0b11)
}

// BMEI1 returns the on-board BME280 status decoded from the bitfield.
func (e SysError) BMEI1() BMEStatus { return e.bmeAt(BMEI1StatusShift) }

// BMEE1 returns the first external BME280 status decoded from the bitfield.
func (e SysError) BMEE1() BMEStatus { return e.bmeAt(BMEE1StatusShift) }

// BMEE2 returns the second external BME280 status decoded from the bitfield.
func (e SysError) BMEE2() BMEStatus { return e.bmeAt(BMEE2StatusShift) }
