package model

import "testing"

func sampleDataPoint(id uint32) *DataPoint {
	return &DataPoint{
		ID:         id,
		SysTime:    1200,
		GPSTime:    1717000000,
		ResetCount: 3,
		GPSState:   GPSLockedOn,
		GPSSats:    9,
		GPSTTFF:    28,
		GPSPDOP:    24,
		GPSAlt:     12450,
		GPSLat:     377749000,
		GPSLon:     -1224194000,
		ADCVBat:    4150,
		ADCVSol:    5800,
		PACVBat:    4140,
		PACVSol:    5790,
		PACPBat:    -320,
		PACPSol:    850,
		BMEI1:      BMEReading{Press: 1013250, Temp: 2150, Hum: 4500},
		BMEE1:      BMEReading{Press: 0, Temp: 0, Hum: 0, Status: BMENotFitted},
		BMEE2:      BMEReading{Press: 0, Temp: 0, Hum: 0, Status: BMENotFitted},
		STM32Temp:  3200,
		Si446xTemp: 3100,
		GPIOState:  0b00000101,
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	dp := sampleDataPoint(42)
	dp.SysError = dp.SysError.SetBMEI1(BMEOK).SetBMEE1(BMENotFitted).SetBMEE2(BMENotFitted)

	buf := Pack(dp)
	if len(buf) != RecordSize {
		t.Fatalf("Pack produced %d bytes, want %d", len(buf), RecordSize)
	}

	got, ok, err := Unpack(buf)
	if err != nil {
		t.Fatalf("Unpack returned error: %v", err)
	}
	if !ok {
		t.Fatalf("Unpack reported empty for a populated record")
	}
	if got.ID != dp.ID || got.GPSLat != dp.GPSLat || got.GPSLon != dp.GPSLon {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, *dp)
	}
	if got.BMEI1.Status != BMEOK || got.BMEE1.Status != BMENotFitted {
		t.Fatalf("BME status not recovered from SysError: %+v", got.SysError)
	}
}

func TestUnpackEmptySentinel(t *testing.T) {
	buf := make([]byte, RecordSize)
	for i := range buf[:4] {
		buf[i] = 0xFF
	}
	_, ok, err := Unpack(buf)
	if err != nil {
		t.Fatalf("unexpected error for empty sentinel: %v", err)
	}
	if ok {
		t.Fatalf("expected empty record to report ok=false")
	}
}

func TestUnpackTornRecord(t *testing.T) {
	dp := sampleDataPoint(7)
	buf := Pack(dp)
	buf[bodySize] ^= 0xFF // corrupt the CRC

	_, ok, err := Unpack(buf)
	if err != ErrTornRecord {
		t.Fatalf("expected ErrTornRecord, got %v", err)
	}
	if ok {
		t.Fatalf("torn record must not report ok=true")
	}
}

func TestSysErrorBMEShifts(t *testing.T) {
	var e SysError
	e = e.SetBMEI1(BMEOK).SetBMEE1(BMEFail).SetBMEE2(BMENotFitted)

	if e.BMEI1() != BMEOK {
		t.Fatalf("BMEI1 = %v, want OK", e.BMEI1())
	}
	if e.BMEE1() != BMEFail {
		t.Fatalf("BMEE1 = %v, want FAIL", e.BMEE1())
	}
	if e.BMEE2() != BMENotFitted {
		t.Fatalf("BMEE2 = %v, want NOT_FITTED", e.BMEE2())
	}
	if BMEE2StatusShift != BMEI1StatusShift+2*BMEStatusBits {
		t.Fatalf("BMEE2StatusShift drifted from documented formula")
	}
}
