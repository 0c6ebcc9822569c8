package model

import (
	"encoding/binary"
	"fmt"
)

// EmptyRecordID is the sentinel value marking a log-ring slot as
// erased/empty.
const EmptyRecordID uint32 = 0xFFFFFFFF

// RecordSize is the fixed on-storage size of one packed LogRecord,
// including the trailing CRC used to detect torn writes.
const RecordSize = 83

// crcSize and bodySize split RecordSize the way protocol/frame.go splits
// a Frame into body + trailing checksum.
const (
	bodySize = RecordSize - crcSize
	crcSize  = 2
)

// ErrTornRecord is returned by Unpack when the trailing CRC does not
// match, meaning the slot was only partially written before a reset.
var ErrTornRecord = fmt.Errorf("logrecord: torn write, CRC mismatch")

// Pack serialises a DataPoint into its fixed-width on-storage form.
func Pack(dp *DataPoint) []byte {
	buf := make([]byte, RecordSize)
	le := binary.LittleEndian

	off := 0
	putU32 := func(v uint32) { le.PutUint32(buf[off:], v); off += 4 }
	putU16 := func(v uint16) { le.PutUint16(buf[off:], v); off += 2 }
	putU8 := func(v uint8) { buf[off] = v; off++ }
	putI32 := func(v int32) { putU32(uint32(v)) }
	putI16 := func(v int16) { putU16(uint16(v)) }

	putU32(dp.ID)
	putU32(dp.SysTime)
	putU32(dp.GPSTime)
	putU16(dp.ResetCount)
	putU8(uint8(dp.GPSState))
	putU8(dp.GPSSats)
	putU16(dp.GPSTTFF)
	putU16(dp.GPSPDOP)
	putI32(dp.GPSAlt)
	putI32(dp.GPSLat)
	putI32(dp.GPSLon)
	putU16(dp.ADCVBat)
	putU16(dp.ADCVSol)
	putU16(dp.PACVBat)
	putU16(dp.PACVSol)
	putI32(dp.PACPBat)
	putI32(dp.PACPSol)
	putU16(dp.LightIntensity)
	putU32(dp.BMEI1.Press)
	putI16(dp.BMEI1.Temp)
	putU16(dp.BMEI1.Hum)
	putU32(dp.BMEE1.Press)
	putI16(dp.BMEE1.Temp)
	putU16(dp.BMEE1.Hum)
	putU32(dp.BMEE2.Press)
	putI16(dp.BMEE2.Temp)
	putU16(dp.BMEE2.Hum)
	putI16(dp.STM32Temp)
	putI16(dp.Si446xTemp)
	putU16(uint16(dp.SysError))
	putU8(dp.GPIOState)

	if off != bodySize {
		panic(fmt.Sprintf("logrecord: body layout drift, wrote %d want %d", off, bodySize))
	}

	crc := crc16(buf[:bodySize])
	le.PutUint16(buf[bodySize:], crc)
	return buf
}

// Unpack deserialises a fixed-width record. A record whose ID equals
// EmptyRecordID is treated as empty (ok=false, err=nil). A CRC mismatch
// is reported as ErrTornRecord and the slot is likewise treated as
// empty by callers.
func Unpack(buf []byte) (dp DataPoint, ok bool, err error) {
	if len(buf) < RecordSize {
		return DataPoint{}, false, fmt.Errorf("logrecord: short buffer (%d < %d)", len(buf), RecordSize)
	}
	le := binary.LittleEndian

	id := le.Uint32(buf[0:4])
	if id == EmptyRecordID {
		return DataPoint{}, false, nil
	}

	wantCRC := le.Uint16(buf[bodySize:RecordSize])
	if crc16(buf[:bodySize]) != wantCRC {
		return DataPoint{}, false, ErrTornRecord
	}

	off := 0
	getU32 := func() uint32 { v := le.Uint32(buf[off:]); off += 4; return v }
	getU16 := func() uint16 { v := le.Uint16(buf[off:]); off += 2; return v }
	getU8 := func() uint8 { v := buf[off]; off++; return v }
	getI32 := func() int32 { return int32(getU32()) }
	getI16 := func() int16 { return int16(getU16()) }

	dp.ID = getU32()
	dp.SysTime = getU32()
	dp.GPSTime = getU32()
	dp.ResetCount = getU16()
	dp.GPSState = GPSState(getU8())
	dp.GPSSats = getU8()
	dp.GPSTTFF = getU16()
	dp.GPSPDOP = getU16()
	dp.GPSAlt = getI32()
	dp.GPSLat = getI32()
	dp.GPSLon = getI32()
	dp.ADCVBat = getU16()
	dp.ADCVSol = getU16()
	dp.PACVBat = getU16()
	dp.PACVSol = getU16()
	dp.PACPBat = getI32()
	dp.PACPSol = getI32()
	dp.LightIntensity = getU16()
	dp.BMEI1.Press = getU32()
	dp.BMEI1.Temp = getI16()
	dp.BMEI1.Hum = getU16()
	dp.BMEE1.Press = getU32()
	dp.BMEE1.Temp = getI16()
	dp.BMEE1.Hum = getU16()
	dp.BMEE2.Press = getU32()
	dp.BMEE2.Temp = getI16()
	dp.BMEE2.Hum = getU16()
	dp.STM32Temp = getI16()
	dp.Si446xTemp = getI16()
	dp.SysError = SysError(getU16())
	dp.GPIOState = getU8()

	dp.BMEI1.Status = dp.SysError.BMEI1()
	dp.BMEE1.Status = dp.SysError.BMEE1()
	dp.BMEE2.Status = dp.SysError.BMEE2()

	return dp, true, nil
}

// crc16 is a CRC-16/CCITT-FALSE implementation, kept as a small local
// helper the same way protocol/frame.go reaches for hash/crc32 inline
// rather than pulling in a dedicated CRC-16 dependency.
func crc16(data []byte) uint16 {
	const poly = 0x1021
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
