package aprs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dl7ad/pecantrack/internal/ax25"
	"github.com/dl7ad/pecantrack/internal/model"
)

// AnalogChannel describes one of the five telemetry analog channels:
// its APRS parameter/unit labels and the linear scaling used to map a
// raw measurement into the 0-255 telemetry byte (and, via EQNS, back).
// value = Gain*n + Offset (the quadratic term is always zero for the
// channels this tracker reports).
type AnalogChannel struct {
	Parm   string
	Unit   string
	Gain   float64
	Offset float64
}

// ToByte scales a real-world value into the 0-255 telemetry range,
// clamped at both ends.
func (c AnalogChannel) ToByte(value float64) byte {
	if c.Gain == 0 {
		return 0
	}
	n := (value - c.Offset) / c.Gain
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return byte(n + 0.5)
}

// DefaultChannels is the five-channel layout spec §4.4 names: battery
// volts, solar volts, battery mW, solar mW, pressure.
var DefaultChannels = [5]AnalogChannel{
	{Parm: "VBat", Unit: "mV", Gain: 20, Offset: 0},      // mV -> 0..255 in 20mV steps
	{Parm: "VSol", Unit: "mV", Gain: 20, Offset: 0},       // mV
	{Parm: "PBat", Unit: "mW", Gain: 20, Offset: -2560},  // signed mW, centred
	{Parm: "PSol", Unit: "mW", Gain: 40, Offset: 0},      // mW
	{Parm: "Press", Unit: "hPa", Gain: 4, Offset: 850_00}, // 0.1 Pa-ish steps above 850 hPa baseline
}

// DigitalLabels names the 8 telemetry bit channels.
var DigitalLabels = [8]string{
	"GPS", "I2C", "PWR", "CAM", "BMEi1", "BMEe1", "BMEe2", "SPARE",
}

// BitsComment is appended to the BITS PDU, per the ":CALLSIGN
// :BITS.11111111,comment" wire format.
const BitsComment = "pecantrack"

// TelemetryConfig bundles the advertised scaling for a station's
// analog/digital telemetry channels.
type TelemetryConfig struct {
	Channels [5]AnalogChannel
	Bits     [8]string
}

// DefaultTelemetryConfig returns the tracker's standard channel layout.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{Channels: DefaultChannels, Bits: DigitalLabels}
}

// EncodeTelemetryReport builds the "T#sss,vvv,vvv,vvv,vvv,vvv,bbbbbbbb"
// wire format (spec §6) from a DataPoint and the station's advertised
// channel scaling.
func EncodeTelemetryReport(dp *model.DataPoint, cfg TelemetryConfig, seq uint16) []byte {
	vbat := cfg.Channels[0].ToByte(float64(dp.PACVBat))
	vsol := cfg.Channels[1].ToByte(float64(dp.PACVSol))
	pbat := cfg.Channels[2].ToByte(float64(dp.PACPBat))
	psol := cfg.Channels[3].ToByte(float64(dp.PACPSol))
	press := cfg.Channels[4].ToByte(float64(dp.BMEI1.Press))

	bits := digitalBits(dp)

	return []byte(fmt.Sprintf("T#%03d,%03d,%03d,%03d,%03d,%03d,%s",
		seq%1000, vbat, vsol, pbat, psol, press, bits))
}

// digitalBits packs the 8 status bits spec §4.4 describes (GPS lock,
// I2C error, power-meter error, camera error, and the three BME
// statuses) into "bbbbbbbb" in DigitalLabels order: the GPS bit first,
// the always-zero spare bit last.
func digitalBits(dp *model.DataPoint) string {
	var bits [8]byte
	bits[0] = boolBit(dp.GPSState.Locked())
	bits[1] = boolBit(dp.SysError&model.SysErrorI2C != 0)
	bits[2] = boolBit(dp.SysError&model.SysErrorPowerMeter != 0)
	bits[3] = boolBit(dp.SysError&model.SysErrorCamera != 0)
	bits[4] = boolBit(dp.BMEI1.Status == model.BMEFail)
	bits[5] = boolBit(dp.BMEE1.Status == model.BMEFail)
	bits[6] = boolBit(dp.BMEE2.Status == model.BMEFail)
	bits[7] = 0
	var s strings.Builder
	for _, b := range bits {
		s.WriteByte('0' + b)
	}
	return s.String()
}

func boolBit(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// EncodeTelemetryConfig builds the four telemetry-config PDUs (PARM,
// UNIT, EQNS, BITS), each addressed to the station's own call sign, to
// be transmitted together as a group (spec §4.4).
func EncodeTelemetryConfig(call ax25.Address, cfg TelemetryConfig) [4][]byte {
	addressee := formatAddressee(call)

	var parm, unit strings.Builder
	parm.WriteString(":" + addressee + ":PARM.")
	unit.WriteString(":" + addressee + ":UNIT.")
	for i, ch := range cfg.Channels {
		if i > 0 {
			parm.WriteByte(',')
			unit.WriteByte(',')
		}
		parm.WriteString(ch.Parm)
		unit.WriteString(ch.Unit)
	}
	for _, label := range cfg.Bits {
		parm.WriteByte(',')
		parm.WriteString(label)
	}

	var eqns strings.Builder
	eqns.WriteString(":" + addressee + ":EQNS.")
	for i, ch := range cfg.Channels {
		if i > 0 {
			eqns.WriteByte(',')
		}
		fmt.Fprintf(&eqns, "0,%s,%s", trimFloat(ch.Gain), trimFloat(ch.Offset))
	}

	var bits strings.Builder
	fmt.Fprintf(&bits, ":%s:BITS.11111111,%s", addressee, BitsComment)

	return [4][]byte{
		[]byte(parm.String()),
		[]byte(unit.String()),
		[]byte(eqns.String()),
		[]byte(bits.String()),
	}
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// formatAddressee pads with trailing spaces/truncates a callsign to the fixed 9-char
// APRS addressee field width.
func formatAddressee(call ax25.Address) string {
	s := call.String()
	for len(s) < 9 {
		s += " "
	}
	return s[:9]
}
