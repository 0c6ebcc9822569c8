// Package aprs builds and parses the APRS protocol data units carried
// inside an ax25.Packet's info field: position+telemetry, telemetry
// configuration, messages, ACK/REJ, and the APRSD response. Wire
// formats follow spec §6, grounded on doismellburning-samoyed's
// encode_aprs.go/telemetry.go (normal_position, the "T#sss,..." and
// ":CALLSIGN :PARM...." formats) but re-expressed as small composable
// Go functions over model.DataPoint instead of C structs.
package aprs

import (
	"fmt"
	"strings"

	"github.com/dl7ad/pecantrack/internal/model"
)

// Symbol identifies the APRS symbol table and code used for the
// station icon (balloon by default).
type Symbol struct {
	Table byte // '/' primary or '\\' alternate
	Code  byte
}

// DefaultSymbol is the standard APRS "balloon" icon on the primary
// table.
var DefaultSymbol = Symbol{Table: '/', Code: 'O'}

// EncodePosition builds an uncompressed APRS position report
// ("!DDMM.mmN/DDDMM.mmW$...") from a DataPoint, with the "/A=" altitude
// extension and an optional comment. It writes no course/speed
// extension and has no compressed form.
func EncodePosition(dp *model.DataPoint, sym Symbol, comment string) ([]byte, error) {
	if dp.GPSState != model.GPSLockedOn && dp.GPSState != model.GPSFromLog && dp.GPSState != model.GPSFromAPRSFix {
		return nil, fmt.Errorf("aprs: no usable position (gps_state=%s)", dp.GPSState)
	}

	lat := formatLat(dp.GPSLat)
	lon := formatLon(dp.GPSLon)

	var b strings.Builder
	b.WriteByte('!')
	b.WriteString(lat)
	b.WriteByte(sym.Table)
	b.WriteString(lon)
	b.WriteByte(sym.Code)
	fmt.Fprintf(&b, "/A=%06d", dp.GPSAlt*3281/1000) // metres -> feet, per APRS altitude convention
	if comment != "" {
		b.WriteByte(' ')
		b.WriteString(comment)
	}

	out := []byte(b.String())
	if len(out) > 256 {
		return nil, fmt.Errorf("aprs: position info exceeds 256 bytes")
	}
	return out, nil
}

// formatLat renders signed 1e-7-degree latitude as DDMM.mmN/S.
func formatLat(lat1e7 int32) string {
	neg := lat1e7 < 0
	v := lat1e7
	if neg {
		v = -v
	}
	deg := v / 10_000_000
	fracDeg := v % 10_000_000
	min := int64(fracDeg) * 6000 / 10_000_000 // hundredths of a minute
	hemi := byte('N')
	if neg {
		hemi = 'S'
	}
	return fmt.Sprintf("%02d%05.2f%c", deg, float64(min)/100, hemi)
}

// formatLon renders signed 1e-7-degree longitude as DDDMM.mmE/W.
func formatLon(lon1e7 int32) string {
	neg := lon1e7 < 0
	v := lon1e7
	if neg {
		v = -v
	}
	deg := v / 10_000_000
	fracDeg := v % 10_000_000
	min := int64(fracDeg) * 6000 / 10_000_000 // hundredths of a minute
	hemi := byte('E')
	if neg {
		hemi = 'W'
	}
	return fmt.Sprintf("%03d%05.2f%c", deg, float64(min)/100, hemi)
}

// PositionEvent is the decoded form of an incoming position report.
type PositionEvent struct {
	Lat, Lon int32 // 1e-7 degrees
	AltM     int32
	Symbol   Symbol
	Comment  string
}

// decodePosition parses a "!DDMM.mmN/DDDMM.mmW$..." info field.
func decodePosition(info []byte) (PositionEvent, error) {
	s := string(info)
	if len(s) == 0 || (s[0] != '!' && s[0] != '=') {
		return PositionEvent{}, fmt.Errorf("aprs: not a position report")
	}
	s = s[1:]
	if len(s) < 19 {
		return PositionEvent{}, fmt.Errorf("aprs: position report too short")
	}

	latDeg := atoiSafe(s[0:2])
	latMin := atofSafe(s[2:7])
	hemiLat := s[7]
	table := s[8]
	lonDeg := atoiSafe(s[9:12])
	lonMin := atofSafe(s[12:17])
	hemiLon := s[17]
	code := s[18]
	rest := s[19:]

	lat := int32((float64(latDeg) + latMin/60) * 1e7)
	if hemiLat == 'S' {
		lat = -lat
	}
	lon := int32((float64(lonDeg) + lonMin/60) * 1e7)
	if hemiLon == 'W' {
		lon = -lon
	}

	ev := PositionEvent{
		Lat:    lat,
		Lon:    lon,
		Symbol: Symbol{Table: table, Code: code},
	}

	if idx := strings.Index(rest, "/A="); idx >= 0 && idx+9 <= len(rest) {
		feet := atoiSafe(rest[idx+3 : idx+9])
		ev.AltM = int32(feet * 1000 / 3281)
		ev.Comment = strings.TrimSpace(rest[:idx] + rest[idx+9:])
	} else {
		ev.Comment = strings.TrimSpace(rest)
	}

	return ev, nil
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			continue
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func atofSafe(s string) float64 {
	whole := 0.0
	frac := 0.0
	fracDiv := 1.0
	seenDot := false
	for _, c := range s {
		if c == '.' {
			seenDot = true
			continue
		}
		if c < '0' || c > '9' {
			continue
		}
		d := float64(c - '0')
		if seenDot {
			fracDiv *= 10
			frac += d / fracDiv
		} else {
			whole = whole*10 + d
		}
	}
	return whole + frac
}
