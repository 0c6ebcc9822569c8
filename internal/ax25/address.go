// Package ax25 implements AX.25 UI-frame framing: addressing, HDLC bit
// stuffing, FCS, and the Packet envelope spec §3 describes. It is the
// generalisation of the teacher's protocol/frame.go (length-prefixed,
// CRC-validated binary framing) to full AX.25 addressing and HDLC
// encoding.
package ax25

import (
	"fmt"
	"strings"
)

// MaxCallsignLen is the maximum callsign length (without SSID), per
// spec §3.
const MaxCallsignLen = 6

// MaxDigiPathLen is the maximum number of digipeater path entries.
const MaxDigiPathLen = 8

// MaxInfoLen is the maximum AX.25 UI frame information field length.
const MaxInfoLen = 256

// ErrPacketTooLong is the codec-level rejection spec §4.4/§7 describes.
var ErrPacketTooLong = fmt.Errorf("ax25: %w", errPacketTooLong{})

type errPacketTooLong struct{}

func (errPacketTooLong) Error() string { return "ERR_PACKET_TOO_LONG" }

// Address is one AX.25 station address: a callsign, SSID, and the
// H-bit ("has been repeated") used on digipeater path entries.
type Address struct {
	Call string // up to 6 chars, upper-cased
	SSID uint8  // 0-15
	HBit bool   // set once a digipeater has relayed through this entry
}

// NewAddress validates and constructs an Address.
func NewAddress(call string, ssid uint8) (Address, error) {
	call = strings.ToUpper(strings.TrimSpace(call))
	if len(call) == 0 || len(call) > MaxCallsignLen {
		return Address{}, fmt.Errorf("ax25: callsign %q must be 1-%d chars", call, MaxCallsignLen)
	}
	if ssid > 15 {
		return Address{}, fmt.Errorf("ax25: SSID %d out of range 0-15", ssid)
	}
	return Address{Call: call, SSID: ssid}, nil
}

// String renders CALL-SSID, omitting "-0".
func (a Address) String() string {
	if a.SSID == 0 {
		return a.Call
	}
	return fmt.Sprintf("%s-%d", a.Call, a.SSID)
}

// encode packs one 7-byte AX.25 address field. last marks the final
// address in the path (sets the AX.25 extension bit).
func (a Address) encode(last bool) [7]byte {
	var out [7]byte
	call := a.Call
	for len(call) < MaxCallsignLen {
		call += " "
	}
	for i := 0; i < MaxCallsignLen; i++ {
		out[i] = call[i] << 1
	}
	ssidByte := byte(0b0110_0000) | (a.SSID << 1)
	if a.HBit {
		ssidByte |= 0b1000_0000
	}
	if last {
		ssidByte |= 0b0000_0001
	}
	out[6] = ssidByte
	return out
}

func decodeAddress(b []byte) (addr Address, last bool, err error) {
	if len(b) < 7 {
		return Address{}, false, fmt.Errorf("ax25: short address field")
	}
	var call strings.Builder
	for i := 0; i < MaxCallsignLen; i++ {
		c := b[i] >> 1
		if c != ' ' {
			call.WriteByte(c)
		}
	}
	ssidByte := b[6]
	addr = Address{
		Call: call.String(),
		SSID: (ssidByte >> 1) & 0x0F,
		HBit: ssidByte&0b1000_0000 != 0,
	}
	last = ssidByte&0x01 != 0
	return addr, last, nil
}
