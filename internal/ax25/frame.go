package ax25

import "fmt"

// UI-frame control/PID constants (spec §1: "the only frame type used").
const (
	controlUI   = 0x03
	pidNoLayer3 = 0xF0
)

// Packet is the AX.25 UI frame envelope spec §3 describes: addressing
// plus an information field. Refcount/lifecycle ownership lives in
// internal/pool; Packet itself is a plain reusable buffer.
type Packet struct {
	Dest Address
	Src  Address
	Path []Address // up to MaxDigiPathLen entries, H-bit tracked per entry
	Info []byte    // up to MaxInfoLen bytes
}

// Reset clears a Packet for reuse from the pool.
func (p *Packet) Reset() {
	p.Dest = Address{}
	p.Src = Address{}
	p.Path = p.Path[:0]
	p.Info = p.Info[:0]
}

// Encode serialises the packet into an AX.25 frame body (address
// field, control, PID, info, FCS) with no flags and no bit stuffing —
// those are applied by the radio manager's modulator at TX time.
func (p *Packet) Encode() ([]byte, error) {
	if len(p.Info) > MaxInfoLen {
		return nil, ErrPacketTooLong
	}
	if len(p.Path) > MaxDigiPathLen {
		return nil, fmt.Errorf("ax25: digi path has %d entries, max %d", len(p.Path), MaxDigiPathLen)
	}

	body := make([]byte, 0, 14+7*len(p.Path)+2+len(p.Info)+2)

	destBytes := p.Dest.encode(false)
	body = append(body, destBytes[:]...)

	lastIsSrc := len(p.Path) == 0
	srcBytes := p.Src.encode(lastIsSrc)
	body = append(body, srcBytes[:]...)

	for i, addr := range p.Path {
		last := i == len(p.Path)-1
		b := addr.encode(last)
		body = append(body, b[:]...)
	}

	body = append(body, controlUI, pidNoLayer3)
	body = append(body, p.Info...)

	fcs := FCS(body)
	body = append(body, byte(fcs), byte(fcs>>8))

	return body, nil
}

// Decode parses an AX.25 UI frame body (as produced by Encode, i.e.
// after flag removal and bit de-stuffing). It validates the FCS and
// rejects anything that isn't a UI frame with no layer-3 protocol, per
// spec §1/§4.4.
func Decode(frame []byte) (*Packet, error) {
	if len(frame) < 14+2+2 {
		return nil, fmt.Errorf("ax25: frame too short (%d bytes)", len(frame))
	}
	if !VerifyFCS(frame) {
		return nil, fmt.Errorf("ax25: FCS mismatch")
	}
	body := frame[:len(frame)-2]

	p := &Packet{}
	off := 0

	dest, _, err := decodeAddress(body[off:])
	if err != nil {
		return nil, err
	}
	p.Dest = dest
	off += 7

	src, last, err := decodeAddress(body[off:])
	if err != nil {
		return nil, err
	}
	p.Src = src
	off += 7

	for !last {
		if off+7 > len(body) {
			return nil, fmt.Errorf("ax25: truncated digi path")
		}
		addr, isLast, err := decodeAddress(body[off:])
		if err != nil {
			return nil, err
		}
		p.Path = append(p.Path, addr)
		off += 7
		last = isLast
		if len(p.Path) > MaxDigiPathLen {
			return nil, fmt.Errorf("ax25: digi path exceeds %d entries", MaxDigiPathLen)
		}
	}

	if off+2 > len(body) {
		return nil, fmt.Errorf("ax25: missing control/PID")
	}
	control := body[off]
	pid := body[off+1]
	off += 2
	if control != controlUI {
		return nil, fmt.Errorf("ax25: not a UI frame (control=0x%02X)", control)
	}
	if pid != pidNoLayer3 {
		return nil, fmt.Errorf("ax25: unexpected PID 0x%02X", pid)
	}

	info := make([]byte, len(body)-off)
	copy(info, body[off:])
	if len(info) > MaxInfoLen {
		return nil, ErrPacketTooLong
	}
	p.Info = info

	return p, nil
}
