// Package ssdv implements the slow-scan digital video packetisation
// scheme spec.md §6 names: a JPEG is split into fixed 256-byte
// packets, each self-describing (callsign, image id, packet id, MCU
// offset, quality, resolution) so a receiver can reassemble or at
// least identify a lossy, partially-received image. The internal
// byte-format details of real SSDV are explicitly out of scope
// (spec.md §1 Non-goals); this is the minimal packetisation the
// transmitter needs to chunk and re-chunk a JPEG.
package ssdv

import (
	"encoding/binary"
	"fmt"

	"github.com/dl7ad/pecantrack/internal/ax25"
	"github.com/dl7ad/pecantrack/internal/camera"
)

// PacketSize is the fixed on-air SSDV packet size.
const PacketSize = 256

// headerSize is the fixed packet header preceding the JPEG payload chunk.
const headerSize = 16

// PayloadSize is how many JPEG bytes one packet carries.
const PayloadSize = PacketSize - headerSize

const syncByte = 0x55

// Packet is one chunk of a larger image transfer.
type Packet struct {
	Callsign   ax25.Address
	ImageID    uint8
	PacketID   uint16
	MCUOffset  uint16
	Quality    uint8
	Resolution camera.Resolution
	Payload    []byte // up to PayloadSize bytes, zero-padded on the wire
}

// Bytes serialises the packet to its fixed PacketSize wire form.
func (p Packet) Bytes() []byte {
	buf := make([]byte, PacketSize)
	buf[0] = syncByte
	buf[1] = 0x00 // packet type: 0 = no forward error correction

	call := p.Callsign.Call
	for i := 0; i < 6; i++ {
		if i < len(call) {
			buf[2+i] = call[i]
		} else {
			buf[2+i] = ' '
		}
	}
	buf[8] = p.ImageID
	binary.BigEndian.PutUint16(buf[9:11], p.PacketID)
	buf[11] = byte(p.Resolution)
	buf[12] = p.Quality
	binary.BigEndian.PutUint16(buf[13:15], p.MCUOffset)
	buf[15] = 0 // reserved

	n := copy(buf[headerSize:], p.Payload)
	_ = n
	return buf
}

// Encode splits jpeg into PayloadSize-byte chunks, each wrapped in a
// self-describing SSDV Packet, per spec.md §4.7/§6.
func Encode(jpeg []byte, imageID uint8, callsign ax25.Address, res camera.Resolution, quality uint8) []Packet {
	if len(jpeg) == 0 {
		return nil
	}
	n := (len(jpeg) + PayloadSize - 1) / PayloadSize
	packets := make([]Packet, 0, n)
	for i := 0; i < n; i++ {
		start := i * PayloadSize
		end := start + PayloadSize
		if end > len(jpeg) {
			end = len(jpeg)
		}
		payload := make([]byte, PayloadSize)
		copy(payload, jpeg[start:end])
		packets = append(packets, Packet{
			Callsign:   callsign,
			ImageID:    imageID,
			PacketID:   uint16(i),
			MCUOffset:  uint16(start),
			Quality:    quality,
			Resolution: res,
			Payload:    payload,
		})
	}
	return packets
}

// Decode parses one on-wire packet back into a Packet, validating the
// sync byte and fixed size.
func Decode(buf []byte) (Packet, error) {
	if len(buf) != PacketSize {
		return Packet{}, fmt.Errorf("ssdv: packet must be exactly %d bytes, got %d", PacketSize, len(buf))
	}
	if buf[0] != syncByte {
		return Packet{}, fmt.Errorf("ssdv: bad sync byte 0x%02X", buf[0])
	}

	callBytes := buf[2:8]
	callEnd := 6
	for callEnd > 0 && callBytes[callEnd-1] == ' ' {
		callEnd--
	}
	call, err := ax25.NewAddress(string(callBytes[:callEnd]), 0)
	if err != nil {
		return Packet{}, err
	}

	payload := make([]byte, PayloadSize)
	copy(payload, buf[headerSize:])

	return Packet{
		Callsign:   call,
		ImageID:    buf[8],
		PacketID:   binary.BigEndian.Uint16(buf[9:11]),
		Resolution: camera.Resolution(buf[11]),
		Quality:    buf[12],
		MCUOffset:  binary.BigEndian.Uint16(buf[13:15]),
		Payload:    payload,
	}, nil
}
