package ax25

import (
	"bytes"
	"testing"
)

func mustAddr(t *testing.T, call string, ssid uint8) Address {
	t.Helper()
	a, err := NewAddress(call, ssid)
	if err != nil {
		t.Fatalf("NewAddress(%q, %d): %v", call, ssid, err)
	}
	return a
}

func TestEncodeDecodeRoundTripNoPath(t *testing.T) {
	p := &Packet{
		Dest: mustAddr(t, "APRS", 0),
		Src:  mustAddr(t, "DL7AD", 12),
		Info: []byte("!3746.67N/12225.20W>test position"),
	}
	frame, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Src.String() != "DL7AD-12" || got.Dest.String() != "APRS" {
		t.Fatalf("addresses mismatch: src=%s dest=%s", got.Src, got.Dest)
	}
	if !bytes.Equal(got.Info, p.Info) {
		t.Fatalf("info mismatch: got %q want %q", got.Info, p.Info)
	}
	if len(got.Path) != 0 {
		t.Fatalf("expected empty path, got %v", got.Path)
	}
}

func TestEncodeDecodeRoundTripWithPath(t *testing.T) {
	for pathLen := 1; pathLen <= MaxDigiPathLen; pathLen++ {
		path := make([]Address, pathLen)
		for i := range path {
			path[i] = mustAddr(t, "WIDE1", uint8(i+1))
		}
		p := &Packet{
			Dest: mustAddr(t, "APRS", 0),
			Src:  mustAddr(t, "DL7AD", 12),
			Path: path,
			Info: []byte("T#001,100,110,120,130,140,00000000"),
		}
		frame, err := p.Encode()
		if err != nil {
			t.Fatalf("pathLen=%d Encode: %v", pathLen, err)
		}
		got, err := Decode(frame)
		if err != nil {
			t.Fatalf("pathLen=%d Decode: %v", pathLen, err)
		}
		if len(got.Path) != pathLen {
			t.Fatalf("pathLen=%d: got %d path entries", pathLen, len(got.Path))
		}
	}
}

func TestDecodeRejectsBadFCS(t *testing.T) {
	p := &Packet{
		Dest: mustAddr(t, "APRS", 0),
		Src:  mustAddr(t, "DL7AD", 12),
		Info: []byte("hello"),
	}
	frame, _ := p.Encode()
	frame[len(frame)-1] ^= 0xFF
	if _, err := Decode(frame); err == nil {
		t.Fatalf("expected FCS mismatch error")
	}
}

func TestEncodeRejectsOversizedInfo(t *testing.T) {
	p := &Packet{
		Dest: mustAddr(t, "APRS", 0),
		Src:  mustAddr(t, "DL7AD", 12),
		Info: bytes.Repeat([]byte{'x'}, MaxInfoLen+1),
	}
	if _, err := p.Encode(); err != ErrPacketTooLong {
		t.Fatalf("got %v, want ErrPacketTooLong", err)
	}
}

func TestBitStuffingNeverEmitsSixOnes(t *testing.T) {
	cases := [][]byte{
		{0x00},
		{0xFF, 0xFF, 0xFF},
		{0x7E, 0x7E},
		[]byte("the quick brown fox jumps over 13 lazy dogs"),
		{0b11111000, 0b00011111, 0b11111111},
	}
	for _, c := range cases {
		stuffed := StuffBits(c)
		// No run of six consecutive 1 bits may appear in the stuffed
		// output (spec §8 property 5).
		ones := 0
		for _, b := range stuffed {
			for i := 7; i >= 0; i-- {
				if (b>>uint(i))&1 == 1 {
					ones++
					if ones >= 6 {
						t.Fatalf("stuffed output contains 6+ consecutive ones: %v", stuffed)
					}
				} else {
					ones = 0
				}
			}
		}
	}
}

func TestBitStuffingIdempotentRoundTrip(t *testing.T) {
	original := []byte("APRS DL7AD-12 WIDE1-1 test payload 0123456789")
	stuffed := StuffBits(original)
	unstuffed := UnstuffBits(stuffed)
	if len(unstuffed) < len(original) || !bytes.Equal(unstuffed[:len(original)], original) {
		t.Fatalf("unstuff(stuff(x)) != x: got %v want prefix %v", unstuffed, original)
	}
}

func TestFCSRoundTrip(t *testing.T) {
	data := []byte("AX.25 test frame body")
	fcs := FCS(data)
	framed := append(append([]byte{}, data...), byte(fcs), byte(fcs>>8))
	if !VerifyFCS(framed) {
		t.Fatalf("VerifyFCS rejected a validly-framed buffer")
	}
	framed[0] ^= 0x01
	if VerifyFCS(framed) {
		t.Fatalf("VerifyFCS accepted a corrupted buffer")
	}
}
