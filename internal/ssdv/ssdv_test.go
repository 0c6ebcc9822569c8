package ssdv_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dl7ad/pecantrack/internal/ax25"
	"github.com/dl7ad/pecantrack/internal/camera"
	"github.com/dl7ad/pecantrack/internal/ssdv"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	call, err := ax25.NewAddress("DL7AD", 12)
	require.NoError(t, err)

	jpeg := bytes.Repeat([]byte{0xAB, 0xCD, 0xEF}, 200) // 600 bytes
	packets := ssdv.Encode(jpeg, 3, call, camera.Resolution640x480, 80)
	require.Len(t, packets, 3) // 600/240 rounded up

	for i, p := range packets {
		require.Equal(t, uint16(i), p.PacketID)
		require.Equal(t, uint8(3), p.ImageID)
		wire := p.Bytes()
		require.Len(t, wire, ssdv.PacketSize)

		decoded, err := ssdv.Decode(wire)
		require.NoError(t, err)
		require.Equal(t, p.ImageID, decoded.ImageID)
		require.Equal(t, p.PacketID, decoded.PacketID)
		require.Equal(t, "DL7AD", decoded.Callsign.Call)
	}
}

func TestDecodeRejectsBadSync(t *testing.T) {
	buf := make([]byte, ssdv.PacketSize)
	_, err := ssdv.Decode(buf)
	require.Error(t, err)
}
