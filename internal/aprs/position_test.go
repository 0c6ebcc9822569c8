package aprs

import (
	"testing"

	"github.com/dl7ad/pecantrack/internal/model"
	"github.com/stretchr/testify/require"
)

func TestEncodePositionRoundTripsThroughDecode(t *testing.T) {
	dp := &model.DataPoint{
		GPSState: model.GPSLockedOn,
		GPSLat:   374667000, // 37.4667N
		GPSLon:   -122252000,
		GPSAlt:   1234,
	}

	out, err := EncodePosition(dp, DefaultSymbol, "test comment")
	require.NoError(t, err)

	ev, err := Decode(out)
	require.NoError(t, err)
	require.Equal(t, EventPosition, ev.Kind)
	require.InDelta(t, 374667000, ev.Position.Lat, 2000)
	require.InDelta(t, -122252000, ev.Position.Lon, 2000)
	require.InDelta(t, 1234, ev.Position.AltM, 5)
	require.Equal(t, "test comment", ev.Position.Comment)
}

func TestEncodePositionRejectsUnlockedGPS(t *testing.T) {
	dp := &model.DataPoint{GPSState: model.GPSLoss}
	_, err := EncodePosition(dp, DefaultSymbol, "")
	require.Error(t, err)
}

func TestEncodePositionWestSouthHemispheres(t *testing.T) {
	dp := &model.DataPoint{
		GPSState: model.GPSFromLog,
		GPSLat:   -338000000, // south
		GPSLon:   -700000000, // west
		GPSAlt:   0,
	}
	out, err := EncodePosition(dp, DefaultSymbol, "")
	require.NoError(t, err)

	ev, err := Decode(out)
	require.NoError(t, err)
	require.Less(t, ev.Position.Lat, int32(0))
	require.Less(t, ev.Position.Lon, int32(0))
}
