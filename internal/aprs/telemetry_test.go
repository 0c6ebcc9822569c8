package aprs

import (
	"strings"
	"testing"

	"github.com/dl7ad/pecantrack/internal/ax25"
	"github.com/dl7ad/pecantrack/internal/model"
	"github.com/stretchr/testify/require"
)

func TestAnalogChannelToByteClamps(t *testing.T) {
	ch := AnalogChannel{Gain: 20, Offset: 0}
	require.Equal(t, byte(0), ch.ToByte(-100))
	require.Equal(t, byte(255), ch.ToByte(1_000_000))
	require.Equal(t, byte(50), ch.ToByte(1000))
}

func TestEncodeTelemetryReportFormat(t *testing.T) {
	dp := &model.DataPoint{
		PACVBat: 4000,
		PACVSol: 5000,
		PACPBat: 0,
		PACPSol: 100,
		BMEI1:   model.BMEReading{Press: 95000, Status: model.BMEOK},
		GPSState: model.GPSLockedOn,
	}
	out := EncodeTelemetryReport(dp, DefaultTelemetryConfig(), 7)
	s := string(out)
	require.True(t, strings.HasPrefix(s, "T#007,"))
	fields := strings.Split(s, ",")
	require.Len(t, fields, 7)
	require.Len(t, fields[6], 8, "8 digital bit flags")
	require.Equal(t, byte('1'), fields[6][0], "bit0 reflects GPS lock")
}

func TestEncodeTelemetryConfigProducesFourAddressedPDUs(t *testing.T) {
	call, err := ax25.NewAddress("DL7AD", 11)
	require.NoError(t, err)

	pdus := EncodeTelemetryConfig(call, DefaultTelemetryConfig())
	require.Len(t, pdus, 4)
	for _, p := range pdus {
		require.True(t, strings.HasPrefix(string(p), ":DL7AD-11 :"))
	}
	require.Contains(t, string(pdus[0]), "PARM.")
	require.Contains(t, string(pdus[1]), "UNIT.")
	require.Contains(t, string(pdus[2]), "EQNS.")
	require.Contains(t, string(pdus[3]), "BITS.11111111")
}
