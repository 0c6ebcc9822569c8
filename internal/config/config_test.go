package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dl7ad/pecantrack/internal/config"
	"github.com/dl7ad/pecantrack/internal/nvstore/mem"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dev := mem.New(4096)
	want := config.Defaults()
	want.Identity.Callsign = "DL7AD"
	want.Identity.SSID = 12
	want.Beacon.CycleSeconds = 90

	require.NoError(t, config.Save(dev, want))

	got, err := config.Load(dev)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoadFallsBackToDefaultsOnBlankDevice(t *testing.T) {
	dev := mem.New(4096)
	got, err := config.Load(dev)
	require.ErrorIs(t, err, config.ErrConfigInvalid)
	require.Equal(t, config.Defaults(), got)
}

func TestLoadFallsBackToDefaultsOnCorruption(t *testing.T) {
	dev := mem.New(4096)
	require.NoError(t, config.Save(dev, config.Defaults()))

	buf := make([]byte, 4096)
	require.NoError(t, dev.ReadAt(0, buf))
	buf[10] ^= 0xFF // flip a body byte so the CRC no longer matches
	require.NoError(t, dev.WriteAt(0, buf))

	got, err := config.Load(dev)
	require.ErrorIs(t, err, config.ErrConfigInvalid)
	require.Equal(t, config.Defaults(), got)
}
