package apps_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dl7ad/pecantrack/internal/ax25"
	"github.com/dl7ad/pecantrack/internal/collector"
	"github.com/dl7ad/pecantrack/internal/geofence"
	"github.com/dl7ad/pecantrack/internal/gpsdev"
	gpsstub "github.com/dl7ad/pecantrack/internal/gpsdev/stub"
	"github.com/dl7ad/pecantrack/internal/logring"
	"github.com/dl7ad/pecantrack/internal/model"
	"github.com/dl7ad/pecantrack/internal/nvstore/mem"
	"github.com/dl7ad/pecantrack/internal/pool"
	"github.com/dl7ad/pecantrack/internal/power"
	powerstub "github.com/dl7ad/pecantrack/internal/power/stub"
	"github.com/dl7ad/pecantrack/internal/radio"
	"github.com/dl7ad/pecantrack/internal/radio/stub"
	"github.com/dl7ad/pecantrack/internal/sensors"
	sensorstub "github.com/dl7ad/pecantrack/internal/sensors/stub"
	"github.com/dl7ad/pecantrack/internal/watchdog"

	"github.com/dl7ad/pecantrack/internal/apps"
	"github.com/dl7ad/pecantrack/internal/aprs"
)

func newHarness(t *testing.T) (*collector.Collector, *gpsstub.Driver, *radio.Manager, *stub.Driver) {
	t.Helper()
	dev := mem.New(16 * model.RecordSize)
	ring, err := logring.Open(dev)
	require.NoError(t, err)

	gpsDrv := gpsstub.New()
	gps := gpsdev.New(gpsDrv)
	pwr := power.New(powerstub.New())
	station := sensors.Station{I1: sensorstub.NewBME(), E1: sensorstub.NewBME(), E2: sensorstub.NewBME()}
	policy := collector.PowerPolicy{GPSOffVBat: 0, GPSOnVBat: 0, GPSOnPerVBat: 0}
	c := collector.New(gps, pwr, station, ring, policy, zerolog.Nop())

	drv := stub.New()
	mgr := radio.NewManager(drv, -90)
	return c, gpsDrv, mgr, drv
}

func TestBeaconTransmitsPositionAndTelemetry(t *testing.T) {
	c, gpsDrv, mgr, drv := newHarness(t)
	for i := 0; i < 20; i++ {
		gpsDrv.Inject(gpsdev.Fix{Valid: true, Sats: 6, Lat: 377_749_000, Lon: -1_224_194_000, Alt: 15000, Epoch: 1})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx, time.Hour)
	go mgr.Run(ctx)

	self, err := ax25.NewAddress("DL7AD", 12)
	require.NoError(t, err)
	registry := watchdog.NewRegistry(time.Minute)
	resolver := geofence.New()
	dsp := aprs.NewDispatcher(self, aprs.DefaultTuning(), false)

	wide1, err := ax25.NewAddress("WIDE1", 1)
	require.NoError(t, err)
	cfg := apps.BeaconConfig{
		Self:           self,
		Path:           []ax25.Address{wide1},
		Cycle:          20 * time.Millisecond,
		FreqDescriptor: geofence.Dynamic(geofence.BandAPRSRegional),
	}
	beacon := apps.NewBeacon(cfg, c, mgr, resolver, dsp, registry, pool.New(4), zerolog.Nop())

	bctx, bcancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer bcancel()
	_ = beacon.Run(bctx)

	require.NotEmpty(t, drv.TxLog())
}

func TestLogThreadDrainsRingAndAdvancesCursor(t *testing.T) {
	c, gpsDrv, mgr, drv := newHarness(t)
	gpsDrv.Inject(gpsdev.Fix{Valid: true, Lat: 1, Lon: 1, Epoch: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx, time.Hour)
	go mgr.Run(ctx)

	for i := 0; i < 3; i++ {
		_, err := c.RequestSnapshot(ctx, collector.Intent{})
		require.NoError(t, err)
	}

	self, _ := ax25.NewAddress("DL7AD", 12)
	registry := watchdog.NewRegistry(time.Minute)
	logCfg := apps.LogConfig{Self: self, Cycle: 10 * time.Millisecond, RecordsPerPacket: 2}
	logThread := apps.NewLog(logCfg, c, mgr, registry, pool.New(4), zerolog.Nop())

	lctx, lcancel := context.WithTimeout(ctx, 60*time.Millisecond)
	defer lcancel()
	_ = logThread.Run(lctx)

	require.NotEmpty(t, drv.TxLog())
}
