package collector_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dl7ad/pecantrack/internal/collector"
	"github.com/dl7ad/pecantrack/internal/gpsdev"
	gpsstub "github.com/dl7ad/pecantrack/internal/gpsdev/stub"
	"github.com/dl7ad/pecantrack/internal/logring"
	"github.com/dl7ad/pecantrack/internal/model"
	"github.com/dl7ad/pecantrack/internal/nvstore/mem"
	"github.com/dl7ad/pecantrack/internal/power"
	powerstub "github.com/dl7ad/pecantrack/internal/power/stub"
	"github.com/dl7ad/pecantrack/internal/sensors"
	sensorstub "github.com/dl7ad/pecantrack/internal/sensors/stub"
)

func newTestCollector(t *testing.T) *collector.Collector {
	t.Helper()
	dev := mem.New(16 * model.RecordSize)
	ring, err := logring.Open(dev)
	require.NoError(t, err)

	gpsDrv := gpsstub.New()
	gps := gpsdev.New(gpsDrv)
	pwrDrv := powerstub.New()
	pwr := power.New(pwrDrv)
	station := sensors.Station{I1: sensorstub.NewBME(), E1: sensorstub.NewBME(), E2: sensorstub.NewBME()}

	policy := collector.PowerPolicy{GPSOffVBat: 3300, GPSOnVBat: 3500, GPSOnPerVBat: 3400}
	return collector.New(gps, pwr, station, ring, policy, zerolog.Nop())
}

// TestSnapshotIDsAreMonotonic is spec.md §8 property 1: successive
// RequestSnapshot calls never observe a decreasing ID.
func TestSnapshotIDsAreMonotonic(t *testing.T) {
	c := newTestCollector(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx, time.Hour) // long cycle: only explicit requests drive refreshes

	var lastID uint32
	for i := 0; i < 5; i++ {
		dp, err := c.RequestSnapshot(context.Background(), collector.Intent{})
		require.NoError(t, err)
		require.GreaterOrEqual(t, dp.ID, lastID)
		lastID = dp.ID
	}
}

// TestSensorFailureDoesNotAbortCycle confirms a failing sensor sets its
// status bit but the refresh still publishes a complete snapshot.
func TestSensorFailureDoesNotAbortCycle(t *testing.T) {
	dev := mem.New(16 * model.RecordSize)
	ring, err := logring.Open(dev)
	require.NoError(t, err)

	gpsDrv := gpsstub.New()
	gps := gpsdev.New(gpsDrv)
	pwrDrv := powerstub.New()
	pwrDrv.SetFailing(true)
	pwr := power.New(pwrDrv)
	bme := sensorstub.NewBME()
	bme.SetFailing(true)
	station := sensors.Station{I1: bme, E1: sensorstub.NewBME(), E2: nil}

	policy := collector.PowerPolicy{GPSOffVBat: 3300, GPSOnVBat: 3500, GPSOnPerVBat: 3400}
	c := collector.New(gps, pwr, station, ring, policy, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx, time.Hour)

	dp, err := c.RequestSnapshot(context.Background(), collector.Intent{})
	require.NoError(t, err)
	require.Equal(t, model.BMEFail, dp.BMEI1.Status)
	require.Equal(t, model.BMENotFitted, dp.BMEE2.Status)
	require.NotZero(t, dp.SysError&model.SysErrorPowerMeter)
}
