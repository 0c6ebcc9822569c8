// Package collector implements the Data Collector (spec.md §4.1): the
// single goroutine that periodically samples every C1 sensor façade,
// builds the authoritative DataPoint, publishes it atomically for
// readers, and persists it into the log ring. It generalises the
// teacher's transport.Receiver callback-dispatch idiom
// (map[byte]func(*Frame)) into a single-purpose synchronous
// request/reply channel, since the Collector has exactly one kind of
// request (a snapshot) rather than a family of frame types.
package collector

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/dl7ad/pecantrack/internal/gpsdev"
	"github.com/dl7ad/pecantrack/internal/logring"
	"github.com/dl7ad/pecantrack/internal/model"
	"github.com/dl7ad/pecantrack/internal/power"
	"github.com/dl7ad/pecantrack/internal/sensors"
)

// Intent is the caller-supplied hint spec.md §4.1 describes: "a
// message carrying its application config (so the Collector knows,
// e.g., whether GPS must be on)".
type Intent struct {
	RequireGPS bool
}

// PowerPolicy holds the three VBat thresholds spec.md §4.1 names.
type PowerPolicy struct {
	GPSOffVBat    uint16 // below this, GPS stays off even if requested
	GPSOnVBat     uint16 // above this, GPS may be powered on
	GPSOnPerVBat  uint16 // below this while running, GPS is powered off prematurely
}

// LogFallbackWindow is the staleness bound after which a GPS fix
// failure is reported as FROM_LOG instead of LOSS/ERROR.
const LogFallbackWindow = 5 * time.Minute

type snapshotRequest struct {
	intent Intent
	reply  chan model.DataPoint
}

// Collector is the single writer of the latest DataPoint, published
// via atomic.Pointer so readers always see a complete, self-consistent
// snapshot (spec.md §3's collector ownership invariant).
type Collector struct {
	gps     *gpsdev.Device
	power   *power.Device
	station sensors.Station
	ring    *logring.Ring
	policy  PowerPolicy
	log     zerolog.Logger

	id       atomic.Uint32
	latest   atomic.Pointer[model.DataPoint]
	requests chan snapshotRequest

	genMu sync.Mutex
	genCh chan uint32

	lastFix time.Time
}

// New constructs a Collector. If the ring already holds a valid record
// its ID seeds the monotonic counter, per spec.md §4.1 ("initialises
// by reading the last valid LogRecord as seed").
func New(gps *gpsdev.Device, pwr *power.Device, station sensors.Station, ring *logring.Ring, policy PowerPolicy, log zerolog.Logger) *Collector {
	c := &Collector{
		gps:      gps,
		power:    pwr,
		station:  station,
		ring:     ring,
		policy:   policy,
		log:      log.With().Str("component", "collector").Logger(),
		requests: make(chan snapshotRequest, 8),
		genCh:    make(chan uint32),
	}
	seedIdx := (ring.Cursor() + ring.Slots() - 1) % ring.Slots() // newest slot, wrapping
	if dp, ok := ring.GetLog(seedIdx); ok {
		c.id.Store(dp.ID)
		c.latest.Store(&dp)
	}
	return c
}

// Run is the Collector's single goroutine, launched by
// internal/threads.Supervisor. It refreshes on a fixed cycle,
// interleaved with synchronous snapshot requests.
func (c *Collector) Run(ctx context.Context, cycle time.Duration) error {
	ticker := time.NewTicker(cycle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-c.requests:
			dp := c.refresh(ctx, req.intent)
			req.reply <- dp
		case <-ticker.C:
			c.refresh(ctx, Intent{})
		}
	}
}

// RequestSnapshot is the synchronous spec.md §4.1 request_snapshot
// operation: the caller blocks for a refreshed, published snapshot.
func (c *Collector) RequestSnapshot(ctx context.Context, intent Intent) (model.DataPoint, error) {
	reply := make(chan model.DataPoint, 1)
	select {
	case c.requests <- snapshotRequest{intent: intent, reply: reply}:
	case <-ctx.Done():
		return model.DataPoint{}, ctx.Err()
	}
	select {
	case dp := <-reply:
		return dp, nil
	case <-ctx.Done():
		return model.DataPoint{}, ctx.Err()
	}
}

// GetLog delegates to the log ring for the Log thread and CLI.
func (c *Collector) GetLog(index int) (model.DataPoint, bool) {
	return c.ring.GetLog(index)
}

// LogCursor exposes the ring's next-write slot so the Log thread knows
// how far it can safely read without racing an in-progress Append.
func (c *Collector) LogCursor() int {
	return c.ring.Cursor()
}

// LogSlots exposes the ring's fixed capacity.
func (c *Collector) LogSlots() int {
	return c.ring.Slots()
}

// SubscribeNew returns a channel that is closed and replaced on every
// publish, the broadcast-by-close idiom matching the teacher's
// isListening-gated Listen() loops but safe for any number of
// concurrent readers: receiving a zero value from the channel (it
// being closed) means "a new id is available, re-read Latest()".
func (c *Collector) SubscribeNew(ctx context.Context) <-chan uint32 {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	return c.genCh
}

// Latest returns the most recently published snapshot.
func (c *Collector) Latest() model.DataPoint {
	if dp := c.latest.Load(); dp != nil {
		return *dp
	}
	return model.DataPoint{}
}

// refresh runs the six-step algorithm of spec.md §4.1 and publishes
// the result.
func (c *Collector) refresh(ctx context.Context, intent Intent) model.DataPoint {
	prev := c.Latest()
	now := time.Now()

	gpsState, fix, sysErr := c.refreshGPS(ctx, intent, prev, now)

	powerReading, perr := c.power.Read(ctx)
	if perr != nil {
		sysErr |= model.SysErrorPowerMeter
		c.log.Warn().Err(perr).Msg("power meter read failed")
	}

	bmeI1, bmeE1, bmeE2 := c.station.ReadAll(ctx)
	sysErr = sysErr.SetBMEI1(bmeI1.Status).SetBMEE1(bmeE1.Status).SetBMEE2(bmeE2.Status)

	stm32Temp, si446xTemp := c.station.ReadThermal(ctx)

	id := c.id.Add(1)
	dp := model.DataPoint{
		ID:         id,
		SysTime:    uint32(now.Unix()),
		GPSTime:    fix.Epoch,
		ResetCount: prev.ResetCount,

		GPSState: gpsState,
		GPSSats:  fix.Sats,
		GPSTTFF:  uint16(c.gps.TTFF(now).Seconds()),
		GPSPDOP:  fix.PDOP,
		GPSAlt:   fix.Alt,
		GPSLat:   fix.Lat,
		GPSLon:   fix.Lon,

		ADCVBat:        powerReading.ADCVBat,
		ADCVSol:        powerReading.ADCVSol,
		PACVBat:        powerReading.PACVBat,
		PACVSol:        powerReading.PACVSol,
		PACPBat:        powerReading.PACPBat,
		PACPSol:        powerReading.PACPSol,
		LightIntensity: powerReading.Light,

		BMEI1: bmeI1,
		BMEE1: bmeE1,
		BMEE2: bmeE2,

		STM32Temp:  stm32Temp,
		Si446xTemp: si446xTemp,
		SysError:   sysErr,
		GPIOState:  prev.GPIOState,
	}

	if gpsState == model.GPSLockedOn || gpsState == model.GPSFromAPRSFix {
		c.lastFix = now
	} else if gpsState != model.GPSOff && !c.lastFix.IsZero() && now.Sub(c.lastFix) > LogFallbackWindow {
		dp.GPSState = model.GPSFromLog
		dp.GPSLat, dp.GPSLon, dp.GPSAlt = prev.GPSLat, prev.GPSLon, prev.GPSAlt
	}

	c.latest.Store(&dp)
	if err := c.ring.Append(&dp); err != nil {
		c.log.Error().Err(err).Msg("log ring append failed")
	}
	c.publishGeneration(id)

	return dp
}

func (c *Collector) refreshGPS(ctx context.Context, intent Intent, prev model.DataPoint, now time.Time) (model.GPSState, gpsdev.Fix, model.SysError) {
	var sysErr model.SysError

	wantOn := intent.RequireGPS
	vbat := prev.PACVBat

	switch {
	case vbat != 0 && vbat < c.policy.GPSOffVBat:
		wantOn = false
	case vbat != 0 && vbat < c.policy.GPSOnPerVBat && c.gps.PoweredOn():
		wantOn = false
	case vbat != 0 && vbat < c.policy.GPSOnVBat && !c.gps.PoweredOn():
		wantOn = false
	}

	if wantOn && !c.gps.PoweredOn() {
		if err := c.gps.PowerOn(now); err != nil {
			sysErr |= model.SysErrorGPS
			return model.GPSError, gpsdev.Fix{}, sysErr
		}
	} else if !wantOn && c.gps.PoweredOn() {
		_ = c.gps.PowerOff()
	}

	state, fix, err := c.gps.Read(ctx, now)
	if err != nil {
		sysErr |= model.SysErrorGPS
	}
	if vbat != 0 && vbat < c.policy.GPSOffVBat {
		return model.GPSLowBattNeverOn, fix, sysErr
	}
	return state, fix, sysErr
}

func (c *Collector) publishGeneration(id uint32) {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	close(c.genCh)
	c.genCh = make(chan uint32)
	_ = id
}
