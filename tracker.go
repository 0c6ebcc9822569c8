// Package pecantrack wires every internal/ component into a running
// high-altitude balloon tracker. The actual driver selection is split
// by build tag exactly the way the teacher's facade.go documents:
//
//   - constructors_nrf.go  - tinygo || baremetal (real hardware)
//   - constructors_host.go - !tinygo && !baremetal (host stubs)
//
// Both produce a fully-wired *Tracker; only the concrete Drivers behind
// each façade differ.
package pecantrack

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/dl7ad/pecantrack/internal/apps"
	"github.com/dl7ad/pecantrack/internal/aprs"
	"github.com/dl7ad/pecantrack/internal/ax25"
	"github.com/dl7ad/pecantrack/internal/bandplan"
	"github.com/dl7ad/pecantrack/internal/camera"
	"github.com/dl7ad/pecantrack/internal/cli"
	"github.com/dl7ad/pecantrack/internal/collector"
	"github.com/dl7ad/pecantrack/internal/config"
	"github.com/dl7ad/pecantrack/internal/geofence"
	"github.com/dl7ad/pecantrack/internal/gpsdev"
	"github.com/dl7ad/pecantrack/internal/logring"
	"github.com/dl7ad/pecantrack/internal/nvstore"
	"github.com/dl7ad/pecantrack/internal/pool"
	"github.com/dl7ad/pecantrack/internal/power"
	"github.com/dl7ad/pecantrack/internal/radio"
	"github.com/dl7ad/pecantrack/internal/sensors"
	"github.com/dl7ad/pecantrack/internal/threads"
	"github.com/dl7ad/pecantrack/internal/watchdog"
)

// watchdogPetInterval is how often the Registry's Pet loop checks
// AllAlive and kicks the hardware timer.
const watchdogPetInterval = 2 * time.Second

// packetPoolCapacity is C8's fixed packet-buffer count (spec §4.5
// default), shared by every application thread that originates frames.
const packetPoolCapacity = 16

// Tracker bundles every wired component and owns the five application
// threads.
type Tracker struct {
	Config     config.Config
	Collector  *collector.Collector
	Manager    *radio.Manager
	Dispatcher *aprs.Dispatcher
	Resolver   *geofence.Resolver
	Registry   *watchdog.Registry
	Supervisor *threads.Supervisor
	Console    *cli.Console

	kicker watchdog.Kicker
	log    zerolog.Logger

	beacon     *apps.Beacon
	image      *apps.Image
	logThread  *apps.Log
	receiver   *apps.Receiver
	digipeater *apps.Digipeater
}

// components is everything a build-tag-specific constructor must
// supply; New assembles the domain layer identically regardless of
// which side built them.
type components struct {
	configDev nvstore.BlockDevice
	ringDev   nvstore.BlockDevice

	gpsDriver    gpsdev.Driver
	powerDriver  power.Driver
	station      sensors.Station
	cameraDriver camera.Driver
	radioDriver  radio.TransceiverDriver
	kicker       watchdog.Kicker

	console *cli.Console
}

func newTracker(c components, log zerolog.Logger) (*Tracker, error) {
	cfg, err := config.Load(c.configDev)
	if err != nil {
		log.Warn().Err(err).Msg("config load failed, using defaults")
	}

	ring, err := logring.Open(c.ringDev)
	if err != nil {
		return nil, fmt.Errorf("pecantrack: log ring open: %w", err)
	}

	gps := gpsdev.New(c.gpsDriver)
	pwr := power.New(c.powerDriver)
	policy := collector.PowerPolicy{
		GPSOffVBat:   cfg.PowerPolicy.GPSOffVBat,
		GPSOnVBat:    cfg.PowerPolicy.GPSOnVBat,
		GPSOnPerVBat: cfg.PowerPolicy.GPSOnPerVBat,
	}
	col := collector.New(gps, pwr, c.station, ring, policy, log)

	mgr := radio.NewManager(c.radioDriver, -90)

	self, err := ax25.NewAddress(cfg.Identity.Callsign, cfg.Identity.SSID)
	if err != nil {
		return nil, fmt.Errorf("pecantrack: invalid callsign in config: %w", err)
	}
	base := self
	if cfg.Identity.BaseCall != "" {
		if b, err := ax25.NewAddress(cfg.Identity.BaseCall, 0); err == nil {
			base = b
		}
	}

	tuning := aprs.Tuning{APRSDWindow: cfg.Tuning.APRSDWindow(), MsgDedupWindow: cfg.Tuning.MsgDedupWindow()}
	dsp := aprs.NewDispatcher(self, tuning, cfg.Digipeat)
	resolver := geofence.New()
	registry := watchdog.NewRegistry(30 * time.Second)
	supervisor := threads.NewSupervisor(registry, log)

	pkts := pool.New(packetPoolCapacity)

	path := apps.ParseDigiPath(cfg.Beacon.DigiPath)
	freqDesc := geofence.Dynamic(geofence.BandAPRSRegional)
	if cfg.Beacon.FrequencyStatic != 0 {
		freqDesc = geofence.Static(bandplan.Hz(cfg.Beacon.FrequencyStatic))
	}

	beaconCfg := apps.BeaconConfig{
		Self: self, BaseCall: base, Path: path, Comment: cfg.Beacon.Comment,
		Cycle: cfg.Beacon.Cycle(), TelEncCycle: cfg.Beacon.TelEncCycle(), FreqDescriptor: freqDesc,
	}
	beacon := apps.NewBeacon(beaconCfg, col, mgr, resolver, dsp, registry, pkts, log)

	camDev := camera.New(c.cameraDriver)
	imageCfg := apps.ImageConfig{
		Self: self, Path: path, Cycle: cfg.Image.Cycle(), Continuous: cfg.Image.Continuous,
		Resolution: camera.Resolution(cfg.Image.Resolution), Quality: cfg.Image.Quality, Retries: cfg.Image.Retries,
	}
	image := apps.NewImage(imageCfg, camDev, mgr, registry, pkts, log)

	logCfg := apps.LogConfig{Self: self, Path: path, Cycle: cfg.Log.Cycle(), RecordsPerPacket: int(cfg.Log.RecordsPerPacket)}
	logThread := apps.NewLog(logCfg, col, mgr, registry, pkts, log)

	receiver := apps.NewReceiver(self, mgr, dsp, registry, pkts, log)
	digipeater := apps.NewDigipeater(receiver.DigipeatQueue(), mgr, registry, log)

	if c.console != nil {
		cli.RegisterCommands(c.console, cli.Bindings{Collector: col, Camera: camDev, Manager: mgr, Config: &cfg, Self: self})
	}

	return &Tracker{
		Config: cfg, Collector: col, Manager: mgr, Dispatcher: dsp, Resolver: resolver,
		Registry: registry, Supervisor: supervisor, Console: c.console,
		kicker: c.kicker, log: log,
		beacon: beacon, image: image, logThread: logThread, receiver: receiver, digipeater: digipeater,
	}, nil
}

// Run launches the Collector, every application thread, and the
// watchdog pet loop, blocking until ctx is cancelled or one thread
// fails.
func (t *Tracker) Run(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	go t.Registry.Pet(stop, t.kicker, watchdogPetInterval)

	collectorThread := collectorAdapter{c: t.Collector, cycle: t.Config.Tuning.CollectorCycle()}

	threadList := []threads.Thread{collectorThread, t.beacon, t.image, t.logThread, t.receiver, t.digipeater}
	if t.Console != nil {
		threadList = append(threadList, consoleAdapter{console: t.Console})
	}
	return t.Supervisor.Run(ctx, threadList...)
}

// collectorAdapter satisfies threads.Thread for the Collector's Run
// method, whose signature takes an extra cycle argument.
type collectorAdapter struct {
	c     *collector.Collector
	cycle time.Duration
}

func (collectorAdapter) Name() string { return "collector" }
func (a collectorAdapter) Run(ctx context.Context) error {
	return a.c.Run(ctx, a.cycle)
}

// consoleAdapter satisfies threads.Thread for the debug console.
type consoleAdapter struct {
	console *cli.Console
}

func (consoleAdapter) Name() string { return "console" }
func (a consoleAdapter) Run(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- a.console.Serve() }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// cliConsole wraps rw in a debug cli.Console, shared by both the
// embedded and host constructors.
func cliConsole(rw io.ReadWriter, log zerolog.Logger) *cli.Console {
	return cli.New(rw, log)
}

