//go:build !tinygo && !baremetal

// This file is built only for non-embedded targets (host-based testing
// and the cmd/tracker dry-run mode), wiring every façade to its
// host-side fake instead of real hardware.
package pecantrack

import (
	"os"

	"github.com/rs/zerolog"

	camstub "github.com/dl7ad/pecantrack/internal/camera/stub"
	gpsstub "github.com/dl7ad/pecantrack/internal/gpsdev/stub"
	"github.com/dl7ad/pecantrack/internal/model"
	"github.com/dl7ad/pecantrack/internal/nvstore"
	"github.com/dl7ad/pecantrack/internal/nvstore/mem"
	powerstub "github.com/dl7ad/pecantrack/internal/power/stub"
	radiostub "github.com/dl7ad/pecantrack/internal/radio/stub"
	"github.com/dl7ad/pecantrack/internal/sensors"
	sensorstub "github.com/dl7ad/pecantrack/internal/sensors/stub"
	wdstub "github.com/dl7ad/pecantrack/internal/watchdog/stub"
)

// hostConfigPageSize/hostRingSlots size the in-memory BlockDevices a
// dry run uses in place of real flash.
const (
	hostConfigPageSize int64 = 4096
	hostRingSlots      int64 = 64
)

// New builds a Tracker wired entirely to host-side fakes, for local
// development, CI, and the stdin/stdout debug console.
func New(log zerolog.Logger) (*Tracker, error) {
	station := sensors.Station{
		I1: sensorstub.NewBME(),
		E1: sensorstub.NewBME(),
		E2: sensorstub.NewBME(),
	}

	var configDev nvstore.BlockDevice = mem.New(hostConfigPageSize)
	var ringDev nvstore.BlockDevice = mem.New(hostRingSlots * model.RecordSize)

	console := cliConsole(stdioReadWriter{}, log)

	return newTracker(components{
		configDev:    configDev,
		ringDev:      ringDev,
		gpsDriver:    gpsstub.New(),
		powerDriver:  powerstub.New(),
		station:      station,
		cameraDriver: camstub.New(nil),
		radioDriver:  radiostub.New(),
		kicker:       wdstub.New(),
		console:      console,
	}, log)
}

// stdioReadWriter lets the debug console run over the process's own
// stdin/stdout on host builds, standing in for the UART it drives on
// real hardware.
type stdioReadWriter struct{}

func (stdioReadWriter) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioReadWriter) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
