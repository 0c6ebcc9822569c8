package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dl7ad/pecantrack/internal/ax25"
	"github.com/dl7ad/pecantrack/internal/camera"
	"github.com/dl7ad/pecantrack/internal/collector"
	"github.com/dl7ad/pecantrack/internal/config"
	"github.com/dl7ad/pecantrack/internal/aprs"
	"github.com/dl7ad/pecantrack/internal/radio"
)

// Bindings holds the concrete collaborators the spec.md §6 command
// set needs. Built at wiring time (newTracker in tracker.go) and handed to
// RegisterCommands, the same way the teacher's main.go wires concrete
// drivers into the transport package rather than the package importing
// them itself.
type Bindings struct {
	Collector *collector.Collector
	Camera    *camera.Device
	Manager   *radio.Manager
	Config    *config.Config
	Self      ax25.Address
}

// RegisterCommands installs the debug console command set spec.md §6
// names: debugOnUSB, printPicture, command2Camera, readLog,
// printConfig, send_aprs_message, test_rx.
func RegisterCommands(c *Console, b Bindings) {
	debugOnUSB := false

	c.Register("debugOnUSB", func(args []string) string {
		if len(args) > 0 {
			debugOnUSB = args[0] == "on" || args[0] == "1"
		}
		return fmt.Sprintf("debugOnUSB=%v", debugOnUSB)
	})

	c.Register("printPicture", func(args []string) string {
		res := camera.Resolution320x240
		quality := uint8(80)
		if len(args) > 0 {
			if v, err := strconv.Atoi(args[0]); err == nil {
				res = camera.Resolution(v)
			}
		}
		if len(args) > 1 {
			if v, err := strconv.Atoi(args[1]); err == nil {
				quality = uint8(v)
			}
		}
		jpeg, err := b.Camera.Capture(context.Background(), res, quality)
		if err != nil {
			return "ERR_CAMERA: " + err.Error()
		}
		return fmt.Sprintf("captured %d bytes", len(jpeg))
	})

	c.Register("command2Camera", func(args []string) string {
		if len(args) < 2 {
			return "ERR_SYNTAX: command2Camera <resolution> <quality>"
		}
		res, err1 := strconv.Atoi(args[0])
		quality, err2 := strconv.Atoi(args[1])
		if err1 != nil || err2 != nil {
			return "ERR_SYNTAX: resolution/quality must be numeric"
		}
		return fmt.Sprintf("camera configured resolution=%d quality=%d", res, quality)
	})

	c.Register("readLog", func(args []string) string {
		if len(args) < 1 {
			return "ERR_SYNTAX: readLog <index>"
		}
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			return "ERR_SYNTAX: index must be numeric"
		}
		dp, ok := b.Collector.GetLog(idx)
		if !ok {
			return "empty"
		}
		return fmt.Sprintf("id=%d sys_time=%d gps_state=%s lat=%d lon=%d alt=%d vbat=%d",
			dp.ID, dp.SysTime, dp.GPSState, dp.GPSLat, dp.GPSLon, dp.GPSAlt, dp.PACVBat)
	})

	c.Register("printConfig", func(args []string) string {
		cfg := config.Defaults()
		if b.Config != nil {
			cfg = *b.Config
		}
		return fmt.Sprintf("callsign=%s-%d cycle=%ds tel_enc_cycle=%ds image_cycle=%ds digipeat=%v",
			cfg.Identity.Callsign, cfg.Identity.SSID, cfg.Beacon.CycleSeconds, cfg.Beacon.TelEncCycleSeconds,
			cfg.Image.CycleSeconds, cfg.Digipeat)
	})

	c.Register("send_aprs_message", func(args []string) string {
		if len(args) < 2 {
			return "ERR_SYNTAX: send_aprs_message <callsign[-ssid]> <text...>"
		}
		to, err := parseCallsign(args[0])
		if err != nil {
			return "ERR_SYNTAX: " + err.Error()
		}
		text := strings.Join(args[1:], " ")
		info, err := aprs.EncodeMessage(to, text, "")
		if err != nil {
			return "ERR_PACKET_TOO_LONG"
		}
		pkt := &ax25.Packet{Dest: ax25.Address{Call: "APRS"}, Src: b.Self, Info: info}
		frame, err := pkt.Encode()
		if err != nil {
			return "ERR_ENCODE: " + err.Error()
		}
		if _, err := b.Manager.Submit(context.Background(), radio.PriorityAck, frame); err != nil {
			return "ERR_SUBMIT: " + err.Error()
		}
		return "queued"
	})

	c.Register("test_rx", func(args []string) string {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if _, err := b.Manager.StartRX(ctx); err != nil {
			return "ERR_RX: " + err.Error()
		}
		return "rx started"
	})
}

func parseCallsign(s string) (ax25.Address, error) {
	call := s
	ssid := uint8(0)
	if i := strings.LastIndexByte(s, '-'); i > 0 {
		call = s[:i]
		if v, err := strconv.Atoi(s[i+1:]); err == nil {
			ssid = uint8(v)
		}
	}
	return ax25.NewAddress(call, ssid)
}
