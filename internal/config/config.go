// Package config is the tracker's non-volatile configuration: a YAML
// document (gopkg.in/yaml.v2, following norasector-turbine's use of
// the library for its own on-disk settings) stored with a trailing
// CRC-32 checksum over the same nvstore.BlockDevice seam
// internal/logring uses, mirroring protocol/frame.go's CRC-validated
// framing. A checksum or parse failure never blocks boot: Load falls
// back to Defaults.
package config

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/dl7ad/pecantrack/internal/nvstore"
)

// ErrConfigInvalid is returned by Load (and logged, never propagated
// past it) when the stored page fails its checksum or fails to parse.
var ErrConfigInvalid = fmt.Errorf("config: stored page invalid")

// pageSize is the fixed non-volatile region reserved for the encoded
// config: a length-prefixed YAML blob plus a trailing CRC-32.
const pageSize = 4096

// Identity names this station.
type Identity struct {
	Callsign string `yaml:"callsign"`
	SSID     uint8  `yaml:"ssid"`
	BaseCall string `yaml:"base_call"` // APRSD summaries addressed here; own call if empty
}

// PowerPolicy mirrors collector.PowerPolicy's three VBat thresholds, in
// millivolts, as stored on disk.
type PowerPolicy struct {
	GPSOffVBat   uint16 `yaml:"gps_off_vbat"`
	GPSOnVBat    uint16 `yaml:"gps_on_vbat"`
	GPSOnPerVBat uint16 `yaml:"gps_onper_vbat"`
}

// Beacon holds the position/telemetry thread's schedule.
type Beacon struct {
	CycleSeconds       uint32  `yaml:"cycle"`
	TelEncCycleSeconds uint32  `yaml:"tel_enc_cycle"`
	SleepVBatMin       uint16  `yaml:"sleep_vbat_min"` // stored only; no thread reads it, so no cycle is skipped on low VBat
	Comment            string  `yaml:"comment"`
	DigiPath           string  `yaml:"digi_path"` // e.g. "WIDE1-1"
	FrequencyStatic    uint32  `yaml:"frequency_static_hz"` // 0 => dynamic geofence resolution
}

// Image holds the SSDV thread's schedule.
type Image struct {
	CycleSeconds uint32 `yaml:"cycle"`
	Continuous   bool   `yaml:"continuous"`
	Resolution   uint8  `yaml:"resolution"` // camera.Resolution
	Quality      uint8  `yaml:"quality"`
	Retries      uint8  `yaml:"img_retries"`
}

// Log holds the log-replay thread's schedule.
type Log struct {
	CycleSeconds      uint32 `yaml:"cycle"`
	RecordsPerPacket  uint8  `yaml:"records_per_packet"`
}

// Tuning exposes the dispatcher windows as configuration, per
// decided Open Question (a).
type Tuning struct {
	APRSDWindowSeconds    uint32 `yaml:"aprsd_window_seconds"`
	MsgDedupWindowSeconds uint32 `yaml:"msg_dedup_window_seconds"`
	CollectorCycleSeconds uint32 `yaml:"collector_cycle_seconds"`
}

// Config is the full non-volatile configuration page.
type Config struct {
	Identity    Identity    `yaml:"identity"`
	PowerPolicy PowerPolicy `yaml:"power_policy"`
	Beacon      Beacon      `yaml:"beacon"`
	Image       Image       `yaml:"image"`
	Log         Log         `yaml:"log"`
	Tuning      Tuning      `yaml:"tuning"`
	Digipeat    bool        `yaml:"digipeat_enabled"`
}

// Defaults returns the compile-time fallback configuration, used both
// at first boot (empty/unformatted page) and whenever Load rejects the
// stored page.
func Defaults() Config {
	return Config{
		Identity:    Identity{Callsign: "NOCALL", SSID: 11},
		PowerPolicy: PowerPolicy{GPSOffVBat: 3400, GPSOnVBat: 3600, GPSOnPerVBat: 3500},
		Beacon:      Beacon{CycleSeconds: 120, TelEncCycleSeconds: 10800, DigiPath: "WIDE1-1"},
		Image:       Image{CycleSeconds: 300, Resolution: 1, Quality: 80, Retries: 3},
		Log:         Log{CycleSeconds: 600, RecordsPerPacket: 4},
		Tuning:      Tuning{APRSDWindowSeconds: 600, MsgDedupWindowSeconds: 30, CollectorCycleSeconds: 5},
		Digipeat:    true,
	}
}

// Beacon.Cycle, Beacon.TelEncCycle, Image.Cycle and Log.Cycle convert
// the stored second counts into time.Durations for callers.
func (b Beacon) Cycle() time.Duration       { return time.Duration(b.CycleSeconds) * time.Second }
func (b Beacon) TelEncCycle() time.Duration { return time.Duration(b.TelEncCycleSeconds) * time.Second }
func (i Image) Cycle() time.Duration        { return time.Duration(i.CycleSeconds) * time.Second }
func (l Log) Cycle() time.Duration          { return time.Duration(l.CycleSeconds) * time.Second }
func (t Tuning) APRSDWindow() time.Duration {
	return time.Duration(t.APRSDWindowSeconds) * time.Second
}
func (t Tuning) MsgDedupWindow() time.Duration {
	return time.Duration(t.MsgDedupWindowSeconds) * time.Second
}
func (t Tuning) CollectorCycle() time.Duration {
	return time.Duration(t.CollectorCycleSeconds) * time.Second
}

// Load reads the config page from dev, validates its CRC, and unmarshals
// the YAML body. Any failure yields Defaults() rather than propagating,
// since an unconfigured tracker must still boot and beacon.
func Load(dev nvstore.BlockDevice) (Config, error) {
	buf := make([]byte, pageSize)
	if err := dev.ReadAt(0, buf); err != nil {
		return Defaults(), fmt.Errorf("%w: read failed: %v", ErrConfigInvalid, err)
	}

	n := binary.LittleEndian.Uint16(buf[0:2])
	if n == 0 || int(n)+6 > pageSize {
		return Defaults(), fmt.Errorf("%w: bad length prefix", ErrConfigInvalid)
	}
	body := buf[2 : 2+n]
	wantCRC := binary.LittleEndian.Uint32(buf[2+n : 2+n+4])
	if crc32.ChecksumIEEE(body) != wantCRC {
		return Defaults(), fmt.Errorf("%w: crc mismatch", ErrConfigInvalid)
	}

	var cfg Config
	if err := yaml.Unmarshal(body, &cfg); err != nil {
		return Defaults(), fmt.Errorf("%w: yaml parse: %v", ErrConfigInvalid, err)
	}
	return cfg, nil
}

// Save marshals cfg to YAML and writes it, length-prefixed and
// CRC-32-checked, to dev.
func Save(dev nvstore.BlockDevice, cfg Config) error {
	body, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if len(body)+6 > pageSize {
		return fmt.Errorf("config: encoded config (%d bytes) exceeds page size", len(body))
	}

	buf := make([]byte, pageSize)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(body)))
	copy(buf[2:], body)
	crc := crc32.ChecksumIEEE(body)
	binary.LittleEndian.PutUint32(buf[2+len(body):2+len(body)+4], crc)

	return dev.WriteAt(0, buf)
}
