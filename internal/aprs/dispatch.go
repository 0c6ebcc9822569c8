package aprs

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dl7ad/pecantrack/internal/ax25"
)

// Tuning holds the two windows spec §9 open question (a) leaves to
// configuration, with the decided defaults.
type Tuning struct {
	APRSDWindow    time.Duration
	MsgDedupWindow time.Duration
}

// DefaultTuning returns the decided defaults: 10 minute APRSD window,
// 30 second message-dedup window.
func DefaultTuning() Tuning {
	return Tuning{APRSDWindow: 10 * time.Minute, MsgDedupWindow: 30 * time.Second}
}

// Action identifies what a Dispatcher decided to do with one incoming
// frame.
type Action uint8

const (
	ActionNone Action = iota
	ActionAck
	ActionReply
	ActionDigipeat
)

// DispatchResult is one outcome of processing an incoming frame. A
// single frame may produce more than one result (e.g. an ACK plus a
// command reply).
type DispatchResult struct {
	Action Action

	AckTo     ax25.Address
	AckMsgNum string

	ReplyTo   ax25.Address
	ReplyText string

	DigipeatPacket *ax25.Packet
}

// Dispatcher owns the APRSD heard-set and the message-dedup set. Both
// maps and the command table are guarded by mu: Process runs on the
// Receiver's goroutine, while HeardStations and RegisterCommand may be
// called from other threads (the Beacon reads the heard-set for its
// APRSD summary).
type Dispatcher struct {
	self     ax25.Address
	tuning   Tuning
	commands map[string]func(args string) string

	mu        sync.Mutex
	heard     map[string]time.Time
	msgSeen   map[string]time.Time
	digipeat  bool
}

// NewDispatcher builds a Dispatcher for the given station callsign.
func NewDispatcher(self ax25.Address, tuning Tuning, digipeatEnabled bool) *Dispatcher {
	d := &Dispatcher{
		self:     self,
		tuning:   tuning,
		commands: make(map[string]func(args string) string),
		heard:    make(map[string]time.Time),
		msgSeen:  make(map[string]time.Time),
		digipeat: digipeatEnabled,
	}
	d.commands["APRST"] = func(string) string { return "path trace ok" }
	d.commands["PING"] = func(string) string { return "PONG" }
	d.commands["SAT"] = func(string) string { return "no satellite data" }
	d.commands["REBOOT"] = func(string) string { return "reboot scheduled" }
	return d
}

// RegisterCommand installs or overrides a command handler, e.g. so the
// CLI/beacon thread can wire REBOOT to an actual watchdog trip.
func (d *Dispatcher) RegisterCommand(name string, fn func(args string) string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands[name] = fn
}

// HeardStations returns a snapshot of the current APRSD heard-set,
// evicting entries older than the configured window first.
func (d *Dispatcher) HeardStations(now time.Time) []HeardStation {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.evictHeardLocked(now)

	out := make([]HeardStation, 0, len(d.heard))
	for call, t := range d.heard {
		addr, _ := parseAddrString(call)
		out = append(out, HeardStation{Call: addr, HeardAt: t})
	}
	return out
}

func (d *Dispatcher) evictHeardLocked(now time.Time) {
	for call, t := range d.heard {
		if now.Sub(t) > d.tuning.APRSDWindow {
			delete(d.heard, call)
		}
	}
}

func (d *Dispatcher) evictDedupLocked(now time.Time) {
	for key, t := range d.msgSeen {
		if now.Sub(t) > d.tuning.MsgDedupWindow {
			delete(d.msgSeen, key)
		}
	}
}

// Process implements the dispatcher policy of spec §4.4: message
// ack/command evaluation, heard-direct bookkeeping, and digipeating.
func (d *Dispatcher) Process(pkt *ax25.Packet, now time.Time) []DispatchResult {
	var results []DispatchResult

	heardDirect := true
	for _, p := range pkt.Path {
		if p.HBit {
			heardDirect = false
			break
		}
	}
	if heardDirect {
		d.mu.Lock()
		d.evictHeardLocked(now)
		d.heard[pkt.Src.String()] = now
		d.mu.Unlock()
	}

	ev, err := Decode(pkt.Info)
	if err == nil && ev.Kind == EventMessage {
		msg := ev.Message
		if strings.TrimSpace(msg.Addressee) == d.self.String() && !msg.IsAck && !msg.IsRej {
			if msg.MsgNum != "" {
				key := pkt.Src.String() + "#" + msg.MsgNum
				d.mu.Lock()
				d.evictDedupLocked(now)
				_, dup := d.msgSeen[key]
				d.msgSeen[key] = now
				d.mu.Unlock()

				results = append(results, DispatchResult{
					Action:    ActionAck,
					AckTo:     pkt.Src,
					AckMsgNum: msg.MsgNum,
				})
				if dup {
					return results
				}
			}

			if reply, ok := d.evaluateCommand(msg.Text); ok {
				results = append(results, DispatchResult{
					Action:    ActionReply,
					ReplyTo:   pkt.Src,
					ReplyText: reply,
				})
			}
		}
	}

	if d.digipeat {
		if dr, ok := d.tryDigipeat(pkt); ok {
			results = append(results, dr)
		}
	}

	return results
}

func (d *Dispatcher) evaluateCommand(text string) (string, bool) {
	fields := strings.Fields(strings.ToUpper(text))
	if len(fields) == 0 {
		return "", false
	}
	cmd := fields[0]
	if cmd == "APRSD" {
		return d.aprsdReply(), true
	}
	d.mu.Lock()
	fn, ok := d.commands[cmd]
	d.mu.Unlock()
	if !ok {
		return "", false
	}
	return fn(strings.Join(fields[1:], " ")), true
}

func (d *Dispatcher) aprsdReply() string {
	heard := d.HeardStations(time.Now())
	var calls []string
	for _, h := range heard {
		calls = append(calls, h.Call.String())
	}
	return "Directs=" + strings.Join(calls, ",")
}

// tryDigipeat implements the generic WIDEn-N alias semantics of spec
// §4.4/S4: the next unused path entry, if it names us directly or
// matches a generic WIDEn-N alias with hops remaining, is consumed.
// An alias with N>1 is decremented and left unconsumed (so a later
// digipeater can still act on it); N==1 (or a direct hit on our own
// callsign) is consumed with the H-bit set.
func (d *Dispatcher) tryDigipeat(pkt *ax25.Packet) (DispatchResult, bool) {
	for i := range pkt.Path {
		entry := &pkt.Path[i]
		if entry.HBit {
			continue
		}

		n, isWide := parseWideAlias(entry.Call)
		switch {
		case entry.Call == d.self.Call && entry.SSID == d.self.SSID:
			entry.HBit = true
		case isWide && entry.SSID > 1 && entry.SSID <= n:
			entry.SSID--
		case isWide && entry.SSID == 1:
			entry.HBit = true
		default:
			return DispatchResult{}, false
		}

		out := *pkt
		return DispatchResult{Action: ActionDigipeat, DigipeatPacket: &out}, true
	}
	return DispatchResult{}, false
}

// parseWideAlias recognises the generic "WIDEn" alias family (WIDE1,
// WIDE2, ... WIDE7) independent of the trailing SSID hop count.
func parseWideAlias(call string) (n uint8, ok bool) {
	if !strings.HasPrefix(call, "WIDE") || len(call) != 5 {
		return 0, false
	}
	v, err := strconv.Atoi(call[4:])
	if err != nil || v < 1 || v > 7 {
		return 0, false
	}
	return uint8(v), true
}

func parseAddrString(s string) (ax25.Address, error) {
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
