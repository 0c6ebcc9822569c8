// Package radio is the Radio Manager: one goroutine owning a single
// TransceiverDriver, serialising TX across a priority queue of
// RadioTasks and running the RX_IDLE -> ... -> TX_DATA -> TAIL ->
// RX_IDLE state machine spec.md §4.6 describes. It generalises the
// teacher's transport.RadioDriver seam (one interface, a tinygo ||
// baremetal implementation plus a host stub) from a bare NRF payload
// to a full AFSK/2-FSK transceiver, and replaces the teacher's
// Transmitter/Receiver pair with a single arbitrator, since spec.md §1
// explicitly rules out multi-radio arbitration but does require
// strict single-radio TX/RX serialisation.
package radio

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dl7ad/pecantrack/internal/ax25"
	"github.com/dl7ad/pecantrack/internal/bandplan"
)

// Modulation selects the transceiver's on-air waveform.
type Modulation uint8

const (
	ModulationAFSK1200 Modulation = iota
	Modulation2FSK9600
)

// Priority orders RadioTasks: ack outranks digipeat, which outranks
// beacon, which outranks image — spec.md §4.6's fixed priority order.
type Priority uint8

const (
	PriorityAck Priority = iota
	PriorityDigipeat
	PriorityBeacon
	PriorityImage
	priorityCount
)

// CCAMaxRetries bounds the clear-channel-assessment backoff loop
// before a task fails with ErrChannelBusy.
const CCAMaxRetries = 5

// DefaultTaskTimeout is the per-task deadline applied when the caller
// doesn't already carry one on its context.
const DefaultTaskTimeout = 30 * time.Second

var (
	// ErrChannelBusy is surfaced when CCA never clears within
	// CCAMaxRetries attempts.
	ErrChannelBusy = errors.New("radio: ERR_CHANNEL_BUSY")
	// ErrQueueFull is returned by Submit when a priority lane is saturated.
	ErrQueueFull = errors.New("radio: task queue full")
	// ErrManagerClosed is returned by Submit after Close.
	ErrManagerClosed = errors.New("radio: manager closed")
	// ErrRadioHardware is surfaced when the driver faults during CCA or
	// TX. Per spec §7 the Manager resets the driver and holds off
	// retrying for resetCooldown before accepting another task.
	ErrRadioHardware = errors.New("radio: ERR_RADIO_HARDWARE")
)

// resetCooldown is how long the Manager refuses tasks after a hardware
// fault forces a driver reset, giving the chip time to reinitialise.
const resetCooldown = 2 * time.Second

// TransceiverDriver is the minimal seam a concrete radio chip
// implementation must satisfy — the direct generalisation of
// transport.RadioDriver to a full half-duplex AFSK/2-FSK transceiver.
type TransceiverDriver interface {
	SetFrequency(hz bandplan.Hz) error
	SetPower(level uint8) error
	SetModulation(m Modulation) error
	MeasureRSSI() (dBm int16, err error)
	TX(ctx context.Context, framed []byte) error
	StartRX(ctx context.Context) (<-chan []byte, error)
	Reset() error
}

// TaskResult is delivered once a RadioTask finishes, successfully or not.
type TaskResult struct {
	ID  uuid.UUID
	Err error
}

// RadioTask is one queued transmission request.
type RadioTask struct {
	ID         uuid.UUID
	Priority   Priority
	Frame      []byte
	ctx        context.Context
	enqueuedAt time.Time
}

// queueDepth is the per-priority-lane buffer size.
const queueDepth = 8

// Manager owns the one TransceiverDriver and arbitrates access to it.
type Manager struct {
	drv      TransceiverDriver
	rssiBusy int16 // dBm threshold above which the channel is "busy"

	lanes [priorityCount]chan *RadioTask

	mu         sync.Mutex
	pending    map[uuid.UUID]chan TaskResult
	closed     bool
	resetUntil time.Time // zero value means no cooldown in effect

	rxCh <-chan []byte
}

// NewManager constructs a Manager. rssiBusyDBm is the CCA threshold:
// MeasureRSSI readings at or above this value are treated as channel
// activity.
func NewManager(drv TransceiverDriver, rssiBusyDBm int16) *Manager {
	m := &Manager{
		drv:      drv,
		rssiBusy: rssiBusyDBm,
		pending:  make(map[uuid.UUID]chan TaskResult),
	}
	for i := range m.lanes {
		m.lanes[i] = make(chan *RadioTask, queueDepth)
	}
	return m
}

// Submit enqueues a frame for transmission at the given priority and
// returns a channel that receives exactly one TaskResult.
func (m *Manager) Submit(ctx context.Context, p Priority, frame []byte) (<-chan TaskResult, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTaskTimeout)
		_ = cancel // task lifetime is bounded by the caller's result wait
	}
	id := uuid.New()
	reply := make(chan TaskResult, 1)
	m.pending[id] = reply
	m.mu.Unlock()

	task := &RadioTask{ID: id, Priority: p, Frame: frame, ctx: ctx, enqueuedAt: time.Now()}
	select {
	case m.lanes[p] <- task:
		return reply, nil
	default:
		m.mu.Lock()
		delete(m.pending, id)
		m.mu.Unlock()
		return nil, ErrQueueFull
	}
}

// Run is the Manager's single goroutine: it drains the priority lanes
// in strict order (ack > digipeat > beacon > image, FIFO within a
// lane) and runs one task at a time through the TX state machine. It
// returns when ctx is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	for {
		task := m.nextTask(ctx)
		if task == nil {
			return ctx.Err()
		}
		err := m.executeTask(task)
		m.deliver(task.ID, err)
	}
}

func (m *Manager) nextTask(ctx context.Context) *RadioTask {
	for {
		for p := Priority(0); p < priorityCount; p++ {
			select {
			case t := <-m.lanes[p]:
				return t
			default:
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (m *Manager) deliver(id uuid.UUID, err error) {
	m.mu.Lock()
	reply, ok := m.pending[id]
	delete(m.pending, id)
	m.mu.Unlock()
	if ok {
		reply <- TaskResult{ID: id, Err: err}
	}
}

// txState is the explicit RX_IDLE -> ... -> RX_IDLE state machine
// spec.md §4.6 names.
type txState uint8

const (
	stateRXIdle txState = iota
	statePrep
	stateCCA
	stateTXPreamble
	stateTXData
	stateTail
)

func (m *Manager) executeTask(task *RadioTask) error {
	m.mu.Lock()
	until := m.resetUntil
	m.mu.Unlock()
	if now := time.Now(); now.Before(until) {
		return ErrRadioHardware
	}

	state := stateRXIdle
	retries := 0

	for {
		select {
		case <-task.ctx.Done():
			if state == stateRXIdle {
				return task.ctx.Err() // cancellation honoured only pre-PREP
			}
		default:
		}

		switch state {
		case stateRXIdle:
			state = statePrep
		case statePrep:
			state = stateCCA
		case stateCCA:
			busy, err := m.channelBusy()
			if err != nil {
				return m.resetAfterFault(err)
			}
			if !busy {
				state = stateTXPreamble
				continue
			}
			retries++
			if retries > CCAMaxRetries {
				return ErrChannelBusy
			}
			backoff := time.Duration(50+rand.Intn(450)) * time.Millisecond
			time.Sleep(backoff)
		case stateTXPreamble:
			state = stateTXData
		case stateTXData:
			onAir := make([]byte, 0, len(task.Frame)+2)
			onAir = append(onAir, ax25.FlagByte)
			onAir = append(onAir, ax25.StuffBits(task.Frame)...)
			onAir = append(onAir, ax25.FlagByte)
			if err := m.drv.TX(task.ctx, onAir); err != nil {
				return m.resetAfterFault(err)
			}
			state = stateTail
		case stateTail:
			return nil
		}
	}
}

// resetAfterFault is called on every CCA/TX hardware error: it resets
// the driver and opens a cooldown window before the next task is
// allowed to run, per spec §4.6/§7's "hard error -> reset driver;
// subsequent tasks retry after cooldown".
func (m *Manager) resetAfterFault(cause error) error {
	resetErr := m.Reset()

	m.mu.Lock()
	m.resetUntil = time.Now().Add(resetCooldown)
	m.mu.Unlock()

	if resetErr != nil {
		return fmt.Errorf("%w: %v (driver reset also failed: %v)", ErrRadioHardware, cause, resetErr)
	}
	return fmt.Errorf("%w: %v", ErrRadioHardware, cause)
}

func (m *Manager) channelBusy() (bool, error) {
	dBm, err := m.drv.MeasureRSSI()
	if err != nil {
		return false, err
	}
	return dBm >= m.rssiBusy, nil
}

// StartRX configures the driver into receive mode and fans its output
// through the Manager so callers never touch the driver directly. The
// driver delivers raw on-air bytes exactly as captured (flags and bit
// stuffing intact, mirroring what TX_DATA hands to TX); the Manager
// strips the flags and undoes the stuffing here so callers can feed the
// result straight to ax25.Decode, the same framing Decode expects of
// Encode's output.
func (m *Manager) StartRX(ctx context.Context) (<-chan []byte, error) {
	raw, err := m.drv.StartRX(ctx)
	if err != nil {
		return nil, err
	}
	out := make(chan []byte, queueDepth)
	m.rxCh = out
	go m.deframeRX(ctx, raw, out)
	return out, nil
}

// deframeRX undoes exactly what executeTask's TX_DATA state applies:
// strip the leading/trailing flag bytes, then UnstuffBits.
func (m *Manager) deframeRX(ctx context.Context, raw <-chan []byte, out chan<- []byte) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-raw:
			if !ok {
				return
			}
			body := stripFlags(chunk)
			if len(body) == 0 {
				continue
			}
			select {
			case out <- ax25.UnstuffBits(body):
			case <-ctx.Done():
				return
			}
		}
	}
}

// stripFlags trims leading/trailing HDLC flag bytes from a captured
// on-air chunk.
func stripFlags(b []byte) []byte {
	start := 0
	for start < len(b) && b[start] == ax25.FlagByte {
		start++
	}
	end := len(b)
	for end > start && b[end-1] == ax25.FlagByte {
		end--
	}
	return b[start:end]
}

// SetFrequency, SetPower and SetModulation pass through to the
// underlying driver; they are not task-queued since they reconfigure
// the chip rather than move a frame.
func (m *Manager) SetFrequency(hz bandplan.Hz) error  { return m.drv.SetFrequency(hz) }
func (m *Manager) SetPower(level uint8) error         { return m.drv.SetPower(level) }
func (m *Manager) SetModulation(mod Modulation) error { return m.drv.SetModulation(mod) }
func (m *Manager) Reset() error                       { return m.drv.Reset() }

// Close stops accepting new tasks. Tasks already queued still run.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}
