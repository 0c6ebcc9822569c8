// Package logring is the fixed-slot ring log over a non-volatile
// BlockDevice: the collector's DataPoint history, durable across
// resets. It is the generalisation of protocol/frame.go's
// length-prefixed, CRC-validated framing to an append-only ring of
// fixed-size records (model.Pack/Unpack) instead of one-shot frames.
package logring

import (
	"fmt"
	"sync"

	"github.com/dl7ad/pecantrack/internal/model"
	"github.com/dl7ad/pecantrack/internal/nvstore"
)

// Ring is a fixed-capacity, wrap-around log of model.DataPoint records
// over a BlockDevice.
type Ring struct {
	dev   nvstore.BlockDevice
	slots int

	mu            sync.Mutex
	writeIdx      int
	lastWrittenID uint32
	haveLast      bool
	recovered     bool // power-on recovery window: re-writes of the last ID allowed until a new ID is written
}

// Open scans dev for the highest-ID valid record and positions the
// ring to resume writing right after it. Torn or empty slots are
// skipped during the scan, per spec.md §4.2/§8 property 6.
func Open(dev nvstore.BlockDevice) (*Ring, error) {
	slots := int(dev.Size() / model.RecordSize)
	if slots == 0 {
		return nil, fmt.Errorf("logring: device too small for even one record")
	}

	r := &Ring{dev: dev, slots: slots, recovered: true}

	bestIdx := -1
	var bestID uint32
	buf := make([]byte, model.RecordSize)
	for i := 0; i < slots; i++ {
		if err := dev.ReadAt(int64(i)*model.RecordSize, buf); err != nil {
			return nil, err
		}
		dp, ok, err := model.Unpack(buf)
		if err != nil || !ok {
			continue
		}
		if bestIdx == -1 || dp.ID > bestID {
			bestIdx, bestID = i, dp.ID
		}
	}

	if bestIdx == -1 {
		r.writeIdx = 0
		return r, nil
	}
	r.writeIdx = (bestIdx + 1) % slots
	r.lastWrittenID = bestID
	r.haveLast = true
	return r, nil
}

// Append writes dp to the next slot, or — only during the power-on
// recovery window, and only if dp.ID matches the record already on
// disk — idempotently overwrites the last-written slot instead of
// advancing. Any write with a genuinely new ID clears the recovery
// latch for good.
func (r *Ring) Append(dp *model.DataPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recovered && r.haveLast && dp.ID == r.lastWrittenID {
		lastIdx := (r.writeIdx - 1 + r.slots) % r.slots
		return r.writeAt(lastIdx, dp)
	}

	r.recovered = false
	if err := r.writeAt(r.writeIdx, dp); err != nil {
		return err
	}
	r.lastWrittenID = dp.ID
	r.haveLast = true
	r.writeIdx = (r.writeIdx + 1) % r.slots
	return nil
}

func (r *Ring) writeAt(idx int, dp *model.DataPoint) error {
	buf := model.Pack(dp)
	return r.dev.WriteAt(int64(idx)*model.RecordSize, buf)
}

// GetLog reads the record at the given absolute slot index. ok is
// false for an empty or torn slot.
func (r *Ring) GetLog(index int) (model.DataPoint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= r.slots {
		return model.DataPoint{}, false
	}
	buf := make([]byte, model.RecordSize)
	if err := r.dev.ReadAt(int64(index)*model.RecordSize, buf); err != nil {
		return model.DataPoint{}, false
	}
	dp, ok, err := model.Unpack(buf)
	if err != nil || !ok {
		return model.DataPoint{}, false
	}
	return dp, true
}

// Slots reports the ring's fixed capacity.
func (r *Ring) Slots() int { return r.slots }

// Cursor returns the next slot Append will write to, for internal/apps's
// Log thread to track how far it has already drained.
func (r *Ring) Cursor() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writeIdx
}
