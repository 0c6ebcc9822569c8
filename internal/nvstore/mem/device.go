// Package mem implements nvstore.BlockDevice over a plain byte slice,
// used by host-side tests the same way driver/stub backs
// transport.RadioDriver for host-side transmitter/receiver tests.
package mem

import (
	"sync"

	"github.com/dl7ad/pecantrack/internal/nvstore"
)

// Device is an in-memory BlockDevice. Snapshot and Restore save and
// put back its backing bytes so tests can exercise torn-write
// scenarios without a real flash part.
type Device struct {
	mu   sync.Mutex
	data []byte
}

func New(size int64) *Device {
	return &Device{data: make([]byte, size)}
}

var _ nvstore.BlockDevice = (*Device)(nil)

func (d *Device) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.data))
}

func (d *Device) ReadAt(off int64, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if off < 0 || off+int64(len(buf)) > int64(len(d.data)) {
		return nvstore.ErrOutOfRange(off, len(buf), int64(len(d.data)))
	}
	copy(buf, d.data[off:off+int64(len(buf))])
	return nil
}

func (d *Device) WriteAt(off int64, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if off < 0 || off+int64(len(buf)) > int64(len(d.data)) {
		return nvstore.ErrOutOfRange(off, len(buf), int64(len(d.data)))
	}
	copy(d.data[off:off+int64(len(buf))], buf)
	return nil
}

// Snapshot returns a copy of the current contents, for simulating a
// power cut mid-write: callers take a Snapshot, perform a WriteAt, then
// Restore to the snapshot plus only the first N bytes of the new write
// to model a torn write deterministically in tests.
func (d *Device) Snapshot() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]byte, len(d.data))
	copy(out, d.data)
	return out
}

func (d *Device) Restore(snapshot []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(d.data, snapshot)
}
