// Package nvstore defines the non-volatile storage seam shared by the
// log ring and the configuration page. It follows the same
// interface-plus-driver-tag split the radio transport package uses for
// RadioDriver: one interface, a real flash-backed implementation built
// for "tinygo || baremetal", and an in-memory fake for host tests.
package nvstore

import "fmt"

// BlockDevice is a flat byte-addressable non-volatile region. Writes
// need not be atomic across a power loss; callers detect torn writes
// with their own trailing checksums (model.Pack/Unpack, config CRC).
type BlockDevice interface {
	Size() int64
	ReadAt(off int64, buf []byte) error
	WriteAt(off int64, buf []byte) error
}

// ErrOutOfRange is returned when an access falls outside the device.
func ErrOutOfRange(off int64, n int, size int64) error {
	return fmt.Errorf("nvstore: access [%d,%d) out of range for device of size %d", off, off+int64(n), size)
}
