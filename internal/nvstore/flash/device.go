//go:build tinygo || baremetal

// Package flash implements nvstore.BlockDevice over the MCU's internal
// flash, the real counterpart to nvstore/mem used on target hardware.
package flash

import (
	"machine"
	"unsafe"

	"github.com/dl7ad/pecantrack/internal/nvstore"
)

// eraseBlockSize matches the smallest erasable unit on the target part;
// writes that straddle a page are read-modify-erase-write just like the
// teacher's driver/nrf buffers a whole Frame before keying the radio.
const eraseBlockSize = 4096

// Device wraps a fixed, statically-reserved flash region as a
// BlockDevice. base/size are set by the board-specific linker script
// and passed in at construction.
type Device struct {
	base uint32
	size int64
}

func New(base uint32, size int64) *Device {
	return &Device{base: base, size: size}
}

var _ nvstore.BlockDevice = (*Device)(nil)

func (d *Device) Size() int64 { return d.size }

func (d *Device) ReadAt(off int64, buf []byte) error {
	if off < 0 || off+int64(len(buf)) > d.size {
		return nvstore.ErrOutOfRange(off, len(buf), d.size)
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(d.base+uint32(off)))), len(buf))
	copy(buf, src)
	return nil
}

func (d *Device) WriteAt(off int64, buf []byte) error {
	if off < 0 || off+int64(len(buf)) > d.size {
		return nvstore.ErrOutOfRange(off, len(buf), d.size)
	}
	start := off &^ (eraseBlockSize - 1)
	end := (off + int64(len(buf)) + eraseBlockSize - 1) &^ (eraseBlockSize - 1)
	block := make([]byte, end-start)
	src := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(d.base+uint32(start)))), len(block))
	copy(block, src)
	copy(block[off-start:], buf)
	for blockOff := start; blockOff < end; blockOff += eraseBlockSize {
		if err := d.eraseBlock(uint32(blockOff)); err != nil {
			return err
		}
	}
	return machine.Flash.WriteAt(block, d.base+uint32(start))
}

func (d *Device) eraseBlock(addr uint32) error {
	return machine.Flash.EraseBlocks(int64(addr)/eraseBlockSize, 1)
}
