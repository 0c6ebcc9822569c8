//go:build !tinygo && !baremetal

// Package stub is a host-side watchdog.Kicker fake that just counts
// how many times it was petted.
package stub

import "sync/atomic"

// Kicker counts Update calls instead of touching real hardware.
type Kicker struct {
	count atomic.Int64
}

func New() *Kicker { return &Kicker{} }

func (k *Kicker) Update() { k.count.Add(1) }

func (k *Kicker) Count() int64 { return k.count.Load() }
