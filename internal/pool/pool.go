// Package pool implements the fixed-capacity packet pool (spec §4.5):
// pre-allocated buffers handed out by index, refcounted, returned to a
// freelist on release. Grounded on the teacher's description of a
// lock-free fast path via an index freelist with CAS (design notes §9),
// expressed here with a buffered channel acting as the freelist the way
// a Go worker pool typically does.
package pool

import (
	"fmt"
	"sync/atomic"

	"github.com/dl7ad/pecantrack/internal/ax25"
)

// ErrPoolEmpty is returned immediately when no slot is free; callers
// must not block, per spec §4.5 ("fails fast ... callers log and
// drop") and §7's ERR_PACKET_POOL_EMPTY.
var ErrPoolEmpty = fmt.Errorf("pool: no free packet buffers")

type slot struct {
	pkt      *ax25.Packet
	refcount atomic.Int32
}

// Pool is a fixed-capacity allocator of ax25.Packet buffers.
type Pool struct {
	slots []slot
	free  chan int
	debug bool
}

// New allocates a pool of capacity packets.
func New(capacity int) *Pool {
	p := &Pool{
		slots: make([]slot, capacity),
		free:  make(chan int, capacity),
		debug: true,
	}
	for i := range p.slots {
		p.slots[i].pkt = &ax25.Packet{}
		p.free <- i
	}
	return p
}

// Ref is a live handle on one pooled packet. Every additional owner
// (radio manager queue, retry tracker, digipeat re-emit) must call
// Retain before handing the Ref to another goroutine, and Release
// exactly once when done with it.
type Ref struct {
	pool *Pool
	idx  int
	pkt  *ax25.Packet
}

// Packet returns the underlying buffer.
func (r *Ref) Packet() *ax25.Packet { return r.pkt }

// Retain adds one owner to this packet's refcount.
func (r *Ref) Retain() { r.pool.slots[r.idx].refcount.Add(1) }

// Release drops one owner's reference; the slot returns to the freelist
// once the refcount reaches zero. Debug-asserts against going negative,
// i.e. a double free, per spec §4.5.
func (r *Ref) Release() {
	s := &r.pool.slots[r.idx]
	n := s.refcount.Add(-1)
	if r.pool.debug && n < 0 {
		panic(fmt.Sprintf("pool: negative refcount on slot %d (double free)", r.idx))
	}
	if n == 0 {
		r.pool.free <- r.idx
	}
}

// Acquire returns a zeroed packet wrapped in a Ref with refcount 1, or
// ErrPoolEmpty if the pool is exhausted. It never blocks.
func (p *Pool) Acquire() (*Ref, error) {
	select {
	case idx := <-p.free:
		s := &p.slots[idx]
		s.pkt.Reset()
		s.refcount.Store(1)
		return &Ref{pool: p, idx: idx, pkt: s.pkt}, nil
	default:
		return nil, ErrPoolEmpty
	}
}

// Available reports the number of free slots, for diagnostics.
func (p *Pool) Available() int { return len(p.free) }

// Capacity reports the total number of slots.
func (p *Pool) Capacity() int { return len(p.slots) }
