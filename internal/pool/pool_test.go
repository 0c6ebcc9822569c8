package pool_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dl7ad/pecantrack/internal/pool"
)

func TestAcquireExhaustionReturnsErrPoolEmpty(t *testing.T) {
	p := pool.New(2)

	ref1, err := p.Acquire()
	require.NoError(t, err)
	ref2, err := p.Acquire()
	require.NoError(t, err)

	_, err = p.Acquire()
	require.ErrorIs(t, err, pool.ErrPoolEmpty)
	require.Equal(t, 0, p.Available())

	ref1.Release()
	require.Equal(t, 1, p.Available())
	ref2.Release()
	require.Equal(t, 2, p.Available())
}

func TestReleaseReturnsSlotOnlyAfterRefcountZero(t *testing.T) {
	p := pool.New(1)

	ref, err := p.Acquire()
	require.NoError(t, err)
	ref.Retain() // a second owner takes the packet

	ref.Release()
	require.Equal(t, 0, p.Available(), "one owner remains")

	ref.Release()
	require.Equal(t, 1, p.Available(), "last owner released, slot returned")
}

func TestAcquireReturnsAZeroedPacket(t *testing.T) {
	p := pool.New(1)

	ref, err := p.Acquire()
	require.NoError(t, err)
	ref.Packet().Info = []byte("stale data")
	ref.Release()

	ref2, err := p.Acquire()
	require.NoError(t, err)
	require.Empty(t, ref2.Packet().Info)
}

func TestDoubleReleasePanics(t *testing.T) {
	p := pool.New(1)
	ref, err := p.Acquire()
	require.NoError(t, err)

	ref.Release()
	require.Panics(t, func() { ref.Release() })
}
