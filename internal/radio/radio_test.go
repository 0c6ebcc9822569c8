package radio_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dl7ad/pecantrack/internal/ax25"
	"github.com/dl7ad/pecantrack/internal/radio"
	"github.com/dl7ad/pecantrack/internal/radio/stub"
)

// unwrapOnAir strips the HDLC flag bytes and undoes bit-stuffing, the
// inverse of what Manager's TX_DATA state applies.
func unwrapOnAir(t *testing.T, framed []byte) []byte {
	t.Helper()
	require.True(t, len(framed) >= 2)
	require.Equal(t, byte(ax25.FlagByte), framed[0])
	require.Equal(t, byte(ax25.FlagByte), framed[len(framed)-1])
	return ax25.UnstuffBits(framed[1 : len(framed)-1])
}

// TestSerialisesTasksByPriority is spec.md §8 property 2: with several
// tasks queued at once, ack-priority frames are transmitted before
// lower-priority ones regardless of submission order.
func TestSerialisesTasksByPriority(t *testing.T) {
	drv := stub.New()
	mgr := radio.NewManager(drv, -90)

	imgResult, err := mgr.Submit(context.Background(), radio.PriorityImage, []byte("image"))
	require.NoError(t, err)
	beaconResult, err := mgr.Submit(context.Background(), radio.PriorityBeacon, []byte("beacon"))
	require.NoError(t, err)
	ackResult, err := mgr.Submit(context.Background(), radio.PriorityAck, []byte("ack"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mgr.Run(ctx)

	require.NoError(t, (<-ackResult).Err)
	require.NoError(t, (<-beaconResult).Err)
	require.NoError(t, (<-imgResult).Err)

	log := drv.TxLog()
	require.Len(t, log, 3)
	require.Equal(t, "ack", string(unwrapOnAir(t, log[0])[:3]))
	require.Equal(t, "beacon", string(unwrapOnAir(t, log[1])[:6]))
	require.Equal(t, "image", string(unwrapOnAir(t, log[2])[:5]))
}

// TestChannelBusyExhaustsRetries is scenario S3: a permanently busy
// channel fails the task with ErrChannelBusy after CCAMaxRetries.
func TestChannelBusyExhaustsRetries(t *testing.T) {
	drv := stub.New()
	drv.SetRSSI(-40) // well above the -90 dBm busy threshold
	mgr := radio.NewManager(drv, -90)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mgr.Run(ctx)

	result, err := mgr.Submit(context.Background(), radio.PriorityBeacon, []byte("beacon"))
	require.NoError(t, err)

	select {
	case r := <-result:
		require.ErrorIs(t, r.Err, radio.ErrChannelBusy)
	case <-time.After(5 * time.Second):
		t.Fatal("task never completed")
	}
	require.Empty(t, drv.TxLog())
}

// TestClearChannelTransmits is the complementary §8 property 3 case: a
// quiet channel clears CCA on the first attempt.
func TestClearChannelTransmits(t *testing.T) {
	drv := stub.New() // default -120 dBm, quiet
	mgr := radio.NewManager(drv, -90)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mgr.Run(ctx)

	result, err := mgr.Submit(context.Background(), radio.PriorityBeacon, []byte("beacon"))
	require.NoError(t, err)

	r := <-result
	require.NoError(t, r.Err)
	log := drv.TxLog()
	require.Len(t, log, 1)
	require.Equal(t, "beacon", string(unwrapOnAir(t, log[0])[:6]))
}

// TestSubmitRejectsWhenQueueFull confirms ErrQueueFull once a lane saturates.
func TestSubmitRejectsWhenQueueFull(t *testing.T) {
	drv := stub.New()
	drv.SetRSSI(-40) // keep CCA from ever clearing so the lane backs up
	mgr := radio.NewManager(drv, -90)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mgr.Run(ctx)

	var lastErr error
	for i := 0; i < 32; i++ {
		_, err := mgr.Submit(context.Background(), radio.PriorityImage, []byte("x"))
		if err != nil {
			lastErr = err
			break
		}
	}
	require.ErrorIs(t, lastErr, radio.ErrQueueFull)
}
