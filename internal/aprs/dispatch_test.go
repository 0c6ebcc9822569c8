package aprs

import (
	"testing"
	"time"

	"github.com/dl7ad/pecantrack/internal/ax25"
	"github.com/stretchr/testify/require"
)

func mustAddr(t *testing.T, call string, ssid uint8) ax25.Address {
	t.Helper()
	a, err := ax25.NewAddress(call, ssid)
	require.NoError(t, err)
	return a
}

// TestDigipeatWideNParadigm is scenario S4: an incoming frame with path
// WIDE1-1* (already consumed upstream), WIDE2-2 should come out with
// WIDE2-2 decremented to WIDE2-1, still unconsumed for the next digi.
func TestDigipeatWideNParadigm(t *testing.T) {
	self := mustAddr(t, "DL7AD", 5)
	d := NewDispatcher(self, DefaultTuning(), true)

	pkt := &ax25.Packet{
		Dest: mustAddr(t, "APRS", 0),
		Src:  mustAddr(t, "DL7AD", 9),
		Path: []ax25.Address{
			{Call: "WIDE1", SSID: 1, HBit: true},
			{Call: "WIDE2", SSID: 2, HBit: false},
		},
		Info: []byte("!3746.67N/12225.20W>test"),
	}

	results := d.Process(pkt, time.Now())
	require.Len(t, results, 1)
	require.Equal(t, ActionDigipeat, results[0].Action)

	out := results[0].DigipeatPacket
	require.True(t, out.Path[0].HBit, "WIDE1-1 entry must remain consumed")
	require.Equal(t, uint8(1), out.Path[1].SSID, "WIDE2-2 must decrement to WIDE2-1")
	require.False(t, out.Path[1].HBit, "WIDE2-1 must stay unconsumed for the next digipeater")
}

// TestDigipeatFinalHop exercises the N==1 consumption: WIDE1-1 with no
// hops remaining gets its H-bit set and is fully consumed.
func TestDigipeatFinalHop(t *testing.T) {
	self := mustAddr(t, "DL7AD", 5)
	d := NewDispatcher(self, DefaultTuning(), true)

	pkt := &ax25.Packet{
		Dest: mustAddr(t, "APRS", 0),
		Src:  mustAddr(t, "DL7AD", 9),
		Path: []ax25.Address{
			{Call: "WIDE1", SSID: 1, HBit: false},
		},
		Info: []byte("!3746.67N/12225.20W>test"),
	}

	results := d.Process(pkt, time.Now())
	require.Len(t, results, 1)
	require.Equal(t, ActionDigipeat, results[0].Action)
	require.True(t, results[0].DigipeatPacket.Path[0].HBit)
}

// TestMessageAckDedup is scenario S5: a repeated message number within
// MSG_DEDUP_WINDOW is acked every time but the command/reply only
// fires once.
func TestMessageAckDedup(t *testing.T) {
	self := mustAddr(t, "DL7AD", 5)
	d := NewDispatcher(self, DefaultTuning(), false)

	pkt := &ax25.Packet{
		Dest: mustAddr(t, "APRS", 0),
		Src:  mustAddr(t, "M0ABC", 1),
		Info: []byte(":DL7AD-5  :PING{001}"),
	}

	now := time.Now()
	first := d.Process(pkt, now)
	require.Len(t, first, 2)
	require.Equal(t, ActionAck, first[0].Action)
	require.Equal(t, "001", first[0].AckMsgNum)
	require.Equal(t, ActionReply, first[1].Action)
	require.Equal(t, "PONG", first[1].ReplyText)

	dup := d.Process(pkt, now.Add(5*time.Second))
	require.Len(t, dup, 1, "duplicate message number must ack but not re-dispatch the command")
	require.Equal(t, ActionAck, dup[0].Action)
}

// TestMessageDedupExpiresAfterWindow confirms the dedup set evicts
// after MSG_DEDUP_WINDOW so a genuinely repeated number after the
// window re-triggers the command.
func TestMessageDedupExpiresAfterWindow(t *testing.T) {
	self := mustAddr(t, "DL7AD", 5)
	d := NewDispatcher(self, Tuning{APRSDWindow: 10 * time.Minute, MsgDedupWindow: time.Second}, false)

	pkt := &ax25.Packet{
		Dest: mustAddr(t, "APRS", 0),
		Src:  mustAddr(t, "M0ABC", 1),
		Info: []byte(":DL7AD-5  :PING{001}"),
	}

	now := time.Now()
	d.Process(pkt, now)
	later := d.Process(pkt, now.Add(2*time.Second))
	require.Len(t, later, 2, "after the dedup window expires the command should re-fire")
}

// TestHeardDirectInsertsStation is the "heard direct" half of §4.4: a
// frame with no H-bit set anywhere in its path is recorded in the
// APRSD heard-set.
func TestHeardDirectInsertsStation(t *testing.T) {
	self := mustAddr(t, "DL7AD", 5)
	d := NewDispatcher(self, DefaultTuning(), false)

	pkt := &ax25.Packet{
		Dest: mustAddr(t, "APRS", 0),
		Src:  mustAddr(t, "M0XYZ", 3),
		Info: []byte("!3746.67N/12225.20W>test"),
	}
	now := time.Now()
	d.Process(pkt, now)

	heard := d.HeardStations(now)
	require.Len(t, heard, 1)
	require.Equal(t, "M0XYZ-3", heard[0].Call.String())
}

// TestHeardSetEvictsAfterWindow confirms APRSD_WINDOW eviction.
func TestHeardSetEvictsAfterWindow(t *testing.T) {
	self := mustAddr(t, "DL7AD", 5)
	d := NewDispatcher(self, Tuning{APRSDWindow: time.Minute, MsgDedupWindow: 30 * time.Second}, false)

	pkt := &ax25.Packet{
		Dest: mustAddr(t, "APRS", 0),
		Src:  mustAddr(t, "M0XYZ", 3),
		Info: []byte("!3746.67N/12225.20W>test"),
	}
	now := time.Now()
	d.Process(pkt, now)
	require.Len(t, d.HeardStations(now.Add(2*time.Minute)), 0)
}
