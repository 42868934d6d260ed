package ax25link

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/n7gw/tncgw/internal/ax25"
	"github.com/n7gw/tncgw/internal/callsign"
)

type fakeTx struct {
	mu    sync.Mutex
	sent  []ax25.Frame
	onTx  func(ax25.Frame)
}

func (f *fakeTx) SendFrame(fr ax25.Frame) error {
	f.mu.Lock()
	f.sent = append(f.sent, fr)
	cb := f.onTx
	f.mu.Unlock()
	if cb != nil {
		cb(fr)
	}
	return nil
}

func (f *fakeTx) last() (ax25.Frame, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ax25.Frame{}, false
	}
	return f.sent[len(f.sent)-1], true
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	require.Fail(t, "condition not met within timeout")
}

func TestSessionConnectHandshake(t *testing.T) {
	local := callsign.MustParse("N0CALL")
	peer := callsign.MustParse("N1CALL")
	tx := &fakeTx{}
	s := NewSession(local, peer, tx, DefaultConfig())
	defer s.Close()

	s.Events() <- Event{Connect: true}

	waitUntil(t, time.Second, func() bool {
		f, ok := tx.last()
		return ok && f.Kind == ax25.KindU && f.UType == ax25.USABM
	})
	require.Equal(t, StateAwaitingConnect, s.State())

	ua := ax25.Frame{Dest: local, Src: peer, Kind: ax25.KindU, UType: ax25.UUA, PollFinal: true}
	s.Events() <- Event{Frame: &ua}

	waitUntil(t, time.Second, func() bool { return s.State() == StateConnected })
}

func TestSessionRespondsToIncomingSABM(t *testing.T) {
	local := callsign.MustParse("N0CALL")
	peer := callsign.MustParse("N1CALL")
	tx := &fakeTx{}
	s := NewSession(local, peer, tx, DefaultConfig())
	defer s.Close()

	sabm := ax25.Frame{Dest: local, Src: peer, Kind: ax25.KindU, UType: ax25.USABM, PollFinal: true}
	s.Events() <- Event{Frame: &sabm}

	waitUntil(t, time.Second, func() bool { return s.State() == StateConnected })
	f, ok := tx.last()
	require.True(t, ok)
	require.Equal(t, ax25.UUA, f.UType)
}

func TestSessionInfoDeliveryAndAck(t *testing.T) {
	local := callsign.MustParse("N0CALL")
	peer := callsign.MustParse("N1CALL")
	tx := &fakeTx{}
	s := NewSession(local, peer, tx, DefaultConfig())
	defer s.Close()

	sabm := ax25.Frame{Dest: local, Src: peer, Kind: ax25.KindU, UType: ax25.USABM, PollFinal: true}
	s.Events() <- Event{Frame: &sabm}
	waitUntil(t, time.Second, func() bool { return s.State() == StateConnected })

	pid := byte(ax25.PIDNoLayer3)
	info := ax25.Frame{Dest: local, Src: peer, Kind: ax25.KindI, NS: 0, NR: 0, PID: &pid, Info: []byte("hello")}
	s.Events() <- Event{Frame: &info}

	select {
	case payload := <-s.Deliveries():
		require.Equal(t, "hello", string(payload))
	case <-time.After(time.Second):
		require.Fail(t, "no delivery received")
	}

	waitUntil(t, time.Second, func() bool {
		f, ok := tx.last()
		return ok && f.Kind == ax25.KindS && f.SType == ax25.SRR && f.NR == 1
	})
}

func TestSessionRetransmitsOnREJ(t *testing.T) {
	local := callsign.MustParse("N0CALL")
	peer := callsign.MustParse("N1CALL")
	tx := &fakeTx{}
	s := NewSession(local, peer, tx, DefaultConfig())
	defer s.Close()

	s.Events() <- Event{Connect: true}
	waitUntil(t, time.Second, func() bool {
		f, ok := tx.last()
		return ok && f.Kind == ax25.KindU && f.UType == ax25.USABM
	})
	ua := ax25.Frame{Dest: local, Src: peer, Kind: ax25.KindU, UType: ax25.UUA, PollFinal: true}
	s.Events() <- Event{Frame: &ua}
	waitUntil(t, time.Second, func() bool { return s.State() == StateConnected })

	iFrameCount := func() int {
		tx.mu.Lock()
		defer tx.mu.Unlock()
		n := 0
		for _, f := range tx.sent {
			if f.Kind == ax25.KindI {
				n++
			}
		}
		return n
	}

	s.Events() <- Event{Info: []byte("one")}
	s.Events() <- Event{Info: []byte("two")}
	s.Events() <- Event{Info: []byte("three")}
	waitUntil(t, time.Second, func() bool { return iFrameCount() == 3 })

	rej := ax25.Frame{Dest: local, Src: peer, Kind: ax25.KindS, SType: ax25.SREJ, NR: 0, PollFinal: true}
	s.Events() <- Event{Frame: &rej}
	waitUntil(t, time.Second, func() bool { return iFrameCount() == 6 })

	tx.mu.Lock()
	defer tx.mu.Unlock()
	var iFrames []ax25.Frame
	for _, f := range tx.sent {
		if f.Kind == ax25.KindI {
			iFrames = append(iFrames, f)
		}
	}
	require.Len(t, iFrames, 6)
	require.Equal(t, 0, iFrames[3].NS)
	require.Equal(t, "one", string(iFrames[3].Info))
	require.Equal(t, 1, iFrames[4].NS)
	require.Equal(t, "two", string(iFrames[4].Info))
	require.Equal(t, 2, iFrames[5].NS)
	require.Equal(t, "three", string(iFrames[5].Info))
}

func TestManagerShardsByPeer(t *testing.T) {
	local := callsign.MustParse("N0CALL")
	tx := &fakeTx{}
	m := NewManager(local, tx, DefaultConfig())
	defer m.CloseAll()

	p1 := callsign.MustParse("N1CALL")
	p2 := callsign.MustParse("N2CALL")

	s1 := m.Session(p1)
	s2 := m.Session(p2)
	require.NotSame(t, s1, s2)
	require.Same(t, s1, m.Session(p1))
}
