package txsched

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeTNC struct {
	writes chan []byte
}

func newFakeTNC() *fakeTNC { return &fakeTNC{writes: make(chan []byte, 16)} }

func (f *fakeTNC) Read(p []byte) (int, error)  { select {} }
func (f *fakeTNC) Write(p []byte) (int, error) { f.writes <- append([]byte(nil), p...); return len(p), nil }
func (f *fakeTNC) Close() error                { return nil }

func TestSubmitWritesFrame(t *testing.T) {
	tnc := newFakeTNC()
	s := New(tnc)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	err := s.Submit(ctx, PriorityUser, []byte("hello"))
	require.NoError(t, err)

	select {
	case got := <-tnc.writes:
		require.Equal(t, []byte("hello"), got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for write")
	}
}

func TestHigherPriorityDrainsFirstWhenBacklogged(t *testing.T) {
	tnc := newFakeTNC()
	s := New(tnc)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Queue directly (bypassing Submit's blocking wait) so both are
	// backlogged before the scheduler starts draining.
	doneBeacon := make(chan error, 1)
	doneAck := make(chan error, 1)
	s.queues[PriorityBeacon] <- job{frame: []byte("beacon"), done: doneBeacon}
	s.queues[PriorityAck] <- job{frame: []byte("ack"), done: doneAck}

	go s.Run(ctx)

	select {
	case got := <-tnc.writes:
		require.Equal(t, []byte("ack"), got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ack write")
	}
	select {
	case got := <-tnc.writes:
		require.Equal(t, []byte("beacon"), got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for beacon write")
	}
}
