package framebuffer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAppendAndSnapshot(t *testing.T) {
	r := NewRing(1)
	r.Append(Entry{At: time.Now(), Channel: "0", Raw: []byte("hello")})
	r.Append(Entry{At: time.Now(), Channel: "0", Raw: []byte("world")})

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	require.Equal(t, "hello", string(snap[0].Raw))
}

func TestRingEvictsOldest(t *testing.T) {
	r := &Ring{budget: 100}
	for i := 0; i < 20; i++ {
		r.Append(Entry{Channel: "0", Raw: make([]byte, 20)})
	}
	require.LessOrEqual(t, r.used, 100)
	require.Less(t, r.Len(), 20)
}

func TestClear(t *testing.T) {
	r := NewRing(1)
	r.Append(Entry{Raw: []byte("x")})
	r.Clear()
	require.Equal(t, 0, r.Len())
}
