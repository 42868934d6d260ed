package kissframe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Literal example from spec.md §8.3.
func TestEncodeLiteral(t *testing.T) {
	f := Frame{Port: 0, Kind: CmdDataFrame, Payload: []byte{0x00, 0xC0, 0xDB, 0x01}}
	got := Encode(f)
	want := []byte{0xC0, 0x00, 0xDB, 0xDC, 0xDB, 0xDD, 0x01, 0xC0}
	assert.Equal(t, want, got)
}

func TestDecodeBasic(t *testing.T) {
	d := NewDecoder(nil)
	frames := d.Feed([]byte{0xC0, 0x00, 0xC0, 0xC0})
	require.Len(t, frames, 1)
	assert.Equal(t, byte(0), frames[0].Port)
	assert.Equal(t, byte(CmdDataFrame), frames[0].Kind)
	assert.Empty(t, frames[0].Payload)
}

func TestDecodeMultipleFrames(t *testing.T) {
	d := NewDecoder(nil)
	wire := append(Encode(Frame{Kind: CmdDataFrame, Payload: []byte("hi")}), Encode(Frame{Kind: CmdDataFrame, Payload: []byte("bye")})...)
	frames := d.Feed(wire)
	require.Len(t, frames, 2)
	assert.Equal(t, []byte("hi"), frames[0].Payload)
	assert.Equal(t, []byte("bye"), frames[1].Payload)
}

func TestDecodeByteAtATime(t *testing.T) {
	d := NewDecoder(nil)
	wire := Encode(Frame{Port: 1, Kind: CmdDataFrame, Payload: []byte{0xC0, 0xDB, 0x42}})
	var got []Frame
	for _, b := range wire {
		got = append(got, d.Feed([]byte{b})...)
	}
	require.Len(t, got, 1)
	assert.Equal(t, byte(1), got[0].Port)
	assert.Equal(t, []byte{0xC0, 0xDB, 0x42}, got[0].Payload)
}

func TestDecodeBadEscapeDropsFrame(t *testing.T) {
	var reasons []DropReason
	d := NewDecoder(func(r DropReason) { reasons = append(reasons, r) })
	// FEND, a byte, FESC, invalid-escapee, FEND: should drop, not panic.
	frames := d.Feed([]byte{0xC0, 0x01, FESC, 0x99, 0xC0})
	assert.Empty(t, frames)
	require.Len(t, reasons, 1)
	assert.Equal(t, DropBadEscape, reasons[0])
}

func TestDecodeOversizeDrops(t *testing.T) {
	var reasons []DropReason
	d := NewDecoder(func(r DropReason) { reasons = append(reasons, r) })
	big := make([]byte, MaxFrameLen+10)
	wire := append([]byte{0xC0}, big...)
	wire = append(wire, 0xC0)
	frames := d.Feed(wire)
	assert.Empty(t, frames)
	assert.Contains(t, reasons, DropOversize)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		port := byte(rapid.IntRange(0, 15).Draw(t, "port"))
		kind := byte(rapid.IntRange(0, 6).Draw(t, "kind"))
		payload := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(t, "payload")

		f := Frame{Port: port, Kind: kind, Payload: payload}
		wire := Encode(f)

		d := NewDecoder(nil)
		got := d.Feed(wire)
		require.Len(t, got, 1)
		assert.Equal(t, f.Port, got[0].Port)
		assert.Equal(t, f.Kind, got[0].Kind)
		if len(payload) == 0 {
			assert.Empty(t, got[0].Payload)
		} else {
			assert.Equal(t, payload, got[0].Payload)
		}
	})
}
