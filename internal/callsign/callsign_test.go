package callsign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParse(t *testing.T) {
	c, err := Parse("n0call-5")
	require.NoError(t, err)
	assert.Equal(t, "N0CALL", c.Base)
	assert.Equal(t, 5, c.SSID)
	assert.Equal(t, "N0CALL-5", c.String())

	c0, err := Parse("W1ABC")
	require.NoError(t, err)
	assert.Equal(t, 0, c0.SSID)
	assert.Equal(t, "W1ABC", c0.String())
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse("TOOLONGCALL")
	assert.Error(t, err)

	_, err = Parse("N0CALL-16")
	assert.Error(t, err)

	_, err = Parse("N0-CALL!")
	assert.Error(t, err)
}

func TestBaseMatches(t *testing.T) {
	a := MustParse("K1FSY-9")
	b := MustParse("K1FSY")
	assert.True(t, a.BaseMatches(b))
	assert.False(t, a.Equal(b))
}

// Literal example from spec.md §8.4: N0CALL-5 wire form, with both
// reserved bits set per the conventional AX.25 value for them.
func TestEncodeAddressLiteral(t *testing.T) {
	c := MustParse("N0CALL-5")
	var buf [7]byte
	c.EncodeAddress(buf[:], 0x60, false, false)

	want := []byte{'N' << 1, '0' << 1, 'C' << 1, 'A' << 1, 'L' << 1, 'L' << 1, 0x60 | (5 << 1)}
	assert.Equal(t, want, buf[:])
	assert.Equal(t, byte(0), buf[6]&0x01, "low bit clear when not the last address")
}

func TestEncodeAddressLast(t *testing.T) {
	c := MustParse("N0CALL-5")
	var buf [7]byte
	c.EncodeAddress(buf[:], 0x60, false, true)
	assert.Equal(t, byte(1), buf[6]&0x01)
}

func TestAddressRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := rapid.StringMatching(`[A-Z0-9]{1,6}`).Draw(t, "base")
		ssid := rapid.IntRange(0, 15).Draw(t, "ssid")
		hBit := rapid.Bool().Draw(t, "hbit")
		last := rapid.Bool().Draw(t, "last")
		// Bits 5-6 are the two reserved bits EncodeAddress writes back
		// verbatim; bit 7 is driven by the separate hBit parameter, so
		// it's left out of ext here and folded into wantExt below.
		ext := byte(rapid.IntRange(0, 3).Draw(t, "ext")) << 5

		c := Callsign{Base: base, SSID: ssid}
		var buf [7]byte
		c.EncodeAddress(buf[:], ext, hBit, last)

		got, err := DecodeAddress(buf[:])
		require.NoError(t, err)
		assert.Equal(t, c, got.Call)
		assert.Equal(t, hBit, got.HBit)
		assert.Equal(t, last, got.Last)

		wantExt := ext
		if hBit {
			wantExt |= 0x80
		}
		assert.Equal(t, wantExt, got.ExtBits)
	})
}
