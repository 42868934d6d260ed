package ax25

import (
	"testing"

	"github.com/n7gw/tncgw/internal/callsign"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDecodeEncodeUIFrame(t *testing.T) {
	pid := byte(PIDNoLayer3)
	f := Frame{
		Dest: callsign.MustParse("APRS"),
		Src:  callsign.MustParse("N0CALL-5"),
		Repeaters: []Digipeater{
			{Call: callsign.MustParse("WIDE1-1"), HBit: true},
			{Call: callsign.MustParse("WIDE2-1"), HBit: false},
		},
		Kind: KindUI,
		PID:  &pid,
		Info: []byte("!4237.14N/07107.45W-Testing"),
	}

	wire := Encode(f)
	got, err := Decode(wire)
	require.NoError(t, err)

	assert.Equal(t, f.Dest, got.Dest)
	assert.Equal(t, f.Src, got.Src)
	assert.Equal(t, f.Kind, got.Kind)
	assert.Equal(t, f.Info, got.Info)
	require.Len(t, got.Repeaters, 2)
	assert.True(t, got.Repeaters[0].HBit)
	assert.False(t, got.Repeaters[1].HBit)
	assert.Equal(t, "WIDE1-1", got.Repeaters[0].Call.String())
}

func TestDecodeShortFrameErrors(t *testing.T) {
	_, err := Decode([]byte{0x01, 0x02, 0x03})
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
}

func TestUFrameModifiers(t *testing.T) {
	for _, tt := range []struct {
		name string
		typ  UFrameType
		hex  byte
	}{
		{"SABM", USABM, 0x2F},
		{"DISC", UDISC, 0x43},
		{"DM", UDM, 0x0F},
		{"UA", UUA, 0x63},
		{"FRMR", UFRMR, 0x87},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got := encodeUControl(uTypeToModifier[tt.typ], false)
			assert.Equal(t, tt.hex, got)
			assert.Equal(t, uTypeToModifier[tt.typ], decodeUModifier(tt.hex))
		})
	}
}

func TestIAndSFrameRoundTrip(t *testing.T) {
	pid := byte(PIDNoLayer3)
	i := Frame{
		Dest: callsign.MustParse("N0CALL-1"),
		Src:  callsign.MustParse("N0CALL-2"),
		Kind: KindI,
		NS:   3, NR: 5,
		PollFinal: true,
		PID:       &pid,
		Info:      []byte("hello"),
	}
	got, err := Decode(Encode(i))
	require.NoError(t, err)
	assert.Equal(t, i.NS, got.NS)
	assert.Equal(t, i.NR, got.NR)
	assert.Equal(t, i.PollFinal, got.PollFinal)
	assert.Equal(t, i.Info, got.Info)

	s := Frame{
		Dest: callsign.MustParse("N0CALL-1"),
		Src:  callsign.MustParse("N0CALL-2"),
		Kind: KindS, SType: SREJ, NR: 6,
	}
	gotS, err := Decode(Encode(s))
	require.NoError(t, err)
	assert.Equal(t, SREJ, gotS.SType)
	assert.Equal(t, 6, gotS.NR)
}

func TestEncodeDecodeRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		callGen := rapid.Custom(func(t *rapid.T) callsign.Callsign {
			base := rapid.StringMatching(`[A-Z0-9]{1,6}`).Draw(t, "base")
			ssid := rapid.IntRange(0, 15).Draw(t, "ssid")
			return callsign.Callsign{Base: base, SSID: ssid}
		})

		nDigis := rapid.IntRange(0, 8).Draw(t, "ndigis")
		repeaters := make([]Digipeater, nDigis)
		for i := range repeaters {
			repeaters[i] = Digipeater{Call: callGen.Draw(t, "digi"), HBit: rapid.Bool().Draw(t, "hbit")}
		}
		pid := byte(PIDNoLayer3)

		f := Frame{
			Dest:      callGen.Draw(t, "dest"),
			Src:       callGen.Draw(t, "src"),
			Repeaters: repeaters,
			Kind:      KindUI,
			PID:       &pid,
			Info:      rapid.SliceOfN(rapid.Byte(), 0, 40).Draw(t, "info"),
		}

		got, err := Decode(Encode(f))
		require.NoError(t, err)
		assert.Equal(t, f.Dest, got.Dest)
		assert.Equal(t, f.Src, got.Src)
		assert.Equal(t, len(f.Repeaters), len(got.Repeaters))
		for i := range f.Repeaters {
			assert.Equal(t, f.Repeaters[i].Call, got.Repeaters[i].Call)
			assert.Equal(t, f.Repeaters[i].HBit, got.Repeaters[i].HBit)
		}
		if len(f.Info) == 0 {
			assert.Empty(t, got.Info)
		} else {
			assert.Equal(t, f.Info, got.Info)
		}
	})
}
