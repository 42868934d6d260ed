package digipeater

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/n7gw/tncgw/internal/ax25"
	"github.com/n7gw/tncgw/internal/callsign"
)

func basePolicy() Policy {
	my := callsign.MustParse("N0GW")
	return Policy{MyCall: my, MyCallXmit: my, Alias: "WIDE1", Enabled: true}
}

func TestDigipeatWide1Dash1Replaced(t *testing.T) {
	src := callsign.MustParse("W1ABC")
	dst := callsign.MustParse("APRS")
	wide := callsign.MustParse("WIDE1-1")
	f := ax25.Frame{Src: src, Dest: dst, Repeaters: []ax25.Digipeater{{Call: wide}}}

	out, ok := Digipeat(basePolicy(), f, true)
	require.True(t, ok)
	require.Equal(t, "N0GW", out.Repeaters[0].Call.Base)
	require.True(t, out.Repeaters[0].HBit)
}

func TestDigipeatWideNDecrements(t *testing.T) {
	src := callsign.MustParse("W1ABC")
	dst := callsign.MustParse("APRS")
	wide := callsign.MustParse("WIDE2-2")
	f := ax25.Frame{Src: src, Dest: dst, Repeaters: []ax25.Digipeater{{Call: wide}}}

	out, ok := Digipeat(basePolicy(), f, true)
	require.True(t, ok)
	require.Len(t, out.Repeaters, 2)
	require.Equal(t, "N0GW", out.Repeaters[0].Call.Base)
	require.True(t, out.Repeaters[0].HBit)
	require.Equal(t, "WIDE2", out.Repeaters[1].Call.Base)
	require.Equal(t, 1, out.Repeaters[1].Call.SSID)
	require.False(t, out.Repeaters[1].HBit)
}

func TestDigipeatNeverRepeatsOwnSource(t *testing.T) {
	policy := basePolicy()
	f := ax25.Frame{
		Src:       policy.MyCall,
		Dest:      callsign.MustParse("APRS"),
		Repeaters: []ax25.Digipeater{{Call: callsign.MustParse("WIDE1-1")}},
	}
	_, ok := Digipeat(policy, f, true)
	require.False(t, ok)
}

func TestDigipeatAllUsedRepeatersSkipped(t *testing.T) {
	f := ax25.Frame{
		Src:  callsign.MustParse("W1ABC"),
		Dest: callsign.MustParse("APRS"),
		Repeaters: []ax25.Digipeater{
			{Call: callsign.MustParse("WIDE1-1"), HBit: true},
		},
	}
	_, ok := Digipeat(basePolicy(), f, true)
	require.False(t, ok)
}

func TestDigipeatDirectOnlyRejectsAlreadyHopped(t *testing.T) {
	policy := basePolicy()
	policy.DirectOnly = true
	f := ax25.Frame{
		Src:       callsign.MustParse("W1ABC"),
		Dest:      callsign.MustParse("APRS"),
		Repeaters: []ax25.Digipeater{{Call: callsign.MustParse("WIDE1-1")}},
	}
	_, ok := Digipeat(policy, f, false)
	require.False(t, ok)
}

func TestDigipeatDisabledPolicy(t *testing.T) {
	policy := basePolicy()
	policy.Enabled = false
	f := ax25.Frame{Src: callsign.MustParse("W1ABC"), Dest: callsign.MustParse("APRS")}
	_, ok := Digipeat(policy, f, true)
	require.False(t, ok)
}
