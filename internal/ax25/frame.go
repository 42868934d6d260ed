// Package ax25 implements the AX.25 link-layer codec (spec.md §4.3,
// C3): parsing and constructing UI, I, S and U frames. Grounded on the
// teacher's ax25_pad.go/ax25_pad2.go address-field and control-byte
// handling, rewritten without the cgo/C-struct layer.
package ax25

import (
	"github.com/n7gw/tncgw/internal/callsign"
)

// Kind classifies the control byte (spec.md §3 "AX.25 frame").
type Kind int

const (
	KindUI Kind = iota // unnumbered information — APRS
	KindI              // numbered information — connected mode
	KindS              // supervisory: RR, RNR, REJ
	KindU              // unnumbered: SABM, DISC, DM, UA, FRMR
)

// SFrameType and UFrameType distinguish subtypes within S and U frames.
type SFrameType int

const (
	SRR SFrameType = iota
	SRNR
	SREJ
)

type UFrameType int

const (
	USABM UFrameType = iota
	UDISC
	UDM
	UUA
	UFRMR
)

// PIDNoLayer3 is the PID value APRS uses: "no layer 3 protocol".
const PIDNoLayer3 = 0xF0

// Digipeater is one address-field entry beyond dest/source, carrying
// its H-bit ("has-been-repeated", spec.md §3).
type Digipeater struct {
	Call callsign.Callsign
	HBit bool
}

// Frame is a fully parsed AX.25 frame (spec.md §3).
type Frame struct {
	Dest        callsign.Callsign
	Src         callsign.Callsign
	Repeaters   []Digipeater
	Kind        Kind
	SType       SFrameType // valid when Kind == KindS
	UType       UFrameType // valid when Kind == KindU
	PollFinal   bool
	NS, NR      int   // sequence numbers, modulo 8; valid per Kind
	PID         *byte // nil when the frame carries no PID
	Info        []byte
	DestExtBits byte // preserved C/R + reserved bits, destination address
	SrcExtBits  byte // preserved C/R + reserved bits, source address
}

// IsUI reports whether f is an unnumbered-information frame (the only
// kind APRS uses).
func (f Frame) IsUI() bool { return f.Kind == KindUI }

// RepeatedCount returns the number of digipeater entries with H-bit
// set (spec.md §4.6 "hop accounting").
func (f Frame) RepeatedCount() int {
	n := 0
	for _, d := range f.Repeaters {
		if d.HBit {
			n++
		}
	}
	return n
}

// Path renders the digipeater path in classic "CALL,CALL*" textual
// form, with a trailing '*' on repeated entries.
func (f Frame) Path() []string {
	out := make([]string, len(f.Repeaters))
	for i, d := range f.Repeaters {
		s := d.Call.String()
		if d.HBit {
			s += "*"
		}
		out[i] = s
	}
	return out
}
