// Package digipeater implements the WIDEn-N digipeat policy (spec.md
// §4/this design C8), grounded directly on the prior Go port's
// digipeater.go:digipeat_match — the alias-replace, wide-hop-decrement
// and "don't repeat my own source" rules are carried over, adapted
// from direwolf's mutate-in-place ax25_pad packet_t API to ax25.Frame
// value semantics (Digipeat returns a new Frame rather than mutating
// one in place).
package digipeater

import (
	"strconv"
	"strings"

	"github.com/n7gw/tncgw/internal/ax25"
	"github.com/n7gw/tncgw/internal/callsign"
)

// Policy configures digipeating behavior (spec.md §6).
type Policy struct {
	MyCall     callsign.Callsign
	MyCallXmit callsign.Callsign // usually equal to MyCall; distinct when transmitting on a different channel's identity
	Alias      string            // e.g. "WIDE1" — matched against the base callsign, ignoring SSID
	Enabled    bool
	DirectOnly bool // only digipeat frames heard with zero prior hops
}

// Digipeat evaluates whether f should be repeated under policy, and if
// so returns the rewritten frame to transmit. ok is false when the
// frame should not be repeated at all. Dedup against recent traffic is
// the caller's responsibility (spec.md §4's dedup window is shared
// infrastructure, not specific to digipeating).
func Digipeat(policy Policy, f ax25.Frame, heardDirect bool) (ax25.Frame, bool) {
	if !policy.Enabled {
		return ax25.Frame{}, false
	}
	if policy.DirectOnly && !heardDirect {
		return ax25.Frame{}, false
	}
	if f.Src.BaseMatches(policy.MyCall) {
		return ax25.Frame{}, false // never repeat our own source
	}
	if len(f.Info) > 0 && f.Info[0] == '}' {
		return ax25.Frame{}, false // third-party traffic is never repeated
	}

	idx := firstUnusedRepeater(f)
	if idx < 0 {
		return ax25.Frame{}, false
	}
	rep := f.Repeaters[idx]

	if rep.Call.BaseMatches(policy.MyCall) {
		return setRepeated(f, idx, policy.MyCallXmit), true
	}

	if rep.Call.Base == policy.Alias {
		return setRepeated(f, idx, policy.MyCallXmit), true
	}

	if !isWideAlias(rep.Call.Base) {
		return ax25.Frame{}, false
	}
	ssid := rep.Call.SSID

	switch {
	case ssid == 1:
		return setRepeated(f, idx, policy.MyCallXmit), true
	case ssid >= 2 && ssid <= 7:
		return decrementAndInsert(f, idx, ssid, policy.MyCallXmit), true
	default:
		return ax25.Frame{}, false
	}
}

// firstUnusedRepeater returns the index of the first repeater address
// whose H-bit is not yet set, or -1 if all have been used (or there
// are none).
func firstUnusedRepeater(f ax25.Frame) int {
	for i, r := range f.Repeaters {
		if !r.HBit {
			return i
		}
	}
	return -1
}

// setRepeated returns a copy of f with repeater idx's callsign
// replaced by xmitCall and its H-bit set.
func setRepeated(f ax25.Frame, idx int, xmitCall callsign.Callsign) ax25.Frame {
	out := f
	out.Repeaters = append([]ax25.Digipeater(nil), f.Repeaters...)
	out.Repeaters[idx] = ax25.Digipeater{Call: xmitCall, HBit: true}
	return out
}

// decrementAndInsert implements the WIDEn-N ssid 2-7 case: decrement
// the hop count and insert our own call ahead of it (marked used) so
// the path records where the packet has traveled, provided there's
// still room within the 8-address AX.25 path limit.
func decrementAndInsert(f ax25.Frame, idx, ssid int, xmitCall callsign.Callsign) ax25.Frame {
	out := f
	reps := append([]ax25.Digipeater(nil), f.Repeaters...)
	reps[idx].Call.SSID = ssid - 1

	const maxRepeaters = 8
	if len(reps)+1 <= maxRepeaters {
		inserted := make([]ax25.Digipeater, 0, len(reps)+1)
		inserted = append(inserted, reps[:idx]...)
		inserted = append(inserted, ax25.Digipeater{Call: xmitCall, HBit: true})
		inserted = append(inserted, reps[idx:]...)
		reps = inserted
	}
	out.Repeaters = reps
	return out
}

// isWideAlias reports whether base matches the generic "WIDEn" pattern
// (n in 1-7), e.g. WIDE1, WIDE2 — TRACEn and other generic aliases
// follow the identical rule in direwolf but are not modeled separately
// here since spec.md §6 only exposes a single MyAlias plus this
// pattern.
func isWideAlias(base string) bool {
	upper := strings.ToUpper(base)
	if !strings.HasPrefix(upper, "WIDE") {
		return false
	}
	digits := upper[4:]
	if len(digits) != 1 {
		return false
	}
	n, err := strconv.Atoi(digits)
	return err == nil && n >= 1 && n <= 7
}
