package ax25

import (
	"fmt"

	"github.com/n7gw/tncgw/internal/callsign"
	"github.com/n7gw/tncgw/internal/gwerr"
)

// DecodeError carries the error kind and byte offset, per spec.md
// §4.3 "decode(bytes) → Frame | DecodeError(kind, offset)".
type DecodeError struct {
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("ax25: decode error at offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// uModifier is the 5-bit (M5 M4 M3 M2 M1) modifier field identifying a
// U-frame subtype, independent of the P/F bit (bit 4) it's spliced
// around on the wire.
type uModifier byte

const (
	modUI   uModifier = 0
	modSABM uModifier = 7
	modDISC uModifier = 8
	modDM   uModifier = 3
	modUA   uModifier = 12
	modFRMR uModifier = 17
)

var uTypeToModifier = map[UFrameType]uModifier{
	USABM: modSABM,
	UDISC: modDISC,
	UDM:   modDM,
	UUA:   modUA,
	UFRMR: modFRMR,
}

var modifierToUType = func() map[uModifier]UFrameType {
	m := make(map[uModifier]UFrameType, len(uTypeToModifier))
	for t, mod := range uTypeToModifier {
		m[mod] = t
	}
	return m
}()

func encodeUControl(mod uModifier, pf bool) byte {
	b := byte(0x03)
	b |= (byte(mod) & 0x03) << 2
	b |= (byte(mod) >> 2 & 0x07) << 5
	if pf {
		b |= 0x10
	}
	return b
}

func decodeUModifier(control byte) uModifier {
	m1 := (control >> 2) & 0x03
	m345 := (control >> 5) & 0x07
	return uModifier(m345<<2 | m1)
}

func encodeSControl(t SFrameType, nr int, pf bool) byte {
	b := byte(0x01)
	b |= byte(t&0x03) << 2
	if pf {
		b |= 0x10
	}
	b |= byte(nr&0x07) << 5
	return b
}

func encodeIControl(ns, nr int, pf bool) byte {
	b := byte(ns&0x07) << 1
	if pf {
		b |= 0x10
	}
	b |= byte(nr&0x07) << 5
	return b
}

// Decode parses one complete AX.25 frame (spec.md §4.3).
func Decode(buf []byte) (Frame, error) {
	if len(buf) < 15 { // 2 addresses (14) + control (1), minimum
		return Frame{}, &DecodeError{Offset: 0, Err: fmt.Errorf("%w: frame too short (%d bytes)", gwerr.ErrShortRead, len(buf))}
	}

	var f Frame
	off := 0

	destAddr, err := callsign.DecodeAddress(buf[off : off+7])
	if err != nil {
		return Frame{}, &DecodeError{Offset: off, Err: fmt.Errorf("%w: %v", gwerr.ErrShortRead, err)}
	}
	f.Dest = destAddr.Call
	f.DestExtBits = destAddr.ExtBits
	off += 7
	if destAddr.Last {
		return Frame{}, &DecodeError{Offset: off, Err: fmt.Errorf("%w: destination marked as last address", gwerr.ErrShortRead)}
	}

	if len(buf) < off+7 {
		return Frame{}, &DecodeError{Offset: off, Err: gwerr.ErrShortRead}
	}
	srcAddr, err := callsign.DecodeAddress(buf[off : off+7])
	if err != nil {
		return Frame{}, &DecodeError{Offset: off, Err: fmt.Errorf("%w: %v", gwerr.ErrShortRead, err)}
	}
	f.Src = srcAddr.Call
	f.SrcExtBits = srcAddr.ExtBits
	off += 7

	last := srcAddr.Last
	for !last {
		if len(buf) < off+7 {
			return Frame{}, &DecodeError{Offset: off, Err: gwerr.ErrShortRead}
		}
		if len(f.Repeaters) >= 8 {
			return Frame{}, &DecodeError{Offset: off, Err: fmt.Errorf("%w: more than 8 digipeater addresses", gwerr.ErrShortRead)}
		}
		a, err := callsign.DecodeAddress(buf[off : off+7])
		if err != nil {
			return Frame{}, &DecodeError{Offset: off, Err: fmt.Errorf("%w: %v", gwerr.ErrShortRead, err)}
		}
		f.Repeaters = append(f.Repeaters, Digipeater{Call: a.Call, HBit: a.HBit})
		off += 7
		last = a.Last
	}

	if len(buf) < off+1 {
		return Frame{}, &DecodeError{Offset: off, Err: gwerr.ErrShortRead}
	}
	control := buf[off]
	off++

	switch {
	case control&0x01 == 0: // I-frame
		f.Kind = KindI
		f.NS = int(control>>1) & 0x07
		f.NR = int(control>>5) & 0x07
		f.PollFinal = control&0x10 != 0
		if len(buf) < off+1 {
			return Frame{}, &DecodeError{Offset: off, Err: gwerr.ErrShortRead}
		}
		pid := buf[off]
		f.PID = &pid
		off++

	case control&0x03 == 0x01: // S-frame
		f.Kind = KindS
		f.SType = SFrameType((control >> 2) & 0x03)
		f.NR = int(control>>5) & 0x07
		f.PollFinal = control&0x10 != 0

	default: // U-frame (bits 0-1 == 11): UI or SABM/DISC/DM/UA/FRMR
		mod := decodeUModifier(control)
		f.PollFinal = control&0x10 != 0
		if mod == modUI {
			f.Kind = KindUI
			if len(buf) < off+1 {
				return Frame{}, &DecodeError{Offset: off, Err: gwerr.ErrShortRead}
			}
			pid := buf[off]
			f.PID = &pid
			off++
		} else {
			f.Kind = KindU
			t, ok := modifierToUType[mod]
			if !ok {
				return Frame{}, &DecodeError{Offset: off - 1, Err: fmt.Errorf("%w: unrecognized U-frame modifier 0x%02x", gwerr.ErrShortRead, mod)}
			}
			f.UType = t
		}
	}

	f.Info = append([]byte(nil), buf[off:]...)
	return f, nil
}

// Encode serializes f back to wire bytes. encode(decode(F)) == F for
// any F accepted by Decode (spec.md §8 "Universal invariants").
func Encode(f Frame) []byte {
	out := make([]byte, 0, 16+7*len(f.Repeaters)+len(f.Info)+1)

	var destBuf [7]byte
	f.Dest.EncodeAddress(destBuf[:], f.DestExtBits, false, false)
	out = append(out, destBuf[:]...)

	var srcBuf [7]byte
	srcLast := len(f.Repeaters) == 0
	f.Src.EncodeAddress(srcBuf[:], f.SrcExtBits, false, srcLast)
	out = append(out, srcBuf[:]...)

	for i, d := range f.Repeaters {
		var rb [7]byte
		isLast := i == len(f.Repeaters)-1
		d.Call.EncodeAddress(rb[:], 0, d.HBit, isLast)
		out = append(out, rb[:]...)
	}

	switch f.Kind {
	case KindI:
		out = append(out, encodeIControl(f.NS, f.NR, f.PollFinal))
		if f.PID != nil {
			out = append(out, *f.PID)
		} else {
			out = append(out, PIDNoLayer3)
		}
	case KindS:
		out = append(out, encodeSControl(f.SType, f.NR, f.PollFinal))
	case KindUI:
		out = append(out, encodeUControl(modUI, f.PollFinal))
		if f.PID != nil {
			out = append(out, *f.PID)
		} else {
			out = append(out, PIDNoLayer3)
		}
	case KindU:
		out = append(out, encodeUControl(uTypeToModifier[f.UType], f.PollFinal))
	}

	out = append(out, f.Info...)
	return out
}
