// Package callsign implements the AX.25 callsign-with-SSID data type:
// parsing from its lexical form (BASE or BASE-SSID), and the 7-byte
// wire-shift encoding used in every AX.25 address field.
package callsign

import (
	"fmt"
	"strconv"
	"strings"
)

// Callsign is a base amateur-radio callsign plus a 0-15 SSID.
type Callsign struct {
	Base string // 1-6 uppercase alphanumerics
	SSID int    // 0-15
}

// Parse accepts "BASE" or "BASE-SSID" and validates both halves.
func Parse(s string) (Callsign, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	base, ssidStr, hasSSID := strings.Cut(s, "-")

	if len(base) < 1 || len(base) > 6 {
		return Callsign{}, fmt.Errorf("callsign: base %q must be 1-6 characters", base)
	}
	for _, r := range base {
		if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return Callsign{}, fmt.Errorf("callsign: base %q has invalid character %q", base, r)
		}
	}

	ssid := 0
	if hasSSID {
		n, err := strconv.Atoi(ssidStr)
		if err != nil || n < 0 || n > 15 {
			return Callsign{}, fmt.Errorf("callsign: SSID %q must be 0-15", ssidStr)
		}
		ssid = n
	}

	return Callsign{Base: base, SSID: ssid}, nil
}

// MustParse panics on invalid input; only for tests and constants.
func MustParse(s string) Callsign {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String renders the lexical form, omitting "-0".
func (c Callsign) String() string {
	if c.SSID == 0 {
		return c.Base
	}
	return fmt.Sprintf("%s-%d", c.Base, c.SSID)
}

// BaseMatches compares base callsigns only, ignoring SSID — used for
// the SSID-agnostic addressee match in the message manager (spec.md
// §4.7 incoming contract).
func (c Callsign) BaseMatches(other Callsign) bool {
	return c.Base == other.Base
}

// Equal compares base and SSID.
func (c Callsign) Equal(other Callsign) bool {
	return c.Base == other.Base && c.SSID == other.SSID
}

// IsZero reports whether c is the zero value (no callsign parsed).
func (c Callsign) IsZero() bool {
	return c.Base == ""
}

const wireLen = 7

// EncodeAddress writes the 7-byte shifted-ASCII AX.25 address field for
// c into dst (which must be wireLen bytes). extBits carries the C-bit
// and both reserved bits (the top 3 bits of the SSID byte, mask
// 0xe0) verbatim — round-tripped from whatever DecodeAddress read, so
// encode(decode(f)) reproduces f byte-exact rather than forcing the
// second reserved bit to a fixed value; hBit is the "has-been-repeated"
// flag (digipeater addresses only); last marks the final address in
// the address field (the end-of-address bit is *set* to 1, see
// DecodeAddress).
func (c Callsign) EncodeAddress(dst []byte, extBits byte, hBit bool, last bool) {
	if len(dst) != wireLen {
		panic("callsign: EncodeAddress needs a 7-byte buffer")
	}
	padded := c.Base
	for len(padded) < 6 {
		padded += " "
	}
	for i := 0; i < 6; i++ {
		dst[i] = padded[i] << 1
	}

	b := byte(c.SSID&0x0f) << 1
	b |= extBits & 0xe0 // C-bit + both reserved bits occupy the top 3 bits
	if hBit {
		b |= 0x80
	}
	if last {
		b |= 0x01
	}
	dst[6] = b
}

// DecodedAddress is one parsed 7-byte AX.25 address field.
type DecodedAddress struct {
	Call    Callsign
	ExtBits byte // bits 5-7 of the SSID byte: C-bit and both reserved bits
	HBit    bool // bit 7 set: "has been repeated" (digipeater addresses)
	Last    bool // end-of-address marker (bit 0 set)
}

// DecodeAddress parses one 7-byte shifted-ASCII AX.25 address field.
func DecodeAddress(src []byte) (DecodedAddress, error) {
	if len(src) != wireLen {
		return DecodedAddress{}, fmt.Errorf("callsign: address field must be %d bytes, got %d", wireLen, len(src))
	}
	var base [6]byte
	for i := 0; i < 6; i++ {
		base[i] = src[i] >> 1
	}
	baseStr := strings.TrimRight(string(base[:]), " ")
	if baseStr == "" {
		return DecodedAddress{}, fmt.Errorf("callsign: empty base in address field")
	}

	ssidByte := src[6]
	ssid := int((ssidByte >> 1) & 0x0f)

	return DecodedAddress{
		Call:    Callsign{Base: baseStr, SSID: ssid},
		ExtBits: ssidByte & 0xe0,
		HBit:    ssidByte&0x80 != 0,
		Last:    ssidByte&0x01 != 0,
	}, nil
}
