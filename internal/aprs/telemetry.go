package aprs

import (
	"fmt"
	"strconv"
	"strings"
)

// DecodeTelemetry decodes a `T` telemetry payload (spec.md §4.5):
// "T#seq,a1,a2,a3,a4,a5,bbbbbbbb" where the b field is 8 binary
// digits for the digital channels. Grounded on the prior Go port's
// decode_aprs.go telemetry path.
func DecodeTelemetry(info []byte) (*Telemetry, error) {
	s := string(info)
	if !strings.HasPrefix(s, "T#") {
		return nil, fmt.Errorf("%w: telemetry payload must start with \"T#\"", errUnknownType)
	}
	parts := strings.Split(s[2:], ",")
	if len(parts) < 7 {
		return nil, fmt.Errorf("%w: telemetry payload needs sequence + 5 analog + digital fields", errUnknownType)
	}

	t := &Telemetry{}
	if parts[0] == "MIC" || parts[0] == "SEQ" {
		t.Seq = 0
	} else if n, err := strconv.Atoi(parts[0]); err == nil {
		t.Seq = n
	}

	for i := 0; i < 5; i++ {
		if v, err := strconv.ParseFloat(strings.TrimSpace(parts[i+1]), 64); err == nil {
			t.Analog[i] = v
		}
	}

	digital := strings.TrimSpace(parts[6])
	for i := 0; i < 8 && i < len(digital); i++ {
		t.Digital[i] = digital[i] == '1'
	}

	return t, nil
}

// EncodeTelemetry renders a Telemetry back to its wire info field.
func EncodeTelemetry(t *Telemetry) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "T#%03d", t.Seq)
	for _, a := range t.Analog {
		fmt.Fprintf(&b, ",%03.0f", a)
	}
	b.WriteByte(',')
	for _, d := range t.Digital {
		if d {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return []byte(b.String())
}
