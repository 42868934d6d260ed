package aprs

import (
	"strings"
	"time"
)

// DecodeStatus decodes a `>` status payload (spec.md §4.5). info
// starts with the '>' data-type byte, optionally followed by a 7-byte
// DHMz timestamp, then free text that may embed a 6-character
// Maidenhead grid square as its leading token.
func DecodeStatus(info []byte, ref time.Time) (*Status, error) {
	rest := info[1:]
	s := &Status{}

	if len(rest) >= 7 && rest[6] == 'z' {
		if ts, remainder, err := parseTimestamp(rest, ref); err == nil {
			s.Timestamp = ts
			rest = remainder
		}
	}

	text := strings.TrimRight(string(rest), " ")
	s.Text = text

	fields := strings.Fields(text)
	if len(fields) > 0 {
		candidate := strings.ToUpper(fields[0])
		if len(candidate) == 4 || len(candidate) == 6 {
			if _, _, err := MaidenheadToLatLon(candidate); err == nil {
				s.Maidenhead = candidate
			}
		}
	}

	return s, nil
}

// EncodeStatus renders a Status back to its wire info field.
func EncodeStatus(s *Status) []byte {
	var b strings.Builder
	b.WriteByte('>')
	if s.Timestamp != nil {
		t := s.Timestamp
		b.WriteString(t.Format("021504"))
		b.WriteByte('z')
	}
	b.WriteString(s.Text)
	return []byte(b.String())
}
