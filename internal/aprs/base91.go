package aprs

// Base91 digit range, grounded on the prior Go port's base91.go.
const (
	b91Min = '!'
	b91Max = '{'
)

func isDigit91(c byte) bool {
	return c >= b91Min && c <= b91Max
}

// decodeBase91 converts a 4-character base-91 field to its integer
// value (big-endian, base 91).
func decodeBase91(s []byte) int {
	v := 0
	for _, c := range s {
		v = v*91 + int(c-33)
	}
	return v
}

// encodeBase91 renders n as a 4-character base-91 field.
func encodeBase91(n int) [4]byte {
	var out [4]byte
	for i := 3; i >= 0; i-- {
		out[i] = byte(n%91) + 33
		n /= 91
	}
	return out
}
