package aprs

import (
	"fmt"
)

// micEDigit decodes one destination-address character to its digit
// value 0-9, setting the appropriate message-type bit. Ported
// verbatim in behavior from the prior Go port's decode_aprs.go:mic_e_digit
// (the direwolf reference implementation this format comes from).
func micEDigit(c byte, mask int, std, cust *int) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'A' && c <= 'J':
		*cust |= mask
		return int(c - 'A')
	case c >= 'P' && c <= 'Y':
		*std |= mask
		return int(c - 'P')
	case c == 'K':
		*cust |= mask
		return 0
	case c == 'L':
		return 0
	case c == 'Z':
		*std |= mask
		return 0
	default:
		return 0
	}
}

var micEStdText = []string{"Emergency", "Priority", "Special", "Committed", "Returning", "In Service", "En Route", "Off Duty"}
var micECustText = []string{"Emergency", "Custom-6", "Custom-5", "Custom-4", "Custom-3", "Custom-2", "Custom-1", "Custom-0"}

func micEStatusText(std, cust int) string {
	switch {
	case std == 0 && cust == 0:
		return "Emergency"
	case std == 0 && cust != 0:
		return micECustText[cust]
	case std != 0 && cust == 0:
		return micEStdText[std]
	default:
		return "Unknown MIC-E Message Type"
	}
}

const micEHeaderLen = 9 // DTI(1) + Lon(3) + SpeedCourse(3) + SymbolCode(1) + SymTableId(1)

// DecodeMicE decodes a MIC-E position report (spec.md §4.5). destBase
// is the 6-character (space-padded-then-trimmed is fine, see below)
// base callsign from the AX.25 destination address field, which
// encodes the latitude digits and three flag bits. info is the
// information field, starting with the `` ` `` or `'` data-type byte.
func DecodeMicE(destBase string, info []byte) (*Position, error) {
	if len(info) < micEHeaderLen {
		return nil, fmt.Errorf("%w: MIC-E information field needs at least %d bytes, got %d", errBadMICE, micEHeaderLen, len(info))
	}

	dest := destBase
	for len(dest) < 6 {
		dest += "L" // 'L' decodes as digit 0 / standard bit, same as a safe pad
	}
	if len(dest) > 6 {
		dest = dest[:6]
	}
	d := []byte(dest)

	var std, cust int
	lat := float64(micEDigit(d[0], 4, &std, &cust)*10+micEDigit(d[1], 2, &std, &cust)) +
		float64(micEDigit(d[2], 1, &std, &cust)*1000+micEDigit(d[3], 0, &std, &cust)*100+micEDigit(d[4], 0, &std, &cust)*10+micEDigit(d[5], 0, &std, &cust))/6000.0

	switch {
	case (d[3] >= '0' && d[3] <= '9') || d[3] == 'L':
		lat = -lat // south
	case d[3] >= 'P' && d[3] <= 'Z':
		// north, no change
	default:
		return nil, fmt.Errorf("%w: invalid N/S flag in destination character 4", errBadMICE)
	}

	offset := false
	switch {
	case (d[4] >= '0' && d[4] <= '9') || d[4] == 'L':
		offset = false
	case d[4] >= 'P' && d[4] <= 'Z':
		offset = true
	default:
		return nil, fmt.Errorf("%w: invalid longitude-offset flag in destination character 5", errBadMICE)
	}

	lonBytes := info[1:4]
	lon, err := decodeMicELongitude(lonBytes, offset)
	if err != nil {
		return nil, err
	}

	switch {
	case (d[5] >= '0' && d[5] <= '9') || d[5] == 'L':
		// east, no change
	case d[5] >= 'P' && d[5] <= 'Z':
		lon = -lon // west
	default:
		return nil, fmt.Errorf("%w: invalid E/W flag in destination character 6", errBadMICE)
	}

	if err := validLatLon(lat, lon); err != nil {
		return nil, err
	}

	symCode := info[7]
	symTable := info[8]
	if symTable != '/' && symTable != '\\' {
		r := rune(symTable)
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			symTable = '/'
		}
	}

	sc := info[4:7]
	n := int(sc[0]-28)*10 + int(sc[1]-28)/10
	if n >= 800 {
		n -= 800
	}
	speedKnots := float64(n)

	n2 := int(sc[1]-28)%10*100 + int(sc[2]-28)
	if n2 >= 400 {
		n2 -= 400
	}
	var course *int
	switch n2 {
	case 0:
		// unknown, leave nil
	case 360:
		c := 0
		course = &c
	default:
		c := n2
		course = &c
	}

	pos := &Position{
		Lat:         lat,
		Lon:         lon,
		SymbolTable: symTable,
		SymbolCode:  symCode,
		SpeedKnots:  &speedKnots,
		CourseDeg:   course,
		MicE:        true,
		MicEStatus:  micEStatusText(std, cust),
	}

	if len(info) <= micEHeaderLen {
		return pos, nil
	}
	mcomment := info[micEHeaderLen:]
	for len(mcomment) > 0 && mcomment[len(mcomment)-1] == '\r' {
		mcomment = mcomment[:len(mcomment)-1]
	}

	trimmed, device := decodeMicEDeviceID(string(mcomment))
	pos.DeviceModel = device

	if len(trimmed) >= 4 && isDigit91(trimmed[0]) && isDigit91(trimmed[1]) && isDigit91(trimmed[2]) && trimmed[3] == '}' {
		alt := (float64(trimmed[0])-33)*91*91 + (float64(trimmed[1])-33)*91 + (float64(trimmed[2]) - 33) - 10000
		altFt := alt * 3.28084 // meters to feet
		pos.AltitudeFt = &altFt
		pos.Comment = trimmed[4:]
	} else {
		pos.Comment = trimmed
	}

	return pos, nil
}

// decodeMicELongitude decodes the 3-byte longitude field of the MIC-E
// information field: degrees, minutes, hundredths-of-minutes, each
// with its own valid byte-value range depending on the offset flag.
func decodeMicELongitude(b []byte, offset bool) (float64, error) {
	ch := b[0]
	var deg float64
	switch {
	case offset && ch >= 118 && ch <= 127:
		deg = float64(ch - 118) // 0-9
	case !offset && ch >= 38 && ch <= 127:
		deg = float64(ch-38) + 10 // 10-99
	case offset && ch >= 108 && ch <= 117:
		deg = float64(ch-108) + 100 // 100-109
	case offset && ch >= 38 && ch <= 107:
		deg = float64(ch-38) + 110 // 110-179
	default:
		return 0, fmt.Errorf("%w: invalid MIC-E longitude degrees byte 0x%02x", errBadMICE, ch)
	}

	ch = b[1]
	var min float64
	switch {
	case ch >= 88 && ch <= 97:
		min = float64(ch-88) / 60.0
	case ch >= 38 && ch <= 87:
		min = float64(ch-38+10) / 60.0
	default:
		return 0, fmt.Errorf("%w: invalid MIC-E longitude minutes byte 0x%02x", errBadMICE, ch)
	}

	ch = b[2]
	if ch < 28 || ch > 127 {
		return 0, fmt.Errorf("%w: invalid MIC-E longitude hundredths byte 0x%02x", errBadMICE, ch)
	}
	hmin := float64(ch-28) / 6000.0

	return deg + min + hmin, nil
}

// micEAltitudeMeters is a helper for tests that want to sanity-check
// the base-91 altitude decode independent of a full packet.
func micEAltitudeMeters(trimmed string) float64 {
	return (float64(trimmed[0])-33)*91*91 + (float64(trimmed[1])-33)*91 + (float64(trimmed[2]) - 33) - 10000
}
