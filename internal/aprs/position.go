package aprs

import (
	"bytes"
	"fmt"
	"math"
	"time"
)

// IsNullIsland reports whether (lat, lon) is the synthetic (0,0)
// coordinate that spec.md §3 requires every decoder reject.
func IsNullIsland(lat, lon float64) bool {
	return lat == 0 && lon == 0
}

func validLatLon(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", errBadPosition, lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range", errBadPosition, lon)
	}
	if IsNullIsland(lat, lon) {
		return fmt.Errorf("%w: (0,0) Null Island rejected", errBadPosition)
	}
	return nil
}

// decodeUncompressedLatLon parses the 8-byte "ddmm.hhN" latitude and
// 9-byte "dddmm.hhW" longitude fields (spec.md §3 "uncompressed").
func decodeUncompressedLatLon(lat8, lon9 []byte) (float64, float64, error) {
	if len(lat8) != 8 {
		return 0, 0, fmt.Errorf("%w: latitude field must be 8 bytes", errBadPosition)
	}
	if len(lon9) != 9 {
		return 0, 0, fmt.Errorf("%w: longitude field must be 9 bytes", errBadPosition)
	}

	latDeg, err := digits(lat8[0:2])
	if err != nil {
		return 0, 0, err
	}
	latMin, err := digits(lat8[2:4])
	if err != nil {
		return 0, 0, err
	}
	latHMin, err := digits(lat8[5:7])
	if err != nil {
		return 0, 0, err
	}
	lat := float64(latDeg) + (float64(latMin)+float64(latHMin)/100.0)/60.0
	switch lat8[7] {
	case 'S', 's':
		lat = -lat
	case 'N', 'n':
	default:
		return 0, 0, fmt.Errorf("%w: latitude hemisphere %q invalid", errBadPosition, lat8[7])
	}

	lonDeg, err := digits(lon9[0:3])
	if err != nil {
		return 0, 0, err
	}
	lonMin, err := digits(lon9[3:5])
	if err != nil {
		return 0, 0, err
	}
	lonHMin, err := digits(lon9[6:8])
	if err != nil {
		return 0, 0, err
	}
	lon := float64(lonDeg) + (float64(lonMin)+float64(lonHMin)/100.0)/60.0
	switch lon9[8] {
	case 'W', 'w':
		lon = -lon
	case 'E', 'e':
	default:
		return 0, 0, fmt.Errorf("%w: longitude hemisphere %q invalid", errBadPosition, lon9[8])
	}

	return lat, lon, nil
}

func digits(b []byte) (int, error) {
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: expected digit, got %q", errBadPosition, c)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

// encodeUncompressedLatLon is the inverse of decodeUncompressedLatLon,
// grounded on the prior Go port's latitude_to_str/longitude_to_str.
func encodeUncompressedLatLon(lat, lon float64) (lat8, lon9 string) {
	ns := byte('N')
	if lat < 0 {
		ns = 'S'
		lat = -lat
	}
	deg := int(lat)
	min := (lat - float64(deg)) * 60
	lat8 = fmt.Sprintf("%02d%05.2f%c", deg, min, ns)

	ew := byte('E')
	if lon < 0 {
		ew = 'W'
		lon = -lon
	}
	lonDeg := int(lon)
	lonMin := (lon - float64(lonDeg)) * 60
	lon9 = fmt.Sprintf("%03d%05.2f%c", lonDeg, lonMin, ew)
	return
}

// decodeCompressedPosition parses the 13-byte compressed position
// format (spec.md §3 "compressed"), grounded on
// decode_aprs.go:decode_compressed_position.
func decodeCompressedPosition(b []byte) (lat, lon float64, symTable, symCode byte, course *int, speed *float64, alt *float64, err error) {
	if len(b) != 13 {
		return 0, 0, 0, 0, nil, nil, nil, fmt.Errorf("%w: compressed position needs 13 bytes, got %d", errBadPosition, len(b))
	}

	symTableRaw := b[0]
	y := b[1:5]
	x := b[5:9]
	symCode = b[9]
	c, s, t := b[10], b[11], b[12]

	if !isDigit91(y[0]) || !isDigit91(y[1]) || !isDigit91(y[2]) || !isDigit91(y[3]) {
		return 0, 0, 0, 0, nil, nil, nil, fmt.Errorf("%w: invalid compressed latitude digits", errBadPosition)
	}
	lat = 90 - float64(decodeBase91(y))/380926.0

	if !isDigit91(x[0]) || !isDigit91(x[1]) || !isDigit91(x[2]) || !isDigit91(x[3]) {
		return 0, 0, 0, 0, nil, nil, nil, fmt.Errorf("%w: invalid compressed longitude digits", errBadPosition)
	}
	lon = -180 + float64(decodeBase91(x))/190463.0

	switch {
	case symTableRaw == '/' || symTableRaw == '\\' || (symTableRaw >= 'A' && symTableRaw <= 'Z'):
		symTable = symTableRaw
	case symTableRaw >= 'a' && symTableRaw <= 'j':
		symTable = symTableRaw - 'a' + '0'
	default:
		symTable = '/'
	}

	switch {
	case c == ' ':
		// no course/speed/altitude/range extension present
	case ((t-33)&0x18) == 0x10:
		a := math.Pow(1.002, float64(c-33)*91+float64(s-33))
		alt = &a
	case c == '{':
		// radio range, spec.md §3/§4.5 distinguishes via the compression
		// type byte; range is not modeled as a Position field, dropped
		// per spec.md §9's "accept unknown trailing bytes" guidance.
	case c >= '!' && c <= 'z':
		crs := int(c-33) * 4
		spd := math.Pow(1.08, float64(s-33)) - 1.0
		course = &crs
		speed = &spd
	}

	return lat, lon, symTable, symCode, course, speed, alt, nil
}

// encodeCompressedPosition is the inverse for the course/speed
// variant; used by Encode for round-tripping decoded positions.
func encodeCompressedPosition(lat, lon float64, symTable, symCode byte, course *int, speed *float64) []byte {
	y := int(math.Round(380926.0 * (90.0 - lat)))
	x := int(math.Round(190463.0 * (180.0 + lon)))
	yb := encodeBase91(y)
	xb := encodeBase91(x)

	out := make([]byte, 0, 13)
	out = append(out, symTable)
	out = append(out, yb[:]...)
	out = append(out, xb[:]...)
	out = append(out, symCode)

	if course != nil && speed != nil {
		c := byte(*course/4) + 33
		s := byte(math.Round(math.Log(*speed+1)/math.Log(1.08))) + 33
		out = append(out, c, s, byte(0x18+33))
	} else {
		out = append(out, ' ', ' ', ' ')
	}
	return out
}

// parseTimestamp parses the 7-byte DHM ("ddhhmmz"/"ddhhmm/") or HMS
// ("hhmmssh") timestamp forms that prefix `/` and `@` position reports
// (spec.md §4.5). ref anchors day/hour/minute-only timestamps to the
// current UTC month.
func parseTimestamp(info []byte, ref time.Time) (*time.Time, []byte, error) {
	if len(info) < 7 {
		return nil, info, fmt.Errorf("%w: timestamp needs 7 bytes", errBadPosition)
	}
	raw := info[:7]
	rest := info[7:]
	suffix := raw[6]

	switch suffix {
	case 'z', '/':
		dd, err := digits(raw[0:2])
		if err != nil {
			return nil, info, err
		}
		hh, err := digits(raw[2:4])
		if err != nil {
			return nil, info, err
		}
		mm, err := digits(raw[4:6])
		if err != nil {
			return nil, info, err
		}
		ts := time.Date(ref.Year(), ref.Month(), dd, hh, mm, 0, 0, time.UTC)
		return &ts, rest, nil

	case 'h':
		hh, err := digits(raw[0:2])
		if err != nil {
			return nil, info, err
		}
		mm, err := digits(raw[2:4])
		if err != nil {
			return nil, info, err
		}
		ss, err := digits(raw[4:6])
		if err != nil {
			return nil, info, err
		}
		ts := time.Date(ref.Year(), ref.Month(), ref.Day(), hh, mm, ss, 0, time.UTC)
		return &ts, rest, nil
	}

	return nil, info, fmt.Errorf("%w: unrecognized timestamp suffix %q", errBadPosition, suffix)
}

// parseCourseSpeed parses the optional 7-byte "CCC/SSS" data extension
// (spec.md §4.5), returning the remaining bytes unconsumed either way.
func parseCourseSpeed(rest []byte) (course *int, speedKnots *float64, remainder []byte) {
	if len(rest) < 7 || rest[3] != '/' {
		return nil, nil, rest
	}
	c, err1 := digits(rest[0:3])
	s, err2 := digits(rest[4:7])
	if err1 != nil || err2 != nil {
		return nil, nil, rest
	}
	sk := float64(s)
	return &c, &sk, rest[7:]
}

// parseAltitude finds an embedded "/A=NNNNNN" altitude marker anywhere
// in the comment (spec.md §4.5), returning the comment with the marker
// removed.
func parseAltitude(comment []byte) (*float64, []byte) {
	idx := bytes.Index(comment, []byte("/A="))
	if idx < 0 || idx+9 > len(comment) {
		return nil, comment
	}
	digitsField := comment[idx+3 : idx+9]
	n, err := digits(digitsField)
	if err != nil {
		return nil, comment
	}
	alt := float64(n)
	out := append(append([]byte{}, comment[:idx]...), comment[idx+9:]...)
	return &alt, out
}
