package aprs

import (
	"fmt"
	"time"
)

// Decode dispatches an AX.25 information field to the appropriate
// APRS payload decoder based on its leading data-type indicator byte
// (spec.md §4.5's dispatch table), grounded on the prior Go port's top-level
// decode_aprs function. destBase is the base (SSID-stripped) AX.25
// destination-address callsign, needed only for MIC-E decoding.
func Decode(destBase string, info []byte) (*Payload, error) {
	if len(info) == 0 {
		return nil, fmt.Errorf("%w: empty information field", errUnknownType)
	}

	now := time.Now().UTC()

	switch info[0] {
	case '!', '=':
		pos, err := decodePositionBody(info[1:])
		if err != nil {
			return nil, err
		}
		return &Payload{Kind: KindPosition, Position: pos}, nil

	case '/', '@':
		ts, rest, err := parseTimestamp(info[1:], now)
		if err != nil {
			return nil, err
		}
		pos, err := decodePositionBody(rest)
		if err != nil {
			return nil, err
		}
		pos.Timestamp = ts
		return &Payload{Kind: KindPosition, Position: pos}, nil

	case '`', '\'':
		pos, err := DecodeMicE(destBase, info)
		if err != nil {
			return nil, err
		}
		return &Payload{Kind: KindPosition, Position: pos}, nil

	case ':':
		msg, err := DecodeMessage(info)
		if err != nil {
			return nil, err
		}
		return &Payload{Kind: KindMessage, Message: msg}, nil

	case '>':
		st, err := DecodeStatus(info, now)
		if err != nil {
			return nil, err
		}
		return &Payload{Kind: KindStatus, Status: st}, nil

	case 'T':
		tel, err := DecodeTelemetry(info)
		if err != nil {
			return nil, err
		}
		return &Payload{Kind: KindTelemetry, Telemetry: tel}, nil

	case '_':
		wx, err := DecodeWeather(info)
		if err != nil {
			return nil, err
		}
		return &Payload{Kind: KindWeather, Weather: wx}, nil

	case ';':
		obj, err := DecodeObject(info)
		if err != nil {
			return nil, err
		}
		return &Payload{Kind: KindObject, Object: obj}, nil

	case ')':
		item, err := DecodeItem(info)
		if err != nil {
			return nil, err
		}
		return &Payload{Kind: KindItem, Item: item}, nil

	case '}':
		tp, err := DecodeThirdParty(info, func(inner []byte) (*Payload, error) {
			return Decode("", inner)
		})
		if err != nil {
			return nil, err
		}
		return &Payload{Kind: KindThirdParty, ThirdParty: tp}, nil

	default:
		return nil, fmt.Errorf("%w: unrecognized data type indicator %q", errUnknownType, info[0])
	}
}

// decodePositionBody parses a position-report body (everything after
// the data-type byte and any timestamp): either the 19-byte
// uncompressed form (lat8 + symtable + lon9 + symcode) or the 13-byte
// compressed form, followed by optional course/speed and altitude
// extensions and a free-text comment.
func decodePositionBody(body []byte) (*Position, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty position body", errBadPosition)
	}

	if body[0] >= '0' && body[0] <= '9' {
		if len(body) < 19 {
			return nil, fmt.Errorf("%w: uncompressed position body too short", errBadPosition)
		}
		lat, lon, err := decodeUncompressedLatLon(body[0:8], body[9:18])
		if err != nil {
			return nil, err
		}
		if err := validLatLon(lat, lon); err != nil {
			return nil, err
		}
		symTable := body[8]
		symCode := body[18]
		rest := body[19:]

		course, speed, rest := parseCourseSpeed(rest)
		alt, rest := parseAltitude(rest)

		return &Position{
			Lat: lat, Lon: lon,
			SymbolTable: symTable, SymbolCode: symCode,
			CourseDeg: course, SpeedKnots: speed, AltitudeFt: alt,
			Comment: string(rest),
		}, nil
	}

	if len(body) < 13 {
		return nil, fmt.Errorf("%w: compressed position body too short", errBadPosition)
	}
	lat, lon, symTable, symCode, course, speedKnots, altM, err := decodeCompressedPosition(body[0:13])
	if err != nil {
		return nil, err
	}
	if err := validLatLon(lat, lon); err != nil {
		return nil, err
	}
	rest := body[13:]
	alt, rest := parseAltitude(rest)
	if alt == nil && altM != nil {
		ft := *altM * 3.28084
		alt = &ft
	}

	var speedKts *float64
	if speedKnots != nil {
		v := *speedKnots
		speedKts = &v
	}

	return &Position{
		Lat: lat, Lon: lon,
		SymbolTable: symTable, SymbolCode: symCode,
		CourseDeg: course, SpeedKnots: speedKts, AltitudeFt: alt,
		Compressed: true,
		Comment:    string(rest),
	}, nil
}
