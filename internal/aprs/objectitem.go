package aprs

import (
	"fmt"
	"strings"
	"time"
)

const objectNameLen = 9

// DecodeObject decodes a `;` object payload (spec.md §4.5): a 9-byte
// name, a live('*')/killed('_') flag, a 7-byte DHM timestamp, and then
// a position body identical in format to a plain position report.
func DecodeObject(info []byte) (*ObjectItem, error) {
	if len(info) < 1+objectNameLen+1+7 || info[0] != ';' {
		return nil, fmt.Errorf("%w: object payload too short", errUnknownType)
	}
	name := strings.TrimRight(string(info[1:1+objectNameLen]), " ")
	liveFlag := info[1+objectNameLen]
	rest := info[1+objectNameLen+1:]

	_, remainder, err := parseTimestamp(rest, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: object timestamp: %v", errUnknownType, err)
	}

	pos, err := decodePositionBody(remainder)
	if err != nil {
		return nil, err
	}

	return &ObjectItem{
		Name: name,
		Live: liveFlag == '*',
		Pos:  *pos,
	}, nil
}

// DecodeItem decodes a `)` item payload (spec.md §4.5): a
// variable-length (3-9 byte) name terminated by '!' (live) or '_'
// (killed), followed directly by a position body (no timestamp).
func DecodeItem(info []byte) (*ObjectItem, error) {
	if len(info) < 2 || info[0] != ')' {
		return nil, fmt.Errorf("%w: item payload too short", errUnknownType)
	}
	body := info[1:]

	idx := strings.IndexAny(string(body), "!_")
	if idx < 0 {
		return nil, fmt.Errorf("%w: item payload missing live/killed marker", errUnknownType)
	}

	name := string(body[:idx])
	live := body[idx] == '!'
	pos, err := decodePositionBody(body[idx+1:])
	if err != nil {
		return nil, err
	}

	return &ObjectItem{Name: name, Live: live, Pos: *pos}, nil
}
