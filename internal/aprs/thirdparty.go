package aprs

import (
	"bytes"
	"fmt"
)

// DecodeThirdParty decodes a `}` third-party encapsulation payload
// (spec.md §4.5): a header of the form "SRC>DEST,PATH:" followed by
// the inner payload's own info field. Per §4's resolution
// of the heard_direct Open Question, a third-party-tunneled frame is
// never itself counted as direct RF reception and is never
// digipeated further — callers must check ThirdParty explicitly
// rather than treating it like a locally heard frame.
func DecodeThirdParty(info []byte, ref func([]byte) (*Payload, error)) (*ThirdParty, error) {
	if len(info) < 2 || info[0] != '}' {
		return nil, fmt.Errorf("%w: third-party payload too short", errUnknownType)
	}
	body := info[1:]

	idx := bytes.IndexByte(body, ':')
	if idx < 0 {
		return nil, fmt.Errorf("%w: third-party payload missing header/body separator", errUnknownType)
	}
	header := string(body[:idx])
	innerInfo := body[idx+1:]

	tp := &ThirdParty{Header: header, Raw: append([]byte{}, innerInfo...)}

	if inner, err := ref(innerInfo); err == nil {
		tp.Inner = inner
	}

	return tp, nil
}
