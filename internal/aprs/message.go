package aprs

import (
	"fmt"
	"strings"
)

const messageAddresseeLen = 9

// DecodeMessage decodes a `:` message/ack/reject payload (spec.md
// §4.5), grounded on the prior Go port's decode_aprs.go message handling.
// info starts with the ':' data-type byte.
func DecodeMessage(info []byte) (*Message, error) {
	if len(info) < 1+messageAddresseeLen+1 || info[0] != ':' {
		return nil, fmt.Errorf("%w: message payload too short", errUnknownType)
	}
	if info[1+messageAddresseeLen] != ':' {
		return nil, fmt.Errorf("%w: message addressee field must end with ':'", errUnknownType)
	}

	addressee := strings.TrimRight(string(info[1:1+messageAddresseeLen]), " ")
	body := string(info[1+messageAddresseeLen+1:])

	m := &Message{Addressee: addressee}

	switch {
	case strings.HasPrefix(body, "ack"):
		m.IsAck = true
		m.MsgID = strings.TrimSpace(body[3:])
		return m, nil
	case strings.HasPrefix(body, "rej"):
		m.IsReject = true
		m.MsgID = strings.TrimSpace(body[3:])
		return m, nil
	}

	if idx := strings.LastIndexByte(body, '{'); idx >= 0 {
		m.Body = body[:idx]
		m.MsgID = body[idx+1:]
	} else {
		m.Body = body
	}

	return m, nil
}

// EncodeMessage renders a Message back to its wire info field,
// including the leading ':' data-type byte.
func EncodeMessage(m *Message) []byte {
	var b strings.Builder
	b.WriteByte(':')
	b.WriteString(m.Addressee)
	for i := len(m.Addressee); i < messageAddresseeLen; i++ {
		b.WriteByte(' ')
	}
	b.WriteByte(':')

	switch {
	case m.IsAck:
		b.WriteString("ack")
		b.WriteString(m.MsgID)
	case m.IsReject:
		b.WriteString("rej")
		b.WriteString(m.MsgID)
	default:
		b.WriteString(m.Body)
		if m.MsgID != "" {
			b.WriteByte('{')
			b.WriteString(m.MsgID)
		}
	}
	return []byte(b.String())
}
