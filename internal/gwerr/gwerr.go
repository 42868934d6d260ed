// Package gwerr defines the error kinds of spec.md §7: Transport,
// Framing, Protocol, Link, Message, Persistence. Each kind wraps a
// small set of errors.Is-comparable sentinels so callers branch on
// identity instead of string matching.
package gwerr

import "fmt"

// Kind classifies an error per spec.md §7.
type Kind string

const (
	KindTransport   Kind = "transport"
	KindFraming     Kind = "framing"
	KindProtocol    Kind = "protocol"
	KindLink        Kind = "link"
	KindMessage     Kind = "message"
	KindPersistence Kind = "persistence"
)

// Sentinels, compared with errors.Is.
var (
	ErrConnectFailed   = fmt.Errorf("%s: connect failed", KindTransport)
	ErrDisconnected    = fmt.Errorf("%s: disconnected", KindTransport)
	ErrWriteFailed     = fmt.Errorf("%s: write failed", KindTransport)
	ErrShortRead       = fmt.Errorf("%s: short read", KindFraming)
	ErrBadEscape       = fmt.Errorf("%s: bad escape sequence", KindFraming)
	ErrOversize        = fmt.Errorf("%s: frame oversize", KindFraming)
	ErrUnknownType     = fmt.Errorf("%s: unknown APRS data type", KindProtocol)
	ErrBadMICE         = fmt.Errorf("%s: malformed MIC-E encoding", KindProtocol)
	ErrBadPosition     = fmt.Errorf("%s: invalid position", KindProtocol)
	ErrConnectRefused  = fmt.Errorf("%s: connect refused", KindLink)
	ErrRetryExhausted  = fmt.Errorf("%s: retry budget exhausted", KindLink)
	ErrFRMRReceived    = fmt.Errorf("%s: FRMR received", KindLink)
	ErrMsgRetryExpired = fmt.Errorf("%s: message retry budget exhausted", KindMessage)
	ErrNotAddressee    = fmt.Errorf("%s: message not addressed to us", KindMessage)
	ErrLoadCorrupt     = fmt.Errorf("%s: load corrupt", KindPersistence)
	ErrWriteFailedP    = fmt.Errorf("%s: write failed", KindPersistence)
)

// Error wraps an underlying cause with its Kind for errors.As/errors.Is.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Wrap annotates cause with a Kind.
func Wrap(kind Kind, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Cause: cause}
}
