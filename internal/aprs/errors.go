package aprs

import "github.com/n7gw/tncgw/internal/gwerr"

var (
	errBadPosition = gwerr.ErrBadPosition
	errBadMICE     = gwerr.ErrBadMICE
	errUnknownType = gwerr.ErrUnknownType
)
