package types

import "errors"

var (
	ErrDecode               = errors.New("decode error")
	ErrClosed               = errors.New("closed")
	ErrBadAddress           = errors.New("bad address")
	ErrConfig               = errors.New("configuration error")
	ErrAuthNegotiated       = errors.New("shared key already negotiated")
	ErrEmptyKeyVector       = errors.New("empty key vector")
	ErrRetransmitsExhausted = errors.New("asconf retransmissions exhausted")
)
