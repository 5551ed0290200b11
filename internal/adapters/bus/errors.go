package bus

import "errors"

// Sentinel error kinds for the bus.
var (
	ErrEncode    = errors.New("encode award event")
	ErrPublish   = errors.New("publish award event")
	ErrSubscribe = errors.New("subscribe award events")
	ErrClosed    = errors.New("bus closed")
)
