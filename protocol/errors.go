package protocol

import "errors"

var (
	errHandlerPanic = errors.New("message handler panicked")
	errNoHandler    = errors.New("no message handler")
)
