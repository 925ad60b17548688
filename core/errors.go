package core

import "errors"

// SSP port errors.
var (
	// ErrBusy is returned by BeginReceive while a receive is armed.
	ErrBusy = errors.New("ssp: receive already armed")

	// ErrTimedOut is returned when a bounded busy-wait runs out of polls.
	ErrTimedOut = errors.New("ssp: timed out waiting for peripheral")

	ErrNotInitialized     = errors.New("ssp: port not initialized")
	ErrAlreadyInitialized = errors.New("ssp: port already initialized")

	// ErrUnsupportedPinLocation is returned by Init when a signal has no
	// pin selected or the pin cannot carry it.
	ErrUnsupportedPinLocation = errors.New("ssp: unsupported pin location")

	// ErrUnsupportedRate is returned by Init when no prescale/divider pair
	// reaches the requested clock rate.
	ErrUnsupportedRate = errors.New("ssp: unsupported clock rate")

	ErrEmptyReceive   = errors.New("ssp: empty receive buffer")
	ErrLengthMismatch = errors.New("ssp: tx and rx buffer lengths must match")
)

// Command link errors.
var (
	ErrUnknownCommand  = errors.New("link: unknown command id")
	ErrUnknownResponse = errors.New("link: response not registered")

	// ErrNoSample is returned by barometer operations that need a reading
	// before any has arrived.
	ErrNoSample = errors.New("baro: no sample yet")

	// ErrBadPressure rejects a zero pressure reading or reference.
	ErrBadPressure = errors.New("baro: pressure must be positive")
)
