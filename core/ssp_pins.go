package core

// PinLocation identifies a physical pin. The numbering is board specific;
// LPC parts use LPCPin, RP2040 uses the GPIO number.
type PinLocation uint16

// PinNone marks a signal with no pin selected.
const PinNone PinLocation = 0xFFFF

// LPCPin returns the location of LPC pin Pport_pin.
func LPCPin(port, pin uint8) PinLocation {
	return PinLocation(port)*32 + PinLocation(pin)
}

// SSPSignal is one of the three routed SSP lines. Slave select is not
// routed; the port is always selected.
type SSPSignal uint8

const (
	SignalMOSI SSPSignal = iota
	SignalMISO
	SignalSCK
)

func (s SSPSignal) String() string {
	switch s {
	case SignalMOSI:
		return "MOSI"
	case SignalMISO:
		return "MISO"
	case SignalSCK:
		return "SCK"
	}
	return "signal" + utoa(uint32(s))
}

// PinConfig selects the pin used for each signal.
type PinConfig struct {
	MOSI PinLocation
	MISO PinLocation
	SCK  PinLocation
}

// RouteTable lists, per signal, the pins able to carry it and the pin
// function number selecting the SSP on that pin.
type RouteTable map[SSPSignal]map[PinLocation]uint8

// LPC1347SSP1Routes is the IOCON routing of SSP1 on LPC1347.
var LPC1347SSP1Routes = RouteTable{
	SignalMOSI: {
		LPCPin(0, 21): 0x02,
		LPCPin(1, 22): 0x02,
	},
	SignalMISO: {
		LPCPin(0, 22): 0x03,
		LPCPin(1, 21): 0x02,
	},
	SignalSCK: {
		LPCPin(1, 20): 0x02,
		LPCPin(1, 15): 0x03,
	},
}

// RP2040SPI1Routes is the SPI1 routing of RP2040 as a slave: the
// controller's RX pin receives MOSI and its TX pin drives MISO. Every pin
// selects the SPI with function 1.
var RP2040SPI1Routes = RouteTable{
	SignalMOSI: {8: 1, 12: 1, 24: 1, 28: 1},
	SignalMISO: {11: 1, 15: 1, 27: 1},
	SignalSCK:  {10: 1, 14: 1, 26: 1},
}

// PinError reports a signal whose pin cannot be routed.
type PinError struct {
	Signal SSPSignal
	Pin    PinLocation
}

func (e *PinError) Error() string {
	if e.Pin == PinNone {
		return ErrUnsupportedPinLocation.Error() + ": no pin selected for " + e.Signal.String()
	}
	return ErrUnsupportedPinLocation.Error() + ": " + e.Signal.String() + " on pin " + utoa(uint32(e.Pin))
}

func (e *PinError) Unwrap() error {
	return ErrUnsupportedPinLocation
}

type pinRoute struct {
	pin      PinLocation
	function uint8
}

// resolve maps every signal of pins to its route, in MOSI, MISO, SCK order.
func (rt RouteTable) resolve(pins PinConfig) ([3]pinRoute, error) {
	var routes [3]pinRoute
	selected := [3]PinLocation{
		SignalMOSI: pins.MOSI,
		SignalMISO: pins.MISO,
		SignalSCK:  pins.SCK,
	}
	for i, pin := range selected {
		sig := SSPSignal(i)
		fn, ok := rt[sig][pin]
		if pin == PinNone || !ok {
			return routes, &PinError{Signal: sig, Pin: pin}
		}
		routes[i] = pinRoute{pin: pin, function: fn}
	}
	return routes, nil
}
