//go:build rp2040

package main

import (
	"machine"

	"gossp/core"
	"gossp/protocol"
)

// InitUSB initializes USB serial communication
// TinyGo sets up USB CDC-ACM on RP2040 as machine.Serial
func InitUSB() {
	machine.Serial.Configure(machine.UARTConfig{})
}

// USBAvailable returns the number of bytes available to read from USB
func USBAvailable() int {
	return machine.Serial.Buffered()
}

// USBRead reads a single byte from USB
func USBRead() (byte, error) {
	return machine.Serial.ReadByte()
}

// USBWriteBytes writes multiple bytes to USB
func USBWriteBytes(data []byte) (int, error) {
	return machine.Serial.Write(data)
}

// usbLink serves the command registry to a host on the USB port.
type usbLink struct {
	in        *protocol.FifoBuffer
	out       *protocol.ScratchOutput
	transport *protocol.Transport

	writeFailures uint32
	errors        uint32
}

func newUSBLink(reg *core.CommandRegistry) *usbLink {
	u := &usbLink{
		in:  protocol.NewFifoBuffer(256),
		out: protocol.NewScratchOutput(),
	}
	u.transport = protocol.NewTransport(u.out, reg.Serve)
	return u
}

// poll reads what the host sent, dispatches whole frames and writes the
// responses back.
func (u *usbLink) poll() {
	for USBAvailable() > 0 && u.in.Free() > 0 {
		b, err := USBRead()
		if err != nil {
			u.errors++
			break
		}
		u.in.Write([]byte{b})
	}

	if u.in.Available() > 0 {
		data := u.in.Data()
		in := protocol.NewSliceInputBuffer(data)
		u.transport.Receive(in)
		u.in.Pop(len(data) - in.Available())
	}

	u.flush()
}

func (u *usbLink) flush() {
	result := u.out.Result()
	written := 0
	for written < len(result) {
		n, err := USBWriteBytes(result[written:])
		if err != nil || n == 0 {
			// Host gone; after repeated failures start over clean
			u.writeFailures++
			if u.writeFailures > 10 {
				u.writeFailures = 0
				u.out.Reset()
				u.in.Reset()
				u.transport.Reset()
			}
			return
		}
		written += n
	}
	u.writeFailures = 0
	u.out.Reset()
}
