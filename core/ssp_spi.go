package core

import "tinygo.org/x/drivers"

// SPIConn presents a SlavePort as a tinygo drivers.SPI bus. Every wait is
// bounded by polls status reads (0 waits forever).
type SPIConn struct {
	port  *SlavePort
	polls uint32
}

var _ drivers.SPI = (*SPIConn)(nil)

// SPI returns a drivers.SPI view of the port.
func (p *SlavePort) SPI(polls uint32) *SPIConn {
	return &SPIConn{port: p, polls: polls}
}

// Tx exchanges len(w) or len(r) bytes. Either may be nil; when both are
// given they must be the same length.
func (c *SPIConn) Tx(w, r []byte) error {
	n := len(w)
	switch {
	case w == nil && r == nil:
		return nil
	case w == nil:
		n = len(r)
	case r != nil && len(r) != len(w):
		return ErrLengthMismatch
	}
	return c.port.TransferBounded(r, w, n, c.polls)
}

// Transfer exchanges one byte.
func (c *SPIConn) Transfer(b byte) (byte, error) {
	var in [1]byte
	out := [1]byte{b}
	err := c.port.TransferBounded(in[:], out[:], 1, c.polls)
	return in[0], err
}
