package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeSSP models a PL022 in slave mode together with the system control
// and interrupt controller around it. Every WriteData is answered by the
// next byte of master, as if the master clocked one frame.
type fakeSSP struct {
	calls []string

	cr0, cr1, cpsr uint32
	imsc           uint32
	icr            []uint32

	rxFIFO []byte
	master []byte
	sent   []byte

	overrun    bool // RIS reports ROR until RORIC is written
	busyPolls  int  // Status reports BSY for this many reads
	stallTNF   bool // Transmit FIFO never has room
	stallRNE   bool // Receive FIFO never fills
	statusRead int
}

func (f *fakeSSP) log(format string, args ...interface{}) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeSSP) SetControl0(v uint32) { f.cr0 = v; f.log("cr0 %#x", v) }
func (f *fakeSSP) SetControl1(v uint32) { f.cr1 = v; f.log("cr1 %#x", v) }
func (f *fakeSSP) SetPrescale(v uint32) { f.cpsr = v; f.log("cpsr %d", v) }

func (f *fakeSSP) Status() uint32 {
	f.statusRead++
	var sr uint32
	if !f.stallTNF {
		sr |= SSP_SR_TNF | SSP_SR_TFE
	}
	if f.busyPolls > 0 {
		f.busyPolls--
		sr |= SSP_SR_BSY
	}
	if len(f.rxFIFO) > 0 && !f.stallRNE {
		sr |= SSP_SR_RNE
	}
	return sr
}

func (f *fakeSSP) ReadData() uint32 {
	f.log("read")
	if len(f.rxFIFO) == 0 {
		return 0
	}
	b := f.rxFIFO[0]
	f.rxFIFO = f.rxFIFO[1:]
	return uint32(b)
}

func (f *fakeSSP) WriteData(v uint32) {
	f.sent = append(f.sent, byte(v))
	var in byte
	if len(f.master) > 0 {
		in, f.master = f.master[0], f.master[1:]
	}
	f.rxFIFO = append(f.rxFIFO, in)
}

func (f *fakeSSP) InterruptMask() uint32     { return f.imsc }
func (f *fakeSSP) SetInterruptMask(v uint32) { f.imsc = v }

func (f *fakeSSP) RawStatus() uint32 {
	var raw uint32
	if len(f.rxFIFO) > 0 {
		raw |= SSP_INT_RT
		if len(f.rxFIFO) >= 4 {
			raw |= SSP_INT_RX
		}
	}
	if f.overrun {
		raw |= SSP_INT_ROR
	}
	return raw
}

func (f *fakeSSP) MaskedStatus() uint32 { return f.RawStatus() & f.imsc }

func (f *fakeSSP) ClearInterrupt(v uint32) {
	f.icr = append(f.icr, v)
	if v&SSP_ICR_RORIC != 0 {
		f.overrun = false
	}
}

func (f *fakeSSP) ResetPeripheral()          { f.log("reset") }
func (f *fakeSSP) EnableClock()              { f.log("clock") }
func (f *fakeSSP) SetClockDivider(div uint8) { f.log("div %d", div) }
func (f *fakeSSP) SetPinFunction(pin PinLocation, function uint8) {
	f.log("pin %d fn%d", pin, function)
}
func (f *fakeSSP) EnableIRQ(line IRQLine) { f.log("irq %d", line) }

// push places bytes in the receive FIFO as if the master had clocked them.
func (f *fakeSSP) push(b ...byte) {
	f.rxFIFO = append(f.rxFIFO, b...)
}

// pending reports whether the interrupt line would be asserted.
func (f *fakeSSP) pending() bool {
	return f.MaskedStatus() != 0
}

func testSSPConfig() SSPConfig {
	cfg := DefaultSSPConfig()
	cfg.Pins = PinConfig{
		MOSI: LPCPin(0, 21),
		MISO: LPCPin(0, 22),
		SCK:  LPCPin(1, 20),
	}
	return cfg
}

// newTestPort returns an initialized port with the init calls cleared.
func newTestPort(t *testing.T) (*SlavePort, *fakeSSP) {
	t.Helper()
	f := &fakeSSP{}
	p := NewSlavePort(f, f, f)
	require.NoError(t, p.Init(testSSPConfig()))
	f.calls = nil
	return p, f
}

// service runs the interrupt handler while the line is asserted, at most
// limit times, and returns how many times it ran.
func service(p *SlavePort, f *fakeSSP, limit int) int {
	n := 0
	for n < limit && f.pending() {
		p.HandleInterrupt()
		n++
	}
	return n
}
