//go:build rp2040

package main

import (
	"device/rp"
	"machine"
	"runtime/interrupt"

	"gossp/core"
)

// pl022 is the SPI1 block; RP2040 uses the same ARM PL022 as the LPC SSP.
type pl022 struct {
	bus *rp.SPI0_Type
}

func (p pl022) SetControl0(v uint32)      { p.bus.SSPCR0.Set(v) }
func (p pl022) SetControl1(v uint32)      { p.bus.SSPCR1.Set(v) }
func (p pl022) SetPrescale(v uint32)      { p.bus.SSPCPSR.Set(v) }
func (p pl022) Status() uint32            { return p.bus.SSPSR.Get() }
func (p pl022) ReadData() uint32          { return p.bus.SSPDR.Get() }
func (p pl022) WriteData(v uint32)        { p.bus.SSPDR.Set(v) }
func (p pl022) InterruptMask() uint32     { return p.bus.SSPIMSC.Get() }
func (p pl022) SetInterruptMask(v uint32) { p.bus.SSPIMSC.Set(v) }
func (p pl022) RawStatus() uint32         { return p.bus.SSPRIS.Get() }
func (p pl022) MaskedStatus() uint32      { return p.bus.SSPMIS.Get() }
func (p pl022) ClearInterrupt(v uint32)   { p.bus.SSPICR.Set(v) }

// rpSystem resets SPI1 and routes its pins.
type rpSystem struct{}

func (rpSystem) ResetPeripheral() {
	rp.RESETS.RESET.SetBits(rp.RESETS_RESET_SPI1)
	rp.RESETS.RESET.ClearBits(rp.RESETS_RESET_SPI1)
	for !rp.RESETS.RESET_DONE.HasBits(rp.RESETS_RESET_SPI1) {
	}
}

// clk_peri is running from boot and SPI has no gate of its own.
func (rpSystem) EnableClock() {}

// SPI is fed from clk_peri directly; there is no divider to program.
func (rpSystem) SetClockDivider(uint8) {}

func (rpSystem) SetPinFunction(pin core.PinLocation, _ uint8) {
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinSPI})
}

type rpIRQ struct{}

func (rpIRQ) EnableIRQ(core.IRQLine) {
	intr := interrupt.New(rp.IRQ_SPI1_IRQ, func(interrupt.Interrupt) {
		core.SSP1IRQHandler()
	})
	intr.Enable()
}

// sspConfig is the slave setup of this board: MOSI GP12, MISO GP11,
// SCK GP10, with CSn on GP13.
func sspConfig() core.SSPConfig {
	cfg := core.DefaultSSPConfig()
	cfg.Routes = core.RP2040SPI1Routes
	cfg.Pins = core.PinConfig{MOSI: 12, MISO: 11, SCK: 10}
	cfg.PeripheralClock = machine.CPUFrequency()
	cfg.IRQ = core.IRQLine(rp.IRQ_SPI1_IRQ)
	return cfg
}

const sspCSn = machine.GP13

func newPL022() pl022 {
	return pl022{bus: rp.SPI1}
}
