package core

import "sync/atomic"

// SSPFiller is shifted out for slots with no transmit data.
const SSPFiller = 0xFF

// LPC1347 SSP1 defaults.
const (
	LPC1347_SSP1_IRQ      IRQLine = 14
	LPC1347_SSP_FIFOSIZE          = 8
	LPC1347_SYSTEM_CLOCK          = 72000000
	DefaultSSPRate                = 6000000
)

// SSPConfig holds the one-time configuration of a slave port.
type SSPConfig struct {
	Pins   PinConfig  // Must be set; there is no default routing
	Routes RouteTable // Pins each signal may use

	Mode            SPIMode
	PeripheralClock uint32 // Hz at the SSP clock divider output
	Rate            uint32 // Target serial clock in Hz
	ClockDivider    uint8  // System clock divider feeding the SSP

	FIFODepth int // Entries flushed from the receive FIFO on Init
	IRQ       IRQLine
}

// DefaultSSPConfig returns the LPC1347 SSP1 configuration: 8-bit SPI
// frames, mode 0, 72 MHz / (2 * (5+1)) = 6 MHz. Pins are left unselected.
func DefaultSSPConfig() SSPConfig {
	return SSPConfig{
		Pins:            PinConfig{MOSI: PinNone, MISO: PinNone, SCK: PinNone},
		Routes:          LPC1347SSP1Routes,
		Mode:            0,
		PeripheralClock: LPC1347_SYSTEM_CLOCK,
		Rate:            DefaultSSPRate,
		ClockDivider:    1,
		FIFODepth:       LPC1347_SSP_FIFOSIZE,
		IRQ:             LPC1347_SSP1_IRQ,
	}
}

// clockDividers returns the smallest even prescale (CPSR) and its serial
// clock rate (SCR) giving the fastest clock not above rate:
//
//	rate = pclk / (CPSR * (SCR + 1)),  CPSR even in [2, 254], SCR in [0, 255]
func clockDividers(pclk, rate uint32) (cpsr, scr uint32, err error) {
	if pclk == 0 || rate == 0 || rate > pclk/2 {
		return 0, 0, ErrUnsupportedRate
	}
	for cpsr = 2; cpsr <= 254; cpsr += 2 {
		step := uint64(cpsr) * uint64(rate)
		div := (uint64(pclk) + step - 1) / step
		if div <= 256 {
			return cpsr, uint32(div - 1), nil
		}
	}
	return 0, 0, ErrUnsupportedRate
}

// SSPStats counts receive-path and timeout events of a port.
type SSPStats struct {
	Completed uint32 // Armed receives that filled their buffer
	Drained   uint32 // Bytes read and dropped with no receive armed
	Cancelled uint32 // Receives stopped by CancelReceive
	TimedOut  uint32 // Bounded waits that ran out of polls
	Overruns  uint32 // Receive overrun interrupts seen
}

// SlavePort drives one SSP peripheral in slave mode.
//
// Transfer and the interrupt-driven receive path drain the same receive
// FIFO: never call Transfer (or Send) while a receive is armed.
type SlavePort struct {
	regs SSPRegisters
	sys  SystemControl
	irq  IRQController
	cfg  SSPConfig

	initialized uint32 // atomic bool

	rx rxState

	completed uint32
	drained   uint32
	cancelled uint32
	timeouts  uint32
	overruns  uint32
}

// NewSlavePort binds a port to its registers and system collaborators.
// Init must be called before use.
func NewSlavePort(regs SSPRegisters, sys SystemControl, irq IRQController) *SlavePort {
	return &SlavePort{regs: regs, sys: sys, irq: irq}
}

// Init configures the peripheral as an SPI slave. It validates cfg before
// touching any register, then resets and clocks the block, routes the pins,
// programs the clock, flushes stale receive data, enables the port in
// slave mode, clears the receive state and enables the interrupt line.
func (p *SlavePort) Init(cfg SSPConfig) error {
	if atomic.LoadUint32(&p.initialized) != 0 {
		return ErrAlreadyInitialized
	}

	cfg = cfg.withDefaults()
	routes, err := cfg.Routes.resolve(cfg.Pins)
	if err != nil {
		return err
	}
	cpsr, scr, err := clockDividers(cfg.PeripheralClock, cfg.Rate)
	if err != nil {
		return err
	}

	p.sys.ResetPeripheral()
	p.sys.EnableClock()

	for _, r := range routes {
		p.sys.SetPinFunction(r.pin, r.function)
	}

	p.sys.SetClockDivider(cfg.ClockDivider)
	p.regs.SetControl0(SSP_CR0_DSS_8BIT | SSP_CR0_FRF_SPI | cfg.Mode.control0Bits() | scr<<SSP_CR0_SCR_SHIFT)
	p.regs.SetPrescale(cpsr)

	for i := 0; i < cfg.FIFODepth; i++ {
		p.regs.ReadData()
	}

	p.regs.SetControl1(SSP_CR1_SSE | SSP_CR1_MS)

	p.rx.clear()
	p.cfg = cfg
	atomic.StoreUint32(&p.initialized, 1)

	p.irq.EnableIRQ(cfg.IRQ)

	RecordEvent(EvtInit, cpsr, scr)
	DebugPrintln("[SSP] slave init cpsr=" + utoa(cpsr) + " scr=" + utoa(scr))
	return nil
}

func (cfg SSPConfig) withDefaults() SSPConfig {
	def := DefaultSSPConfig()
	if cfg.Routes == nil {
		cfg.Routes = def.Routes
	}
	if cfg.PeripheralClock == 0 {
		cfg.PeripheralClock = def.PeripheralClock
	}
	if cfg.Rate == 0 {
		cfg.Rate = def.Rate
	}
	if cfg.ClockDivider == 0 {
		cfg.ClockDivider = def.ClockDivider
	}
	if cfg.FIFODepth <= 0 {
		cfg.FIFODepth = def.FIFODepth
	}
	return cfg
}

// Config returns the configuration the port was initialized with.
func (p *SlavePort) Config() SSPConfig {
	return p.cfg
}

func (p *SlavePort) ready() bool {
	return atomic.LoadUint32(&p.initialized) != 0
}

func (p *SlavePort) mustReady() {
	if !p.ready() {
		panic("SSP port not initialized")
	}
}

// Transfer exchanges n bytes with the master, one slot at a time: wait for
// transmit room with the shifter idle, write tx[i] (or SSPFiller when tx is
// nil), wait for the received byte, store it in rx[i] (or drop it when rx
// is nil). It spins without bound; a master that stops clocking hangs the
// caller. rx and tx, when non-nil, must hold at least n bytes.
func (p *SlavePort) Transfer(rx, tx []byte, n int) {
	p.mustReady()
	p.transfer(rx, tx, n, 0)
}

// Send shifts out tx, discarding what the master sends back.
func (p *SlavePort) Send(tx []byte) {
	p.Transfer(nil, tx, len(tx))
}

// TransferBounded is Transfer with every busy-wait limited to polls reads
// of the status register. It returns ErrTimedOut when a wait runs out; the
// bytes exchanged so far stay in rx. polls == 0 waits forever.
func (p *SlavePort) TransferBounded(rx, tx []byte, n int, polls uint32) error {
	if !p.ready() {
		return ErrNotInitialized
	}
	return p.transfer(rx, tx, n, polls)
}

// SendBounded is Send with bounded busy-waits.
func (p *SlavePort) SendBounded(tx []byte, polls uint32) error {
	return p.TransferBounded(nil, tx, len(tx), polls)
}

func (p *SlavePort) transfer(rx, tx []byte, n int, polls uint32) error {
	for i := 0; i < n; i++ {
		// TNF alone is not enough: the shifter must be idle too.
		if !p.waitStatus(SSP_SR_TNF|SSP_SR_BSY, SSP_SR_TNF, polls) {
			return p.timedOut(i, n)
		}
		out := byte(SSPFiller)
		if tx != nil {
			out = tx[i]
		}
		p.regs.WriteData(uint32(out))

		// Read even when rx is nil, or the receive FIFO overflows.
		if !p.waitStatus(SSP_SR_RNE, SSP_SR_RNE, polls) {
			return p.timedOut(i, n)
		}
		in := byte(p.regs.ReadData())
		if rx != nil {
			rx[i] = in
		}
	}
	RecordEvent(EvtTransfer, uint32(n), 0)
	return nil
}

// waitStatus spins until SR&mask == want, reading SR at most polls times
// (forever when polls is 0).
func (p *SlavePort) waitStatus(mask, want, polls uint32) bool {
	for n := uint32(1); ; n++ {
		if p.regs.Status()&mask == want {
			return true
		}
		if polls != 0 && n >= polls {
			return false
		}
	}
}

func (p *SlavePort) timedOut(done, n int) error {
	atomic.AddUint32(&p.timeouts, 1)
	RecordEvent(EvtTimeout, uint32(done), uint32(n))
	return ErrTimedOut
}

// Stats returns a snapshot of the port counters.
func (p *SlavePort) Stats() SSPStats {
	return SSPStats{
		Completed: atomic.LoadUint32(&p.completed),
		Drained:   atomic.LoadUint32(&p.drained),
		Cancelled: atomic.LoadUint32(&p.cancelled),
		TimedOut:  atomic.LoadUint32(&p.timeouts),
		Overruns:  atomic.LoadUint32(&p.overruns),
	}
}

// The board's single SSP slave port.
var ssp1 SlavePort

// InitSSP1 binds and initializes the board's SSP slave port.
func InitSSP1(regs SSPRegisters, sys SystemControl, irq IRQController, cfg SSPConfig) error {
	if ssp1.ready() {
		return ErrAlreadyInitialized
	}
	ssp1.regs, ssp1.sys, ssp1.irq = regs, sys, irq
	return ssp1.Init(cfg)
}

// SSP1 returns the board's SSP slave port.
func SSP1() *SlavePort {
	return &ssp1
}

// SSP1IRQHandler is the interrupt service routine of the board's port.
func SSP1IRQHandler() {
	ssp1.HandleInterrupt()
}
