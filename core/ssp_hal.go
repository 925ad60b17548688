package core

// SSP register bits. The layout is that of the ARM PL022 synchronous serial
// port found on LPC13xx (SSP0/SSP1) and RP2040 (SPI0/SPI1).
const (
	// Status register (SR)
	SSP_SR_TFE = 1 << 0 // Transmit FIFO empty
	SSP_SR_TNF = 1 << 1 // Transmit FIFO not full
	SSP_SR_RNE = 1 << 2 // Receive FIFO not empty
	SSP_SR_RFF = 1 << 3 // Receive FIFO full
	SSP_SR_BSY = 1 << 4 // Shifting a frame or TX FIFO not empty

	// Control register 0 (CR0)
	SSP_CR0_DSS_8BIT  = 0x7 << 0 // Data size select: 8-bit
	SSP_CR0_FRF_SPI   = 0x0 << 4 // Frame format: SPI
	SSP_CR0_CPOL      = 1 << 6
	SSP_CR0_CPHA      = 1 << 7
	SSP_CR0_SCR_SHIFT = 8 // Serial clock rate (bits 15:8)

	// Control register 1 (CR1)
	SSP_CR1_LBM = 1 << 0 // Loopback mode
	SSP_CR1_SSE = 1 << 1 // Port enable
	SSP_CR1_MS  = 1 << 2 // Slave mode
	SSP_CR1_SOD = 1 << 3 // Slave output disable

	// Interrupt mask (IMSC), raw (RIS) and masked (MIS) status
	SSP_INT_ROR = 1 << 0 // Receive overrun
	SSP_INT_RT  = 1 << 1 // Receive timeout
	SSP_INT_RX  = 1 << 2 // Receive FIFO at least half full
	SSP_INT_TX  = 1 << 3 // Transmit FIFO at least half empty

	// Interrupt clear (ICR)
	SSP_ICR_RORIC = 1 << 0
	SSP_ICR_RTIC  = 1 << 1
)

// sspRxInterrupts are the interrupt sources serviced as "receive data
// available". RX alone only fires at half-full, RT covers the tail.
const sspRxInterrupts = SSP_INT_RX | SSP_INT_RT

// SSPRegisters is the register shim of one SSP peripheral. Implementations
// are thin volatile accessors; none of the methods may block.
type SSPRegisters interface {
	SetControl0(v uint32)
	SetControl1(v uint32)
	SetPrescale(v uint32)

	// Status returns SR
	Status() uint32

	// ReadData dequeues one frame from the receive FIFO
	ReadData() uint32

	// WriteData enqueues one frame on the transmit FIFO
	WriteData(v uint32)

	InterruptMask() uint32
	SetInterruptMask(v uint32)

	// RawStatus returns RIS, the interrupt status before masking
	RawStatus() uint32

	// MaskedStatus returns MIS
	MaskedStatus() uint32

	// ClearInterrupt writes ICR
	ClearInterrupt(v uint32)
}

// SystemControl covers the chip-level setup around the peripheral: reset,
// clock gating, clock division and pin function routing.
type SystemControl interface {
	ResetPeripheral()
	EnableClock()
	SetClockDivider(div uint8)
	SetPinFunction(pin PinLocation, function uint8)
}

// IRQLine identifies an interrupt line at the interrupt controller.
type IRQLine uint8

// IRQController enables interrupt lines.
type IRQController interface {
	EnableIRQ(line IRQLine)
}

// SPIMode represents SPI clock polarity and phase (0-3)
// Mode 0: CPOL=0, CPHA=0 (clock idle low, sample on rising edge)
// Mode 1: CPOL=0, CPHA=1 (clock idle low, sample on falling edge)
// Mode 2: CPOL=1, CPHA=0 (clock idle high, sample on falling edge)
// Mode 3: CPOL=1, CPHA=1 (clock idle high, sample on rising edge)
type SPIMode uint8

// control0Bits returns the CPOL/CPHA bits of CR0 for the mode.
func (m SPIMode) control0Bits() uint32 {
	var v uint32
	if m&2 != 0 {
		v |= SSP_CR0_CPOL
	}
	if m&1 != 0 {
		v |= SSP_CR0_CPHA
	}
	return v
}
