package core

import "sync/atomic"

// ReceiveCallback runs in interrupt context once an armed receive has
// filled its buffer. It must not block. It may call BeginReceive again.
type ReceiveCallback func()

// rxState is shared between the main line and the SSP interrupt. armed is
// published last when arming and last when clearing; the other fields are
// only written by the side that currently owns the receive.
type rxState struct {
	armed     uint32
	buf       []byte
	pos       int
	remaining int
	done      ReceiveCallback
}

func (rx *rxState) clear() {
	rx.buf = nil
	rx.pos = 0
	rx.remaining = 0
	rx.done = nil
	atomic.StoreUint32(&rx.armed, 0)
}

// BeginReceive arms an interrupt-driven receive of len(dst) bytes. Each SSP
// receive interrupt stores one byte; when dst is full the receive interrupts
// are masked, the port returns to idle and done is called.
//
// dst must stay untouched by the caller until done runs or the receive is
// cancelled.
func (p *SlavePort) BeginReceive(dst []byte, done ReceiveCallback) error {
	if !p.ready() {
		return ErrNotInitialized
	}
	if len(dst) == 0 {
		return ErrEmptyReceive
	}

	state := disableInterrupts()
	defer restoreInterrupts(state)

	if atomic.LoadUint32(&p.rx.armed) != 0 {
		return ErrBusy
	}
	p.rx.buf = dst
	p.rx.pos = 0
	p.rx.remaining = len(dst)
	p.rx.done = done
	atomic.StoreUint32(&p.rx.armed, 1)

	p.regs.SetInterruptMask(p.regs.InterruptMask() | sspRxInterrupts)
	RecordEvent(EvtRecvArm, uint32(len(dst)), 0)
	return nil
}

// CancelReceive stops an armed receive without calling its callback. It
// reports whether a receive was in flight. Bytes already stored stay in the
// caller's buffer.
func (p *SlavePort) CancelReceive() bool {
	if !p.ready() {
		return false
	}

	state := disableInterrupts()
	defer restoreInterrupts(state)

	p.regs.SetInterruptMask(p.regs.InterruptMask() &^ sspRxInterrupts)
	if atomic.LoadUint32(&p.rx.armed) == 0 {
		return false
	}
	got := p.rx.pos
	p.rx.clear()
	atomic.AddUint32(&p.cancelled, 1)
	RecordEvent(EvtRecvCancel, uint32(got), 0)
	return true
}

// Receiving reports whether a receive is armed.
func (p *SlavePort) Receiving() bool {
	return atomic.LoadUint32(&p.rx.armed) != 0
}

// ReceiveProgress returns how many bytes the armed receive has stored and
// how many it still expects. Both are zero when idle.
func (p *SlavePort) ReceiveProgress() (received, remaining int) {
	state := disableInterrupts()
	received, remaining = p.rx.pos, p.rx.remaining
	restoreInterrupts(state)
	return received, remaining
}

// HandleInterrupt is the SSP interrupt service routine body. It moves at
// most one byte per call. With no receive armed a pending byte is read and
// dropped so the interrupt does not retrigger. The overrun and timeout
// interrupts are acknowledged on every call.
//
// Overrun is not unmasked; it is read from the raw status, since a full
// receive FIFO always has the RX interrupt pending alongside it.
func (p *SlavePort) HandleInterrupt() {
	mis := p.regs.MaskedStatus()

	if p.regs.RawStatus()&SSP_INT_ROR != 0 {
		atomic.AddUint32(&p.overruns, 1)
		RecordEvent(EvtOverrun, 0, 0)
	}

	if mis&sspRxInterrupts != 0 {
		if atomic.LoadUint32(&p.rx.armed) != 0 {
			p.receiveByte()
		} else {
			p.regs.ReadData()
			atomic.AddUint32(&p.drained, 1)
			RecordEvent(EvtRecvDrain, 0, 0)
		}
	}

	p.regs.ClearInterrupt(SSP_ICR_RORIC | SSP_ICR_RTIC)
}

func (p *SlavePort) receiveByte() {
	rx := &p.rx
	rx.buf[rx.pos] = byte(p.regs.ReadData())
	rx.pos++
	rx.remaining--
	if rx.remaining > 0 {
		return
	}

	p.regs.SetInterruptMask(p.regs.InterruptMask() &^ sspRxInterrupts)
	done, n := rx.done, rx.pos
	rx.clear()
	atomic.AddUint32(&p.completed, 1)
	RecordEvent(EvtRecvDone, uint32(n), 0)

	// Idle before the callback, so it may re-arm.
	if done != nil {
		done()
	}
}
