package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiveCallbackOnLastByte(t *testing.T) {
	p, f := newTestPort(t)

	buf := make([]byte, 4)
	calls := 0
	require.NoError(t, p.BeginReceive(buf, func() {
		calls++
		assert.False(t, p.Receiving(), "port must be idle inside the callback")
	}))
	assert.Equal(t, uint32(SSP_INT_RX|SSP_INT_RT), f.imsc)
	assert.True(t, p.Receiving())

	f.push(1, 2, 3, 4)
	for i := 0; i < 3; i++ {
		p.HandleInterrupt()
	}
	assert.Zero(t, calls)
	got, left := p.ReceiveProgress()
	assert.Equal(t, 3, got)
	assert.Equal(t, 1, left)

	p.HandleInterrupt()
	assert.Equal(t, 1, calls)
	assert.Equal(t, []byte{1, 2, 3, 4}, buf)
	assert.False(t, p.Receiving())
	assert.Zero(t, f.imsc&sspRxInterrupts)
	assert.Equal(t, uint32(1), p.Stats().Completed)

	// Every interrupt is acknowledged
	require.Len(t, f.icr, 4)
	for _, v := range f.icr {
		assert.Equal(t, uint32(SSP_ICR_RORIC|SSP_ICR_RTIC), v)
	}
}

func TestReceiveMovesOneBytePerInterrupt(t *testing.T) {
	p, f := newTestPort(t)

	buf := make([]byte, 2)
	require.NoError(t, p.BeginReceive(buf, nil))
	f.push(0x11, 0x22, 0x33)

	p.HandleInterrupt()
	assert.Len(t, f.rxFIFO, 2)
	p.HandleInterrupt()
	assert.Len(t, f.rxFIFO, 1)

	// Receive interrupts are masked again; the extra byte stays put
	assert.Equal(t, 0, service(p, f, 10))
	assert.Equal(t, []byte{0x11, 0x22}, buf)
	assert.Len(t, f.rxFIFO, 1)
}

func TestInterruptWhileIdleDrainsOneByte(t *testing.T) {
	p, f := newTestPort(t)
	f.imsc = SSP_INT_RT
	f.push(0xDE, 0xAD)

	p.HandleInterrupt()

	assert.Equal(t, []byte{0xAD}, f.rxFIFO)
	assert.Equal(t, uint32(1), p.Stats().Drained)
	assert.Len(t, f.icr, 1)
}

func TestSpuriousInterruptOnlyAcknowledges(t *testing.T) {
	p, f := newTestPort(t)

	buf := make([]byte, 1)
	require.NoError(t, p.BeginReceive(buf, func() { t.Error("callback without data") }))

	p.HandleInterrupt()

	assert.True(t, p.Receiving())
	assert.Len(t, f.icr, 1)
	got, left := p.ReceiveProgress()
	assert.Equal(t, 0, got)
	assert.Equal(t, 1, left)
}

func TestBeginReceiveErrors(t *testing.T) {
	f := &fakeSSP{}
	p := NewSlavePort(f, f, f)
	assert.ErrorIs(t, p.BeginReceive(make([]byte, 1), nil), ErrNotInitialized)

	p, f = newTestPort(t)
	assert.ErrorIs(t, p.BeginReceive(nil, nil), ErrEmptyReceive)
	assert.ErrorIs(t, p.BeginReceive([]byte{}, nil), ErrEmptyReceive)
	assert.False(t, p.Receiving())
	assert.Zero(t, f.imsc)
}

func TestBeginReceiveBusy(t *testing.T) {
	p, f := newTestPort(t)

	first := make([]byte, 2)
	second := make([]byte, 2)
	require.NoError(t, p.BeginReceive(first, nil))
	assert.ErrorIs(t, p.BeginReceive(second, nil), ErrBusy)

	f.push(5, 6)
	service(p, f, 10)
	assert.Equal(t, []byte{5, 6}, first)
	assert.Equal(t, []byte{0, 0}, second)
}

func TestCancelReceive(t *testing.T) {
	p, f := newTestPort(t)
	assert.False(t, p.CancelReceive())

	buf := make([]byte, 4)
	require.NoError(t, p.BeginReceive(buf, func() { t.Error("cancelled receive completed") }))
	f.push(1, 2)
	assert.Equal(t, 2, service(p, f, 10))

	assert.True(t, p.CancelReceive())
	assert.False(t, p.Receiving())
	assert.Zero(t, f.imsc&sspRxInterrupts)
	assert.Equal(t, []byte{1, 2, 0, 0}, buf)
	assert.Equal(t, uint32(1), p.Stats().Cancelled)

	got, left := p.ReceiveProgress()
	assert.Zero(t, got)
	assert.Zero(t, left)

	assert.False(t, p.CancelReceive())

	// The port can be armed again
	require.NoError(t, p.BeginReceive(buf[:1], nil))
}

func TestCallbackMayRearm(t *testing.T) {
	p, f := newTestPort(t)

	header := make([]byte, 1)
	body := make([]byte, 2)
	var order []string

	require.NoError(t, p.BeginReceive(header, func() {
		order = append(order, "header")
		require.NoError(t, p.BeginReceive(body, func() {
			order = append(order, "body")
		}))
	}))

	f.push(0xA0, 0xB0, 0xB1)
	assert.Equal(t, 3, service(p, f, 10))

	assert.Equal(t, []string{"header", "body"}, order)
	assert.Equal(t, []byte{0xA0}, header)
	assert.Equal(t, []byte{0xB0, 0xB1}, body)
	assert.False(t, p.Receiving())
	assert.Equal(t, uint32(2), p.Stats().Completed)
}

func TestReceiveEvents(t *testing.T) {
	ClearEventRing()
	p, f := newTestPort(t)

	require.NoError(t, p.BeginReceive(make([]byte, 1), nil))
	f.push(1)
	p.HandleInterrupt()

	var types []uint8
	for _, evt := range Events() {
		types = append(types, evt.Type)
	}
	assert.Equal(t, []uint8{EvtInit, EvtRecvArm, EvtRecvDone}, types)
}

func TestOverrunCountedFromRawStatus(t *testing.T) {
	ClearEventRing()
	p, f := newTestPort(t)

	buf := make([]byte, 8)
	require.NoError(t, p.BeginReceive(buf, nil))
	assert.Zero(t, f.imsc&SSP_INT_ROR, "overrun stays masked")

	f.push(1, 2, 3, 4, 5, 6, 7, 8)
	f.overrun = true
	p.HandleInterrupt()
	assert.Equal(t, uint32(1), p.Stats().Overruns)
	assert.False(t, f.overrun, "RORIC acknowledges the overrun")

	// Further interrupts do not count it again
	service(p, f, 10)
	assert.Equal(t, uint32(1), p.Stats().Overruns)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, buf)

	var overruns int
	for _, evt := range Events() {
		if evt.Type == EvtOverrun {
			overruns++
		}
	}
	assert.Equal(t, 1, overruns)
}
