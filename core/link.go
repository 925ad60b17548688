package core

import (
	"sync/atomic"

	"gossp/protocol"
)

// Frames the receive interrupt may queue ahead of Poll.
const linkRingFrames = 4

// LinkStats reports the state of an SSPLink.
type LinkStats struct {
	Transport protocol.Stats
	Port      SSPStats
	Rejected  uint32 // Header bytes that were not a frame length
	Overflows uint32 // Frames dropped because the ring was full

	// Receives the port refused to arm. Poll re-arms a link left idle.
	ArmFailures uint32
}

// SSPLink carries protocol frames over a SlavePort.
//
// Frames are assembled in interrupt context: a one byte receive picks up
// the length, then the callback re-arms for the rest of the frame. Whole
// frames go into a ring that Poll drains on the main line. Responses are
// buffered until Flush shifts them out to the master.
type SSPLink struct {
	port  *SlavePort
	polls uint32

	// Interrupt side
	frame    [protocol.MessageLengthMax]byte
	frameLen int
	onHeader ReceiveCallback
	onBody   ReceiveCallback
	ring     *protocol.FifoBuffer

	// Main line side
	inbox     [2 * protocol.MessageLengthMax]byte
	inboxLen  int
	out       *protocol.ScratchOutput
	transport *protocol.Transport

	running     uint32 // atomic bool
	rejected    uint32
	overflows   uint32
	armFailures uint32
}

// NewSSPLink returns a link dispatching into reg. polls bounds the waits
// of Flush (0 waits forever).
func NewSSPLink(port *SlavePort, reg *CommandRegistry, polls uint32) *SSPLink {
	l := &SSPLink{
		port:  port,
		polls: polls,
		ring:  protocol.NewFifoBuffer(linkRingFrames*protocol.MessageLengthMax + 1),
		out:   protocol.NewScratchOutput(),
	}
	l.transport = protocol.NewTransport(l.out, reg.Serve)
	// Bound once; a method value per arm would allocate in the ISR.
	l.onHeader = l.headerDone
	l.onBody = l.bodyDone
	return l
}

// Start arms the receiver for the next frame header.
func (l *SSPLink) Start() error {
	atomic.StoreUint32(&l.running, 1)
	return l.armHeader()
}

// Stop cancels reception. A partially received frame is lost.
func (l *SSPLink) Stop() {
	atomic.StoreUint32(&l.running, 0)
	l.port.CancelReceive()
}

func (l *SSPLink) armHeader() error {
	if atomic.LoadUint32(&l.running) == 0 {
		return nil
	}
	l.frameLen = 0
	return l.arm(l.frame[:1], l.onHeader)
}

func (l *SSPLink) arm(dst []byte, done ReceiveCallback) error {
	err := l.port.BeginReceive(dst, done)
	if err != nil {
		atomic.AddUint32(&l.armFailures, 1)
		RecordEvent(EvtLinkArmFail, uint32(len(dst)), 0)
	}
	return err
}

func (l *SSPLink) headerDone() {
	n := int(l.frame[0])
	if !protocol.FrameLengthValid(n) {
		// Sync bytes between frames are expected
		if n != protocol.MessageValueSync {
			atomic.AddUint32(&l.rejected, 1)
			RecordEvent(EvtLinkReject, uint32(n), 0)
		}
		l.armHeader()
		return
	}
	l.frameLen = n
	l.arm(l.frame[1:n], l.onBody)
}

func (l *SSPLink) bodyDone() {
	n := l.frameLen
	if l.ring.WriteAll(l.frame[:n]) {
		RecordEvent(EvtLinkFrame, uint32(n), 0)
	} else {
		atomic.AddUint32(&l.overflows, 1)
		RecordEvent(EvtLinkOverflow, uint32(n), 0)
	}
	l.armHeader()
}

// Poll dispatches the frames received since the last call and returns how
// many were accepted. Responses are queued for Flush; once the response
// buffer runs short the remaining frames wait for the next Poll.
func (l *SSPLink) Poll() int {
	state := disableInterrupts()
	n := l.ring.Read(l.inbox[l.inboxLen:])
	restoreInterrupts(state)

	// A running link with nothing armed lost a receive to an arm failure
	if atomic.LoadUint32(&l.running) != 0 && !l.port.Receiving() {
		l.armHeader()
	}

	l.inboxLen += n
	if l.inboxLen == 0 {
		return 0
	}

	before := l.transport.Stats().Frames
	in := protocol.NewSliceInputBuffer(l.inbox[:l.inboxLen])
	l.transport.Receive(in)
	l.inboxLen = copy(l.inbox[:], in.Data())
	return int(l.transport.Stats().Frames - before)
}

// Pending returns the response bytes waiting for Flush.
func (l *SSPLink) Pending() int {
	return len(l.out.Result())
}

// Flush shifts queued responses out to the master. The receiver is
// stopped for the duration and restarted afterwards, even on timeout.
func (l *SSPLink) Flush() error {
	data := l.out.Result()
	if len(data) == 0 {
		return nil
	}

	l.Stop()
	err := l.port.SendBounded(data, l.polls)
	l.out.Reset()
	if startErr := l.Start(); err == nil {
		err = startErr
	}
	return err
}

// LinkStatus implements StatusSource.
func (l *SSPLink) LinkStatus() LinkStatus {
	ts := l.transport.Stats()
	ps := l.port.Stats()
	return LinkStatus{
		Frames:    ts.Frames,
		CRCErrors: ts.CRCErrors,
		Drained:   ps.Drained,
		Timeouts:  ps.TimedOut,
	}
}

// Stats returns the full link counters.
func (l *SSPLink) Stats() LinkStats {
	return LinkStats{
		Transport: l.transport.Stats(),
		Port:      l.port.Stats(),
		Rejected:  atomic.LoadUint32(&l.rejected),
		Overflows: atomic.LoadUint32(&l.overflows),

		ArmFailures: atomic.LoadUint32(&l.armFailures),
	}
}
