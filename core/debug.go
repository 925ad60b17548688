package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event is one entry of the post-mortem event ring.
type Event struct {
	Type   uint8
	Clock  uint32 // System ticks when recorded
	Value1 uint32
	Value2 uint32
}

// Event type codes
const (
	EvtInit         = 1  // Port initialized (cpsr, scr)
	EvtTransfer     = 2  // Polled transfer finished (bytes)
	EvtTimeout      = 3  // Bounded wait expired (bytes done, bytes wanted)
	EvtRecvArm      = 4  // Receive armed (length)
	EvtRecvDone     = 5  // Receive completed (length)
	EvtRecvDrain    = 6  // Byte dropped with no receive armed
	EvtRecvCancel   = 7  // Receive cancelled (bytes stored)
	EvtOverrun      = 8  // Receive FIFO overrun
	EvtLinkFrame    = 9  // Frame queued for the transport (length)
	EvtLinkReject   = 10 // Header byte was not a frame length (byte)
	EvtLinkOverflow = 11 // Frame dropped, ring full (length)
	EvtLinkArmFail  = 12 // Receive could not be armed (length)
)

var eventNames = [...]string{
	EvtInit:         "INIT",
	EvtTransfer:     "TRANSFER",
	EvtTimeout:      "TIMEOUT!",
	EvtRecvArm:      "RECV_ARM",
	EvtRecvDone:     "RECV_DONE",
	EvtRecvDrain:    "RECV_DRAIN",
	EvtRecvCancel:   "RECV_CANCEL",
	EvtOverrun:      "OVERRUN!",
	EvtLinkFrame:    "LINK_FRAME",
	EvtLinkReject:   "LINK_REJECT",
	EvtLinkOverflow: "LINK_OVERFLOW!",
	EvtLinkArmFail:  "LINK_ARM_FAIL!",
}

// EventName returns the dump label of an event type.
func EventName(t uint8) string {
	if int(t) < len(eventNames) && eventNames[t] != "" {
		return eventNames[t]
	}
	return "UNKNOWN"
}

const EventRingSize = 32

var (
	debugPrintln DebugWriter = func(s string) {}

	// Off by default; printing from the link path skews timing
	debugEnabled bool

	eventRing     [EventRingSize]Event
	eventRingHead uint8

	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer.
// Never call it from interrupt context; use RecordEvent there.
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking)
// Returns immediately even if channel is full (drops message)
func DebugAsync(msg string) {
	if debugChan != nil && debugEnabled {
		select {
		case debugChan <- msg:
		default:
		}
	}
}

// RecordEvent stores an event in the ring. Safe from interrupt context:
// it neither allocates nor blocks.
func RecordEvent(eventType uint8, value1, value2 uint32) {
	state := disableInterrupts()
	idx := eventRingHead
	eventRing[idx] = Event{
		Type:   eventType,
		Clock:  GetTime(),
		Value1: value1,
		Value2: value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
	restoreInterrupts(state)
}

// Events returns the recorded events, oldest first.
func Events() []Event {
	out := make([]Event, 0, EventRingSize)
	state := disableInterrupts()
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.Type != 0 {
			out = append(out, evt)
		}
	}
	restoreInterrupts(state)
	return out
}

// DumpEventRing writes the event ring through the debug writer, oldest
// first. Call it after a fault, outside interrupt context.
func DumpEventRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[EVENT] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[EVENT] " + EventName(evt.Type) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[EVENT] === End Dump ===")
}

// ClearEventRing empties the ring.
func ClearEventRing() {
	state := disableInterrupts()
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventRingHead = 0
	restoreInterrupts(state)
}
