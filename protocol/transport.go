package protocol

import "sync/atomic"

// CommandHandler handles one decoded message. It must consume its own
// arguments from data; t is the transport the message arrived on and is
// where any response should be encoded.
type CommandHandler func(t *Transport, cmdID uint16, data *[]byte) error

// Stats counts frame-level events seen by Receive.
type Stats struct {
	Frames        uint32 // Frames accepted and dispatched
	CRCErrors     uint32 // Frames dropped on checksum mismatch
	Malformed     uint32 // Bad length, destination or trailer
	Resyncs       uint32 // Times the sync byte was hunted for and found
	HandlerErrors uint32 // Frames whose dispatch stopped on an error
	Dropped       uint32 // Outgoing frames discarded for lack of room
}

// Transport frames outgoing messages and parses incoming ones.
type Transport struct {
	synced uint32 // atomic bool
	seq    uint32 // atomic, sequence byte stamped on outgoing frames

	output  OutputBuffer
	handler CommandHandler

	frames        uint32
	crcErrors     uint32
	malformed     uint32
	resyncs       uint32
	handlerErrors uint32
	dropped       uint32
}

func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	return &Transport{
		synced:  1,
		seq:     MessageDest,
		output:  output,
		handler: handler,
	}
}

// Receive consumes whole frames from input and dispatches their messages.
// A trailing partial frame is left in input for the next call. Dispatch also
// stops while the output has less than one maximum frame free; the frames
// not yet dispatched stay in input.
//
// Accepted frames set the outgoing sequence to their own, so responses
// echo the sequence of the request that produced them.
func (t *Transport) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if !t.getSynchronized() {
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}
			if syncPos < 0 {
				data = nil
				break
			}
			data = data[syncPos+1:]
			t.setSynchronized(true)
			atomic.AddUint32(&t.resyncs, 1)
			continue
		}

		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if !FrameLengthValid(msgLen) {
			t.reject(&t.malformed)
			continue
		}

		seq := data[MessagePositionSeq]
		if seq&^MessageSeqMask != MessageDest {
			t.reject(&t.malformed)
			continue
		}

		if len(data) < msgLen {
			break
		}

		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			t.reject(&t.malformed)
			continue
		}

		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			t.reject(&t.crcErrors)
			continue
		}

		if t.output.Free() < MessageLengthMax {
			break
		}

		frame := data[MessageHeaderSize : msgLen-MessageTrailerSize]
		data = data[msgLen:]

		atomic.StoreUint32(&t.seq, uint32(seq))
		atomic.AddUint32(&t.frames, 1)
		if err := t.parseFrame(frame); err != nil {
			atomic.AddUint32(&t.handlerErrors, 1)
		}
	}

	consumed := input.Available() - len(data)
	if consumed > 0 {
		input.Pop(consumed)
	}
}

func (t *Transport) reject(counter *uint32) {
	atomic.AddUint32(counter, 1)
	t.setSynchronized(false)
}

// parseFrame dispatches each message of a frame in order. Dispatch stops at
// the first handler error since the remaining arguments can no longer be
// located.
func (t *Transport) parseFrame(frame []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			t.setSynchronized(false)
			err = errHandlerPanic
		}
	}()

	for len(frame) > 0 {
		cmdID, err := DecodeVLQUint(&frame)
		if err != nil {
			t.setSynchronized(false)
			return err
		}
		if t.handler == nil {
			return errNoHandler
		}
		if err := t.handler(t, uint16(cmdID), &frame); err != nil {
			return err
		}
	}
	return nil
}

// EncodeFrame writes one frame around the payload produced by frameData.
// A frame that does not fit the output, or is longer than MessageLengthMax,
// is rolled back and counted as dropped.
func (t *Transport) EncodeFrame(frameData func(output OutputBuffer)) {
	cursor := t.output.CurPosition()

	seq := uint8(atomic.LoadUint32(&t.seq))
	t.output.Output([]byte{0, seq})

	frameData(t.output)

	changed := len(t.output.DataSince(cursor))
	if t.output.Free() < MessageTrailerSize || changed+MessageTrailerSize > MessageLengthMax {
		t.output.Truncate(cursor)
		atomic.AddUint32(&t.dropped, 1)
		return
	}
	t.output.Update(cursor, uint8(changed+MessageTrailerSize))

	crc := CRC16(t.output.DataSince(cursor))
	t.output.Output([]byte{
		uint8(crc >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})
}

// SendCommand encodes a single message as its own frame.
func (t *Transport) SendCommand(cmdID uint16, args func(output OutputBuffer)) {
	t.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
}

// Sequence returns the sequence byte of the next outgoing frame.
func (t *Transport) Sequence() uint8 {
	return uint8(atomic.LoadUint32(&t.seq))
}

// Advance moves the outgoing sequence on by one. The requesting side calls
// it after each frame it sends.
func (t *Transport) Advance() {
	seq := uint8(atomic.LoadUint32(&t.seq))
	next := ((seq + 1) & MessageSeqMask) | MessageDest
	atomic.StoreUint32(&t.seq, uint32(next))
}

// Stats returns a snapshot of the receive counters.
func (t *Transport) Stats() Stats {
	return Stats{
		Frames:        atomic.LoadUint32(&t.frames),
		CRCErrors:     atomic.LoadUint32(&t.crcErrors),
		Malformed:     atomic.LoadUint32(&t.malformed),
		Resyncs:       atomic.LoadUint32(&t.resyncs),
		HandlerErrors: atomic.LoadUint32(&t.handlerErrors),
		Dropped:       atomic.LoadUint32(&t.dropped),
	}
}

// Reset returns the transport to its initial synchronized state. Counters
// are kept.
func (t *Transport) Reset() {
	t.setSynchronized(true)
	atomic.StoreUint32(&t.seq, MessageDest)
}

func (t *Transport) getSynchronized() bool {
	return atomic.LoadUint32(&t.synced) != 0
}

func (t *Transport) setSynchronized(val bool) {
	if val {
		atomic.StoreUint32(&t.synced, 1)
	} else {
		atomic.StoreUint32(&t.synced, 0)
	}
}
