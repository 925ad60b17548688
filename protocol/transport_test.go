package protocol

import (
	"bytes"
	"errors"
	"testing"
)

type received struct {
	id   uint16
	args []int32
}

// recorder decodes every message as cmdID followed by argc signed VLQs.
type recorder struct {
	argc int
	msgs []received
}

func (r *recorder) handle(t *Transport, cmdID uint16, data *[]byte) error {
	msg := received{id: cmdID}
	for i := 0; i < r.argc; i++ {
		v, err := DecodeVLQInt(data)
		if err != nil {
			return err
		}
		msg.args = append(msg.args, v)
	}
	r.msgs = append(r.msgs, msg)
	return nil
}

func encodeFrame(seq uint8, cmdID uint16, args ...int32) []byte {
	out := NewScratchOutput()
	tr := NewTransport(out, nil)
	for tr.Sequence() != seq {
		tr.Advance()
	}
	tr.SendCommand(cmdID, func(o OutputBuffer) {
		for _, a := range args {
			EncodeVLQInt(o, a)
		}
	})
	return append([]byte(nil), out.Result()...)
}

func TestEncodeFrameLayout(t *testing.T) {
	frame := encodeFrame(0x13, 7, 300)

	if int(frame[MessagePositionLen]) != len(frame) {
		t.Errorf("length byte %d, frame is %d bytes", frame[0], len(frame))
	}
	if frame[MessagePositionSeq] != 0x13 {
		t.Errorf("sequence 0x%02X, want 0x13", frame[1])
	}
	if frame[len(frame)-1] != MessageValueSync {
		t.Errorf("frame must end with sync byte, got 0x%02X", frame[len(frame)-1])
	}
	crc := CRC16(frame[:len(frame)-MessageTrailerSize])
	if frame[len(frame)-3] != byte(crc>>8) || frame[len(frame)-2] != byte(crc) {
		t.Error("CRC trailer mismatch")
	}
}

func TestReceiveDispatchesAndEchoesSequence(t *testing.T) {
	rec := &recorder{argc: 2}
	tr := NewTransport(NewScratchOutput(), rec.handle)

	input := NewSliceInputBuffer(append(encodeFrame(0x15, 4, 101325, -250), encodeFrame(0x16, 9, 1, 2)...))
	tr.Receive(input)

	if len(rec.msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(rec.msgs))
	}
	if rec.msgs[0].id != 4 || rec.msgs[0].args[0] != 101325 || rec.msgs[0].args[1] != -250 {
		t.Errorf("first message decoded as %+v", rec.msgs[0])
	}
	if tr.Sequence() != 0x16 {
		t.Errorf("outgoing sequence 0x%02X, want 0x16", tr.Sequence())
	}
	if input.Available() != 0 {
		t.Errorf("%d bytes left unconsumed", input.Available())
	}
	if st := tr.Stats(); st.Frames != 2 || st.CRCErrors != 0 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestReceiveKeepsPartialFrame(t *testing.T) {
	rec := &recorder{argc: 1}
	tr := NewTransport(NewScratchOutput(), rec.handle)
	frame := encodeFrame(0x10, 2, 5)

	input := NewSliceInputBuffer(frame[:len(frame)-2])
	tr.Receive(input)
	if len(rec.msgs) != 0 {
		t.Fatal("partial frame must not be dispatched")
	}
	if input.Available() != len(frame)-2 {
		t.Errorf("partial frame should stay buffered, %d bytes left", input.Available())
	}
}

func TestReceiveResyncsAfterCorruption(t *testing.T) {
	rec := &recorder{argc: 1}
	tr := NewTransport(NewScratchOutput(), rec.handle)

	bad := encodeFrame(0x10, 1, 42)
	bad[2] ^= 0xFF
	good := encodeFrame(0x11, 3, 43)

	tr.Receive(NewSliceInputBuffer(append(bad, good...)))

	if len(rec.msgs) != 1 || rec.msgs[0].id != 3 || rec.msgs[0].args[0] != 43 {
		t.Fatalf("expected only the good frame, got %+v", rec.msgs)
	}
	st := tr.Stats()
	if st.CRCErrors != 1 || st.Resyncs != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestReceiveRejectsBadDestination(t *testing.T) {
	rec := &recorder{argc: 1}
	tr := NewTransport(NewScratchOutput(), rec.handle)

	frame := encodeFrame(0x10, 1, 1)
	frame[MessagePositionSeq] = 0x20
	tr.Receive(NewSliceInputBuffer(frame))

	if len(rec.msgs) != 0 {
		t.Error("frame with foreign destination must be dropped")
	}
	if tr.Stats().Malformed != 1 {
		t.Errorf("expected 1 malformed frame, got %+v", tr.Stats())
	}
}

func TestReceiveCountsHandlerErrors(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	tr := NewTransport(NewScratchOutput(), func(_ *Transport, _ uint16, _ *[]byte) error {
		calls++
		return boom
	})

	payload := NewScratchOutput()
	EncodeVLQUint(payload, 1)
	EncodeVLQUint(payload, 2)
	src := NewTransport(NewScratchOutput(), nil)
	src.EncodeFrame(func(o OutputBuffer) { o.Output(payload.Result()) })

	tr.Receive(NewSliceInputBuffer(src.output.(*ScratchOutput).Result()))

	if calls != 1 {
		t.Errorf("dispatch should stop at first error, handler called %d times", calls)
	}
	if tr.Stats().HandlerErrors != 1 {
		t.Errorf("expected 1 handler error, got %+v", tr.Stats())
	}
}

func TestHandlerCanRespond(t *testing.T) {
	out := NewScratchOutput()
	tr := NewTransport(out, func(t *Transport, cmdID uint16, data *[]byte) error {
		v, err := DecodeVLQInt(data)
		if err != nil {
			return err
		}
		t.SendCommand(cmdID+1, func(o OutputBuffer) { EncodeVLQInt(o, v*2) })
		return nil
	})

	tr.Receive(NewSliceInputBuffer(encodeFrame(0x1A, 5, 21)))

	if want := encodeFrame(0x1A, 6, 42); !bytes.Equal(out.Result(), want) {
		t.Errorf("response %x, want %x", out.Result(), want)
	}
}

func TestAdvanceWraps(t *testing.T) {
	tr := NewTransport(NewScratchOutput(), nil)
	for i := 0; i < 16; i++ {
		tr.Advance()
	}
	if tr.Sequence() != MessageDest {
		t.Errorf("sequence after 16 advances 0x%02X, want 0x%02X", tr.Sequence(), MessageDest)
	}
	tr.Advance()
	tr.Reset()
	if tr.Sequence() != MessageDest {
		t.Errorf("Reset should restore sequence, got 0x%02X", tr.Sequence())
	}
}

func TestEncodeFrameRollsBackWhenFull(t *testing.T) {
	out := NewScratchOutput()
	out.Output(make([]byte, MessageMax-8))
	tr := NewTransport(out, nil)

	tr.SendCommand(1, func(o OutputBuffer) {
		for i := 0; i < 4; i++ {
			EncodeVLQInt(o, 100000)
		}
	})

	if out.CurPosition() != MessageMax-8 {
		t.Errorf("partial frame left in output, position %d", out.CurPosition())
	}
	if tr.Stats().Dropped != 1 {
		t.Errorf("expected 1 dropped frame, got %+v", tr.Stats())
	}

	// A frame that fits still goes out whole
	tr.SendCommand(1, nil)
	if out.CurPosition() != MessageMax-8+MessageLengthMin+1 {
		t.Errorf("small frame not written, position %d", out.CurPosition())
	}
}

func TestEncodeFrameDropsOversizedFrame(t *testing.T) {
	out := NewScratchOutput()
	tr := NewTransport(out, nil)

	tr.EncodeFrame(func(o OutputBuffer) { o.Output(make([]byte, MessageLengthMax)) })

	if out.CurPosition() != 0 || tr.Stats().Dropped != 1 {
		t.Errorf("oversized frame kept: position %d, stats %+v", out.CurPosition(), tr.Stats())
	}
}

func TestReceiveWaitsForOutputRoom(t *testing.T) {
	out := NewScratchOutput()
	tr := NewTransport(out, func(t *Transport, cmdID uint16, data *[]byte) error {
		t.SendCommand(cmdID, func(o OutputBuffer) { o.Output(make([]byte, 40)) })
		return nil
	})

	var stream []byte
	for i := 0; i < 6; i++ {
		stream = append(stream, encodeFrame(0x10, 2)...)
	}
	input := NewSliceInputBuffer(stream)

	// Five 46 byte responses leave less than a frame free
	tr.Receive(input)
	if tr.Stats().Frames != 5 {
		t.Fatalf("expected 5 frames dispatched, got %+v", tr.Stats())
	}
	if input.Available() != len(encodeFrame(0x10, 2)) {
		t.Errorf("undispatched frame should stay in input, %d bytes left", input.Available())
	}

	out.Reset()
	tr.Receive(input)
	if tr.Stats().Frames != 6 || input.Available() != 0 || tr.Stats().Dropped != 0 {
		t.Errorf("after draining output got %+v, %d left", tr.Stats(), input.Available())
	}
}
