package protocol

import "testing"

func TestSliceInputBuffer(t *testing.T) {
	buf := NewSliceInputBuffer([]byte{1, 2, 3, 4, 5})

	if buf.Available() != 5 {
		t.Errorf("Expected 5 bytes available, got %d", buf.Available())
	}

	buf.Pop(2)
	if buf.Available() != 3 || buf.Data()[0] != 3 {
		t.Errorf("After popping 2, got %v", buf.Data())
	}

	buf.Pop(10)
	if buf.Available() != 0 {
		t.Errorf("Pop past end should empty the buffer, %d left", buf.Available())
	}
}

func TestScratchOutput(t *testing.T) {
	scratch := NewScratchOutput()
	scratch.Output([]byte{1, 2, 3})
	scratch.Output([]byte{4, 5})

	if scratch.CurPosition() != 5 {
		t.Errorf("Expected position 5, got %d", scratch.CurPosition())
	}

	scratch.Update(0, 99)
	if scratch.Result()[0] != 99 {
		t.Errorf("Expected first byte to be 99, got %d", scratch.Result()[0])
	}

	since := scratch.DataSince(2)
	if len(since) != 3 || since[0] != 3 {
		t.Errorf("DataSince(2) = %v, want [3 4 5]", since)
	}
	if scratch.DataSince(6) != nil {
		t.Error("DataSince past the write position should be nil")
	}

	scratch.Reset()
	if scratch.CurPosition() != 0 {
		t.Errorf("After reset, expected position 0, got %d", scratch.CurPosition())
	}
}

func TestScratchOutputOverflow(t *testing.T) {
	scratch := NewScratchOutput()
	scratch.Output(make([]byte, MessageMax-1))
	scratch.Output([]byte{1, 2, 3})

	if scratch.CurPosition() != MessageMax {
		t.Errorf("Expected position %d, got %d", MessageMax, scratch.CurPosition())
	}
	if scratch.Dropped() != 2 {
		t.Errorf("Expected 2 dropped bytes, got %d", scratch.Dropped())
	}
}

func TestFifoBuffer(t *testing.T) {
	fifo := NewFifoBuffer(10)

	if !fifo.IsEmpty() || fifo.Available() != 0 {
		t.Error("New FIFO should be empty")
	}

	if written := fifo.Write([]byte{1, 2, 3, 4, 5}); written != 5 {
		t.Errorf("Expected to write 5 bytes, wrote %d", written)
	}

	readBuf := make([]byte, 3)
	if read := fifo.Read(readBuf); read != 3 {
		t.Errorf("Expected to read 3 bytes, read %d", read)
	}
	if readBuf[0] != 1 || readBuf[1] != 2 || readBuf[2] != 3 {
		t.Errorf("Read data mismatch: got %v", readBuf)
	}

	fifo.Pop(1)
	if fifo.Available() != 1 {
		t.Errorf("After popping 1, expected 1 available, got %d", fifo.Available())
	}

	fifo.Reset()
	if written := fifo.Write(make([]byte, 12)); written != 9 {
		t.Errorf("Expected to write 9 bytes to size-10 FIFO, wrote %d", written)
	}
}

func TestFifoBufferWriteAll(t *testing.T) {
	fifo := NewFifoBuffer(8)

	if !fifo.WriteAll([]byte{1, 2, 3, 4, 5}) {
		t.Fatal("WriteAll of 5 bytes into empty size-8 FIFO failed")
	}
	if fifo.WriteAll([]byte{6, 7, 8}) {
		t.Error("WriteAll should refuse a write that does not fit")
	}
	if fifo.Available() != 5 {
		t.Errorf("Refused WriteAll must not write partially, have %d bytes", fifo.Available())
	}
	if !fifo.WriteAll([]byte{6, 7}) {
		t.Error("WriteAll of exactly Free() bytes should succeed")
	}
}

func TestFifoBufferWrapAround(t *testing.T) {
	fifo := NewFifoBuffer(5)
	fifo.Write([]byte{1, 2, 3, 4})
	fifo.Read(make([]byte, 2))

	if written := fifo.Write([]byte{5, 6}); written != 2 {
		t.Errorf("Expected to write 2 bytes, wrote %d", written)
	}

	data := fifo.Data()
	if len(data) != 4 || data[0] != 3 || data[3] != 6 {
		t.Errorf("Wrapped Data() = %v, want [3 4 5 6]", data)
	}

	allData := make([]byte, 4)
	if read := fifo.Read(allData); read != 4 {
		t.Errorf("Expected to read 4 bytes, read %d", read)
	}
	if allData[0] != 3 || allData[1] != 4 || allData[2] != 5 || allData[3] != 6 {
		t.Errorf("Wrap-around data mismatch: got %v", allData)
	}
}

func TestScratchOutputFreeAndTruncate(t *testing.T) {
	scratch := NewScratchOutput()
	scratch.Output([]byte{1, 2, 3, 4})

	if scratch.Free() != MessageMax-4 {
		t.Errorf("Expected %d free, got %d", MessageMax-4, scratch.Free())
	}

	scratch.Truncate(1)
	if len(scratch.Result()) != 1 || scratch.Free() != MessageMax-1 {
		t.Errorf("After Truncate(1) got %v", scratch.Result())
	}

	// Truncating forward is a no-op
	scratch.Truncate(3)
	if scratch.CurPosition() != 1 {
		t.Errorf("Truncate past the end moved position to %d", scratch.CurPosition())
	}
}
