package wakeword

import "testing"

func TestRingBufferWriteReadRoundTrip(t *testing.T) {
	rb := NewRingBuffer(16)
	rb.Write([]byte{1, 2, 3, 4})

	out := make([]byte, 4)
	n := rb.Read(out)
	if n != 4 {
		t.Fatalf("expected to read 4 bytes, got %d", n)
	}
	for i, b := range []byte{1, 2, 3, 4} {
		if out[i] != b {
			t.Errorf("byte %d: expected %d, got %d", i, b, out[i])
		}
	}
}

func TestRingBufferOverwritesOldestOnOverflow(t *testing.T) {
	rb := NewRingBuffer(4)
	rb.Write([]byte{1, 2, 3, 4})
	rb.Write([]byte{5, 6}) // must not block; oldest bytes are discarded

	if rb.Available() > rb.Capacity() {
		t.Fatalf("available (%d) exceeds capacity (%d)", rb.Available(), rb.Capacity())
	}
}

func TestRingBufferAvailablePlusFreeEqualsCapacity(t *testing.T) {
	rb := NewRingBuffer(32)
	rb.Write([]byte{1, 2, 3, 4, 5})

	if got := rb.Available() + rb.FreeSpace(); got != rb.Capacity() {
		t.Errorf("expected available+free == capacity (%d), got %d", rb.Capacity(), got)
	}
}

func TestRingBufferPeekDoesNotConsume(t *testing.T) {
	rb := NewRingBuffer(16)
	rb.Write([]byte{1, 2, 3, 4})

	peeked := make([]byte, 2)
	n := rb.Peek(1, peeked)
	if n != 2 {
		t.Fatalf("expected to peek 2 bytes, got %d", n)
	}
	if peeked[0] != 2 || peeked[1] != 3 {
		t.Errorf("expected peeked [2 3], got %v", peeked)
	}

	// Peek must not have consumed anything: a full read still yields
	// all 4 original bytes.
	out := make([]byte, 4)
	n = rb.Read(out)
	if n != 4 {
		t.Fatalf("expected read of 4 bytes after peek, got %d", n)
	}
}
