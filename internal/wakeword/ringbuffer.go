// Package wakeword implements the embedded wake-word detector core: a
// mutex-guarded PCM ring buffer whose writes never wait for free space,
// feeding a VAD gate, an MFCC
// frontend, and a quantized inference step driving an
// IdleListening/Streaming/Cooldown state machine.
package wakeword

import (
	"sync"

	"github.com/smallnest/ringbuffer"
)

// RingBuffer is the fixed-capacity PCM byte buffer of spec §3: writes
// never block the audio callback (overwrite-on-full), reads advance
// the tail, and Peek supports arbitrary-offset lookahead without
// consuming. Built on the same `smallnest/ringbuffer` library
// `pkg/io/stt/audioRing` already depends on, but operating on raw PCM
// bytes rather than framed AudioInput records: the wake-word frontend
// needs byte-exact windows for its MFCC frame extraction, not
// message-sized chunks.
type RingBuffer struct {
	mu       sync.Mutex
	buf      *ringbuffer.RingBuffer
	capacity int
}

// NewRingBuffer allocates a ring buffer holding capacity bytes of PCM.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{
		buf:      ringbuffer.New(capacity).SetBlocking(false),
		capacity: capacity,
	}
}

// Write appends PCM bytes, discarding the oldest bytes first if the
// buffer would otherwise overflow. Audio capture must never block, so
// this never returns an error for a full buffer.
func (r *RingBuffer) Write(p []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(p) >= r.capacity {
		r.buf.Reset()
		r.buf.Write(p[len(p)-r.capacity:])
		return
	}

	for r.buf.Free() < len(p) {
		discard := make([]byte, min(4096, r.buf.Length()))
		if len(discard) == 0 {
			r.buf.Reset()
			break
		}
		r.buf.Read(discard)
	}
	r.buf.Write(p)
}

// Read drains up to len(p) bytes into p, advancing the tail, and
// returns the number of bytes read.
func (r *RingBuffer) Read(p []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, _ := r.buf.Read(p)
	return n
}

// Peek copies up to len(p) bytes starting offset bytes from the
// current tail, without consuming them, for the MFCC frontend's
// sliding-window lookahead.
func (r *RingBuffer) Peek(offset int, p []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	available := r.buf.Length()
	if offset >= available {
		return 0
	}

	snapshot := make([]byte, available)
	r.buf.Bytes(snapshot)

	n := copy(p, snapshot[offset:])
	return n
}

// Available reports how many unread bytes the buffer currently holds.
func (r *RingBuffer) Available() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Length()
}

// FreeSpace reports how many bytes can still be written before the
// buffer must start discarding. Available()+FreeSpace() == Capacity()
// always holds (spec §3 ring buffer invariant).
func (r *RingBuffer) FreeSpace() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Free()
}

// Capacity returns the buffer's fixed byte capacity.
func (r *RingBuffer) Capacity() int {
	return r.capacity
}
