package pipeline

import (
	"context"
	"time"

	"github.com/corvid-assistant/corvid/internal/corerrors"
)

// AudioPreGateQueue is the bounded, drop-oldest queue sitting between the
// realtime capture task and the wake-word gate (spec §4.4/§5: "a bounded
// queue with drop-oldest for audio frames prior to wake gating"). Capture
// must never block, so Push always succeeds immediately, discarding the
// oldest buffered frame when full.
type AudioPreGateQueue struct {
	frames chan []int16
	drops  int64
}

func NewAudioPreGateQueue(capacity int) *AudioPreGateQueue {
	return &AudioPreGateQueue{frames: make(chan []int16, capacity)}
}

// Push enqueues a frame, dropping the oldest buffered frame first if the
// queue is already full.
func (q *AudioPreGateQueue) Push(frame []int16) {
	for {
		select {
		case q.frames <- frame:
			return
		default:
			select {
			case <-q.frames:
				q.drops++
			default:
			}
		}
	}
}

func (q *AudioPreGateQueue) Frames() <-chan []int16 { return q.frames }
func (q *AudioPreGateQueue) Drops() int64           { return q.drops }

// PostGateQueue is the bounded, block-on-full queue used once a session
// is actively streaming to ASR (spec §4.4/§5: "block-on-full after wake
// gating ... once the session is active"). A full queue blocks the
// producer up to timeout, then fails with StageTimeout rather than
// blocking forever and starving cancellation.
type PostGateQueue struct {
	frames  chan []int16
	timeout time.Duration
}

func NewPostGateQueue(capacity int, timeout time.Duration) *PostGateQueue {
	return &PostGateQueue{frames: make(chan []int16, capacity), timeout: timeout}
}

// Push blocks until the queue has room, ctx is cancelled, or timeout
// elapses, whichever comes first.
func (q *PostGateQueue) Push(ctx context.Context, frame []int16) error {
	timer := time.NewTimer(q.timeout)
	defer timer.Stop()

	select {
	case q.frames <- frame:
		return nil
	case <-ctx.Done():
		return corerrors.Wrap(corerrors.Cancelled, "post-gate push cancelled", ctx.Err())
	case <-timer.C:
		return corerrors.New(corerrors.StageTimeout, "post-gate queue full past timeout")
	}
}

func (q *PostGateQueue) Frames() <-chan []int16 { return q.frames }

// Close releases the frames channel once the producer is done; receivers
// observe it as channel closure, the same drain-then-stop shape the
// teacher's pipeline uses for its word channel.
func (q *PostGateQueue) Close() { close(q.frames) }
