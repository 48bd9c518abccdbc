package webhook

import (
	"errors"
	"sync"
)

var (
	// ErrChannelClosed is returned by Push after the queue was closed.
	ErrChannelClosed = errors.New("webhook: channel closed")
	// ErrChannelFull is returned by Push when the consumer has fallen behind.
	ErrChannelFull = errors.New("webhook: channel full")
)

// DefaultQueueSize is the per-subscriber buffer used by the HTTP endpoints.
const DefaultQueueSize = 64

// Queue is a bounded Channel drained by a single transport writer. A push to
// a full queue closes it: a consumer that cannot keep up is treated as
// disconnected and its stream ends, prompting the browser to reconnect.
type Queue struct {
	mu     sync.Mutex
	ch     chan []byte
	done   chan struct{}
	closed bool
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		ch:   make(chan []byte, size),
		done: make(chan struct{}),
	}
}

func (q *Queue) Push(msg []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrChannelClosed
	}
	select {
	case q.ch <- msg:
		return nil
	default:
		q.closeLocked()
		return ErrChannelFull
	}
}

// C returns the message channel. It is never closed; select on Done as well.
func (q *Queue) C() <-chan []byte { return q.ch }

// Done is closed once the queue is closed.
func (q *Queue) Done() <-chan struct{} { return q.done }

// Close marks the queue closed. Idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closeLocked()
	q.mu.Unlock()
}

func (q *Queue) closeLocked() {
	if !q.closed {
		q.closed = true
		close(q.done)
	}
}
