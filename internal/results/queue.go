// Package results provides a fixed-capacity FIFO queue of classification
// results with a drop-oldest overflow policy. The queue never grows and
// never blocks: when full, the oldest unread entry is evicted to make room,
// and Push reports the eviction so the caller can account for it.
package results

import (
	"fmt"
	"sync"

	"github.com/sweeney/gesture-sensor/internal/classify"
)

// Queue is a mutex-guarded circular buffer of classification results.
type Queue struct {
	mu    sync.Mutex
	buf   []classify.Result
	head  int // next write position
	tail  int // oldest entry
	count int
}

// New creates a Queue with the given capacity.
func New(capacity int) (*Queue, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("results: invalid capacity %d", capacity)
	}
	return &Queue{buf: make([]classify.Result, capacity)}, nil
}

// Push appends a result. If the queue is full the oldest entry is evicted
// first; the return value reports whether that happened. Push never blocks.
func (q *Queue) Push(r classify.Result) (evicted bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == len(q.buf) {
		q.tail = (q.tail + 1) % len(q.buf)
		q.count--
		evicted = true
	}

	q.buf[q.head] = r
	q.head = (q.head + 1) % len(q.buf)
	q.count++
	return evicted
}

// Pop removes and returns the oldest result. Non-blocking; ok is false when
// the queue is empty.
func (q *Queue) Pop() (r classify.Result, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return classify.Result{}, false
	}

	r = q.buf[q.tail]
	q.tail = (q.tail + 1) % len(q.buf)
	q.count--
	return r, true
}

// Len returns the number of queued results. Point-in-time; may be stale the
// moment it returns.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Empty reports whether the queue holds no results.
func (q *Queue) Empty() bool {
	return q.Len() == 0
}

// Full reports whether the next Push would evict.
func (q *Queue) Full() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count == len(q.buf)
}

// Cap returns the fixed capacity.
func (q *Queue) Cap() int { return len(q.buf) }
