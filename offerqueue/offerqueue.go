// Package offerqueue implements the bounded FIFO buffer of pending offers
// the offer processor drains from. One dedicated consumer calls TakeAll;
// any number of driver-callback goroutines call Offer/Remove concurrently.
package offerqueue

import (
	"sync"

	"github.com/dcos/scheduler-core/mesosapi"
)

// Queue is a bounded, thread-safe FIFO of offers. Capacity zero means
// unbounded. Grounded on the channel-backed queue shape of the upstream scheduler's
// common/queue package, generalized to the takeAll-drain semantics this
// core needs instead of single-item Dequeue.
type Queue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond

	capacity int
	items    []mesosapi.Offer
	closed   bool
}

// New creates a Queue with the given capacity. Capacity 0 means
// unbounded: Offer never rejects for being full.
func New(capacity int) *Queue {
	q := &Queue{capacity: capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Offer appends o to the tail of the queue. Returns false, without
// blocking, if the queue is at capacity or closed; true otherwise. The default path
// is always this non-blocking one.
func (q *Queue) Offer(o mesosapi.Offer) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	if q.capacity > 0 && len(q.items) >= q.capacity {
		return false
	}
	q.items = append(q.items, o)
	q.notEmpty.Signal()
	return true
}

// Remove deletes the first offer matching id, used when the cluster
// manager rescinds an offer before it's been drained. Returns true if an
// offer was removed.
func (q *Queue) Remove(id mesosapi.OfferID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, o := range q.items {
		if o.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// TakeAll blocks until at least one offer is buffered, then atomically
// drains and returns everything currently buffered. Returns an empty
// slice if the queue is closed while waiting or was already closed; the
// consumer treats that as a spurious wake.
func (q *Queue) TakeAll() []mesosapi.Offer {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if len(q.items) == 0 {
		return nil
	}
	drained := q.items
	q.items = nil
	return drained
}

// Len returns the number of offers currently buffered.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close unblocks any goroutine parked in TakeAll, handing it an empty
// drain so the consumer loop can observe shutdown and exit.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.notEmpty.Broadcast()
}
