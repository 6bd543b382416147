package events

import (
	"sync"
	"time"
)

// Subscription is the handle returned by EventEmitter.Subscribe. Closing
// it removes the subscription from the bus and closes its queue; both are
// idempotent.
type Subscription struct {
	id    uint64
	queue *SubscriberQueue

	once    sync.Once
	unsubFn func(id uint64)
}

func newSubscription(id uint64, queue *SubscriberQueue, unsubFn func(uint64)) *Subscription {
	return &Subscription{id: id, queue: queue, unsubFn: unsubFn}
}

// ID returns the subscription's id.
func (s *Subscription) ID() uint64 { return s.id }

// Pop waits up to timeout for the next matching event.
func (s *Subscription) Pop(timeout time.Duration) (Event, bool) {
	return s.queue.Pop(timeout)
}

// TryPop pops without waiting.
func (s *Subscription) TryPop() (Event, bool) {
	return s.queue.TryPop()
}

// QueueLen returns the subscription's current queue depth.
func (s *Subscription) QueueLen() int { return s.queue.Len() }

// DroppedCount returns how many events this subscription has lost to
// overflow.
func (s *Subscription) DroppedCount() uint64 { return s.queue.DroppedCount() }

// IsActive reports whether the subscription has not been closed.
func (s *Subscription) IsActive() bool { return !s.queue.IsClosed() }

// Close removes the subscription from its emitter and closes its queue.
// Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.unsubFn(s.id)
		s.queue.Close()
	})
}
