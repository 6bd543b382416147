package events

import (
	"errors"
	"sync"
)

// ErrMaxSubscribers is returned by Subscribe when the configured
// subscriber limit has been reached.
var ErrMaxSubscribers = errors.New("maximum subscriber count reached")

// DefaultQueueSize is used for a subscription that doesn't request a
// specific queue size.
const DefaultQueueSize = 100

// DefaultMaxSubscribers is a suggested subscriber limit. NewEmitter does not
// apply it: the limit is whatever maxSubscribers it is given, and 0 there
// disables the limit.
const DefaultMaxSubscribers = 32

type subscriberEntry struct {
	queue  *SubscriberQueue
	filter Filter
}

// EventEmitter is the bus's single point of emission and subscription. It
// owns a monotonic event-id counter, a monotonic subscription-id counter,
// and the map from subscription id to its queue and filter.
type EventEmitter struct {
	mu sync.Mutex

	nextEventID uint64
	nextSubID   uint64

	subscribers      map[uint64]subscriberEntry
	maxSubscribers   int
	defaultQueueSize int
}

// NewEmitter creates an emitter. A maxSubscribers of 0 means unlimited.
func NewEmitter(defaultQueueSize, maxSubscribers int) *EventEmitter {
	if defaultQueueSize <= 0 {
		defaultQueueSize = DefaultQueueSize
	}
	return &EventEmitter{
		subscribers:      make(map[uint64]subscriberEntry),
		maxSubscribers:   maxSubscribers,
		defaultQueueSize: defaultQueueSize,
	}
}

// Subscribe registers a new subscription matching filter. queueSize
// overrides the emitter's default when positive. Returns
// ErrMaxSubscribers once the subscriber limit is reached.
func (e *EventEmitter) Subscribe(filter Filter, queueSize int, name string) (*Subscription, error) {
	e.mu.Lock()

	if e.maxSubscribers > 0 && len(e.subscribers) >= e.maxSubscribers {
		e.mu.Unlock()
		return nil, ErrMaxSubscribers
	}

	e.nextSubID++
	id := e.nextSubID

	if queueSize <= 0 {
		queueSize = e.defaultQueueSize
	}
	queue := NewSubscriberQueue(queueSize, name)
	e.subscribers[id] = subscriberEntry{queue: queue, filter: filter}

	e.mu.Unlock()

	return newSubscription(id, queue, e.unsubscribe), nil
}

// Emit assigns the next monotonic event id to e, snapshots the matching
// subscriber queues under the bus lock, then pushes to each outside the
// lock so a full or slow queue never blocks the emitter or other
// subscribers.
func (e *EventEmitter) Emit(ev Event) uint64 {
	e.mu.Lock()
	e.nextEventID++
	ev.EventID = e.nextEventID

	var targets []*SubscriberQueue
	for _, entry := range e.subscribers {
		if entry.filter.Matches(ev) {
			targets = append(targets, entry.queue)
		}
	}
	e.mu.Unlock()

	for _, q := range targets {
		q.Push(ev)
	}

	return ev.EventID
}

// SubscriberCount returns the current number of active subscriptions.
func (e *EventEmitter) SubscriberCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subscribers)
}

// AtCapacity reports whether the subscriber limit has been reached.
func (e *EventEmitter) AtCapacity() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxSubscribers > 0 && len(e.subscribers) >= e.maxSubscribers
}

func (e *EventEmitter) unsubscribe(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.subscribers, id)
}
