// Package stream provides a typed current-value publish/subscribe channel.
//
// A Value has exactly one writer (its owner) and any number of readers.
// Readers either poll Get or Subscribe to receive each published snapshot.
// Slow subscribers never block the writer: when a subscriber's buffer is full
// the oldest pending snapshot is dropped in favour of the newest one.
package stream

import "sync"

const bufferSize = 16

// Reader is the read side of a Value, handed to consumers.
type Reader[T any] interface {
	Get() T
	Subscribe() *Subscription[T]
}

// Value holds the current snapshot and fans it out to subscribers.
// Published values must be treated as immutable by everyone.
type Value[T any] struct {
	mu     sync.Mutex
	cur    T
	subs   map[*Subscription[T]]struct{}
	closed bool
}

// NewValue creates a Value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		cur:  initial,
		subs: make(map[*Subscription[T]]struct{}),
	}
}

// Get returns the current snapshot.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur
}

// Set publishes a new snapshot.
func (v *Value[T]) Set(next T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.publishLocked(next)
}

// Update applies fn to the current snapshot and publishes the result
// atomically, so concurrent writers always merge into the latest value.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	next := fn(v.cur)
	v.publishLocked(next)
	return next
}

func (v *Value[T]) publishLocked(next T) {
	if v.closed {
		return
	}
	v.cur = next
	for sub := range v.subs {
		sub.send(next)
	}
}

// Subscribe registers a new subscriber. The current snapshot is delivered
// first, followed by every later publication.
func (v *Value[T]) Subscribe() *Subscription[T] {
	v.mu.Lock()
	defer v.mu.Unlock()

	sub := newSubscription(v)
	if v.closed {
		sub.close()
		return sub
	}
	v.subs[sub] = struct{}{}
	sub.send(v.cur)
	return sub
}

// Close ends all subscriptions. Later publications are ignored.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	for sub := range v.subs {
		sub.close()
	}
	v.subs = nil
}

func (v *Value[T]) unsubscribe(sub *Subscription[T]) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.subs[sub]; !ok {
		return
	}
	delete(v.subs, sub)
	sub.close()
}

// Verify Value implements Reader at compile time.
var _ Reader[int] = (*Value[int])(nil)
