package stream

// Subscription receives snapshots published on a Value.
type Subscription[T any] struct {
	// C delivers snapshots in publication order.
	C <-chan T
	// Done is closed when the subscription ends.
	Done <-chan struct{}

	ch     chan T
	doneCh chan struct{}
	owner  *Value[T]
	ended  bool
}

func newSubscription[T any](owner *Value[T]) *Subscription[T] {
	s := &Subscription[T]{
		ch:     make(chan T, bufferSize),
		doneCh: make(chan struct{}),
		owner:  owner,
	}
	s.C = s.ch
	s.Done = s.doneCh
	return s
}

// Close detaches the subscriber from its Value.
func (s *Subscription[T]) Close() {
	s.owner.unsubscribe(s)
}

// send delivers v without blocking. Called with the owner's lock held.
func (s *Subscription[T]) send(v T) {
	select {
	case s.ch <- v:
		return
	default:
	}
	// Buffer full: drop the oldest snapshot, keep the newest.
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- v:
	default:
	}
}

// close is called with the owner's lock held.
func (s *Subscription[T]) close() {
	if s.ended {
		return
	}
	s.ended = true
	close(s.doneCh)
}
