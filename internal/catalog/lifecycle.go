package catalog

import (
	"context"
	"sync"
)

// lifecycle runs the initial load exactly once per Coordinator. Concurrent
// callers wait for the first run and share its outcome.
type lifecycle struct {
	once    sync.Once
	mu      sync.Mutex
	started bool
	err     error
}

func (l *lifecycle) run(ctx context.Context, load func(context.Context) error) error {
	l.once.Do(func() {
		err := load(ctx)
		l.mu.Lock()
		l.started = true
		l.err = err
		l.mu.Unlock()
	})
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *lifecycle) isStarted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.started
}
