package cache

import (
	"context"
	"slices"
	"sync"

	"github.com/llehouerou/trackvault/internal/track"
)

// Mock is a test double for Store. Tracks are kept in insertion order.
type Mock struct {
	mu       sync.Mutex
	tracks   []track.Track
	order    []track.ID
	readErr  error
	writeErr error
	calls    int
	closed   bool
}

// NewMock creates a new mock cache for testing.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) ReadAll(_ context.Context) ([]track.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.readErr != nil {
		return nil, m.readErr
	}
	return slices.Clone(m.tracks), nil
}

func (m *Mock) WriteAll(_ context.Context, tracks []track.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.writeErr != nil {
		return m.writeErr
	}
	m.tracks = slices.Clone(tracks)
	return nil
}

func (m *Mock) Upsert(_ context.Context, t track.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.writeErr != nil {
		return m.writeErr
	}
	if i := track.Index(m.tracks, t.ID); i >= 0 {
		m.tracks[i] = t
		return nil
	}
	m.tracks = append(m.tracks, t)
	return nil
}

func (m *Mock) Delete(_ context.Context, id track.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.writeErr != nil {
		return m.writeErr
	}
	if i := track.Index(m.tracks, id); i >= 0 {
		m.tracks = slices.Delete(m.tracks, i, i+1)
	}
	m.order = slices.DeleteFunc(m.order, func(o track.ID) bool { return o == id })
	return nil
}

func (m *Mock) ReadOrder(_ context.Context) ([]track.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.readErr != nil {
		return nil, m.readErr
	}
	return slices.Clone(m.order), nil
}

func (m *Mock) WriteOrder(_ context.Context, ids []track.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.writeErr != nil {
		return m.writeErr
	}
	m.order = slices.Clone(ids)
	for pos, id := range ids {
		if i := track.Index(m.tracks, id); i >= 0 {
			m.tracks[i].Order = pos
		}
	}
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test helpers

// Seed replaces the cached tracks without counting a call.
func (m *Mock) Seed(tracks ...track.Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracks = slices.Clone(tracks)
}

func (m *Mock) SetReadError(err error) { m.mu.Lock(); m.readErr = err; m.mu.Unlock() }

func (m *Mock) SetWriteError(err error) { m.mu.Lock(); m.writeErr = err; m.mu.Unlock() }

// Tracks returns a copy of the cached tracks.
func (m *Mock) Tracks() []track.Track {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.tracks)
}

// Order returns a copy of the saved order.
func (m *Mock) Order() []track.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.order)
}

// Calls returns how many Interface methods were invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *Mock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
