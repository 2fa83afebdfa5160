package media

import (
	"context"
	"sync"
	"time"

	"github.com/llehouerou/trackvault/internal/errmsg"
)

// Mock is a test double for Element. Events are delivered synchronously from
// the calling goroutine, the way a browser audio element dispatches them.
type Mock struct {
	mu       sync.Mutex
	source   string
	loaded   bool
	playing  bool
	position time.Duration
	duration time.Duration
	level    float64
	handler  func(Event)
	playErr  error
	closed   bool

	sources   []string
	playCalls int
	seekCalls []time.Duration
	opened    int
	released  int
}

// NewMock creates an unloaded mock element.
func NewMock() *Mock {
	return &Mock{level: 1}
}

func (m *Mock) SetSource(locator string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.source != "" {
		m.released++
	}
	m.source = locator
	m.loaded = false
	m.playing = false
	m.position = 0
	m.sources = append(m.sources, locator)
	if locator != "" {
		m.opened++
	}
	return nil
}

func (m *Mock) Source() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source
}

func (m *Mock) Play(_ context.Context) error {
	m.mu.Lock()
	m.playCalls++
	if m.source == "" {
		m.mu.Unlock()
		err := errmsg.Wrap(errmsg.ErrPlayback, errmsg.OpPlaybackStart, "no source", nil)
		m.emit(Event{Type: EventError, Err: err})
		return err
	}
	if m.playErr != nil {
		err := m.playErr
		m.mu.Unlock()
		m.emit(Event{Type: EventError, Err: err})
		return err
	}
	firstLoad := !m.loaded
	m.loaded = true
	m.playing = true
	dur := m.duration
	m.mu.Unlock()

	if firstLoad {
		m.emit(Event{Type: EventLoadedMetadata, Duration: dur})
	}
	m.emit(Event{Type: EventPlay})
	return nil
}

func (m *Mock) Pause() {
	m.mu.Lock()
	if !m.playing {
		m.mu.Unlock()
		return
	}
	m.playing = false
	pos := m.position
	m.mu.Unlock()
	m.emit(Event{Type: EventPause, Position: pos})
}

func (m *Mock) Stop() {
	m.mu.Lock()
	m.playing = false
	m.position = 0
	m.mu.Unlock()
}

func (m *Mock) Seek(pos time.Duration) error {
	m.mu.Lock()
	m.seekCalls = append(m.seekCalls, pos)
	m.position = pos
	m.mu.Unlock()
	return nil
}

func (m *Mock) SetVolume(level float64) {
	m.mu.Lock()
	m.level = clampLevel(level)
	m.mu.Unlock()
}

func (m *Mock) OnEvent(fn func(Event)) {
	m.mu.Lock()
	m.handler = fn
	m.mu.Unlock()
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.source != "" {
		m.released++
	}
	m.source = ""
	m.closed = true
	return nil
}

func (m *Mock) emit(ev Event) {
	m.mu.Lock()
	fn := m.handler
	m.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// Test helpers

// SetPlayError makes subsequent Play calls fail with err.
func (m *Mock) SetPlayError(err error) {
	m.mu.Lock()
	m.playErr = err
	m.mu.Unlock()
}

// SetDuration sets the duration reported on load.
func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	m.duration = d
	m.mu.Unlock()
}

// Emit delivers ev to the registered handler.
func (m *Mock) Emit(ev Event) {
	m.emit(ev)
}

// SimulateEnded emits natural end of media.
func (m *Mock) SimulateEnded() {
	m.mu.Lock()
	m.playing = false
	m.position = 0
	m.mu.Unlock()
	m.emit(Event{Type: EventEnded})
}

// Playing reports whether the mock is producing output.
func (m *Mock) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// Position returns the current playhead.
func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

// Level returns the last applied volume.
func (m *Mock) Level() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

// ActiveResources returns how many sources are bound and not yet released.
func (m *Mock) ActiveResources() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened - m.released
}

// Sources returns every locator passed to SetSource.
func (m *Mock) Sources() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sources))
	copy(out, m.sources)
	return out
}

// PlayCalls returns how many times Play was called.
func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

// SeekCalls returns every Seek argument.
func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.seekCalls))
	copy(out, m.seekCalls)
	return out
}

// IsClosed reports whether Close was called.
func (m *Mock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Element at compile time.
var _ Element = (*Mock)(nil)
