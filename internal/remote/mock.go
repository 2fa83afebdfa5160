package remote

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/llehouerou/trackvault/internal/errmsg"
	"github.com/llehouerou/trackvault/internal/track"
)

// Mock is an in-memory remote catalogue. Every write goes through the wire
// adapter so stored tracks look exactly like what a real server returns.
type Mock struct {
	mu         sync.Mutex
	songs      []track.Track
	nextID     uint64
	err        error
	methodErrs map[string]error
	calls      map[string]int
}

// NewMock creates an empty remote catalogue.
func NewMock() *Mock {
	return &Mock{
		nextID:     1,
		methodErrs: make(map[string]error),
		calls:      make(map[string]int),
	}
}

func (m *Mock) enter(method string) error {
	m.calls[method]++
	if err, ok := m.methodErrs[method]; ok {
		return err
	}
	return m.err
}

func (m *Mock) List(_ context.Context) ([]track.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("List"); err != nil {
		return nil, err
	}
	return slices.Clone(m.songs), nil
}

func (m *Mock) Get(_ context.Context, id track.ID) (track.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Get"); err != nil {
		return track.Track{}, err
	}
	t, ok := track.Find(m.songs, id)
	if !ok {
		return track.Track{}, errmsg.Wrap(errmsg.ErrNotFound, errmsg.OpRemoteGet, statusMessage(404), nil)
	}
	return t, nil
}

func (m *Mock) Create(_ context.Context, t track.Track) (track.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Create"); err != nil {
		return track.Track{}, err
	}
	stored := ToTrack(FromTrack(t))
	stored.ID = track.RemoteID(m.nextID)
	m.nextID++
	m.songs = append(m.songs, stored)
	return stored, nil
}

func (m *Mock) Update(_ context.Context, id track.ID, t track.Track) (track.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Update"); err != nil {
		return track.Track{}, err
	}
	i := track.Index(m.songs, id)
	if i < 0 {
		return track.Track{}, errmsg.Wrap(errmsg.ErrNotFound, errmsg.OpRemoteUpdate, statusMessage(404), nil)
	}
	stored := ToTrack(FromTrack(t))
	stored.ID = id
	m.songs[i] = stored
	return stored, nil
}

func (m *Mock) Delete(_ context.Context, id track.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Delete"); err != nil {
		return err
	}
	i := track.Index(m.songs, id)
	if i < 0 {
		return errmsg.Wrap(errmsg.ErrNotFound, errmsg.OpRemoteDelete, statusMessage(404), nil)
	}
	m.songs = slices.Delete(m.songs, i, i+1)
	return nil
}

func (m *Mock) SearchByTitle(_ context.Context, q string) ([]track.Track, error) {
	return m.filter("SearchByTitle", func(t track.Track) bool {
		return strings.Contains(strings.ToLower(t.Title), strings.ToLower(q))
	})
}

func (m *Mock) SearchByArtist(_ context.Context, q string) ([]track.Track, error) {
	return m.filter("SearchByArtist", func(t track.Track) bool {
		return strings.Contains(strings.ToLower(t.Artist), strings.ToLower(q))
	})
}

func (m *Mock) ByCategory(_ context.Context, c track.Category) ([]track.Track, error) {
	return m.filter("ByCategory", func(t track.Track) bool {
		return c == track.CategoryAll || t.Category == c
	})
}

func (m *Mock) filter(method string, keep func(track.Track) bool) ([]track.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(method); err != nil {
		return nil, err
	}
	var out []track.Track
	for _, t := range m.songs {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Test helpers

// Seed stores tracks as-is, advancing the id counter past their ids.
func (m *Mock) Seed(tracks ...track.Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tracks {
		if n, ok := t.ID.Remote(); ok && n >= m.nextID {
			m.nextID = n + 1
		}
		m.songs = append(m.songs, t)
	}
}

// SetError makes every method fail with err. Nil restores normal behavior.
func (m *Mock) SetError(err error) { m.mu.Lock(); m.err = err; m.mu.Unlock() }

// SetMethodError makes one method fail with err. Nil clears it.
func (m *Mock) SetMethodError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.methodErrs, method)
		return
	}
	m.methodErrs[method] = err
}

// Calls returns how many times method was invoked.
func (m *Mock) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// TotalCalls returns the number of calls across all methods.
func (m *Mock) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// Songs returns a copy of the stored tracks.
func (m *Mock) Songs() []track.Track {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.songs)
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
