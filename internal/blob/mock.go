package blob

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/llehouerou/trackvault/internal/errmsg"
	"github.com/llehouerou/trackvault/internal/track"
)

type mockKey struct {
	id   string
	kind Kind
}

// Mock is an in-memory Store for tests.
type Mock struct {
	mu        sync.Mutex
	blobs     map[mockKey][]byte
	putErr    error
	deleteErr error
	puts      int
	deletes   int
}

// NewMock creates an empty mock store.
func NewMock() *Mock {
	return &Mock{blobs: make(map[mockKey][]byte)}
}

func (m *Mock) Put(_ context.Context, id track.ID, kind Kind, f File) (string, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return "", 0, m.putErr
	}
	if res := Validate(f, kind); !res.Valid {
		return "", 0, errmsg.Validation("%s", res.Error)
	}
	data, err := io.ReadAll(f.Content)
	if err != nil {
		return "", 0, err
	}
	m.blobs[mockKey{id.String(), kind}] = data
	return mockLocator(id, kind), int64(len(data)), nil
}

func (m *Mock) Get(_ context.Context, id track.ID, kind Kind) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[mockKey{id.String(), kind}]; !ok {
		return "", false, nil
	}
	return mockLocator(id, kind), true, nil
}

func (m *Mock) Delete(_ context.Context, id track.ID, kind Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.blobs, mockKey{id.String(), kind})
	return nil
}

func (m *Mock) DeleteAll(ctx context.Context, id track.ID) error {
	for _, kind := range Kinds {
		if err := m.Delete(ctx, id, kind); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mock) Move(_ context.Context, from, to track.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, kind := range Kinds {
		src := mockKey{from.String(), kind}
		if data, ok := m.blobs[src]; ok {
			m.blobs[mockKey{to.String(), kind}] = data
			delete(m.blobs, src)
		}
	}
	return nil
}

// Test helpers

func (m *Mock) SetPutError(err error) { m.mu.Lock(); m.putErr = err; m.mu.Unlock() }

func (m *Mock) SetDeleteError(err error) { m.mu.Lock(); m.deleteErr = err; m.mu.Unlock() }

func (m *Mock) Has(id track.ID, kind Kind) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[mockKey{id.String(), kind}]
	return ok
}

func (m *Mock) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

func (m *Mock) PutCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

func mockLocator(id track.ID, kind Kind) string {
	return fmt.Sprintf("%smock/%s/%s", track.LocalScheme, id, kind)
}

// Verify Mock implements Store at compile time.
var _ Store = (*Mock)(nil)
