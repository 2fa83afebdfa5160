package media

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/trackvault/internal/errmsg"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

// These tests never reach the audio device: every path fails or returns
// before the speaker is initialized.

func TestBackend_PlayWithoutSource(t *testing.T) {
	b := NewBackend()
	rec := &recorder{}
	b.OnEvent(rec.handle)

	err := b.Play(context.Background())
	require.ErrorIs(t, err, errmsg.ErrPlayback)
	assert.Equal(t, []EventType{EventError}, rec.types())
}

func TestBackend_PlayMissingFile(t *testing.T) {
	b := NewBackend()
	rec := &recorder{}
	b.OnEvent(rec.handle)

	require.NoError(t, b.SetSource(filepath.Join(t.TempDir(), "missing.mp3")))
	err := b.Play(context.Background())
	require.ErrorIs(t, err, errmsg.ErrPlayback)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, []EventType{EventWaiting, EventError}, rec.types())
}

func TestBackend_PlayUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("not audio"), 0o600))

	b := NewBackend()
	require.NoError(t, b.SetSource(path))
	err := b.Play(context.Background())
	assert.ErrorIs(t, err, errmsg.ErrPlayback)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestBackend_UnloadedControlsAreNoops(t *testing.T) {
	b := NewBackend()
	rec := &recorder{}
	b.OnEvent(rec.handle)

	require.NoError(t, b.Seek(5))
	b.Pause()
	b.Stop()
	b.SetVolume(0.3)
	assert.Empty(t, rec.types())
}

func TestBackend_SetSourceReplaces(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.SetSource("/a.mp3"))
	require.NoError(t, b.SetSource("/b.mp3"))
	assert.Equal(t, "/b.mp3", b.Source())
}

func TestBackend_Closed(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	assert.ErrorIs(t, b.SetSource("/a.mp3"), ErrClosed)
	assert.ErrorIs(t, b.Play(context.Background()), ErrClosed)
}
