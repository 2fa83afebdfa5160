package blob

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/trackvault/internal/errmsg"
	"github.com/llehouerou/trackvault/internal/track"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestFileStore_PutAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := track.RemoteID(7)

	loc, n, err := s.Put(ctx, id, KindAudio, FromBytes("song.mp3", "audio/mpeg", []byte("ID3data")))
	require.NoError(t, err)
	assert.Equal(t, track.SourceLocal, track.SourceOf(loc))
	assert.Equal(t, int64(7), n)

	path, ok := PathFromLocator(loc)
	require.True(t, ok)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ID3data", string(data))

	got, ok, err := s.Get(ctx, id, KindAudio)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, loc, got)
}

func TestFileStore_PutReportsWrittenSize(t *testing.T) {
	s := newTestStore(t)
	f := File{
		Name:    "song.mp3",
		Type:    "audio/mpeg",
		Size:    3,
		Content: bytes.NewReader([]byte("ID3 and then some")),
	}

	_, n, err := s.Put(context.Background(), track.RemoteID(2), KindAudio, f)
	require.NoError(t, err)
	assert.Equal(t, int64(17), n)
}

func TestFileStore_GetMissing(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.Get(context.Background(), track.RemoteID(1), KindCover)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore_PutOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := track.NewLocalID()

	_, _, err := s.Put(ctx, id, KindCover, FromBytes("a.png", "image/png", []byte("one")))
	require.NoError(t, err)
	loc, _, err := s.Put(ctx, id, KindCover, FromBytes("b.jpg", "image/jpeg", []byte("two")))
	require.NoError(t, err)

	paths, err := s.find(s.trackDir(id), KindCover)
	require.NoError(t, err)
	require.Len(t, paths, 1, "prior binary must be replaced")

	path, _ := PathFromLocator(loc)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestFileStore_PutRejectsInvalid(t *testing.T) {
	s := newTestStore(t)
	_, _, err := s.Put(context.Background(), track.RemoteID(1), KindAudio,
		FromBytes("notes.txt", "text/plain", []byte("x")))
	assert.True(t, errors.Is(err, errmsg.ErrValidation), "got %v", err)

	_, ok, _ := s.Get(context.Background(), track.RemoteID(1), KindAudio)
	assert.False(t, ok, "nothing written on validation failure")
}

func TestFileStore_PutRejectsUnderstatedSize(t *testing.T) {
	s := newTestStore(t)
	payload := bytes.Repeat([]byte{0}, int(MaxCoverSize)+10)
	f := File{Name: "big.png", Type: "image/png", Size: 10, Content: bytes.NewReader(payload)}

	_, _, err := s.Put(context.Background(), track.RemoteID(1), KindCover, f)
	assert.True(t, errors.Is(err, errmsg.ErrValidation), "got %v", err)
}

func TestFileStore_DeleteIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := track.RemoteID(3)

	assert.NoError(t, s.Delete(ctx, id, KindAudio))
	assert.NoError(t, s.DeleteAll(ctx, id))

	_, _, err := s.Put(ctx, id, KindAudio, FromBytes("a.ogg", "audio/ogg", []byte("OggS")))
	require.NoError(t, err)
	_, _, err = s.Put(ctx, id, KindCover, FromBytes("c.png", "image/png", []byte("png")))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id, KindCover))
	_, ok, _ := s.Get(ctx, id, KindCover)
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, id, KindAudio)
	assert.True(t, ok, "deleting the cover keeps the audio")

	require.NoError(t, s.DeleteAll(ctx, id))
	require.NoError(t, s.DeleteAll(ctx, id))
	_, ok, _ = s.Get(ctx, id, KindAudio)
	assert.False(t, ok)
}

func TestFileStore_Move(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	local := track.NewLocalID()
	remote := track.RemoteID(99)

	_, _, err := s.Put(ctx, local, KindAudio, FromBytes("a.wav", "audio/wav", []byte("RIFF")))
	require.NoError(t, err)

	require.NoError(t, s.Move(ctx, local, remote))

	_, ok, _ := s.Get(ctx, local, KindAudio)
	assert.False(t, ok)
	loc, ok, err := s.Get(ctx, remote, KindAudio)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, loc, "/99/audio.wav")

	assert.NoError(t, s.Move(ctx, track.RemoteID(1234), remote), "moving nothing is a no-op")
}

func TestFileStore_NameWithoutExtensionUsesMIME(t *testing.T) {
	s := newTestStore(t)
	loc, _, err := s.Put(context.Background(), track.RemoteID(5), KindCover,
		FromBytes("blob", "image/jpeg", []byte("jpg")))
	require.NoError(t, err)
	assert.Contains(t, loc, "cover.jpg")
}

func TestFileStore_CanceledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := s.Put(ctx, track.RemoteID(1), KindAudio, FromBytes("a.mp3", "audio/mpeg", []byte("x")))
	assert.ErrorIs(t, err, context.Canceled)
}
