// Package blob stores large binaries (audio files, cover images) on the local
// filesystem, keyed by track id and kind.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/llehouerou/trackvault/internal/errmsg"
	"github.com/llehouerou/trackvault/internal/track"
)

// Store is the blob store contract.
type Store interface {
	// Put validates and persists f, replacing any prior binary of the same
	// kind for id. It returns a locator usable for playback or display and
	// the number of bytes written.
	Put(ctx context.Context, id track.ID, kind Kind, f File) (locator string, size int64, err error)
	// Get returns the locator of a stored binary. Absence is ok=false.
	Get(ctx context.Context, id track.ID, kind Kind) (locator string, ok bool, err error)
	// Delete removes one binary. Deleting a missing entry is a no-op.
	Delete(ctx context.Context, id track.ID, kind Kind) error
	// DeleteAll removes every binary owned by id.
	DeleteAll(ctx context.Context, id track.ID) error
	// Move re-keys every binary owned by from to to.
	Move(ctx context.Context, from, to track.ID) error
}

// FileStore keeps binaries under Root/<track id>/<kind><ext>.
type FileStore struct {
	Root string
}

// NewFileStore returns a store rooted at root.
func NewFileStore(root string) (*FileStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{Root: abs}, nil
}

// Put implements Store.
func (s *FileStore) Put(ctx context.Context, id track.ID, kind Kind, f File) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	if id.IsZero() {
		return "", 0, errmsg.Validation("track id required to store a file")
	}
	if res := Validate(f, kind); !res.Valid {
		return "", 0, errmsg.Validation("%s", res.Error)
	}
	if f.Content == nil {
		return "", 0, errmsg.Validation("%s has no content", kind)
	}

	dir := s.trackDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, classify(err)
	}

	tmp, err := os.CreateTemp(dir, "."+string(kind)+"-*")
	if err != nil {
		return "", 0, classify(err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op once renamed

	limit := MaxSize(kind)
	n, err := io.Copy(tmp, io.LimitReader(f.Content, limit+1))
	if err != nil {
		tmp.Close()
		return "", 0, classify(err)
	}
	if err := tmp.Close(); err != nil {
		return "", 0, classify(err)
	}
	if n > limit {
		return "", 0, errmsg.Validation("%s exceeds the %d byte limit", kind, limit)
	}

	if err := s.removeKind(dir, kind); err != nil {
		return "", 0, err
	}
	dst := filepath.Join(dir, string(kind)+extensionFor(f, kind))
	if err := os.Rename(tmpName, dst); err != nil {
		return "", 0, classify(err)
	}
	return Locator(dst), n, nil
}

// Get implements Store.
func (s *FileStore) Get(ctx context.Context, id track.ID, kind Kind) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if id.IsZero() {
		return "", false, nil
	}
	paths, err := s.find(s.trackDir(id), kind)
	if err != nil || len(paths) == 0 {
		return "", false, err
	}
	return Locator(paths[0]), true, nil
}

// Delete implements Store.
func (s *FileStore) Delete(ctx context.Context, id track.ID, kind Kind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id.IsZero() {
		return nil
	}
	return s.removeKind(s.trackDir(id), kind)
}

// DeleteAll implements Store.
func (s *FileStore) DeleteAll(ctx context.Context, id track.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id.IsZero() {
		return nil
	}
	return os.RemoveAll(s.trackDir(id))
}

// Move implements Store.
func (s *FileStore) Move(ctx context.Context, from, to track.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if from.IsZero() || to.IsZero() || from == to {
		return nil
	}
	src := s.trackDir(from)
	if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}
	dst := s.trackDir(to)
	if err := os.RemoveAll(dst); err != nil {
		return err
	}
	return classify(os.Rename(src, dst))
}

func (s *FileStore) trackDir(id track.ID) string {
	return filepath.Join(s.Root, id.String())
}

// find returns the stored files of kind in dir.
func (s *FileStore) find(dir string, kind Kind) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if strings.TrimSuffix(name, filepath.Ext(name)) == string(kind) {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return paths, nil
}

func (s *FileStore) removeKind(dir string, kind Kind) error {
	paths, err := s.find(dir, kind)
	if err != nil {
		return err
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Locator converts a stored file path into a locator.
func Locator(path string) string {
	return track.LocalScheme + filepath.ToSlash(path)
}

// PathFromLocator returns the filesystem path behind a local locator.
func PathFromLocator(locator string) (string, bool) {
	if !strings.HasPrefix(locator, track.LocalScheme) {
		return "", false
	}
	return filepath.FromSlash(strings.TrimPrefix(locator, track.LocalScheme)), true
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, syscall.ENOSPC) {
		return fmt.Errorf("%w: %w", errmsg.ErrStorageFull, err)
	}
	return err
}

// Verify FileStore implements Store at compile time.
var _ Store = (*FileStore)(nil)
