package blob

import (
	"bytes"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// File is a binary offered for storage. Name and Type are what the user
// agent reports; Size is the declared length of Content.
type File struct {
	Name    string
	Type    string
	Size    int64
	Content io.Reader
}

// FromBytes wraps an in-memory payload.
func FromBytes(name, mimeType string, data []byte) File {
	return File{
		Name:    name,
		Type:    mimeType,
		Size:    int64(len(data)),
		Content: bytes.NewReader(data),
	}
}

// Open opens a file on disk as a File. The MIME type is guessed from the
// extension. The caller must close the returned file handle.
func Open(path string) (File, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return File{}, nil, err
	}
	return File{
		Name:    filepath.Base(path),
		Type:    mime.TypeByExtension(filepath.Ext(path)),
		Size:    fi.Size(),
		Content: f,
	}, f, nil
}
