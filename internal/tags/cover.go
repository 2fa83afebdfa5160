package tags

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/llehouerou/trackvault/internal/blob"
)

// folderCoverNames are looked up next to an audio file without embedded art.
var folderCoverNames = []string{
	"cover.jpg", "cover.jpeg", "cover.png",
	"folder.jpg", "folder.jpeg", "folder.png",
	"front.jpg", "front.jpeg", "front.png",
}

// Cover returns the artwork of the audio file at path as a cover blob:
// the embedded picture first, then a conventional image in the same folder.
// ok is false when there is none.
func Cover(path string) (f blob.File, ok bool, err error) {
	data, mimeType, err := embeddedCover(path)
	if err != nil {
		return blob.File{}, false, err
	}
	if data != nil {
		name := "cover" + extForMIME(mimeType)
		return blob.FromBytes(name, mimeType, data), true, nil
	}
	return folderCover(filepath.Dir(path))
}

func embeddedCover(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		// Untagged files simply have no embedded art.
		return nil, "", nil //nolint:nilerr // absence, not failure
	}
	pic := m.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return nil, "", nil
	}
	return pic.Data, strings.ToLower(pic.MIMEType), nil
}

func folderCover(dir string) (blob.File, bool, error) {
	for _, name := range folderCoverNames {
		for _, candidate := range []string{name, strings.ToUpper(name)} {
			data, err := os.ReadFile(filepath.Join(dir, candidate))
			if err != nil {
				continue
			}
			return blob.FromBytes(candidate, mimeForExt(filepath.Ext(name)), data), true, nil
		}
	}
	return blob.File{}, false, nil
}

func mimeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return ""
	}
}

func extForMIME(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	default:
		return ""
	}
}
