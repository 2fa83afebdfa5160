// Package tags reads descriptive metadata embedded in audio files so an
// imported file can prefill its track.
package tags

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
)

// Info is the subset of tag metadata a track can use.
type Info struct {
	Path   string
	Title  string
	Artist string
	Album  string
	Genre  string
	Year   int
}

// Read reads the tags of the file at path. A missing title falls back to
// the file name without extension.
func Read(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		// dhowden/tag rejects some UTF-16 ID3 frames that id3v2 handles.
		if strings.EqualFold(filepath.Ext(path), ".mp3") {
			return readID3(path)
		}
		return nil, err
	}

	info := &Info{
		Path:   path,
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
		Album:  strings.TrimSpace(m.Album()),
		Genre:  strings.TrimSpace(m.Genre()),
		Year:   m.Year(),
	}
	if info.Artist == "" {
		info.Artist = strings.TrimSpace(m.AlbumArtist())
	}
	info.fillTitle()
	return info, nil
}

func readID3(path string) (*Info, error) {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, err
	}
	defer t.Close()

	info := &Info{
		Path:   path,
		Title:  strings.TrimSpace(t.Title()),
		Artist: strings.TrimSpace(t.Artist()),
		Album:  strings.TrimSpace(t.Album()),
		Genre:  strings.TrimSpace(t.Genre()),
		Year:   parseYear(t.Year()),
	}
	if info.Artist == "" {
		info.Artist = textFrame(t, "TPE2")
	}
	info.fillTitle()
	return info, nil
}

func (i *Info) fillTitle() {
	if i.Title != "" {
		return
	}
	base := filepath.Base(i.Path)
	i.Title = strings.TrimSuffix(base, filepath.Ext(base))
}

// parseYear reads the leading four digits of a year or date frame.
func parseYear(s string) int {
	if len(s) < 4 {
		return 0
	}
	year := 0
	for _, c := range s[:4] {
		if c < '0' || c > '9' {
			return 0
		}
		year = year*10 + int(c-'0')
	}
	return year
}

func textFrame(t *id3v2.Tag, id string) string {
	frames := t.GetFrames(id)
	if len(frames) == 0 {
		return ""
	}
	if tf, ok := frames[0].(id3v2.TextFrame); ok {
		return strings.TrimSpace(tf.Text)
	}
	return ""
}
