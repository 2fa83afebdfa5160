// Package track defines the catalogue entity and its validation rules.
package track

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/llehouerou/trackvault/internal/errmsg"
)

// Field limits.
const (
	TitleMaxLength       = 50
	DescriptionMaxLength = 200
)

// Track is one audio item of the catalogue.
type Track struct {
	ID          ID
	Title       string
	Artist      string
	Description string
	Category    Category

	FilePath       string // audio locator
	FileSize       int64
	CoverImage     string // cover locator
	CoverImageSize int64

	Duration  time.Duration
	Plays     int
	Liked     bool
	Order     int
	AddedDate time.Time
}

// Validate checks the descriptive and usage fields.
func (t Track) Validate() error {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		return errmsg.Validation("title is required")
	}
	if utf8.RuneCountInString(title) > TitleMaxLength {
		return errmsg.Validation("title exceeds %d characters", TitleMaxLength)
	}
	if strings.TrimSpace(t.Artist) == "" {
		return errmsg.Validation("artist is required")
	}
	if utf8.RuneCountInString(t.Description) > DescriptionMaxLength {
		return errmsg.Validation("description exceeds %d characters", DescriptionMaxLength)
	}
	if !t.Category.Valid() {
		return errmsg.Validation("unknown category %q", t.Category)
	}
	if t.Duration < 0 {
		return errmsg.Validation("duration must not be negative")
	}
	if t.Plays < 0 {
		return errmsg.Validation("plays must not be negative")
	}
	if t.FileSize < 0 || t.CoverImageSize < 0 {
		return errmsg.Validation("file sizes must not be negative")
	}
	return nil
}

// AudioSource reports where the audio asset lives.
func (t Track) AudioSource() Source { return SourceOf(t.FilePath) }

// CoverSource reports where the cover image lives.
func (t Track) CoverSource() Source { return SourceOf(t.CoverImage) }

// Matches reports whether query is a case-insensitive substring of the title
// or the artist. An empty query matches everything.
func (t Track) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Artist), q)
}

// Index returns the position of the track with the given id, or -1.
func Index(tracks []Track, id ID) int {
	for i := range tracks {
		if tracks[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the track with the given id.
func Find(tracks []Track, id ID) (Track, bool) {
	if i := Index(tracks, id); i >= 0 {
		return tracks[i], true
	}
	return Track{}, false
}
