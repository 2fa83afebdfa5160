package track

import "time"

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title       *string
	Artist      *string
	Description *string
	Category    *Category
	Duration    *time.Duration
	Plays       *int
	Liked       *bool
	Order       *int

	FilePath       *string
	FileSize       *int64
	CoverImage     *string
	CoverImageSize *int64

	// RemoveCover clears the cover image. It is ignored when CoverImage is set.
	RemoveCover bool
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T { return &v }

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Artist == nil && p.Description == nil &&
		p.Category == nil && p.Duration == nil && p.Plays == nil &&
		p.Liked == nil && p.Order == nil && p.FilePath == nil &&
		p.FileSize == nil && p.CoverImage == nil && p.CoverImageSize == nil &&
		!p.RemoveCover
}

// Apply returns t with the patch applied. Locators and their sizes move
// together: setting a locator without a size resets the size to zero, and
// clearing a locator clears its size.
func (p Patch) Apply(t Track) Track {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Artist != nil {
		t.Artist = *p.Artist
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Duration != nil {
		t.Duration = *p.Duration
	}
	if p.Plays != nil {
		t.Plays = *p.Plays
	}
	if p.Liked != nil {
		t.Liked = *p.Liked
	}
	if p.Order != nil {
		t.Order = *p.Order
	}

	if p.FilePath != nil {
		t.FilePath = *p.FilePath
		t.FileSize = 0
		if p.FileSize != nil {
			t.FileSize = *p.FileSize
		}
	}
	if t.FilePath == "" {
		t.FileSize = 0
	}

	switch {
	case p.CoverImage != nil:
		t.CoverImage = *p.CoverImage
		t.CoverImageSize = 0
		if p.CoverImageSize != nil {
			t.CoverImageSize = *p.CoverImageSize
		}
	case p.RemoveCover:
		t.CoverImage = ""
	}
	if t.CoverImage == "" {
		t.CoverImageSize = 0
	}
	return t
}
