package tags

import (
	"strings"

	"github.com/llehouerou/trackvault/internal/track"
)

// genreKeywords maps substrings of free-form genre tags to categories.
// Order matters: "pop punk" is rock, "synthpop" is electronic, "k-pop" is pop.
var genreKeywords = []struct {
	keyword  string
	category track.Category
}{
	{"hip hop", track.CategoryRap},
	{"hip-hop", track.CategoryRap},
	{"hiphop", track.CategoryRap},
	{"rap", track.CategoryRap},
	{"trap", track.CategoryRap},
	{"punk", track.CategoryRock},
	{"metal", track.CategoryRock},
	{"rock", track.CategoryRock},
	{"grunge", track.CategoryRock},
	{"synthpop", track.CategoryElectronic},
	{"electro", track.CategoryElectronic},
	{"house", track.CategoryElectronic},
	{"techno", track.CategoryElectronic},
	{"trance", track.CategoryElectronic},
	{"dubstep", track.CategoryElectronic},
	{"drum and bass", track.CategoryElectronic},
	{"edm", track.CategoryElectronic},
	{"ambient", track.CategoryElectronic},
	{"jazz", track.CategoryJazz},
	{"blues", track.CategoryJazz},
	{"swing", track.CategoryJazz},
	{"bebop", track.CategoryJazz},
	{"classical", track.CategoryClassical},
	{"baroque", track.CategoryClassical},
	{"opera", track.CategoryClassical},
	{"symphony", track.CategoryClassical},
	{"orchestr", track.CategoryClassical},
	{"pop", track.CategoryPop},
}

// CategoryFor maps a genre tag onto a catalogue category. Unknown or empty
// genres are CategoryOther.
func CategoryFor(genre string) track.Category {
	g := strings.ToLower(strings.TrimSpace(genre))
	if g == "" {
		return track.CategoryOther
	}
	if c, ok := track.ParseCategory(g); ok && c != track.CategoryAll {
		return c
	}
	for _, k := range genreKeywords {
		if strings.Contains(g, k.keyword) {
			return k.category
		}
	}
	return track.CategoryOther
}

// Fill copies tag metadata into the empty descriptive fields of t. The album
// becomes the description.
func (i *Info) Fill(t *track.Track) {
	if t.Title == "" {
		t.Title = truncate(i.Title, track.TitleMaxLength)
	}
	if t.Artist == "" {
		t.Artist = i.Artist
	}
	if t.Description == "" {
		t.Description = truncate(i.Album, track.DescriptionMaxLength)
	}
	if t.Category == "" {
		t.Category = CategoryFor(i.Genre)
	}
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
