package remote

import (
	"strconv"
	"strings"
	"time"

	"github.com/llehouerou/trackvault/internal/track"
)

// Song is the wire representation of a catalogue entry.
type Song struct {
	ID        *int64 `json:"id,omitempty"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Album     string `json:"album,omitempty"`
	Genre     string `json:"genre,omitempty"`
	Category  string `json:"category"`
	Duration  int    `json:"duration"` // seconds
	AudioURL  string `json:"audioUrl,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// wireTimeLayout is the zoneless timestamp the server emits and accepts.
const wireTimeLayout = "2006-01-02T15:04:05"

// ToTrack converts a wire Song into a Track. Usage fields are left zero:
// the remote does not store them.
func ToTrack(s Song) track.Track {
	t := track.Track{
		Title:       s.Title,
		Artist:      s.Artist,
		Description: s.Album,
		Category:    track.CategoryOrOther(s.Category),
		Duration:    time.Duration(max(s.Duration, 0)) * time.Second,
		AddedDate:   parseWireTime(s.CreatedAt),
	}
	if s.ID != nil && *s.ID > 0 {
		t.ID = track.RemoteID(uint64(*s.ID))
	}
	if track.SourceOf(s.AudioURL) == track.SourceRemote {
		t.FilePath = s.AudioURL
	}
	if track.SourceOf(s.ImageURL) == track.SourceRemote {
		t.CoverImage = s.ImageURL
	}
	return t
}

// FromTrack converts a Track into its wire form. Local ids and local blob
// locators never leave the process.
func FromTrack(t track.Track) Song {
	s := Song{
		Title:    t.Title,
		Artist:   t.Artist,
		Album:    t.Description,
		Category: string(t.Category),
		Duration: int(t.Duration.Round(time.Second) / time.Second),
	}
	if n, ok := t.ID.Remote(); ok {
		id := int64(n)
		s.ID = &id
	}
	if t.AudioSource() == track.SourceRemote {
		s.AudioURL = t.FilePath
	}
	if t.CoverSource() == track.SourceRemote {
		s.ImageURL = t.CoverImage
	}
	if !t.AddedDate.IsZero() {
		s.CreatedAt = t.AddedDate.UTC().Format(wireTimeLayout)
	}
	return s
}

// ToTracks converts a list of songs.
func ToTracks(songs []Song) []track.Track {
	tracks := make([]track.Track, 0, len(songs))
	for _, s := range songs {
		tracks = append(tracks, ToTrack(s))
	}
	return tracks
}

func parseWireTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	for _, layout := range []string{wireTimeLayout + ".999999999", wireTimeLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}
