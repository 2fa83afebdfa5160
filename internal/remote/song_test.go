package remote

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/trackvault/internal/track"
)

func TestToTrack(t *testing.T) {
	id := int64(42)
	s := Song{
		ID:        &id,
		Title:     "So What",
		Artist:    "Miles Davis",
		Album:     "Kind of Blue",
		Genre:     "Modal",
		Category:  "jazz",
		Duration:  562,
		AudioURL:  "https://cdn.example.com/so-what.mp3",
		ImageURL:  "https://cdn.example.com/kob.jpg",
		CreatedAt: "2024-02-03T04:05:06",
	}

	got := ToTrack(s)
	assert.Equal(t, track.RemoteID(42), got.ID)
	assert.Equal(t, "Kind of Blue", got.Description)
	assert.Equal(t, track.CategoryJazz, got.Category)
	assert.Equal(t, 562*time.Second, got.Duration)
	assert.Equal(t, s.AudioURL, got.FilePath)
	assert.Equal(t, s.ImageURL, got.CoverImage)
	assert.Equal(t, time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC), got.AddedDate)
	assert.Zero(t, got.Plays)
	assert.False(t, got.Liked)
}

func TestToTrack_UnknownCategoryBecomesOther(t *testing.T) {
	got := ToTrack(Song{Title: "x", Artist: "y", Category: "Polka"})
	assert.Equal(t, track.CategoryOther, got.Category)

	got = ToTrack(Song{Title: "x", Artist: "y"})
	assert.Equal(t, track.CategoryOther, got.Category)
}

func TestToTrack_IgnoresNonRemoteLocators(t *testing.T) {
	got := ToTrack(Song{AudioURL: "blob:abc", ImageURL: "/tmp/x.png"})
	assert.Empty(t, got.FilePath)
	assert.Empty(t, got.CoverImage)
}

func TestFromTrack_KeepsLocalDataLocal(t *testing.T) {
	tr := track.Track{
		ID:         track.NewLocalID(),
		Title:      "Demo",
		Artist:     "Me",
		Category:   track.CategoryRock,
		FilePath:   "file:///data/x/audio.mp3",
		CoverImage: "https://cdn.example.com/c.png",
		Duration:   90*time.Second + 400*time.Millisecond,
		AddedDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.FixedZone("CET", 3600)),
	}

	s := FromTrack(tr)
	assert.Nil(t, s.ID, "local ids are not sent")
	assert.Empty(t, s.AudioURL, "local blob locators are not sent")
	assert.Equal(t, tr.CoverImage, s.ImageURL)
	assert.Equal(t, 90, s.Duration)
	assert.Equal(t, "2023-12-31T23:00:00", s.CreatedAt)
}

func TestFromTrack_RemoteID(t *testing.T) {
	s := FromTrack(track.Track{ID: track.RemoteID(7)})
	require.NotNil(t, s.ID)
	assert.Equal(t, int64(7), *s.ID)
}

func TestParseWireTime(t *testing.T) {
	want := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2024-06-01T12:00:00",
		"2024-06-01T12:00:00.000",
		"2024-06-01T14:00:00+02:00",
		"2024-06-01T12:00:00Z",
	} {
		assert.True(t, want.Equal(parseWireTime(in)), in)
	}
	assert.True(t, parseWireTime("").IsZero())
	assert.True(t, parseWireTime("yesterday").IsZero())
}
