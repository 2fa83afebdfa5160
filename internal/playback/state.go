package playback

import (
	"time"

	"github.com/llehouerou/trackvault/internal/track"
)

// Status is the transport state.
type Status int

const (
	StatusStopped Status = iota
	StatusPlaying
	StatusPaused
	StatusBuffering
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusBuffering:
		return "buffering"
	default:
		return "unknown"
	}
}

// IsActive returns true if a resource is playing, paused or buffering.
func (s Status) IsActive() bool {
	return s != StatusStopped
}

// DefaultVolume is the initial volume.
const DefaultVolume = 0.7

// State is the playback snapshot published by the Engine.
type State struct {
	Status         Status
	CurrentTrackID track.ID
	CurrentTime    time.Duration
	Duration       time.Duration
	Volume         float64
	IsLoading      bool
	// Warning holds the message of the last rejected playback request.
	Warning string
	// Index is the playlist position of the current entry, -1 if none.
	Index int
}

// Entry is one playlist item. An entry without a locator is skipped by
// Next and Previous.
type Entry struct {
	TrackID track.ID
	Locator string
}

// Playable reports whether the entry has a locator.
func (e Entry) Playable() bool {
	return e.Locator != ""
}
