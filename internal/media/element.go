// Package media provides the audio element the playback engine drives: a
// single source, transport controls, and a stream of readiness and progress
// events.
package media

import (
	"context"
	"time"
)

// EventType identifies an element notification.
type EventType int

const (
	EventPlay EventType = iota
	EventPause
	EventEnded
	EventTimeUpdate
	EventLoadedMetadata
	EventWaiting
	EventCanPlay
	EventError
)

// String returns the event name.
func (t EventType) String() string {
	switch t {
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventEnded:
		return "ended"
	case EventTimeUpdate:
		return "timeupdate"
	case EventLoadedMetadata:
		return "loadedmetadata"
	case EventWaiting:
		return "waiting"
	case EventCanPlay:
		return "canplay"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is emitted by an Element. Position and Duration are set for
// time-update and loaded-metadata events, Err for error events.
type Event struct {
	Type     EventType
	Position time.Duration
	Duration time.Duration
	Err      error
}

// Element is one audio resource slot.
//
// Handlers registered with OnEvent may be called synchronously from inside
// any method, so callers must not hold their own locks while calling in.
type Element interface {
	// SetSource releases the current resource and binds locator.
	// An empty locator leaves the element unloaded.
	SetSource(locator string) error
	Source() string
	// Play loads the source if needed and starts or resumes playback.
	Play(ctx context.Context) error
	Pause()
	// Stop pauses and rewinds to the start.
	Stop()
	Seek(pos time.Duration) error
	// SetVolume takes a linear level in [0, 1].
	SetVolume(level float64)
	OnEvent(fn func(Event))
	Close() error
}
