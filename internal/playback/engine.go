// Package playback is the transport state machine over a single media
// element. Commands move the machine directly; element events only report
// progress, readiness and natural end of media.
package playback

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/llehouerou/trackvault/internal/errmsg"
	"github.com/llehouerou/trackvault/internal/logging"
	"github.com/llehouerou/trackvault/internal/media"
	"github.com/llehouerou/trackvault/internal/stream"
	"github.com/llehouerou/trackvault/internal/track"
)

// Service defines the playback contract consumed by the presentation layer.
type Service interface {
	Play(ctx context.Context, locator string, id track.ID) error
	Pause()
	Stop()
	Toggle(ctx context.Context) error
	Seek(pos time.Duration) error
	SetVolume(level float64)
	SetPlaylist(entries []Entry)
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	State() State
	Subscribe() *stream.Subscription[State]
	Close() error
}

// Engine drives one media element. It never holds a lock while calling into
// the element, since elements may emit events synchronously.
type Engine struct {
	el     media.Element
	logger *slog.Logger
	state  *stream.Value[State]

	mu       sync.Mutex
	playlist []Entry
	resume   Status // status to restore when buffering ends
	pauses   uint64
}

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	logger *slog.Logger
	volume float64
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *engineConfig) { c.logger = l }
}

// WithVolume sets the initial volume, clamped to [0, 1].
func WithVolume(level float64) Option {
	return func(c *engineConfig) { c.volume = clamp(level) }
}

// New creates a stopped engine bound to el.
func New(el media.Element, opts ...Option) *Engine {
	cfg := engineConfig{volume: DefaultVolume}
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Engine{
		el:     el,
		logger: logging.Component(cfg.logger, "playback"),
		state: stream.NewValue(State{
			Status: StatusStopped,
			Volume: cfg.volume,
			Index:  -1,
		}),
	}
	el.SetVolume(cfg.volume)
	el.OnEvent(e.handle)
	return e
}

// State returns the current playback snapshot.
func (e *Engine) State() State {
	return e.state.Get()
}

// Subscribe streams playback snapshots, starting with the current one.
func (e *Engine) Subscribe() *stream.Subscription[State] {
	return e.state.Subscribe()
}

// Close releases the element and ends all subscriptions.
func (e *Engine) Close() error {
	e.el.OnEvent(nil)
	err := e.el.Close()
	e.state.Close()
	return err
}

// Play starts locator. The same locator while paused or stopped resumes the
// loaded resource; any other locator replaces it. A rejected request leaves
// the engine stopped with a warning and returns an ErrPlayback error.
func (e *Engine) Play(ctx context.Context, locator string, id track.ID) error {
	e.mu.Lock()
	idx := indexOf(e.playlist, id, locator)
	e.mu.Unlock()
	return e.play(ctx, locator, id, idx)
}

func (e *Engine) play(ctx context.Context, locator string, id track.ID, idx int) error {
	if strings.TrimSpace(locator) == "" {
		return e.reject(errmsg.Wrap(errmsg.ErrPlayback, errmsg.OpPlaybackStart, "no playable locator", nil))
	}

	cur := e.state.Get()
	same := e.el.Source() == locator && (id.IsZero() || id == cur.CurrentTrackID)
	if same && (cur.Status == StatusPlaying || cur.Status == StatusBuffering) {
		return nil
	}

	if same {
		e.state.Update(func(s State) State {
			s.Warning = ""
			if idx >= 0 {
				s.Index = idx
			}
			return s
		})
	} else {
		if err := e.el.SetSource(locator); err != nil {
			return e.reject(err)
		}
		e.state.Update(func(s State) State {
			s.Status = StatusStopped
			s.CurrentTrackID = id
			s.CurrentTime = 0
			s.Duration = 0
			s.IsLoading = true
			s.Warning = ""
			s.Index = idx
			return s
		})
	}

	pauses := e.pauseCount()
	if err := e.el.Play(ctx); err != nil {
		return e.reject(err)
	}
	if e.pauseCount() != pauses {
		// Paused while loading: the element started anyway.
		e.el.Pause()
		return nil
	}

	e.state.Update(func(s State) State {
		if s.Status == StatusStopped || s.Status == StatusPaused {
			s.Status = StatusPlaying
		}
		if s.Status != StatusBuffering {
			s.IsLoading = false
		}
		return s
	})
	e.logger.Debug("playing", slog.String(logging.FieldLocator, locator))
	return nil
}

// Pause pauses a playing or buffering resource.
func (e *Engine) Pause() {
	if s := e.state.Get().Status; s != StatusPlaying && s != StatusBuffering {
		return
	}
	e.mu.Lock()
	e.pauses++
	e.mu.Unlock()
	e.el.Pause()
	e.state.Update(func(s State) State {
		if s.Status.IsActive() {
			s.Status = StatusPaused
		}
		s.IsLoading = false
		return s
	})
}

// Stop halts playback from any state and rewinds to the start.
func (e *Engine) Stop() {
	e.el.Stop()
	e.state.Update(func(s State) State {
		s.Status = StatusStopped
		s.CurrentTime = 0
		s.IsLoading = false
		return s
	})
}

// Toggle pauses while playing and resumes otherwise.
func (e *Engine) Toggle(ctx context.Context) error {
	s := e.state.Get()
	switch s.Status {
	case StatusPlaying, StatusBuffering:
		e.Pause()
		return nil
	case StatusPaused, StatusStopped:
		src := e.el.Source()
		if src == "" {
			return nil
		}
		return e.play(ctx, src, s.CurrentTrackID, s.Index)
	default:
		return nil
	}
}

// Seek moves the playhead. It is a no-op without a loaded resource.
func (e *Engine) Seek(pos time.Duration) error {
	if e.el.Source() == "" {
		return nil
	}
	pos = max(pos, 0)
	if d := e.state.Get().Duration; d > 0 {
		pos = min(pos, d)
	}
	if err := e.el.Seek(pos); err != nil {
		if !errors.Is(err, errmsg.ErrPlayback) {
			err = errmsg.Wrap(errmsg.ErrPlayback, errmsg.OpPlaybackSeek, "", err)
		}
		e.logger.Warn("seek failed", logging.Op(errmsg.OpPlaybackSeek), logging.Error(err))
		e.state.Update(func(s State) State {
			s.Warning = errmsg.Format(errmsg.OpPlaybackSeek, err)
			return s
		})
		return err
	}
	e.state.Update(func(s State) State {
		s.CurrentTime = pos
		return s
	})
	return nil
}

// SetVolume applies a clamped level to the loaded resource. It is a no-op
// without one.
func (e *Engine) SetVolume(level float64) {
	if e.el.Source() == "" {
		return
	}
	level = clamp(level)
	e.el.SetVolume(level)
	e.state.Update(func(s State) State {
		s.Volume = level
		return s
	})
}

// SetPlaylist replaces the ordered entries used by Next and Previous.
func (e *Engine) SetPlaylist(entries []Entry) {
	list := slices.Clone(entries)
	src := e.el.Source()

	e.mu.Lock()
	e.playlist = list
	e.mu.Unlock()

	e.state.Update(func(s State) State {
		s.Index = -1
		if src != "" {
			s.Index = indexOf(list, s.CurrentTrackID, src)
		}
		return s
	})
}

// Playlist returns a copy of the current entries.
func (e *Engine) Playlist() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.playlist)
}

// Next plays the following playable entry, wrapping to the first.
func (e *Engine) Next(ctx context.Context) error {
	return e.step(ctx, 1)
}

// Previous plays the preceding playable entry, wrapping to the last.
func (e *Engine) Previous(ctx context.Context) error {
	return e.step(ctx, -1)
}

func (e *Engine) step(ctx context.Context, dir int) error {
	e.mu.Lock()
	entries := e.playlist
	e.mu.Unlock()

	i, ok := stepIndex(entries, e.state.Get().Index, dir)
	if !ok {
		return nil
	}
	return e.play(ctx, entries[i].Locator, entries[i].TrackID, i)
}

func (e *Engine) reject(err error) error {
	if !errors.Is(err, errmsg.ErrPlayback) {
		err = errmsg.Wrap(errmsg.ErrPlayback, errmsg.OpPlaybackStart, "", err)
	}
	e.logger.Warn("playback rejected", logging.Op(errmsg.OpPlaybackStart), logging.Error(err))
	e.state.Update(func(s State) State {
		s.Status = StatusStopped
		s.IsLoading = false
		s.Warning = errmsg.Format(errmsg.OpPlaybackStart, err)
		return s
	})
	return err
}

// handle folds element events into the state.
func (e *Engine) handle(ev media.Event) {
	switch ev.Type {
	case media.EventPlay:
		e.state.Update(func(s State) State {
			if s.Status == StatusPaused {
				return s
			}
			s.Status = StatusPlaying
			s.IsLoading = false
			return s
		})
	case media.EventPause:
		e.state.Update(func(s State) State {
			if s.Status == StatusPlaying || s.Status == StatusBuffering {
				s.Status = StatusPaused
			}
			return s
		})
	case media.EventEnded:
		e.state.Update(func(s State) State {
			s.Status = StatusStopped
			s.CurrentTime = 0
			s.IsLoading = false
			return s
		})
	case media.EventTimeUpdate:
		e.state.Update(func(s State) State {
			s.CurrentTime = ev.Position
			if ev.Duration > 0 {
				s.Duration = ev.Duration
			}
			return s
		})
	case media.EventLoadedMetadata:
		e.state.Update(func(s State) State {
			s.Duration = ev.Duration
			return s
		})
	case media.EventWaiting:
		e.state.Update(func(s State) State {
			if s.Status != StatusBuffering {
				e.setResume(s.Status)
				s.Status = StatusBuffering
			}
			s.IsLoading = true
			return s
		})
	case media.EventCanPlay:
		e.state.Update(func(s State) State {
			if s.Status == StatusBuffering {
				s.Status = e.takeResume()
			}
			s.IsLoading = false
			return s
		})
	case media.EventError:
		// Rejections raised by Play are handled on its return path.
		e.logger.Debug("element error", logging.Error(ev.Err))
	}
}

func (e *Engine) pauseCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pauses
}

func (e *Engine) setResume(s Status) {
	e.mu.Lock()
	e.resume = s
	e.mu.Unlock()
}

func (e *Engine) takeResume() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.resume
	e.resume = StatusStopped
	return s
}

func clamp(level float64) float64 {
	return max(0, min(level, 1))
}

// Verify Engine implements Service at compile time.
var _ Service = (*Engine)(nil)
