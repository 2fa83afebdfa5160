package media

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/llehouerou/trackvault/internal/errmsg"
	"github.com/llehouerou/trackvault/internal/logging"
)

// DefaultTickInterval is how often time-update events fire while playing.
const DefaultTickInterval = 250 * time.Millisecond

// ErrClosed is returned by a Backend after Close.
var ErrClosed = errors.New("media element closed")

// resource is one decoded source wired into the effect chain.
type resource struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	queued   bool // handed to the speaker and not yet drained
}

func (r *resource) duration() time.Duration {
	return r.format.SampleRate.D(r.streamer.Len())
}

// Backend is an Element that plays through the system audio device with beep.
// It owns the speaker: the speaker is initialized on first playback with the
// first decoded sample rate, later sources are resampled to it.
type Backend struct {
	client       *http.Client
	logger       *slog.Logger
	tickInterval time.Duration

	mu          sync.Mutex
	source      string
	res         *resource
	gen         uint64
	level       float64
	handler     func(Event)
	stopTick    chan struct{}
	speakerRate beep.SampleRate
	speakerOn   bool
	closed      bool
}

// BackendOption configures a Backend.
type BackendOption func(*Backend)

// WithHTTPClient sets the client used for http(s) locators.
func WithHTTPClient(c *http.Client) BackendOption {
	return func(b *Backend) { b.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) BackendOption {
	return func(b *Backend) { b.logger = logging.Component(l, "media") }
}

// WithTickInterval sets the time-update period.
func WithTickInterval(d time.Duration) BackendOption {
	return func(b *Backend) {
		if d > 0 {
			b.tickInterval = d
		}
	}
}

// NewBackend creates an unloaded backend at full volume.
func NewBackend(opts ...BackendOption) *Backend {
	b := &Backend{
		client:       http.DefaultClient,
		logger:       logging.Component(nil, "media"),
		tickInterval: DefaultTickInterval,
		level:        1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) OnEvent(fn func(Event)) {
	b.mu.Lock()
	b.handler = fn
	b.mu.Unlock()
}

func (b *Backend) Source() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.source
}

func (b *Backend) SetSource(locator string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.releaseLocked()
	b.gen++
	b.source = locator
	return nil
}

// Play fetches and decodes the source on first use, then starts or resumes
// output.
func (b *Backend) Play(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	src, res, gen := b.source, b.res, b.gen
	b.mu.Unlock()

	if src == "" {
		return b.reject(errmsg.Wrap(errmsg.ErrPlayback, errmsg.OpPlaybackStart, "no source", nil))
	}

	if res == nil {
		b.emit(Event{Type: EventWaiting})
		loaded, err := b.load(ctx, src)
		if err != nil {
			return b.reject(errmsg.Wrap(errmsg.ErrPlayback, errmsg.OpPlaybackStart, src, err))
		}

		b.mu.Lock()
		if b.gen != gen || b.closed {
			b.mu.Unlock()
			loaded.streamer.Close()
			return errmsg.Wrap(errmsg.ErrPlayback, errmsg.OpPlaybackStart, "source replaced while loading", nil)
		}
		if err := b.initSpeakerLocked(loaded.format.SampleRate); err != nil {
			b.mu.Unlock()
			loaded.streamer.Close()
			return b.reject(errmsg.Wrap(errmsg.ErrPlayback, errmsg.OpPlaybackStart, "open audio device", err))
		}
		b.wireLocked(loaded)
		b.res = loaded
		res = loaded
		b.mu.Unlock()

		b.emit(Event{Type: EventLoadedMetadata, Duration: res.duration()})
		b.emit(Event{Type: EventCanPlay, Duration: res.duration()})
	}

	b.mu.Lock()
	if b.res != res {
		b.mu.Unlock()
		return errmsg.Wrap(errmsg.ErrPlayback, errmsg.OpPlaybackStart, "source replaced while loading", nil)
	}
	if res.queued {
		speaker.Lock()
		res.ctrl.Paused = false
		speaker.Unlock()
	} else {
		res.ctrl.Paused = false
		res.queued = true
		speaker.Play(beep.Seq(res.volume, beep.Callback(func() {
			// Runs on the speaker goroutine with the speaker lock held.
			go b.drained(gen, res)
		})))
	}
	b.startTickerLocked(gen)
	b.mu.Unlock()

	b.emit(Event{Type: EventPlay})
	return nil
}

func (b *Backend) Pause() {
	b.mu.Lock()
	res := b.res
	if res == nil || !res.queued {
		b.mu.Unlock()
		return
	}
	speaker.Lock()
	res.ctrl.Paused = true
	pos := res.format.SampleRate.D(res.streamer.Position())
	speaker.Unlock()
	b.stopTickerLocked()
	b.mu.Unlock()

	b.emit(Event{Type: EventPause, Position: pos, Duration: res.duration()})
}

func (b *Backend) Stop() {
	b.mu.Lock()
	res := b.res
	if res == nil {
		b.mu.Unlock()
		return
	}
	b.stopTickerLocked()
	speaker.Lock()
	res.ctrl.Paused = true
	err := res.streamer.Seek(0)
	speaker.Unlock()
	b.mu.Unlock()

	if err != nil {
		b.logger.Warn("rewind failed", logging.Error(err))
	}
	b.emit(Event{Type: EventTimeUpdate, Position: 0, Duration: res.duration()})
}

// Seek moves the playhead, clamped to the resource bounds. It is a no-op
// without a loaded resource.
func (b *Backend) Seek(pos time.Duration) error {
	b.mu.Lock()
	res := b.res
	if res == nil {
		b.mu.Unlock()
		return nil
	}
	dur := res.duration()
	pos = max(0, min(pos, dur))
	speaker.Lock()
	err := res.streamer.Seek(res.format.SampleRate.N(pos))
	speaker.Unlock()
	b.mu.Unlock()

	if err != nil {
		return errmsg.Wrap(errmsg.ErrPlayback, errmsg.OpPlaybackSeek, "", err)
	}
	b.emit(Event{Type: EventTimeUpdate, Position: pos, Duration: dur})
	return nil
}

func (b *Backend) SetVolume(level float64) {
	level = clampLevel(level)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.level = level
	if b.res == nil {
		return
	}
	speaker.Lock()
	b.res.volume.Volume = levelToVolume(level)
	b.res.volume.Silent = level <= 0
	speaker.Unlock()
}

// Close releases the resource and the audio device.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.releaseLocked()
	b.gen++
	b.source = ""
	if b.speakerOn {
		speaker.Close()
		b.speakerOn = false
	}
	return nil
}

func (b *Backend) load(ctx context.Context, src string) (*resource, error) {
	data, err := Fetch(ctx, b.client, src)
	if err != nil {
		return nil, err
	}
	s, format, err := Decode(src, data)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("source decoded",
		slog.String(logging.FieldLocator, src),
		slog.Int("sample_rate", int(format.SampleRate)),
		slog.Duration("duration", format.SampleRate.D(s.Len())))
	return &resource{streamer: s, format: format}, nil
}

func (b *Backend) initSpeakerLocked(rate beep.SampleRate) error {
	if b.speakerOn {
		return nil
	}
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return err
	}
	b.speakerRate = rate
	b.speakerOn = true
	return nil
}

func (b *Backend) wireLocked(r *resource) {
	var s beep.Streamer = r.streamer
	if r.format.SampleRate != b.speakerRate {
		s = beep.Resample(4, r.format.SampleRate, b.speakerRate, r.streamer)
	}
	r.ctrl = &beep.Ctrl{Streamer: s, Paused: true}
	r.volume = &effects.Volume{
		Streamer: r.ctrl,
		Base:     2,
		Volume:   levelToVolume(b.level),
		Silent:   b.level <= 0,
	}
}

// releaseLocked drops the current resource. The backend is the only speaker
// client, so clearing the speaker removes exactly this resource.
func (b *Backend) releaseLocked() {
	b.stopTickerLocked()
	if b.res == nil {
		return
	}
	if b.speakerOn {
		speaker.Clear()
	}
	if err := b.res.streamer.Close(); err != nil {
		b.logger.Warn("close stream failed", logging.Error(err))
	}
	b.res = nil
}

// drained handles natural end of media for the resource of generation gen.
func (b *Backend) drained(gen uint64, res *resource) {
	b.mu.Lock()
	if b.gen != gen || b.res != res {
		b.mu.Unlock()
		return
	}
	b.stopTickerLocked()
	speaker.Lock()
	res.queued = false
	err := res.streamer.Seek(0)
	speaker.Unlock()
	b.mu.Unlock()

	if err != nil {
		b.logger.Warn("rewind after end failed", logging.Error(err))
	}
	b.emit(Event{Type: EventEnded, Duration: res.duration()})
}

func (b *Backend) startTickerLocked(gen uint64) {
	b.stopTickerLocked()
	stop := make(chan struct{})
	b.stopTick = stop
	go b.tick(gen, stop)
}

func (b *Backend) stopTickerLocked() {
	if b.stopTick != nil {
		close(b.stopTick)
		b.stopTick = nil
	}
}

func (b *Backend) tick(gen uint64, stop <-chan struct{}) {
	t := time.NewTicker(b.tickInterval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			ev, ok := b.progress(gen)
			if !ok {
				return
			}
			select {
			case <-stop:
				return
			default:
				b.emit(ev)
			}
		}
	}
}

func (b *Backend) progress(gen uint64) (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gen != gen || b.res == nil {
		return Event{}, false
	}
	speaker.Lock()
	pos := b.res.format.SampleRate.D(b.res.streamer.Position())
	speaker.Unlock()
	return Event{Type: EventTimeUpdate, Position: pos, Duration: b.res.duration()}, true
}

func (b *Backend) reject(err error) error {
	b.logger.Warn("playback rejected", logging.Error(err))
	b.emit(Event{Type: EventError, Err: err})
	return err
}

// emit calls the handler without holding the backend lock.
func (b *Backend) emit(ev Event) {
	b.mu.Lock()
	fn := b.handler
	b.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func clampLevel(level float64) float64 {
	return max(0, min(level, 1))
}

// levelToVolume maps a linear level onto beep's base-2 volume scale:
// 1.0 -> 0, 0.5 -> -1, 0.25 -> -2, 0 -> -10.
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}

// Verify Backend implements Element at compile time.
var _ Element = (*Backend)(nil)
