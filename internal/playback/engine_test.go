package playback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/trackvault/internal/errmsg"
	"github.com/llehouerou/trackvault/internal/media"
	"github.com/llehouerou/trackvault/internal/track"
)

func newTestEngine(t *testing.T) (*Engine, *media.Mock) {
	t.Helper()
	el := media.NewMock()
	e := New(el)
	t.Cleanup(func() { _ = e.Close() })
	return e, el
}

func TestNew_InitialState(t *testing.T) {
	e, el := newTestEngine(t)

	s := e.State()
	assert.Equal(t, StatusStopped, s.Status)
	assert.InDelta(t, DefaultVolume, s.Volume, 1e-9)
	assert.InDelta(t, DefaultVolume, el.Level(), 1e-9)
	assert.Equal(t, -1, s.Index)
	assert.True(t, s.CurrentTrackID.IsZero())
}

func TestNew_WithVolumeClamps(t *testing.T) {
	e := New(media.NewMock(), WithVolume(3))
	assert.InDelta(t, 1.0, e.State().Volume, 1e-9)
}

func TestEngine_PlaySetsTrackAndStatus(t *testing.T) {
	e, el := newTestEngine(t)
	el.SetDuration(3 * time.Minute)
	id := track.RemoteID(4)

	require.NoError(t, e.Play(context.Background(), "file:///a.mp3", id))

	s := e.State()
	assert.Equal(t, StatusPlaying, s.Status)
	assert.Equal(t, id, s.CurrentTrackID)
	assert.Equal(t, 3*time.Minute, s.Duration)
	assert.False(t, s.IsLoading)
	assert.Empty(t, s.Warning)
}

func TestEngine_PlayReplacesResource(t *testing.T) {
	e, el := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.Play(ctx, "file:///a.mp3", track.RemoteID(1)))
	require.NoError(t, e.Play(ctx, "file:///b.mp3", track.RemoteID(2)))

	assert.Equal(t, 1, el.ActiveResources())
	assert.Equal(t, "file:///b.mp3", el.Source())
	assert.Equal(t, track.RemoteID(2), e.State().CurrentTrackID)
}

func TestEngine_PlaySameLocatorResumes(t *testing.T) {
	e, el := newTestEngine(t)
	ctx := context.Background()
	id := track.RemoteID(1)

	require.NoError(t, e.Play(ctx, "file:///a.mp3", id))
	e.Pause()
	assert.Equal(t, StatusPaused, e.State().Status)

	require.NoError(t, e.Play(ctx, "file:///a.mp3", id))
	assert.Equal(t, StatusPlaying, e.State().Status)
	assert.Equal(t, []string{"file:///a.mp3"}, el.Sources(), "source must not be reloaded")
	assert.Equal(t, 2, el.PlayCalls())
}

func TestEngine_PlayWhilePlayingSameLocatorIsNoop(t *testing.T) {
	e, el := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.Play(ctx, "file:///a.mp3", track.RemoteID(1)))
	require.NoError(t, e.Play(ctx, "file:///a.mp3", track.RemoteID(1)))
	assert.Equal(t, 1, el.PlayCalls())
}

func TestEngine_RejectedPlayStopsWithWarning(t *testing.T) {
	e, el := newTestEngine(t)
	el.SetPlayError(errors.New("unsupported format"))

	err := e.Play(context.Background(), "file:///a.flac", track.RemoteID(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, errmsg.ErrPlayback)

	s := e.State()
	assert.Equal(t, StatusStopped, s.Status)
	assert.False(t, s.IsLoading)
	assert.Contains(t, s.Warning, "unsupported format")
}

func TestEngine_PlayEmptyLocator(t *testing.T) {
	e, el := newTestEngine(t)

	err := e.Play(context.Background(), "", track.RemoteID(1))
	assert.ErrorIs(t, err, errmsg.ErrPlayback)
	assert.Equal(t, StatusStopped, e.State().Status)
	assert.Zero(t, el.PlayCalls())
}

func TestEngine_StopFromAnyState(t *testing.T) {
	ctx := context.Background()
	setups := map[string]func(e *Engine, el *media.Mock){
		"stopped": func(*Engine, *media.Mock) {},
		"playing": func(e *Engine, _ *media.Mock) {
			_ = e.Play(ctx, "file:///a.mp3", track.RemoteID(1))
		},
		"paused": func(e *Engine, _ *media.Mock) {
			_ = e.Play(ctx, "file:///a.mp3", track.RemoteID(1))
			e.Pause()
		},
		"buffering": func(e *Engine, el *media.Mock) {
			_ = e.Play(ctx, "file:///a.mp3", track.RemoteID(1))
			el.Emit(media.Event{Type: media.EventWaiting})
		},
	}
	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			e, el := newTestEngine(t)
			setup(e, el)
			el.Emit(media.Event{Type: media.EventTimeUpdate, Position: 42 * time.Second})

			e.Stop()

			s := e.State()
			assert.Equal(t, StatusStopped, s.Status)
			assert.Zero(t, s.CurrentTime)
			assert.Zero(t, el.Position())
		})
	}
}

func TestEngine_TimeUpdatesArePassive(t *testing.T) {
	e, el := newTestEngine(t)
	require.NoError(t, e.Play(context.Background(), "file:///a.mp3", track.RemoteID(1)))

	el.Emit(media.Event{Type: media.EventTimeUpdate, Position: 10 * time.Second, Duration: time.Minute})

	s := e.State()
	assert.Equal(t, StatusPlaying, s.Status)
	assert.Equal(t, 10*time.Second, s.CurrentTime)
	assert.Equal(t, time.Minute, s.Duration)
}

func TestEngine_EndedStops(t *testing.T) {
	e, el := newTestEngine(t)
	require.NoError(t, e.Play(context.Background(), "file:///a.mp3", track.RemoteID(1)))
	el.Emit(media.Event{Type: media.EventTimeUpdate, Position: 59 * time.Second})

	el.SimulateEnded()

	s := e.State()
	assert.Equal(t, StatusStopped, s.Status)
	assert.Zero(t, s.CurrentTime)
}

func TestEngine_BufferingFollowsReadiness(t *testing.T) {
	e, el := newTestEngine(t)
	require.NoError(t, e.Play(context.Background(), "file:///a.mp3", track.RemoteID(1)))

	el.Emit(media.Event{Type: media.EventWaiting})
	s := e.State()
	assert.Equal(t, StatusBuffering, s.Status)
	assert.True(t, s.IsLoading)

	el.Emit(media.Event{Type: media.EventCanPlay})
	s = e.State()
	assert.Equal(t, StatusPlaying, s.Status)
	assert.False(t, s.IsLoading)
}

func TestEngine_PausedBufferingRestoresPaused(t *testing.T) {
	e, el := newTestEngine(t)
	require.NoError(t, e.Play(context.Background(), "file:///a.mp3", track.RemoteID(1)))
	e.Pause()

	el.Emit(media.Event{Type: media.EventWaiting})
	el.Emit(media.Event{Type: media.EventCanPlay})
	assert.Equal(t, StatusPaused, e.State().Status)
}

// slowElement reports buffering before each play and runs during while the
// source is still loading.
type slowElement struct {
	*media.Mock
	during func()
}

func (s *slowElement) Play(ctx context.Context) error {
	s.Emit(media.Event{Type: media.EventWaiting})
	if fn := s.during; fn != nil {
		s.during = nil
		fn()
	}
	return s.Mock.Play(ctx)
}

func TestEngine_PauseWhileLoadingSticks(t *testing.T) {
	el := &slowElement{Mock: media.NewMock()}
	e := New(el)
	t.Cleanup(func() { _ = e.Close() })
	el.during = func() {
		require.Equal(t, StatusBuffering, e.State().Status)
		e.Pause()
	}

	require.NoError(t, e.Play(context.Background(), "file:///a.mp3", track.RemoteID(1)))

	s := e.State()
	assert.Equal(t, StatusPaused, s.Status)
	assert.False(t, s.IsLoading)
	assert.False(t, el.Playing())

	require.NoError(t, e.Play(context.Background(), "file:///a.mp3", track.RemoteID(1)))
	assert.Equal(t, StatusPlaying, e.State().Status)
	assert.True(t, el.Playing())
}

func TestEngine_PlayEventIgnoredWhilePaused(t *testing.T) {
	e, el := newTestEngine(t)
	require.NoError(t, e.Play(context.Background(), "file:///a.mp3", track.RemoteID(1)))
	e.Pause()

	el.Emit(media.Event{Type: media.EventPlay})
	assert.Equal(t, StatusPaused, e.State().Status)
}

func TestEngine_SeekAndVolumeRequireResource(t *testing.T) {
	e, el := newTestEngine(t)

	require.NoError(t, e.Seek(5*time.Second))
	e.SetVolume(0.2)
	assert.Empty(t, el.SeekCalls())
	assert.InDelta(t, DefaultVolume, e.State().Volume, 1e-9)
}

func TestEngine_SeekClampsToDuration(t *testing.T) {
	e, el := newTestEngine(t)
	el.SetDuration(time.Minute)
	require.NoError(t, e.Play(context.Background(), "file:///a.mp3", track.RemoteID(1)))

	require.NoError(t, e.Seek(2*time.Minute))
	assert.Equal(t, time.Minute, e.State().CurrentTime)

	require.NoError(t, e.Seek(-time.Second))
	assert.Zero(t, e.State().CurrentTime)
	assert.Equal(t, []time.Duration{time.Minute, 0}, el.SeekCalls())
}

func TestEngine_SeekWhilePaused(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Play(context.Background(), "file:///a.mp3", track.RemoteID(1)))
	e.Pause()

	require.NoError(t, e.Seek(7*time.Second))
	s := e.State()
	assert.Equal(t, StatusPaused, s.Status)
	assert.Equal(t, 7*time.Second, s.CurrentTime)
}

func TestEngine_SetVolumeClamps(t *testing.T) {
	e, el := newTestEngine(t)
	require.NoError(t, e.Play(context.Background(), "file:///a.mp3", track.RemoteID(1)))

	e.SetVolume(1.5)
	assert.InDelta(t, 1.0, e.State().Volume, 1e-9)
	assert.InDelta(t, 1.0, el.Level(), 1e-9)

	e.SetVolume(-1)
	assert.InDelta(t, 0.0, e.State().Volume, 1e-9)
}

func TestEngine_Toggle(t *testing.T) {
	e, el := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.Toggle(ctx), "toggle without a source is a no-op")
	assert.Zero(t, el.PlayCalls())

	require.NoError(t, e.Play(ctx, "file:///a.mp3", track.RemoteID(1)))
	require.NoError(t, e.Toggle(ctx))
	assert.Equal(t, StatusPaused, e.State().Status)
	require.NoError(t, e.Toggle(ctx))
	assert.Equal(t, StatusPlaying, e.State().Status)
}

func TestEngine_NextWraps(t *testing.T) {
	e, el := newTestEngine(t)
	ctx := context.Background()
	e.SetPlaylist([]Entry{
		{TrackID: track.RemoteID(1), Locator: "file:///1.mp3"},
		{TrackID: track.RemoteID(2), Locator: "file:///2.mp3"},
		{TrackID: track.RemoteID(3), Locator: "file:///3.mp3"},
	})

	require.NoError(t, e.Play(ctx, "file:///3.mp3", track.RemoteID(3)))
	require.Equal(t, 2, e.State().Index)

	require.NoError(t, e.Next(ctx))
	s := e.State()
	assert.Equal(t, 0, s.Index)
	assert.Equal(t, track.RemoteID(1), s.CurrentTrackID)
	assert.Equal(t, "file:///1.mp3", el.Source())
}

func TestEngine_PreviousWraps(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	e.SetPlaylist([]Entry{
		{TrackID: track.RemoteID(1), Locator: "file:///1.mp3"},
		{TrackID: track.RemoteID(2), Locator: "file:///2.mp3"},
		{TrackID: track.RemoteID(3), Locator: "file:///3.mp3"},
	})

	require.NoError(t, e.Next(ctx))
	require.Equal(t, 0, e.State().Index)

	require.NoError(t, e.Previous(ctx))
	assert.Equal(t, 2, e.State().Index)
	assert.Equal(t, track.RemoteID(3), e.State().CurrentTrackID)
}

func TestEngine_NextSkipsUnplayable(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	e.SetPlaylist([]Entry{
		{TrackID: track.RemoteID(1), Locator: "file:///1.mp3"},
		{TrackID: track.RemoteID(2)},
		{TrackID: track.RemoteID(3), Locator: "file:///3.mp3"},
	})

	require.NoError(t, e.Next(ctx))
	require.NoError(t, e.Next(ctx))
	assert.Equal(t, 2, e.State().Index)
	assert.Empty(t, e.State().Warning)
}

func TestEngine_NextWithoutPlayableEntries(t *testing.T) {
	e, el := newTestEngine(t)
	e.SetPlaylist([]Entry{{TrackID: track.RemoteID(1)}})

	require.NoError(t, e.Next(context.Background()))
	assert.Zero(t, el.PlayCalls())
	assert.Equal(t, StatusStopped, e.State().Status)
}

func TestEngine_SetPlaylistLocatesCurrentTrack(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Play(context.Background(), "file:///2.mp3", track.RemoteID(2)))
	assert.Equal(t, -1, e.State().Index)

	e.SetPlaylist([]Entry{
		{TrackID: track.RemoteID(1), Locator: "file:///1.mp3"},
		{TrackID: track.RemoteID(2), Locator: "file:///2.mp3"},
	})
	assert.Equal(t, 1, e.State().Index)
}

func TestEngine_SubscribeReceivesTransitions(t *testing.T) {
	e, _ := newTestEngine(t)
	sub := e.Subscribe()
	defer sub.Close()

	first := <-sub.C
	assert.Equal(t, StatusStopped, first.Status)

	require.NoError(t, e.Play(context.Background(), "file:///a.mp3", track.RemoteID(1)))

	var last State
	for {
		select {
		case last = <-sub.C:
			continue
		default:
		}
		break
	}
	assert.Equal(t, StatusPlaying, last.Status)
}

func TestEngine_CloseReleasesElement(t *testing.T) {
	el := media.NewMock()
	e := New(el)
	sub := e.Subscribe()

	require.NoError(t, e.Close())
	assert.True(t, el.IsClosed())

	select {
	case <-sub.Done:
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
}
