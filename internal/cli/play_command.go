package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/llehouerou/trackvault/internal/logging"
	"github.com/llehouerou/trackvault/internal/playback"
	"github.com/llehouerou/trackvault/internal/track"
)

func newPlayCommand(ctx *commandContext) *cobra.Command {
	var (
		volume       float64
		continueNext bool
	)
	cmd := &cobra.Command{
		Use:   "play <id>",
		Short: "Play a track through the default audio output",
		Long: "Play a track and wait until it ends. With --continue the rest of the " +
			"catalogue follows in order, wrapping around. Interrupt to stop.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd, func(lib *library) error {
				start, err := lib.track(args[0])
				if err != nil {
					return err
				}

				level := lib.cfg.PlaybackVolume()
				if cmd.Flags().Changed("volume") {
					level = volume
				}

				engine := playback.New(ctx.newElement(lib.logger),
					playback.WithLogger(lib.logger),
					playback.WithVolume(level))
				defer engine.Close()

				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				p := &player{lib: lib, engine: engine, cmd: cmd}
				return p.run(runCtx, start, continueNext)
			})
		},
	}
	cmd.Flags().Float64Var(&volume, "volume", playback.DefaultVolume, "Volume between 0 and 1")
	cmd.Flags().BoolVar(&continueNext, "continue", false, "Keep playing the following tracks")
	return cmd
}

type player struct {
	lib    *library
	engine playback.Service
	cmd    *cobra.Command
}

// playlist builds one entry per catalogue track in catalogue order.
func (p *player) playlist(ctx context.Context) []playback.Entry {
	tracks := p.lib.coord.State().Tracks
	entries := make([]playback.Entry, 0, len(tracks))
	for _, t := range tracks {
		loc, err := p.lib.coord.AudioLocator(ctx, t.ID)
		if err != nil {
			loc = ""
		}
		entries = append(entries, playback.Entry{TrackID: t.ID, Locator: loc})
	}
	return entries
}

func (p *player) run(ctx context.Context, start track.Track, continueNext bool) error {
	p.engine.SetPlaylist(p.playlist(ctx))

	locator, err := p.lib.coord.AudioLocator(ctx, start.ID)
	if err != nil {
		return err
	}

	sub := p.engine.Subscribe()
	defer sub.Close()

	if err := p.engine.Play(ctx, locator, start.ID); err != nil {
		return err
	}
	p.announce(ctx, start.ID)

	current := start.ID
	active := false
	for {
		select {
		case <-ctx.Done():
			p.engine.Stop()
			return nil
		case <-sub.Done:
			return nil
		case s, ok := <-sub.C:
			if !ok {
				return nil
			}
			if s.CurrentTrackID != current {
				current = s.CurrentTrackID
				active = false
				p.announce(ctx, current)
			}
			if s.Status.IsActive() {
				active = true
				continue
			}
			if !active {
				continue
			}
			// Stopped after playing: the track ended.
			if !continueNext {
				return nil
			}
			active = false
			if err := p.engine.Next(ctx); err != nil {
				return err
			}
		}
	}
}

func (p *player) announce(ctx context.Context, id track.ID) {
	t, ok := p.lib.coord.Get(id)
	if !ok {
		return
	}
	fmt.Fprintf(p.cmd.OutOrStdout(), "Playing %s - %s (%s)\n", t.Artist, t.Title, formatDuration(t.Duration))
	if _, err := p.lib.coord.IncrementPlays(ctx, id); err != nil {
		p.lib.logger.Warn("failed to count play", logging.TrackID(id), logging.Error(err))
	}
}
