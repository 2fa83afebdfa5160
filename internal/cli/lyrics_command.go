package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/llehouerou/trackvault/internal/errmsg"
	"github.com/llehouerou/trackvault/internal/lyrics"
)

func newLyricsCommand(ctx *commandContext) *cobra.Command {
	var (
		artist string
		title  string
		stamps bool
	)
	cmd := &cobra.Command{
		Use:   "lyrics [id]",
		Short: "Show the lyrics of a track",
		Long:  "Look up lyrics by catalogue track or by --artist and --title.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && (artist == "" || title == "") {
				return errmsg.Validation("give a track id or both --artist and --title")
			}
			if len(args) == 1 {
				err := ctx.withLibrary(cmd, func(lib *library) error {
					t, err := lib.track(args[0])
					if err != nil {
						return err
					}
					artist, title = t.Artist, t.Title
					return nil
				})
				if err != nil {
					return err
				}
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			lc := cfg.GetLyricsConfig()
			svc, err := lyrics.NewService(lyrics.NewClient(lc.BaseURL, nil), lc.CacheSize, logger)
			if err != nil {
				return err
			}

			res, err := svc.Get(cmd.Context(), artist, title)
			if errors.Is(err, lyrics.ErrNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "No lyrics found for %s - %s\n", artist, title)
				return nil
			}
			if err != nil {
				return failure(errmsg.OpLyricsFetch, artist+" - "+title, err)
			}
			printLyrics(cmd, res, stamps)
			return nil
		},
	}
	cmd.Flags().StringVar(&artist, "artist", "", "Artist name")
	cmd.Flags().StringVar(&title, "title", "", "Song title")
	cmd.Flags().BoolVar(&stamps, "timestamps", false, "Prefix synced lines with their time stamp")
	return cmd
}

func printLyrics(cmd *cobra.Command, res lyrics.Result, stamps bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s - %s\n", res.Artist, res.Title)
	if res.Album != "" {
		fmt.Fprintf(out, "%s\n", res.Album)
	}
	fmt.Fprintln(out)
	if res.Instrumental {
		fmt.Fprintln(out, "(instrumental)")
		return
	}
	if res.Lyrics == nil {
		return
	}
	if !stamps || !res.Synced() {
		fmt.Fprintln(out, res.Lyrics.Text())
		return
	}
	for _, line := range res.Lyrics.Lines {
		fmt.Fprintf(out, "[%s] %s\n", formatStamp(line.Time), line.Text)
	}
}

func formatStamp(d time.Duration) string {
	cs := d.Milliseconds() / 10
	return fmt.Sprintf("%02d:%02d.%02d", cs/6000, (cs/100)%60, cs%100)
}
