package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/llehouerou/trackvault/internal/blob"
	"github.com/llehouerou/trackvault/internal/errmsg"
	"github.com/llehouerou/trackvault/internal/media"
	"github.com/llehouerou/trackvault/internal/search"
	"github.com/llehouerou/trackvault/internal/tags"
	"github.com/llehouerou/trackvault/internal/track"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := parseCategoryFlag(category)
			if err != nil {
				return err
			}
			return ctx.withLibrary(cmd, func(lib *library) error {
				printWarning(cmd, lib.coord.State().Warning)
				printTracks(cmd, lib.coord.FilterByCategory(cat))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only show one category")
	return cmd
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		category string
		fuzzy    bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search titles and artists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := parseCategoryFlag(category)
			if err != nil {
				return err
			}
			return ctx.withLibrary(cmd, func(lib *library) error {
				var found []track.Track
				if fuzzy {
					found = search.Rank(lib.coord.State().Tracks, args[0])
				} else {
					found = lib.coord.Search(args[0])
				}
				if cat != track.CategoryAll {
					filtered := found[:0:0]
					for _, t := range found {
						if t.Category == cat {
							filtered = append(filtered, t)
						}
					}
					found = filtered
				}
				printTracks(cmd, found)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only match one category")
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "Rank typo-tolerant matches, best first")
	return cmd
}

type trackFlags struct {
	title       string
	artist      string
	description string
	category    string
	duration    time.Duration
	cover       string
}

func (f *trackFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Track title")
	cmd.Flags().StringVar(&f.artist, "artist", "", "Artist name")
	cmd.Flags().StringVar(&f.description, "description", "", "Free-form description")
	cmd.Flags().StringVar(&f.category, "category", "", "Category (pop, rock, rap, jazz, classical, electronic, other)")
	cmd.Flags().DurationVar(&f.duration, "duration", 0, "Track length, e.g. 3m25s")
	cmd.Flags().StringVar(&f.cover, "cover", "", "Cover image file")
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var (
		flags  trackFlags
		noTags bool
	)
	cmd := &cobra.Command{
		Use:   "add [audio-file]",
		Short: "Add a track, optionally with its audio file",
		Long: "Add a track to the catalogue. Tags of the audio file fill the fields " +
			"left empty on the command line, and embedded or folder artwork becomes " +
			"the cover unless --cover is given.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := track.Track{
				Title:       flags.title,
				Artist:      flags.artist,
				Description: flags.description,
				Duration:    flags.duration,
			}
			if flags.category != "" {
				cat, err := parseCategoryFlag(flags.category)
				if err != nil {
					return err
				}
				t.Category = cat
			}

			var closers []io.Closer
			defer func() {
				for _, c := range closers {
					c.Close()
				}
			}()

			var audio, cover *blob.File
			if len(args) == 1 {
				path := args[0]
				f, c, err := blob.Open(path)
				if err != nil {
					return fmt.Errorf("open audio: %w", err)
				}
				closers = append(closers, c)
				audio = &f

				if !noTags {
					describeFromFile(cmd, path, &t)
				}
				if t.Duration == 0 && f.Size <= blob.MaxSize(blob.KindAudio) {
					if d, err := media.ProbeDuration(path); err == nil {
						t.Duration = d
					}
				}
				if flags.cover == "" && !noTags {
					if art, ok, err := tags.Cover(path); err == nil && ok {
						cover = &art
					}
				}
			}
			if flags.cover != "" {
				f, c, err := blob.Open(flags.cover)
				if err != nil {
					return fmt.Errorf("open cover: %w", err)
				}
				closers = append(closers, c)
				cover = &f
			}
			if t.Category == "" {
				t.Category = track.CategoryOther
			}

			return ctx.withLibrary(cmd, func(lib *library) error {
				res, err := lib.coord.Create(cmd.Context(), t, audio, cover)
				if err != nil && (errmsg.IsFatal(err) || res.Track.ID.IsZero()) {
					return failure(errmsg.OpCatalogCreate, "", err)
				}
				printWarning(cmd, res.Warning)
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s - %s\n", res.Track.ID, res.Track.Artist, res.Track.Title)
				return err
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&noTags, "no-tags", false, "Do not read tags or artwork from the audio file")
	return cmd
}

// describeFromFile fills empty fields of t from the tags of path.
func describeFromFile(cmd *cobra.Command, path string, t *track.Track) {
	info, err := tags.Read(path)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: read tags of %s: %v\n", path, err)
		return
	}
	info.Fill(t)
}

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var (
		flags       trackFlags
		audioPath   string
		removeCover bool
		like        bool
		unlike      bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a track's fields or files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if like && unlike {
				return errmsg.Validation("--like and --unlike are mutually exclusive")
			}
			if removeCover && flags.cover != "" {
				return errmsg.Validation("--cover and --remove-cover are mutually exclusive")
			}

			var p track.Patch
			fs := cmd.Flags()
			if fs.Changed("title") {
				p.Title = track.Ptr(flags.title)
			}
			if fs.Changed("artist") {
				p.Artist = track.Ptr(flags.artist)
			}
			if fs.Changed("description") {
				p.Description = track.Ptr(flags.description)
			}
			if fs.Changed("category") {
				cat, err := parseCategoryFlag(flags.category)
				if err != nil {
					return err
				}
				if cat == track.CategoryAll {
					return errmsg.Validation("category %q cannot be stored", flags.category)
				}
				p.Category = track.Ptr(cat)
			}
			if fs.Changed("duration") {
				p.Duration = track.Ptr(flags.duration)
			}
			if like || unlike {
				p.Liked = track.Ptr(like)
			}
			p.RemoveCover = removeCover

			var closers []io.Closer
			defer func() {
				for _, c := range closers {
					c.Close()
				}
			}()
			var audio, cover *blob.File
			if audioPath != "" {
				f, c, err := blob.Open(audioPath)
				if err != nil {
					return fmt.Errorf("open audio: %w", err)
				}
				closers = append(closers, c)
				audio = &f
				if p.Duration == nil && f.Size <= blob.MaxSize(blob.KindAudio) {
					if d, err := media.ProbeDuration(audioPath); err == nil {
						p.Duration = track.Ptr(d)
					}
				}
			}
			if flags.cover != "" {
				f, c, err := blob.Open(flags.cover)
				if err != nil {
					return fmt.Errorf("open cover: %w", err)
				}
				closers = append(closers, c)
				cover = &f
			}
			if p.IsEmpty() && audio == nil && cover == nil {
				return errmsg.Validation("nothing to update")
			}

			return ctx.withLibrary(cmd, func(lib *library) error {
				t, err := lib.track(args[0])
				if err != nil {
					return err
				}
				res, err := lib.coord.Update(cmd.Context(), t.ID, p, audio, cover)
				if err != nil && (errmsg.IsFatal(err) || res.Track.ID.IsZero()) {
					return failure(errmsg.OpCatalogUpdate, t.Title, err)
				}
				printWarning(cmd, res.Warning)
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s - %s\n", res.Track.ID, res.Track.Artist, res.Track.Title)
				return err
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&audioPath, "audio", "", "Replace the audio file")
	cmd.Flags().BoolVar(&removeCover, "remove-cover", false, "Remove the cover image")
	cmd.Flags().BoolVar(&like, "like", false, "Mark as liked")
	cmd.Flags().BoolVar(&unlike, "unlike", false, "Clear the liked flag")
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete tracks and their stored files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withLibrary(cmd, func(lib *library) error {
				for _, id := range ids {
					res, err := lib.coord.Delete(cmd.Context(), id)
					if err != nil {
						return failure(errmsg.OpCatalogDelete, id.String(), err)
					}
					printWarning(cmd, res.Warning)
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
				}
				return nil
			})
		},
	}
}

func newReorderCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <id>...",
		Short: "Move the listed tracks to the front, in the given order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withLibrary(cmd, func(lib *library) error {
				if err := lib.coord.Reorder(cmd.Context(), ids); err != nil {
					if !errors.Is(err, errmsg.ErrStorageFull) {
						return failure(errmsg.OpCatalogReorder, "", err)
					}
					printWarning(cmd, errmsg.Format(errmsg.OpCatalogReorder, err))
				}
				printTracks(cmd, lib.coord.State().Tracks)
				return nil
			})
		},
	}
}

func printTracks(cmd *cobra.Command, tracks []track.Track) {
	out := cmd.OutOrStdout()
	if len(tracks) == 0 {
		fmt.Fprintln(out, "No tracks")
		return
	}
	fmt.Fprintln(out, renderTracks(tracks))
}

func parseCategoryFlag(s string) (track.Category, error) {
	if s == "" {
		return track.CategoryAll, nil
	}
	cat, ok := track.ParseCategory(s)
	if !ok {
		return "", errmsg.Validation("unknown category %q", s)
	}
	return cat, nil
}

func parseIDs(args []string) ([]track.ID, error) {
	ids := make([]track.ID, 0, len(args))
	for _, a := range args {
		id, err := track.ParseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
