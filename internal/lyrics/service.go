package lyrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/llehouerou/trackvault/internal/errmsg"
	"github.com/llehouerou/trackvault/internal/logging"
)

// DefaultCacheSize is the number of songs kept in memory.
const DefaultCacheSize = 128

// Result is what the presentation layer shows.
type Result struct {
	Artist       string
	Title        string
	Album        string
	Instrumental bool
	Lyrics       *Lyrics
}

// Synced reports whether the result carries time stamps.
func (r Result) Synced() bool {
	return r.Lyrics != nil && r.Lyrics.Synced()
}

// Service answers lyrics lookups, caching found lyrics by normalized key.
// Misses and failures are not cached so a later lookup retries.
type Service struct {
	fetcher Fetcher
	cache   *lru.Cache[string, Result]
	logger  *slog.Logger
}

// NewService creates a service with room for size songs.
func NewService(f Fetcher, size int, logger *slog.Logger) (*Service, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, Result](size)
	if err != nil {
		return nil, fmt.Errorf("create lyrics cache: %w", err)
	}
	return &Service{fetcher: f, cache: c, logger: logging.Component(logger, "lyrics")}, nil
}

// Get returns the lyrics of artist - title. Missing lyrics are ErrNotFound.
func (s *Service) Get(ctx context.Context, artist, title string) (Result, error) {
	cleanArtist, cleanTitle := cleanParam(artist), cleanParam(title)
	if cleanArtist == "" || cleanTitle == "" {
		return Result{}, errmsg.Validation("artist and title are required")
	}

	key := Key(artist, title)
	if r, ok := s.cache.Get(key); ok {
		return r, nil
	}

	rec, err := s.fetcher.Get(ctx, cleanArtist, cleanTitle, 0)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("lyrics lookup failed", logging.Op(errmsg.OpLyricsFetch), logging.Error(err))
		}
		return Result{}, err
	}

	r := Result{
		Artist:       firstNonEmpty(rec.ArtistName, artist),
		Title:        firstNonEmpty(rec.TrackName, title),
		Album:        rec.AlbumName,
		Instrumental: rec.Instrumental,
	}
	switch {
	case rec.SyncedLyrics != "":
		parsed, err := ParseLRC(strings.NewReader(formatText(rec.SyncedLyrics)))
		if err != nil {
			return Result{}, fmt.Errorf("parse synced lyrics: %w", err)
		}
		r.Lyrics = parsed
	case rec.PlainLyrics != "":
		r.Lyrics = FromPlain(formatText(rec.PlainLyrics))
	case !rec.Instrumental:
		return Result{}, ErrNotFound
	}

	s.cache.Add(key, r)
	return r, nil
}

// Cached reports whether artist - title is in the cache.
func (s *Service) Cached(artist, title string) bool {
	return s.cache.Contains(Key(artist, title))
}

// Clear empties the cache.
func (s *Service) Clear() {
	s.cache.Purge()
}

var (
	spaceRe      = regexp.MustCompile(`\s+`)
	paramDropRe  = regexp.MustCompile(`[^\p{L}\p{N}\s'-]`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// Key normalizes artist and title into a cache key.
func Key(artist, title string) string {
	norm := func(s string) string {
		return spaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
	}
	return norm(artist) + ":" + norm(title)
}

// cleanParam collapses whitespace and keeps letters, digits, spaces,
// apostrophes and dashes.
func cleanParam(s string) string {
	s = spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
	return strings.TrimSpace(paramDropRe.ReplaceAllString(s, ""))
}

// formatText normalizes line endings and caps runs of blank lines at one.
func formatText(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\r\n", "\n")
	return blankLinesRe.ReplaceAllString(s, "\n\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
