// Package catalog is the persistence coordinator: it reconciles the remote
// catalogue, the metadata cache and the blob store into one reactive view.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/llehouerou/trackvault/internal/blob"
	"github.com/llehouerou/trackvault/internal/cache"
	"github.com/llehouerou/trackvault/internal/errmsg"
	"github.com/llehouerou/trackvault/internal/logging"
	"github.com/llehouerou/trackvault/internal/remote"
	"github.com/llehouerou/trackvault/internal/stream"
	"github.com/llehouerou/trackvault/internal/track"
)

// Warnings attached to degraded results.
const (
	WarnSavedLocally   = "remote unavailable, saved locally only"
	WarnOfflineCatalog = "remote unavailable, showing cached tracks"
	WarnRemoteDelete   = "remote unavailable, removed locally only"
)

// Coordinator owns the catalogue state. Every mutating operation publishes one
// Loading snapshot and then exactly one terminal snapshot, merged into the
// latest state so concurrent operations on different tracks never drop each
// other's changes.
type Coordinator struct {
	remote remote.Interface
	cache  cache.Interface
	blobs  blob.Store
	logger *slog.Logger

	state *stream.Value[State]
	life  lifecycle

	newID func() track.ID
	now   func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logging.Component(l, "catalog") }
}

// WithClock overrides the time source used for AddedDate.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithIDSource overrides how local ids are minted.
func WithIDSource(newID func() track.ID) Option {
	return func(c *Coordinator) { c.newID = newID }
}

// New creates a coordinator with an empty, idle catalogue.
func New(r remote.Interface, c cache.Interface, b blob.Store, opts ...Option) *Coordinator {
	co := &Coordinator{
		remote: r,
		cache:  c,
		blobs:  b,
		logger: logging.Component(nil, "catalog"),
		state:  stream.NewValue(State{Tracks: []track.Track{}}),
		newID:  track.NewLocalID,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(co)
	}
	return co
}

// State returns the current catalogue snapshot.
func (c *Coordinator) State() State {
	return c.state.Get()
}

// Subscribe streams catalogue snapshots, starting with the current one.
func (c *Coordinator) Subscribe() *stream.Subscription[State] {
	return c.state.Subscribe()
}

// Close ends all subscriptions.
func (c *Coordinator) Close() {
	c.state.Close()
}

// Start performs the initial Load once. Later calls return the first
// outcome without reloading; use Refresh to reload.
func (c *Coordinator) Start(ctx context.Context) error {
	return c.life.run(ctx, c.Load)
}

// Started reports whether the initial load has completed.
func (c *Coordinator) Started() bool {
	return c.life.isStarted()
}

// Refresh reloads the catalogue.
func (c *Coordinator) Refresh(ctx context.Context) error {
	return c.Load(ctx)
}

// Load replaces the catalogue from the remote, falling back to the cache.
// Only a remote failure combined with a cache failure is an error.
func (c *Coordinator) Load(ctx context.Context) error {
	c.begin()

	remoteTracks, rerr := c.remote.List(ctx)
	if rerr == nil {
		merged, warning := c.reconcile(ctx, remoteTracks)
		c.finish(warning, func(s State) State {
			s.Tracks = merged
			return s
		})
		return nil
	}

	c.logger.Warn("remote list failed, using cache",
		logging.Op(errmsg.OpCatalogLoad), logging.Error(rerr))

	cached, cerr := c.readCache(ctx)
	if cerr != nil {
		err := errors.Join(rerr, cerr)
		c.logger.Error("catalogue unavailable", logging.Op(errmsg.OpCatalogLoad), logging.Error(cerr))
		c.fail(errmsg.OpCatalogLoad, err, nil)
		return err
	}
	c.finish(WarnOfflineCatalog, func(s State) State {
		s.Tracks = cached
		return s
	})
	return nil
}

// reconcile enriches remote tracks with what only the local side knows and
// mirrors the merged set into the cache.
func (c *Coordinator) reconcile(ctx context.Context, remoteTracks []track.Track) ([]track.Track, string) {
	shadow, err := c.cache.ReadAll(ctx)
	if err != nil {
		c.logger.Warn("cache read failed during reconcile", logging.Error(err))
	}
	order, err := c.cache.ReadOrder(ctx)
	if err != nil {
		c.logger.Warn("order read failed during reconcile", logging.Error(err))
	}

	byID := make(map[track.ID]track.Track, len(shadow))
	for _, t := range shadow {
		byID[t.ID] = t
	}

	merged := make([]track.Track, 0, len(remoteTracks)+len(shadow))
	seen := make(map[track.ID]bool, len(remoteTracks))
	for _, r := range remoteTracks {
		if r.ID.IsZero() || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		if s, ok := byID[r.ID]; ok {
			r = mergeShadow(r, s)
		}
		merged = append(merged, r)
	}
	// Tracks created offline exist only in the cache.
	for _, s := range shadow {
		if s.ID.IsLocal() && !seen[s.ID] {
			merged = append(merged, s)
		}
	}
	merged = applyOrder(merged, order)

	if err := c.cache.WriteAll(ctx, merged); err != nil {
		c.logger.Warn("cache mirror failed", logging.Op(errmsg.OpCacheWrite), logging.Error(err))
		return merged, errmsg.Format(errmsg.OpCacheWrite, err)
	}
	return merged, ""
}

// mergeShadow keeps the cached fields the remote never stores: local blob
// locators and usage counters.
func mergeShadow(r, s track.Track) track.Track {
	if s.AudioSource() == track.SourceLocal {
		r.FilePath, r.FileSize = s.FilePath, s.FileSize
	} else if r.FilePath == s.FilePath {
		r.FileSize = s.FileSize
	}
	if s.CoverSource() == track.SourceLocal {
		r.CoverImage, r.CoverImageSize = s.CoverImage, s.CoverImageSize
	} else if r.CoverImage == s.CoverImage {
		r.CoverImageSize = s.CoverImageSize
	}
	if r.Duration == 0 {
		r.Duration = s.Duration
	}
	if r.AddedDate.IsZero() {
		r.AddedDate = s.AddedDate
	}
	r.Plays = s.Plays
	r.Liked = s.Liked
	r.Order = s.Order
	return r
}

func (c *Coordinator) readCache(ctx context.Context) ([]track.Track, error) {
	tracks, err := c.cache.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	if tracks == nil {
		tracks = []track.Track{}
	}
	order, err := c.cache.ReadOrder(ctx)
	if err != nil {
		c.logger.Warn("order read failed", logging.Error(err))
		return tracks, nil
	}
	return applyOrder(tracks, order), nil
}

// Create validates, stores binaries, submits to the remote and mirrors the
// result into the cache. A remote failure yields a local-only result with a
// warning. Validation failures abort before any write.
func (c *Coordinator) Create(ctx context.Context, t track.Track, audio, cover *blob.File) (Result, error) {
	c.begin()

	if t.Category == "" {
		t.Category = track.CategoryOther
	}
	if err := validateAll(t, audio, cover); err != nil {
		c.fail(errmsg.OpCatalogCreate, err, nil)
		return Result{}, err
	}

	if t.ID.IsZero() {
		t.ID = c.newID()
	}
	if t.AddedDate.IsZero() {
		t.AddedDate = c.now().UTC()
	}

	t, err := c.storeBlobs(ctx, t, audio, cover)
	if err != nil {
		c.fail(errmsg.OpCatalogCreate, err, nil)
		return Result{}, err
	}

	res := Result{Track: t}
	created, rerr := c.remote.Create(ctx, t)
	if rerr != nil {
		c.logger.Warn("remote create failed, keeping local copy",
			logging.TrackID(t.ID), logging.Error(rerr))
		res.Local = true
		res.Warning = WarnSavedLocally
	} else {
		res.Track = c.adoptRemoteID(ctx, t, created)
	}

	res.Track.Order = len(c.state.Get().Tracks)
	cerr := c.cache.Upsert(ctx, res.Track)
	res.Warning = joinWarnings(res.Warning, c.cacheWarning(res.Track.ID, cerr))

	merge := func(s State) State {
		tracks := slices.Clone(s.Tracks)
		if i := track.Index(tracks, res.Track.ID); i >= 0 {
			tracks[i] = res.Track
		} else {
			tracks = append(tracks, res.Track)
		}
		s.Tracks = tracks
		return s
	}
	if errors.Is(cerr, errmsg.ErrStorageFull) {
		c.fail(errmsg.OpCatalogCreate, cerr, merge)
		return res, cerr
	}
	c.finish(res.Warning, merge)
	return res, nil
}

// adoptRemoteID switches a freshly created track to its remote identity while
// keeping the locally stored binaries.
func (c *Coordinator) adoptRemoteID(ctx context.Context, local, created track.Track) track.Track {
	out := local
	out.ID = created.ID
	if !created.AddedDate.IsZero() {
		out.AddedDate = created.AddedDate
	}
	if local.AudioSource() != track.SourceLocal && local.CoverSource() != track.SourceLocal {
		return out
	}

	if err := c.blobs.Move(ctx, local.ID, created.ID); err != nil {
		c.logger.Warn("blob re-key failed, keeping original locators",
			logging.TrackID(created.ID), logging.Error(err))
		return out
	}
	if local.AudioSource() == track.SourceLocal {
		if loc, ok, err := c.blobs.Get(ctx, created.ID, blob.KindAudio); err == nil && ok {
			out.FilePath = loc
		}
	}
	if local.CoverSource() == track.SourceLocal {
		if loc, ok, err := c.blobs.Get(ctx, created.ID, blob.KindCover); err == nil && ok {
			out.CoverImage = loc
		}
	}
	return out
}

// Update applies a partial change to a track already in the catalogue.
// Unknown ids fail with ErrNotFound before any I/O.
func (c *Coordinator) Update(ctx context.Context, id track.ID, p track.Patch, audio, cover *blob.File) (Result, error) {
	c.begin()

	cur, ok := track.Find(c.state.Get().Tracks, id)
	if !ok {
		err := errmsg.Wrap(errmsg.ErrNotFound, errmsg.OpCatalogUpdate, "track "+id.String(), nil)
		c.fail(errmsg.OpCatalogUpdate, err, nil)
		return Result{}, err
	}

	next := p.Apply(cur)
	if err := validateAll(next, audio, cover); err != nil {
		c.fail(errmsg.OpCatalogUpdate, err, nil)
		return Result{}, err
	}

	stored, err := c.storeBlobs(ctx, next, audio, cover)
	if err != nil {
		c.fail(errmsg.OpCatalogUpdate, err, nil)
		return Result{}, err
	}
	// Carry the fresh locators through the patch so the final merge applies
	// them to the latest snapshot.
	if audio != nil {
		p.FilePath, p.FileSize = track.Ptr(stored.FilePath), track.Ptr(stored.FileSize)
	}
	if cover != nil {
		p.CoverImage, p.CoverImageSize = track.Ptr(stored.CoverImage), track.Ptr(stored.CoverImageSize)
	}
	next = stored

	// A stored binary no longer referenced by the track must not outlive it.
	if audio == nil && p.FilePath != nil && *p.FilePath != cur.FilePath {
		c.dropBlob(ctx, id, blob.KindAudio)
	}
	if cover == nil && (p.RemoveCover || (p.CoverImage != nil && *p.CoverImage != cur.CoverImage)) {
		c.dropBlob(ctx, id, blob.KindCover)
	}

	res := Result{Track: next}
	if id.IsRemote() {
		if _, rerr := c.remote.Update(ctx, id, next); rerr != nil {
			c.logger.Warn("remote update failed, keeping local change",
				logging.TrackID(id), logging.Error(rerr))
			res.Local = true
			res.Warning = WarnSavedLocally
		}
	} else {
		res.Local = true
	}

	cerr := c.cache.Upsert(ctx, next)
	res.Warning = joinWarnings(res.Warning, c.cacheWarning(id, cerr))

	merge := func(s State) State {
		i := track.Index(s.Tracks, id)
		if i < 0 {
			// Deleted while the update was in flight.
			return s
		}
		tracks := slices.Clone(s.Tracks)
		tracks[i] = p.Apply(tracks[i])
		res.Track = tracks[i]
		s.Tracks = tracks
		return s
	}
	if errors.Is(cerr, errmsg.ErrStorageFull) {
		c.fail(errmsg.OpCatalogUpdate, cerr, merge)
		return res, cerr
	}
	c.finish(res.Warning, merge)
	return res, nil
}

// Delete removes a track everywhere. Blob failures are ignored, a remote
// failure becomes a warning, and the track always leaves the cache and the
// catalogue. Deleting an absent track succeeds.
func (c *Coordinator) Delete(ctx context.Context, id track.ID) (Result, error) {
	c.begin()

	cur, _ := track.Find(c.state.Get().Tracks, id)
	res := Result{Track: cur}

	if err := c.blobs.DeleteAll(ctx, id); err != nil {
		c.logger.Debug("blob delete failed", logging.TrackID(id), logging.Error(err))
	}

	if id.IsRemote() {
		err := c.remote.Delete(ctx, id)
		switch {
		case err == nil, errors.Is(err, errmsg.ErrNotFound):
		default:
			c.logger.Warn("remote delete failed, removing locally",
				logging.TrackID(id), logging.Error(err))
			res.Local = true
			res.Warning = WarnRemoteDelete
		}
	}

	if err := c.cache.Delete(ctx, id); err != nil {
		res.Warning = joinWarnings(res.Warning, c.cacheWarning(id, err))
	}

	c.finish(res.Warning, func(s State) State {
		if i := track.Index(s.Tracks, id); i >= 0 {
			s.Tracks = slices.Delete(slices.Clone(s.Tracks), i, i+1)
		}
		if s.SelectedID == id {
			s.SelectedID = track.ID{}
		}
		return s
	})
	return res, nil
}

// Reorder assigns dense zero-based orders following ids. Listed tracks come
// first; the rest keep their relative order behind them. The ordering is
// local only and never reaches the remote.
func (c *Coordinator) Reorder(ctx context.Context, ids []track.ID) error {
	c.begin()

	planned := reorder(c.state.Get().Tracks, ids)
	err := c.cache.WriteOrder(ctx, idsOf(planned))
	if err != nil {
		c.logger.Warn("order not persisted", logging.Op(errmsg.OpCatalogReorder), logging.Error(err))
	}

	merge := func(s State) State {
		s.Tracks = reorder(s.Tracks, ids)
		return s
	}
	if err != nil {
		c.fail(errmsg.OpCatalogReorder, err, merge)
		return err
	}
	c.finish("", merge)
	return nil
}

// Search returns the tracks whose title or artist contains q, ignoring case.
func (c *Coordinator) Search(q string) []track.Track {
	var out []track.Track
	for _, t := range c.state.Get().Tracks {
		if t.Matches(q) {
			out = append(out, t)
		}
	}
	return out
}

// FilterByCategory returns the tracks of one category. CategoryAll returns
// every track.
func (c *Coordinator) FilterByCategory(cat track.Category) []track.Track {
	tracks := c.state.Get().Tracks
	if cat == track.CategoryAll {
		return slices.Clone(tracks)
	}
	var out []track.Track
	for _, t := range tracks {
		if t.Category == cat {
			out = append(out, t)
		}
	}
	return out
}

// Get returns a track from the current snapshot.
func (c *Coordinator) Get(id track.ID) (track.Track, bool) {
	return track.Find(c.state.Get().Tracks, id)
}

// Select marks a track as selected. The zero id clears the selection.
func (c *Coordinator) Select(id track.ID) error {
	if !id.IsZero() {
		if _, ok := c.Get(id); !ok {
			return errmsg.Wrap(errmsg.ErrNotFound, "", "track "+id.String(), nil)
		}
	}
	c.state.Update(func(s State) State {
		s.SelectedID = id
		return s
	})
	return nil
}

// ClearError drops the error, warning and success flags.
func (c *Coordinator) ClearError() {
	c.state.Update(func(s State) State {
		s.Error = ""
		s.Warning = ""
		s.Success = false
		return s
	})
}

// Like marks a track as liked.
func (c *Coordinator) Like(ctx context.Context, id track.ID) (Result, error) {
	return c.Update(ctx, id, track.Patch{Liked: track.Ptr(true)}, nil, nil)
}

// Unlike clears the liked flag.
func (c *Coordinator) Unlike(ctx context.Context, id track.ID) (Result, error) {
	return c.Update(ctx, id, track.Patch{Liked: track.Ptr(false)}, nil, nil)
}

// IncrementPlays bumps the play counter by one.
func (c *Coordinator) IncrementPlays(ctx context.Context, id track.ID) (Result, error) {
	cur, ok := c.Get(id)
	plays := 1
	if ok {
		plays = cur.Plays + 1
	}
	return c.Update(ctx, id, track.Patch{Plays: track.Ptr(plays)}, nil, nil)
}

// AudioLocator returns a playable locator for a track. Remote locators are
// returned as is; local ones are re-resolved through the blob store.
func (c *Coordinator) AudioLocator(ctx context.Context, id track.ID) (string, error) {
	return c.locator(ctx, id, blob.KindAudio)
}

// CoverLocator is AudioLocator for the cover image.
func (c *Coordinator) CoverLocator(ctx context.Context, id track.ID) (string, error) {
	return c.locator(ctx, id, blob.KindCover)
}

func (c *Coordinator) locator(ctx context.Context, id track.ID, kind blob.Kind) (string, error) {
	t, found := c.Get(id)
	if !found {
		return "", errmsg.Wrap(errmsg.ErrNotFound, "", "track "+id.String(), nil)
	}
	loc := t.FilePath
	if kind == blob.KindCover {
		loc = t.CoverImage
	}
	switch track.SourceOf(loc) {
	case track.SourceNone:
		return "", errmsg.Wrap(errmsg.ErrNotFound, "", "no "+string(kind)+" for track "+id.String(), nil)
	case track.SourceLocal:
		stored, ok, err := c.blobs.Get(ctx, id, kind)
		if err != nil {
			c.logger.Debug("blob lookup failed", logging.TrackID(id), logging.Error(err))
		}
		if ok {
			return stored, nil
		}
	}
	return loc, nil
}

func (c *Coordinator) dropBlob(ctx context.Context, id track.ID, kind blob.Kind) {
	if err := c.blobs.Delete(ctx, id, kind); err != nil {
		c.logger.Warn(string(kind)+" delete failed", logging.TrackID(id), logging.Error(err))
	}
}

func validateAll(t track.Track, audio, cover *blob.File) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if audio != nil {
		if res := blob.Validate(*audio, blob.KindAudio); !res.Valid {
			return errmsg.Validation("%s", res.Error)
		}
	}
	if cover != nil {
		if res := blob.Validate(*cover, blob.KindCover); !res.Valid {
			return errmsg.Validation("%s", res.Error)
		}
	}
	return nil
}

// storeBlobs writes the offered binaries and attaches their locators. When the
// cover fails after the audio succeeded, the audio is removed again.
func (c *Coordinator) storeBlobs(ctx context.Context, t track.Track, audio, cover *blob.File) (track.Track, error) {
	if audio != nil {
		loc, n, err := c.blobs.Put(ctx, t.ID, blob.KindAudio, *audio)
		if err != nil {
			return t, blobError("audio", err)
		}
		t.FilePath, t.FileSize = loc, n
	}
	if cover != nil {
		loc, n, err := c.blobs.Put(ctx, t.ID, blob.KindCover, *cover)
		if err != nil {
			if audio != nil {
				if derr := c.blobs.Delete(ctx, t.ID, blob.KindAudio); derr != nil {
					c.logger.Warn("audio rollback failed", logging.TrackID(t.ID), logging.Error(derr))
				}
			}
			return t, blobError("cover", err)
		}
		t.CoverImage, t.CoverImageSize = loc, n
	}
	return t, nil
}

// blobError keeps the marker a blob store failure already carries. Unmarked
// I/O faults stay unclassified.
func blobError(what string, err error) error {
	for _, m := range []error{errmsg.ErrValidation, errmsg.ErrStorageFull, errmsg.ErrNotFound} {
		if errors.Is(err, m) {
			return errmsg.Wrap(m, errmsg.OpBlobStore, what, err)
		}
	}
	return fmt.Errorf("%s: %s: %w", errmsg.OpBlobStore, what, err)
}

func (c *Coordinator) cacheWarning(id track.ID, err error) string {
	if err == nil {
		return ""
	}
	c.logger.Warn("cache write failed", logging.TrackID(id), logging.Op(errmsg.OpCacheWrite), logging.Error(err))
	if errors.Is(err, errmsg.ErrStorageFull) {
		return ""
	}
	return errmsg.Format(errmsg.OpCacheWrite, err)
}

func (c *Coordinator) begin() {
	c.state.Update(func(s State) State {
		s.Loading = true
		s.Success = false
		s.Error = ""
		s.Warning = ""
		return s
	})
}

func (c *Coordinator) finish(warning string, merge func(State) State) {
	c.state.Update(func(s State) State {
		s = merge(s)
		s.Loading = false
		s.Success = true
		s.Error = ""
		s.Warning = warning
		return s
	})
}

// fail publishes an error terminal state. merge, when set, still applies so
// an in-memory change survives a storage failure.
func (c *Coordinator) fail(op errmsg.Op, err error, merge func(State) State) {
	c.state.Update(func(s State) State {
		if merge != nil {
			s = merge(s)
		}
		s.Loading = false
		s.Success = false
		s.Error = errmsg.Format(op, err)
		return s
	})
}
