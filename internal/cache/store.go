// Package cache is the metadata cache: a size-bounded sqlite shadow of the
// catalogue used as an offline fallback. Binaries never go here, only their
// locators.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	_ "modernc.org/sqlite" // SQLite driver

	dbutil "github.com/llehouerou/trackvault/internal/db"
	"github.com/llehouerou/trackvault/internal/errmsg"
	"github.com/llehouerou/trackvault/internal/track"
)

const (
	appName    = "trackvault"
	dbFileName = "cache.db"

	// DefaultMaxBytes is the quota applied when none is configured.
	DefaultMaxBytes int64 = 4_500_000

	// rowOverhead approximates the per-record cost beyond its text fields.
	rowOverhead = 96
)

// Store is the sqlite-backed metadata cache.
type Store struct {
	db       *sql.DB
	maxBytes int64
}

// Open opens (or creates) the cache database at path. A maxBytes of zero or
// less selects DefaultMaxBytes.
func Open(path string, maxBytes int64) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Store{db: db, maxBytes: maxBytes}, nil
}

// DefaultPath returns the cache location under the xdg data home.
func DefaultPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}

// Close implements Interface.
func (s *Store) Close() error {
	return s.db.Close()
}

// MaxBytes returns the configured quota.
func (s *Store) MaxBytes() int64 { return s.maxBytes }

// Usage returns the bytes currently accounted against the quota.
func (s *Store) Usage(ctx context.Context) (int64, error) {
	var used int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(payload_size), 0) FROM tracks`).Scan(&used)
	return used, err
}

// ReadAll implements Interface. Tracks come back in display order.
func (s *Store) ReadAll(ctx context.Context) ([]track.Track, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, artist, description, category,
		       file_path, file_size, cover_image, cover_image_size,
		       duration_ms, plays, liked, sort_order, added_at
		FROM tracks
		ORDER BY sort_order, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errmsg.OpCacheRead, err)
	}
	defer rows.Close()

	var tracks []track.Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tracks, nil
}

// WriteAll implements Interface. It replaces every cached track; the saved
// order is left untouched. Nothing is written when the set exceeds the quota.
func (s *Store) WriteAll(ctx context.Context, tracks []track.Track) error {
	var total int64
	for i := range tracks {
		total += payloadSize(tracks[i])
	}
	if total > s.maxBytes {
		return s.quotaError(total)
	}

	return dbutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tracks`); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, upsertSQL)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i := range tracks {
			if _, err := stmt.ExecContext(ctx, trackArgs(tracks[i])...); err != nil {
				return err
			}
		}
		return nil
	})
}

// Upsert implements Interface.
func (s *Store) Upsert(ctx context.Context, t track.Track) error {
	if t.ID.IsZero() {
		return errmsg.Validation("cannot cache a track without id")
	}
	size := payloadSize(t)

	return dbutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var others int64
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(payload_size), 0) FROM tracks WHERE id != ?`,
			t.ID.String(),
		).Scan(&others)
		if err != nil {
			return err
		}
		if others+size > s.maxBytes {
			return s.quotaError(others + size)
		}
		_, err = tx.ExecContext(ctx, upsertSQL, trackArgs(t)...)
		return err
	})
}

// Delete implements Interface. Deleting a missing track is a no-op.
func (s *Store) Delete(ctx context.Context, id track.ID) error {
	return dbutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id.String()); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM track_order WHERE track_id = ?`, id.String())
		return err
	})
}

// ReadOrder implements Interface.
func (s *Store) ReadOrder(ctx context.Context) ([]track.ID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT track_id FROM track_order ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errmsg.OpCacheRead, err)
	}
	defer rows.Close()

	var ids []track.ID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := track.ParseID(raw)
		if err != nil {
			// Row written by an incompatible version; skip it.
			continue
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// WriteOrder implements Interface. It saves the sequence and stamps each
// cached track with its position.
func (s *Store) WriteOrder(ctx context.Context, ids []track.ID) error {
	return dbutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM track_order`); err != nil {
			return err
		}
		insert, err := tx.PrepareContext(ctx, `INSERT INTO track_order (position, track_id) VALUES (?, ?)`)
		if err != nil {
			return err
		}
		defer insert.Close()
		stamp, err := tx.PrepareContext(ctx, `UPDATE tracks SET sort_order = ? WHERE id = ?`)
		if err != nil {
			return err
		}
		defer stamp.Close()

		seen := make(map[track.ID]bool, len(ids))
		pos := 0
		for _, id := range ids {
			if id.IsZero() || seen[id] {
				continue
			}
			seen[id] = true
			if _, err := insert.ExecContext(ctx, pos, id.String()); err != nil {
				return err
			}
			if _, err := stamp.ExecContext(ctx, pos, id.String()); err != nil {
				return err
			}
			pos++
		}
		return nil
	})
}

func (s *Store) quotaError(need int64) error {
	return errmsg.Wrap(errmsg.ErrStorageFull, errmsg.OpCacheWrite, fmt.Sprintf(
		"%s needed, quota is %s",
		humanize.Bytes(uint64(need)), humanize.Bytes(uint64(s.maxBytes)),
	), nil)
}

const upsertSQL = `
	INSERT INTO tracks (id, title, artist, description, category,
	                    file_path, file_size, cover_image, cover_image_size,
	                    duration_ms, plays, liked, sort_order, added_at, payload_size)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		artist = excluded.artist,
		description = excluded.description,
		category = excluded.category,
		file_path = excluded.file_path,
		file_size = excluded.file_size,
		cover_image = excluded.cover_image,
		cover_image_size = excluded.cover_image_size,
		duration_ms = excluded.duration_ms,
		plays = excluded.plays,
		liked = excluded.liked,
		sort_order = excluded.sort_order,
		added_at = excluded.added_at,
		payload_size = excluded.payload_size
`

func trackArgs(t track.Track) []any {
	return []any{
		t.ID.String(), t.Title, t.Artist, dbutil.NullString(t.Description), string(t.Category),
		dbutil.NullString(t.FilePath), t.FileSize, dbutil.NullString(t.CoverImage), t.CoverImageSize,
		t.Duration.Milliseconds(), t.Plays, t.Liked, t.Order, dbutil.ToUnixMilli(t.AddedDate),
		payloadSize(t),
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrack(row scanner) (track.Track, error) {
	var (
		t                     track.Track
		rawID, category       string
		description, filePath sql.NullString
		coverImage            sql.NullString
		durationMS, addedAt   int64
	)
	err := row.Scan(&rawID, &t.Title, &t.Artist, &description, &category,
		&filePath, &t.FileSize, &coverImage, &t.CoverImageSize,
		&durationMS, &t.Plays, &t.Liked, &t.Order, &addedAt)
	if err != nil {
		return track.Track{}, err
	}
	id, err := track.ParseID(rawID)
	if err != nil {
		return track.Track{}, err
	}
	t.ID = id
	t.Description = dbutil.NullStringValue(description)
	t.Category = track.CategoryOrOther(category)
	t.FilePath = dbutil.NullStringValue(filePath)
	t.CoverImage = dbutil.NullStringValue(coverImage)
	t.Duration = time.Duration(durationMS) * time.Millisecond
	t.AddedDate = dbutil.UnixMilli(addedAt)
	return t, nil
}

// payloadSize estimates the serialized size of a cached record.
func payloadSize(t track.Track) int64 {
	return int64(rowOverhead + len(t.ID.String()) + len(t.Title) + len(t.Artist) +
		len(t.Description) + len(t.Category) + len(t.FilePath) + len(t.CoverImage))
}
