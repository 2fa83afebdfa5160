package cache

import (
	"database/sql"
)

const currentSchemaVersion = 2

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS tracks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			description TEXT,
			category TEXT NOT NULL,
			file_path TEXT,
			file_size INTEGER NOT NULL DEFAULT 0,
			cover_image TEXT,
			cover_image_size INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			plays INTEGER NOT NULL DEFAULT 0,
			liked INTEGER NOT NULL DEFAULT 0,
			sort_order INTEGER NOT NULL DEFAULT 0,
			added_at INTEGER NOT NULL DEFAULT 0,
			payload_size INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_tracks_sort_order ON tracks(sort_order);

		CREATE TABLE IF NOT EXISTS track_order (
			position INTEGER PRIMARY KEY,
			track_id TEXT NOT NULL UNIQUE
		);
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	if err != nil {
		return err
	}

	// Migration: version 1 had no quota accounting
	_, _ = db.Exec(`ALTER TABLE tracks ADD COLUMN payload_size INTEGER NOT NULL DEFAULT 0`)

	return nil
}
