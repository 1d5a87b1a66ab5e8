package stitch

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// AnalyticsDB is the standalone output database Phase 4 writes to: one
// row per (keyword, time, location) point, independent of the
// relational store the dispatcher and ingestion pipeline use.
type AnalyticsDB struct {
	db *sql.DB
}

const analyticsSchema = `
CREATE TABLE IF NOT EXISTS ts (
	k_id INTEGER NOT NULL,
	time INTEGER NOT NULL,
	state TEXT NOT NULL,
	value REAL NOT NULL,
	UNIQUE(k_id, time, state)
);
`

// OpenAnalyticsDB opens (creating if absent) the SQLite database at
// path and applies its schema.
func OpenAnalyticsDB(path string) (*AnalyticsDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open analytics db %s: %w", path, err)
	}
	if _, err := db.Exec(analyticsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply analytics schema: %w", err)
	}
	return &AnalyticsDB{db: db}, nil
}

// Close releases the underlying database handle.
func (a *AnalyticsDB) Close() error {
	return a.db.Close()
}

// Write persists rows (Phase 4), upserting on the (k_id, time, state)
// uniqueness constraint so a re-run of the stitching engine overwrites
// stale values rather than accumulating duplicates. "state" carries the
// location code, or the literal "worldwide" when Location is empty.
func (a *AnalyticsDB) Write(rows []Row) error {
	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("begin analytics write: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO ts (k_id, time, state, value) VALUES (?, ?, ?, ?)
		ON CONFLICT(k_id, time, state) DO UPDATE SET value = excluded.value
	`)
	if err != nil {
		return fmt.Errorf("prepare analytics insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		state := r.Location
		if state == "" {
			state = "worldwide"
		}
		if _, err := stmt.Exec(r.KID, r.Time.Unix(), state, r.Value); err != nil {
			return fmt.Errorf("write analytics row (k_id=%d time=%d state=%s): %w", r.KID, r.Time.Unix(), state, err)
		}
	}
	return tx.Commit()
}
