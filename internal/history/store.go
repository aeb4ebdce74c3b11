// Package history keeps a sqlite record of finished artwork batches.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pixdl/pixdl/internal/engine/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS outcomes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	artwork_id  INTEGER NOT NULL,
	title       TEXT    NOT NULL DEFAULT '',
	images      INTEGER NOT NULL DEFAULT 0,
	error       TEXT    NOT NULL DEFAULT '',
	finished_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_outcomes_artwork ON outcomes(artwork_id, finished_at);
`

// Entry is one recorded outcome
type Entry struct {
	ArtworkID  uint64
	Title      string
	Images     int
	Error      string
	FinishedAt time.Time
}

// Failed reports whether the batch failed
func (e Entry) Failed() bool {
	return e.Error != ""
}

// Store is a history database. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	// Writes are serialised by sqlite anyway; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores an outcome. Outcomes without an artwork id (sweep-level
// failures) are skipped.
func (s *Store) Record(ctx context.Context, o types.Outcome) error {
	if o.ArtworkID == 0 {
		return nil
	}
	finished := o.Finished
	if finished.IsZero() {
		finished = time.Now()
	}
	errText := ""
	if o.Err != nil {
		errText = o.Err.Error()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outcomes (artwork_id, title, images, error, finished_at) VALUES (?, ?, ?, ?, ?)`,
		int64(o.ArtworkID), o.Title, o.Images, errText, finished.UnixMilli())
	if err != nil {
		return fmt.Errorf("recording outcome for %d: %w", o.ArtworkID, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT artwork_id, title, images, error, finished_at FROM outcomes ORDER BY finished_at DESC, id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanEntries(rows)
}

// Failed returns the ids whose most recent outcome is a failure
func (s *Store) Failed(ctx context.Context) ([]uint64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.artwork_id FROM outcomes o
		WHERE o.id = (SELECT MAX(id) FROM outcomes WHERE artwork_id = o.artwork_id)
		  AND o.error != ''
		ORDER BY o.finished_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []uint64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, uint64(id))
	}
	return ids, rows.Err()
}

// Last returns the most recent entry for an artwork
func (s *Store) Last(ctx context.Context, artworkID uint64) (Entry, bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT artwork_id, title, images, error, finished_at FROM outcomes WHERE artwork_id = ? ORDER BY id DESC LIMIT 1`,
		int64(artworkID))
	if err != nil {
		return Entry{}, false, err
	}
	defer func() { _ = rows.Close() }()

	entries, err := scanEntries(rows)
	if err != nil {
		return Entry{}, false, err
	}
	if len(entries) == 0 {
		return Entry{}, false, nil
	}
	return entries[0], true, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var (
			e        Entry
			id       int64
			finished int64
		)
		if err := rows.Scan(&id, &e.Title, &e.Images, &e.Error, &finished); err != nil {
			return nil, err
		}
		e.ArtworkID = uint64(id)
		e.FinishedAt = time.UnixMilli(finished)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return out, nil
}
