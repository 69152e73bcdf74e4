// ABOUTME: SQLite-backed index of transcript entries for listing and text search without replaying the log.
// ABOUTME: The index is a rebuildable cache; the JSONL transcript remains the source of truth.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/2389-research/datachat/session"
	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// EntryRow is a row from the entries table.
type EntryRow struct {
	EntryID  string
	FileID   string
	Origin   string
	Text     string
	IsError  bool
	Figures  int
	HasImage bool
	At       string
}

// SqliteIndex mirrors transcript entries for fast reads.
type SqliteIndex struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite index database at the given path.
// Runs migrations to ensure the schema is up to date.
func OpenSqlite(path string) (*SqliteIndex, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			entry_id TEXT PRIMARY KEY,
			file_id TEXT NOT NULL,
			origin TEXT NOT NULL,
			text TEXT NOT NULL,
			is_error INTEGER NOT NULL,
			figures INTEGER NOT NULL,
			has_image INTEGER NOT NULL,
			at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS entries_file ON entries(file_id, entry_id);`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SqliteIndex{db: db}, nil
}

// Close closes the SQLite database connection.
func (idx *SqliteIndex) Close() error {
	return idx.db.Close()
}

// Put upserts an entry row for the given dataset.
func (idx *SqliteIndex) Put(fileID string, e session.Entry) error {
	_, err := idx.db.Exec(
		`INSERT INTO entries (entry_id, file_id, origin, text, is_error, figures, has_image, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(entry_id) DO UPDATE SET
			file_id = excluded.file_id,
			origin = excluded.origin,
			text = excluded.text,
			is_error = excluded.is_error,
			figures = excluded.figures,
			has_image = excluded.has_image,
			at = excluded.at`,
		e.ID.String(),
		fileID,
		string(e.Origin),
		e.Text,
		e.IsError,
		len(e.Figures),
		len(e.Image) > 0,
		e.At.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}
	return nil
}

// Delete removes an entry row.
func (idx *SqliteIndex) Delete(id ulid.ULID) error {
	if _, err := idx.db.Exec("DELETE FROM entries WHERE entry_id = ?", id.String()); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// List returns the entries of a dataset in transcript order. ULIDs sort
// by creation time, so ordering by id is arrival order.
func (idx *SqliteIndex) List(fileID string) ([]EntryRow, error) {
	return idx.query(
		`SELECT entry_id, file_id, origin, text, is_error, figures, has_image, at
		 FROM entries WHERE file_id = ? ORDER BY entry_id ASC`, fileID)
}

// Search returns entries of any dataset whose text contains term,
// case-insensitively, in transcript order.
func (idx *SqliteIndex) Search(term string) ([]EntryRow, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	return idx.query(
		`SELECT entry_id, file_id, origin, text, is_error, figures, has_image, at
		 FROM entries WHERE lower(text) LIKE ? ESCAPE '\' ORDER BY entry_id ASC`, pattern)
}

// Datasets returns the distinct dataset ids present in the index.
func (idx *SqliteIndex) Datasets() ([]string, error) {
	rows, err := idx.db.Query("SELECT DISTINCT file_id FROM entries ORDER BY file_id")
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan dataset row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Rebuild clears the rows of a dataset and re-inserts entries in a single
// transaction.
func (idx *SqliteIndex) Rebuild(fileID string, entries []session.Entry) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("begin rebuild: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM entries WHERE file_id = ?", fileID); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO entries (entry_id, file_id, origin, text, is_error, figures, has_image, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare rebuild: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		if _, err := stmt.Exec(e.ID.String(), fileID, string(e.Origin), e.Text,
			e.IsError, len(e.Figures), len(e.Image) > 0, e.At.UTC().Format(timeLayout)); err != nil {
			return fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rebuild: %w", err)
	}
	return nil
}

// Time parses the stored timestamp of a row.
func (r EntryRow) Time() (time.Time, error) {
	return time.Parse(timeLayout, r.At)
}

func (idx *SqliteIndex) query(q string, args ...any) ([]EntryRow, error) {
	rows, err := idx.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []EntryRow
	for rows.Next() {
		var r EntryRow
		if err := rows.Scan(&r.EntryID, &r.FileID, &r.Origin, &r.Text, &r.IsError,
			&r.Figures, &r.HasImage, &r.At); err != nil {
			return nil, fmt.Errorf("scan entry row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
