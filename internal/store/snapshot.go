package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/eastgate/lore/internal/docs"
)

// Record is one persisted cache entry.
type Record struct {
	Doc       docs.Document
	FetchedAt time.Time
}

// Snapshot is the durable side-store contract. Implementations are advisory:
// the cache works correctly with Load returning nothing and Save failing.
type Snapshot interface {
	Load() ([]Record, error)
	Save(records []Record) error
	Clear() error
	Close() error
}

const snapshotSchemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	slug        TEXT PRIMARY KEY,
	path        TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	ord         INTEGER NOT NULL DEFAULT 0,
	icon        TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '[]',
	extra       TEXT NOT NULL DEFAULT '{}',
	body        TEXT NOT NULL DEFAULT '',
	sha         TEXT NOT NULL DEFAULT '',
	fetched_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteSnapshot persists the document set in a local SQLite database.
type SQLiteSnapshot struct {
	conn *sql.DB
}

// OpenSnapshot opens (or creates) the snapshot database and applies the
// schema.
func OpenSnapshot(dsn string) (*SQLiteSnapshot, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("snapshot: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("snapshot: ping: %w", err)
	}
	if _, err := conn.Exec(snapshotSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("snapshot: apply schema: %w", err)
	}
	return &SQLiteSnapshot{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteSnapshot) Close() error {
	return s.conn.Close()
}

// Load reads every persisted document. Rows with undecodable JSON columns
// are skipped, not fatal: unknown or garbled fields must never block start.
func (s *SQLiteSnapshot) Load() ([]Record, error) {
	rows, err := s.conn.Query(`
		SELECT slug, path, title, description, ord, icon, tags, extra, body, sha, fetched_at
		FROM documents ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("snapshot: load: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			doc       docs.Document
			tagsJSON  string
			extraJSON string
			fetchedAt time.Time
		)
		if err := rows.Scan(&doc.Slug, &doc.Path, &doc.Title, &doc.Description,
			&doc.Order, &doc.Icon, &tagsJSON, &extraJSON, &doc.Body, &doc.SHA,
			&fetchedAt); err != nil {
			return nil, fmt.Errorf("snapshot: scan: %w", err)
		}
		_ = json.Unmarshal([]byte(tagsJSON), &doc.Tags)
		_ = json.Unmarshal([]byte(extraJSON), &doc.Extra)
		doc.FetchedAt = fetchedAt
		out = append(out, Record{Doc: doc, FetchedAt: fetchedAt})
	}
	return out, rows.Err()
}

// Save replaces the persisted set with records inside one transaction.
func (s *SQLiteSnapshot) Save(records []Record) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM documents`); err != nil {
		return fmt.Errorf("snapshot: clear: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO documents (slug, path, title, description, ord, icon, tags, extra, body, sha, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("snapshot: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		tagsJSON, _ := json.Marshal(rec.Doc.Tags)
		extraJSON, _ := json.Marshal(rec.Doc.Extra)
		if _, err := stmt.Exec(rec.Doc.Slug, rec.Doc.Path, rec.Doc.Title,
			rec.Doc.Description, rec.Doc.Order, rec.Doc.Icon, string(tagsJSON),
			string(extraJSON), rec.Doc.Body, rec.Doc.SHA, rec.FetchedAt); err != nil {
			return fmt.Errorf("snapshot: insert %s: %w", rec.Doc.Slug, err)
		}
	}
	return tx.Commit()
}

// Clear removes every persisted document.
func (s *SQLiteSnapshot) Clear() error {
	if _, err := s.conn.Exec(`DELETE FROM documents`); err != nil {
		return fmt.Errorf("snapshot: clear: %w", err)
	}
	return nil
}
