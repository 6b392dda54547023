// Package localstore persists the merged clipboard item set to a
// local SQLite database, so a host UI can list history without
// replaying the merger's in-memory state on every query.
package localstore

import (
	"database/sql"
	"fmt"
	"time"

	// go-sqlite3 registers itself as a database/sql driver via init.
	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the SQLite connection backing the local clipboard item
// table.
type Store struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dbPath and ensures its
// schema exists. WAL mode is enabled so a concurrent reader (the host
// UI) never blocks on an in-flight write from the bridge.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("localstore: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("localstore: connect: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables() error {
	const itemsSQL = `
	CREATE TABLE IF NOT EXISTS items (
		id           TEXT PRIMARY KEY,
		content_type TEXT NOT NULL,
		content      TEXT NOT NULL,
		created_at   DATETIME NOT NULL,
		source_device TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at);
	`
	if _, err := s.db.Exec(itemsSQL); err != nil {
		return fmt.Errorf("localstore: create items table: %w", err)
	}
	return nil
}

// Item is the row shape items are stored and retrieved in, a flattened
// projection of model.ClipboardItem that does not depend on the merge
// package.
type Item struct {
	ID           string
	ContentType  string
	Content      string
	CreatedAt    time.Time
	SourceDevice string
}

// Upsert inserts item or replaces the existing row with the same id.
// An upsert rather than a plain insert, since a remote edit to an item
// the host already has arrives as a row with the same id and newer
// content.
func (s *Store) Upsert(item Item) error {
	const query = `
	INSERT OR REPLACE INTO items (id, content_type, content, created_at, source_device)
	VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		item.ID,
		item.ContentType,
		item.Content,
		item.CreatedAt.UTC().Format(time.RFC3339Nano),
		item.SourceDevice,
	)
	if err != nil {
		return fmt.Errorf("localstore: upsert item: %w", err)
	}
	return nil
}

// Remove deletes the row for id, if any. Idempotent: removing an
// already-absent id is not an error, since the bridge may replay a
// removal after a restart.
func (s *Store) Remove(id string) error {
	if _, err := s.db.Exec(`DELETE FROM items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("localstore: remove item: %w", err)
	}
	return nil
}

// Recent returns up to limit items, most recently created first.
func (s *Store) Recent(limit int) ([]Item, error) {
	const query = `
	SELECT id, content_type, content, created_at, source_device
	FROM items
	ORDER BY created_at DESC
	LIMIT ?
	`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("localstore: query items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		var ts string
		if err := rows.Scan(&item.ID, &item.ContentType, &item.Content, &ts, &item.SourceDevice); err != nil {
			return nil, fmt.Errorf("localstore: scan item row: %w", err)
		}
		item.CreatedAt, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("localstore: parse created_at: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("localstore: iterate item rows: %w", err)
	}
	return items, nil
}

// Close shuts down the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
