// Package store persists backend documents and derives interaction analytics
// from them using SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Config defines SQLite operational parameters.
type Config struct {
	BusyTimeout  time.Duration
	MaxOpenConns int
}

// DefaultConfig returns the configuration used by the dev backend.
func DefaultConfig() Config {
	return Config{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 8,
	}
}

// Store is a document store keyed by (collection, id).
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open initializes the database at path and runs migrations.
func Open(path string, cfg Config) (*Store, error) {
	// PRAGMAs in the DSN apply to every pooled connection.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		data TEXT NOT NULL CHECK(json_valid(data)),
		updated_at TEXT NOT NULL,
		PRIMARY KEY (collection, id)
	);

	CREATE INDEX IF NOT EXISTS idx_documents_collection_updated ON documents(collection, updated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Document is a stored JSON object.
type Document struct {
	Collection string         `json:"collection"`
	ID         string         `json:"id"`
	Data       map[string]any `json:"data"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Save merges data into the document, creating it when missing. Keys already
// present and absent from data are kept; an "updated_at" key is stamped.
func (s *Store) Save(ctx context.Context, collection, id string, data map[string]any) (time.Time, error) {
	if collection == "" || id == "" {
		return time.Time{}, errors.New("collection and document are required")
	}

	now := s.now().UTC()
	merged := make(map[string]any, len(data)+1)
	for k, v := range data {
		merged[k] = v
	}
	merged["updated_at"] = now.Format(time.RFC3339Nano)

	payload, err := json.Marshal(merged)
	if err != nil {
		return time.Time{}, fmt.Errorf("encode document: %w", err)
	}

	query := `
	INSERT INTO documents (collection, id, data, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(collection, id) DO UPDATE SET
		data = json_patch(documents.data, excluded.data),
		updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, collection, id, string(payload), now.Format(time.RFC3339Nano)); err != nil {
		return time.Time{}, fmt.Errorf("save %s/%s: %w", collection, id, err)
	}
	return now, nil
}

// Get returns one document or ErrNotFound.
func (s *Store) Get(ctx context.Context, collection, id string) (*Document, error) {
	query := `
	SELECT data, updated_at
	FROM documents
	WHERE collection = ? AND id = ?
	`

	var raw, updated string
	err := s.db.QueryRowContext(ctx, query, collection, id).Scan(&raw, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return decodeDocument(collection, id, raw, updated)
}

// List returns up to limit documents of a collection, most recently updated first.
func (s *Store) List(ctx context.Context, collection string, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
	SELECT id, data, updated_at
	FROM documents
	WHERE collection = ?
	ORDER BY updated_at DESC
	LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, collection, limit)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer func() { _ = rows.Close() }()

	var docs []Document
	for rows.Next() {
		var id, raw, updated string
		if err := rows.Scan(&id, &raw, &updated); err != nil {
			return nil, err
		}
		doc, err := decodeDocument(collection, id, raw, updated)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func decodeDocument(collection, id, raw, updated string) (*Document, error) {
	doc := &Document{Collection: collection, ID: id}
	if err := json.Unmarshal([]byte(raw), &doc.Data); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		doc.UpdatedAt = t
	}
	return doc, nil
}
