package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"
)

// Predefined errors for store operations.
var (
	ErrSnapshotNotFound = errors.New("store: snapshot not found")
	ErrProductNotFound  = errors.New("store: product not found")
	ErrCategoryNotFound = errors.New("store: category not found")
)

// SQLSnapshotStore keeps snapshots in a single key/blob/saved_at table. The
// SQL sticks to what PostgreSQL (lib/pq) and SQLite (modernc) both accept:
// $n placeholders, ON CONFLICT upserts, and saved_at stored as RFC 3339 text.
// Postgres backs the hosted deployment, SQLite the local one.
type SQLSnapshotStore struct {
	db *sql.DB
}

// NewSQLSnapshotStore creates a snapshot store over an open database handle.
func NewSQLSnapshotStore(db *sql.DB) *SQLSnapshotStore {
	return &SQLSnapshotStore{db: db}
}

// EnsureSchema creates the snapshots table when missing.
func (s *SQLSnapshotStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS snapshots (
			key TEXT PRIMARY KEY,
			body TEXT NOT NULL,
			saved_at TEXT NOT NULL
		);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("store: EnsureSchema failed: %w", err)
	}
	return nil
}

func (s *SQLSnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	query := `
		INSERT INTO snapshots (key, body, saved_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET body = $2, saved_at = $3;
	`
	savedAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx, query, key, string(data), savedAt); err != nil {
		return fmt.Errorf("store: Save snapshot %q failed: %w", key, err)
	}
	return nil
}

func (s *SQLSnapshotStore) Load(ctx context.Context, key string) (Snapshot, error) {
	query := `SELECT body, saved_at FROM snapshots WHERE key = $1;`
	var body, savedAt string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&body, &savedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, ErrSnapshotNotFound
		}
		return Snapshot{}, fmt.Errorf("store: Load snapshot %q failed: %w", key, err)
	}
	ts, err := time.Parse(time.RFC3339, savedAt)
	if err != nil {
		ts = time.Time{}
	}
	return Snapshot{Data: []byte(body), SavedAt: ts}, nil
}

func (s *SQLSnapshotStore) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		log.Printf("ERROR: Failed to close snapshot database: %v", err)
		return err
	}
	return nil
}
