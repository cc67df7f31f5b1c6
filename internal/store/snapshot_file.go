package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSnapshotStore keeps each snapshot as <dir>/<key>.csv. The file mtime
// serves as the save timestamp. This is the default backend when no database
// is configured; the produced files are the same CSV contract the merge CLI
// writes.
type FileSnapshotStore struct {
	dir string
}

// NewFileSnapshotStore creates the directory if needed.
func NewFileSnapshotStore(dir string) (*FileSnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create snapshot dir %s: %w", dir, err)
	}
	return &FileSnapshotStore{dir: dir}, nil
}

func (s *FileSnapshotStore) path(key string) string {
	return filepath.Join(s.dir, key+".csv")
}

func (s *FileSnapshotStore) Save(_ context.Context, key string, data []byte) error {
	// Write-then-rename so a crash mid-write never truncates the only copy.
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: Save snapshot %q failed: %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("store: Save snapshot %q failed: %w", key, err)
	}
	return nil
}

func (s *FileSnapshotStore) Load(_ context.Context, key string) (Snapshot, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{}, ErrSnapshotNotFound
		}
		return Snapshot{}, fmt.Errorf("store: Load snapshot %q failed: %w", key, err)
	}
	snap := Snapshot{Data: data}
	if info, err := os.Stat(s.path(key)); err == nil {
		snap.SavedAt = info.ModTime()
	}
	return snap, nil
}

func (s *FileSnapshotStore) Close() error { return nil }
