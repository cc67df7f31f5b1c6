package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSnapshotStore_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileSnapshotStore(filepath.Join(dir, "snapshots"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, SnapshotKeyProducts, []byte(`"id","name"`)))

	snap, err := s.Load(ctx, SnapshotKeyProducts)
	require.NoError(t, err)
	assert.Equal(t, []byte(`"id","name"`), snap.Data)
	assert.False(t, snap.SavedAt.IsZero())

	// each key lands in its own .csv file
	_, err = os.Stat(filepath.Join(dir, "snapshots", "products.csv"))
	assert.NoError(t, err)
}

func TestFileSnapshotStore_LoadMissingKey(t *testing.T) {
	s, err := NewFileSnapshotStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Load(context.Background(), "nothing-here")

	assert.True(t, errors.Is(err, ErrSnapshotNotFound))
}

func TestFileSnapshotStore_SaveOverwrites(t *testing.T) {
	s, err := NewFileSnapshotStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, SnapshotKeyProducts, []byte("first")))
	require.NoError(t, s.Save(ctx, SnapshotKeyProducts, []byte("second")))

	snap, err := s.Load(ctx, SnapshotKeyProducts)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), snap.Data)
}
