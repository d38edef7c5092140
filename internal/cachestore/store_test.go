package cachestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/conceptc/internal/macro"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "cache", "conceptc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key(1, 2), Key(1, 2))
	assert.NotEqual(t, Key(1, 2), Key(2, 1))
	assert.NotEqual(t, Key(1), Key(1, 0))
}

func TestStore_Builds(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, ok, err := s.Lookup(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	first, err := s.Save(ctx, "k1", []byte("one"))
	require.NoError(t, err)
	got, ok, err := s.Lookup(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, []byte("one"), got.Snapshot)

	second, err := s.Save(ctx, "k1", []byte("two"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	got, _, err = s.Lookup(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got.Snapshot)
	assert.Equal(t, second.ID, got.ID)
}

func TestStore_Hints(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	hints := macro.NewHints()
	hints.Record("writable_id", 1)
	hints.Record("reference_index", 3)
	require.NoError(t, s.SaveHints(ctx, hints))

	hints.Record("reference_index", 2)
	require.NoError(t, s.SaveHints(ctx, hints))

	loaded := macro.NewHints()
	require.NoError(t, s.LoadHints(ctx, loaded))
	assert.Equal(t, map[string]int{"writable_id": 1, "reference_index": 2}, loaded.Export())
}
