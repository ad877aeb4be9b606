package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v1")))
	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), got)

	// Overwrite.
	require.NoError(t, s.Set(ctx, "k", []byte("v2")))
	got, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), got)
}

func TestSQLiteStoreMissingKey(t *testing.T) {
	s := newTestDB(t)

	_, ok, err := s.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	s1, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s1.Set(ctx, "k", []byte("v")))
	require.NoError(t, s1.Close())

	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()
	got, ok, err := s2.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestSQLiteStoreEmptyPathRejected(t *testing.T) {
	_, err := NewSQLiteStore("")
	assert.Error(t, err)
}

func TestSQLiteStoreCloseIsIdempotent(t *testing.T) {
	s := newTestDB(t)
	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
