package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "cache", "namer.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, ok, err := s.CacheGet(ctx, "search|movie|avatar", 0)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.CachePut(ctx, "search|movie|avatar", []byte(`[1]`)))
	require.NoError(t, s.CachePut(ctx, "search|movie|avatar", []byte(`[2]`)))

	v, ok, err := s.CacheGet(ctx, "search|movie|avatar", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[2]`, string(v))
}

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.CachePut(ctx, "k", []byte("v")))

	_, err := s.db.ExecContext(ctx, `UPDATE catalog_cache SET stored_at = ? WHERE key = 'k'`,
		time.Now().Add(-48*time.Hour).UTC().Format(time.RFC3339Nano))
	require.NoError(t, err)

	_, ok, err := s.CacheGet(ctx, "k", 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.PurgeCache(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestJournalHistory(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	entries := []JournalEntry{
		{RunID: "run-a", OperationID: "1", OriginalPath: "/m/a.mkv", NewPath: "/m/A (2001).mkv", Mode: "move", Status: JournalRenamed, CreatedAt: base},
		{RunID: "run-a", OperationID: "2", OriginalPath: "/m/b.mkv", NewPath: "/m/B (2002).mkv", Mode: "move", Status: JournalFailed, Message: "file vanished", CreatedAt: base.Add(time.Minute)},
		{RunID: "run-b", OperationID: "3", OriginalPath: "/m/c.mkv", NewPath: "/m/C (2003).mkv", Mode: "copy", Status: JournalRenamed, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		require.NoError(t, s.Record(ctx, e))
	}

	all, err := s.History(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "3", all[0].OperationID)
	assert.Equal(t, base.Add(2*time.Minute), all[0].CreatedAt)

	runA, err := s.History(ctx, "run-a", 1)
	require.NoError(t, err)
	require.Len(t, runA, 1)
	assert.Equal(t, JournalFailed, runA[0].Status)
	assert.Equal(t, "file vanished", runA[0].Message)
}
