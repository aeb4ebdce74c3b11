package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixdl/pixdl/internal/engine/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, types.Outcome{ArtworkID: 1, Title: "one", Images: 2, Finished: base}))
	require.NoError(t, s.Record(ctx, types.Outcome{ArtworkID: 2, Title: "two", Images: 1, Err: errors.New("boom"), Finished: base.Add(time.Minute)}))
	require.NoError(t, s.Record(ctx, types.Outcome{Err: errors.New("listing failed")}))

	entries, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2, "sweep-level outcomes are not stored")

	assert.Equal(t, uint64(2), entries[0].ArtworkID)
	assert.True(t, entries[0].Failed())
	assert.Equal(t, "boom", entries[0].Error)
	assert.Equal(t, uint64(1), entries[1].ArtworkID)
	assert.False(t, entries[1].Failed())
	assert.Equal(t, 2, entries[1].Images)
	assert.True(t, entries[1].FinishedAt.Equal(base))
}

func TestStore_RecentLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		require.NoError(t, s.Record(ctx, types.Outcome{ArtworkID: uint64(i)}))
	}
	entries, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestStore_FailedUsesLatestOutcome(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	t0 := time.Now()

	require.NoError(t, s.Record(ctx, types.Outcome{ArtworkID: 10, Err: errors.New("x"), Finished: t0}))
	require.NoError(t, s.Record(ctx, types.Outcome{ArtworkID: 10, Finished: t0.Add(time.Second)})) // retried OK
	require.NoError(t, s.Record(ctx, types.Outcome{ArtworkID: 20, Err: errors.New("y"), Finished: t0}))

	ids, err := s.Failed(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{20}, ids)
}

func TestStore_Last(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, ok, err := s.Last(ctx, 99)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Record(ctx, types.Outcome{ArtworkID: 99, Title: "first"}))
	require.NoError(t, s.Record(ctx, types.Outcome{ArtworkID: 99, Title: "second"}))

	e, ok, err := s.Last(ctx, 99)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", e.Title)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(context.Background(), types.Outcome{ArtworkID: 7}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	entries, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
