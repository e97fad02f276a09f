package docstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySetGetNormalizes(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m.SetClock(func() time.Time { return now })

	type status string
	err := m.Set(ctx, "journals/j1", map[string]any{
		"title":      "Penang",
		"days":       3,
		"tags":       []string{"food", "beach"},
		"status":     status("draft"),
		"place_ref":  Ref{Path: "places/p1"},
		"created_at": ServerTimestamp,
	})
	require.NoError(t, err)

	snap, err := m.Get(ctx, "journals/j1")
	require.NoError(t, err)
	assert.Equal(t, "j1", snap.ID())
	assert.Equal(t, "Penang", String(snap.Data, "title"))
	assert.Equal(t, "draft", String(snap.Data, "status"))

	days, ok := Int(snap.Data, "days")
	assert.True(t, ok)
	assert.Equal(t, 3, days)
	assert.Equal(t, []string{"food", "beach"}, Strings(snap.Data, "tags"))

	ref, ok := RefValue(snap.Data, "place_ref")
	assert.True(t, ok)
	assert.Equal(t, "p1", ref.ID())
	assert.Equal(t, "places", ref.Collection())

	created, ok := Time(snap.Data, "created_at")
	assert.True(t, ok)
	assert.Equal(t, now, created)
}

func TestMemoryReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "a/1", map[string]any{"list": []string{"x"}}))

	snap, err := m.Get(ctx, "a/1")
	require.NoError(t, err)
	snap.Data["list"].([]any)[0] = "mutated"

	again, err := m.Get(ctx, "a/1")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, Strings(again.Data, "list"))
}

func TestMemoryUpdateMissing(t *testing.T) {
	err := NewMemory().Update(context.Background(), "a/missing", map[string]any{"x": 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryGetMissing(t *testing.T) {
	_, err := NewMemory().Get(context.Background(), "a/missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryInvalidPaths(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	assert.ErrorIs(t, m.Set(ctx, "only-collection", nil), ErrInvalidPath)
	_, err := m.Query(ctx, Query{Collection: "a/b"})
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestMemoryQueryFilters(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "journals/a", map[string]any{"user_id": "u1", "status": "public"}))
	require.NoError(t, m.Set(ctx, "journals/b", map[string]any{"user_id": "u1", "status": "draft"}))
	require.NoError(t, m.Set(ctx, "journals/c", map[string]any{"user_id": "u2", "status": "public"}))
	require.NoError(t, m.Set(ctx, "journals/a/journalPlaces/x", map[string]any{"user_id": "u1"}))

	snaps, err := m.Query(ctx, Query{Collection: "journals", Filters: []Filter{Eq("user_id", "u1")}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(snaps))

	snaps, err = m.Query(ctx, Query{Collection: "journals", Filters: []Filter{Eq("user_id", "u1"), Eq("status", "public")}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(snaps))

	snaps, err = m.Query(ctx, Query{Collection: "journals", Filters: []Filter{In(DocumentID, []string{"c", "a", "zzz"})}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids(snaps))

	snaps, err = m.Query(ctx, Query{Collection: "journals/a/journalPlaces"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, ids(snaps))

	assert.Equal(t, 4, m.Stats().Queries)
}

func TestMemoryInFilterCeiling(t *testing.T) {
	values := make([]string, MaxInValues+1)
	for i := range values {
		values[i] = fmt.Sprintf("id-%d", i)
	}
	m := NewMemory()

	_, err := m.Query(context.Background(), Query{Collection: "places", Filters: []Filter{In(DocumentID, values)}})
	assert.ErrorIs(t, err, ErrTooManyValues)

	_, err = m.Query(context.Background(), Query{Collection: "places", Filters: []Filter{In(DocumentID, values[:MaxInValues])}})
	assert.NoError(t, err)
}

func TestMemoryCollections(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "journals/a", map[string]any{}))
	require.NoError(t, m.Set(ctx, "journals/a/journalPlaces/1", map[string]any{}))
	require.NoError(t, m.Set(ctx, "journals/a/journalPlaces/2", map[string]any{}))
	require.NoError(t, m.Set(ctx, "journals/a/comments/1", map[string]any{}))
	require.NoError(t, m.Set(ctx, "journals/b/comments/1", map[string]any{}))

	cols, err := m.Collections(ctx, "journals/a")
	require.NoError(t, err)
	assert.Equal(t, []string{"journals/a/comments", "journals/a/journalPlaces"}, cols)
}

func TestMemoryTransactionAtomic(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "counters/c", map[string]any{"n": 1}))

	boom := errors.New("boom")
	err := m.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		require.NoError(t, tx.Set("counters/d", map[string]any{"n": 5}))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	_, err = m.Get(ctx, "counters/d")
	assert.ErrorIs(t, err, ErrNotFound)

	err = m.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		snap, err := tx.Get("counters/c")
		if err != nil {
			return err
		}
		n, _ := Int(snap.Data, "n")
		if err := tx.Update("counters/c", map[string]any{"n": n + 1}); err != nil {
			return err
		}
		return tx.Set("counters/d", map[string]any{"n": n})
	})
	require.NoError(t, err)

	c, _ := m.Get(ctx, "counters/c")
	n, _ := Int(c.Data, "n")
	assert.Equal(t, 2, n)
}

func TestMemoryTransactionUpdateMissingRollsBack(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	err := m.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		_ = tx.Set("a/1", map[string]any{})
		return tx.Update("a/missing", map[string]any{"x": 1})
	})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(ctx, "a/1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCommit(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "a/old", map[string]any{}))

	err := m.Commit(ctx, []Write{
		SetWrite("a/new", map[string]any{"x": 1}),
		DeleteWrite("a/old"),
	})
	require.NoError(t, err)

	_, err = m.Get(ctx, "a/new")
	assert.NoError(t, err)
	_, err = m.Get(ctx, "a/old")
	assert.ErrorIs(t, err, ErrNotFound)

	tooMany := make([]Write, MaxBatchWrites+1)
	for i := range tooMany {
		tooMany[i] = SetWrite(fmt.Sprintf("a/%d", i), map[string]any{})
	}
	assert.ErrorIs(t, m.Commit(ctx, tooMany), ErrBatchTooLarge)
	_, err = m.Get(ctx, "a/0")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRef(t *testing.T) {
	r := Ref{Path: "travelJournals/j1/journalPlaces/jp1"}
	assert.Equal(t, "jp1", r.ID())
	assert.Equal(t, "travelJournals/j1/journalPlaces", r.Collection())
	assert.Equal(t, "a/b", Path("a", "b"))

	ref := NewMemory().NewRef("places")
	assert.Equal(t, "places", ref.Collection())
	assert.Len(t, ref.ID(), 20)
}

func TestChunk(t *testing.T) {
	values := make([]string, 61)
	for i := range values {
		values[i] = fmt.Sprint(i)
	}
	chunks := Chunk(values, MaxInValues)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 30)
	assert.Len(t, chunks[2], 1)
	assert.Empty(t, Chunk(nil, MaxInValues))
}

func ids(snaps []*Snapshot) []string {
	out := make([]string, len(snaps))
	for i, s := range snaps {
		out[i] = s.ID()
	}
	return out
}
