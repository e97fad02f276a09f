package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type entry struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

func newRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, ttl), mr
}

func TestCaches(t *testing.T) {
	backends := map[string]func(t *testing.T) Cache{
		"local": func(t *testing.T) Cache { return NewLocal(16, time.Minute) },
		"redis": func(t *testing.T) Cache {
			c, _ := newRedis(t, time.Minute)
			return c
		},
	}

	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := build(t)

			var got entry
			hit, err := c.Get(ctx, "k", &got)
			require.NoError(t, err)
			assert.False(t, hit)

			stored := entry{Title: "Penang", Tags: []string{"food"}}
			require.NoError(t, c.Set(ctx, "k", stored))
			stored.Tags[0] = "mutated"

			hit, err = c.Get(ctx, "k", &got)
			require.NoError(t, err)
			assert.True(t, hit)
			assert.Equal(t, entry{Title: "Penang", Tags: []string{"food"}}, got)

			require.NoError(t, c.Delete(ctx, "k", "absent"))
			hit, err = c.Get(ctx, "k", &got)
			require.NoError(t, err)
			assert.False(t, hit)
		})
	}
}

func TestRedisTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedis(t, 30*time.Second)

	require.NoError(t, c.Set(ctx, "k", entry{Title: "x"}))
	assert.Equal(t, 30*time.Second, mr.TTL("k"))

	mr.FastForward(31 * time.Second)
	var got entry
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestLocalTTL(t *testing.T) {
	ctx := context.Background()
	c := NewLocal(4, 50*time.Millisecond)
	require.NoError(t, c.Set(ctx, "k", entry{Title: "x"}))

	assert.Eventually(t, func() bool {
		var got entry
		hit, err := c.Get(ctx, "k", &got)
		return err == nil && !hit
	}, 2*time.Second, 20*time.Millisecond)
}

type failingCache struct{ err error }

func (f failingCache) Get(context.Context, string, any) (bool, error) { return false, f.err }
func (f failingCache) Set(context.Context, string, any) error         { return f.err }
func (f failingCache) Delete(context.Context, ...string) error        { return f.err }

func TestJournalViews(t *testing.T) {
	ctx := context.Background()
	views := NewJournalViews(NewLocal(8, time.Minute), zap.NewNop().Sugar())

	var got entry
	assert.False(t, views.Load(ctx, "j1", &got))

	views.Store(ctx, "j1", entry{Title: "Trip"})
	assert.True(t, views.Load(ctx, "j1", &got))
	assert.Equal(t, "Trip", got.Title)

	views.Invalidate(ctx, "j1")
	assert.False(t, views.Load(ctx, "j1", &got))
}

func TestJournalViewsFillSkipsInvalidatedBuild(t *testing.T) {
	ctx := context.Background()
	views := NewJournalViews(NewLocal(8, time.Minute), zap.NewNop().Sugar())

	v, err := views.Fill(ctx, "j1", func() (any, error) {
		views.Invalidate(ctx, "j1")
		return entry{Title: "old"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "old", v.(entry).Title)

	var got entry
	assert.False(t, views.Load(ctx, "j1", &got), "a build overtaken by a write is not cached")

	_, err = views.Fill(ctx, "j1", func() (any, error) { return entry{Title: "new"}, nil })
	require.NoError(t, err)
	require.True(t, views.Load(ctx, "j1", &got))
	assert.Equal(t, "new", got.Title)
}

func TestJournalViewsFillAfterInvalidateStartsNewBuild(t *testing.T) {
	ctx := context.Background()
	views := NewJournalViews(NewLocal(8, time.Minute), zap.NewNop().Sugar())

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = views.Fill(ctx, "j1", func() (any, error) {
			close(started)
			<-release
			return entry{Title: "old"}, nil
		})
	}()
	<-started

	views.Invalidate(ctx, "j1")
	v, err := views.Fill(ctx, "j1", func() (any, error) { return entry{Title: "new"}, nil })
	require.NoError(t, err)
	assert.Equal(t, "new", v.(entry).Title)

	close(release)
	<-done

	var got entry
	require.True(t, views.Load(ctx, "j1", &got))
	assert.Equal(t, "new", got.Title)
}

func TestJournalViewsDegradeToMiss(t *testing.T) {
	ctx := context.Background()
	views := NewJournalViews(failingCache{err: errors.New("down")}, zap.NewNop().Sugar())

	var got entry
	assert.False(t, views.Load(ctx, "j1", &got))
	views.Store(ctx, "j1", entry{})
	views.Invalidate(ctx, "j1")
}

func TestJournalViewKey(t *testing.T) {
	assert.Equal(t, "journal_view:abc", JournalViewKey("abc"))
}
