package cache

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const journalViewPrefix = "journal_view:"

// Invalidator evicts the cached view of a journal. Every successful write to
// a journal or its places calls it once.
type Invalidator interface {
	Invalidate(ctx context.Context, journalID string)
}

// JournalViews is the cache-aside store for assembled journal views. Each
// journal has a generation that Invalidate advances; a view built from reads
// that began before an invalidation is never cached.
type JournalViews struct {
	cache  Cache
	logger *zap.SugaredLogger
	group  singleflight.Group

	mu   sync.Mutex
	gens map[string]uint64
}

func NewJournalViews(c Cache, logger *zap.SugaredLogger) *JournalViews {
	return &JournalViews{cache: c, logger: logger, gens: make(map[string]uint64)}
}

// JournalViewKey returns the cache key of a journal's view.
func JournalViewKey(journalID string) string {
	return journalViewPrefix + journalID
}

// Load reads a cached view into dst. Cache errors are logged and reported as
// a miss so reads fall through to the store.
func (v *JournalViews) Load(ctx context.Context, journalID string, dst any) bool {
	hit, err := v.cache.Get(ctx, JournalViewKey(journalID), dst)
	if err != nil {
		v.logger.Warnw("journal view cache read failed", "journal_id", journalID, "error", err)
		return false
	}
	return hit
}

// Fill builds a missing view. Concurrent misses for one journal share a
// single build, and the result is cached only if the journal was not
// invalidated while it ran.
func (v *JournalViews) Fill(ctx context.Context, journalID string, build func() (any, error)) (any, error) {
	view, err, _ := v.group.Do(journalID, func() (any, error) {
		gen := v.generation(journalID)
		view, err := build()
		if err != nil {
			return nil, err
		}
		v.storeAt(ctx, journalID, gen, view)
		return view, nil
	})
	return view, err
}

// Store caches an assembled view.
func (v *JournalViews) Store(ctx context.Context, journalID string, view any) {
	v.storeAt(ctx, journalID, v.generation(journalID), view)
}

// storeAt caches view if the journal is still at generation gen. The check
// is repeated after the write so an Invalidate racing with it still wins.
func (v *JournalViews) storeAt(ctx context.Context, journalID string, gen uint64, view any) {
	if v.generation(journalID) != gen {
		return
	}
	key := JournalViewKey(journalID)
	if err := v.cache.Set(ctx, key, view); err != nil {
		v.logger.Warnw("journal view cache write failed", "journal_id", journalID, "error", err)
		return
	}
	if v.generation(journalID) != gen {
		if err := v.cache.Delete(ctx, key); err != nil {
			v.logger.Errorw("journal view cache invalidation failed", "journal_id", journalID, "error", err)
		}
	}
}

func (v *JournalViews) generation(journalID string) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.gens[journalID]
}

// Invalidate removes a journal's cached view. Builds already in flight are
// detached, so the next Fill reads the store again. The write that preceded
// it has already been committed, so a failure is logged rather than returned.
func (v *JournalViews) Invalidate(ctx context.Context, journalID string) {
	v.mu.Lock()
	v.gens[journalID]++
	v.mu.Unlock()
	v.group.Forget(journalID)

	if err := v.cache.Delete(ctx, JournalViewKey(journalID)); err != nil {
		v.logger.Errorw("journal view cache invalidation failed", "journal_id", journalID, "error", err)
	}
}
