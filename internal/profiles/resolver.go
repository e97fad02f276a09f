package profiles

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"io.winapps.tripjournal/internal/cache"
	"io.winapps.tripjournal/internal/docstore"
	"io.winapps.tripjournal/internal/models/trip"
)

const maxParallelFetches = 4

// Resolver looks up many profiles at once, in membership-filter sized chunks,
// caching each distinct ID set. Profile edits are not pushed to the cache;
// entries age out with the TTL.
type Resolver struct {
	store  Store
	cache  cache.Cache
	logger *zap.SugaredLogger
}

func NewResolver(store Store, c cache.Cache, logger *zap.SugaredLogger) *Resolver {
	return &Resolver{store: store, cache: c, logger: logger}
}

// CacheKey returns the cache key of an ID set: the sorted, de-duplicated IDs.
func CacheKey(ids []string) string {
	return "profiles:" + strings.Join(normalizeIDs(ids), ",")
}

// Resolve returns the profiles of the given users keyed by UID. Duplicates
// and empty IDs are ignored; IDs without a profile are absent from the result.
func (r *Resolver) Resolve(ctx context.Context, ids []string) (map[string]trip.Profile, error) {
	unique := normalizeIDs(ids)
	if len(unique) == 0 {
		return map[string]trip.Profile{}, nil
	}
	key := CacheKey(unique)

	var cached map[string]trip.Profile
	hit, err := r.cache.Get(ctx, key, &cached)
	if err != nil {
		r.logger.Warnw("profile cache read failed", "error", err)
	}
	if hit {
		return cached, nil
	}

	var (
		mu  sync.Mutex
		out = make(map[string]trip.Profile, len(unique))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)
	for _, chunk := range docstore.Chunk(unique, docstore.MaxInValues) {
		g.Go(func() error {
			found, err := r.store.Fetch(gctx, chunk)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for uid, p := range found {
				out[uid] = p
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.logger.Errorw("failed to resolve profiles", "count", len(unique), "error", err)
		return nil, fmt.Errorf("resolve profiles: %w", err)
	}

	if err := r.cache.Set(ctx, key, out); err != nil {
		r.logger.Warnw("profile cache write failed", "error", err)
	}
	return out, nil
}

func normalizeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
