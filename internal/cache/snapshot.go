package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Snapshot caches a read-only collection loaded from upstream for a short
// time so paging through it does not refetch on every request
type Snapshot[T any] struct {
	load      func(ctx context.Context) ([]T, error)
	ttl       time.Duration
	items     []T
	fetchedAt time.Time
	group     singleflight.Group
	mu        sync.RWMutex
}

// NewSnapshot creates a snapshot cache. A ttl of zero reloads on every Get.
func NewSnapshot[T any](ttl time.Duration, load func(ctx context.Context) ([]T, error)) *Snapshot[T] {
	return &Snapshot[T]{
		load: load,
		ttl:  ttl,
	}
}

// Get returns the cached items, loading them when stale. Concurrent loads are
// collapsed into one upstream request.
func (s *Snapshot[T]) Get(ctx context.Context) ([]T, error) {
	s.mu.RLock()
	fresh := !s.fetchedAt.IsZero() && time.Since(s.fetchedAt) < s.ttl
	items := s.items
	s.mu.RUnlock()
	if fresh {
		return items, nil
	}
	return s.Reload(ctx)
}

// Reload fetches the collection regardless of age. On failure the previous
// items are kept but not returned. The shared load outlives a caller that
// gives up; each caller only waits as long as its own ctx allows.
func (s *Snapshot[T]) Reload(ctx context.Context) ([]T, error) {
	ch := s.group.DoChan("load", func() (interface{}, error) {
		items, err := s.load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.items = items
		s.fetchedAt = time.Now()
		s.mu.Unlock()
		return items, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]T), nil
	}
}

// Invalidate forces the next Get to reload
func (s *Snapshot[T]) Invalidate() {
	s.mu.Lock()
	s.fetchedAt = time.Time{}
	s.mu.Unlock()
}

// Size returns the number of cached items
func (s *Snapshot[T]) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
