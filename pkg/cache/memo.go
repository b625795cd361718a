// Package cache memoizes asynchronous loads with manual invalidation.
//
// A Memo keeps one value per key until the key is invalidated. Concurrent
// callers for the same key share a single in-flight load. There is no
// eviction, TTL or size bound: entries live until a caller invalidates them.
package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// LoadFunc produces the value for a key.
type LoadFunc[V any] func(ctx context.Context) (V, error)

// Stats counts cache lookups.
type Stats struct {
	Hits   uint64
	Misses uint64
}

// Memo is a keyed memoizing accessor. The zero value is not usable; call New.
type Memo[K comparable, V any] struct {
	name string

	mu      sync.Mutex
	entries map[K]V
	// A load records epoch and the key's version when it starts and only
	// stores its result if neither moved, so loads racing an invalidation
	// or a forced refresh never overwrite newer state.
	versions map[K]uint64
	epoch    uint64
	loading  map[K]int

	group  singleflight.Group
	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates an empty Memo. name prefixes the singleflight keys.
func New[K comparable, V any](name string) *Memo[K, V] {
	return &Memo[K, V]{
		name:     name,
		entries:  make(map[K]V),
		versions: make(map[K]uint64),
		loading:  make(map[K]int),
	}
}

// Get returns the cached value for key, or runs load once for all concurrent
// callers and caches a successful result. With forceRefresh the cached value
// is ignored and a new load is started even if one is already in flight; the
// old entry stays readable until the new load succeeds.
// Failed loads are not cached.
func (m *Memo[K, V]) Get(ctx context.Context, key K, forceRefresh bool, load LoadFunc[V]) (V, error) {
	m.mu.Lock()
	if v, ok := m.entries[key]; ok && !forceRefresh {
		m.mu.Unlock()
		m.hits.Add(1)
		return v, nil
	}
	if forceRefresh {
		m.versions[key]++
	}
	epoch, version := m.epoch, m.versions[key]
	flightKey := fmt.Sprintf("%s:%v#%d.%d", m.name, key, epoch, version)
	m.mu.Unlock()
	m.misses.Add(1)

	// The shared load must not die with the first caller's context.
	loadCtx := context.WithoutCancel(ctx)
	ch := m.group.DoChan(flightKey, func() (any, error) {
		m.markLoading(key, 1)
		defer m.markLoading(key, -1)
		v, err := load(loadCtx)
		if err != nil {
			return v, err
		}
		m.mu.Lock()
		if m.epoch == epoch && m.versions[key] == version {
			m.entries[key] = v
		}
		m.mu.Unlock()
		return v, nil
	})

	select {
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

// Peek returns the cached value without loading.
func (m *Memo[K, V]) Peek(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok
}

// Set stores v for key as a valid entry.
func (m *Memo[K, V]) Set(key K, v V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = v
}

// Update applies fn to the cached value for key, if any.
func (m *Memo[K, V]) Update(key K, fn func(V) V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.entries[key]; ok {
		m.entries[key] = fn(v)
	}
}

// UpdateAll applies fn to every cached entry.
func (m *Memo[K, V]) UpdateAll(fn func(K, V) V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.entries {
		m.entries[k] = fn(k, v)
	}
}

// Invalidate drops key. In-flight loads for key will not repopulate it.
func (m *Memo[K, V]) Invalidate(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	m.versions[key]++
}

// InvalidateAll drops every entry.
func (m *Memo[K, V]) InvalidateAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.entries)
	m.epoch++
}

// Loading reports whether a load for key is in flight.
func (m *Memo[K, V]) Loading(key K) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading[key] > 0
}

// LoadingAny reports whether any load is in flight.
func (m *Memo[K, V]) LoadingAny() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loading) > 0
}

// LoadingKeys returns the keys with a load in flight.
func (m *Memo[K, V]) LoadingKeys() []K {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]K, 0, len(m.loading))
	for k := range m.loading {
		out = append(out, k)
	}
	return out
}

// Len returns the number of cached entries.
func (m *Memo[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Stats returns hit and miss counters.
func (m *Memo[K, V]) Stats() Stats {
	return Stats{Hits: m.hits.Load(), Misses: m.misses.Load()}
}

func (m *Memo[K, V]) markLoading(key K, delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading[key] += delta
	if m.loading[key] <= 0 {
		delete(m.loading, key)
	}
}
