package cache

import (
	"context"
	"sync"
	"time"
)

const defaultCleanupInterval = time.Minute

// MemoryCache keeps entries in process. It is only suitable for a single
// instance: replay protection does not span replicas.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]entry
	done    chan struct{}
	stop    sync.Once
}

type entry struct {
	value    []byte
	deadline time.Time
}

func (e entry) alive(now time.Time) bool {
	return now.Before(e.deadline)
}

// NewMemoryCache starts a sweeper that drops expired entries every interval
// (one minute when interval is not positive). Close stops it.
func NewMemoryCache(interval time.Duration) *MemoryCache {
	if interval <= 0 {
		interval = defaultCleanupInterval
	}

	mc := &MemoryCache{
		entries: make(map[string]entry),
		done:    make(chan struct{}),
	}
	go mc.sweep(interval)

	return mc
}

func (mc *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	e, ok := mc.entries[key]
	if !ok || !e.alive(time.Now()) {
		return nil, ErrNotFound
	}
	return clone(e.value), nil
}

func (mc *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.put(key, value, ttl)
	return nil
}

func (mc *MemoryCache) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if e, ok := mc.entries[key]; ok && e.alive(time.Now()) {
		return false, nil
	}
	mc.put(key, value, ttl)
	return true, nil
}

func (mc *MemoryCache) Delete(_ context.Context, key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	delete(mc.entries, key)
	return nil
}

func (mc *MemoryCache) Close() error {
	mc.stop.Do(func() { close(mc.done) })
	return nil
}

// put must be called with mu held.
func (mc *MemoryCache) put(key string, value []byte, ttl time.Duration) {
	mc.entries[key] = entry{
		value:    clone(value),
		deadline: time.Now().Add(ttl),
	}
}

func (mc *MemoryCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			mc.mu.Lock()
			for key, e := range mc.entries {
				if !e.alive(now) {
					delete(mc.entries, key)
				}
			}
			mc.mu.Unlock()
		case <-mc.done:
			return
		}
	}
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
