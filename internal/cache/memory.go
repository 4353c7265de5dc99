package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	raw     []byte
	tags    map[string]struct{}
	expires time.Time
}

// InMemoryBackend is the development/test backend. Values round-trip through
// JSON so hit and miss paths behave identically to Redis.
type InMemoryBackend struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

func (b *InMemoryBackend) Get(ctx context.Context, key string, dest any) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[key]
	if !ok {
		return false, nil
	}
	if !e.expires.IsZero() && b.now().After(e.expires) {
		delete(b.entries, key)
		return false, nil
	}
	if err := json.Unmarshal(e.raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (b *InMemoryBackend) Set(ctx context.Context, key string, value any, tags []string, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	e := &memoryEntry{raw: raw, tags: make(map[string]struct{}, len(tags))}
	for _, tag := range tags {
		e.tags[tag] = struct{}{}
	}
	if ttl > 0 {
		e.expires = b.now().Add(ttl)
	}
	b.entries[key] = e
	return nil
}

func (b *InMemoryBackend) Invalidate(ctx context.Context, tags ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for key, e := range b.entries {
		for _, tag := range tags {
			if _, ok := e.tags[tag]; ok {
				delete(b.entries, key)
				break
			}
		}
	}
	return nil
}
