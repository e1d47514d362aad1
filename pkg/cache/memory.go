package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryPool keeps entries in process memory.
type MemoryPool struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryPool() *MemoryPool {
	return &MemoryPool{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (p *MemoryPool) Get(_ context.Context, key string) ([]byte, error) {
	p.mu.RLock()
	entry, ok := p.entries[key]
	p.mu.RUnlock()

	if !ok {
		return nil, ErrMiss
	}

	if !entry.expiresAt.IsZero() && !p.now().Before(entry.expiresAt) {
		p.mu.Lock()
		delete(p.entries, key)
		p.mu.Unlock()

		return nil, ErrMiss
	}

	return append([]byte(nil), entry.value...), nil
}

// Set stores value under key. A zero ttl never expires.
func (p *MemoryPool) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = p.now().Add(ttl)
	}

	p.mu.Lock()
	p.entries[key] = entry
	p.mu.Unlock()

	return nil
}

func (p *MemoryPool) Delete(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.entries, key)
	p.mu.Unlock()

	return nil
}

func (p *MemoryPool) Close() error {
	return nil
}
