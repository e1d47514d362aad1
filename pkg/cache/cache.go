// Package cache provides the process wide cache shared by node implementations.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrMiss is returned when a key is not cached.
var ErrMiss = errors.New("cache miss")

// Pool is a byte oriented cache safe for concurrent use.
// Entry semantics belong to the nodes that use it.
type Pool interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// IsMiss checks if an error means the key was not cached.
func IsMiss(err error) bool {
	return errors.Is(err, ErrMiss)
}

// NewPool creates a pool from a url: "memory://" or "redis://...".
func NewPool(ctx context.Context, rawURL string) (Pool, error) {
	switch {
	case rawURL == "" || strings.HasPrefix(rawURL, "memory://"):
		return NewMemoryPool(), nil
	case strings.HasPrefix(rawURL, "redis://"), strings.HasPrefix(rawURL, "rediss://"):
		return NewRedisPool(ctx, rawURL)
	default:
		return nil, fmt.Errorf("unsupported cache url %q", rawURL)
	}
}

// Instances memoizes live objects, such as API clients, for the lifetime of the process.
type Instances struct {
	mu    sync.Mutex
	items map[string]any
}

func NewInstances() *Instances {
	return &Instances{items: make(map[string]any)}
}

// GetOrCreate returns the instance stored under key, creating it with create when absent.
// A failed create stores nothing.
func (i *Instances) GetOrCreate(key string, create func() (any, error)) (any, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if item, ok := i.items[key]; ok {
		return item, nil
	}

	item, err := create()
	if err != nil {
		return nil, err
	}

	i.items[key] = item

	return item, nil
}

// Forget removes the instance stored under key.
func (i *Instances) Forget(key string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	delete(i.items, key)
}

// Len returns the number of stored instances.
func (i *Instances) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()

	return len(i.items)
}
