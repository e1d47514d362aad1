// Package cancellation tracks running flow invocations so clients can abort them.
package cancellation

import (
	"context"
	"sync"
	"sync/atomic"
)

type key struct {
	flowID string
	chatID string
}

// Registry maps (flow, chat) pairs to the cancel functions of the invocations
// running for them. A pair may have several invocations in flight. Safe for
// concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[key]map[uint64]context.CancelCauseFunc
	next    atomic.Uint64
}

// NewRegistry creates a new, empty cancellation registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[key]map[uint64]context.CancelCauseFunc)}
}

// Handle identifies one registration. Remove only removes the registration
// it was returned for.
type Handle struct {
	registry *Registry
	key      key
	token    uint64
	cancel   context.CancelCauseFunc
}

// Add derives a cancellable context for an invocation and registers it next
// to any invocation already running for the same pair.
func (r *Registry) Add(ctx context.Context, flowID, chatID string) (context.Context, *Handle) {
	ctx, cancel := context.WithCancelCause(ctx)
	token := r.next.Add(1)
	k := key{flowID: flowID, chatID: chatID}

	r.mu.Lock()
	running, ok := r.entries[k]
	if !ok {
		running = make(map[uint64]context.CancelCauseFunc)
		r.entries[k] = running
	}
	running[token] = cancel
	r.mu.Unlock()

	return ctx, &Handle{registry: r, key: k, token: token, cancel: cancel}
}

// Abort cancels every invocation registered for the pair. It reports whether
// any was running.
func (r *Registry) Abort(flowID, chatID string, cause error) bool {
	k := key{flowID: flowID, chatID: chatID}

	r.mu.Lock()
	running := r.entries[k]
	delete(r.entries, k)
	r.mu.Unlock()

	for _, cancel := range running {
		cancel(cause)
	}

	return len(running) > 0
}

// Len returns the number of registered invocations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, running := range r.entries {
		n += len(running)
	}

	return n
}

// Remove unregisters the invocation and releases its context.
func (h *Handle) Remove() {
	if h == nil {
		return
	}

	r := h.registry

	r.mu.Lock()
	if running, ok := r.entries[h.key]; ok {
		delete(running, h.token)

		if len(running) == 0 {
			delete(r.entries, h.key)
		}
	}
	r.mu.Unlock()

	h.cancel(context.Canceled)
}
