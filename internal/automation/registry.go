package automation

import (
	"context"
	"sort"
	"sync"

	"shop-automation/internal/domain/event"
)

// HandlerFunc is the business logic bound to one event kind. It must be
// idempotent by construction: the processor retries failed events and may
// invoke a handler more than once for the same event.
type HandlerFunc func(ctx context.Context, evt *event.Event) error

// Registry maps event kinds to handlers. It is built once at process start;
// dispatching an unregistered kind is reported, not fatal.
type Registry struct {
	mu       sync.RWMutex
	handlers map[event.Kind]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[event.Kind]HandlerFunc),
	}
}

func (r *Registry) Register(kind event.Kind, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = handler
}

func (r *Registry) Dispatch(ctx context.Context, evt *event.Event) error {
	r.mu.RLock()
	handler, ok := r.handlers[evt.Kind()]
	r.mu.RUnlock()

	if !ok {
		return event.ErrUnknownKind
	}
	return handler(ctx, evt)
}

func (r *Registry) Has(kind event.Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[kind]
	return ok
}

// Kinds returns the registered kinds in stable order, for the config view.
func (r *Registry) Kinds() []event.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]event.Kind, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
