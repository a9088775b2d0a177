package scope

import (
	"context"
	"sync"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// Scope is a mutable per-request value store. The zero value is not usable;
// create instances with New.
//
// A request's call chain is logically sequential, but handlers may still spawn
// goroutines that share the request context, so access is guarded by a mutex.
type Scope struct {
	mu     sync.RWMutex
	values map[string]any
}

// New creates an empty scope.
func New() *Scope {
	return &Scope{values: make(map[string]any)}
}

// WithScope attaches s to the context. The returned context and every context
// derived from it share the same scope instance.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the active scope, if any.
func FromContext(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(contextKey{}).(*Scope)
	return s, ok && s != nil
}

// Active reports whether the context carries a scope.
func Active(ctx context.Context) bool {
	_, ok := FromContext(ctx)
	return ok
}

// Run executes fn within a fresh isolated scope seeded with initial values.
// The scope is visible to fn and everything it calls; it never leaks to the
// caller's context or to concurrently running scopes. Errors from fn propagate
// unchanged.
func Run(ctx context.Context, initial map[string]any, fn func(ctx context.Context) error) error {
	s := New()
	for k, v := range initial {
		s.values[k] = v
	}
	return fn(WithScope(ctx, s))
}

// Get returns the current scope's value for key. It reports false when the
// key is unset or when no scope is active; the latter is a valid, silent case.
func Get(ctx context.Context, key string) (any, bool) {
	s, ok := FromContext(ctx)
	if !ok {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key in the current scope, in place. The value is
// visible to all code sharing the scope, including code that runs after the
// caller returns. It reports false when no scope is active.
func Set(ctx context.Context, key string, value any) bool {
	s, ok := FromContext(ctx)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return true
}

// SetOnce stores value under key only when the key is not already set.
// It reports whether the value was stored.
func SetOnce(ctx context.Context, key string, value any) bool {
	s, ok := FromContext(ctx)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.values[key]; exists {
		return false
	}
	s.values[key] = value
	return true
}

// Delete removes key from the current scope. It reports false when no scope
// is active.
func Delete(ctx context.Context, key string) bool {
	s, ok := FromContext(ctx)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return true
}
