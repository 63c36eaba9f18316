package cache

import (
	"context"
	"time"
)

// Memo is an explicit memoization table keyed by (function id, arguments).
//
// Entries live until their TTL expires or until Invalidate drops the function's namespace.
// Nothing watches the underlying sources: a changed catalog file stays stale until invalidated.
type Memo struct {
	store Service
	ttl   time.Duration
	// Observe is told about every lookup; nil disables it.
	Observe func(fn string, hit bool)
}

// NewMemo wraps a Service with a default TTL.
func NewMemo(store Service, ttl time.Duration) *Memo {
	return &Memo{store: store, ttl: ttl}
}

// Remember returns the memoized value for (fn, args) or computes and stores it.
// Errors from compute are returned as-is and never memoized.
func Remember[T any](ctx context.Context, m *Memo, fn string, args []interface{}, compute func(context.Context) (T, error)) (T, error) {
	return RememberFor(ctx, m, m.ttl, fn, args, compute)
}

// RememberFor is Remember with an explicit TTL; zero keeps the entry until invalidated
// or evicted.
func RememberFor[T any](ctx context.Context, m *Memo, ttl time.Duration, fn string, args []interface{}, compute func(context.Context) (T, error)) (T, error) {
	key := GenerateKeyWithParams(fn, args...)

	var cached T
	err := m.store.Get(ctx, key, &cached)
	if err == nil {
		m.observe(fn, true)
		return cached, nil
	}
	m.observe(fn, false)

	v, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	// a failed write only costs a recompute next time
	_ = m.store.Set(ctx, key, v, ttl)
	return v, nil
}

// Invalidate drops every entry of fn, or the whole table when fn is empty.
func (m *Memo) Invalidate(ctx context.Context, fn string) error {
	return m.store.DeleteByPattern(ctx, BuildPattern(fn))
}

// InvalidatePrefix drops every entry of fn whose arguments start with args.
func (m *Memo) InvalidatePrefix(ctx context.Context, fn string, args ...interface{}) error {
	return m.store.DeleteByPattern(ctx, BuildPattern(GenerateKeyWithParams(fn, args...)))
}

// Close releases the backing store.
func (m *Memo) Close() error {
	return m.store.Close()
}

func (m *Memo) observe(fn string, hit bool) {
	if m.Observe != nil {
		m.Observe(fn, hit)
	}
}
