package cache

import "context"

// Value is a Memo holding a single value, for list endpoints such as
// "all genres".
type Value[V any] struct {
	m *Memo[struct{}, V]
}

// NewValue creates an empty Value.
func NewValue[V any](name string) *Value[V] {
	return &Value[V]{m: New[struct{}, V](name)}
}

// Get returns the cached value or loads it.
func (v *Value[V]) Get(ctx context.Context, forceRefresh bool, load LoadFunc[V]) (V, error) {
	return v.m.Get(ctx, struct{}{}, forceRefresh, load)
}

// Peek returns the cached value without loading.
func (v *Value[V]) Peek() (V, bool) { return v.m.Peek(struct{}{}) }

// Set stores val as valid.
func (v *Value[V]) Set(val V) { v.m.Set(struct{}{}, val) }

// Update applies fn to the cached value, if any.
func (v *Value[V]) Update(fn func(V) V) { v.m.Update(struct{}{}, fn) }

// Invalidate drops the cached value.
func (v *Value[V]) Invalidate() { v.m.Invalidate(struct{}{}) }

// Valid reports whether a value is cached.
func (v *Value[V]) Valid() bool {
	_, ok := v.m.Peek(struct{}{})
	return ok
}

// Loading reports whether a load is in flight.
func (v *Value[V]) Loading() bool { return v.m.LoadingAny() }

// Stats returns hit and miss counters.
func (v *Value[V]) Stats() Stats { return v.m.Stats() }
