// Package registry deduplicates domain entities by logical key for the lifetime of the process.
package registry

import "sync"

// Registry maps a key to the single live instance for that key.
//
// Entries are never evicted. One Registry per entity kind, each with its own lock.
type Registry[K comparable, V any] struct {
	mu    sync.Mutex
	items map[K]V
}

// New creates an empty registry.
func New[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{items: make(map[K]V)}
}

// GetOrCreate returns the instance for key, calling create exactly once when the key is new.
//
// create runs under the registry lock and must not call back into the same registry.
func (r *Registry[K, V]) GetOrCreate(key K, create func() V) V {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.items[key]; ok {
		return v
	}
	v := create()
	r.items[key] = v
	return v
}

// Get returns the instance for key without creating it.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.items[key]
	return v, ok
}

// Len reports how many distinct keys have been registered.
func (r *Registry[K, V]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.items)
}
