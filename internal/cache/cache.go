// Package cache implements the two-tier resolution protocol for expensive entity attributes.
//
// A value is looked up in the process-local [Cell] first, then in the persistent store, and only then
// fetched from the origin service and written through. Each cell is filled at most once; failed fills
// are not remembered so the next caller retries.
package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/onehit/internal/metrics"
)

// Tier names the layer that answered a resolution.
type Tier string

const (
	TierLocal  Tier = "local"
	TierStore  Tier = "store"
	TierOrigin Tier = "origin"
)

// Cell is the process-local tier for one attribute of one entity.
type Cell[T any] struct {
	mu    sync.Mutex
	value atomic.Pointer[T]
}

// Peek returns the locally cached value, if any, without blocking.
func (c *Cell[T]) Peek() (T, bool) {
	if p := c.value.Load(); p != nil {
		return *p, true
	}
	var zero T
	return zero, false
}

// Set stores v in the local tier.
func (c *Cell[T]) Set(v T) {
	c.value.Store(&v)
}

// Reset clears the local tier so the next resolution consults the store again.
func (c *Cell[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value.Store(nil)
}

// Source describes the persistent and origin tiers of an attribute.
//
// Read reports found=false when the store has nothing for the key; negative markers count as found.
// Write persists a freshly fetched value, including recording a negative marker for empty values.
type Source[T any] struct {
	Attr  string
	Read  func(ctx context.Context) (v T, found bool, err error)
	Fetch func(ctx context.Context) (T, error)
	Write func(ctx context.Context, v T) error
}

// Resolve returns the attribute value, filling the cell at most once.
//
// Concurrent callers for the same cell wait for the first one. A store write failure after a successful
// fetch is logged and the value is still cached locally.
func (c *Cell[T]) Resolve(ctx context.Context, src Source[T], logger *log.Logger) (T, error) {
	if v, ok := c.Peek(); ok {
		metrics.CacheLookups.WithLabelValues(src.Attr, string(TierLocal)).Inc()
		return v, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.Peek(); ok {
		metrics.CacheLookups.WithLabelValues(src.Attr, string(TierLocal)).Inc()
		return v, nil
	}

	var zero T
	if src.Read != nil {
		v, found, err := src.Read(ctx)
		if err != nil {
			return zero, err
		}
		if found {
			metrics.CacheLookups.WithLabelValues(src.Attr, string(TierStore)).Inc()
			c.Set(v)
			return v, nil
		}
	}

	v, err := src.Fetch(ctx)
	if err != nil {
		return zero, err
	}
	metrics.CacheLookups.WithLabelValues(src.Attr, string(TierOrigin)).Inc()

	if src.Write != nil {
		// The write outlives a cancelled caller; the fetched data is still valid.
		if err := src.Write(context.WithoutCancel(ctx), v); err != nil {
			metrics.CacheWriteFailures.WithLabelValues(src.Attr).Inc()
			if logger != nil {
				logger.Warn("write-through failed", "attr", src.Attr, "error", err)
			}
		}
	}

	c.Set(v)
	return v, nil
}
