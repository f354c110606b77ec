package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/onehit/internal/shared"
)

type fakeTier struct {
	mu      sync.Mutex
	stored  map[string][]string
	fetches atomic.Int32
	reads   atomic.Int32
	fetch   func() ([]string, error)
	writeFn func([]string) error
}

func newFakeTier(fetch func() ([]string, error)) *fakeTier {
	return &fakeTier{stored: make(map[string][]string), fetch: fetch}
}

func (f *fakeTier) source(key string) Source[[]string] {
	return Source[[]string]{
		Attr: "similar",
		Read: func(ctx context.Context) ([]string, bool, error) {
			f.reads.Add(1)
			f.mu.Lock()
			defer f.mu.Unlock()
			v, ok := f.stored[key]
			return v, ok, nil
		},
		Fetch: func(ctx context.Context) ([]string, error) {
			f.fetches.Add(1)
			return f.fetch()
		},
		Write: func(ctx context.Context, v []string) error {
			if f.writeFn != nil {
				return f.writeFn(v)
			}
			f.mu.Lock()
			defer f.mu.Unlock()
			f.stored[key] = v
			return nil
		},
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	logger := shared.DiscardLogger()

	t.Run("origin then local", func(t *testing.T) {
		tier := newFakeTier(func() ([]string, error) { return []string{"a-ha"}, nil })
		var cell Cell[[]string]

		for i := 0; i < 3; i++ {
			v, err := cell.Resolve(ctx, tier.source("Nena"), logger)
			if err != nil {
				t.Fatalf("resolve failed: %v", err)
			}
			if len(v) != 1 || v[0] != "a-ha" {
				t.Fatalf("unexpected value %v", v)
			}
		}
		if tier.fetches.Load() != 1 {
			t.Errorf("expected 1 origin fetch, got %d", tier.fetches.Load())
		}
		if tier.reads.Load() != 1 {
			t.Errorf("expected 1 store read, got %d", tier.reads.Load())
		}
	})

	t.Run("store round trip after local reset", func(t *testing.T) {
		tier := newFakeTier(func() ([]string, error) { return []string{"Toni Basil"}, nil })
		var cell Cell[[]string]

		if _, err := cell.Resolve(ctx, tier.source("Nena"), logger); err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		cell.Reset()
		if _, ok := cell.Peek(); ok {
			t.Fatal("reset should clear the local tier")
		}

		v, err := cell.Resolve(ctx, tier.source("Nena"), logger)
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if v[0] != "Toni Basil" {
			t.Errorf("unexpected value %v", v)
		}
		if tier.fetches.Load() != 1 {
			t.Errorf("second resolution must come from the store, got %d fetches", tier.fetches.Load())
		}
	})

	t.Run("negative marker short circuits", func(t *testing.T) {
		tier := newFakeTier(func() ([]string, error) { return nil, nil })
		tier.stored["Nobody"] = nil
		var cell Cell[[]string]

		v, err := cell.Resolve(ctx, tier.source("Nobody"), logger)
		if err != nil || len(v) != 0 {
			t.Fatalf("expected empty value, got %v, %v", v, err)
		}
		if tier.fetches.Load() != 0 {
			t.Error("origin must not be called for a known-empty key")
		}
	})

	t.Run("failures are not cached", func(t *testing.T) {
		var fail atomic.Bool
		fail.Store(true)
		boom := errors.New("boom")
		tier := newFakeTier(func() ([]string, error) {
			if fail.Load() {
				return nil, boom
			}
			return []string{"ok"}, nil
		})
		var cell Cell[[]string]

		if _, err := cell.Resolve(ctx, tier.source("x"), logger); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if _, ok := cell.Peek(); ok {
			t.Fatal("failed resolution must not fill the cell")
		}

		fail.Store(false)
		v, err := cell.Resolve(ctx, tier.source("x"), logger)
		if err != nil || v[0] != "ok" {
			t.Fatalf("retry should succeed, got %v, %v", v, err)
		}
		if tier.fetches.Load() != 2 {
			t.Errorf("expected 2 fetches, got %d", tier.fetches.Load())
		}
	})

	t.Run("store read error propagates", func(t *testing.T) {
		var cell Cell[int]
		src := Source[int]{
			Attr:  "playcount",
			Read:  func(context.Context) (int, bool, error) { return 0, false, shared.ErrStore },
			Fetch: func(context.Context) (int, error) { t.Fatal("fetch must not run"); return 0, nil },
		}
		if _, err := cell.Resolve(ctx, src, logger); !errors.Is(err, shared.ErrStore) {
			t.Errorf("expected ErrStore, got %v", err)
		}
	})

	t.Run("write failure still caches locally", func(t *testing.T) {
		tier := newFakeTier(func() ([]string, error) { return []string{"v"}, nil })
		tier.writeFn = func([]string) error { return shared.ErrStore }
		var cell Cell[[]string]

		if _, err := cell.Resolve(ctx, tier.source("k"), logger); err != nil {
			t.Fatalf("write failure should not surface, got %v", err)
		}
		if _, ok := cell.Peek(); !ok {
			t.Error("value should be cached locally")
		}
	})

	t.Run("write survives caller cancellation", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		var writeErr error
		var cell Cell[int]
		src := Source[int]{
			Attr: "count",
			Fetch: func(context.Context) (int, error) {
				cancel()
				return 7, nil
			},
			Write: func(wctx context.Context, v int) error {
				writeErr = wctx.Err()
				return nil
			},
		}
		if _, err := cell.Resolve(cctx, src, logger); err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if writeErr != nil {
			t.Errorf("write context should not be cancelled, got %v", writeErr)
		}
	})

	t.Run("concurrent callers fetch once", func(t *testing.T) {
		tier := newFakeTier(func() ([]string, error) {
			time.Sleep(20 * time.Millisecond)
			return []string{"v"}, nil
		})
		var cell Cell[[]string]

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := cell.Resolve(ctx, tier.source("k"), logger); err != nil {
					t.Errorf("resolve failed: %v", err)
				}
			}()
		}
		wg.Wait()

		if tier.fetches.Load() != 1 {
			t.Errorf("expected a single origin call, got %d", tier.fetches.Load())
		}
	})
}
