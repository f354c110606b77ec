package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/desertthunder/onehit/internal/shared"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return NewSQLiteStore(db)
}

func TestHashes(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key is empty", func(t *testing.T) {
		s := setupTestStore(t)
		fields, err := s.HGetAll(ctx, "track:nobody - nothing")
		if err != nil {
			t.Fatalf("HGetAll failed: %v", err)
		}
		if len(fields) != 0 {
			t.Errorf("expected empty hash, got %v", fields)
		}
	})

	t.Run("HSet overwrites fields", func(t *testing.T) {
		s := setupTestStore(t)
		key := "track:Nena - 99 Luftballons"
		if err := s.HSet(ctx, key, map[string]string{"youtube_id": "a", "thumbnail_url": "u"}); err != nil {
			t.Fatalf("HSet failed: %v", err)
		}
		if err := s.HSet(ctx, key, map[string]string{"youtube_id": "b"}); err != nil {
			t.Fatalf("HSet failed: %v", err)
		}

		fields, err := s.HGetAll(ctx, key)
		if err != nil {
			t.Fatalf("HGetAll failed: %v", err)
		}
		want := map[string]string{"youtube_id": "b", "thumbnail_url": "u"}
		if !reflect.DeepEqual(fields, want) {
			t.Errorf("got %v, want %v", fields, want)
		}
	})
}

func TestSets(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	if err := s.SAdd(ctx, "artists", "nena", "a-ha", "nena"); err != nil {
		t.Fatalf("SAdd failed: %v", err)
	}
	if err := s.SAdd(ctx, "artists", "toni basil"); err != nil {
		t.Fatalf("SAdd failed: %v", err)
	}

	n, err := s.SCard(ctx, "artists")
	if err != nil || n != 3 {
		t.Fatalf("SCard = %d, %v; want 3", n, err)
	}

	ok, err := s.SIsMember(ctx, "artists", "a-ha")
	if err != nil || !ok {
		t.Errorf("expected a-ha to be a member: %v", err)
	}
	ok, err = s.SIsMember(ctx, "tags", "a-ha")
	if err != nil || ok {
		t.Errorf("sets must not leak across keys: %v", err)
	}

	members, err := s.SMembers(ctx, "artists")
	if err != nil {
		t.Fatalf("SMembers failed: %v", err)
	}
	if !reflect.DeepEqual(members, []string{"nena", "a-ha", "toni basil"}) {
		t.Errorf("unexpected members %v", members)
	}
}

func TestSortedSets(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	key := "toptracks:Nena"

	err := s.ZAdd(ctx, key,
		ScoredMember{"99 Luftballons", 900000},
		ScoredMember{"Irgendwie", 40000},
		ScoredMember{"Leuchtturm", 40000},
		ScoredMember{"Nur geträumt", 120000},
	)
	if err != nil {
		t.Fatalf("ZAdd failed: %v", err)
	}

	t.Run("descending with ties by member desc", func(t *testing.T) {
		got, err := s.ZRevRange(ctx, key, 0, -1)
		if err != nil {
			t.Fatalf("ZRevRange failed: %v", err)
		}
		var names []string
		for _, m := range got {
			names = append(names, m.Member)
		}
		want := []string{"99 Luftballons", "Nur geträumt", "Leuchtturm", "Irgendwie"}
		if !reflect.DeepEqual(names, want) {
			t.Errorf("got %v, want %v", names, want)
		}
	})

	t.Run("bounded range", func(t *testing.T) {
		got, err := s.ZRevRange(ctx, key, 0, 1)
		if err != nil {
			t.Fatalf("ZRevRange failed: %v", err)
		}
		if len(got) != 2 || got[1].Score != 120000 {
			t.Errorf("unexpected range %v", got)
		}
	})

	t.Run("score update", func(t *testing.T) {
		if err := s.ZAdd(ctx, key, ScoredMember{"Irgendwie", 1e7}); err != nil {
			t.Fatalf("ZAdd failed: %v", err)
		}
		got, err := s.ZRevRange(ctx, key, 0, 0)
		if err != nil {
			t.Fatalf("ZRevRange failed: %v", err)
		}
		if len(got) != 1 || got[0].Member != "Irgendwie" {
			t.Errorf("expected Irgendwie first, got %v", got)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		got, err := s.ZRevRange(ctx, "toptracks:nobody", 0, 2)
		if err != nil || len(got) != 0 {
			t.Errorf("expected empty result, got %v, %v", got, err)
		}
	})
}

func TestLists(t *testing.T) {
	ctx := context.Background()

	t.Run("RPush keeps order", func(t *testing.T) {
		s := setupTestStore(t)
		if err := s.RPush(ctx, "similar:Nena", "a", "b"); err != nil {
			t.Fatalf("RPush failed: %v", err)
		}
		if err := s.RPush(ctx, "similar:Nena", "c"); err != nil {
			t.Fatalf("RPush failed: %v", err)
		}
		got, err := s.LRange(ctx, "similar:Nena", 0, -1)
		if err != nil {
			t.Fatalf("LRange failed: %v", err)
		}
		if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("LPush prepends one at a time", func(t *testing.T) {
		s := setupTestStore(t)
		if err := s.LPush(ctx, "pl", "a", "b"); err != nil {
			t.Fatalf("LPush failed: %v", err)
		}
		if err := s.LPush(ctx, "pl", "c"); err != nil {
			t.Fatalf("LPush failed: %v", err)
		}
		got, err := s.LRange(ctx, "pl", 0, -1)
		if err != nil {
			t.Fatalf("LRange failed: %v", err)
		}
		if !reflect.DeepEqual(got, []string{"c", "b", "a"}) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("LRange index normalization", func(t *testing.T) {
		s := setupTestStore(t)
		if err := s.RPush(ctx, "l", "0", "1", "2", "3", "4"); err != nil {
			t.Fatalf("RPush failed: %v", err)
		}
		tc := []struct {
			start, stop int
			want        []string
		}{
			{0, 1, []string{"0", "1"}},
			{-2, -1, []string{"3", "4"}},
			{3, 100, []string{"3", "4"}},
			{-100, 0, []string{"0"}},
			{4, 2, nil},
			{7, 9, nil},
		}
		for _, tt := range tc {
			t.Run(fmt.Sprintf("%d..%d", tt.start, tt.stop), func(t *testing.T) {
				got, err := s.LRange(ctx, "l", tt.start, tt.stop)
				if err != nil {
					t.Fatalf("LRange failed: %v", err)
				}
				if !reflect.DeepEqual(got, tt.want) {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			})
		}
	})

	t.Run("LTrim keeps window", func(t *testing.T) {
		s := setupTestStore(t)
		for i := 0; i < 6; i++ {
			if err := s.LPush(ctx, "pl", fmt.Sprint(i)); err != nil {
				t.Fatalf("LPush failed: %v", err)
			}
		}
		if err := s.LTrim(ctx, "pl", 0, 2); err != nil {
			t.Fatalf("LTrim failed: %v", err)
		}
		got, _ := s.LRange(ctx, "pl", 0, -1)
		if !reflect.DeepEqual(got, []string{"5", "4", "3"}) {
			t.Errorf("got %v", got)
		}

		if err := s.LTrim(ctx, "pl", 5, 1); err != nil {
			t.Fatalf("LTrim failed: %v", err)
		}
		got, _ = s.LRange(ctx, "pl", 0, -1)
		if len(got) != 0 {
			t.Errorf("expected empty list, got %v", got)
		}
	})
}

func TestDel(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	_ = s.SAdd(ctx, "k", "m")
	_ = s.RPush(ctx, "k", "v")
	_ = s.HSet(ctx, "other", map[string]string{"f": "v"})

	if err := s.Del(ctx, "k"); err != nil {
		t.Fatalf("Del failed: %v", err)
	}
	if n, _ := s.SCard(ctx, "k"); n != 0 {
		t.Errorf("expected set removed")
	}
	if l, _ := s.LRange(ctx, "k", 0, -1); len(l) != 0 {
		t.Errorf("expected list removed")
	}
	if h, _ := s.HGetAll(ctx, "other"); len(h) != 1 {
		t.Errorf("unrelated key should survive")
	}
}

func TestConcurrentPush(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := s.LPush(ctx, "pl", fmt.Sprint(i)); err != nil {
				t.Errorf("LPush failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := s.LRange(ctx, "pl", 0, -1)
	if err != nil {
		t.Fatalf("LRange failed: %v", err)
	}
	if len(got) != 20 {
		t.Errorf("expected 20 items, got %d", len(got))
	}
}

func TestStoreErrors(t *testing.T) {
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	s := NewSQLiteStore(db)

	// no migrations: every table is missing
	_, err = s.HGetAll(context.Background(), "k")
	if !errors.Is(err, shared.ErrStore) {
		t.Errorf("expected ErrStore, got %v", err)
	}

	db.Close()
	if err := s.SAdd(context.Background(), "k", "m"); !errors.Is(err, shared.ErrStore) {
		t.Errorf("expected ErrStore after close, got %v", err)
	}
}

func TestStoreErrorsKeepCause(t *testing.T) {
	s := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.SIsMember(ctx, "tags", "x")
	if !errors.Is(err, shared.ErrStore) {
		t.Errorf("expected ErrStore, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	if _, err := s.LRange(ctx, "playlist", 0, -1); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled from LRange, got %v", err)
	}
	if err := s.LPush(ctx, "playlist", "a"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled from LPush, got %v", err)
	}
}
