package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/onehit/internal/shared"
)

// KV is the persistent store contract consumed by the catalog and repositories.
type KV interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key string, fields map[string]string) error

	SAdd(ctx context.Context, key string, members ...string) error
	SIsMember(ctx context.Context, key, member string) (bool, error)
	SMembers(ctx context.Context, key string) ([]string, error)
	SCard(ctx context.Context, key string) (int, error)

	ZAdd(ctx context.Context, key string, members ...ScoredMember) error
	ZRevRange(ctx context.Context, key string, start, stop int) ([]ScoredMember, error)

	LPush(ctx context.Context, key string, values ...string) error
	RPush(ctx context.Context, key string, values ...string) error
	LRange(ctx context.Context, key string, start, stop int) ([]string, error)
	LTrim(ctx context.Context, key string, start, stop int) error

	Del(ctx context.Context, keys ...string) error
}

// ScoredMember is a sorted set entry.
type ScoredMember struct {
	Member string
	Score  float64
}

// SQLiteStore implements [KV] on top of the kv_* tables.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex // serializes read-modify-write list operations
}

// NewSQLiteStore wraps an already migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func storeErr(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", shared.ErrStore, op, key, err)
}

// HGetAll returns every field of the hash at key, or an empty map when the key is absent.
func (s *SQLiteStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT field, value FROM kv_hash WHERE key = ?", key)
	if err != nil {
		return nil, storeErr("HGETALL", key, err)
	}
	defer rows.Close()

	fields := make(map[string]string)
	for rows.Next() {
		var f, v string
		if err := rows.Scan(&f, &v); err != nil {
			return nil, storeErr("HGETALL", key, err)
		}
		fields[f] = v
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("HGETALL", key, err)
	}
	return fields, nil
}

// HSet writes the given fields, replacing existing values.
func (s *SQLiteStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return s.withTx(ctx, "HSET", key, func(tx *sql.Tx) error {
		for f, v := range fields {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO kv_hash (key, field, value) VALUES (?, ?, ?) ON CONFLICT(key, field) DO UPDATE SET value = excluded.value",
				key, f, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// SAdd adds members to the set at key; members already present are ignored.
func (s *SQLiteStore) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return s.withTx(ctx, "SADD", key, func(tx *sql.Tx) error {
		for _, m := range members {
			if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO kv_set (key, member) VALUES (?, ?)", key, m); err != nil {
				return err
			}
		}
		return nil
	})
}

// SIsMember reports whether member is in the set at key.
func (s *SQLiteStore) SIsMember(ctx context.Context, key, member string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM kv_set WHERE key = ? AND member = ?)", key, member).Scan(&exists)
	if err != nil {
		return false, storeErr("SISMEMBER", key, err)
	}
	return exists, nil
}

// SMembers returns the set at key in insertion order.
func (s *SQLiteStore) SMembers(ctx context.Context, key string) ([]string, error) {
	return s.queryStrings(ctx, "SMEMBERS", key, "SELECT member FROM kv_set WHERE key = ? ORDER BY rowid", key)
}

// SCard returns the cardinality of the set at key.
func (s *SQLiteStore) SCard(ctx context.Context, key string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv_set WHERE key = ?", key).Scan(&n); err != nil {
		return 0, storeErr("SCARD", key, err)
	}
	return n, nil
}

// ZAdd sets the score of each member, inserting new ones.
func (s *SQLiteStore) ZAdd(ctx context.Context, key string, members ...ScoredMember) error {
	if len(members) == 0 {
		return nil
	}
	return s.withTx(ctx, "ZADD", key, func(tx *sql.Tx) error {
		for _, m := range members {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO kv_zset (key, member, score) VALUES (?, ?, ?) ON CONFLICT(key, member) DO UPDATE SET score = excluded.score",
				key, m.Member, m.Score); err != nil {
				return err
			}
		}
		return nil
	})
}

// ZRevRange returns members ranked start..stop (inclusive) by descending score.
//
// Ties are ordered by descending member, and negative indexes count from the end.
func (s *SQLiteStore) ZRevRange(ctx context.Context, key string, start, stop int) ([]ScoredMember, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv_zset WHERE key = ?", key).Scan(&n); err != nil {
		return nil, storeErr("ZREVRANGE", key, err)
	}

	offset, limit, ok := window(n, start, stop)
	if !ok {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT member, score FROM kv_zset WHERE key = ? ORDER BY score DESC, member DESC LIMIT ? OFFSET ?",
		key, limit, offset)
	if err != nil {
		return nil, storeErr("ZREVRANGE", key, err)
	}
	defer rows.Close()

	var out []ScoredMember
	for rows.Next() {
		var m ScoredMember
		if err := rows.Scan(&m.Member, &m.Score); err != nil {
			return nil, storeErr("ZREVRANGE", key, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("ZREVRANGE", key, err)
	}
	return out, nil
}

// LPush prepends values one at a time, so the last value ends up at the head.
func (s *SQLiteStore) LPush(ctx context.Context, key string, values ...string) error {
	return s.push(ctx, "LPUSH", key, values, "SELECT COALESCE(MIN(pos), 0) FROM kv_list WHERE key = ?", -1)
}

// RPush appends values in order.
func (s *SQLiteStore) RPush(ctx context.Context, key string, values ...string) error {
	return s.push(ctx, "RPUSH", key, values, "SELECT COALESCE(MAX(pos), 0) FROM kv_list WHERE key = ?", 1)
}

func (s *SQLiteStore) push(ctx context.Context, op, key string, values []string, edge string, step int) error {
	if len(values) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, op, key, func(tx *sql.Tx) error {
		var pos int
		if err := tx.QueryRowContext(ctx, edge, key).Scan(&pos); err != nil {
			return err
		}
		for _, v := range values {
			pos += step
			if _, err := tx.ExecContext(ctx, "INSERT INTO kv_list (key, pos, value) VALUES (?, ?, ?)", key, pos, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// LRange returns list elements start..stop (inclusive); negative indexes count from the end.
func (s *SQLiteStore) LRange(ctx context.Context, key string, start, stop int) ([]string, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv_list WHERE key = ?", key).Scan(&n); err != nil {
		return nil, storeErr("LRANGE", key, err)
	}

	offset, limit, ok := window(n, start, stop)
	if !ok {
		return nil, nil
	}
	return s.queryStrings(ctx, "LRANGE", key,
		"SELECT value FROM kv_list WHERE key = ? ORDER BY pos LIMIT ? OFFSET ?", key, limit, offset)
}

// LTrim keeps only elements start..stop (inclusive) of the list at key.
func (s *SQLiteStore) LTrim(ctx context.Context, key string, start, stop int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, "LTRIM", key, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv_list WHERE key = ?", key).Scan(&n); err != nil {
			return err
		}

		offset, limit, ok := window(n, start, stop)
		if !ok {
			_, err := tx.ExecContext(ctx, "DELETE FROM kv_list WHERE key = ?", key)
			return err
		}

		_, err := tx.ExecContext(ctx, `DELETE FROM kv_list WHERE key = ? AND pos NOT IN (
			SELECT pos FROM kv_list WHERE key = ? ORDER BY pos LIMIT ? OFFSET ?
		)`, key, key, limit, offset)
		return err
	})
}

// Del removes keys of every kind.
func (s *SQLiteStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.withTx(ctx, "DEL", strings.Join(keys, ","), func(tx *sql.Tx) error {
		for _, table := range []string{"kv_hash", "kv_set", "kv_zset", "kv_list"} {
			for _, k := range keys {
				if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE key = ?", k); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *SQLiteStore) queryStrings(ctx context.Context, op, key, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(op, key, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, storeErr(op, key, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, key, err)
	}
	return out, nil
}

func (s *SQLiteStore) withTx(ctx context.Context, op, key string, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(op, key, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return storeErr(op, key, err)
	}
	if err := tx.Commit(); err != nil {
		return storeErr(op, key, err)
	}
	return nil
}

// window converts Redis-style inclusive start/stop indexes over n elements into OFFSET/LIMIT.
func window(n, start, stop int) (offset, limit int, ok bool) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop - start + 1, true
}
