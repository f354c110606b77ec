// Package store is the shared persistent key space behind the second cache tier.
//
// Keys hold one of four value kinds (hash, set, sorted set, list) with Redis-like semantics, backed by
// SQLite tables created by the migrations in package shared. Writes are idempotent and last write wins;
// there are no transactions spanning keys.
package store
