// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/desertthunder/onehit/internal/models"
	"github.com/desertthunder/onehit/internal/services"
	"github.com/desertthunder/onehit/internal/shared"
	"github.com/desertthunder/onehit/internal/store"
)

// NewTestStore returns a store over a migrated in-memory database, closed with the test.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return store.NewSQLiteStore(db)
}

// MockMetadata is a test double for [services.MetadataService] backed by maps, counting calls per method.
//
// When Block is non-nil every call waits on it (or on ctx) before answering.
type MockMetadata struct {
	Similar    map[string][]string
	Tracks     map[string][]services.TrackPlaycount
	TagArtists map[string][]string
	Err        error
	Block      chan struct{}

	mu    sync.Mutex
	calls map[string]int
}

// NewMockMetadata creates an empty MockMetadata.
func NewMockMetadata() *MockMetadata {
	return &MockMetadata{
		Similar:    make(map[string][]string),
		Tracks:     make(map[string][]services.TrackPlaycount),
		TagArtists: make(map[string][]string),
	}
}

func (m *MockMetadata) record(ctx context.Context, method string) error {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
	m.mu.Unlock()

	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.Err
}

// Calls returns how many times method was called.
func (m *MockMetadata) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockMetadata) SimilarArtists(ctx context.Context, artist string) ([]string, error) {
	if err := m.record(ctx, "SimilarArtists"); err != nil {
		return nil, err
	}
	return m.Similar[artist], nil
}

func (m *MockMetadata) TopTracks(ctx context.Context, artist string) ([]services.TrackPlaycount, error) {
	if err := m.record(ctx, "TopTracks"); err != nil {
		return nil, err
	}
	return m.Tracks[artist], nil
}

// TagTopArtists pages through TagArtists[tag] with the given limit.
func (m *MockMetadata) TagTopArtists(ctx context.Context, tag string, limit, page int) ([]string, error) {
	if err := m.record(ctx, "TagTopArtists"); err != nil {
		return nil, err
	}
	all := m.TagArtists[tag]
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, nil
	}
	return all[start:min(start+limit, len(all))], nil
}

// MockVideo is a test double for [services.VideoService] keyed by query.
type MockVideo struct {
	Videos map[string]*models.Video
	Err    error

	mu    sync.Mutex
	calls int
}

// NewMockVideo creates an empty MockVideo.
func NewMockVideo() *MockVideo {
	return &MockVideo{Videos: make(map[string]*models.Video)}
}

func (m *MockVideo) SearchVideo(ctx context.Context, query string) (*models.Video, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Videos[query], nil
}

// Calls returns how many searches ran.
func (m *MockVideo) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}
