package repositories

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/onehit/internal/models"
	"github.com/desertthunder/onehit/internal/store"
)

// DefaultPlaylistLength is how many entries a playlist keeps.
const DefaultPlaylistLength = 50

// PlaylistRepository stores a bounded, most-recent-first list of hits under one key.
type PlaylistRepository struct {
	kv     store.KV
	name   string
	length int
	logger *log.Logger
}

// NewPlaylistRepository creates a repository for the playlist called name; length <= 0 uses
// [DefaultPlaylistLength].
func NewPlaylistRepository(kv store.KV, name string, length int, logger *log.Logger) *PlaylistRepository {
	if length <= 0 {
		length = DefaultPlaylistLength
	}
	return &PlaylistRepository{kv: kv, name: name, length: length, logger: logger}
}

// Name returns the playlist key.
func (r *PlaylistRepository) Name() string {
	return r.name
}

// Add prepends h and trims the playlist to its length. Duplicates are kept.
func (r *PlaylistRepository) Add(ctx context.Context, h models.Hit) error {
	if err := h.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := r.kv.LPush(ctx, r.name, EncodeItem(h)); err != nil {
		return fmt.Errorf("failed to add playlist item: %w", err)
	}
	if err := r.kv.LTrim(ctx, r.name, 0, r.length-1); err != nil {
		return fmt.Errorf("failed to trim playlist: %w", err)
	}
	return nil
}

// List returns the playlist most recent first; an absent playlist is empty.
//
// Items that fail to decode are logged and skipped.
func (r *PlaylistRepository) List(ctx context.Context) ([]models.Hit, error) {
	raw, err := r.kv.LRange(ctx, r.name, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlist: %w", err)
	}

	hits := make([]models.Hit, 0, len(raw))
	for _, s := range raw {
		h, err := DecodeItem(s)
		if err != nil {
			if r.logger != nil {
				r.logger.Warn("skipping playlist item", "playlist", r.name, "error", err)
			}
			continue
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// Shuffled returns the playlist with the newest item first and the rest in random order.
func (r *PlaylistRepository) Shuffled(ctx context.Context) ([]models.Hit, error) {
	hits, err := r.List(ctx)
	if err != nil || len(hits) < 3 {
		return hits, err
	}
	rest := hits[1:]
	rand.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	return hits, nil
}
