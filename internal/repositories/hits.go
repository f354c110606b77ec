package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/onehit/internal/models"
	"github.com/desertthunder/onehit/internal/shared"
	"github.com/desertthunder/onehit/internal/store"
)

const (
	savedHitsKey    = "savedhits"
	brokenTracksKey = "broken_tracks"
)

// HitRepository records delivered hits and client reports of unplayable videos.
type HitRepository struct {
	kv store.KV
}

// NewHitRepository creates a HitRepository.
func NewHitRepository(kv store.KV) *HitRepository {
	return &HitRepository{kv: kv}
}

// SaveHits adds each hit, JSON encoded, to the saved-hits set.
func (r *HitRepository) SaveHits(ctx context.Context, hits []models.Hit) error {
	if len(hits) == 0 {
		return nil
	}
	members := make([]string, 0, len(hits))
	for _, h := range hits {
		data, err := shared.MarshalJSON(h)
		if err != nil {
			return fmt.Errorf("failed to encode hit: %w", err)
		}
		members = append(members, string(data))
	}
	if err := r.kv.SAdd(ctx, savedHitsKey, members...); err != nil {
		return fmt.Errorf("failed to save hits: %w", err)
	}
	return nil
}

// SavedHits returns every saved hit in insertion order.
func (r *HitRepository) SavedHits(ctx context.Context) ([]models.Hit, error) {
	members, err := r.kv.SMembers(ctx, savedHitsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read saved hits: %w", err)
	}
	hits := make([]models.Hit, 0, len(members))
	for _, m := range members {
		var h models.Hit
		if err := shared.UnmarshalJSON([]byte(m), &h); err != nil {
			return nil, fmt.Errorf("%w: saved hit %q", shared.ErrInvalidPayload, m)
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// MarkBroken records that videoID failed to play for the track called name.
func (r *HitRepository) MarkBroken(ctx context.Context, videoID, name string) error {
	if strings.TrimSpace(videoID) == "" {
		return fmt.Errorf("%w: youtube id is required", shared.ErrMissingArgument)
	}
	if err := r.kv.SAdd(ctx, brokenTracksKey, videoID+itemSeparator+name); err != nil {
		return fmt.Errorf("failed to mark broken track: %w", err)
	}
	return nil
}

// BrokenTracks returns every broken-track report.
func (r *HitRepository) BrokenTracks(ctx context.Context) ([]models.BrokenTrack, error) {
	members, err := r.kv.SMembers(ctx, brokenTracksKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read broken tracks: %w", err)
	}
	out := make([]models.BrokenTrack, 0, len(members))
	for _, m := range members {
		id, name, _ := strings.Cut(m, itemSeparator)
		out = append(out, models.BrokenTrack{YoutubeID: id, Name: name})
	}
	return out, nil
}
