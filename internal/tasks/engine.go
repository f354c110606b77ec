package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/onehit/internal/catalog"
	"github.com/desertthunder/onehit/internal/models"
	"github.com/desertthunder/onehit/internal/repositories"
	"github.com/desertthunder/onehit/internal/shared"
)

// DiscoveryEngine is the set of operations the CLI, the TUI and the HTTP handlers use.
type DiscoveryEngine struct {
	catalog  *catalog.Catalog
	playlist *repositories.PlaylistRepository
	hits     *repositories.HitRepository
	opts     DiscoveryOpts
	logger   *log.Logger
}

// NewDiscoveryEngine wires the catalog to the repositories that persist discovery output.
func NewDiscoveryEngine(
	cat *catalog.Catalog,
	playlist *repositories.PlaylistRepository,
	hits *repositories.HitRepository,
	opts DiscoveryOpts,
	logger *log.Logger,
) *DiscoveryEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &DiscoveryEngine{
		catalog:  cat,
		playlist: playlist,
		hits:     hits,
		opts:     opts.withDefaults(),
		logger:   logger,
	}
}

// ResolveCandidates expands query into candidate artists.
func (e *DiscoveryEngine) ResolveCandidates(ctx context.Context, query string, progress chan<- ProgressUpdate) ([]*catalog.Artist, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	candidates, err := e.catalog.ResolveCandidates(ctx, query)
	if err != nil {
		return nil, err
	}
	sendProgress(progress, resolveCandidatesUpdate(query, len(candidates)))
	e.logger.Info("resolved candidates", "query", query, "count", len(candidates))
	return candidates, nil
}

// Discover prepares a discovery stream over candidates.
func (e *DiscoveryEngine) Discover(ctx context.Context, candidates []*catalog.Artist, progress chan<- ProgressUpdate) *Discovery {
	return NewDiscovery(ctx, e.catalog, candidates, e.opts, progress, e.logger)
}

// DiscoverQuery resolves query and prepares a discovery over the result.
func (e *DiscoveryEngine) DiscoverQuery(ctx context.Context, query string, progress chan<- ProgressUpdate) (*Discovery, error) {
	candidates, err := e.ResolveCandidates(ctx, query, progress)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w for %q", shared.ErrNoCandidates, query)
	}
	return e.Discover(ctx, candidates, progress), nil
}

// SaveHits records hits in the saved-hits set and prepends each to the playlist in arrival order.
//
// Every hit is attempted; the returned error joins the failures.
func (e *DiscoveryEngine) SaveHits(ctx context.Context, hits []models.Hit) error {
	if len(hits) == 0 {
		return nil
	}

	var errs []error
	if err := e.hits.SaveHits(ctx, hits); err != nil {
		errs = append(errs, err)
	}
	for _, h := range hits {
		if err := e.playlist.Add(ctx, h); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MarkBroken records a client report that videoID does not play.
func (e *DiscoveryEngine) MarkBroken(ctx context.Context, videoID, name string) error {
	return e.hits.MarkBroken(ctx, videoID, name)
}

// BrokenTracks lists broken-track reports.
func (e *DiscoveryEngine) BrokenTracks(ctx context.Context) ([]models.BrokenTrack, error) {
	return e.hits.BrokenTracks(ctx)
}

// PlaylistAdd prepends a single item to the playlist.
func (e *DiscoveryEngine) PlaylistAdd(ctx context.Context, h models.Hit) error {
	return e.playlist.Add(ctx, h)
}

// PlaylistList returns the playlist most recent first.
func (e *DiscoveryEngine) PlaylistList(ctx context.Context) ([]models.Hit, error) {
	return e.playlist.List(ctx)
}

// PlaylistShuffled returns the playlist with the newest item first and the rest shuffled.
func (e *DiscoveryEngine) PlaylistShuffled(ctx context.Context) ([]models.Hit, error) {
	return e.playlist.Shuffled(ctx)
}

// Stats reports how many distinct entities the catalog holds.
func (e *DiscoveryEngine) Stats() models.Stats {
	return e.catalog.Stats()
}
