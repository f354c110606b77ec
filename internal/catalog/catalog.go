package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/onehit/internal/models"
	"github.com/desertthunder/onehit/internal/registry"
	"github.com/desertthunder/onehit/internal/services"
	"github.com/desertthunder/onehit/internal/shared"
	"github.com/desertthunder/onehit/internal/store"
)

// Catalog owns the entity registries and the collaborators their attributes resolve through.
type Catalog struct {
	kv     store.KV
	meta   services.MetadataService
	video  services.VideoService
	logger *log.Logger

	artists *registry.Registry[string, *Artist]
	tags    *registry.Registry[string, *Tag]
	tracks  *registry.Registry[TrackKey, *Track]

	topTrackCount int
}

// Options configures a Catalog.
type Options struct {
	// TopTrackCount caps Artist.TopTracks; defaults to [TopTrackCount].
	TopTrackCount int
	Logger        *log.Logger
}

// New creates an empty catalog.
func New(kv store.KV, meta services.MetadataService, video services.VideoService, opts Options) *Catalog {
	if opts.TopTrackCount <= 0 {
		opts.TopTrackCount = TopTrackCount
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Catalog{
		kv:            kv,
		meta:          meta,
		video:         video,
		logger:        opts.Logger,
		artists:       registry.New[string, *Artist](),
		tags:          registry.New[string, *Tag](),
		tracks:        registry.New[TrackKey, *Track](),
		topTrackCount: opts.TopTrackCount,
	}
}

// Artist returns the instance for name, creating it on first reference.
func (c *Catalog) Artist(name string) *Artist {
	return c.artists.GetOrCreate(name, func() *Artist {
		return &Artist{Name: name, c: c}
	})
}

// Tag returns the instance for name, creating it on first reference.
func (c *Catalog) Tag(name string) *Tag {
	return c.tags.GetOrCreate(name, func() *Tag {
		return &Tag{Name: name, c: c}
	})
}

// Track returns the instance for (artist, name). The play count only applies when the track is new.
func (c *Catalog) Track(artist, name string, playcount int64) *Track {
	key := TrackKey{Artist: artist, Name: name}
	return c.tracks.GetOrCreate(key, func() *Track {
		return &Track{Artist: artist, Name: name, Playcount: playcount, c: c}
	})
}

func (c *Catalog) artistsNamed(names []string) []*Artist {
	out := make([]*Artist, len(names))
	for i, n := range names {
		out[i] = c.Artist(n)
	}
	return out
}

// IsArtist reports whether name has been seen as an artist in any cached lookup.
func (c *Catalog) IsArtist(ctx context.Context, name string) (bool, error) {
	return c.kv.SIsMember(ctx, keyArtists, shared.NormalizeName(name))
}

// IsTag reports whether name has resolved to a non-empty tag before.
func (c *Catalog) IsTag(ctx context.Context, name string) (bool, error) {
	return c.kv.SIsMember(ctx, keyTags, shared.NormalizeName(name))
}

// ResolveCandidates turns a free-text query into a deduplicated list of candidate artists.
//
// A known tag expands to its top artists and a known artist to its similar artists. An unknown
// query is tried both ways; when only one side fails its error is logged and the other side used.
func (c *Catalog) ResolveCandidates(ctx context.Context, query string) ([]*Artist, error) {
	q := shared.NormalizeName(query)
	if q == "" {
		return nil, fmt.Errorf("%w: empty query", shared.ErrInvalidInput)
	}

	isTag, err := c.IsTag(ctx, q)
	if err != nil {
		return nil, err
	}
	if isTag {
		return c.Tag(q).TopArtists(ctx)
	}

	isArtist, err := c.IsArtist(ctx, q)
	if err != nil {
		return nil, err
	}
	if isArtist {
		return c.Artist(q).SimilarArtists(ctx)
	}

	fromTag, tagErr := c.Tag(q).TopArtists(ctx)
	similar, artistErr := c.Artist(q).SimilarArtists(ctx)
	switch {
	case tagErr != nil && artistErr != nil:
		return nil, errors.Join(tagErr, artistErr)
	case tagErr != nil:
		c.logger.Warn("tag lookup failed, using similar artists only", "query", q, "error", tagErr)
	case artistErr != nil:
		c.logger.Warn("artist lookup failed, using tag artists only", "query", q, "error", artistErr)
	}

	return dedupe(append(fromTag, similar...)), nil
}

func dedupe(artists []*Artist) []*Artist {
	seen := make(map[*Artist]struct{}, len(artists))
	out := make([]*Artist, 0, len(artists))
	for _, a := range artists {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// FindHit resolves the artist's hit track and its video.
//
// It returns nil without error when the artist has no hit or the hit has no video.
func (c *Catalog) FindHit(ctx context.Context, artist *Artist) (*models.Hit, error) {
	track, err := artist.HitTrack(ctx)
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, nil
	}

	video, err := track.Video(ctx)
	if err != nil {
		return nil, err
	}
	if video == nil {
		c.logger.Info("couldn't find video id, skipping", "track", track.FullName())
		return nil, nil
	}

	return &models.Hit{
		Name:         track.FullName(),
		YoutubeID:    video.ID,
		ThumbnailURL: video.Thumbnail.URL,
	}, nil
}

// Stats reports registry sizes.
func (c *Catalog) Stats() models.Stats {
	return models.Stats{
		ArtistCount: c.artists.Len(),
		TrackCount:  c.tracks.Len(),
		TagCount:    c.tags.Len(),
	}
}
