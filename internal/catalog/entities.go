package catalog

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/desertthunder/onehit/internal/cache"
	"github.com/desertthunder/onehit/internal/models"
	"github.com/desertthunder/onehit/internal/services"
	"github.com/desertthunder/onehit/internal/shared"
	"github.com/desertthunder/onehit/internal/store"
)

const (
	keyArtists           = "artists"
	keyTags              = "tags"
	keyNoSimilarArtists  = "hasnosimilarartist"
	keyNoTopTracks       = "hasnotoptracks"
	keyNotTag            = "isnottag"
	keyNoVideo           = "novideo"
	tagPageSize          = 100
	tagPages             = 2
	fieldYoutubeID       = "youtubeId"
	fieldThumbnailURL    = "thumbnailUrl"
	fieldThumbnailWidth  = "thumbnailWidth"
	fieldThumbnailHeight = "thumbnailHeight"
	similarKeyPrefix     = "similar:"
	topTracksKeyPrefix   = "toptracks:"
	topArtistsKeyPrefix  = "topartists:"
	trackVideoKeyPrefix  = "track:"
)

// Artist is the single live instance for an artist name.
type Artist struct {
	Name string

	c         *Catalog
	similar   cache.Cell[[]string]
	topTracks cache.Cell[[]services.TrackPlaycount]
}

// String returns the artist name.
func (a *Artist) String() string {
	return a.Name
}

// SimilarArtists resolves the artists Last.fm relates to a, most similar first.
func (a *Artist) SimilarArtists(ctx context.Context) ([]*Artist, error) {
	kv := a.c.kv
	key := similarKeyPrefix + a.Name

	names, err := a.similar.Resolve(ctx, cache.Source[[]string]{
		Attr: "similar_artists",
		Read: func(ctx context.Context) ([]string, bool, error) {
			return readList(ctx, kv, key, keyNoSimilarArtists, a.Name)
		},
		Fetch: func(ctx context.Context) ([]string, error) {
			return a.c.meta.SimilarArtists(ctx, a.Name)
		},
		Write: func(ctx context.Context, names []string) error {
			if len(names) == 0 {
				return kv.SAdd(ctx, keyNoSimilarArtists, a.Name)
			}
			if err := kv.RPush(ctx, key, names...); err != nil {
				return err
			}
			return kv.SAdd(ctx, keyArtists, lowerAll(names)...)
		},
	}, a.c.logger)
	if err != nil {
		return nil, fmt.Errorf("similar artists for %q: %w", a.Name, err)
	}
	return a.c.artistsNamed(names), nil
}

// TopTracks resolves the artist's most played tracks, capped at the catalog's top track count.
//
// Tracks are ordered by descending play count; equal counts order by descending name.
func (a *Artist) TopTracks(ctx context.Context) ([]*Track, error) {
	kv := a.c.kv
	key := topTracksKeyPrefix + a.Name

	ranked, err := a.topTracks.Resolve(ctx, cache.Source[[]services.TrackPlaycount]{
		Attr: "top_tracks",
		Read: func(ctx context.Context) ([]services.TrackPlaycount, bool, error) {
			members, err := kv.ZRevRange(ctx, key, 0, -1)
			if err != nil {
				return nil, false, err
			}
			if len(members) > 0 {
				out := make([]services.TrackPlaycount, len(members))
				for i, m := range members {
					out[i] = services.TrackPlaycount{Name: m.Member, Playcount: int64(m.Score)}
				}
				return out, true, nil
			}
			known, err := kv.SIsMember(ctx, keyNoTopTracks, a.Name)
			return nil, known, err
		},
		Fetch: func(ctx context.Context) ([]services.TrackPlaycount, error) {
			tracks, err := a.c.meta.TopTracks(ctx, a.Name)
			if err != nil {
				return nil, err
			}
			return rankTracks(tracks), nil
		},
		Write: func(ctx context.Context, tracks []services.TrackPlaycount) error {
			if len(tracks) == 0 {
				return kv.SAdd(ctx, keyNoTopTracks, a.Name)
			}
			members := make([]store.ScoredMember, len(tracks))
			for i, t := range tracks {
				members[i] = store.ScoredMember{Member: t.Name, Score: float64(t.Playcount)}
			}
			return kv.ZAdd(ctx, key, members...)
		},
	}, a.c.logger)
	if err != nil {
		return nil, fmt.Errorf("top tracks for %q: %w", a.Name, err)
	}

	n := min(len(ranked), a.c.topTrackCount)
	out := make([]*Track, n)
	for i, t := range ranked[:n] {
		out[i] = a.c.Track(a.Name, t.Name, t.Playcount)
	}
	return out, nil
}

// HitTrack returns the artist's one hit, or nil when no track dominates.
func (a *Artist) HitTrack(ctx context.Context) (*Track, error) {
	tracks, err := a.TopTracks(ctx)
	if err != nil {
		return nil, err
	}
	return PickHit(tracks), nil
}

// Tag is the single live instance for a tag name.
type Tag struct {
	Name string

	c          *Catalog
	topArtists cache.Cell[[]string]
}

// String returns the tag name.
func (t *Tag) String() string {
	return t.Name
}

// TopArtists resolves up to two pages of the tag's top artists.
func (t *Tag) TopArtists(ctx context.Context) ([]*Artist, error) {
	kv := t.c.kv
	key := topArtistsKeyPrefix + t.Name

	names, err := t.topArtists.Resolve(ctx, cache.Source[[]string]{
		Attr: "tag_top_artists",
		Read: func(ctx context.Context) ([]string, bool, error) {
			return readList(ctx, kv, key, keyNotTag, t.Name)
		},
		Fetch: func(ctx context.Context) ([]string, error) {
			var names []string
			for page := 1; page <= tagPages; page++ {
				batch, err := t.c.meta.TagTopArtists(ctx, t.Name, tagPageSize, page)
				if err != nil {
					return nil, err
				}
				if len(batch) == 0 {
					break
				}
				names = append(names, batch...)
			}
			return names, nil
		},
		Write: func(ctx context.Context, names []string) error {
			if len(names) == 0 {
				return kv.SAdd(ctx, keyNotTag, t.Name)
			}
			if err := kv.RPush(ctx, key, names...); err != nil {
				return err
			}
			if err := kv.SAdd(ctx, keyArtists, lowerAll(names)...); err != nil {
				return err
			}
			return kv.SAdd(ctx, keyTags, strings.ToLower(t.Name))
		},
	}, t.c.logger)
	if err != nil {
		return nil, fmt.Errorf("top artists for tag %q: %w", t.Name, err)
	}
	return t.c.artistsNamed(names), nil
}

// TrackKey identifies a track.
type TrackKey struct {
	Artist string
	Name   string
}

// Track is the single live instance for an (artist, name) pair. Playcount is fixed at creation.
type Track struct {
	Artist    string
	Name      string
	Playcount int64

	c     *Catalog
	video cache.Cell[*models.Video]
}

// FullName is "<artist> - <name>", used as the video query and the display name of a hit.
func (t *Track) FullName() string {
	return models.TrackName(t.Artist, t.Name)
}

// String returns the full track name.
func (t *Track) String() string {
	return t.FullName()
}

// Video resolves an embeddable video for the track, or nil when the search finds nothing.
func (t *Track) Video(ctx context.Context) (*models.Video, error) {
	kv := t.c.kv
	name := t.FullName()
	key := trackVideoKeyPrefix + name

	v, err := t.video.Resolve(ctx, cache.Source[*models.Video]{
		Attr: "video",
		Read: func(ctx context.Context) (*models.Video, bool, error) {
			fields, err := kv.HGetAll(ctx, key)
			if err != nil {
				return nil, false, err
			}
			if fields[fieldYoutubeID] != "" {
				return decodeVideo(fields), true, nil
			}
			known, err := kv.SIsMember(ctx, keyNoVideo, name)
			return nil, known, err
		},
		Fetch: func(ctx context.Context) (*models.Video, error) {
			return t.c.video.SearchVideo(ctx, name)
		},
		Write: func(ctx context.Context, v *models.Video) error {
			if v == nil {
				return kv.SAdd(ctx, keyNoVideo, name)
			}
			return kv.HSet(ctx, key, encodeVideo(v))
		},
	}, t.c.logger)
	if err != nil {
		return nil, fmt.Errorf("video for %q: %w", name, err)
	}
	return v, nil
}

func encodeVideo(v *models.Video) map[string]string {
	return map[string]string{
		fieldYoutubeID:       v.ID,
		fieldThumbnailURL:    v.Thumbnail.URL,
		fieldThumbnailWidth:  strconv.Itoa(v.Thumbnail.Width),
		fieldThumbnailHeight: strconv.Itoa(v.Thumbnail.Height),
	}
}

func decodeVideo(fields map[string]string) *models.Video {
	v := &models.Video{ID: fields[fieldYoutubeID]}
	v.Thumbnail.URL = fields[fieldThumbnailURL]
	v.Thumbnail.Width, _ = strconv.Atoi(fields[fieldThumbnailWidth])
	v.Thumbnail.Height, _ = strconv.Atoi(fields[fieldThumbnailHeight])
	return v
}

// readList reads a cached name list, falling back to the negative marker set.
func readList(ctx context.Context, kv store.KV, key, marker, member string) ([]string, bool, error) {
	names, err := kv.LRange(ctx, key, 0, -1)
	if err != nil {
		return nil, false, err
	}
	if len(names) > 0 {
		return names, true, nil
	}
	known, err := kv.SIsMember(ctx, marker, member)
	return nil, known, err
}

// rankTracks orders tracks by descending play count, then descending name.
func rankTracks(tracks []services.TrackPlaycount) []services.TrackPlaycount {
	out := slices.Clone(tracks)
	slices.SortStableFunc(out, func(a, b services.TrackPlaycount) int {
		if a.Playcount != b.Playcount {
			if a.Playcount > b.Playcount {
				return -1
			}
			return 1
		}
		return strings.Compare(b.Name, a.Name)
	})
	return out
}

func lowerAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = shared.NormalizeName(n)
	}
	return out
}
