package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ademuri/lastfm-go/lastfm"
	"github.com/avast/retry-go"
	"github.com/charmbracelet/log"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/desertthunder/onehit/internal/shared"
)

// Last.fm error codes, see https://www.last.fm/api/errorcodes
const (
	lastfmInvalidParameters  = 6 // returned for unknown artists and tags
	lastfmOperationFailed    = 8
	lastfmServiceOffline     = 11
	lastfmTemporaryError     = 16
	lastfmRateLimitExceeded  = 29
	defaultLastFMRateLimit   = 5.0
	defaultLastFMAttempts    = 3
	defaultLastFMRetryDelay  = 500 * time.Millisecond
	lastfmServiceBreakerName = "lastfm"
)

// lastfmBackend is the part of the Last.fm API the service calls, flattened to plain values.
type lastfmBackend interface {
	similar(artist string) ([]string, error)
	topTracks(artist string) ([]TrackPlaycount, error)
	tagTopArtists(tag string, limit, page int) ([]string, error)
}

type apiBackend struct {
	api *lastfm.Api
}

func (b apiBackend) similar(artist string) ([]string, error) {
	res, err := b.api.Artist.GetSimilar(lastfm.P{"artist": artist})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(res.Similars))
	for _, s := range res.Similars {
		names = append(names, s.Name)
	}
	return names, nil
}

func (b apiBackend) topTracks(artist string) ([]TrackPlaycount, error) {
	res, err := b.api.Artist.GetTopTracks(lastfm.P{"artist": artist})
	if err != nil {
		return nil, err
	}
	tracks := make([]TrackPlaycount, 0, len(res.Tracks))
	for _, t := range res.Tracks {
		tracks = append(tracks, TrackPlaycount{Name: t.Name, Playcount: parsePlaycount(t.PlayCount)})
	}
	return tracks, nil
}

func (b apiBackend) tagTopArtists(tag string, limit, page int) ([]string, error) {
	res, err := b.api.Tag.GetTopArtists(lastfm.P{"tag": tag, "limit": limit, "page": page})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(res.Artists))
	for _, a := range res.Artists {
		names = append(names, a.Name)
	}
	return names, nil
}

// parsePlaycount reads Last.fm's string play counts; garbage counts as zero.
func parsePlaycount(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// LastFMOptions tunes request pacing and retries.
type LastFMOptions struct {
	RateLimit  float64 // requests per second
	Attempts   uint
	RetryDelay time.Duration
	Breaker    BreakerSettings
}

// LastFMService implements [MetadataService] against the Last.fm API.
//
// Requests are paced by a token bucket, transient errors are retried and repeated failures open a
// circuit breaker.
type LastFMService struct {
	backend lastfmBackend
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[any]
	opts    LastFMOptions
	logger  *log.Logger
}

// NewLastFMService creates a Last.fm client from configured credentials.
func NewLastFMService(cfg shared.LastFMConfig, logger *log.Logger) (*LastFMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: lastfm api_key", shared.ErrMissingCredentials)
	}
	opts := LastFMOptions{RateLimit: cfg.RateLimit}
	return newLastFMService(apiBackend{api: lastfm.New(cfg.APIKey, cfg.Secret)}, opts, logger), nil
}

func newLastFMService(backend lastfmBackend, opts LastFMOptions, logger *log.Logger) *LastFMService {
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultLastFMRateLimit
	}
	if opts.Attempts == 0 {
		opts.Attempts = defaultLastFMAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultLastFMRetryDelay
	}
	if opts.Breaker == (BreakerSettings{}) {
		opts.Breaker = DefaultBreakerSettings()
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &LastFMService{
		backend: backend,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		cb:      newBreaker(lastfmServiceBreakerName, opts.Breaker, logger),
		opts:    opts,
		logger:  logger,
	}
}

// SimilarArtists calls artist.getsimilar.
func (s *LastFMService) SimilarArtists(ctx context.Context, artist string) ([]string, error) {
	return call(ctx, s, "artist.getsimilar", func() ([]string, error) { return s.backend.similar(artist) })
}

// TopTracks calls artist.gettoptracks.
func (s *LastFMService) TopTracks(ctx context.Context, artist string) ([]TrackPlaycount, error) {
	return call(ctx, s, "artist.gettoptracks", func() ([]TrackPlaycount, error) { return s.backend.topTracks(artist) })
}

// TagTopArtists calls tag.gettopartists for one page.
func (s *LastFMService) TagTopArtists(ctx context.Context, tag string, limit, page int) ([]string, error) {
	return call(ctx, s, "tag.gettopartists", func() ([]string, error) { return s.backend.tagTopArtists(tag, limit, page) })
}

// call paces, retries and guards one API method. "Invalid parameters" means the entity is unknown and
// is reported as an empty result.
func call[T any](ctx context.Context, s *LastFMService, method string, fn func() ([]T, error)) ([]T, error) {
	return guarded(s.cb, method, func() ([]T, error) {
		var out []T
		err := retry.Do(
			func() error {
				if err := s.limiter.Wait(ctx); err != nil {
					return err
				}
				var err error
				out, err = fn()
				return err
			},
			retry.Attempts(s.opts.Attempts),
			retry.Delay(s.opts.RetryDelay),
			retry.LastErrorOnly(true),
			retry.RetryIf(func(err error) bool {
				if isTransient(err) {
					s.logger.Warn("last.fm errored, retrying", "method", method, "error", err)
					return true
				}
				return false
			}),
		)
		if err != nil {
			var lerr *lastfm.LastfmError
			if errors.As(err, &lerr) && lerr.Code == lastfmInvalidParameters {
				return nil, nil
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, method, err)
		}
		return out, nil
	})
}

func isTransient(err error) bool {
	var lerr *lastfm.LastfmError
	if !errors.As(err, &lerr) {
		return false
	}
	switch lerr.Code {
	case lastfmOperationFailed, lastfmServiceOffline, lastfmTemporaryError, lastfmRateLimitExceeded:
		return true
	}
	return lerr.Code/100 == 5
}
