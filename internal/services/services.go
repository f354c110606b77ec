// package services defines the external collaborators the catalog consumes and their HTTP implementations
//
// Last.fm (metadata), YouTube Data API (video search)
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/desertthunder/onehit/internal/metrics"
	"github.com/desertthunder/onehit/internal/models"
	"github.com/desertthunder/onehit/internal/shared"
)

// MetadataService answers artist, track and tag queries.
//
// Unknown artists and tags yield empty results, not errors.
type MetadataService interface {
	// SimilarArtists returns artist names related to artist, most similar first.
	SimilarArtists(ctx context.Context, artist string) ([]string, error)

	// TopTracks returns the artist's most played tracks with their play counts.
	TopTracks(ctx context.Context, artist string) ([]TrackPlaycount, error)

	// TagTopArtists returns one page of the top artists for a tag.
	TagTopArtists(ctx context.Context, tag string, limit, page int) ([]string, error)
}

// VideoService finds a playable video for a free-text query.
type VideoService interface {
	// SearchVideo returns the best embeddable match, or nil when the search has no results.
	SearchVideo(ctx context.Context, query string) (*models.Video, error)
}

// TrackPlaycount is a track name with its total play count.
type TrackPlaycount struct {
	Name      string
	Playcount int64
}

// BreakerSettings tunes the circuit breaker guarding a service.
type BreakerSettings struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// DefaultBreakerSettings opens after 60% failures over at least 10 requests and probes again after 30s.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

func newBreaker(name string, s BreakerSettings, logger *log.Logger) *gobreaker.CircuitBreaker[any] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRatio
		},
		// A cancelled caller says nothing about the health of the service.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "service", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// guarded runs fn through the breaker and records request metrics.
func guarded[T any](cb *gobreaker.CircuitBreaker[any], method string, fn func() (T, error)) (T, error) {
	service := cb.Name()
	start := time.Now()

	result, err := cb.Execute(func() (any, error) { return fn() })
	metrics.ExternalDuration.WithLabelValues(service, method).Observe(time.Since(start).Seconds())

	var zero T
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.ExternalRequests.WithLabelValues(service, method, "rejected").Inc()
			return zero, fmt.Errorf("%w: %s", shared.ErrCircuitOpen, service)
		}
		metrics.ExternalRequests.WithLabelValues(service, method, "failure").Inc()
		return zero, err
	}

	metrics.ExternalRequests.WithLabelValues(service, method, "success").Inc()
	if result == nil {
		return zero, nil
	}
	return result.(T), nil
}
