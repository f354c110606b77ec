package tasks

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/onehit/internal/catalog"
	"github.com/desertthunder/onehit/internal/metrics"
	"github.com/desertthunder/onehit/internal/models"
	"github.com/desertthunder/onehit/internal/shared"
)

// HitFinder resolves one artist to a playable hit, or nil when it has none.
type HitFinder interface {
	FindHit(ctx context.Context, artist *catalog.Artist) (*models.Hit, error)
}

// DiscoveryOpts bounds a discovery.
type DiscoveryOpts struct {
	Concurrency  int           // Workers resolving artists at once (default: 10)
	PollInterval time.Duration // Longest wait for the next hit (default: 1s)
	MaxMisses    int           // Consecutive empty polls before giving up (default: 30)
}

func (o DiscoveryOpts) withDefaults() DiscoveryOpts {
	if o.Concurrency <= 0 {
		o.Concurrency = 10
	}
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.MaxMisses <= 0 {
		o.MaxMisses = 30
	}
	return o
}

// Outcome is how a discovery stream ended.
type Outcome int

const (
	Pending   Outcome = iota // not finished yet
	Exhausted                // every candidate was checked
	GaveUp                   // too many consecutive empty polls
	Cancelled                // consumer stopped or the context ended
)

func (o Outcome) String() string {
	switch o {
	case Exhausted:
		return "exhausted"
	case GaveUp:
		return "gave_up"
	case Cancelled:
		return "cancelled"
	default:
		return "pending"
	}
}

// Discovery is a single-use stream of hits for a set of candidate artists.
type Discovery struct {
	ID string

	finder     HitFinder
	candidates []*catalog.Artist
	opts       DiscoveryOpts
	logger     *log.Logger
	progress   chan<- ProgressUpdate

	ctx     context.Context
	cancel  context.CancelFunc
	results chan models.Hit
	done    chan struct{}
	started atomic.Bool
	checked atomic.Int32

	mu      sync.Mutex
	outcome Outcome
	hits    []models.Hit
}

// NewDiscovery prepares a discovery over candidates. Nothing runs until [Discovery.Hits] is iterated.
//
// progress may be nil.
func NewDiscovery(
	ctx context.Context,
	finder HitFinder,
	candidates []*catalog.Artist,
	opts DiscoveryOpts,
	progress chan<- ProgressUpdate,
	logger *log.Logger,
) *Discovery {
	id := shared.GenerateID()
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	ctx, cancel := context.WithCancel(ctx)

	return &Discovery{
		ID:         id,
		finder:     finder,
		candidates: candidates,
		opts:       opts.withDefaults(),
		logger:     shared.WithLogger(logger, "discovery", id),
		progress:   progress,
		ctx:        ctx,
		cancel:     cancel,
		results:    make(chan models.Hit, len(candidates)),
		done:       make(chan struct{}),
	}
}

// run schedules one task per candidate and closes done once every scheduled task returned.
func (d *Discovery) run() {
	defer close(d.done)

	var g errgroup.Group
	g.SetLimit(d.opts.Concurrency)

	for _, artist := range d.candidates {
		if d.ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			d.check(artist)
			return nil
		})
	}
	g.Wait()
}

func (d *Discovery) check(artist *catalog.Artist) {
	if d.ctx.Err() != nil {
		return
	}

	step := int(d.checked.Add(1))
	sendProgress(d.progress, checkArtistUpdate(step, len(d.candidates), artist.Name))

	hit, err := d.finder.FindHit(d.ctx, artist)
	if err != nil {
		if d.ctx.Err() == nil {
			d.logger.Warn("failed to check artist", "artist", artist.Name, "error", err)
		}
		return
	}
	if hit == nil {
		return
	}
	if d.ctx.Err() != nil {
		d.logger.Debug("dropping hit after cancellation", "hit", hit.Name)
		return
	}

	select {
	case <-d.ctx.Done():
		d.logger.Debug("dropping hit after cancellation", "hit", hit.Name)
	case d.results <- *hit:
	}
}

// Hits returns the stream of hits in arrival order.
//
// The stream is single use: iterating it a second time yields nothing. Breaking out of the loop
// cancels outstanding tasks.
func (d *Discovery) Hits() iter.Seq[models.Hit] {
	return func(yield func(models.Hit) bool) {
		if !d.started.CompareAndSwap(false, true) {
			d.logger.Warn("discovery stream already consumed")
			return
		}

		metrics.ActiveDiscoveries.Inc()
		defer metrics.ActiveDiscoveries.Dec()
		defer d.cancel()

		d.logger.Info("discovery started", "candidates", len(d.candidates), "concurrency", d.opts.Concurrency)
		go d.run()

		timer := time.NewTimer(d.opts.PollInterval)
		defer timer.Stop()

		misses := 0
		for {
			select {
			case h := <-d.results:
				misses = 0
				if !d.deliver(h, yield) {
					d.finish(Cancelled)
					return
				}
				timer.Reset(d.opts.PollInterval)
			case <-d.done:
				d.finish(d.settle(yield))
				return
			case <-d.ctx.Done():
				d.finish(Cancelled)
				return
			case <-timer.C:
				select {
				case <-d.done:
					d.finish(d.settle(yield))
					return
				default:
				}

				misses++
				sendProgress(d.progress, waitingUpdate(misses, d.opts.MaxMisses))
				if misses >= d.opts.MaxMisses {
					sendProgress(d.progress, giveUpUpdate(misses))
					d.cancel()
					d.finish(GaveUp)
					return
				}
				timer.Reset(d.opts.PollInterval)
			}
		}
	}
}

// settle decides the outcome once every task is done. Tasks also end early when the context is
// cancelled, in which case nothing is drained.
func (d *Discovery) settle(yield func(models.Hit) bool) Outcome {
	if d.ctx.Err() != nil {
		return Cancelled
	}
	return d.drain(yield)
}

// drain delivers hits already buffered once every task is done.
func (d *Discovery) drain(yield func(models.Hit) bool) Outcome {
	for {
		select {
		case h := <-d.results:
			if !d.deliver(h, yield) {
				return Cancelled
			}
		default:
			return Exhausted
		}
	}
}

func (d *Discovery) deliver(h models.Hit, yield func(models.Hit) bool) bool {
	d.mu.Lock()
	d.hits = append(d.hits, h)
	n := len(d.hits)
	d.mu.Unlock()

	metrics.DiscoveryHits.Inc()
	sendProgress(d.progress, foundHitUpdate(n, len(d.candidates), h))
	return yield(h)
}

func (d *Discovery) finish(o Outcome) {
	d.mu.Lock()
	d.outcome = o
	n := len(d.hits)
	d.mu.Unlock()

	metrics.DiscoveryOutcomes.WithLabelValues(o.String()).Inc()
	sendProgress(d.progress, finishedUpdate(o, n))
	d.logger.Info("discovery finished", "outcome", o, "hits", n, "checked", d.checked.Load())
}

// Stop cancels outstanding tasks and ends the stream at its next wake-up.
func (d *Discovery) Stop() {
	d.cancel()
}

// Outcome reports how the stream ended, or [Pending] while it runs.
func (d *Discovery) Outcome() Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.outcome
}

// Collected returns a copy of every hit delivered so far.
func (d *Discovery) Collected() []models.Hit {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.Hit, len(d.hits))
	copy(out, d.hits)
	return out
}

// Collect drains the stream and returns every hit.
func (d *Discovery) Collect() []models.Hit {
	for range d.Hits() {
	}
	return d.Collected()
}

// Candidates returns the number of artists being checked.
func (d *Discovery) Candidates() int {
	return len(d.candidates)
}
