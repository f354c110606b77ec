package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/onehit/internal/formatter"
	"github.com/desertthunder/onehit/internal/models"
	"github.com/desertthunder/onehit/internal/server"
	"github.com/desertthunder/onehit/internal/shared"
)

// Discover streams one-hit wonders for a query and prints them in the chosen format.
func (r *Runner) Discover(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	engine, err := r.discoveryEngine()
	if err != nil {
		return err
	}
	defer r.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := engine.DiscoverQuery(ctx, query, nil)
	if err != nil {
		return err
	}

	for h := range d.Hits() {
		r.logger.Info("found hit", "name", h.Name, "youtube_id", h.YoutubeID)
	}
	hits := d.Collected()
	r.logger.Info("discovery finished", "outcome", d.Outcome(), "hits", len(hits), "candidates", d.Candidates())

	if cmd.Bool("save") {
		if err := engine.SaveHits(context.WithoutCancel(ctx), hits); err != nil {
			r.logger.Warn("some hits were not saved", "error", err)
		}
	}

	if output := cmd.String("output"); output != "" {
		path, err := formatter.WriteExport(hits, output, format)
		if err != nil {
			return err
		}
		return r.writePlain("Wrote %d hits to %s\n", len(hits), path)
	}
	return formatter.WriteHits(r.output, hits, format)
}

// Candidates lists the artists a query resolves to without checking them for hits.
func (r *Runner) Candidates(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	engine, err := r.discoveryEngine()
	if err != nil {
		return err
	}
	defer r.Close()

	artists, err := engine.ResolveCandidates(ctx, query, nil)
	if err != nil {
		return err
	}

	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}

	if cmd.Bool("json") {
		return r.writeJSON(names, true)
	}

	r.writePlain("%d candidates for %q\n", len(names), query)
	for i, name := range names {
		r.writePlain("%3d. %s\n", i+1, name)
	}
	return nil
}

// PlaylistList prints the stored playlist, newest first or shuffled with the newest item kept on top.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	engine, err := r.discoveryEngine()
	if err != nil {
		return err
	}
	defer r.Close()

	var hits []models.Hit
	if cmd.Bool("shuffle") {
		hits, err = engine.PlaylistShuffled(ctx)
	} else {
		hits, err = engine.PlaylistList(ctx)
	}
	if err != nil {
		return err
	}
	return formatter.WriteHits(r.output, hits, format)
}

// PlaylistAdd pushes a single item onto the stored playlist.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	hit := models.Hit{
		Name:         cmd.String("name"),
		YoutubeID:    cmd.String("id"),
		ThumbnailURL: cmd.String("thumbnail"),
	}
	if err := hit.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	engine, err := r.discoveryEngine()
	if err != nil {
		return err
	}
	defer r.Close()

	if err := engine.PlaylistAdd(ctx, hit); err != nil {
		return err
	}
	return r.writePlain("Added %s (%s)\n", hit.Name, formatter.WatchURL(hit.YoutubeID))
}

// Broken records a video that failed to play, or lists the reports with --list.
func (r *Runner) Broken(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	engine, err := r.discoveryEngine()
	if err != nil {
		return err
	}
	defer r.Close()

	if cmd.Bool("list") {
		tracks, err := engine.BrokenTracks(ctx)
		if err != nil {
			return err
		}
		data, err := formatter.BrokenTracksTable(tracks)
		if err != nil {
			return err
		}
		return r.writeBytes(data)
	}

	videoID, name := cmd.StringArg("id"), cmd.StringArg("name")
	if err := engine.MarkBroken(ctx, videoID, name); err != nil {
		return err
	}
	return r.writePlain("Marked %s as broken\n", videoID)
}

// Stats fetches entity counts from a running server, since counts only cover what one process has seen.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	base := cmd.String("server")
	if base == "" {
		base = "http://" + r.config.Server.Addr()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/stats", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: is the server running at %s? %v", shared.ErrServiceUnavailable, base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var stats models.Stats
	if err := decodeBody(resp, &stats); err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}
	data, err := formatter.StatsTable(stats)
	if err != nil {
		return err
	}
	return r.writeBytes(data)
}

// Serve runs the HTTP service until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	engine, err := r.discoveryEngine()
	if err != nil {
		return err
	}
	defer r.Close()

	addr := r.config.Server.Addr()
	if a := cmd.String("addr"); a != "" {
		addr = a
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cmd.Bool("open") {
		go func() {
			time.Sleep(500 * time.Millisecond)
			if err := shared.OpenBrowser("http://" + addr + "/playlist"); err != nil {
				r.logger.Warn("failed to open browser", "error", err)
			}
		}()
	}

	return server.Run(ctx, addr, server.New(engine, r.logger), r.logger)
}

func decodeBody(resp *http.Response, v any) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := shared.UnmarshalJSON(data, v); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidPayload, err)
	}
	return nil
}
