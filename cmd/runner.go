package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/onehit/internal/catalog"
	"github.com/desertthunder/onehit/internal/repositories"
	"github.com/desertthunder/onehit/internal/services"
	"github.com/desertthunder/onehit/internal/shared"
	"github.com/desertthunder/onehit/internal/store"
	"github.com/desertthunder/onehit/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The discovery engine is built on first use so commands that only touch local files never need credentials.
type Runner struct {
	config     *shared.Config
	configPath string
	metadata   services.MetadataService
	video      services.VideoService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	mu     sync.Mutex
	engine *tasks.DiscoveryEngine
	db     *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Metadata and Video replace the Last.fm and YouTube clients; Engine replaces the whole discovery stack.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Metadata   services.MetadataService
	Video      services.VideoService
	Engine     *tasks.DiscoveryEngine
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		metadata:   opts.Metadata,
		video:      opts.Video,
		engine:     opts.Engine,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, discoverCommand, candidatesCommand, tuiCommand, playlistCommand, brokenCommand, statsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and anything it builds afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// discoveryEngine opens the store and builds the catalog, services and engine on first use.
func (r *Runner) discoveryEngine() (*tasks.DiscoveryEngine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine != nil {
		return r.engine, nil
	}

	cfg := r.config
	if r.metadata == nil || r.video == nil {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%w (set credentials in %s or ONEHIT_* variables)", err, r.configName())
		}
	}

	if r.metadata == nil {
		lastfm, err := services.NewLastFMService(cfg.Credentials.LastFM, r.logger)
		if err != nil {
			return nil, err
		}
		r.metadata = lastfm
	}
	if r.video == nil {
		r.video = services.NewYouTubeService(cfg.Credentials.YouTube, r.logger)
	}

	db, err := shared.OpenDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	kv := store.NewSQLiteStore(db)

	cat := catalog.New(kv, r.metadata, r.video, catalog.Options{
		TopTrackCount: cfg.Discovery.TopTrackCount,
		Logger:        r.logger,
	})
	r.engine = tasks.NewDiscoveryEngine(
		cat,
		repositories.NewPlaylistRepository(kv, cfg.Discovery.Playlist, cfg.Discovery.PlaylistLength, r.logger),
		repositories.NewHitRepository(kv),
		tasks.DiscoveryOpts{
			Concurrency:  cfg.Discovery.Concurrency,
			PollInterval: cfg.Discovery.PollInterval(),
			MaxMisses:    cfg.Discovery.MaxMisses,
		},
		r.logger,
	)

	r.logger.Debug("discovery engine ready", "database", cfg.Database.Path, "playlist", cfg.Discovery.Playlist)
	return r.engine, nil
}

// Close releases the database opened by the engine, if any, and drops the engine built on it.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	r.engine = nil
	return err
}

func (r *Runner) configName() string {
	if r.configPath == "" {
		return "config.toml"
	}
	return r.configPath
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
