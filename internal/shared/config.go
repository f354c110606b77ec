package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Discovery   DiscoveryConfig   `toml:"discovery"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	LastFM  LastFMConfig  `toml:"lastfm"`
	YouTube YouTubeConfig `toml:"youtube"`
}

// LastFMConfig contains Last.fm API credentials and client limits.
type LastFMConfig struct {
	APIKey    string  `toml:"api_key"`
	Secret    string  `toml:"secret"`
	RateLimit float64 `toml:"rate_limit"`
}

// YouTubeConfig contains YouTube Data API credentials.
//
// AccessToken is optional; when set requests carry an OAuth bearer token in addition to the key.
type YouTubeConfig struct {
	APIKey      string `toml:"api_key"`
	AccessToken string `toml:"access_token"`
	BaseURL     string `toml:"base_url"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// DiscoveryConfig tunes the fetch orchestrator and the playlist it feeds.
type DiscoveryConfig struct {
	Concurrency    int    `toml:"concurrency"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
	MaxMisses      int    `toml:"max_misses"`
	TopTrackCount  int    `toml:"top_track_count"`
	Playlist       string `toml:"playlist"`
	PlaylistLength int    `toml:"playlist_length"`
	LogFile        string `toml:"log_file"`
}

// PollInterval returns the configured poll timeout as a [time.Duration].
func (d DiscoveryConfig) PollInterval() time.Duration {
	return time.Duration(d.PollIntervalMS) * time.Millisecond
}

// Addr returns the host:port pair the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep their defaults from the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays credentials and paths from ONEHIT_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("ONEHIT_LASTFM_API_KEY"); v != "" {
		c.Credentials.LastFM.APIKey = v
	}
	if v := os.Getenv("ONEHIT_LASTFM_SECRET"); v != "" {
		c.Credentials.LastFM.Secret = v
	}
	if v := os.Getenv("ONEHIT_YOUTUBE_API_KEY"); v != "" {
		c.Credentials.YouTube.APIKey = v
	}
	if v := os.Getenv("ONEHIT_YOUTUBE_ACCESS_TOKEN"); v != "" {
		c.Credentials.YouTube.AccessToken = v
	}
	if v := os.Getenv("ONEHIT_DATABASE_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("ONEHIT_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Discovery.Concurrency = n
		}
	}
}

// Validate reports whether the credentials needed to reach external services are present.
func (c *Config) Validate() error {
	if c.Credentials.LastFM.APIKey == "" || c.Credentials.LastFM.APIKey == "your_lastfm_api_key" {
		return fmt.Errorf("%w: lastfm api_key", ErrMissingCredentials)
	}
	if c.Credentials.YouTube.APIKey == "" || c.Credentials.YouTube.APIKey == "your_youtube_api_key" {
		return fmt.Errorf("%w: youtube api_key", ErrMissingCredentials)
	}
	if c.Discovery.Concurrency <= 0 || c.Discovery.MaxMisses <= 0 || c.Discovery.PollIntervalMS <= 0 {
		return fmt.Errorf("%w: discovery limits must be positive", ErrInvalidConfig)
	}
	return nil
}
