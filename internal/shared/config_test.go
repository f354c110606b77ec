package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./onehit.db" {
			t.Errorf("expected database path ./onehit.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 5000 {
			t.Errorf("expected server port 5000, got %d", config.Server.Port)
		}

		if config.Discovery.Concurrency != 10 {
			t.Errorf("expected concurrency 10, got %d", config.Discovery.Concurrency)
		}

		if config.Discovery.MaxMisses != 30 {
			t.Errorf("expected max misses 30, got %d", config.Discovery.MaxMisses)
		}

		if got := config.Discovery.PollInterval(); got != time.Second {
			t.Errorf("expected poll interval 1s, got %v", got)
		}

		if config.Discovery.PlaylistLength != 50 {
			t.Errorf("expected playlist length 50, got %d", config.Discovery.PlaylistLength)
		}

		if config.Credentials.YouTube.BaseURL != "https://www.googleapis.com/youtube/v3" {
			t.Errorf("unexpected youtube base url %s", config.Credentials.YouTube.BaseURL)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig keeps defaults for missing keys", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
port = 8080

[credentials.lastfm]
api_key = "test_lastfm_key"

[discovery]
max_misses = 5
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}
		if config.Server.Host != "127.0.0.1" {
			t.Errorf("expected default host to survive, got %s", config.Server.Host)
		}
		if config.Credentials.LastFM.APIKey != "test_lastfm_key" {
			t.Errorf("expected lastfm key test_lastfm_key, got %s", config.Credentials.LastFM.APIKey)
		}
		if config.Discovery.MaxMisses != 5 || config.Discovery.Concurrency != 10 {
			t.Errorf("unexpected discovery config %+v", config.Discovery)
		}
	})

	t.Run("LoadConfig rejects malformed toml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[server\nport = "), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("ONEHIT_LASTFM_API_KEY", "env-lastfm")
		t.Setenv("ONEHIT_YOUTUBE_API_KEY", "env-youtube")
		t.Setenv("ONEHIT_DATABASE_PATH", "/tmp/env.db")
		t.Setenv("ONEHIT_CONCURRENCY", "4")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.Credentials.LastFM.APIKey != "env-lastfm" {
			t.Errorf("expected env-lastfm, got %s", config.Credentials.LastFM.APIKey)
		}
		if config.Credentials.YouTube.APIKey != "env-youtube" {
			t.Errorf("expected env-youtube, got %s", config.Credentials.YouTube.APIKey)
		}
		if config.Database.Path != "/tmp/env.db" {
			t.Errorf("expected /tmp/env.db, got %s", config.Database.Path)
		}
		if config.Discovery.Concurrency != 4 {
			t.Errorf("expected concurrency 4, got %d", config.Discovery.Concurrency)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		if err := config.Validate(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("placeholder credentials should fail validation, got %v", err)
		}

		config.Credentials.LastFM.APIKey = "k"
		config.Credentials.YouTube.APIKey = "k"
		if err := config.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}

		config.Discovery.MaxMisses = 0
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
