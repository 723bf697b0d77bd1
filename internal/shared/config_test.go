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

		if config.Database.Path != "./olp.db" {
			t.Errorf("expected database path ./olp.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Progress.Store != StoreSQLite {
			t.Errorf("expected sqlite progress store, got %s", config.Progress.Store)
		}

		if config.Progress.Timeout != 10*time.Second {
			t.Errorf("expected 10s timeout, got %v", config.Progress.Timeout)
		}

		if config.Auth.TokenTTL != 24*time.Hour {
			t.Errorf("expected 24h token ttl, got %v", config.Auth.TokenTTL)
		}

		if config.Server.Trackers != 1024 || config.Server.TrackerIdle != 30*time.Minute {
			t.Errorf("unexpected tracker cache settings %d/%v", config.Server.Trackers, config.Server.TrackerIdle)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
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

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080

[progress]
store = "firestore"
mode = "excluding_intro"
timeout = "3s"
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
		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}
		if config.Progress.Mode != "excluding_intro" {
			t.Errorf("expected excluding_intro mode, got %s", config.Progress.Mode)
		}
		if config.ProgressTimeout() != 3*time.Second {
			t.Errorf("expected 3s timeout, got %v", config.ProgressTimeout())
		}
		if config.Tasks.Workers != 5 {
			t.Errorf("expected unset keys to keep defaults, got %d workers", config.Tasks.Workers)
		}
	})

	t.Run("LoadConfig rejects unknown store", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[progress]\nstore = \"redis\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Validate rejects negative tracker cache", func(t *testing.T) {
		config := DefaultConfig()
		config.Server.TrackerIdle = -time.Second
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("ProgressTimeout defaults", func(t *testing.T) {
		config := DefaultConfig()
		config.Progress.Timeout = 0
		if config.ProgressTimeout() != 10*time.Second {
			t.Errorf("expected 10s default, got %v", config.ProgressTimeout())
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv(EnvJWTSecret, "from-env")
		t.Setenv(EnvPostgresDSN, "postgres://localhost/olp")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.Auth.JWTSecret != "from-env" {
			t.Errorf("expected jwt secret from env, got %s", config.Auth.JWTSecret)
		}
		if config.Postgres.DSN != "postgres://localhost/olp" {
			t.Errorf("expected dsn from env, got %s", config.Postgres.DSN)
		}
	})

	t.Run("LoadEnv", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("OLP_TEST_LOAD_ENV=loaded\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("OLP_TEST_LOAD_ENV") })

		if err := LoadEnv(filepath.Join(t.TempDir(), "missing.env"), envPath); err != nil {
			t.Fatalf("LoadEnv failed: %v", err)
		}

		if got := os.Getenv("OLP_TEST_LOAD_ENV"); got != "loaded" {
			t.Errorf("expected variable to be loaded, got %q", got)
		}
	})
}
