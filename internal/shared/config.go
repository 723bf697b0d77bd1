package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that take precedence over values from the TOML file.
const (
	EnvJWTSecret      = "OLP_JWT_SECRET"
	EnvFirestoreToken = "OLP_FIRESTORE_TOKEN"
	EnvPostgresDSN    = "OLP_POSTGRES_DSN"
	EnvLogLevel       = "OLP_LOG_LEVEL"
)

// Progress store backends.
const (
	StoreSQLite    = "sqlite"
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	LogLevel  string          `toml:"log_level"`
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
	Progress  ProgressConfig  `toml:"progress"`
	Auth      AuthConfig      `toml:"auth"`
	Firestore FirestoreConfig `toml:"firestore"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Tasks     TasksConfig     `toml:"tasks"`
	YouTube   YouTubeConfig   `toml:"youtube"`
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

	// Trackers bounds the per-learner tracker cache; TrackerIdle expires unused entries.
	Trackers    int           `toml:"trackers"`
	TrackerIdle time.Duration `toml:"tracker_idle"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ProgressConfig selects the progress store backend, the progress formula and the persistence timeout.
type ProgressConfig struct {
	Store   string        `toml:"store"`
	Mode    string        `toml:"mode"`
	Timeout time.Duration `toml:"timeout"`
}

// AuthConfig contains session token settings.
type AuthConfig struct {
	JWTSecret string        `toml:"jwt_secret"`
	Issuer    string        `toml:"issuer"`
	TokenTTL  time.Duration `toml:"token_ttl"`
}

// FirestoreConfig contains settings for the Firestore REST progress store.
type FirestoreConfig struct {
	BaseURL           string  `toml:"base_url"`
	ProjectID         string  `toml:"project_id"`
	DatabaseID        string  `toml:"database_id"`
	Collection        string  `toml:"collection"`
	AccessToken       string  `toml:"access_token"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// PostgresConfig contains the connection string for the Postgres progress store.
type PostgresConfig struct {
	DSN string `toml:"dsn"`
}

// TasksConfig contains worker pool settings for bulk operations.
type TasksConfig struct {
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"`
}

// YouTubeConfig contains the oEmbed endpoint used for video metadata lookups.
type YouTubeConfig struct {
	OEmbedURL string `toml:"oembed_url"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
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

// LoadEnv loads variables from the given dotenv files into the process environment.
//
// Missing files are skipped; variables already set are never overwritten.
func LoadEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides secrets and the log level from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvJWTSecret); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv(EnvFirestoreToken); v != "" {
		c.Firestore.AccessToken = v
	}
	if v := os.Getenv(EnvPostgresDSN); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Progress.Store {
	case StoreSQLite, StoreFirestore, StorePostgres:
	default:
		return fmt.Errorf("%w: unknown progress store %q", ErrInvalidConfig, c.Progress.Store)
	}

	switch c.Progress.Mode {
	case "including_intro", "excluding_intro":
	default:
		return fmt.Errorf("%w: unknown progress mode %q", ErrInvalidConfig, c.Progress.Mode)
	}

	if c.Progress.Timeout < 0 {
		return fmt.Errorf("%w: negative progress timeout", ErrInvalidConfig)
	}

	if c.Server.Trackers < 0 || c.Server.TrackerIdle < 0 {
		return fmt.Errorf("%w: negative tracker cache settings", ErrInvalidConfig)
	}

	return nil
}

// ProgressTimeout returns the per-call persistence timeout, defaulting to 10s.
func (c *Config) ProgressTimeout() time.Duration {
	if c.Progress.Timeout <= 0 {
		return 10 * time.Second
	}
	return c.Progress.Timeout
}
