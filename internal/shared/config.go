package shared

import (
	_ "embed"
	"fmt"
	"net"
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
	Lavalink    LavalinkConfig    `toml:"lavalink"`
	Matching    MatchingConfig    `toml:"matching"`
	HTTP        HTTPConfig        `toml:"http"`
	Cache       CacheConfig       `toml:"cache"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify client-credentials settings.
type SpotifyConfig struct {
	ClientID          string `toml:"client_id"`
	ClientSecret      string `toml:"client_secret"`
	TokenURL          string `toml:"token_url"`
	APIURL            string `toml:"api_url"`
	RetryDelaySeconds int    `toml:"retry_delay_seconds"`
}

// RetryDelay is the wait before retrying a background renewal that failed in transport.
func (s SpotifyConfig) RetryDelay() time.Duration {
	if s.RetryDelaySeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.RetryDelaySeconds) * time.Second
}

// LavalinkConfig identifies the audio node queried for candidates.
type LavalinkConfig struct {
	Host              string  `toml:"host"`
	Port              int     `toml:"port"`
	Password          string  `toml:"password"`
	Secure            bool    `toml:"secure"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// BaseURL returns the node's http(s)://host:port root.
func (l LavalinkConfig) BaseURL() string {
	scheme := "http"
	if l.Secure {
		scheme = "https"
	}
	return scheme + "://" + net.JoinHostPort(l.Host, strconv.Itoa(l.Port))
}

// MatchingConfig holds the default selection policy used by the CLI and server.
type MatchingConfig struct {
	PrioritizeSameDuration bool   `toml:"prioritize_same_duration"`
	ExcludeVariants        bool   `toml:"exclude_variants"`
	RequireArtist          bool   `toml:"require_artist"`
	Sort                   string `toml:"sort"`
	Concurrency            int    `toml:"concurrency"`
}

// HTTPConfig contains outbound HTTP client settings.
type HTTPConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Timeout returns the client timeout; zero means no timeout.
func (h HTTPConfig) Timeout() time.Duration {
	if h.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// CacheConfig sizes the in-memory catalog cache. Zero disables it.
type CacheConfig struct {
	CatalogSize int `toml:"catalog_size"`
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

// Addr returns host:port for [http.Server].
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys absent from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
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

// Validate checks the settings required to talk to Spotify and the audio node.
func (c *Config) Validate() error {
	if c.Credentials.Spotify.ClientID == "" || c.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret must be set", ErrMissingCredentials)
	}
	if c.Lavalink.Host == "" {
		return fmt.Errorf("%w: lavalink host must be set", ErrInvalidConfig)
	}
	if c.Lavalink.Port <= 0 || c.Lavalink.Port > 65535 {
		return fmt.Errorf("%w: lavalink port %d out of range", ErrInvalidConfig, c.Lavalink.Port)
	}
	if c.Lavalink.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: lavalink requests_per_second must not be negative", ErrInvalidConfig)
	}
	if c.Matching.Concurrency < 0 {
		return fmt.Errorf("%w: matching concurrency must not be negative", ErrInvalidConfig)
	}
	switch c.Matching.Sort {
	case "", "none", "duration":
	default:
		return fmt.Errorf("%w: unknown matching sort %q", ErrInvalidConfig, c.Matching.Sort)
	}
	return nil
}
