package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Search modes.
const (
	// ModeRemote sends the committed query to the endpoint and renders the
	// hits as returned.
	ModeRemote = "remote"
	// ModeLocal fetches SeedQuery once and filters titles locally by the
	// draft as it is typed.
	ModeLocal = "local"
)

// Config is the persistent application configuration
type Config struct {
	Search  SearchConfig  `json:"search"`
	Storage StorageConfig `json:"storage"`
	UI      UIConfig      `json:"ui"`
	Metrics MetricsConfig `json:"metrics"`
	Log     LogConfig     `json:"log"`
}

// SearchConfig configures the remote search call.
type SearchConfig struct {
	Endpoint          string  `json:"endpoint"`
	Mode              string  `json:"mode"`       // "remote" or "local"
	SeedQuery         string  `json:"seed_query"` // local mode only
	TimeoutSeconds    int     `json:"timeout_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"` // 0 = unlimited
}

// StorageConfig locates the key-value database.
type StorageConfig struct {
	DBPath   string `json:"db_path"`
	QueryKey string `json:"query_key"`
}

// UIConfig holds UI preferences
type UIConfig struct {
	DefaultQuery string `json:"default_query"`
	AltScreen    bool   `json:"alt_screen"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `json:"addr"`
}

// LogConfig controls file logging.
type LogConfig struct {
	Level string `json:"level"`
	Dir   string `json:"dir"`
}

// DataDir returns ~/.stories, or ./.stories if the home directory is unknown.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stories"
	}
	return filepath.Join(home, ".stories")
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	dir := DataDir()
	return &Config{
		Search: SearchConfig{
			Endpoint:          "https://hn.algolia.com/api/v1/search",
			Mode:              ModeRemote,
			SeedQuery:         "React",
			TimeoutSeconds:    30,
			RequestsPerSecond: 2,
		},
		Storage: StorageConfig{
			DBPath:   filepath.Join(dir, "stories.db"),
			QueryKey: "search",
		},
		UI: UIConfig{
			DefaultQuery: "React",
			AltScreen:    true,
		},
		Log: LogConfig{
			Level: "info",
			Dir:   filepath.Join(dir, "logs"),
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.json")
}

// Load reads config from ConfigPath. See LoadFrom.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads config from path, or returns defaults when the file does
// not exist. Fields missing from the file keep their defaults. Environment
// overrides are applied last.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// Save writes config to path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides fields from STORIES_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("STORIES_ENDPOINT"); v != "" {
		c.Search.Endpoint = v
	}
	if v := os.Getenv("STORIES_MODE"); v != "" {
		c.Search.Mode = strings.ToLower(v)
	}
	if v := os.Getenv("STORIES_DB"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("STORIES_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("STORIES_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Search.Mode {
	case ModeRemote, ModeLocal:
	default:
		return fmt.Errorf("search.mode: unknown mode %q", c.Search.Mode)
	}
	if c.Search.TimeoutSeconds <= 0 {
		return fmt.Errorf("search.timeout_seconds: must be positive, got %d", c.Search.TimeoutSeconds)
	}
	u, err := url.Parse(c.Search.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("search.endpoint: invalid URL %q", c.Search.Endpoint)
	}
	if c.Storage.QueryKey == "" {
		return errors.New("storage.query_key: must not be empty")
	}
	return nil
}
