package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Defaults applied by the getters.
const (
	DefaultRemoteBaseURL   = "http://localhost:8080/api"
	DefaultRemoteTimeout   = 10 * time.Second
	DefaultCacheMaxBytes   = 4_500_000
	DefaultVolume          = 0.7
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultLyricsCacheSize = 128

	appName = "trackvault"
)

type Config struct {
	// DataDir holds the metadata cache and stored files. Empty means the
	// xdg data home.
	DataDir string `koanf:"data_dir"`

	Remote   RemoteConfig   `koanf:"remote"`
	Cache    CacheConfig    `koanf:"cache"`
	Playback PlaybackConfig `koanf:"playback"`
	Log      LogConfig      `koanf:"log"`
	Lyrics   LyricsConfig   `koanf:"lyrics"`
}

// RemoteConfig locates the song catalogue API.
type RemoteConfig struct {
	BaseURL        string `koanf:"base_url"`        // e.g., "http://localhost:8080/api"
	TimeoutSeconds int    `koanf:"timeout_seconds"` // per request (default: 10)
}

// CacheConfig bounds the metadata cache.
type CacheConfig struct {
	MaxBytes int64 `koanf:"max_bytes"` // estimated payload quota (default: 4.5 MB)
}

// PlaybackConfig holds player preferences.
type PlaybackConfig struct {
	Volume *float64 `koanf:"volume"` // 0.0-1.0 (default: 0.7)
}

// LogConfig selects the log handler.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error (default: info)
	Format string `koanf:"format"` // text or json (default: text)
}

// LyricsConfig configures lyrics lookups.
type LyricsConfig struct {
	BaseURL   string `koanf:"base_url"`   // lrclib API root (default: public lrclib)
	CacheSize int    `koanf:"cache_size"` // songs kept in memory (default: 128)
}

// Load reads the config files in priority order, last wins. Missing files
// are skipped.
func Load() (*Config, error) {
	return LoadFrom(getConfigPaths()...)
}

// LoadFrom reads the given files in order, last wins. Missing files are
// skipped.
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.DataDir != "" {
		cfg.DataDir = expandPath(cfg.DataDir)
	}
	cfg.Remote.BaseURL = strings.TrimSuffix(strings.TrimSpace(cfg.Remote.BaseURL), "/")
	cfg.Lyrics.BaseURL = strings.TrimSuffix(strings.TrimSpace(cfg.Lyrics.BaseURL), "/")
	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/trackvault/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName, "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// DataDirectory returns the data directory with the default applied.
func (c *Config) DataDirectory() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return filepath.Join(xdg.DataHome, appName)
}

// CachePath returns the metadata cache database file.
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDirectory(), "cache.db")
}

// BlobRoot returns the directory holding stored audio and cover files.
func (c *Config) BlobRoot() string {
	return filepath.Join(c.DataDirectory(), "files")
}

// LockPath returns the file guarding the data directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDirectory(), appName+".lock")
}

// RemoteBaseURL returns the catalogue API root with the default applied.
func (c *Config) RemoteBaseURL() string {
	if c.Remote.BaseURL == "" {
		return DefaultRemoteBaseURL
	}
	return c.Remote.BaseURL
}

// RemoteTimeout returns the per-request timeout with the default applied.
func (c *Config) RemoteTimeout() time.Duration {
	if c.Remote.TimeoutSeconds <= 0 {
		return DefaultRemoteTimeout
	}
	return time.Duration(c.Remote.TimeoutSeconds) * time.Second
}

// CacheMaxBytes returns the cache quota with the default applied.
func (c *Config) CacheMaxBytes() int64 {
	if c.Cache.MaxBytes <= 0 {
		return DefaultCacheMaxBytes
	}
	return c.Cache.MaxBytes
}

// PlaybackVolume returns the initial volume, clamped to [0, 1].
func (c *Config) PlaybackVolume() float64 {
	if c.Playback.Volume == nil {
		return DefaultVolume
	}
	return max(0, min(*c.Playback.Volume, 1))
}

// GetLogConfig returns the log configuration with defaults applied.
func (c *Config) GetLogConfig() LogConfig {
	cfg := c.Log
	cfg.Level = strings.ToLower(strings.TrimSpace(cfg.Level))
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		cfg.Level = DefaultLogLevel
	}
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	if cfg.Format != "json" {
		cfg.Format = DefaultLogFormat
	}
	return cfg
}

// GetLyricsConfig returns the lyrics configuration with defaults applied.
// An empty BaseURL selects the public lrclib API.
func (c *Config) GetLyricsConfig() LyricsConfig {
	cfg := c.Lyrics
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultLyricsCacheSize
	}
	return cfg
}
