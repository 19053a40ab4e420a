package config

import (
	"math"
	"time"
)

// Config represents the complete execdir configuration.
type Config struct {
	DefaultDir     string     `yaml:"default_dir"`
	AllowedDirs    []string   `yaml:"allowed_dirs,omitempty"`
	DefaultTimeout int        `yaml:"default_timeout"` // seconds
	Transport      string     `yaml:"transport"`       // stdio | http
	HTTP           HTTPConfig `yaml:"http,omitempty"`
	Log            LogConfig  `yaml:"log"`

	// Populated by Load, never read from YAML.
	SourcePath  string `yaml:"-"`
	Fingerprint string `yaml:"-"`
}

// HTTPConfig defines the optional HTTP transport settings.
type HTTPConfig struct {
	Listen string `yaml:"listen"`
	// APIKey, when set, is required as a bearer token on POST /rpc.
	APIKey string `yaml:"api_key,omitempty"`
}

// LogConfig defines diagnostic logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | text
}

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"

	// DefaultTimeoutSeconds applies when a tool call omits its timeout.
	DefaultTimeoutSeconds = 30

	// MaxTimeoutSeconds is the largest timeout a time.Duration can carry.
	MaxTimeoutSeconds int64 = math.MaxInt64 / int64(time.Second)
)

// AllowAll reports whether every directory is permitted, which is the case
// exactly when no allowed directories are configured.
func (c *Config) AllowAll() bool {
	return len(c.AllowedDirs) == 0
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		DefaultDir:     "",
		DefaultTimeout: DefaultTimeoutSeconds,
		Transport:      TransportStdio,
		HTTP: HTTPConfig{
			Listen: "127.0.0.1:8787",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
