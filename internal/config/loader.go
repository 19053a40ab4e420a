package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads a YAML configuration file on top of Defaults. The returned
// config still needs Finalize once command-line overrides are applied.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}
	if info.IsDir() {
		absPath = filepath.Join(absPath, "config.yaml")
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(interpolateEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.SourcePath = absPath
	cfg.Fingerprint = hashBytes(data)
	return cfg, nil
}

// Finalize fills derived defaults and validates the configuration. After
// Finalize the config is treated as read-only.
func (c *Config) Finalize() error {
	if strings.TrimSpace(c.DefaultDir) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
		c.DefaultDir = wd
	}

	abs, err := filepath.Abs(c.DefaultDir)
	if err != nil {
		return fmt.Errorf("resolve default_dir %q: %w", c.DefaultDir, err)
	}
	c.DefaultDir = abs

	if c.DefaultTimeout == 0 {
		c.DefaultTimeout = DefaultTimeoutSeconds
	}
	if c.Transport == "" {
		c.Transport = TransportStdio
	}
	c.Transport = strings.ToLower(c.Transport)

	return validate(c)
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}

		// If not found, leave the placeholder (will fail validation)
		return match
	})
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	if cfg.DefaultTimeout < 0 {
		return fmt.Errorf("default_timeout must be positive (got %d)", cfg.DefaultTimeout)
	}
	if int64(cfg.DefaultTimeout) > MaxTimeoutSeconds {
		return fmt.Errorf("default_timeout must be at most %d seconds (got %d)", MaxTimeoutSeconds, cfg.DefaultTimeout)
	}

	if cfg.Transport != TransportStdio && cfg.Transport != TransportHTTP {
		return fmt.Errorf("transport must be one of: stdio, http (got %q)", cfg.Transport)
	}
	if cfg.Transport == TransportHTTP && strings.TrimSpace(cfg.HTTP.Listen) == "" {
		return fmt.Errorf("http.listen is required when transport is http")
	}
	if envVarPattern.MatchString(cfg.HTTP.APIKey) {
		return fmt.Errorf("http.api_key: environment variable ${%s} is not set",
			envVarPattern.FindStringSubmatch(cfg.HTTP.APIKey)[1])
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error (got %q)", cfg.Log.Level)
	}
	if f := strings.ToLower(cfg.Log.Format); f != "json" && f != "text" {
		return fmt.Errorf("log.format must be one of: json, text (got %q)", cfg.Log.Format)
	}

	if envVarPattern.MatchString(cfg.DefaultDir) {
		return fmt.Errorf("default_dir: environment variable ${%s} is not set",
			envVarPattern.FindStringSubmatch(cfg.DefaultDir)[1])
	}
	for i, dir := range cfg.AllowedDirs {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("allowed_dirs[%d] is empty", i)
		}
		if envVarPattern.MatchString(dir) {
			return fmt.Errorf("allowed_dirs[%d]: environment variable ${%s} is not set",
				i, envVarPattern.FindStringSubmatch(dir)[1])
		}
	}

	return nil
}
