package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_FullFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeConfig(t, tmpDir, `
default_dir: /srv/work
allowed_dirs:
  - /srv/work
  - /tmp
default_timeout: 45
transport: http
http:
  listen: 127.0.0.1:9999
log:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/work", cfg.DefaultDir)
	assert.Equal(t, []string{"/srv/work", "/tmp"}, cfg.AllowedDirs)
	assert.Equal(t, 45, cfg.DefaultTimeout)
	assert.Equal(t, TransportHTTP, cfg.Transport)
	assert.Equal(t, "127.0.0.1:9999", cfg.HTTP.Listen)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.AllowAll())
	assert.Equal(t, path, cfg.SourcePath)
	assert.Len(t, cfg.Fingerprint, 64)

	require.NoError(t, cfg.Finalize())
}

func TestLoad_KeepsDefaultsForMissingKeys(t *testing.T) {
	cfg, err := Load(writeConfig(t, t.TempDir(), "default_dir: /srv\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultTimeoutSeconds, cfg.DefaultTimeout)
	assert.Equal(t, TransportStdio, cfg.Transport)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.AllowAll())
}

func TestLoad_DirectoryLooksForConfigYAML(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, "default_timeout: 5\n")

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.DefaultTimeout)
}

func TestLoad_EnvInterpolation(t *testing.T) {
	t.Setenv("EXECDIR_TEST_ROOT", "/data/projects")

	cfg, err := Load(writeConfig(t, t.TempDir(), `
default_dir: ${EXECDIR_TEST_ROOT}
allowed_dirs: ["${EXECDIR_TEST_ROOT}"]
`))
	require.NoError(t, err)
	assert.Equal(t, "/data/projects", cfg.DefaultDir)
	assert.Equal(t, []string{"/data/projects"}, cfg.AllowedDirs)
}

func TestLoad_UnsetEnvFailsValidation(t *testing.T) {
	cfg, err := Load(writeConfig(t, t.TempDir(), `
default_dir: /srv
allowed_dirs: ["${EXECDIR_DEFINITELY_UNSET_VAR}"]
`))
	require.NoError(t, err)

	err = cfg.Finalize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXECDIR_DEFINITELY_UNSET_VAR")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")

	_, err = Load(writeConfig(t, t.TempDir(), "allowed_dirs: [unterminated\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestFinalize_DefaultDirFallsBackToWorkingDir(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	cfg := Defaults()
	require.NoError(t, cfg.Finalize())
	assert.Equal(t, wd, cfg.DefaultDir)
}

func TestFinalize_MakesDefaultDirAbsolute(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	cfg := Defaults()
	cfg.DefaultDir = "sub"
	require.NoError(t, cfg.Finalize())
	assert.Equal(t, filepath.Join(wd, "sub"), cfg.DefaultDir)
}

func TestFinalize_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.DefaultTimeout = -1 },
			wantErr: "default_timeout",
		},
		{
			name:    "timeout beyond duration range",
			mutate:  func(c *Config) { c.DefaultTimeout = int(MaxTimeoutSeconds) + 1 },
			wantErr: "default_timeout must be at most",
		},
		{
			name:    "unknown transport",
			mutate:  func(c *Config) { c.Transport = "grpc" },
			wantErr: "transport",
		},
		{
			name: "http without listen",
			mutate: func(c *Config) {
				c.Transport = TransportHTTP
				c.HTTP.Listen = ""
			},
			wantErr: "http.listen",
		},
		{
			name:    "unresolved api key",
			mutate:  func(c *Config) { c.HTTP.APIKey = "${EXECDIR_UNSET_KEY}" },
			wantErr: "http.api_key",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "trace" },
			wantErr: "log.level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log.format",
		},
		{
			name:    "empty allowed dir",
			mutate:  func(c *Config) { c.AllowedDirs = []string{"/tmp", " "} },
			wantErr: "allowed_dirs[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.DefaultDir = "/srv"
			tt.mutate(cfg)

			err := cfg.Finalize()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFinalize_ZeroTimeoutUsesDefault(t *testing.T) {
	cfg := Defaults()
	cfg.DefaultDir = "/srv"
	cfg.DefaultTimeout = 0
	cfg.Transport = "STDIO"

	require.NoError(t, cfg.Finalize())
	assert.Equal(t, DefaultTimeoutSeconds, cfg.DefaultTimeout)
	assert.Equal(t, TransportStdio, cfg.Transport)
}
