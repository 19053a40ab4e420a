package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBlake3Hash(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_dir: /srv\n"), 0o644))

	hash1, err := ComputeBlake3Hash(path)
	require.NoError(t, err)
	assert.Len(t, hash1, 64)

	hash2, err := ComputeBlake3Hash(path)
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2, "hash must be deterministic")

	require.NoError(t, os.WriteFile(path, []byte("default_dir: /tmp\n"), 0o644))
	hash3, err := ComputeBlake3Hash(path)
	require.NoError(t, err)
	assert.NotEqual(t, hash1, hash3)
}

func TestComputeBlake3Hash_MissingFile(t *testing.T) {
	_, err := ComputeBlake3Hash(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestVerifyFileHash(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("transport: stdio\n"), 0o644))

	hash, err := ComputeBlake3Hash(path)
	require.NoError(t, err)

	assert.NoError(t, VerifyFileHash(path, hash))
	assert.NoError(t, VerifyFileHash(path, " "+strings.ToUpper(hash)+"\n"))

	err = VerifyFileHash(path, strings.Repeat("0", 64))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hash mismatch for config.yaml")
}

func TestLoadFingerprintMatchesFileHash(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_timeout: 10\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	hash, err := ComputeBlake3Hash(path)
	require.NoError(t, err)
	assert.Equal(t, hash, cfg.Fingerprint)
}
