package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aesdsocketd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \"127.0.0.1:9001\"\nring_capacity: 20\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9001", cfg.ListenAddr)
	require.Equal(t, 20, cfg.RingCapacity)
	require.Equal(t, BackendRing, cfg.Backend, "unset fields keep their default")
}

func TestLoadRejectsInvalidBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aesdsocketd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: nonsense\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsZeroRingCapacity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aesdsocketd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ring_capacity: 0\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
