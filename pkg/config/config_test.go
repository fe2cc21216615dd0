package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, -1000.0, cfg.Window.MinHU)
	assert.Equal(t, 400.0, cfg.Window.MaxHU)
	assert.Equal(t, 64, cfg.Patch.TargetSize)
	assert.Equal(t, int64(100*1024*1024), cfg.Upload.MaxSizeBytes)
	assert.Equal(t, []string{".nii", ".nii.gz", ".dcm", ".dicom", ".tcia"},
		cfg.Upload.AllowedExtensions)
	assert.Greater(t, cfg.Processing.NumCores, 0)
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Window, cfg.Window)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("patch:\n  targetSize: 32\nprocessing:\n  numCores: 2\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.Patch.TargetSize)
	assert.Equal(t, 2, cfg.Processing.NumCores)
	// Untouched sections keep their defaults
	assert.Equal(t, -1000.0, cfg.Window.MinHU)
}

func TestSaveAndReloadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Patch.TargetSize = 48
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 48, loaded.Patch.TargetSize)
	assert.Equal(t, cfg.Upload.AllowedExtensions, loaded.Upload.AllowedExtensions)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
