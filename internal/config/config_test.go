package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skylane/internal/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "default", cfg.Airspace.ID)
	assert.Equal(t, config.DefaultSafetyBuffer, cfg.Deconfliction.SafetyBuffer)
	require.NoError(t, cfg.Validate())
}

func TestLoadFallsBackToDefault(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSafetyBuffer, cfg.Deconfliction.SafetyBuffer)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	yml := `airspace:
  id: test-zone
deconfliction:
  safety_buffer: 12.5
webhooks:
  - url: https://example.com/hook
    events: [check.completed]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skylane.yml"), []byte(yml), 0o644))
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "test-zone", cfg.Airspace.ID)
	assert.Equal(t, 12.5, cfg.Deconfliction.SafetyBuffer)
	require.Len(t, cfg.Webhooks, 1)
	assert.Equal(t, []string{"check.completed"}, cfg.Webhooks[0].Events)
}

func TestFromYAMLValidation(t *testing.T) {
	_, err := config.FromYAML([]byte("airspace:\n  id: \"\"\n"))
	assert.Error(t, err)

	_, err = config.FromYAML([]byte("deconfliction:\n  safety_buffer: -1\n"))
	assert.Error(t, err)

	_, err = config.FromYAML([]byte("webhooks:\n  - url: \"\"\n"))
	assert.Error(t, err)

	_, err = config.FromYAML([]byte("not: [valid"))
	assert.Error(t, err)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skylane.yml")
	require.NoError(t, config.WriteDefault(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	cfg, err := config.FromYAML(data)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSafetyBuffer, cfg.Deconfliction.SafetyBuffer)
}
