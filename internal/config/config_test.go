package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"linkcycle/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `
app:
  name: linkcycle
  mode: production
server:
  port: 9090
shortener:
  base_url: https://sho.rt
  code_length: 8
  inactivity_days: 7
  max_attempts: 5
  sweep_interval_minutes: 60
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Mode)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://sho.rt", cfg.Shortener.BaseURL)
	assert.Equal(t, 8, cfg.Shortener.CodeLength)
	assert.Equal(t, 7, cfg.Shortener.InactivityDays)
	assert.Equal(t, 5, cfg.Shortener.MaxAttempts)
	assert.Equal(t, 7*24*time.Hour, cfg.Shortener.InactivityThreshold())
	assert.Equal(t, time.Hour, cfg.Shortener.SweepInterval())
}

func TestLoad_ShortenerDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultCodeLength, cfg.Shortener.CodeLength)
	assert.Equal(t, config.DefaultAlphabet, cfg.Shortener.Alphabet)
	assert.Equal(t, config.DefaultInactivityDays, cfg.Shortener.InactivityDays)
	assert.Equal(t, config.DefaultMaxAttempts, cfg.Shortener.MaxAttempts)
	assert.Equal(t, config.DefaultSweepIntervalMinutes, cfg.Shortener.SweepIntervalMinutes)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load("does/not/exist.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a map")
	_, err := config.Load(path)
	assert.Error(t, err)
}
