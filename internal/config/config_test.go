package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBackingFile, cfg.BackingFilePath)
	assert.Equal(t, 10*time.Second, cfg.TickInterval())
	assert.Equal(t, DefaultExportPath, cfg.ExportPath)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "smartsos.yaml")
	content := `
backing_file_path: /var/lib/smartsos/data.csv
tick_interval_seconds: 3
export_path: out.xlsx
chart_width: 80
log:
  level: debug
  file: /tmp/smartsos-test.log
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/smartsos/data.csv", cfg.BackingFilePath)
	assert.Equal(t, 3*time.Second, cfg.TickInterval())
	assert.Equal(t, "out.xlsx", cfg.ExportPath)
	assert.Equal(t, 80, cfg.ChartWidth)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/smartsos-test.log", cfg.Log.File)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SMARTSOS_TICK_INTERVAL_SECONDS", "30")
	t.Setenv("SMARTSOS_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.TickIntervalSeconds)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero interval", "tick_interval_seconds: 0\n"},
		{"empty path", "backing_file_path: \"\"\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"bad yaml", "tick_interval_seconds: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "smartsos.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel("WARNING")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	_, err = ParseLogLevel("verbose")
	assert.Error(t, err)
}
