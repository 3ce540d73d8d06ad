package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid json config",
			config: Config{Level: "info", Format: "json", Output: "stdout"},
		},
		{
			name:   "valid text config",
			config: Config{Level: "debug", Format: "text", Output: "stderr"},
		},
		{
			name:   "discard output",
			config: Config{Output: "discard"},
		},
		{
			name:    "invalid level",
			config:  Config{Level: "trace", Format: "json"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			config:  Config{Level: "info", Format: "xml"},
			wantErr: true,
		},
		{
			name:   "defaults applied",
			config: Config{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
			assert.NoError(t, logger.Close())
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stagehand.log")

	logger, err := New(Config{Format: "json", Output: path})
	require.NoError(t, err)
	logger.Info("written to file", "kind", "manifest.db")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
	assert.Contains(t, string(data), "manifest.db")
}

func TestLogger_SetLevel(t *testing.T) {
	logger, err := New(Config{Level: "info", Output: "discard"})
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, logger.Level())

	require.NoError(t, logger.SetLevel("debug"))
	assert.Equal(t, slog.LevelDebug, logger.Level())
	assert.True(t, logger.Handler().Enabled(t.Context(), slog.LevelDebug))

	assert.Error(t, logger.SetLevel("loud"))
	assert.Equal(t, slog.LevelDebug, logger.Level(), "level unchanged after a bad value")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
		wantErr  bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"DEBUG", slog.LevelDebug, false},
		{"invalid", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := ParseLevel(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
}

func TestConfigValidate_UppercaseLevel(t *testing.T) {
	assert.NoError(t, Config{Level: "WARN"}.Validate())
}
