package observability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/monksim/internal/config"
)

func TestNewLogger_JSON(t *testing.T) {
	cfg := config.LoggingConfig{Level: "info", Format: "json"}
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewLogger_Console(t *testing.T) {
	cfg := config.LoggingConfig{Level: "debug", Format: "console"}
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	cfg := config.LoggingConfig{Level: "trace", Format: "json"}
	_, err := NewLogger(cfg)
	assert.Error(t, err)
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	cfg := config.LoggingConfig{Level: "info", Format: "xml"}
	_, err := NewLogger(cfg)
	assert.Error(t, err)
}

func TestNewLogger_AllLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := config.LoggingConfig{Level: level, Format: "json"}
		logger, err := NewLogger(cfg)
		require.NoError(t, err, "level %q should be valid", level)
		assert.NotNil(t, logger)
	}
}

func TestNewLogger_RotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.log")
	cfg := config.LoggingConfig{Level: "info", Format: "json", File: path, MaxSizeMB: 1}
	logger, err := NewLogger(cfg)
	require.NoError(t, err)

	logger.Info("episode finished", zap.Float64("damage", 1234.5))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "episode finished")
	assert.Contains(t, string(data), "1234.5")
}

func TestNewLogger_FileRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.log")
	cfg := config.LoggingConfig{Level: "warn", Format: "console", File: path, MaxSizeMB: 1}
	logger, err := NewLogger(cfg)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}
