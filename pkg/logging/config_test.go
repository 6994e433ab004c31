package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/pkg/logging"
)

// saveGlobalState restores the default logger and global level after a
// test that reconfigures them.
func saveGlobalState(t *testing.T) {
	t.Helper()
	original := *logging.Default()
	level := zerolog.GlobalLevel()
	t.Cleanup(func() {
		logging.SetDefault(original)
		zerolog.SetGlobalLevel(level)
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := logging.DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "auto", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.False(t, cfg.AddCaller)
}

func TestNewLoggerFromConfigWritesToFile(t *testing.T) {
	saveGlobalState(t)

	path := filepath.Join(t.TempDir(), "engine.log")
	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:  "debug",
		Format: "json",
		Output: path,
	})
	logger.Info().Str("entity_id", "rytir_jan").Msg("canon loaded")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "canon loaded")
	assert.Contains(t, string(content), `"entity_id":"rytir_jan"`)
}

func TestNewLoggerFromConfigLevelFiltering(t *testing.T) {
	saveGlobalState(t)

	path := filepath.Join(t.TempDir(), "engine.log")
	logging.Configure(&logging.Config{
		Level:  "warn",
		Format: "json",
		Output: path,
	})

	logging.Debug().Msg("debug message")
	logging.Info().Msg("info message")
	logging.Warn().Msg("warn message")
	logging.Error().Msg("error message")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	output := string(content)
	assert.NotContains(t, output, "debug message")
	assert.NotContains(t, output, "info message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
}

func TestNewLoggerFromConfigConsoleFormat(t *testing.T) {
	saveGlobalState(t)

	path := filepath.Join(t.TempDir(), "engine.log")
	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:   "info",
		Format:  "console",
		Output:  path,
		NoColor: true,
	})
	logger.Info().Str("backend", "heuristic").Msg("console test")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	output := string(content)
	assert.Contains(t, output, "console test")
	// Console format uses short level names
	assert.Contains(t, output, "INF")
}

func TestNewLoggerFromConfigNilUsesDefaults(t *testing.T) {
	saveGlobalState(t)

	logger := logging.NewLoggerFromConfig(nil)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestNewLoggerFromConfigUnknownLevel(t *testing.T) {
	saveGlobalState(t)

	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:  "loud",
		Format: "json",
		Output: "discard",
	})
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}
