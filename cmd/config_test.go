package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigConstants(t *testing.T) {
	assert.Equal(t, "scaffold", configBaseName)
	assert.Equal(t, "scaffold.yaml", configFileName)
	assert.Equal(t, ".", configFolderPath)
	assert.Equal(t, "SCAFFOLD", envPrefix)
	assert.Equal(t, "render.parallelism", parallelismKey)
	assert.Equal(t, "render.inspect_max_lines", inspectMaxLinesKey)
	assert.Equal(t, 25, defaultInspectMaxLines)
	assert.Equal(t, 0, defaultParallelism)
}

func TestConfigDefaults(t *testing.T) {
	assert.Equal(t, defaultInspectMaxLines, viper.GetInt(inspectMaxLinesKey))
	assert.Equal(t, currentConfigVersion, viper.GetInt(configVersionKey))
}

func TestConfigEnvOverrides(t *testing.T) {
	newRootCmd()

	t.Setenv("SCAFFOLD_RENDER_PARALLELISM", "3")
	t.Setenv("SCAFFOLD_RENDER_INSPECT_MAX_LINES", "7")
	t.Setenv("SCAFFOLD_CHECKS_IGNORE", "true")

	cfg := toolConfig()
	assert.Equal(t, 3, cfg.Parallelism)
	assert.Equal(t, 7, cfg.InspectMaxLines)
	assert.True(t, cfg.IgnoreChecks)
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{" WARNING ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"-4", slog.LevelDebug},
		{"loud", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSlogLevel(tt.value, slog.LevelInfo))
		})
	}
}

func TestConfigureLogger_TeesWarningsToConsole(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	viper.Set(logFilenameKey, filepath.Join(t.TempDir(), "scaffold.log"))
	t.Cleanup(func() { viper.Set(logFilenameKey, defaultLogFilename) })

	var console bytes.Buffer

	configureLogger(&console, false)
	slog.Info("quiet", "k", 1)
	slog.Warn("Rendered name escapes the target directory", "name", "{{evil}}")

	assert.NotContains(t, console.String(), "quiet")
	assert.Contains(t, console.String(), "Rendered name escapes the target directory")
	assert.Contains(t, console.String(), "name={{evil}}")
	assert.NotContains(t, console.String(), "time=")

	console.Reset()
	configureLogger(&console, true)
	slog.Debug("loud")
	assert.Contains(t, console.String(), "loud")
}

func TestTeeHandler(t *testing.T) {
	var low, high bytes.Buffer

	handler := teeHandler{
		slog.NewTextHandler(&low, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&high, &slog.HandlerOptions{Level: slog.LevelError}),
	}

	require.True(t, handler.Enabled(context.Background(), slog.LevelDebug))

	logger := slog.New(handler).With("run", 1).WithGroup("g")
	logger.Info("info", "k", "v")
	logger.Error("error")

	assert.Contains(t, low.String(), "msg=info")
	assert.Contains(t, low.String(), "run=1")
	assert.Contains(t, low.String(), "g.k=v")
	assert.NotContains(t, high.String(), "msg=info")
	assert.Contains(t, high.String(), "msg=error")
}
