package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/combitest/internal/config"
)

func TestFanout(t *testing.T) {
	var info, debug bytes.Buffer
	logger := slog.New(Fanout(
		slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)).With("session", "s1")

	logger.Debug("details")
	logger.Info("started")

	assert.NotContains(t, info.String(), "details")
	assert.Contains(t, info.String(), "started")
	assert.Contains(t, debug.String(), "details")
	assert.Contains(t, debug.String(), "session=s1")
}

func TestFanoutWithoutHandlers(t *testing.T) {
	logger := slog.New(Fanout())
	logger.Error("dropped")
}

func TestSetup(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	file := filepath.Join(t.TempDir(), "logs", "combitest.log")
	var console bytes.Buffer
	logger, closer, err := Setup(config.LogConfig{File: file, Level: "info", Verbose: true, MaxSize: 1}, &console)
	require.NoError(t, err)

	logger.Debug("verbose detail", "inputs", 3)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "verbose detail"))
	assert.Contains(t, console.String(), "verbose detail")
}
