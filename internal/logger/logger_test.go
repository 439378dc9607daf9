package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	cfg := parseConfig("asconf=debug, udp=warn,error", "JSON")
	assert.Equal(t, slog.LevelError, cfg.DefaultLevel)
	assert.Equal(t, slog.LevelDebug, cfg.LevelForSubsystem("asconf"))
	assert.Equal(t, slog.LevelWarn, cfg.LevelForSubsystem("udp"))
	assert.Equal(t, slog.LevelError, cfg.LevelForSubsystem("routing"))
	assert.Equal(t, FormatJSON, cfg.Format)
}

func TestParseConfigIgnoresUnknownLevels(t *testing.T) {
	cfg := parseConfig("asconf=loud,,chatty", "")
	assert.Equal(t, slog.LevelInfo, cfg.DefaultLevel)
	assert.Empty(t, cfg.SubsystemLevels)
	assert.Equal(t, FormatText, cfg.Format)
}

func TestSetOutputAndLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() { SetOutput(&bytes.Buffer{}) })

	log := Logger("logger-test")
	require.Same(t, log, Logger("logger-test"))

	SetLevel("logger-test", slog.LevelInfo)
	log.Debug("hidden")
	log.Info("shown", "key", "value")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "key=value")
	assert.Contains(t, out, "subsystem=logger-test")

	SetLevel("logger-test", slog.LevelDebug)
	log.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Enabled(context.Background(), slog.LevelError))
}
