package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetOutput_RedirectsExistingLogger(t *testing.T) {
	log := Logger("redirect-test")

	buf := &bytes.Buffer{}
	SetOutput(buf)

	log.Info("after switch", "key", "value")

	out := buf.String()
	assert.Contains(t, out, "after switch")
	assert.Contains(t, out, "key=value")
	assert.Contains(t, out, "subsystem=redirect-test")
}

func TestParseLevelConfig(t *testing.T) {
	cfg := &Config{DefaultLevel: slog.LevelInfo, SubsystemLevels: map[string]slog.Level{}}
	parseLevelConfig(cfg, "secio=debug, mplex=warn ,error,bogus=loud")

	assert.Equal(t, slog.LevelError, cfg.DefaultLevel)
	assert.Equal(t, slog.LevelDebug, cfg.LevelForSubsystem("secio"))
	assert.Equal(t, slog.LevelWarn, cfg.LevelForSubsystem("mplex"))
	assert.Equal(t, slog.LevelError, cfg.LevelForSubsystem("kad"))
	_, ok := cfg.SubsystemLevels["bogus"]
	assert.False(t, ok)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(EnvLevel, "kad=debug,warn")
	t.Setenv(EnvFormat, "JSON")
	t.Setenv(EnvAddSource, "1")

	cfg := ConfigFromEnv()
	assert.Equal(t, slog.LevelWarn, cfg.DefaultLevel)
	assert.Equal(t, slog.LevelDebug, cfg.LevelForSubsystem("kad"))
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.True(t, cfg.AddSource)
}

func TestConfigure_AdjustsLiveLoggers(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf)

	log := Logger("configure-test")
	Configure("configure-test=error")
	log.Warn("suppressed")
	require.Empty(t, buf.String())

	Configure("configure-test=debug")
	log.With("peer", "x").Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestDiscard(t *testing.T) {
	log := Discard()
	assert.NotPanics(t, func() { log.Error("nothing") })
}
