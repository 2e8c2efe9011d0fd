package telemetry_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/talent-coach/backend/internal/config"
	"github.com/zhouzirui/talent-coach/backend/internal/telemetry"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, telemetry.ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, telemetry.ParseLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, telemetry.ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, telemetry.ParseLevel("loud"))
}

func TestInitLoggerWritesFile(t *testing.T) {
	orig := log.Logger
	origLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = orig
		zerolog.SetGlobalLevel(origLevel)
	})

	path := filepath.Join(t.TempDir(), "app.log")
	closer := telemetry.InitLogger(config.LogConfig{Level: "info", File: path})
	log.Info().Str("session_id", "s-1").Msg("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"session_id":"s-1"`)
	assert.Contains(t, string(data), `"message":"hello"`)
}

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := telemetry.Init(context.Background(), config.TelemetryConfig{})
	require.NoError(t, err)
	shutdown()
}
