package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONWithService(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "info"}, &buf)
	logger.Info().Str("area", "Adyar").Msg("recalculated")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, Service, line["service"])
	assert.Equal(t, "Adyar", line["area"])
	assert.Equal(t, "recalculated", line["message"])
	assert.Contains(t, line, "time")
}

func TestNewFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "warn"}, &buf)
	logger.Info().Msg("hidden")
	assert.Zero(t, buf.Len())
	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Format: "console"}, &buf)
	logger.Info().Msg("ready")
	out := buf.String()
	assert.Contains(t, out, "ready")
	assert.False(t, strings.HasPrefix(out, "{"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}
