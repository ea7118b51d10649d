package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/away0419/eunoia/internal/config"
)

func TestNew_Defaults(t *testing.T) {
	logger, err := New(config.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{LogLevel: "debug", LogFormat: "json"}

	logger, err := NewWithWriter(cfg, &buf)
	require.NoError(t, err)
	logger.WithField("category", "idiom").Debug("loaded")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "loaded", line["msg"])
	assert.Equal(t, "idiom", line["category"])
}

func TestNewWithWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&config.Config{LogLevel: "warn"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.False(t, strings.Contains(buf.String(), "hidden"))
	assert.True(t, strings.Contains(buf.String(), "shown"))
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(&config.Config{LogLevel: "loud"})
	assert.Error(t, err)
}

func TestNew_BadFormat(t *testing.T) {
	_, err := New(&config.Config{LogFormat: "xml"})
	assert.Error(t, err)
}

func TestNew_NilConfig(t *testing.T) {
	logger, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}
