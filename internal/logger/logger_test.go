package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"SpotSentinel/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	l, err := New(config.LoggingConfig{Level: "info"})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
	_, err = New(config.LoggingConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "spot.log")
	l, err := New(config.LoggingConfig{Level: "info", Format: "json", Output: path, MaxSizeMB: 1})
	require.NoError(t, err)

	Component(l, "engine").WithField("symbol", "XTZUSDT").Info("trade executed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(data)
	assert.True(t, strings.Contains(line, `"component":"engine"`), line)
	assert.True(t, strings.Contains(line, `"symbol":"XTZUSDT"`), line)
}
