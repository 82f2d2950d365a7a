package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := WithSubmission(WithComponent(New("info", "json", &buf), "pipeline"), "s-1")

	logger.Debug("hidden")
	logger.Info("Input submitted", "url", "file:///x")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Input submitted", line["msg"])
	assert.Equal(t, "pipeline", line["component"])
	assert.Equal(t, "s-1", line["submission"])
	assert.Equal(t, "file:///x", line["url"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	WithRequestID(New("debug", "text", &buf), "r-9").Debug("Request served")

	assert.Contains(t, buf.String(), "msg=\"Request served\"")
	assert.Contains(t, buf.String(), "request_id=r-9")
	assert.Contains(t, buf.String(), "source=")
}
