package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormatAndComponent(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "info", Format: FormatJSON, Component: "rishta-client"})
	SetOutput(&buf)
	defer SetOutput(nil)

	Info("hello", "key", "value")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, "rishta-client", entry["component"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "warn", Format: FormatText})
	SetOutput(&buf)
	defer SetOutput(nil)

	Debug("too quiet")
	Info("still too quiet")
	Warn("loud enough")

	out := buf.String()
	assert.NotContains(t, out, "too quiet")
	assert.Contains(t, out, "loud enough")
}

func TestWithAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "info", Format: FormatText})
	SetOutput(&buf)
	defer SetOutput(nil)

	With("slice", "matches").Info("fetched")

	assert.Contains(t, buf.String(), "slice=matches")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "DEBUG",
		"warn":    "WARN",
		"warning": "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"bogus":   "INFO",
	}
	for in, want := range cases {
		lvl := parseLevel(in)
		assert.True(t, strings.EqualFold(lvl.Level().String(), want), "parseLevel(%q)", in)
	}
}

func TestLReturnsNonNil(t *testing.T) {
	assert.NotNil(t, L())
}
