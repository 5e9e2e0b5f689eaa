package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Configure(Config{Level: "debug", Formatter: "json"})
	defer Configure(DefaultConfig())
	defer SetOutput(os.Stderr)

	log := New("evaluator", "task", "web")
	log.WithFields("offer", "o-1").Debug("evaluated offer", "passed", true)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "evaluated offer", entry["msg"])
	assert.Equal(t, "evaluator", entry["ns"])
	assert.Equal(t, "web", entry["task"])
	assert.Equal(t, "o-1", entry["offer"])
	assert.Equal(t, true, entry["passed"])
	assert.Equal(t, "debug", entry["level"])
}

func TestErrorShortcut(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Configure(Config{Level: "info", Formatter: "json"})
	defer Configure(DefaultConfig())
	defer SetOutput(os.Stderr)

	New("manager").Error("launch failed", errors.New("boom"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "boom", entry["error"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Configure(Config{Level: "warn", Formatter: "text"})
	defer Configure(DefaultConfig())
	defer SetOutput(os.Stderr)

	New("x").Info("hidden")
	assert.Empty(t, buf.String())
	New("x").Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestFieldsOddArgs(t *testing.T) {
	f := fields("a", 1, "dangling")
	assert.Equal(t, 1, f["a"])
	assert.Equal(t, "dangling", f["unknown"])
}
