package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture redirects logger output to a buffer and restores it afterwards.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)

	mu.Lock()
	prevOutput := output
	prevColor := useColor
	output = buf
	useColor = false
	mu.Unlock()
	reconfigure()

	t.Cleanup(func() {
		mu.Lock()
		output = prevOutput
		useColor = prevColor
		mu.Unlock()
		SetLevel("INFO")
		SetFormat("text")
	})
	return buf
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)

	SetLevel("WARN")
	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestInvalidLevelIgnored(t *testing.T) {
	buf := capture(t)

	SetLevel("INFO")
	SetLevel("VERBOSE") // no-op
	Info("still here")
	assert.Contains(t, buf.String(), "still here")
}

func TestStructuredFields(t *testing.T) {
	buf := capture(t)

	SetLevel("INFO")
	Info("client connected", KeyClientAddr, "10.0.0.2:51234", KeyUser, "alice")

	out := buf.String()
	assert.Contains(t, out, "client_addr=10.0.0.2:51234")
	assert.Contains(t, out, "user=alice")
}

func TestJSONFormat(t *testing.T) {
	buf := capture(t)

	SetFormat("json")
	Info("login ok", KeyUser, "alice")

	line := strings.TrimSpace(buf.String())
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &record))
	assert.Equal(t, "login ok", record["msg"])
	assert.Equal(t, "alice", record["user"])
}

func TestWithPreBoundFields(t *testing.T) {
	buf := capture(t)

	l := With(KeyClientAddr, "10.0.0.9:1000")
	l.Info("request")
	assert.Contains(t, buf.String(), "client_addr=10.0.0.9:1000")
}
