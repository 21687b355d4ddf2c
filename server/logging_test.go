package server

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/go-kit/log/level"
	"github.com/stretchr/testify/require"
)

func TestLogRequest(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	logger := newLogger(&buf, level.AllowInfo())

	logRequest(logger, &Request{Method: "GET", Path: "/index.html"}, OutcomeServed)
	logRequest(logger, &Request{Method: "GET", Path: "/big.bin"}, OutcomeAllocationExhausted)

	out := buf.String()
	require.Contains(t, out, `msg="GET /index.html 200"`)
	require.Contains(t, out, `msg="GET /big.bin exhausted"`)
	require.Contains(t, out, "level=info")
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	opt, err := parseLevel("warn")
	require.NoError(t, err)
	logger := newLogger(&buf, opt)

	level.Info(logger).Log("msg", "hidden")
	level.Warn(logger).Log("msg", "shown")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")

	_, err = NewLogger("verbose")
	require.Error(t, err)
}
