package server_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davinci26/envoy/server"
	"github.com/davinci26/envoy/service"
)

func startupKind(t *testing.T, err error) service.StartupErrorKind {
	t.Helper()
	var se *service.StartupError
	require.True(t, errors.As(err, &se), "expected *service.StartupError, got %v", err)
	return se.Kind
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "envoy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("admin: {}\n"), 0o600))
	return path
}

func TestParseOptionsServe(t *testing.T) {
	path := writeConfig(t)
	opts, err := server.ParseOptions([]string{"--config-path", path, "--drain-time-s", "3"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, path, opts.ConfigPath)
	assert.Equal(t, server.ModeServe, opts.Mode)
	assert.Equal(t, 3*time.Second, opts.DrainTime)
}

func TestParseOptionsWithoutConfig(t *testing.T) {
	opts, err := server.ParseOptions(nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Empty(t, opts.ConfigPath)
}

func TestParseOptionsMalformed(t *testing.T) {
	for name, args := range map[string][]string{
		"unknown flag":   {"--bogus"},
		"bad int":        {"--drain-time-s", "abc"},
		"negative drain": {"--drain-time-s", "-1"},
		"unknown mode":   {"--mode", "init_only"},
		"positional":     {"extra"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := server.ParseOptions(args, &bytes.Buffer{})
			assert.Equal(t, service.MalformedArgs, startupKind(t, err))
		})
	}
}

func TestParseOptionsNoServing(t *testing.T) {
	var out bytes.Buffer
	_, err := server.ParseOptions([]string{"--version"}, &out)
	assert.Equal(t, service.NoServing, startupKind(t, err))
	assert.Contains(t, out.String(), "envoy version: ")

	_, err = server.ParseOptions([]string{"--help"}, &bytes.Buffer{})
	assert.Equal(t, service.NoServing, startupKind(t, err))

	out.Reset()
	path := writeConfig(t)
	_, err = server.ParseOptions([]string{"--mode", "validate", "-c", path}, &out)
	assert.Equal(t, service.NoServing, startupKind(t, err))
	assert.Contains(t, out.String(), "OK")
}

func TestParseOptionsMissingConfig(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	_, err := server.ParseOptions([]string{"--config-path", missing}, &bytes.Buffer{})
	assert.Equal(t, service.InitFailure, startupKind(t, err))

	_, err = server.ParseOptions([]string{"--mode", "validate"}, &bytes.Buffer{})
	assert.Equal(t, service.InitFailure, startupKind(t, err))
}
