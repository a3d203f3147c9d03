package server_test

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davinci26/envoy/server"
)

func TestNewLoggerLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	l := server.NewLogger(&buf, "warn", "json")
	l.Info("hidden")
	l.Warn("shown", "key", "v")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"key":"v"`)
}

func TestLogFileReopen(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("open files cannot be renamed on windows")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "envoy.log")
	rotated := filepath.Join(dir, "envoy.log.1")

	lf, err := server.OpenLogFile(path)
	require.NoError(t, err)
	defer lf.Close()

	_, err = lf.Write([]byte("before\n"))
	require.NoError(t, err)
	require.NoError(t, os.Rename(path, rotated))

	require.NoError(t, lf.Reopen())
	_, err = lf.Write([]byte("after\n"))
	require.NoError(t, err)

	old, err := os.ReadFile(rotated)
	require.NoError(t, err)
	assert.Equal(t, "before\n", string(old))

	cur, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "after\n", string(cur))
}
