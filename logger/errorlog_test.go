package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestErrorLog_RoutesByLayer(t *testing.T) {
	var local, remote bytes.Buffer
	e := newErrorLog(zapcore.AddSync(&local), zapcore.AddSync(&remote))

	e.Log(errors.New("cache unreadable"), LayerLocal, zap.String("path", "token.json"))
	e.Log(errors.New("connection refused"), LayerRemote, zap.String("url", "http://0.0.0.0:8888/auth"))

	require.Equal(t, 1, strings.Count(local.String(), "\n"))
	require.Equal(t, 1, strings.Count(remote.String(), "\n"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(remote.Bytes(), &entry))
	assert.Equal(t, "connection refused", entry["msg"])
	assert.Equal(t, "remote", entry["layer"])
	assert.Equal(t, "http://0.0.0.0:8888/auth", entry["url"])
	assert.Contains(t, local.String(), `"path":"token.json"`)
}

func TestErrorLog_IgnoresNilError(t *testing.T) {
	var local, remote bytes.Buffer
	e := newErrorLog(zapcore.AddSync(&local), zapcore.AddSync(&remote))

	e.Log(nil, LayerLocal)

	assert.Zero(t, local.Len())
	assert.Zero(t, remote.Len())
}

func TestErrorLog_NilReceiver(t *testing.T) {
	var e *ErrorLog
	assert.NotPanics(t, func() { e.Log(errors.New("boom"), LayerRemote) })
	assert.NoError(t, e.Close())
}

func TestNewErrorLog_WritesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	e, err := NewErrorLog(dir, 1)
	require.NoError(t, err)

	e.Log(errors.New("invalid token"), LayerRemote)
	require.NoError(t, e.Close())

	data, err := os.ReadFile(filepath.Join(dir, RemoteErrorLogFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "invalid token")

	_, err = os.Stat(filepath.Join(dir, LocalErrorLogFile))
	assert.True(t, os.IsNotExist(err), "local log is only created on first write")
}

func TestEnsureLogDir_RejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	assert.Error(t, EnsureLogDir(path))
	assert.NoError(t, EnsureLogDir(""))
}

func TestLayerString(t *testing.T) {
	assert.Equal(t, "local", LayerLocal.String())
	assert.Equal(t, "remote", LayerRemote.String())
}
