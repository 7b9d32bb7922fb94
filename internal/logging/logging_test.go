package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestTextLogger(t *testing.T) {
	var buf bytes.Buffer
	l, closer, err := New(Config{Level: "warn"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	l.Info("hidden")
	l.Warn("shown", "dim", "time")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown dim=time")
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l, _, err := New(Config{Level: "DEBUG", Format: "json"}, &buf)
	require.NoError(t, err)

	l.Debug("decoded", "entries", 3)
	assert.Equal(t, "decoded", gjson.Get(buf.String(), "msg").String())
	assert.Equal(t, int64(3), gjson.Get(buf.String(), "entries").Int())
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "duckparse.log")
	var buf bytes.Buffer
	l, closer, err := New(Config{File: path}, &buf)
	require.NoError(t, err)

	l.Info("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
	assert.Zero(t, buf.Len())
}

func TestInvalidConfig(t *testing.T) {
	_, _, err := New(Config{Level: "loud"}, nil)
	assert.ErrorContains(t, err, "unknown log level")

	_, _, err = New(Config{Format: "xml"}, nil)
	assert.ErrorContains(t, err, "unknown log format")
}
