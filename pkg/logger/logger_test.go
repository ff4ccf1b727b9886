package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(Config{Level: "debug"}, &buf)
	require.NoError(t, err)

	l.Info("model loaded", zap.String("model", "price_predictor"))
	require.NoError(t, l.Sync())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "model loaded", entry["msg"])
	assert.Equal(t, "price_predictor", entry["model"])
	assert.Contains(t, entry, "ts")
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(Config{Level: "warn"}, &buf)
	require.NoError(t, err)
	l.Info("dropped")
	assert.Zero(t, buf.Len())

	_, err = NewWithWriter(Config{Level: "loud"}, &buf)
	assert.Error(t, err)
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shopsense.log")
	var buf bytes.Buffer
	l, err := NewWithWriter(Config{Filename: path, MaxSize: 1}, &buf)
	require.NoError(t, err)
	l.Warn("reload failed")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "reload failed")
	assert.Contains(t, buf.String(), "reload failed")
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}
