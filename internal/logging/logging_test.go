package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WritesToFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := New("debug", dir)
	require.NoError(t, err)

	logger.Debug("hello", zap.String("k", "v"))
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"k":"v"`)
}

func TestNew_RespectsLevel(t *testing.T) {
	dir := t.TempDir()
	logger, err := New("warn", dir)
	require.NoError(t, err)

	logger.Info("quiet")
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "quiet")
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New("loud", t.TempDir())
	assert.Error(t, err)
}
