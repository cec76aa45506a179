package cascadelog_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"cascade.dev/cascade/internal/cascadelog"
)

func TestNewWithoutDebugFileSucceeds(t *testing.T) {
	logger, err := cascadelog.New(cascadelog.Options{})
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Info("hello")
}

func TestNewWithDebugFileCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "nested", "cascade.log")

	logger, err := cascadelog.New(cascadelog.Options{DebugFilePath: logPath})
	require.NoError(t, err)
	logger.Debug("debug detail", "key", "value")

	require.DirExists(t, filepath.Dir(logPath))
}
