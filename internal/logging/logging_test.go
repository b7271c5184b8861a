package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	ast := assert.New(t)
	ast.Equal(slog.LevelDebug, ParseLevel("DEBUG"))
	ast.Equal(slog.LevelWarn, ParseLevel("warning"))
	ast.Equal(slog.LevelError, ParseLevel("error"))
	ast.Equal(slog.LevelInfo, ParseLevel(""))
	ast.Equal(slog.LevelInfo, ParseLevel("chatty"))
}

func TestNamedLoggerFollowsRoot(t *testing.T) {
	ast := assert.New(t)
	log := New("unittest")

	fn := filepath.Join(t.TempDir(), "mosaic.log")
	require.NoError(t, Setup(Config{Level: "debug", Filename: fn}))
	defer func() {
		_ = Setup(Config{Level: "info"})
	}()

	log.Debug("captured frame", "row", 1, "col", 2)

	data, err := os.ReadFile(fn)
	require.NoError(t, err)
	ast.Contains(string(data), "logger=unittest")
	ast.Contains(string(data), "captured frame")
	ast.Contains(string(data), "row=1")
}
