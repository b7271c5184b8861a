package fileutils

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFiles(t *testing.T) {
	ast := assert.New(t)
	dir := t.TempDir()
	for _, n := range []string{"frame-0-0.png", "Frame-1-0.png", "map.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte(n), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "frame-dir"), 0o755))

	names := make([]string, 0)
	err := GetFiles(dir, "frame-", func(fi fs.DirEntry) bool {
		names = append(names, fi.Name())
		return true
	})
	ast.NoError(err)
	ast.ElementsMatch([]string{"frame-0-0.png", "Frame-1-0.png"}, names)

	count := 0
	ast.NoError(GetFiles(dir, "", func(fs.DirEntry) bool {
		count++
		return false
	}))
	ast.Equal(1, count)
}

func TestWriteAtomic(t *testing.T) {
	ast := assert.New(t)
	fn := filepath.Join(t.TempDir(), "sub", "frame-0-0.png")

	ast.NoError(WriteAtomic(fn, strings.NewReader("first")))
	h1, err := HashFile(fn)
	ast.NoError(err)
	ast.NoError(WriteAtomic(fn, strings.NewReader("second")))
	h2, err := HashFile(fn)
	ast.NoError(err)
	ast.NotEqual(h1, h2)

	data, err := os.ReadFile(fn)
	ast.NoError(err)
	ast.Equal("second", string(data))

	entries, err := os.ReadDir(filepath.Dir(fn))
	ast.NoError(err)
	ast.Len(entries, 1)
	ast.True(FileExists(fn))
	ast.True(IsDir(filepath.Dir(fn)))
	ast.Equal("frame-0-0", FileNameWithoutExtension(filepath.Base(fn)))
}
