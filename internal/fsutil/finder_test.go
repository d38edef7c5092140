package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.rhe"), "")
	writeFile(t, filepath.Join(root, "sub", "b.rhe"), "")
	writeFile(t, filepath.Join(root, "sub", "c.txt"), "")

	files, err := FindFilesByExtension(root, ".rhe")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.rhe"),
		filepath.Join(root, "sub", "b.rhe"),
	}, files)
}

func TestFindFilesByExtension_PanicsOnEmptyExtension(t *testing.T) {
	assert.Panics(t, func() { _, _ = FindFilesByExtension(".", "") })
}

func TestCollectFiles(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.rhe")
	b := filepath.Join(root, "dir", "b.rhe")
	odd := filepath.Join(root, "explicit.txt")
	writeFile(t, a, "")
	writeFile(t, b, "")
	writeFile(t, odd, "")

	t.Run("dedupes and keeps order", func(t *testing.T) {
		files, err := CollectFiles([]string{odd, root, a}, ".rhe", false)
		require.NoError(t, err)
		assert.Equal(t, []string{odd, a, b}, files)
	})

	t.Run("missing path is an error", func(t *testing.T) {
		_, err := CollectFiles([]string{filepath.Join(root, "nope")}, ".rhe", false)
		assert.ErrorContains(t, err, "error accessing path")
	})

	t.Run("missing path can be skipped", func(t *testing.T) {
		files, err := CollectFiles([]string{filepath.Join(root, "nope"), a}, ".rhe", true)
		require.NoError(t, err)
		assert.Equal(t, []string{a}, files)
	})
}
