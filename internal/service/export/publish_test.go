package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestPublish(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".a"), "new a")
	writeFile(t, filepath.Join(dir, ".b"), "new b")
	writeFile(t, filepath.Join(dir, "a"), "old a")

	err := publish([]pending{
		{work: filepath.Join(dir, ".a"), final: filepath.Join(dir, "a")},
		{work: filepath.Join(dir, ".b"), final: filepath.Join(dir, "b")},
	})
	require.NoError(t, err)

	assert.Equal(t, "new a", readFile(t, filepath.Join(dir, "a")))
	assert.Equal(t, "new b", readFile(t, filepath.Join(dir, "b")))
	assert.ElementsMatch(t, []string{filepath.Join(dir, "a"), filepath.Join(dir, "b")}, listFiles(t, dir))
}

func TestPublish_RollsBackEarlierMoves(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".a"), "new a")
	writeFile(t, filepath.Join(dir, ".b"), "new b")
	writeFile(t, filepath.Join(dir, ".c"), "new c")
	writeFile(t, filepath.Join(dir, "a"), "old a")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "c", "blocker"), 0o755))

	err := publish([]pending{
		{work: filepath.Join(dir, ".a"), final: filepath.Join(dir, "a")},
		{work: filepath.Join(dir, ".b"), final: filepath.Join(dir, "b")},
		{work: filepath.Join(dir, ".c"), final: filepath.Join(dir, "c")},
	})
	require.Error(t, err)

	assert.Equal(t, "old a", readFile(t, filepath.Join(dir, "a")))
	assert.NoFileExists(t, filepath.Join(dir, "b"))
	assert.NoFileExists(t, filepath.Join(dir, ".a.prev"))
	assert.DirExists(t, filepath.Join(dir, "c"))
}
