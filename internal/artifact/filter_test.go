package artifact

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeFile creates a file with parent directories.
func writeFile(t *testing.T, path, contents string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

// listTree returns all paths under root relative to it, files and dirs.
func listTree(t *testing.T, root string) []string {
	t.Helper()

	var paths []string

	err := filepath.WalkDir(root, func(path string, _ fs.DirEntry, err error) error {
		require.NoError(t, err)

		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)

		paths = append(paths, rel)

		return nil
	})
	require.NoError(t, err)

	return paths
}

// TestFilterKeepsOnlyMatchingFiles verifies filtering and empty-dir pruning.
func TestFilterKeepsOnlyMatchingFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "handlers", "do_something.py"), "def handler(): ...")
	writeFile(t, filepath.Join(root, "handlers", "fixture.json"), "{}")
	writeFile(t, filepath.Join(root, "integration", "data", "dump.csv"), "a,b")
	writeFile(t, filepath.Join(root, "integration", "models", "base.py"), "class Base: ...")

	require.NoError(t, Filter(root, "*.py"))

	got := listTree(t, root)
	require.ElementsMatch(t, []string{
		"handlers",
		filepath.Join("handlers", "do_something.py"),
		"integration",
		filepath.Join("integration", "models"),
		filepath.Join("integration", "models", "base.py"),
	}, got)
}

// TestFilterIsIdempotent ensures a second filter pass changes nothing.
func TestFilterIsIdempotent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "integration", "config", "settings.py"), "X = 1")
	writeFile(t, filepath.Join(root, "integration", "config", "cache.bin"), "junk")
	writeFile(t, filepath.Join(root, "integration", "empty", "notes.txt"), "junk")

	require.NoError(t, Filter(root, "*.py"))
	once := listTree(t, root)

	require.NoError(t, Filter(root, "*.py"))
	twice := listTree(t, root)

	require.Equal(t, once, twice)
}

// TestFilterRejectsBadPattern fails fast on malformed globs.
func TestFilterRejectsBadPattern(t *testing.T) {
	t.Parallel()

	require.Error(t, Filter(t.TempDir(), "[unclosed"))
}

// TestStripBytecode removes cache directories and compiled files only.
func TestStripBytecode(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "foo", "__init__.py"), "")
	writeFile(t, filepath.Join(root, "foo", "__pycache__", "mod.cpython-312.pyc"), "junk")
	writeFile(t, filepath.Join(root, "foo", "stray.pyo"), "junk")

	require.NoError(t, StripBytecode(root))

	got := listTree(t, root)
	require.ElementsMatch(t, []string{
		"foo",
		filepath.Join("foo", "__init__.py"),
	}, got)
}
