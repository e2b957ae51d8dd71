package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestWriteArchiveRelativePaths verifies the archive mirrors the filtered tree
// with relative entry names and no scratch path prefix.
func TestWriteArchiveRelativePaths(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "handlers", "do_something.py"), "def handler(): ...")
	writeFile(t, filepath.Join(root, "integration", "models", "base.py"), "class Base: ...")

	outPath := filepath.Join(t.TempDir(), "code.zip")
	size, err := WriteArchive(root, outPath)
	require.NoError(t, err)
	require.Positive(t, size)

	names, err := ListArchive(outPath)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{
		"handlers/do_something.py",
		"integration/models/base.py",
	}, names)
}

// TestWriteArchiveAfterFilter ensures exactly the surviving files are archived.
func TestWriteArchiveAfterFilter(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "handlers", "do_something.py"), "def handler(): ...")
	writeFile(t, filepath.Join(root, "handlers", "fixture.json"), "{}")

	require.NoError(t, Filter(root, "*.py"))

	outPath := filepath.Join(t.TempDir(), "code.zip")
	_, err := WriteArchive(root, outPath)
	require.NoError(t, err)

	names, err := ListArchive(outPath)
	require.NoError(t, err)
	require.Equal(t, []string{"handlers/do_something.py"}, names)
}

// TestStageCopiesWithoutMutatingSource verifies staging isolation.
func TestStageCopiesWithoutMutatingSource(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	handlers := filepath.Join(src, "handlers")
	writeFile(t, filepath.Join(handlers, "do_something.py"), "def handler(): ...")
	writeFile(t, filepath.Join(handlers, "fixture.json"), "{}")

	scratch := t.TempDir()
	require.NoError(t, Stage([]string{handlers}, scratch))

	// Filter the copy, then check the original is intact.
	require.NoError(t, Filter(scratch, "*.py"))

	_, err := os.Stat(filepath.Join(handlers, "fixture.json"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(scratch, "handlers", "fixture.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestStageMissingDirectory aborts the run on any missing source directory.
func TestStageMissingDirectory(t *testing.T) {
	t.Parallel()

	err := Stage([]string{filepath.Join(t.TempDir(), "nope")}, t.TempDir())
	require.ErrorIs(t, err, errSourceDirMissing)
}

// TestMoveFile relocates an artifact and removes the source.
func TestMoveFile(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "code.zip")
	require.NoError(t, os.WriteFile(src, []byte("zip"), 0o644))

	dst := filepath.Join(t.TempDir(), "code.zip")
	require.NoError(t, MoveFile(src, dst))

	contents, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "zip", string(contents))

	_, err = os.Stat(src)
	require.ErrorIs(t, err, os.ErrNotExist)
}
