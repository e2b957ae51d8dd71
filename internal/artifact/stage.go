package artifact

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// errSourceDirMissing is returned when a declared source directory does not exist.
var errSourceDirMissing = errors.New("source directory not found")

// Stage copies the full contents of each declared source directory into dst,
// preserving directory names and file modes. The originals are never mutated;
// all later pipeline steps operate on the copy only.
func Stage(sourceDirs []string, dst string) error {
	for _, dir := range sourceDirs {
		info, err := os.Stat(dir)
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", dir, errSourceDirMissing)
		} else if err != nil {
			return fmt.Errorf("stat %s: %w", dir, err)
		}

		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory: %w", dir, errSourceDirMissing)
		}

		target := filepath.Join(dst, filepath.Base(dir))
		if err = copyTree(dir, target); err != nil {
			return fmt.Errorf("stage %s: %w", dir, err)
		}
	}

	return nil
}

// copyTree recursively copies src into dst.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		target := filepath.Join(dst, rel)

		if entry.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		// Symlinks and other irregular entries are not expected in a source
		// tree; packaging them would produce a non-portable archive.
		if !entry.Type().IsRegular() {
			return fmt.Errorf("%s: irregular file in source tree", path)
		}

		return copyFile(path, target)
	})
}

// copyFile copies a single regular file preserving its mode.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(filepath.Clean(dst), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}

// MoveFile relocates a finished artifact to its final path.
// Rename is attempted first; a copy-and-remove fallback covers the case
// where the scratch area lives on a different filesystem.
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}

	return os.Remove(src)
}
