package artifact

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Filter deletes every file under root whose base name does not match the
// provided glob pattern, then prunes directories left empty. Running it a
// second time over the same tree is a no-op.
func Filter(root, pattern string) error {
	// Validate the pattern up front so a malformed glob fails loudly
	// instead of silently matching nothing.
	if _, err := filepath.Match(pattern, "probe"); err != nil {
		return fmt.Errorf("code file pattern %q: %w", pattern, err)
	}

	var doomed []string

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			return nil
		}

		matched, err := filepath.Match(pattern, entry.Name())
		if err != nil {
			return err
		}

		if !matched {
			doomed = append(doomed, path)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("walk staged tree: %w", err)
	}

	for _, path := range doomed {
		if err = os.Remove(path); err != nil {
			return fmt.Errorf("remove filtered file: %w", err)
		}
	}

	return pruneEmptyDirs(root)
}

// pruneEmptyDirs removes directories that hold no files, deepest first,
// so a chain of newly empty parents collapses in a single pass.
func pruneEmptyDirs(root string) error {
	var dirs []string

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() && path != root {
			dirs = append(dirs, path)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("walk for empty dirs: %w", err)
	}

	sort.Slice(dirs, func(i, j int) bool {
		return len(dirs[i]) > len(dirs[j])
	})

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("read dir %s: %w", dir, err)
		}

		if len(entries) == 0 {
			if err = os.Remove(dir); err != nil {
				return fmt.Errorf("prune empty dir: %w", err)
			}
		}
	}

	return nil
}
