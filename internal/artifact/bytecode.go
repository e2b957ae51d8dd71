package artifact

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// bytecodeCacheDir is the directory name interpreters use for cached bytecode.
const bytecodeCacheDir = "__pycache__"

// bytecodeExtensions are compiled-bytecode file suffixes that are
// platform-specific and must not leak into a reproducible artifact.
var bytecodeExtensions = map[string]struct{}{
	".pyc": {},
	".pyo": {},
}

// StripBytecode recursively removes bytecode cache directories and
// compiled-bytecode files from the installed dependency tree.
func StripBytecode(root string) error {
	var (
		cacheDirs []string
		files     []string
	)

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			if entry.Name() == bytecodeCacheDir {
				cacheDirs = append(cacheDirs, path)
				return fs.SkipDir
			}

			return nil
		}

		if _, ok := bytecodeExtensions[filepath.Ext(entry.Name())]; ok {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("walk dependency tree: %w", err)
	}

	for _, dir := range cacheDirs {
		if err = os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove bytecode cache: %w", err)
		}
	}

	for _, file := range files {
		if err = os.Remove(file); err != nil {
			return fmt.Errorf("remove bytecode file: %w", err)
		}
	}

	return nil
}
