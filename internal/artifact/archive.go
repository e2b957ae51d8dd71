package artifact

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"
)

// WriteArchive compresses the tree rooted at root into a zip archive at
// outPath. Entry names are forward-slash paths relative to root, so the
// archive root matches the runtime's expected code root; the scratch
// directory's own path prefix never leaks into the archive. Returns the
// size of the finished archive in bytes.
func WriteArchive(root, outPath string) (int64, error) {
	out, err := os.Create(filepath.Clean(outPath))
	if err != nil {
		return 0, fmt.Errorf("create archive: %w", err)
	}

	zw := zip.NewWriter(out)
	// Deflate at maximum compression.
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}

		header.Name = filepath.ToSlash(rel)
		header.Method = zip.Deflate

		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}

		in, err := os.Open(filepath.Clean(path))
		if err != nil {
			return err
		}

		if _, err = io.Copy(w, in); err != nil {
			_ = in.Close()
			return err
		}

		return in.Close()
	})
	if err != nil {
		_ = zw.Close()
		_ = out.Close()

		return 0, fmt.Errorf("write archive: %w", err)
	}

	if err = zw.Close(); err != nil {
		_ = out.Close()
		return 0, fmt.Errorf("finalize archive: %w", err)
	}

	if err = out.Close(); err != nil {
		return 0, fmt.Errorf("close archive: %w", err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return 0, fmt.Errorf("stat archive: %w", err)
	}

	return info.Size(), nil
}

// ListArchive returns the entry names of a zip archive, in archive order.
func ListArchive(path string) ([]string, error) {
	reader, err := zip.OpenReader(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	names := make([]string, 0, len(reader.File))
	for _, file := range reader.File {
		names = append(names, file.Name)
	}

	return names, nil
}
