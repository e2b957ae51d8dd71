//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	ps "github.com/mitchellh/go-ps"

	"github.com/kicksaw-consulting/integration-deployer/internal/logger"
)

const (
	// MarkerFilename marks that a packaging run is in progress to avoid
	// two instances racing on the same working directory.
	MarkerFilename = "integration-packager-marker.bin"

	// markerLifetime is the period after which a stale marker is ignored.
	// A normal packaging run finishes well within it.
	markerLifetime = 30 * time.Minute

	// markerFileMode restricts the marker to the current user.
	markerFileMode os.FileMode = 0o600
)

// IsPackagerRunningNow checks presence of a marker file and attempts recovery
// when it looks stale (leftover from a terminated run).
func IsPackagerRunningNow(ctx context.Context, processName string) bool {
	logger.Debug(ctx, "Checking for the presence of a packaging marker")

	fileInfo, err := os.Stat(MarkerFilename)
	if err == nil {
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return isProcessAlive(processName)
		}

		logger.Info(ctx, "The packaging marker is too old, attempting cleanup")

		if err = os.Remove(MarkerFilename); err != nil {
			return true
		}

		return false
	}

	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	logger.Infof(ctx, "Unable to read packaging marker: %v", err)

	return false
}

// WriteMarker creates the marker file in the current working directory.
func WriteMarker() error {
	return os.WriteFile(MarkerFilename, nil, markerFileMode)
}

// RemoveMarker deletes the marker file; a missing marker is not an error.
func RemoveMarker() error {
	err := os.Remove(MarkerFilename)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return err
}

// isProcessAlive reports whether another process with the provided executable
// name is running. The scan errs on the side of "running" so two packagers
// never share a working directory.
func isProcessAlive(processName string) bool {
	if processName == "" {
		return true
	}

	processList, err := ps.Processes()
	if err != nil {
		return true
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if filepath.Base(process.Executable()) == processName {
			return true
		}
	}

	return false
}
