//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/kicksaw-consulting/integration-deployer/internal/logger"
)

// stderrTailLimit caps how much collaborator stderr is attached to an error.
const stderrTailLimit = 4096

// Runner executes external collaborator CLIs (manifest exporter, package
// installer, deploy tool, repository tool). Every invocation is synchronous
// and fail-fast: a non-zero exit aborts the caller's run.
type Runner struct {
	// WorkDir is the working directory for spawned commands. Empty means inherit.
	WorkDir string
	// ExtraEnv entries are appended to the inherited process environment.
	ExtraEnv []string
	// Timeout bounds a single invocation. Zero means no deadline.
	Timeout time.Duration
}

// Run executes the command and discards its stdout.
func (r *Runner) Run(ctx context.Context, name string, args ...string) error {
	_, err := r.Output(ctx, name, args...)
	return err
}

// Output executes the command and returns its stdout.
// On failure the error carries the tail of the command's stderr,
// which is the only diagnostics a collaborator contractually provides.
func (r *Runner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	logger.DebugKV(ctx, "Running command", "command", name, "args", strings.Join(args, " "))

	if r.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.WorkDir
	cmd.Env = append(os.Environ(), r.ExtraEnv...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, stderrTail(stderr.Bytes()))
	}

	return stdout.Bytes(), nil
}

// stderrTail returns the last portion of captured stderr, trimmed.
func stderrTail(contents []byte) string {
	if len(contents) > stderrTailLimit {
		contents = contents[len(contents)-stderrTailLimit:]
	}

	return strings.TrimSpace(string(contents))
}
