package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestRunnerOutput captures stdout of a successful command.
func TestRunnerOutput(t *testing.T) {
	t.Parallel()

	runner := &Runner{}

	out, err := runner.Output(context.Background(), "sh", "-c", "echo hello")
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(out))
}

// TestRunnerFailureCarriesStderr wraps the collaborator's stderr into the error.
func TestRunnerFailureCarriesStderr(t *testing.T) {
	t.Parallel()

	runner := &Runner{}

	err := runner.Run(context.Background(), "sh", "-c", "echo boom >&2; exit 3")
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

// TestRunnerHonorsContext aborts a command when the context is cancelled.
func TestRunnerHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	runner := &Runner{}

	err := runner.Run(ctx, "sh", "-c", "sleep 5")
	require.Error(t, err)
}

// TestRunnerTimeoutKillsHungCommand bounds an invocation with the runner's
// own deadline even when the caller's context has none.
func TestRunnerTimeoutKillsHungCommand(t *testing.T) {
	t.Parallel()

	runner := &Runner{Timeout: 100 * time.Millisecond}

	start := time.Now()
	err := runner.Run(context.Background(), "sh", "-c", "sleep 5")
	require.Error(t, err)
	require.Less(t, time.Since(start), 5*time.Second)
}

// TestRunnerExtraEnv passes extra environment variables to the child.
func TestRunnerExtraEnv(t *testing.T) {
	t.Parallel()

	runner := &Runner{
		ExtraEnv: []string{"PROJECT_SLUG=salesforce-integration"},
	}

	out, err := runner.Output(context.Background(), "sh", "-c", "printf %s \"$PROJECT_SLUG\"")
	require.NoError(t, err)
	require.Equal(t, "salesforce-integration", string(out))
}
