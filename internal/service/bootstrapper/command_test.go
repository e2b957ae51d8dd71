package bootstrapper

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubTool writes a fake repository CLI that records its invocations and
// answers the ref lookup with a fixed SHA.
func stubTool(t *testing.T, dir string) (toolPath, logPath string) {
	t.Helper()

	toolPath = filepath.Join(dir, "gh-stub")
	logPath = filepath.Join(dir, "invocations.log")

	script := `#!/bin/sh
echo "$@" >> ` + logPath + `
case "$*" in
*git/ref/heads/main*) printf '{"object":{"sha":"abc123"}}' ;;
esac
`
	require.NoError(t, os.WriteFile(toolPath, []byte(script), 0o755))

	return toolPath, logPath
}

// testOptions returns a complete set of inputs pointed at the stub CLI.
func testOptions(tool string) *Options {
	return &Options{
		Owner:        "kicksaw-consulting",
		Repository:   "salesforce-integration",
		Description:  "Salesforce Integration",
		AWSRegion:    "us-west-2",
		AWSAccountID: "123456789012",
		Private:      true,
		Tool:         tool,
	}
}

// TestRunCreatesBranchTopology drives the full bootstrap against a stub CLI.
func TestRunCreatesBranchTopology(t *testing.T) {
	t.Parallel()

	tool, logPath := stubTool(t, t.TempDir())

	require.NoError(t, Run(context.Background(), testOptions(tool)))

	contents, err := os.ReadFile(logPath)
	require.NoError(t, err)

	calls := strings.TrimSpace(string(contents))
	require.Contains(t, calls, "repo create kicksaw-consulting/salesforce-integration")
	require.Contains(t, calls, "--private")
	require.Contains(t, calls, "ref=refs/heads/development sha=abc123")
	require.Contains(t, calls, "ref=refs/heads/staging sha=abc123")
	require.Contains(t, calls, "ref=refs/heads/production sha=abc123")
	require.Contains(t, calls, "ref=refs/heads/secure sha=abc123")
	require.Contains(t, calls, "default_branch=development")
}

// TestRunPublishesRepositoryVariables verifies the AWS deploy settings land
// in the repository's actions variables.
func TestRunPublishesRepositoryVariables(t *testing.T) {
	t.Parallel()

	tool, logPath := stubTool(t, t.TempDir())

	require.NoError(t, Run(context.Background(), testOptions(tool)))

	contents, err := os.ReadFile(logPath)
	require.NoError(t, err)

	calls := strings.TrimSpace(string(contents))
	require.Contains(t, calls,
		"api repos/kicksaw-consulting/salesforce-integration/actions/variables -f name=AWS_REGION -f value=us-west-2")
	require.Contains(t, calls,
		"api repos/kicksaw-consulting/salesforce-integration/actions/variables -f name=AWS_ACCOUNT_ID -f value=123456789012")
}

// TestRunProtectsBranches verifies the review policy is applied to every
// protected branch and that only development exempts administrators.
func TestRunProtectsBranches(t *testing.T) {
	t.Parallel()

	tool, logPath := stubTool(t, t.TempDir())

	require.NoError(t, Run(context.Background(), testOptions(tool)))

	contents, err := os.ReadFile(logPath)
	require.NoError(t, err)

	calls := strings.TrimSpace(string(contents))
	for _, branch := range []string{"main", "staging", "secure"} {
		require.Contains(t, calls,
			"branches/"+branch+"/protection -F required_status_checks=null -F enforce_admins=true")
	}

	require.Contains(t, calls,
		"branches/development/protection -F required_status_checks=null -F enforce_admins=false")
	require.Contains(t, calls, "required_pull_request_reviews[require_code_owner_reviews]=true")
	require.Contains(t, calls, "required_linear_history=true")
	require.NotContains(t, calls, "branches/production/protection")
}

// TestRunRequiredInputs validates the required inputs.
func TestRunRequiredInputs(t *testing.T) {
	t.Parallel()

	base := testOptions("gh")

	missingOwner := *base
	missingOwner.Owner = ""
	require.ErrorIs(t, Run(context.Background(), &missingOwner), errOwnerRequired)

	missingRepo := *base
	missingRepo.Repository = ""
	require.ErrorIs(t, Run(context.Background(), &missingRepo), errRepositoryRequired)

	missingRegion := *base
	missingRegion.AWSRegion = ""
	require.ErrorIs(t, Run(context.Background(), &missingRegion), errRegionRequired)

	missingAccount := *base
	missingAccount.AWSAccountID = ""
	require.ErrorIs(t, Run(context.Background(), &missingAccount), errAccountRequired)
}
