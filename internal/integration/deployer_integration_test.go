package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kicksaw-consulting/integration-deployer/internal/service/deployer"
	"github.com/kicksaw-consulting/integration-deployer/internal/service/packager"
)

// chdir switches the working directory for the test and restores it afterwards.
func chdir(t *testing.T, dir string) {
	t.Helper()

	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(prev))
	})
}

// stubDeploy answers `deploy ... --outputs-file <path>` by checking that both
// archives exist at invocation time and writing a plausible outputs document.
func stubDeploy(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "deploy-stub")
	writeScript(t, path, `out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "--outputs-file" ]; then out="$a"; fi
  prev="$a"
done
[ -f code.zip ] || { echo "code archive missing" >&2; exit 1; }
[ -f dependencies.zip ] || { echo "dependency archive missing" >&2; exit 1; }
cat > "$out" <<'OUTPUTS'
{
  "salesforce-integration-testing-main": {
    "StorageBucketName": "salesforce-integration-testing-storage"
  }
}
OUTPUTS
`)

	return path
}

// TestDeployer_EndToEnd packages, "deploys" via a stub CLI and verifies the
// archives are removed once the run finishes.
func TestDeployer_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	writeSourceTree(t)

	cfg := testConfig(t, dir)
	cfg.AWSRegion = "us-west-2"
	cfg.AWSAccountID = "123456789012"
	cfg.DeployCommand = stubDeploy(t, dir)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, deployer.Run(ctx, cfg))

	// Outputs were written by the deploy tool.
	_, err := os.Stat(cfg.OutputsFile)
	require.NoError(t, err)

	// Archives are transient: consumed by the deploy step, then released.
	_, err = os.Stat(packager.CodeArchiveName)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = os.Stat(packager.DependencyArchiveName)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestDeployer_FailedDeployStillReleasesArchives verifies scoped cleanup on failure.
func TestDeployer_FailedDeployStillReleasesArchives(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	writeSourceTree(t)

	cfg := testConfig(t, dir)
	cfg.AWSRegion = "us-west-2"
	cfg.AWSAccountID = "123456789012"

	failing := filepath.Join(dir, "deploy-failing")
	writeScript(t, failing, `echo "stack rollback" >&2
exit 1
`)
	cfg.DeployCommand = failing

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := deployer.Run(ctx, cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "stack rollback")

	_, err = os.Stat(packager.CodeArchiveName)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = os.Stat(packager.DependencyArchiveName)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestDeployer_RequiresRegion refuses to deploy without a target region.
func TestDeployer_RequiresRegion(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfg := testConfig(t, dir)
	cfg.AWSAccountID = "123456789012"

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.Error(t, deployer.Run(ctx, cfg))
}
