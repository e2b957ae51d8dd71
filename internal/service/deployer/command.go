package deployer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	awsx "github.com/kicksaw-consulting/integration-deployer/internal/aws"
	"github.com/kicksaw-consulting/integration-deployer/internal/config"
	"github.com/kicksaw-consulting/integration-deployer/internal/logger"
	"github.com/kicksaw-consulting/integration-deployer/internal/repository/outputs"
	"github.com/kicksaw-consulting/integration-deployer/internal/service/common"
	"github.com/kicksaw-consulting/integration-deployer/internal/service/packager"
)

// errRegionRequired is returned when the deploy target region is not configured.
var errRegionRequired = errors.New("aws region must be provided for deployment")

// Run packages the integration and deploys the stacks: shared resources
// first, then the environment-specific main stack, both handled by the
// deploy CLI in one invocation. Archives exist only for the duration of the
// run; they are removed on every exit path once packaging has produced them.
func Run(ctx context.Context, cfg *config.Config) error {
	ctx = logger.WithName(ctx, "integration-deployer")

	if err := config.Validate(cfg); err != nil {
		return err
	}

	if cfg.AWSRegion == "" {
		return errRegionRequired
	}

	if err := resolveAccount(ctx, cfg); err != nil {
		return err
	}

	result, err := packager.Run(ctx, cfg)
	if err != nil {
		return err
	}

	// The archives are transient build inputs consumed by the deploy step.
	defer func() {
		_ = os.Remove(result.CodeArchivePath)
		_ = os.Remove(result.DependencyArchivePath)
	}()

	if err = deployStacks(ctx, cfg); err != nil {
		return err
	}

	return reportOutputs(ctx, cfg)
}

// resolveAccount fills in the target account ID via STS when settings leave it unset.
func resolveAccount(ctx context.Context, cfg *config.Config) error {
	if cfg.AWSAccountID != "" {
		return nil
	}

	awsCfg, err := awsx.LoadConfig(ctx, awsx.WithRegion(cfg.AWSRegion), awsx.WithProfile(cfg.AWSProfile))
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	accountID, err := awsx.ResolveAccountID(ctx, awsCfg)
	if err != nil {
		return fmt.Errorf("resolve account: %w", err)
	}

	cfg.AWSAccountID = accountID

	logger.InfoKV(ctx, "Resolved target account from caller identity", "account_id", accountID)

	return nil
}

// deployStacks invokes the infrastructure deploy CLI with the project
// settings passed through the child environment, the way the stacks
// expect to read them.
func deployStacks(ctx context.Context, cfg *config.Config) error {
	outputsPath := filepath.Join(cfg.OutputDir, cfg.OutputsFile)

	logger.InfoKV(ctx, "Deploying stacks",
		"shared", cfg.SharedStackName(),
		"main", cfg.MainStackName(),
		"region", cfg.AWSRegion)

	extraEnv := []string{
		"PROJECT_SLUG=" + cfg.ProjectSlug,
		"ENVIRONMENT=" + cfg.Environment,
		"AWS_RESOURCE_SUFFIX=" + cfg.ResourceSuffix,
		"AWS_REGION=" + cfg.AWSRegion,
		"AWS_ACCOUNT_ID=" + cfg.AWSAccountID,
	}
	if cfg.AWSProfile != "" {
		extraEnv = append(extraEnv, "AWS_PROFILE="+cfg.AWSProfile)
	}

	runner := &common.Runner{
		ExtraEnv: extraEnv,
		Timeout:  cfg.Timeout,
	}

	err := runner.Run(ctx, cfg.DeployCommand,
		"deploy",
		"--all",
		"--require-approval", "never",
		"--outputs-file", outputsPath)
	if err != nil {
		return fmt.Errorf("deploy stacks: %w", err)
	}

	return nil
}

// reportOutputs reads the outputs file back and logs every stack output.
func reportOutputs(ctx context.Context, cfg *config.Config) error {
	repo := outputs.NewFileRepository(filepath.Join(cfg.OutputDir, cfg.OutputsFile))

	stacks, err := repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("read stack outputs: %w", err)
	}

	for stack, values := range stacks {
		for key, value := range values {
			logger.InfoKV(ctx, "Stack output", "stack", stack, "key", key, "value", value)
		}
	}

	return nil
}
