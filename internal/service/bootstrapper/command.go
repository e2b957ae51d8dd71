package bootstrapper

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/kicksaw-consulting/integration-deployer/internal/logger"
	"github.com/kicksaw-consulting/integration-deployer/internal/service/common"
)

// defaultBranch becomes the repository's default branch after topology setup.
const defaultBranch = "development"

// branches are created from the initial commit, ordered for readable logs.
var branches = []string{"development", "staging", "production", "secure"}

// protection is the review policy applied to one branch. Every protected
// branch requires pull requests with code-owner review; only development
// lets administrators bypass the checks.
type protection struct {
	// branch is the protected branch name.
	branch string
	// enforceAdmins extends the policy to repository administrators.
	enforceAdmins bool
}

// protectedBranches lists the branches that carry a review policy.
// Production is a deploy target, not a merge target, and stays unprotected.
var protectedBranches = []protection{
	{branch: "main", enforceAdmins: true},
	{branch: "staging", enforceAdmins: true},
	{branch: "secure", enforceAdmins: true},
	{branch: "development", enforceAdmins: false},
}

// repositoryVariables are the deploy settings published to the repository's
// CI as actions variables, keyed in the order they are created.
var repositoryVariables = []string{"AWS_REGION", "AWS_ACCOUNT_ID"}

// Options contains inputs for the bootstrapper entry point.
type Options struct {
	// Owner is the organization or user the repository is created under.
	Owner string
	// Repository is the name of the repository to create.
	Repository string
	// Description is the repository description.
	Description string
	// AWSRegion is published to CI as the AWS_REGION repository variable.
	AWSRegion string
	// AWSAccountID is published to CI as the AWS_ACCOUNT_ID repository variable.
	AWSAccountID string
	// Private makes the created repository private.
	Private bool
	// Tool is the repository CLI to drive. Defaults to gh.
	Tool string
}

var (
	// errOwnerRequired is returned when no owner is provided.
	errOwnerRequired = errors.New("repository owner must be provided")
	// errRepositoryRequired is returned when no repository name is provided.
	errRepositoryRequired = errors.New("repository name must be provided")
	// errRegionRequired is returned when no AWS region is provided.
	errRegionRequired = errors.New("aws region must be provided")
	// errAccountRequired is returned when no AWS account ID is provided.
	errAccountRequired = errors.New("aws account id must be provided")
	// errRefMissingSHA is returned when the base ref lookup yields no commit SHA.
	errRefMissingSHA = errors.New("base ref has no commit SHA")
)

// Run creates the repository and prepares it for deployments: main carries
// the initial commit, the standard branches are cut from it, the AWS deploy
// settings are published as repository variables, the review policy is
// applied to the protected branches and development becomes the default.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "integration-bootstrapper")

	if opts.Owner == "" {
		return errOwnerRequired
	}

	if opts.Repository == "" {
		return errRepositoryRequired
	}

	if opts.AWSRegion == "" {
		return errRegionRequired
	}

	if opts.AWSAccountID == "" {
		return errAccountRequired
	}

	tool := opts.Tool
	if tool == "" {
		tool = "gh"
	}

	var (
		runner   = &common.Runner{}
		fullName = opts.Owner + "/" + opts.Repository
	)

	if err := createRepository(ctx, runner, tool, fullName, opts); err != nil {
		return err
	}

	if err := setRepositoryVariables(ctx, runner, tool, fullName, opts); err != nil {
		return err
	}

	sha, err := mainRefSHA(ctx, runner, tool, fullName)
	if err != nil {
		return err
	}

	for _, branch := range branches {
		logger.InfoKV(ctx, "Creating branch", "branch", branch)

		err = runner.Run(ctx, tool,
			"api", fmt.Sprintf("repos/%s/git/refs", fullName),
			"-f", "ref=refs/heads/"+branch,
			"-f", "sha="+sha)
		if err != nil {
			return fmt.Errorf("create branch %s: %w", branch, err)
		}
	}

	if err = protectBranches(ctx, runner, tool, fullName); err != nil {
		return err
	}

	err = runner.Run(ctx, tool,
		"api", "-X", "PATCH", "repos/"+fullName,
		"-f", "default_branch="+defaultBranch)
	if err != nil {
		return fmt.Errorf("set default branch: %w", err)
	}

	logger.InfoKV(ctx, "Repository bootstrapped",
		"repository", fullName,
		"default_branch", defaultBranch)

	return nil
}

// createRepository creates the repository with an initial commit so the
// branch topology has something to branch from.
func createRepository(ctx context.Context, runner *common.Runner, tool, fullName string, opts *Options) error {
	createArgs := []string{"repo", "create", fullName, "--add-readme"}
	if opts.Description != "" {
		createArgs = append(createArgs, "--description", opts.Description)
	}

	if opts.Private {
		createArgs = append(createArgs, "--private")
	} else {
		createArgs = append(createArgs, "--public")
	}

	logger.InfoKV(ctx, "Creating repository", "repository", fullName)

	if err := runner.Run(ctx, tool, createArgs...); err != nil {
		return fmt.Errorf("create repository: %w", err)
	}

	return nil
}

// setRepositoryVariables publishes the AWS deploy settings as actions
// variables so the repository's CI can target the right account.
func setRepositoryVariables(ctx context.Context, runner *common.Runner, tool, fullName string, opts *Options) error {
	values := map[string]string{
		"AWS_REGION":     opts.AWSRegion,
		"AWS_ACCOUNT_ID": opts.AWSAccountID,
	}

	for _, name := range repositoryVariables {
		logger.InfoKV(ctx, "Setting repository variable", "name", name, "value", values[name])

		err := runner.Run(ctx, tool,
			"api", fmt.Sprintf("repos/%s/actions/variables", fullName),
			"-f", "name="+name,
			"-f", "value="+values[name])
		if err != nil {
			return fmt.Errorf("set repository variable %s: %w", name, err)
		}
	}

	return nil
}

// protectBranches applies the review policy to every protected branch:
// pull requests with code-owner review, stale reviews dismissed, linear
// history, no force pushes, no deletions.
func protectBranches(ctx context.Context, runner *common.Runner, tool, fullName string) error {
	for _, p := range protectedBranches {
		logger.InfoKV(ctx, "Protecting branch",
			"branch", p.branch,
			"enforce_admins", p.enforceAdmins)

		err := runner.Run(ctx, tool,
			"api", "-X", "PUT", fmt.Sprintf("repos/%s/branches/%s/protection", fullName, p.branch),
			"-F", "required_status_checks=null",
			"-F", "enforce_admins="+strconv.FormatBool(p.enforceAdmins),
			"-F", "required_pull_request_reviews[dismiss_stale_reviews]=true",
			"-F", "required_pull_request_reviews[require_code_owner_reviews]=true",
			"-F", "restrictions=null",
			"-F", "required_linear_history=true",
			"-F", "allow_force_pushes=false",
			"-F", "allow_deletions=false")
		if err != nil {
			return fmt.Errorf("protect branch %s: %w", p.branch, err)
		}
	}

	return nil
}

// mainRefSHA resolves the commit SHA of the initial main branch.
func mainRefSHA(ctx context.Context, runner *common.Runner, tool, fullName string) (string, error) {
	out, err := runner.Output(ctx, tool,
		"api", fmt.Sprintf("repos/%s/git/ref/heads/main", fullName))
	if err != nil {
		return "", fmt.Errorf("read main ref: %w", err)
	}

	sha := gjson.GetBytes(out, "object.sha").String()
	if sha == "" {
		return "", errRefMissingSHA
	}

	return sha, nil
}
