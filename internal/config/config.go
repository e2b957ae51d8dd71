package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds project settings shared by the deployment binaries.
// It is constructed once at process start and passed by reference;
// there is no package-level settings state.
type Config struct {
	// ProjectSlug identifies the project and prefixes every derived resource name.
	ProjectSlug string `yaml:"project_slug"`
	// Environment selects the deployment environment (testing, development, staging, production).
	Environment string `yaml:"environment"`
	// ResourceSuffix disambiguates cloud resource names. Defaults to Environment.
	ResourceSuffix string `yaml:"resource_suffix"`
	// AWSRegion is the region stacks are deployed to.
	AWSRegion string `yaml:"aws_region"`
	// AWSAccountID is the target account. Resolved via STS when empty.
	AWSAccountID string `yaml:"aws_account_id"`
	// AWSProfile selects the shared credentials profile. Empty uses the default chain.
	AWSProfile string `yaml:"aws_profile,omitempty"`
	// SourceDirs are the directories whose code is packaged into the code archive.
	SourceDirs []string `yaml:"source_dirs"`
	// CodeFilePattern is the glob matched against file names to decide what survives packaging.
	CodeFilePattern string `yaml:"code_file_pattern"`
	// ManifestPath is the dependency manifest consumed by the exporter.
	ManifestPath string `yaml:"manifest_path"`
	// Runtime is the target runtime identifier, e.g. python3.12.
	// It becomes a path segment of the dependency import prefix.
	Runtime string `yaml:"runtime"`
	// ExporterCommand is the CLI that exports the manifest into a pinned requirements list.
	ExporterCommand string `yaml:"exporter_command"`
	// InstallerCommand is the CLI that installs pinned requirements into a target directory.
	InstallerCommand string `yaml:"installer_command"`
	// DeployCommand is the infrastructure-as-code CLI that deploys the stacks.
	DeployCommand string `yaml:"deploy_command"`
	// OutputDir is where finished archives are handed off to.
	OutputDir string `yaml:"output_dir"`
	// OutputsFile is the machine-readable outputs file written by the deploy tool.
	OutputsFile string `yaml:"outputs_file"`
	// Timeout bounds every external collaborator invocation.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for project settings.
	DefaultConfigFilename = "deployer-settings.yaml"

	// DefaultCodeFilePattern keeps interpretable source files only.
	DefaultCodeFilePattern = "*.py"

	// DefaultManifestPath is the dependency manifest of the integration.
	DefaultManifestPath = "pyproject.toml"

	// DefaultRuntime is the target runtime of the packaged function.
	DefaultRuntime = "python3.12"

	// DefaultOutputsFilename is where the deploy tool writes stack outputs.
	DefaultOutputsFilename = "cdk-outputs.json"

	// DefaultTimeout bounds a single collaborator command.
	// Dependency installs and stack deploys are slow, so it is generous.
	DefaultTimeout = 15 * time.Minute

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

// environments lists the accepted Environment values,
// mirroring the project's environment model.
var environments = map[string]struct{}{
	"testing":     {},
	"development": {},
	"staging":     {},
	"production":  {},
}

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errProjectSlugRequired is returned when the project slug is missing.
	errProjectSlugRequired = errors.New("project slug must be provided")
	// errEnvironmentUnknown is returned when the environment is missing or not recognized.
	errEnvironmentUnknown = errors.New("environment must be one of: testing, development, staging, production")
)

// envFiles are the dotenv locations consulted before reading the process environment.
var envFiles = []string{".env", filepath.Join("integration", "config", ".env")}

// Load reads configuration from the provided path, overlays environment
// variables (including .env files) and validates essential fields.
// A missing settings file is not an error: the environment may supply everything.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	var cfg Config

	contents, err := os.ReadFile(filepath.Clean(path))
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Fall through to environment-only configuration.
	case err != nil:
		return nil, fmt.Errorf("read settings: %w", err)
	default:
		if err = yaml.Unmarshal(contents, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	}

	applyEnvironment(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills in defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ProjectSlug == "" {
		return errProjectSlugRequired
	}

	if _, ok := environments[cfg.Environment]; !ok {
		return fmt.Errorf("%q: %w", cfg.Environment, errEnvironmentUnknown)
	}

	if cfg.ResourceSuffix == "" {
		cfg.ResourceSuffix = cfg.Environment
	}

	if len(cfg.SourceDirs) == 0 {
		cfg.SourceDirs = []string{"handlers", "integration"}
	}

	if cfg.CodeFilePattern == "" {
		cfg.CodeFilePattern = DefaultCodeFilePattern
	}

	if cfg.ManifestPath == "" {
		cfg.ManifestPath = DefaultManifestPath
	}

	if cfg.Runtime == "" {
		cfg.Runtime = DefaultRuntime
	}

	if cfg.ExporterCommand == "" {
		cfg.ExporterCommand = "poetry"
	}

	if cfg.InstallerCommand == "" {
		cfg.InstallerCommand = "pip"
	}

	if cfg.DeployCommand == "" {
		cfg.DeployCommand = "cdk"
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}

	if cfg.OutputsFile == "" {
		cfg.OutputsFile = DefaultOutputsFilename
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return nil
}

// ImportPrefix returns the runtime-specific directory prefix where installed
// dependencies must reside to be discoverable at execution time.
func (c *Config) ImportPrefix() string {
	return path.Join("python", "lib", c.Runtime, "site-packages")
}

// SharedStackName returns the name of the stack holding resources shared across environments.
func (c *Config) SharedStackName() string {
	return c.ProjectSlug + "-shared-resources"
}

// MainStackName returns the name of the environment-specific main stack.
func (c *Config) MainStackName() string {
	return c.ProjectSlug + "-" + c.ResourceSuffix + "-main"
}

// applyEnvironment overlays .env files and process environment variables onto cfg.
// Process environment wins over .env files; both win over the settings file.
func applyEnvironment(cfg *Config) {
	// Missing .env files are fine; godotenv never overrides variables already set.
	for _, file := range envFiles {
		_ = godotenv.Load(file)
	}

	overlay := func(dst *string, key string) {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			*dst = value
		}
	}

	overlay(&cfg.ProjectSlug, "PROJECT_SLUG")
	overlay(&cfg.Environment, "ENVIRONMENT")
	overlay(&cfg.ResourceSuffix, "AWS_RESOURCE_SUFFIX")
	overlay(&cfg.AWSRegion, "AWS_REGION")
	overlay(&cfg.AWSAccountID, "AWS_ACCOUNT_ID")
	overlay(&cfg.AWSProfile, "AWS_PROFILE")
}
