package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kicksaw-consulting/integration-deployer/internal/config"
	"github.com/kicksaw-consulting/integration-deployer/internal/logger"
	"github.com/kicksaw-consulting/integration-deployer/internal/service/deployer"
	"github.com/kicksaw-consulting/integration-deployer/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// awsProfile overrides the shared credentials profile from settings.
	awsProfile string
	// logLevel selects logging verbosity.
	logLevel string

	// rootCmd represents the base command packaging and deploying the stacks.
	rootCmd = &cobra.Command{
		Use:   "integration-deployer",
		Short: "Package the integration and deploy the cloud stacks",
		Long: `Runs the full deployment: packages the integration into its code and
dependency archives, invokes the infrastructure deploy tool for the shared
and environment-specific stacks, and reports the resulting stack outputs.

The target account is resolved from the caller's AWS credentials when the
settings leave it unset. Archives are removed when the run ends.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			if awsProfile != "" {
				cfg.AWSProfile = awsProfile
			}

			return deployer.Run(ctx, cfg)
		},
	}
)

// Execute runs the integration-deployer CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&awsProfile, "profile", "p", "", "AWS shared credentials profile")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "info", "logging level (debug, info, warn, error)")
}
