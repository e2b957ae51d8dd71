package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kicksaw-consulting/integration-deployer/internal/config"
	"github.com/kicksaw-consulting/integration-deployer/internal/logger"
	"github.com/kicksaw-consulting/integration-deployer/internal/service/packager"
	"github.com/kicksaw-consulting/integration-deployer/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// outputDir receives the finished archives.
	outputDir string
	// logLevel selects logging verbosity.
	logLevel string

	// rootCmd represents the base command producing the deployment archives.
	rootCmd = &cobra.Command{
		Use:   "integration-packager",
		Short: "Package the integration into deployable archives",
		Long: `Builds the two archives the deployment consumes: a code archive with the
filtered application source, and a dependency archive with pinned third-party
packages laid out under the runtime's import prefix.

Settings come from the YAML settings file overlaid with .env files and the
process environment.`,
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

			if outputDir != "" {
				cfg.OutputDir = outputDir
			}

			_, err = packager.Run(ctx, cfg)

			return err
		},
	}
)

// Execute runs the integration-packager CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory receiving the finished archives")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "info", "logging level (debug, info, warn, error)")
}
