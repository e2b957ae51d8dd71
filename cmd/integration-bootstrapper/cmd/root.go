package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kicksaw-consulting/integration-deployer/internal/logger"
	"github.com/kicksaw-consulting/integration-deployer/internal/service/bootstrapper"
	"github.com/kicksaw-consulting/integration-deployer/internal/version"
)

var (
	// description of the created repository.
	description string
	// awsRegion is published to CI as the AWS_REGION repository variable.
	awsRegion string
	// awsAccountID is published to CI as the AWS_ACCOUNT_ID repository variable.
	awsAccountID string
	// private makes the created repository private.
	private bool
	// tool is the repository CLI to drive.
	tool string
	// logLevel selects logging verbosity.
	logLevel string

	// rootCmd represents the base command creating the project repository.
	rootCmd = &cobra.Command{
		Use:   "integration-bootstrapper [owner] [repository]",
		Short: "Create the project repository with its branch topology, protection rules and deploy variables",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			options := &bootstrapper.Options{
				Owner:        args[0],
				Repository:   args[1],
				Description:  description,
				AWSRegion:    awsRegion,
				AWSAccountID: awsAccountID,
				Private:      private,
				Tool:         tool,
			}

			return bootstrapper.Run(ctx, options)
		},
	}
)

// Execute runs the integration-bootstrapper CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&description, "description", "d", "", "repository description")
	rootCmd.Flags().StringVar(&awsRegion, "aws-region", "", "AWS region published as a repository variable")
	rootCmd.Flags().StringVar(&awsAccountID, "aws-account-id", "", "AWS account ID published as a repository variable")
	rootCmd.Flags().BoolVarP(&private, "private", "p", true, "create the repository as private")
	rootCmd.Flags().StringVarP(&tool, "tool", "t", "gh", "repository CLI to drive")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "info", "logging level (debug, info, warn, error)")
}
