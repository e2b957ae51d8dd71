package aws

import (
	"context"
	"errors"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// errEmptyAccountID is returned when STS answers without an account field.
var errEmptyAccountID = errors.New("caller identity has no account ID")

// options holds optional overrides for AWS config loading.
type options struct {
	profile string
	region  string
}

// Option customizes how AWS config is loaded.
// Default behavior (no options) inherits the shell environment and shared
// config chain (AWS_PROFILE, ~/.aws/config, ~/.aws/credentials, IMDS, etc.).
type Option func(*options)

// WithProfile sets the shared config profile. Defaults to AWS_PROFILE/env chain.
func WithProfile(profile string) Option {
	return func(o *options) { o.profile = profile }
}

// WithRegion sets the region override. Defaults to env/profile/metadata chain.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// LoadConfig loads AWS SDK v2 config. By default it inherits the shell's
// AWS setup (AWS_PROFILE, shared config, env, IMDS). Options can override
// profile and region without changing callers.
func LoadConfig(ctx context.Context, opts ...Option) (awsv2.Config, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if o.profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(o.profile))
	}

	if o.region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(o.region))
	}

	return awsconfig.LoadDefaultConfig(ctx, loadOpts...)
}

// ResolveAccountID returns the account ID of the current credentials
// via STS GetCallerIdentity. Used when settings leave the account unset.
func ResolveAccountID(ctx context.Context, cfg awsv2.Config) (string, error) {
	identity, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("get caller identity: %w", err)
	}

	if identity.Account == nil || *identity.Account == "" {
		return "", errEmptyAccountID
	}

	return *identity.Account, nil
}
