// Package aws wraps AWS SDK v2 configuration loading and the one identity
// lookup this project needs: resolving the target account ID from the
// caller's credentials when settings leave it unset.
package aws
