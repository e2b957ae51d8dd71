// Package config defines project settings used by the deployment binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Settings come from a YAML file overlaid with .env files and the process
// environment, and are carried as an explicit Config object rather than
// shared global state.
package config
