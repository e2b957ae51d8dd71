// Package bootstrapper creates the project's version-control repository with
// the standard branch topology (main, development, staging) by driving the
// repository CLI as an external collaborator.
package bootstrapper
