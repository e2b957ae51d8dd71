// Package packager builds the two deployable archives from a source tree and
// a dependency manifest: a code archive holding the filtered application
// source, and a dependency archive holding pinned third-party packages laid
// out under the runtime's import prefix.
//
// Packaging is all-or-nothing: any failing step aborts the run and no
// partial archive reaches the output directory.
package packager
