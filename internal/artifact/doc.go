// Package artifact holds the filesystem-level packaging primitives:
// staging source trees into a scratch copy, filtering them down to code
// files, producing deterministic zip archives, stripping bytecode caches
// from installed dependencies, and validating pinned requirements lists.
//
// Every operation works on paths, never on the original source tree.
package artifact
