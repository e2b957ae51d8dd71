// Package outputs reads the stack outputs file produced by the
// infrastructure deploy tool.
package outputs
