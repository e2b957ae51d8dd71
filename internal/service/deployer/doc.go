// Package deployer drives a full deployment: package the integration,
// invoke the infrastructure deploy CLI, and report the resulting stack
// outputs. The produced archives are transient and removed when the run
// ends, whichever way it ends.
package deployer
