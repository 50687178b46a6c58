// Package driver launches the external batch driver over a set of workspaces
// and supervises it until it exits.
//
// Every batch goes through the same steps: the workspace paths are written to
// the manifest file (atomically, so the driver never reads a half-written
// manifest from an earlier failed call), the driver is started in its own
// process group with stdout and stderr merged, and its output is drained into
// the batch's line sink until the process ends. A BatchRun records where a
// batch is in that lifecycle.
package driver
