// Package hcl_adapter provides the HCL implementation of config.Loader.
//
// Objective configuration files are plain HCL attribute/block files decoded
// with gohcl straight into each module's own struct. Expressions are evaluated
// against a small scope:
//
//   - env: an object holding the process environment, e.g. env.MD_ROOT
//   - config_dir: the absolute directory of the file being loaded
//   - upper, lower, trimspace, format, join: string helpers from cty's stdlib
package hcl_adapter
