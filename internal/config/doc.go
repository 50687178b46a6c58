// Package config defines the format-agnostic side of objective configuration:
// the Loader interface that decodes a configuration file into a module's own
// Go struct, and the Error type every construction-time configuration problem
// is reported with.
//
// Concrete formats live elsewhere; the HCL implementation is in hcl_adapter.
package config
