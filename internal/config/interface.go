// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the configuration file at path and decodes it into target,
	// which must be a pointer to a struct carrying the format's field tags.
	// Defaults are whatever target held before the call.
	Load(ctx context.Context, path string, target any) error
}
