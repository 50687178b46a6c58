// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package moldynam is the molecular-dynamics objective: it resolves molecules
// to pre-built simulation workspaces, runs an external batch driver over
// them, and harvests one result file per workspace.
package moldynam

import (
	"context"

	"github.com/specialistvlad/moldyngo/internal/objective"
	"github.com/specialistvlad/moldyngo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register adds the moldynam constructor to r.
func (m *Module) Register(r *registry.Registry) {
	r.Register(registry.KindMoldynam, func(ctx context.Context, path string, opts registry.Options) (objective.Objective, error) {
		obj, err := New(ctx, path, opts)
		if err != nil {
			return nil, err
		}
		return obj, nil
	})
}
