// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/specialistvlad/moldyngo/internal/config"
	"github.com/specialistvlad/moldyngo/internal/ctxlog"
	"github.com/specialistvlad/moldyngo/internal/metrics"
	"github.com/specialistvlad/moldyngo/internal/objective"
)

// Kind names an objective backend.
type Kind string

const (
	KindMoldynam Kind = "moldynam"
	KindLookup   Kind = "lookup"
	// KindDocking is a recognised backend that this build does not ship.
	KindDocking Kind = "docking"
)

// ErrUnknownObjective is returned when no module registered the requested kind.
var ErrUnknownObjective = errors.New("unknown objective")

// Options are passed unchanged to every constructor.
type Options struct {
	// Minimize selects the sign convention; see objective.Polarity.
	Minimize bool
	// Loader decodes the objective's configuration file.
	Loader config.Loader
	// Metrics may be nil.
	Metrics *metrics.Recorder
}

// Constructor builds an objective from the configuration file at path.
type Constructor func(ctx context.Context, path string, opts Options) (objective.Objective, error)

// Module is the interface that all objective modules implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry maps kinds to constructors.
type Registry struct {
	constructors map[Kind]Constructor
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{constructors: make(map[Kind]Constructor)}
}

// Register adds the constructor for kind. Registering a kind twice is a
// programming error and panics.
func (r *Registry) Register(kind Kind, ctor Constructor) {
	if _, exists := r.constructors[kind]; exists {
		panic(fmt.Sprintf("objective kind '%s' already registered", kind))
	}
	r.constructors[kind] = ctor
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.constructors))
	for k := range r.constructors {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// New constructs the objective registered under kind.
func (r *Registry) New(ctx context.Context, kind Kind, path string, opts Options) (objective.Objective, error) {
	logger := ctxlog.FromContext(ctx)

	ctor, ok := r.constructors[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownObjective, kind, r.Kinds())
	}
	logger.Debug("Constructing objective.", "kind", kind, "config", path, "minimize", opts.Minimize)

	obj, err := ctor(ctx, path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to construct %s objective: %w", kind, err)
	}
	logger.Info("Objective ready.", "kind", kind)
	return obj, nil
}
