package app

import (
	"github.com/specialistvlad/moldyngo/internal/registry"
	"github.com/specialistvlad/moldyngo/modules/lookup"
	"github.com/specialistvlad/moldyngo/modules/moldynam"
)

// coreModules is the definitive list of all objective modules that are
// compiled into the moldyngo binary.
var coreModules = []registry.Module{
	&moldynam.Module{},
	&lookup.Module{},
}
