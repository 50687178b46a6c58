// Package registry selects one objective backend by kind at construction time.
//
// Each backend lives in its own module package and contributes a constructor
// through Module.Register. The application registers every module it ships
// with once at startup and then asks the registry for the configured kind;
// after construction the caller only ever sees the objective.Objective
// interface.
package registry
