// Package registry maps validator ids to bound implementations, following
// spec.md §4.2's two-layer structure (class registration, instance cache)
// and mandatory lifecycle (reset; register; instantiate_all;
// validate_required).
//
// Unlike the Python original's class-level mutable state (a deliberate
// anti-pattern in Go, where package-level singletons leak across tests and
// workers — the very failure mode spec.md §4.2 calls out), Registry is an
// ordinary struct threaded explicitly through the pipeline, the way the
// teacher threads bootstrap config and state instead of relying on package
// globals.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/magnetcad/pipeline/internal/obs"
	"github.com/magnetcad/pipeline/state"
	"github.com/magnetcad/pipeline/taxonomy"
)

// Validator is the interface every domain collaborator implements. The
// pipeline core never inspects what a Validator does beyond this contract
// (spec.md §1: "domain code is defined entirely by the contract").
type Validator interface {
	// Definition returns this validator's immutable declaration.
	Definition() taxonomy.ValidatorDefinition

	// ShouldSkipUnchanged lets a validator report, cheaply, that its last
	// run is still valid without even computing an input hash (spec.md
	// §4.4 step 3). Most validators return false unconditionally.
	ShouldSkipUnchanged(s *state.Store, lastRun time.Time) bool

	// Validate reads its declared input paths from s, writes its declared
	// output paths into s, and returns the resulting state plus any
	// findings. Returning an error signals an execution error (spec.md
	// §3/§7); returning StateFailed with findings signals a validation
	// failure.
	Validate(ctx context.Context, s *state.Store) (taxonomy.ValidatorState, []taxonomy.Finding, error)
}

// Constructor builds a Validator instance bound to its definition.
type Constructor func(def taxonomy.ValidatorDefinition) (Validator, error)

type classEntry struct {
	def  taxonomy.ValidatorDefinition
	ctor Constructor
}

// Registry is the central map from validator id to implementation.
type Registry struct {
	log       obs.Logger
	classes   map[string]classEntry
	instances map[string]Validator
	required  map[string]struct{}
	failed    map[string]error
}

// New returns an empty Registry. It calls Reset itself, so a fresh Registry
// is ready for RegisterClass and test code starts from the same lifecycle
// state production code does.
func New(log obs.Logger) *Registry {
	r := &Registry{log: obs.WithComponent(log, "registry")}
	r.Reset()
	return r
}

// Reset clears all class registrations, instances, and required markers.
// MUST precede RegisterClass calls in each process/worker lifecycle to
// avoid leaked state across test runs (spec.md §4.2).
func (r *Registry) Reset() {
	r.classes = make(map[string]classEntry)
	r.instances = make(map[string]Validator)
	r.required = make(map[string]struct{})
	r.failed = make(map[string]error)
}

// RegisterClass registers a validator implementation class (here, a
// constructor closure) for def.ID. Re-registering the same id overwrites
// the previous entry, matching the original's dict-assignment semantics.
func (r *Registry) RegisterClass(def taxonomy.ValidatorDefinition, ctor Constructor) {
	r.classes[def.ID] = classEntry{def: def, ctor: ctor}
}

// MarkRequired marks id as mandatory: the pipeline must refuse to start if
// no implementation was registered for it, or if instantiation raised
// (spec.md §4.2 — "a deliberate design decision: silent skipping of a
// required validator historically allowed the aggregator to pass a gate
// that had never been checked").
func (r *Registry) MarkRequired(id string) {
	r.required[id] = struct{}{}
}

// InstantiateAll constructs an instance for every registered class. Failures
// for non-required ids are logged and recorded, not propagated; required-id
// failures surface later through ValidateRequired, per spec.md §4.2's
// "Mandatory calling order."
func (r *Registry) InstantiateAll() int {
	for id, entry := range r.classes {
		v, err := entry.ctor(entry.def)
		if err != nil {
			r.failed[id] = err
			r.log.Warn("validator failed to instantiate", "validator_id", id, "error", err)
			continue
		}
		r.instances[id] = v
	}
	return len(r.instances)
}

// ValidateRequired verifies every required id has both a registered class
// and a successfully instantiated instance. It must be called after
// InstantiateAll.
func (r *Registry) ValidateRequired() error {
	var missingClass, missingInstance []string
	for id := range r.required {
		if _, ok := r.classes[id]; !ok {
			missingClass = append(missingClass, id)
			continue
		}
		if _, ok := r.instances[id]; !ok {
			missingInstance = append(missingInstance, id)
		}
	}
	if len(missingClass) > 0 {
		return fmt.Errorf("registry: required validators missing class implementations: %v", missingClass)
	}
	if len(missingInstance) > 0 {
		return fmt.Errorf("registry: required validators failed to instantiate: %v", missingInstance)
	}
	return nil
}

// Instance returns the bound instance for id, if one exists.
func (r *Registry) Instance(id string) (Validator, bool) {
	v, ok := r.instances[id]
	return v, ok
}

// IsRequired reports whether id was marked required.
func (r *Registry) IsRequired(id string) bool {
	_, ok := r.required[id]
	return ok
}

// Definitions returns the declarations of every registered class, in
// registration order is not guaranteed — callers needing a stable order
// should sort by ID.
func (r *Registry) Definitions() []taxonomy.ValidatorDefinition {
	out := make([]taxonomy.ValidatorDefinition, 0, len(r.classes))
	for _, entry := range r.classes {
		out = append(out, entry.def)
	}
	return out
}

// AllInstances returns every successfully instantiated validator, keyed by
// id.
func (r *Registry) AllInstances() map[string]Validator {
	out := make(map[string]Validator, len(r.instances))
	for k, v := range r.instances {
		out[k] = v
	}
	return out
}
