// Package contracts implements spec.md §4.6's PhaseContract: a declarative
// statement, per canonical phase, of required inputs and required outputs,
// each checkable before (pre-condition) and after (post-condition) a phase
// runs.
package contracts

import (
	"fmt"

	"github.com/magnetcad/pipeline/state"
	"github.com/magnetcad/pipeline/taxonomy"
)

// PathValidator optionally checks a path's value beyond mere presence
// (spec.md §4.6: "optional range/enum validator").
type PathValidator func(v state.Value) error

// PathSpec names a required path with an optional value validator.
type PathSpec struct {
	Path      string
	Validator PathValidator
}

// PhaseContract declares what a phase requires on entry and must produce on
// exit.
type PhaseContract struct {
	Phase           taxonomy.PhaseID
	RequiredInputs  []PathSpec
	RequiredOutputs []PathSpec
}

// ContractResult is the typed outcome of a pre/post condition check
// (spec.md §4.6, §7: "Phase refuses to run (pre) or to advance (post)").
type ContractResult struct {
	OK     bool
	Errors []string
}

// ContractViolationError wraps a failed ContractResult as an error, for
// callers that want Go-idiomatic error propagation (spec.md §7's Topology
// error analogue for contracts).
type ContractViolationError struct {
	Phase  taxonomy.PhaseID
	Result ContractResult
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("contracts: phase %s violated its contract: %v", e.Phase, e.Result.Errors)
}

func checkSpecs(s *state.Store, specs []PathSpec) []string {
	var errs []string
	for _, spec := range specs {
		p := state.Path(spec.Path)
		if !s.Has(p) {
			errs = append(errs, fmt.Sprintf("missing required path %q", spec.Path))
			continue
		}
		if spec.Validator != nil {
			v := s.Get(p, state.Null())
			if err := spec.Validator(v); err != nil {
				errs = append(errs, fmt.Sprintf("path %q failed validation: %v", spec.Path, err))
			}
		}
	}
	return errs
}

// CheckPre evaluates whether a phase's required inputs are present and
// valid, before the phase is allowed to run.
func CheckPre(s *state.Store, c PhaseContract) ContractResult {
	errs := checkSpecs(s, c.RequiredInputs)
	return ContractResult{OK: len(errs) == 0, Errors: errs}
}

// CheckPost evaluates whether a phase's required outputs are present and
// valid, after the phase has run, before the design is allowed to advance.
func CheckPost(s *state.Store, c PhaseContract) ContractResult {
	errs := checkSpecs(s, c.RequiredOutputs)
	return ContractResult{OK: len(errs) == 0, Errors: errs}
}

// OwnedPaths returns every path this phase's contract names, for the
// aggregator's stale-parameter scan (spec.md §4.5 signal 3).
func (c PhaseContract) OwnedPaths() []string {
	out := make([]string, 0, len(c.RequiredInputs)+len(c.RequiredOutputs))
	for _, s := range c.RequiredInputs {
		out = append(out, s.Path)
	}
	for _, s := range c.RequiredOutputs {
		out = append(out, s.Path)
	}
	return out
}
