package topology

import "fmt"

// CyclicDependencyError is raised during Build when the declared validator
// dependency graph contains a cycle; it names every participant in the
// cycle (spec.md §3 invariant, §8 boundary behavior).
type CyclicDependencyError struct {
	Participants []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("topology: cyclic dependency among validators: %v", e.Participants)
}

// DuplicateProducerError is raised during Build when two validators declare
// the same output path (spec.md §3 invariant: "every producer path appears
// in exactly one validator's produces_parameters").
type DuplicateProducerError struct {
	Path        string
	ValidatorA  string
	ValidatorB  string
}

func (e *DuplicateProducerError) Error() string {
	return fmt.Sprintf("topology: path %q produced by both %q and %q", e.Path, e.ValidatorA, e.ValidatorB)
}

// UnknownValidatorError is raised when a validator's depends_on_validators
// names an id that was never declared.
type UnknownValidatorError struct {
	From, To string
}

func (e *UnknownValidatorError) Error() string {
	return fmt.Sprintf("topology: %q depends on unknown validator %q", e.From, e.To)
}
