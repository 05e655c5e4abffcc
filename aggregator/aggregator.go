// Package aggregator implements spec.md §4.5's per-phase gate decision,
// combining required/recommended validator results, stale-parameter
// checks, missing-implementation checks, and external contract/intent
// violations into a single GateStatus.
package aggregator

import (
	"fmt"
	"sort"

	"github.com/magnetcad/pipeline/contracts"
	"github.com/magnetcad/pipeline/registry"
	"github.com/magnetcad/pipeline/state"
	"github.com/magnetcad/pipeline/taxonomy"
	"github.com/magnetcad/pipeline/topology"
)

// ContractChecker reports external contract violations for a phase — an
// "optional injection" per spec.md §4.5 signal 5.
type ContractChecker interface {
	Violations(phase taxonomy.PhaseID) []string
}

// IntentChecker reports external intent-engine violations for a phase,
// same shape as ContractChecker but a distinct collaborator per spec.md.
type IntentChecker interface {
	Violations(phase taxonomy.PhaseID) []string
}

type noViolations struct{}

func (noViolations) Violations(taxonomy.PhaseID) []string { return nil }

// GateStatus is the phase-level verdict spec.md §3 defines.
type GateStatus struct {
	GateID string
	CanAdvance bool

	RequiredPassed, RequiredFailed     int
	RecommendedPassed, RecommendedFailed int

	BlockingValidators []string
	WarningValidators  []string
	StaleParameters    []string
	MissingValidators  []string
	ContractErrors     []string
	IntentViolations   []string

	Results map[string]taxonomy.ValidationResult

	BlockingMessages []string
	WarningMessages  []string
}

// Aggregator evaluates gates for a fixed Topology and a set of
// PhaseContracts.
type Aggregator struct {
	topo      *topology.Topology
	reg       *registry.Registry
	contracts map[taxonomy.PhaseID]contracts.PhaseContract
	contract  ContractChecker
	intent    IntentChecker
}

// Option configures an Aggregator at construction time.
type Option func(*Aggregator)

// WithContractChecker injects an external contract-violation collaborator.
func WithContractChecker(c ContractChecker) Option {
	return func(a *Aggregator) { a.contract = c }
}

// WithIntentChecker injects an external intent-violation collaborator.
func WithIntentChecker(c IntentChecker) Option {
	return func(a *Aggregator) { a.intent = c }
}

// New builds an Aggregator over topo and reg, with one PhaseContract per
// canonical phase it should gate.
func New(topo *topology.Topology, reg *registry.Registry, phaseContracts map[taxonomy.PhaseID]contracts.PhaseContract, opts ...Option) *Aggregator {
	a := &Aggregator{
		topo:      topo,
		reg:       reg,
		contracts: phaseContracts,
		contract:  noViolations{},
		intent:    noViolations{},
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Evaluate assembles the GateStatus for phase, given the store (for
// staleness) and the validator results produced by the most recent
// executor run (ExecutionState.Results is exactly this map — passed
// directly rather than importing the executor package, keeping Aggregator
// independently testable per spec.md's "leaves first" control-flow note).
func (a *Aggregator) Evaluate(phase taxonomy.PhaseID, s *state.Store, results map[string]taxonomy.ValidationResult) GateStatus {
	status := GateStatus{
		GateID:  string(phase),
		Results: results,
	}

	gateIDs := a.topo.GateValidatorsForPhase(phase)
	sort.Strings(gateIDs)

	for _, id := range gateIDs {
		node, _ := a.topo.Node(id)
		def := node.Definition

		result, have := results[id]
		passed := have && result.State.IsTerminalSuccess()

		if def.GateRequirement == taxonomy.GateRequired {
			if passed {
				status.RequiredPassed++
			} else {
				status.RequiredFailed++
				status.BlockingValidators = append(status.BlockingValidators, id)
				status.BlockingMessages = append(status.BlockingMessages, blockingMessage(id, result, have))
			}
		} else {
			if passed {
				status.RecommendedPassed++
			} else {
				status.RecommendedFailed++
				status.WarningValidators = append(status.WarningValidators, id)
				status.WarningMessages = append(status.WarningMessages, blockingMessage(id, result, have))
			}
		}
	}

	// Signal 3: stale parameters owned by this phase.
	if contract, ok := a.contracts[phase]; ok {
		for _, p := range contract.OwnedPaths() {
			if s.IsStale(state.Path(p)) {
				status.StaleParameters = append(status.StaleParameters, p)
				status.BlockingMessages = append(status.BlockingMessages, fmt.Sprintf("STALE: %s", p))
			}
		}
	}

	// Signal 4: gate validators declared in the topology but without a
	// bound implementation.
	for _, id := range gateIDs {
		if a.reg == nil {
			break
		}
		if _, ok := a.reg.Instance(id); !ok {
			status.MissingValidators = append(status.MissingValidators, id)
			status.BlockingMessages = append(status.BlockingMessages, fmt.Sprintf("MISSING: %s", id))
		}
	}

	// Signal 5: external collaborators.
	status.ContractErrors = a.contract.Violations(phase)
	for _, msg := range status.ContractErrors {
		status.BlockingMessages = append(status.BlockingMessages, fmt.Sprintf("CONTRACT: %s", msg))
	}
	status.IntentViolations = a.intent.Violations(phase)
	for _, msg := range status.IntentViolations {
		status.BlockingMessages = append(status.BlockingMessages, fmt.Sprintf("INTENT: %s", msg))
	}

	status.CanAdvance = status.RequiredFailed == 0 &&
		len(status.StaleParameters) == 0 &&
		len(status.MissingValidators) == 0 &&
		len(status.ContractErrors) == 0 &&
		len(status.IntentViolations) == 0

	return status
}

func blockingMessage(id string, result taxonomy.ValidationResult, have bool) string {
	if !have {
		return fmt.Sprintf("%s: missing result (not run)", id)
	}
	msg := "no findings"
	if len(result.Findings) > 0 {
		msg = result.Findings[len(result.Findings)-1].Message
	}
	if msg == "" && result.ErrorMessage != "" {
		msg = result.ErrorMessage
	}
	return fmt.Sprintf("%s [%s]: %s", id, result.State, msg)
}
