package aggregator_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/magnetcad/pipeline/aggregator"
	"github.com/magnetcad/pipeline/contracts"
	"github.com/magnetcad/pipeline/registry"
	"github.com/magnetcad/pipeline/state"
	"github.com/magnetcad/pipeline/taxonomy"
	"github.com/magnetcad/pipeline/topology"
)

type stubValidator struct {
	def taxonomy.ValidatorDefinition
}

func (s stubValidator) Definition() taxonomy.ValidatorDefinition { return s.def }
func (s stubValidator) ShouldSkipUnchanged(*state.Store, time.Time) bool { return false }
func (s stubValidator) Validate(ctx context.Context, st *state.Store) (taxonomy.ValidatorState, []taxonomy.Finding, error) {
	return taxonomy.StatePassed, nil, nil
}

func gateDefn(id string, req taxonomy.GateRequirement) taxonomy.ValidatorDefinition {
	return taxonomy.ValidatorDefinition{
		ID:              id,
		Phase:           taxonomy.PhaseHull,
		Priority:        taxonomy.PriorityNormal,
		IsGateCondition: true,
		GateRequirement: req,
	}
}

// buildBound constructs a Topology and a Registry with every def bound to a
// passing stub instance.
func buildBound(t *testing.T, defs []taxonomy.ValidatorDefinition) (*topology.Topology, *registry.Registry) {
	t.Helper()
	topo, err := topology.Build(defs)
	require.NoError(t, err)

	reg := registry.New(nil)
	for _, d := range defs {
		def := d
		reg.RegisterClass(def, func(def taxonomy.ValidatorDefinition) (registry.Validator, error) {
			return stubValidator{def: def}, nil
		})
	}
	reg.InstantiateAll()
	return topo, reg
}

func TestEvaluateAllRequiredPassedCanAdvance(t *testing.T) {
	defs := []taxonomy.ValidatorDefinition{gateDefn("a", taxonomy.GateRequired)}
	topo, reg := buildBound(t, defs)

	agg := aggregator.New(topo, reg, nil)
	s := state.New(nil)
	results := map[string]taxonomy.ValidationResult{
		"a": {ValidatorID: "a", State: taxonomy.StatePassed},
	}

	status := agg.Evaluate(taxonomy.PhaseHull, s, results)
	require.True(t, status.CanAdvance)
	require.Equal(t, 1, status.RequiredPassed)
	require.Empty(t, status.BlockingValidators)
}

func TestEvaluateRequiredFailedBlocks(t *testing.T) {
	defs := []taxonomy.ValidatorDefinition{gateDefn("a", taxonomy.GateRequired)}
	topo, reg := buildBound(t, defs)

	agg := aggregator.New(topo, reg, nil)
	s := state.New(nil)
	results := map[string]taxonomy.ValidationResult{
		"a": {ValidatorID: "a", State: taxonomy.StateFailed, Findings: []taxonomy.Finding{{Message: "out of range"}}},
	}

	status := agg.Evaluate(taxonomy.PhaseHull, s, results)
	require.False(t, status.CanAdvance)
	require.Equal(t, 1, status.RequiredFailed)
	require.Contains(t, status.BlockingValidators, "a")
}

func TestEvaluateRecommendedFailureWarnsButAdvances(t *testing.T) {
	defs := []taxonomy.ValidatorDefinition{gateDefn("a", taxonomy.GateOptional)}
	topo, reg := buildBound(t, defs)

	agg := aggregator.New(topo, reg, nil)
	s := state.New(nil)
	results := map[string]taxonomy.ValidationResult{
		"a": {ValidatorID: "a", State: taxonomy.StateFailed},
	}

	status := agg.Evaluate(taxonomy.PhaseHull, s, results)
	require.True(t, status.CanAdvance)
	require.Equal(t, 1, status.RecommendedFailed)
	require.Contains(t, status.WarningValidators, "a")
}

func TestEvaluateStaleParameterBlocks(t *testing.T) {
	defs := []taxonomy.ValidatorDefinition{
		{
			ID:              "a",
			Phase:           taxonomy.PhaseHull,
			Priority:        taxonomy.PriorityNormal,
			IsGateCondition: true,
			GateRequirement: taxonomy.GateRequired,
			DependsOnParameters: []string{"hull.lwl"},
			ProducesParameters:  []string{"hull.loa"},
		},
	}
	topo, reg := buildBound(t, defs)

	phaseContracts := map[taxonomy.PhaseID]contracts.PhaseContract{
		taxonomy.PhaseHull: {
			Phase:           taxonomy.PhaseHull,
			RequiredOutputs: []contracts.PathSpec{{Path: "hull.loa"}},
		},
	}
	agg := aggregator.New(topo, reg, phaseContracts)

	s := state.New(topo)
	s.Write(state.Path("hull.lwl"), state.Float(18), "seed")
	s.Write(state.Path("hull.loa"), state.Float(20), "a")

	results := map[string]taxonomy.ValidationResult{
		"a": {ValidatorID: "a", State: taxonomy.StatePassed},
	}
	status := agg.Evaluate(taxonomy.PhaseHull, s, results)
	require.True(t, status.CanAdvance)
	require.Empty(t, status.StaleParameters)

	// Re-writing the input the validator depends on must mark its produced
	// output stale, per spec.md §4.1's transitive invalidation.
	s.Write(state.Path("hull.lwl"), state.Float(19), "editor")

	status = agg.Evaluate(taxonomy.PhaseHull, s, results)
	require.False(t, status.CanAdvance)
	require.Contains(t, status.StaleParameters, "hull.loa")
}

func TestEvaluateMissingImplementationBlocks(t *testing.T) {
	defs := []taxonomy.ValidatorDefinition{gateDefn("a", taxonomy.GateRequired)}
	topo, err := topology.Build(defs)
	require.NoError(t, err)

	reg := registry.New(nil) // no classes registered: "a" has no instance

	agg := aggregator.New(topo, reg, nil)
	s := state.New(nil)
	results := map[string]taxonomy.ValidationResult{}

	status := agg.Evaluate(taxonomy.PhaseHull, s, results)
	require.False(t, status.CanAdvance)
	require.Contains(t, status.MissingValidators, "a")
}

type fixedContractChecker struct{ violations []string }

func (f fixedContractChecker) Violations(taxonomy.PhaseID) []string { return f.violations }

func TestEvaluateExternalContractViolationBlocks(t *testing.T) {
	defs := []taxonomy.ValidatorDefinition{gateDefn("a", taxonomy.GateRequired)}
	topo, reg := buildBound(t, defs)

	agg := aggregator.New(topo, reg, nil, aggregator.WithContractChecker(fixedContractChecker{violations: []string{"hull beam exceeds dock width"}}))
	s := state.New(nil)
	results := map[string]taxonomy.ValidationResult{
		"a": {ValidatorID: "a", State: taxonomy.StatePassed},
	}

	status := agg.Evaluate(taxonomy.PhaseHull, s, results)
	require.False(t, status.CanAdvance)
	require.Contains(t, status.ContractErrors, "hull beam exceeds dock width")
	require.Contains(t, status.BlockingMessages, "CONTRACT: hull beam exceeds dock width")
}
