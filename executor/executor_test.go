package executor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/magnetcad/pipeline/config"
	"github.com/magnetcad/pipeline/executor"
	"github.com/magnetcad/pipeline/registry"
	"github.com/magnetcad/pipeline/state"
	"github.com/magnetcad/pipeline/taxonomy"
	"github.com/magnetcad/pipeline/topology"
)

type passingValidator struct {
	def     taxonomy.ValidatorDefinition
	writes  map[string]state.Value
}

func (p passingValidator) Definition() taxonomy.ValidatorDefinition { return p.def }
func (p passingValidator) ShouldSkipUnchanged(*state.Store, time.Time) bool { return false }
func (p passingValidator) Validate(ctx context.Context, s *state.Store) (taxonomy.ValidatorState, []taxonomy.Finding, error) {
	for path, v := range p.writes {
		s.Write(state.Path(path), v, p.def.ID)
	}
	return taxonomy.StatePassed, nil, nil
}

type failingValidator struct {
	def taxonomy.ValidatorDefinition
}

func (f failingValidator) Definition() taxonomy.ValidatorDefinition { return f.def }
func (f failingValidator) ShouldSkipUnchanged(*state.Store, time.Time) bool { return false }
func (f failingValidator) Validate(context.Context, *state.Store) (taxonomy.ValidatorState, []taxonomy.Finding, error) {
	return taxonomy.StateFailed, []taxonomy.Finding{{Message: "out of bounds"}}, nil
}

func TestRunExecutesInDependencyOrder(t *testing.T) {
	defs := []taxonomy.ValidatorDefinition{
		{ID: "physics/hydrostatics", Phase: taxonomy.PhaseHull, Priority: taxonomy.PriorityNormal, ProducesParameters: []string{"hull.displacement_m3"}},
		{ID: "resistance/froude", Phase: taxonomy.PhaseHull, Priority: taxonomy.PriorityNormal, DependsOnParameters: []string{"hull.displacement_m3"}, ProducesParameters: []string{"resistance.froude_number"}},
	}
	topo, err := topology.Build(defs)
	require.NoError(t, err)

	reg := registry.New(nil)
	reg.RegisterClass(defs[0], func(def taxonomy.ValidatorDefinition) (registry.Validator, error) {
		return passingValidator{def: def, writes: map[string]state.Value{"hull.displacement_m3": state.Float(120)}}, nil
	})
	reg.RegisterClass(defs[1], func(def taxonomy.ValidatorDefinition) (registry.Validator, error) {
		return passingValidator{def: def, writes: map[string]state.Value{"resistance.froude_number": state.Float(0.3)}}, nil
	})
	reg.InstantiateAll()

	s := state.New(topo)
	params := config.DefaultParams()
	params.Workers = 2

	ex := executor.New(reg, topo, s, params, nil)
	st, err := ex.Run(context.Background(), taxonomy.PhaseHull)
	require.NoError(t, err)

	require.Contains(t, st.Completed, "physics/hydrostatics")
	require.Contains(t, st.Completed, "resistance/froude")
	require.Empty(t, st.Failed)
	require.True(t, s.Has(state.Path("resistance.froude_number")))
}

func TestRunSkipsDownstreamOfFailure(t *testing.T) {
	defs := []taxonomy.ValidatorDefinition{
		{ID: "a", Phase: taxonomy.PhaseHull, Priority: taxonomy.PriorityNormal, ProducesParameters: []string{"hull.x"}},
		{ID: "b", Phase: taxonomy.PhaseHull, Priority: taxonomy.PriorityNormal, DependsOnParameters: []string{"hull.x"}},
	}
	topo, err := topology.Build(defs)
	require.NoError(t, err)

	reg := registry.New(nil)
	reg.RegisterClass(defs[0], func(def taxonomy.ValidatorDefinition) (registry.Validator, error) {
		return failingValidator{def: def}, nil
	})
	reg.RegisterClass(defs[1], func(def taxonomy.ValidatorDefinition) (registry.Validator, error) {
		return passingValidator{def: def}, nil
	})
	reg.InstantiateAll()

	s := state.New(topo)
	ex := executor.New(reg, topo, s, config.DefaultParams(), nil)
	st, err := ex.Run(context.Background(), taxonomy.PhaseHull)
	require.NoError(t, err)

	require.Contains(t, st.Failed, "a")
	require.Contains(t, st.Skipped, "b")
	require.NotContains(t, st.Completed, "b")
}

func TestRunReportsMissingImplementation(t *testing.T) {
	defs := []taxonomy.ValidatorDefinition{
		{ID: "a", Phase: taxonomy.PhaseHull, Priority: taxonomy.PriorityNormal},
	}
	topo, err := topology.Build(defs)
	require.NoError(t, err)

	reg := registry.New(nil) // no class registered

	s := state.New(topo)
	ex := executor.New(reg, topo, s, config.DefaultParams(), nil)
	st, err := ex.Run(context.Background(), taxonomy.PhaseHull)
	require.NoError(t, err)

	result, ok := st.Results["a"]
	require.True(t, ok)
	require.Equal(t, taxonomy.StateNotImplemented, result.State)
	require.Contains(t, st.Skipped, "a")
	require.NotContains(t, st.Failed, "a")
}

func TestResourcePoolRejectsOversizedRequest(t *testing.T) {
	pool := executor.NewResourcePool(2, 4)
	require.False(t, pool.TryAcquire(taxonomy.ResourceRequirements{CPUCores: 3}))
	require.True(t, pool.TryAcquire(taxonomy.ResourceRequirements{CPUCores: 2, RAMGB: 4}))
	pool.Release(taxonomy.ResourceRequirements{CPUCores: 2, RAMGB: 4})
	require.True(t, pool.TryAcquire(taxonomy.ResourceRequirements{CPUCores: 1}))
}

func TestCachePutGetRoundTrip(t *testing.T) {
	c, err := executor.NewCache("")
	require.NoError(t, err)

	result := taxonomy.ValidationResult{ValidatorID: "a", State: taxonomy.StatePassed}
	c.Put("a", "hash1", result, time.Minute)

	got, ok := c.Get("a", "hash1")
	require.True(t, ok)
	require.Equal(t, taxonomy.StatePassed, got.State)

	_, ok = c.Get("a", "hash2")
	require.False(t, ok)
}

func TestCacheExpiresByTTL(t *testing.T) {
	c, err := executor.NewCache("")
	require.NoError(t, err)

	result := taxonomy.ValidationResult{ValidatorID: "a", State: taxonomy.StatePassed}
	c.Put("a", "hash1", result, -time.Second) // already expired

	_, ok := c.Get("a", "hash1")
	require.False(t, ok)
}
