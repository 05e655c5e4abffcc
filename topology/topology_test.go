package topology_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magnetcad/pipeline/state"
	"github.com/magnetcad/pipeline/taxonomy"
	"github.com/magnetcad/pipeline/topology"
)

func defn(id string, phase taxonomy.PhaseID, deps []string, produces []string) taxonomy.ValidatorDefinition {
	return taxonomy.ValidatorDefinition{
		ID:                  id,
		Phase:               phase,
		Priority:            taxonomy.PriorityNormal,
		DependsOnParameters: deps,
		ProducesParameters:  produces,
	}
}

func TestBuildEmptyTopology(t *testing.T) {
	require := require.New(t)
	topo, err := topology.Build(nil)
	require.NoError(err)
	require.Empty(topo.ExecutionOrder())
}

func TestImplicitEdgeFromProducer(t *testing.T) {
	require := require.New(t)
	defs := []taxonomy.ValidatorDefinition{
		defn("physics/hydrostatics", taxonomy.PhaseHull, nil, []string{"hull.displacement_m3"}),
		defn("resistance/froude", taxonomy.PhaseHull, []string{"hull.displacement_m3"}, []string{"resistance.froude_number"}),
	}
	topo, err := topology.Build(defs)
	require.NoError(err)

	order := topo.ExecutionOrder()
	require.Equal([]string{"physics/hydrostatics", "resistance/froude"}, order)

	n, ok := topo.Node("resistance/froude")
	require.True(ok)
	require.Equal([]string{"physics/hydrostatics"}, n.Predecessors)
	require.Equal(1, n.Depth)
}

func TestDuplicateProducerRejected(t *testing.T) {
	require := require.New(t)
	defs := []taxonomy.ValidatorDefinition{
		defn("a", taxonomy.PhaseHull, nil, []string{"hull.x"}),
		defn("b", taxonomy.PhaseHull, nil, []string{"hull.x"}),
	}
	_, err := topology.Build(defs)
	require.Error(err)
	var dup *topology.DuplicateProducerError
	require.ErrorAs(err, &dup)
	require.Equal("hull.x", dup.Path)
}

func TestCycleDetected(t *testing.T) {
	require := require.New(t)
	defs := []taxonomy.ValidatorDefinition{
		{ID: "a", DependsOnValidators: []string{"b"}},
		{ID: "b", DependsOnValidators: []string{"a"}},
	}
	_, err := topology.Build(defs)
	require.Error(err)
	var cyc *topology.CyclicDependencyError
	require.ErrorAs(err, &cyc)
	require.ElementsMatch([]string{"a", "b"}, cyc.Participants)
}

func TestDeterministicTieBreak(t *testing.T) {
	require := require.New(t)
	defs := []taxonomy.ValidatorDefinition{
		defn("z/one", taxonomy.PhaseMission, nil, nil),
		defn("a/one", taxonomy.PhaseMission, nil, nil),
		defn("m/one", taxonomy.PhaseMission, nil, nil),
	}
	topo1, err := topology.Build(defs)
	require.NoError(err)
	topo2, err := topology.Build(defs)
	require.NoError(err)
	require.Equal(topo1.ExecutionOrder(), topo2.ExecutionOrder())
	require.Equal([]string{"a/one", "m/one", "z/one"}, topo1.ExecutionOrder())
}

func TestReadyRespectsPredecessorsAndExclusions(t *testing.T) {
	require := require.New(t)
	defs := []taxonomy.ValidatorDefinition{
		defn("a", taxonomy.PhaseHull, nil, []string{"hull.x"}),
		defn("b", taxonomy.PhaseHull, []string{"hull.x"}, nil),
	}
	topo, err := topology.Build(defs)
	require.NoError(err)

	ready := topo.Ready(nil, nil, nil)
	require.Equal([]string{"a"}, ready)

	completed := map[string]struct{}{"a": {}}
	ready = topo.Ready(completed, nil, nil)
	require.Equal([]string{"b"}, ready)
}

func TestStaleDependentsOneHop(t *testing.T) {
	require := require.New(t)
	defs := []taxonomy.ValidatorDefinition{
		defn("physics/hydrostatics", taxonomy.PhaseHull, []string{"hull.lwl"}, []string{"hull.displacement_m3"}),
	}
	topo, err := topology.Build(defs)
	require.NoError(err)

	deps := topo.StaleDependents(state.Path("hull.lwl"))
	require.Equal([]state.Path{"hull.displacement_m3"}, deps)
}
