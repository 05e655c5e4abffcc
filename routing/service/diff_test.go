package service_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magnetcad/pipeline/routing/schema"
	"github.com/magnetcad/pipeline/routing/service"
)

func layoutWith(designID string, systems map[schema.SystemType]*schema.SystemTopology) *schema.RoutingLayout {
	l := schema.NewRoutingLayout(designID)
	for _, topo := range systems {
		l.AddTopology(topo)
	}
	return l
}

func routedTopology(st schema.SystemType, totalLength float64, trunkCount int) *schema.SystemTopology {
	topo := schema.NewSystemTopology(st)
	topo.Status = schema.TopologyRouted
	topo.TotalLengthM = totalLength
	for i := 0; i < trunkCount; i++ {
		seg := schema.NewTrunkSegment(string(st)+string(rune('A'+i)), st, "from", "to")
		topo.Trunks[seg.ID] = seg
	}
	return topo
}

func TestDiffLayoutsDetectsAddedAndRemoved(t *testing.T) {
	before := layoutWith("design-1", map[schema.SystemType]*schema.SystemTopology{
		schema.SystemFuel: routedTopology(schema.SystemFuel, 10, 1),
	})
	after := layoutWith("design-1", map[schema.SystemType]*schema.SystemTopology{
		schema.SystemSeawater: routedTopology(schema.SystemSeawater, 20, 2),
	})

	diff := service.DiffLayouts(before, after)
	require.Equal(t, []schema.SystemType{schema.SystemSeawater}, diff.AddedSystems)
	require.Equal(t, []schema.SystemType{schema.SystemFuel}, diff.RemovedSystems)
	require.Empty(t, diff.ChangedSystems)
}

func TestDiffLayoutsDetectsChangedSystem(t *testing.T) {
	before := layoutWith("design-1", map[schema.SystemType]*schema.SystemTopology{
		schema.SystemFuel: routedTopology(schema.SystemFuel, 10, 1),
	})
	after := layoutWith("design-1", map[schema.SystemType]*schema.SystemTopology{
		schema.SystemFuel: routedTopology(schema.SystemFuel, 15, 2),
	})

	diff := service.DiffLayouts(before, after)
	require.Len(t, diff.ChangedSystems, 1)
	require.Equal(t, schema.SystemFuel, diff.ChangedSystems[0].SystemType)
	require.Equal(t, 1, diff.ChangedSystems[0].TrunkCountFrom)
	require.Equal(t, 2, diff.ChangedSystems[0].TrunkCountTo)
	require.InDelta(t, 5.0, diff.TotalLengthDeltaM, 1e-9)
	require.Equal(t, 1, diff.TrunkCountDelta)
}

func TestDiffLayoutsHandlesNilBefore(t *testing.T) {
	after := layoutWith("design-1", map[schema.SystemType]*schema.SystemTopology{
		schema.SystemFuel: routedTopology(schema.SystemFuel, 10, 1),
	})

	diff := service.DiffLayouts(nil, after)
	require.Equal(t, []schema.SystemType{schema.SystemFuel}, diff.AddedSystems)
	require.Equal(t, after.TotalTrunkLengthM, diff.TotalLengthDeltaM)
}
