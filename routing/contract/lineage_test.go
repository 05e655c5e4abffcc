package contract_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magnetcad/pipeline/routing/contract"
	"github.com/magnetcad/pipeline/routing/schema"
)

func TestComputeGeometryHashQuantizesSubPrecisionJitter(t *testing.T) {
	centers := map[string]schema.Point3D{"S1": {X: 1.001, Y: 0, Z: 0}}
	jittered := map[string]schema.Point3D{"S1": {X: 1.004, Y: 0, Z: 0}}

	h1 := contract.ComputeGeometryHash(centers, 0.01)
	h2 := contract.ComputeGeometryHash(jittered, 0.01)
	require.Equal(t, h1, h2)

	moved := map[string]schema.Point3D{"S1": {X: 1.5, Y: 0, Z: 0}}
	h3 := contract.ComputeGeometryHash(moved, 0.01)
	require.NotEqual(t, h1, h3)
}

func TestComputeArrangementHashSensitiveToZoneReassignment(t *testing.T) {
	adjacency := map[string][]string{"S1": {"S2"}, "S2": {"S1"}}
	zonesA := map[string][]string{"Z1": {"S1", "S2"}}
	zonesB := map[string][]string{"Z1": {"S1"}, "Z2": {"S2"}}

	hA := contract.ComputeArrangementHash(adjacency, zonesA, nil)
	hB := contract.ComputeArrangementHash(adjacency, zonesB, nil)
	require.NotEqual(t, hA, hB)
}

func TestCheckStalenessCurrentWhenNothingChanged(t *testing.T) {
	l := contract.NewLineage("design-1", 1, 0.01)
	l.GeometryHash = "g"
	l.ArrangementHash = "a"
	l.InputHash = "i"

	status := l.CheckStaleness("g", "a", "i")
	require.Equal(t, contract.LineageCurrent, status)
	require.Empty(t, l.StalenessReasons)
}

func TestCheckStalenessSingleReason(t *testing.T) {
	l := contract.NewLineage("design-1", 1, 0.01)
	l.GeometryHash = "g"
	l.ArrangementHash = "a"
	l.InputHash = "i"

	status := l.CheckStaleness("g2", "a", "i")
	require.Equal(t, contract.LineageStaleGeometry, status)
	require.Len(t, l.StalenessReasons, 1)
}

func TestCheckStalenessMultipleReasons(t *testing.T) {
	l := contract.NewLineage("design-1", 1, 0.01)
	l.GeometryHash = "g"
	l.ArrangementHash = "a"
	l.InputHash = "i"

	status := l.CheckStaleness("g2", "a2", "i")
	require.Equal(t, contract.LineageStaleMultiple, status)
	require.Len(t, l.StalenessReasons, 2)
}

func TestComputeFromInputsAndSetOutputHash(t *testing.T) {
	l := contract.NewLineage("design-1", 1, 0.01)
	centers := map[string]schema.Point3D{"S1": {X: 0, Y: 0, Z: 0}}
	adjacency := map[string][]string{"S1": {}}

	l.ComputeFromInputs(centers, adjacency, nil, nil, "input-hash")
	require.NotEmpty(t, l.GeometryHash)
	require.NotEmpty(t, l.ArrangementHash)
	require.Equal(t, "input-hash", l.InputHash)

	l.SetOutputHash("output-hash")
	require.Equal(t, "output-hash", l.OutputHash)
}
