package contract_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magnetcad/pipeline/routing/contract"
	"github.com/magnetcad/pipeline/routing/schema"
)

func sampleSpaces() map[string]schema.SpaceInfo {
	return map[string]schema.SpaceInfo{
		"S1": {ID: "S1", SpaceType: "machinery", Center: schema.Point3D{X: 0, Y: 0, Z: 0}, Routable: true, DeckID: "D1"},
		"S2": {ID: "S2", SpaceType: "corridor", Center: schema.Point3D{X: 5, Y: 0, Z: 0}, Routable: true, DeckID: "D1"},
		"S3": {ID: "S3", SpaceType: "accommodation", Center: schema.Point3D{X: 10, Y: 0, Z: 0}, Routable: true, DeckID: "D1"},
	}
}

func sampleContract() *contract.RoutingInputContract {
	adjacency := map[string][]string{
		"S1": {"S2", "S2"}, // duplicate neighbor should be deduped
		"S2": {"S1", "S3"},
		"S3": {"S2"},
	}
	fireZones := map[string][]string{
		"Z1": {"S1", "S2"},
		"Z2": {"S3"},
	}
	watertight := [][2]string{{"S2", "S1"}} // reversed order, should normalize
	nodes := map[schema.SystemType][]*schema.SystemNode{
		schema.SystemFuel: {
			schema.NewSystemNode("N2", schema.NodeConsumer, schema.SystemFuel, "S3", 0, 10),
			schema.NewSystemNode("N1", schema.NodeSource, schema.SystemFuel, "S1", 20, 0),
		},
	}
	return contract.New(sampleSpaces(), adjacency, fireZones, watertight, nodes, nil, 2)
}

func TestNewDedupesAndSortsAdjacency(t *testing.T) {
	c := sampleContract()
	require.Equal(t, []string{"S2"}, c.Adjacency()["S1"])
}

func TestNewNormalizesWatertightPairOrder(t *testing.T) {
	c := sampleContract()
	require.True(t, c.IsWatertightBoundary("S1", "S2"))
	require.True(t, c.IsWatertightBoundary("S2", "S1"))
	require.Equal(t, [][2]string{{"S1", "S2"}}, c.WatertightBoundaries())
}

func TestIsAdjacent(t *testing.T) {
	c := sampleContract()
	require.True(t, c.IsAdjacent("S1", "S2"))
	require.False(t, c.IsAdjacent("S1", "S3"))
}

func TestSpaceZone(t *testing.T) {
	c := sampleContract()
	zone, ok := c.SpaceZone("S3")
	require.True(t, ok)
	require.Equal(t, "Z2", zone)

	_, ok = c.SpaceZone("unknown")
	require.False(t, ok)
}

func TestNodesForSystemSortedByID(t *testing.T) {
	c := sampleContract()
	nodes := c.NodesForSystem(schema.SystemFuel)
	require.Len(t, nodes, 2)
	require.Equal(t, "N1", nodes[0].ID)
	require.Equal(t, "N2", nodes[1].ID)
}

func TestAccessorsReturnDefensiveCopies(t *testing.T) {
	c := sampleContract()

	adj := c.Adjacency()
	adj["S1"] = append(adj["S1"], "S9")
	require.Equal(t, []string{"S2"}, c.Adjacency()["S1"])

	nodes := c.NodesForSystem(schema.SystemFuel)
	nodes[0] = nil
	require.NotNil(t, c.NodesForSystem(schema.SystemFuel)[0])
}

func TestContentHashIsDeterministicAndSensitiveToInput(t *testing.T) {
	c1 := sampleContract()
	c2 := sampleContract()
	require.Equal(t, c1.ContentHash(), c2.ContentHash())
	require.NotEmpty(t, c1.ContentHash())

	spaces := sampleSpaces()
	spaces["S4"] = schema.SpaceInfo{ID: "S4", SpaceType: "void", Center: schema.Point3D{X: 1, Y: 1, Z: 1}, Routable: true}
	c3 := contract.New(spaces, map[string][]string{}, map[string][]string{}, nil, nil, nil, 2)
	require.NotEqual(t, c1.ContentHash(), c3.ContentHash())
}
