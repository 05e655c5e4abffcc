package service_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magnetcad/pipeline/routing/contract"
	"github.com/magnetcad/pipeline/routing/schema"
	"github.com/magnetcad/pipeline/routing/service"
)

func fuelContract() *contract.RoutingInputContract {
	spaces := map[string]schema.SpaceInfo{
		"ENGINE_ROOM": {ID: "ENGINE_ROOM", SpaceType: "machinery", Center: schema.Point3D{X: 0, Y: 0, Z: 0}, Routable: true, DeckID: "D1"},
		"PASSAGE":     {ID: "PASSAGE", SpaceType: "corridor", Center: schema.Point3D{X: 5, Y: 0, Z: 0}, Routable: true, DeckID: "D1"},
		"GALLEY":      {ID: "GALLEY", SpaceType: "galley", Center: schema.Point3D{X: 10, Y: 0, Z: 0}, Routable: true, DeckID: "D1"},
	}
	adjacency := map[string][]string{
		"ENGINE_ROOM": {"PASSAGE"},
		"PASSAGE":     {"ENGINE_ROOM", "GALLEY"},
		"GALLEY":      {"PASSAGE"},
	}
	nodes := map[schema.SystemType][]*schema.SystemNode{
		schema.SystemFuel: {
			schema.NewSystemNode("TANK", schema.NodeSource, schema.SystemFuel, "ENGINE_ROOM", 100, 0),
			schema.NewSystemNode("GENSET", schema.NodeConsumer, schema.SystemFuel, "GALLEY", 0, 20),
		},
	}
	return contract.New(spaces, adjacency, nil, nil, nodes, nil, 2)
}

func TestRouteProducesLayoutAndCurrentLineage(t *testing.T) {
	svc := service.New(service.DefaultConfig())
	layout, lineage, warnings, err := svc.Route(fuelContract(), "design-1", 1)

	require.NoError(t, err)
	require.Empty(t, warnings)
	require.True(t, layout.HasTopology(schema.SystemFuel))
	require.NotEmpty(t, layout.ContentHash)
	require.Equal(t, contract.LineageCurrent, lineage.Status)
	require.Equal(t, layout.ContentHash, lineage.OutputHash)
}

func TestRouteWarnsOnUnderspecifiedSystem(t *testing.T) {
	spaces := map[string]schema.SpaceInfo{
		"S1": {ID: "S1", SpaceType: "machinery", Center: schema.Point3D{}, Routable: true},
	}
	nodes := map[schema.SystemType][]*schema.SystemNode{
		schema.SystemFuel: {
			schema.NewSystemNode("TANK", schema.NodeSource, schema.SystemFuel, "S1", 10, 0),
		},
	}
	c := contract.New(spaces, nil, nil, nil, nodes, nil, 2)

	svc := service.New(service.DefaultConfig())
	layout, _, warnings, err := svc.Route(c, "design-1", 1)

	require.NoError(t, err)
	require.NotEmpty(t, warnings)
	require.False(t, layout.HasTopology(schema.SystemFuel))
}

func TestRouteCachesByContentHash(t *testing.T) {
	svc := service.New(service.DefaultConfig())
	c := fuelContract()

	layout1, _, _, err := svc.Route(c, "design-1", 1)
	require.NoError(t, err)

	layout2, _, _, err := svc.Route(c, "design-1", 1)
	require.NoError(t, err)

	require.Same(t, layout1, layout2)
	require.Equal(t, 1, svc.ClearCache())
}

func TestCheckStalenessDetectsGeometryChange(t *testing.T) {
	svc := service.New(service.DefaultConfig())
	c := fuelContract()
	_, lineage, _, err := svc.Route(c, "design-1", 1)
	require.NoError(t, err)
	require.Equal(t, contract.LineageCurrent, svc.CheckStaleness(lineage, c))

	spaces := map[string]schema.SpaceInfo{
		"ENGINE_ROOM": {ID: "ENGINE_ROOM", SpaceType: "machinery", Center: schema.Point3D{X: 50, Y: 0, Z: 0}, Routable: true, DeckID: "D1"},
		"PASSAGE":     {ID: "PASSAGE", SpaceType: "corridor", Center: schema.Point3D{X: 5, Y: 0, Z: 0}, Routable: true, DeckID: "D1"},
		"GALLEY":      {ID: "GALLEY", SpaceType: "galley", Center: schema.Point3D{X: 10, Y: 0, Z: 0}, Routable: true, DeckID: "D1"},
	}
	moved := contract.New(spaces, c.Adjacency(), c.FireZones(), c.WatertightBoundaries(), c.SystemNodes(), nil, 2)

	status := svc.CheckStaleness(lineage, moved)
	require.Equal(t, contract.LineageStaleGeometry, status)
}

func TestRouteIfStaleReroutesOnlyWhenStale(t *testing.T) {
	svc := service.New(service.DefaultConfig())
	c := fuelContract()
	layout, lineage, _, err := svc.Route(c, "design-1", 1)
	require.NoError(t, err)

	sameLayout, sameLineage, warnings, err := svc.RouteIfStale(layout, lineage, c, "design-1", 1)
	require.NoError(t, err)
	require.Nil(t, warnings)
	require.Same(t, layout, sameLayout)
	require.Same(t, lineage, sameLineage)
}
