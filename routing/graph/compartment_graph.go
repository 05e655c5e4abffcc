package graph

import "github.com/magnetcad/pipeline/routing/schema"

// CompartmentEdge carries the boundary classification of one compartment
// adjacency (spec.md §4.7.1): whether the adjacency crosses a zone
// boundary, a watertight boundary, or a deck.
type CompartmentEdge struct {
	Distance           float64
	ZoneBoundary       bool
	WatertightBoundary bool
	DeckCrossing       bool
}

type compartmentNode struct {
	SpaceType string
	Routable  bool
	DeckID    string
}

// CompartmentGraph is the adjacency graph over a design's spaces: an
// undirected, distance-weighted graph whose edges also flag the boundary
// types a trunk crosses by using them (spec.md §3's Routing data model,
// §4.7.1).
type CompartmentGraph struct {
	g     *Graph[CompartmentEdge]
	nodes map[string]compartmentNode
}

func NewCompartmentGraph() *CompartmentGraph {
	return &CompartmentGraph{
		g:     NewGraph[CompartmentEdge](),
		nodes: make(map[string]compartmentNode),
	}
}

// AddSpace registers space as a graph node.
func (c *CompartmentGraph) AddSpace(space schema.SpaceInfo) {
	c.g.AddNode(space.ID)
	c.nodes[space.ID] = compartmentNode{
		SpaceType: space.SpaceType,
		Routable:  space.Routable,
		DeckID:    space.DeckID,
	}
}

// AddAdjacency connects two spaces with the given boundary classification.
// The edge cost equals distance; zone/non-routable penalties are applied
// one layer up, by NodeGraph, since they are system-type specific.
func (c *CompartmentGraph) AddAdjacency(spaceA, spaceB string, distance float64, zoneBoundary, watertightBoundary, deckCrossing bool) {
	c.g.AddEdge(spaceA, spaceB, distance, CompartmentEdge{
		Distance:           distance,
		ZoneBoundary:       zoneBoundary,
		WatertightBoundary: watertightBoundary,
		DeckCrossing:       deckCrossing,
	})
}

func (c *CompartmentGraph) HasSpace(id string) bool { return c.g.HasNode(id) }

func (c *CompartmentGraph) IsRoutable(id string) bool {
	n, ok := c.nodes[id]
	return ok && n.Routable
}

func (c *CompartmentGraph) SpaceType(id string) string { return c.nodes[id].SpaceType }

func (c *CompartmentGraph) NodeCount() int { return c.g.NodeCount() }
func (c *CompartmentGraph) EdgeCount() int { return c.g.EdgeCount() }

// ShortestPath finds the minimum-distance sequence of space ids between
// source and target.
func (c *CompartmentGraph) ShortestPath(source, target string) ([]string, bool) {
	return c.g.ShortestPath(source, target)
}

// PathLength sums the distance of every adjacency along path.
func (c *CompartmentGraph) PathLength(path []string) float64 {
	return c.g.PathLength(path)
}

// ZoneCrossings returns the (from, to) space pairs along path whose
// adjacency is flagged as a zone boundary.
func (c *CompartmentGraph) ZoneCrossings(path []string) [][2]string {
	if len(path) < 2 {
		return nil
	}
	var out [][2]string
	for i := 0; i < len(path)-1; i++ {
		if e, ok := c.g.EdgeData(path[i], path[i+1]); ok && e.Data.ZoneBoundary {
			out = append(out, [2]string{path[i], path[i+1]})
		}
	}
	return out
}

// NonRoutableCount counts spaces along path that are not routable.
func (c *CompartmentGraph) NonRoutableCount(path []string) int {
	count := 0
	for _, id := range path {
		if n, ok := c.nodes[id]; ok && !n.Routable {
			count++
		}
	}
	return count
}

// CrossesWatertightBoundary reports whether any adjacency along path is
// flagged as a watertight crossing.
func (c *CompartmentGraph) CrossesWatertightBoundary(path []string) bool {
	for i := 0; i < len(path)-1; i++ {
		if e, ok := c.g.EdgeData(path[i], path[i+1]); ok && e.Data.WatertightBoundary {
			return true
		}
	}
	return false
}

func (c *CompartmentGraph) IsConnected() bool { return c.g.IsConnected() }

func (c *CompartmentGraph) Statistics() Statistics { return c.g.GetStatistics() }

// Underlying exposes the generic graph core for callers (NodeGraph) that
// need direct access to shortest-simple-paths / bridges / etc.
func (c *CompartmentGraph) Underlying() *Graph[CompartmentEdge] { return c.g }
