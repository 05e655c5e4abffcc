package graph

import (
	"sort"
	"strings"

	"github.com/magnetcad/pipeline/routing/schema"
)

// NodeGraphEdge is the routing path and cost computed between two
// SystemNodes of the same system type (spec.md §4.7.2).
type NodeGraphEdge struct {
	FromNode string
	ToNode   string

	PathSpaces    []string
	PathLength    float64
	ZoneCrossings int

	Cost float64

	IsValid         bool
	ViolationReason string
}

type nodeGraphEdgeData struct {
	edge NodeGraphEdge
}

const defaultZoneCrossingPenalty = 10.0
const defaultNonRoutablePenalty = 50.0
const invalidPathPenalty = 1000.0

// NodeGraph is the node-to-node routing graph for one system type: it
// layers on top of a CompartmentGraph to produce one candidate edge per
// pair of nodes, each edge weighted by geometric distance plus zone-
// crossing and non-routable-space penalties (spec.md §4.7.2).
type NodeGraph struct {
	systemType         schema.SystemType
	properties         schema.SystemProperties
	zoneCrossingPenalty float64
	nonRoutablePenalty  float64

	g          *Graph[nodeGraphEdgeData]
	nodeSpaces map[string]string
}

func NewNodeGraph(systemType schema.SystemType) *NodeGraph {
	return &NodeGraph{
		systemType:          systemType,
		properties:          schema.GetSystemProperties(systemType),
		zoneCrossingPenalty: defaultZoneCrossingPenalty,
		nonRoutablePenalty:  defaultNonRoutablePenalty,
		g:                   NewGraph[nodeGraphEdgeData](),
		nodeSpaces:          make(map[string]string),
	}
}

// WithPenalties overrides the default zone-crossing and non-routable-space
// penalty weights.
func (ng *NodeGraph) WithPenalties(zoneCrossing, nonRoutable float64) *NodeGraph {
	ng.zoneCrossingPenalty = zoneCrossing
	ng.nonRoutablePenalty = nonRoutable
	return ng
}

func (ng *NodeGraph) SystemType() schema.SystemType { return ng.systemType }

// ZoneBoundaries maps a zone id to the space ids it contains, used to
// detect zone-boundary crossings along compartment paths.
type ZoneBoundaries map[string][]string

// Build computes every pairwise NodeGraphEdge between nodes of this
// system type, using compartmentGraph for underlying space-to-space
// shortest paths. Nodes belonging to other system types are ignored.
func (ng *NodeGraph) Build(nodes []*schema.SystemNode, compartmentGraph *CompartmentGraph, zoneBoundaries ZoneBoundaries) {
	ng.g = NewGraph[nodeGraphEdgeData]()
	ng.nodeSpaces = make(map[string]string)

	spaceToZone := make(map[string]string)
	zoneIDs := make([]string, 0, len(zoneBoundaries))
	for zoneID := range zoneBoundaries {
		zoneIDs = append(zoneIDs, zoneID)
	}
	sort.Strings(zoneIDs)
	for _, zoneID := range zoneIDs {
		for _, spaceID := range zoneBoundaries[zoneID] {
			spaceToZone[spaceID] = zoneID
		}
	}

	var systemNodes []*schema.SystemNode
	for _, n := range nodes {
		if n.SystemType == ng.systemType {
			systemNodes = append(systemNodes, n)
		}
	}
	sort.Slice(systemNodes, func(i, j int) bool { return systemNodes[i].ID < systemNodes[j].ID })

	if len(systemNodes) == 0 {
		return
	}

	for _, node := range systemNodes {
		ng.nodeSpaces[node.ID] = node.SpaceID
		ng.g.AddNode(node.ID)
	}

	for i, a := range systemNodes {
		for _, b := range systemNodes[i+1:] {
			ng.addNodeEdge(a, b, compartmentGraph, spaceToZone)
		}
	}
}

func (ng *NodeGraph) addNodeEdge(a, b *schema.SystemNode, compartmentGraph *CompartmentGraph, spaceToZone map[string]string) {
	spaceA, spaceB := a.SpaceID, b.SpaceID
	if !compartmentGraph.HasSpace(spaceA) || !compartmentGraph.HasSpace(spaceB) {
		return
	}

	pathSpaces, ok := compartmentGraph.ShortestPath(spaceA, spaceB)
	if !ok {
		return
	}

	pathLength := compartmentGraph.PathLength(pathSpaces)
	zoneCrossings := countZoneCrossings(pathSpaces, spaceToZone)
	isValid, violation := ng.checkPathValidity(pathSpaces, compartmentGraph, spaceToZone)

	cost := pathLength
	cost += float64(zoneCrossings) * ng.zoneCrossingPenalty
	cost += float64(compartmentGraph.NonRoutableCount(pathSpaces)) * ng.nonRoutablePenalty
	if !isValid {
		cost += invalidPathPenalty
	}

	edge := NodeGraphEdge{
		FromNode:        a.ID,
		ToNode:          b.ID,
		PathSpaces:      pathSpaces,
		PathLength:      pathLength,
		ZoneCrossings:   zoneCrossings,
		Cost:            cost,
		IsValid:         isValid,
		ViolationReason: violation,
	}
	ng.g.AddEdge(a.ID, b.ID, cost, nodeGraphEdgeData{edge: edge})
}

func countZoneCrossings(pathSpaces []string, spaceToZone map[string]string) int {
	if len(pathSpaces) < 2 {
		return 0
	}
	crossings := 0
	prevZone := spaceToZone[pathSpaces[0]]
	for _, spaceID := range pathSpaces[1:] {
		currZone := spaceToZone[spaceID]
		if currZone != prevZone && prevZone != "" && currZone != "" {
			crossings++
		}
		prevZone = currZone
	}
	return crossings
}

// checkPathValidity mirrors NodeGraph._check_path_validity: prohibited
// zone names, fire-zone crossing policy, and watertight crossing policy.
func (ng *NodeGraph) checkPathValidity(pathSpaces []string, compartmentGraph *CompartmentGraph, spaceToZone map[string]string) (bool, string) {
	for _, spaceID := range pathSpaces {
		spaceType := strings.ToLower(compartmentGraph.SpaceType(spaceID))
		for prohibited := range ng.properties.ProhibitedZones {
			if strings.Contains(spaceType, strings.ToLower(prohibited)) {
				return false, "Path passes through prohibited zone: " + prohibited
			}
		}
	}

	if !ng.properties.CanCrossFireZone {
		for i := 0; i < len(pathSpaces)-1; i++ {
			e, ok := compartmentGraph.g.EdgeData(pathSpaces[i], pathSpaces[i+1])
			if ok && e.Data.ZoneBoundary {
				zoneA := strings.ToLower(spaceToZone[pathSpaces[i]])
				zoneB := strings.ToLower(spaceToZone[pathSpaces[i+1]])
				if strings.Contains(zoneA, "fire") || strings.Contains(zoneB, "fire") {
					return false, "Cannot cross fire zone boundary"
				}
			}
		}
	}

	if !ng.properties.CanCrossWatertight {
		for i := 0; i < len(pathSpaces)-1; i++ {
			e, ok := compartmentGraph.g.EdgeData(pathSpaces[i], pathSpaces[i+1])
			if ok && e.Data.WatertightBoundary {
				return false, "Cannot cross watertight boundary"
			}
		}
	}

	return true, ""
}

// GetEdge returns the edge between two nodes regardless of which order
// they were added in.
func (ng *NodeGraph) GetEdge(fromNode, toNode string) (NodeGraphEdge, bool) {
	if e, ok := ng.g.EdgeData(fromNode, toNode); ok {
		return e.Data.edge, true
	}
	return NodeGraphEdge{}, false
}

// Edges returns every computed edge, sorted by (FromNode, ToNode).
func (ng *NodeGraph) Edges() []NodeGraphEdge {
	var out []NodeGraphEdge
	seen := map[[2]string]bool{}
	for _, a := range ng.g.NodeIDs() {
		for _, b := range ng.g.Neighbors(a) {
			key := [2]string{a, b}
			rev := [2]string{b, a}
			if seen[key] || seen[rev] {
				continue
			}
			seen[key] = true
			e, _ := ng.g.EdgeData(a, b)
			out = append(out, e.Data.edge)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FromNode != out[j].FromNode {
			return out[i].FromNode < out[j].FromNode
		}
		return out[i].ToNode < out[j].ToNode
	})
	return out
}

func (ng *NodeGraph) NodeCount() int { return ng.g.NodeCount() }
func (ng *NodeGraph) EdgeCount() int { return ng.g.EdgeCount() }

// MinimumSpanningTree returns the node graph's MST via deterministic
// Kruskal construction; routing/router's TrunkRouter builds its trunks
// from this tree.
func (ng *NodeGraph) MinimumSpanningTree() []NodeGraphEdge {
	edges := ng.Edges()
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Cost != edges[j].Cost {
			return edges[i].Cost < edges[j].Cost
		}
		if edges[i].FromNode != edges[j].FromNode {
			return edges[i].FromNode < edges[j].FromNode
		}
		return edges[i].ToNode < edges[j].ToNode
	})

	uf := NewUnionFind()
	var mst []NodeGraphEdge
	for _, e := range edges {
		if uf.Union(e.FromNode, e.ToNode) {
			mst = append(mst, e)
		}
	}
	return mst
}

// GetAllPaths returns up to maxPaths increasing-cost simple paths between
// two nodes in this node graph.
func (ng *NodeGraph) GetAllPaths(fromNode, toNode string, maxPaths int) [][]string {
	return ng.g.ShortestSimplePaths(fromNode, toNode, maxPaths)
}

// UnionFind is a path-compressed, union-by-rank disjoint-set structure
// over string keys, shared by NodeGraph.MinimumSpanningTree and
// routing/router's SteinerRouter for deterministic Kruskal MST construction.
type UnionFind struct {
	parent map[string]string
	rank   map[string]int
}

func NewUnionFind() *UnionFind {
	return &UnionFind{parent: make(map[string]string), rank: make(map[string]int)}
}

func (u *UnionFind) Find(x string) string {
	if _, ok := u.parent[x]; !ok {
		u.parent[x] = x
		return x
	}
	if u.parent[x] != x {
		u.parent[x] = u.Find(u.parent[x])
	}
	return u.parent[x]
}

// Union merges the sets containing a and b, returning true if they were
// previously disjoint (i.e. this union adds a spanning-tree edge).
func (u *UnionFind) Union(a, b string) bool {
	ra, rb := u.Find(a), u.Find(b)
	if ra == rb {
		return false
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
	return true
}
