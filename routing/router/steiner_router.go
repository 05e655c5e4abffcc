package router

import (
	"sort"

	"github.com/magnetcad/pipeline/routing/graph"
	"github.com/magnetcad/pipeline/routing/schema"
	"github.com/magnetcad/pipeline/routing/zone"
)

// SteinerNode is a non-terminal space retained in a Steiner routing's
// expanded tree after degree-1 pruning — a junction point shared by more
// than one trunk (spec.md §4.7.4).
type SteinerNode struct {
	SpaceID string
	Degree  int
}

// SteinerRouter builds a shared-trunk topology for one system type by
// approximating a Steiner tree over its nodes' terminal spaces: metric
// closure, deterministic MST of the closure, expansion back to paths, and
// pruning of degree-1 non-terminals (spec.md §4.7.4). Used instead of
// TrunkRouter when multiple sources feed multiple consumers and sharing
// trunk segments is desirable.
type SteinerRouter struct {
	systemType schema.SystemType
	cfg        Config
	sizer      CapacitySizer
	compGraph  *graph.CompartmentGraph
	zoneMgr    *zone.Manager
}

// NewSteiner builds a SteinerRouter for systemType.
func NewSteiner(systemType schema.SystemType, compGraph *graph.CompartmentGraph, zoneMgr *zone.Manager, cfg Config) *SteinerRouter {
	props := schema.GetSystemProperties(systemType)
	return &SteinerRouter{
		systemType: systemType,
		cfg:        cfg,
		sizer:      CapacitySizer{DefaultDiameterMM: props.DefaultTrunkDiameterMM, DefaultRatingA: props.DefaultTrunkRatingA},
		compGraph:  compGraph,
		zoneMgr:    zoneMgr,
	}
}

type closureEdge struct {
	fromNode, toNode     string
	fromSpace, toSpace   string
	cost                 float64
	path                 []string
}

// Route builds the shared-trunk topology for nodes of this system type,
// returning the topology alongside the junction spaces retained as
// SteinerNodes.
func (sr *SteinerRouter) Route(nodes []*schema.SystemNode) (*schema.SystemTopology, []SteinerNode, error) {
	topo := schema.NewSystemTopology(sr.systemType)

	var terminals []*schema.SystemNode
	for _, n := range nodes {
		if n.SystemType != sr.systemType {
			continue
		}
		terminals = append(terminals, n)
	}
	sort.Slice(terminals, func(i, j int) bool { return terminals[i].ID < terminals[j].ID })
	for _, t := range terminals {
		if err := topo.AddNode(t); err != nil {
			return nil, nil, err
		}
	}
	if len(terminals) < 2 {
		return topo, nil, nil
	}

	closure := sr.metricClosure(terminals)
	mst := kruskalClosure(closure)

	spaceAdj := expandToSpaceAdjacency(mst)
	terminalSpaces := make(map[string]bool, len(terminals))
	for _, t := range terminals {
		terminalSpaces[t.SpaceID] = true
	}
	pruneDegreeOneNonTerminals(spaceAdj, terminalSpaces)

	steinerNodes := sr.collectSteinerNodes(spaceAdj, terminalSpaces)
	spaceToNodeID := make(map[string]string, len(terminals)+len(steinerNodes))
	for _, t := range terminals {
		spaceToNodeID[t.SpaceID] = t.ID
	}
	for _, sn := range steinerNodes {
		junctionID := sr.junctionNodeID(sn.SpaceID)
		junction := schema.NewSystemNode(junctionID, schema.NodeJunction, sr.systemType, sn.SpaceID, 0, 0)
		if err := topo.AddNode(junction); err != nil {
			return nil, nil, err
		}
		spaceToNodeID[sn.SpaceID] = junctionID
	}

	if err := sr.buildTrunks(topo, spaceAdj, spaceToNodeID); err != nil {
		return nil, nil, err
	}

	sizeTrunksBySystemType(topo, sr.systemType, sr.sizer)
	topo.Validate()
	return topo, steinerNodes, nil
}

func (sr *SteinerRouter) junctionNodeID(spaceID string) string {
	return "steiner:" + string(sr.systemType) + ":" + spaceID
}

// metricClosure computes the shortest compartment-graph path between every
// pair of terminal spaces, ordered (fromNode.ID < toNode.ID) to match the
// deterministic Kruskal tie-break.
func (sr *SteinerRouter) metricClosure(terminals []*schema.SystemNode) []closureEdge {
	var edges []closureEdge
	for i, a := range terminals {
		for _, b := range terminals[i+1:] {
			path, ok := sr.compGraph.ShortestPath(a.SpaceID, b.SpaceID)
			if !ok {
				continue
			}
			edges = append(edges, closureEdge{
				fromNode: a.ID, toNode: b.ID,
				fromSpace: a.SpaceID, toSpace: b.SpaceID,
				cost: sr.compGraph.PathLength(path),
				path: path,
			})
		}
	}
	return edges
}

// kruskalClosure applies spec.md §4.7.3's deterministic tie-break — sort by
// (cost, (min_endpoint_id, max_endpoint_id)) — to the metric closure.
func kruskalClosure(edges []closureEdge) []closureEdge {
	sorted := append([]closureEdge(nil), edges...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].cost != sorted[j].cost {
			return sorted[i].cost < sorted[j].cost
		}
		if sorted[i].fromNode != sorted[j].fromNode {
			return sorted[i].fromNode < sorted[j].fromNode
		}
		return sorted[i].toNode < sorted[j].toNode
	})

	uf := graph.NewUnionFind()
	var mst []closureEdge
	for _, e := range sorted {
		if uf.Union(e.fromNode, e.toNode) {
			mst = append(mst, e)
		}
	}
	return mst
}

// expandToSpaceAdjacency flattens every MST closure edge's underlying
// compartment path into a deduplicated space adjacency map.
func expandToSpaceAdjacency(mst []closureEdge) map[string]map[string]bool {
	adj := make(map[string]map[string]bool)
	ensure := func(s string) {
		if adj[s] == nil {
			adj[s] = make(map[string]bool)
		}
	}
	for _, e := range mst {
		for i := 0; i < len(e.path)-1; i++ {
			a, b := e.path[i], e.path[i+1]
			ensure(a)
			ensure(b)
			adj[a][b] = true
			adj[b][a] = true
		}
	}
	return adj
}

// pruneDegreeOneNonTerminals repeatedly removes non-terminal spaces with a
// single remaining neighbor, per spec.md §4.7.4's "prune degree-1
// non-terminals".
func pruneDegreeOneNonTerminals(adj map[string]map[string]bool, terminals map[string]bool) {
	for {
		var leaf, neighbor string
		found := false

		spaces := make([]string, 0, len(adj))
		for s := range adj {
			spaces = append(spaces, s)
		}
		sort.Strings(spaces)
		for _, s := range spaces {
			if terminals[s] || len(adj[s]) != 1 {
				continue
			}
			for n := range adj[s] {
				neighbor = n
			}
			leaf = s
			found = true
			break
		}
		if !found {
			return
		}
		delete(adj[neighbor], leaf)
		delete(adj, leaf)
	}
}

// collectSteinerNodes returns every remaining non-terminal space, sorted.
func (sr *SteinerRouter) collectSteinerNodes(adj map[string]map[string]bool, terminals map[string]bool) []SteinerNode {
	var ids []string
	for s := range adj {
		if !terminals[s] {
			ids = append(ids, s)
		}
	}
	sort.Strings(ids)
	out := make([]SteinerNode, 0, len(ids))
	for _, s := range ids {
		out = append(out, SteinerNode{SpaceID: s, Degree: len(adj[s])})
	}
	return out
}

// buildTrunks emits one TrunkSegment per remaining space adjacency edge,
// checking zone compliance for each.
func (sr *SteinerRouter) buildTrunks(topo *schema.SystemTopology, adj map[string]map[string]bool, spaceToNodeID map[string]string) error {
	spaces := make([]string, 0, len(adj))
	for s := range adj {
		spaces = append(spaces, s)
	}
	sort.Strings(spaces)

	seen := make(map[[2]string]bool)
	for _, a := range spaces {
		neighbors := make([]string, 0, len(adj[a]))
		for b := range adj[a] {
			neighbors = append(neighbors, b)
		}
		sort.Strings(neighbors)
		for _, b := range neighbors {
			key := [2]string{a, b}
			if a > b {
				key = [2]string{b, a}
			}
			if seen[key] {
				continue
			}
			seen[key] = true

			fromNodeID, fromOK := spaceToNodeID[a]
			toNodeID, toOK := spaceToNodeID[b]
			if !fromOK || !toOK {
				continue
			}
			pathSpaces := []string{a, b}

			trunk := schema.NewTrunkSegment(trunkID(sr.systemType, fromNodeID, toNodeID, pathSpaces), sr.systemType, fromNodeID, toNodeID)
			trunk.SetPath(pathSpaces, nil)
			trunk.LengthM = sr.compGraph.PathLength(pathSpaces)
			for _, crossing := range sr.compGraph.ZoneCrossings(pathSpaces) {
				trunk.AddZoneCrossing(crossing[0] + "->" + crossing[1])
			}
			if sr.zoneMgr != nil {
				if valid, results := sr.zoneMgr.CheckPath(pathSpaces, sr.systemType); !valid {
					reason := "zone crossing prohibited"
					for _, r := range results {
						if r.Reason != "" {
							reason = r.Reason
							break
						}
					}
					trunk.MarkZoneViolation(reason)
				}
			}
			if err := topo.AddTrunk(trunk); err != nil {
				return err
			}
		}
	}
	return nil
}
