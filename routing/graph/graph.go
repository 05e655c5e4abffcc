// Package graph implements the deterministic weighted-undirected-graph
// utilities the routing subsystem builds on: a shortest-path / k-shortest-
// simple-paths core (routing/graph/graph_utils.py's networkx calls,
// translated into explicit algorithms since no graph library appears
// anywhere in the example pack), layered by CompartmentGraph (space
// adjacency) and NodeGraph (per-system-type node routing).
package graph

import (
	"container/heap"
	"sort"
)

// Edge is the cost plus arbitrary per-edge attribute data carried by one
// link of a Graph.
type Edge[E any] struct {
	Cost float64
	Data E
}

// Graph is an undirected weighted graph keyed by string node ids, generic
// over the per-edge attribute payload E. All traversal and iteration is
// sorted by node id so that two graphs built from the same inputs always
// produce identical paths, components, and statistics.
type Graph[E any] struct {
	nodes map[string]struct{}
	edges map[string]map[string]Edge[E]
}

func NewGraph[E any]() *Graph[E] {
	return &Graph[E]{
		nodes: make(map[string]struct{}),
		edges: make(map[string]map[string]Edge[E]),
	}
}

func (g *Graph[E]) AddNode(id string) {
	g.nodes[id] = struct{}{}
	if g.edges[id] == nil {
		g.edges[id] = make(map[string]Edge[E])
	}
}

func (g *Graph[E]) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// AddEdge inserts or replaces an undirected edge between a and b, adding
// both endpoints as nodes if they are not already present.
func (g *Graph[E]) AddEdge(a, b string, cost float64, data E) {
	g.AddNode(a)
	g.AddNode(b)
	g.edges[a][b] = Edge[E]{Cost: cost, Data: data}
	g.edges[b][a] = Edge[E]{Cost: cost, Data: data}
}

func (g *Graph[E]) RemoveEdge(a, b string) bool {
	if _, ok := g.edges[a][b]; !ok {
		return false
	}
	delete(g.edges[a], b)
	delete(g.edges[b], a)
	return true
}

func (g *Graph[E]) RemoveNode(id string) {
	for other := range g.edges[id] {
		delete(g.edges[other], id)
	}
	delete(g.edges, id)
	delete(g.nodes, id)
}

func (g *Graph[E]) HasEdge(a, b string) bool {
	_, ok := g.edges[a][b]
	return ok
}

func (g *Graph[E]) EdgeData(a, b string) (Edge[E], bool) {
	e, ok := g.edges[a][b]
	return e, ok
}

func (g *Graph[E]) NodeCount() int { return len(g.nodes) }

func (g *Graph[E]) EdgeCount() int {
	n := 0
	for _, adj := range g.edges {
		n += len(adj)
	}
	return n / 2
}

// NodeIDs returns every node id, sorted.
func (g *Graph[E]) NodeIDs() []string {
	out := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Neighbors returns id's adjacent node ids, sorted.
func (g *Graph[E]) Neighbors(id string) []string {
	adj := g.edges[id]
	out := make([]string, 0, len(adj))
	for n := range adj {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (g *Graph[E]) Degree(id string) int { return len(g.edges[id]) }

// Copy returns a deep copy whose nodes/edges can be mutated (for Yen's
// algorithm's temporary node/edge removal) without affecting g.
func (g *Graph[E]) Copy() *Graph[E] {
	out := NewGraph[E]()
	for id := range g.nodes {
		out.AddNode(id)
	}
	for a, adj := range g.edges {
		for b, e := range adj {
			if a < b {
				out.AddEdge(a, b, e.Cost, e.Data)
			}
		}
	}
	return out
}

// PathLength sums edge costs along path; a path of fewer than two nodes
// has zero length.
func (g *Graph[E]) PathLength(path []string) float64 {
	if len(path) < 2 {
		return 0
	}
	var total float64
	for i := 0; i < len(path)-1; i++ {
		if e, ok := g.edges[path[i]][path[i+1]]; ok {
			total += e.Cost
		}
	}
	return total
}

type pqItem struct {
	id   string
	dist float64
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}
	return pq[i].id < pq[j].id // deterministic tie-break
}
func (pq priorityQueue) Swap(i, j int)      { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x any)        { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// ShortestPath runs Dijkstra's algorithm from source to target, breaking
// ties deterministically on node id. Returns (nil, false) if target is
// unreachable or either endpoint is absent.
func (g *Graph[E]) ShortestPath(source, target string) ([]string, bool) {
	if !g.HasNode(source) || !g.HasNode(target) {
		return nil, false
	}
	if source == target {
		return []string{source}, true
	}

	dist := map[string]float64{source: 0}
	prev := map[string]string{}
	visited := map[string]bool{}

	pq := &priorityQueue{{id: source, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		if visited[cur.id] {
			continue
		}
		visited[cur.id] = true
		if cur.id == target {
			break
		}
		for _, next := range g.Neighbors(cur.id) {
			if visited[next] {
				continue
			}
			cand := cur.dist + g.edges[cur.id][next].Cost
			if d, ok := dist[next]; !ok || cand < d {
				dist[next] = cand
				prev[next] = cur.id
				heap.Push(pq, pqItem{id: next, dist: cand})
			}
		}
	}

	if _, ok := dist[target]; !ok {
		return nil, false
	}

	var path []string
	for at := target; ; {
		path = append(path, at)
		if at == source {
			break
		}
		at = prev[at]
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}

func pathKey(path []string) string {
	key := ""
	for i, id := range path {
		if i > 0 {
			key += "\x00"
		}
		key += id
	}
	return key
}

// ShortestSimplePaths returns up to maxPaths loopless paths from source to
// target in increasing cost order via Yen's algorithm, breaking ties
// deterministically on the path's node sequence.
func (g *Graph[E]) ShortestSimplePaths(source, target string, maxPaths int) [][]string {
	if maxPaths <= 0 {
		return nil
	}
	first, ok := g.ShortestPath(source, target)
	if !ok {
		return nil
	}

	found := [][]string{first}
	seen := map[string]bool{pathKey(first): true}

	type candidate struct {
		cost float64
		path []string
	}
	var candidates []candidate

	addCandidate := func(path []string) {
		key := pathKey(path)
		if seen[key] {
			return
		}
		for _, c := range candidates {
			if pathKey(c.path) == key {
				return
			}
		}
		candidates = append(candidates, candidate{cost: g.PathLength(path), path: path})
	}

	for len(found) < maxPaths {
		prevPath := found[len(found)-1]
		for i := 0; i < len(prevPath)-1; i++ {
			spurNode := prevPath[i]
			rootPath := prevPath[:i+1]

			work := g.Copy()
			for _, p := range found {
				if len(p) > i && pathKey(p[:i+1]) == pathKey(rootPath) {
					work.RemoveEdge(p[i], p[i+1])
				}
			}
			for _, node := range rootPath[:len(rootPath)-1] {
				work.RemoveNode(node)
			}

			spurPath, ok := work.ShortestPath(spurNode, target)
			if !ok {
				continue
			}
			total := append(append([]string(nil), rootPath[:len(rootPath)-1]...), spurPath...)
			addCandidate(total)
		}

		if len(candidates) == 0 {
			break
		}
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].cost != candidates[j].cost {
				return candidates[i].cost < candidates[j].cost
			}
			return pathKey(candidates[i].path) < pathKey(candidates[j].path)
		})
		next := candidates[0]
		candidates = candidates[1:]
		seen[pathKey(next.path)] = true
		found = append(found, next.path)
	}

	if len(found) > maxPaths {
		found = found[:maxPaths]
	}
	return found
}

// FindAlternativePath finds the shortest source-target path that uses none
// of excludeEdges, without mutating g.
func (g *Graph[E]) FindAlternativePath(source, target string, excludeEdges [][2]string) ([]string, bool) {
	work := g.Copy()
	for _, e := range excludeEdges {
		work.RemoveEdge(e[0], e[1])
	}
	return work.ShortestPath(source, target)
}

// ConnectedComponents returns the graph's connected components, each
// sorted, the list of components itself sorted by first member.
func (g *Graph[E]) ConnectedComponents() [][]string {
	visited := map[string]bool{}
	var components [][]string
	for _, id := range g.NodeIDs() {
		if visited[id] {
			continue
		}
		var comp []string
		queue := []string{id}
		visited[id] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			comp = append(comp, cur)
			for _, next := range g.Neighbors(cur) {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
		sort.Strings(comp)
		components = append(components, comp)
	}
	sort.Slice(components, func(i, j int) bool { return components[i][0] < components[j][0] })
	return components
}

func (g *Graph[E]) IsConnected() bool {
	if g.NodeCount() == 0 {
		return true
	}
	return len(g.ConnectedComponents()) == 1
}

// Statistics mirrors graph_utils.get_graph_statistics.
type Statistics struct {
	NodeCount      int
	EdgeCount      int
	IsConnected    bool
	ComponentCount int
	AvgDegree      float64
	MaxDegree      int
	MinDegree      int
}

func (g *Graph[E]) GetStatistics() Statistics {
	stats := Statistics{
		NodeCount: g.NodeCount(),
		EdgeCount: g.EdgeCount(),
	}
	if stats.NodeCount == 0 {
		stats.IsConnected = true
		return stats
	}
	stats.ComponentCount = len(g.ConnectedComponents())
	stats.IsConnected = stats.ComponentCount == 1

	total, maxD, minD := 0, 0, -1
	for _, id := range g.NodeIDs() {
		d := g.Degree(id)
		total += d
		if d > maxD {
			maxD = d
		}
		if minD < 0 || d < minD {
			minD = d
		}
	}
	stats.AvgDegree = float64(total) / float64(stats.NodeCount)
	stats.MaxDegree = maxD
	stats.MinDegree = minD
	return stats
}

// Bridges returns every edge whose removal disconnects the graph, found
// via Tarjan's bridge-finding DFS, sorted by (from, to).
func (g *Graph[E]) Bridges() [][2]string {
	disc := map[string]int{}
	low := map[string]int{}
	parent := map[string]string{}
	timer := 0
	var bridges [][2]string

	var dfs func(u string)
	dfs = func(u string) {
		timer++
		disc[u] = timer
		low[u] = timer
		for _, v := range g.Neighbors(u) {
			if _, seen := disc[v]; !seen {
				parent[v] = u
				dfs(v)
				if low[v] < low[u] {
					low[u] = low[v]
				}
				if low[v] > disc[u] {
					a, b := u, v
					if b < a {
						a, b = b, a
					}
					bridges = append(bridges, [2]string{a, b})
				}
			} else if v != parent[u] {
				if disc[v] < low[u] {
					low[u] = disc[v]
				}
			}
		}
	}

	for _, id := range g.NodeIDs() {
		if _, seen := disc[id]; !seen {
			dfs(id)
		}
	}
	sort.Slice(bridges, func(i, j int) bool {
		if bridges[i][0] != bridges[j][0] {
			return bridges[i][0] < bridges[j][0]
		}
		return bridges[i][1] < bridges[j][1]
	})
	return bridges
}

// ArticulationPoints returns every node whose removal disconnects the
// graph, sorted.
func (g *Graph[E]) ArticulationPoints() []string {
	disc := map[string]int{}
	low := map[string]int{}
	parent := map[string]string{}
	isCut := map[string]bool{}
	timer := 0

	var dfs func(u string)
	dfs = func(u string) {
		timer++
		disc[u] = timer
		low[u] = timer
		children := 0
		for _, v := range g.Neighbors(u) {
			if _, seen := disc[v]; !seen {
				children++
				parent[v] = u
				dfs(v)
				if low[v] < low[u] {
					low[u] = low[v]
				}
				if _, hasParent := parent[u]; hasParent && low[v] >= disc[u] {
					isCut[u] = true
				}
				if _, hasParent := parent[u]; !hasParent && children > 1 {
					isCut[u] = true
				}
			} else if v != parent[u] {
				if disc[v] < low[u] {
					low[u] = disc[v]
				}
			}
		}
	}

	for _, id := range g.NodeIDs() {
		if _, seen := disc[id]; !seen {
			dfs(id)
		}
	}

	var out []string
	for id := range isCut {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// PathDiversity returns the Jaccard distance between two node-id paths: 0
// for identical sets, 1 for disjoint sets.
func PathDiversity(pathA, pathB []string) float64 {
	if len(pathA) == 0 || len(pathB) == 0 {
		return 1.0
	}
	setA := make(map[string]struct{}, len(pathA))
	for _, id := range pathA {
		setA[id] = struct{}{}
	}
	setB := make(map[string]struct{}, len(pathB))
	for _, id := range pathB {
		setB[id] = struct{}{}
	}
	intersection := 0
	for id := range setA {
		if _, ok := setB[id]; ok {
			intersection++
		}
	}
	union := len(setA)
	for id := range setB {
		if _, ok := setA[id]; !ok {
			union++
		}
	}
	if union == 0 {
		return 1.0
	}
	return 1.0 - float64(intersection)/float64(union)
}

// PathThroughWaypoints stitches together shortest paths between each
// consecutive pair of waypoints, or returns false if any segment has no
// path.
func (g *Graph[E]) PathThroughWaypoints(waypoints []string) ([]string, bool) {
	if len(waypoints) < 2 {
		return waypoints, len(waypoints) > 0
	}
	var complete []string
	for i := 0; i < len(waypoints)-1; i++ {
		segment, ok := g.ShortestPath(waypoints[i], waypoints[i+1])
		if !ok {
			return nil, false
		}
		if i == 0 {
			complete = append(complete, segment...)
		} else {
			complete = append(complete, segment[1:]...)
		}
	}
	return complete, true
}
