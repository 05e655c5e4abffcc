// Package topology builds the dependency DAG over validators and
// parameters described in spec.md §4.3: explicit edges from
// depends_on_validators, implicit edges inferred through parameter
// producers, cycle detection, depth assignment, and deterministic
// execution ordering.
package topology

import (
	"sort"

	"github.com/magnetcad/pipeline/internal/set"
	"github.com/magnetcad/pipeline/state"
	"github.com/magnetcad/pipeline/taxonomy"
)

// Node is a ValidatorDefinition plus its resolved explicit-and-implicit
// predecessors, resolved direct successors, and longest-path depth
// (spec.md §3's TopologyNode).
type Node struct {
	Definition   taxonomy.ValidatorDefinition
	Predecessors []string
	Successors   []string
	Depth        int
}

var _ state.DependentsResolver = (*Topology)(nil)

// Topology is the built DAG over a fixed set of validator definitions.
type Topology struct {
	nodes map[string]*Node
	order []string // stable topological order, tie-broken by (priority, id)

	// paramProducer maps a declared output path to the validator that
	// produces it.
	paramProducer map[string]string
	// paramConsumers maps a declared input path to every validator that
	// declared it as a dependency.
	paramConsumers map[string][]string
}

// Build constructs the DAG from a set of validator definitions. It returns
// *CyclicDependencyError, *DuplicateProducerError, or *UnknownValidatorError
// on construction failure — these are startup failures per spec.md §7
// ("Topology error... pipeline never starts").
func Build(defs []taxonomy.ValidatorDefinition) (*Topology, error) {
	t := &Topology{
		nodes:          make(map[string]*Node, len(defs)),
		paramProducer:  make(map[string]string),
		paramConsumers: make(map[string][]string),
	}

	for _, d := range defs {
		t.nodes[d.ID] = &Node{Definition: d}
	}

	// Producer map + duplicate detection.
	for _, d := range defs {
		for _, p := range d.ProducesParameters {
			if existing, ok := t.paramProducer[p]; ok && existing != d.ID {
				return nil, &DuplicateProducerError{Path: p, ValidatorA: existing, ValidatorB: d.ID}
			}
			t.paramProducer[p] = d.ID
		}
	}

	// Consumer map (used for stale propagation).
	for _, d := range defs {
		for _, p := range d.DependsOnParameters {
			t.paramConsumers[p] = append(t.paramConsumers[p], d.ID)
		}
	}

	// Explicit edges.
	for _, d := range defs {
		for _, dep := range d.DependsOnValidators {
			if _, ok := t.nodes[dep]; !ok {
				return nil, &UnknownValidatorError{From: d.ID, To: dep}
			}
			t.addEdge(dep, d.ID)
		}
	}

	// Implicit edges: a parameter with no producer is assumed user-supplied.
	for _, d := range defs {
		for _, p := range d.DependsOnParameters {
			if producer, ok := t.paramProducer[p]; ok && producer != d.ID {
				t.addEdge(producer, d.ID)
			}
		}
	}

	// De-duplicate predecessor/successor lists accumulated by addEdge.
	for _, n := range t.nodes {
		n.Predecessors = dedupSorted(n.Predecessors)
		n.Successors = dedupSorted(n.Successors)
	}

	if err := t.detectCycles(); err != nil {
		return nil, err
	}

	t.computeDepths()
	t.computeExecutionOrder()

	return t, nil
}

func (t *Topology) addEdge(from, to string) {
	t.nodes[from].Successors = append(t.nodes[from].Successors, to)
	t.nodes[to].Predecessors = append(t.nodes[to].Predecessors, from)
}

func dedupSorted(ss []string) []string {
	out := set.Of(ss...).List()
	sort.Strings(out)
	return out
}

// color states for DFS cycle detection.
const (
	white = 0 // unvisited
	gray  = 1 // on the current DFS stack
	black = 2 // fully processed
)

func (t *Topology) detectCycles() error {
	color := make(map[string]int, len(t.nodes))
	var stack []string

	ids := t.sortedIDs()

	var visit func(id string) error
	visit = func(id string) error {
		color[id] = gray
		stack = append(stack, id)
		succs := append([]string(nil), t.nodes[id].Successors...)
		sort.Strings(succs)
		for _, s := range succs {
			switch color[s] {
			case white:
				if err := visit(s); err != nil {
					return err
				}
			case gray:
				// Found a back edge; extract the cycle from the stack.
				start := 0
				for i, v := range stack {
					if v == s {
						start = i
						break
					}
				}
				participants := append([]string(nil), stack[start:]...)
				return &CyclicDependencyError{Participants: participants}
			}
		}
		color[id] = black
		stack = stack[:len(stack)-1]
		return nil
	}

	for _, id := range ids {
		if color[id] == white {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Topology) computeDepths() {
	memo := make(map[string]int, len(t.nodes))
	ids := t.sortedIDs()

	var depthOf func(id string) int
	depthOf = func(id string) int {
		if d, ok := memo[id]; ok {
			return d
		}
		max := 0
		for _, p := range t.nodes[id].Predecessors {
			if d := depthOf(p) + 1; d > max {
				max = d
			}
		}
		memo[id] = max
		return max
	}

	for _, id := range ids {
		t.nodes[id].Depth = depthOf(id)
	}
}

// computeExecutionOrder runs Kahn's algorithm, at each step picking among
// the zero-indegree frontier by (priority rank, id) — spec.md §4.3's
// deterministic tie-break, required for cache stability.
func (t *Topology) computeExecutionOrder() {
	indegree := make(map[string]int, len(t.nodes))
	for id, n := range t.nodes {
		indegree[id] = len(n.Predecessors)
	}

	var frontier []string
	for id, deg := range indegree {
		if deg == 0 {
			frontier = append(frontier, id)
		}
	}

	order := make([]string, 0, len(t.nodes))
	for len(frontier) > 0 {
		sort.Slice(frontier, func(i, j int) bool {
			return t.less(frontier[i], frontier[j])
		})
		next := frontier[0]
		frontier = frontier[1:]
		order = append(order, next)

		succs := append([]string(nil), t.nodes[next].Successors...)
		sort.Strings(succs)
		for _, s := range succs {
			indegree[s]--
			if indegree[s] == 0 {
				frontier = append(frontier, s)
			}
		}
	}
	t.order = order
}

func (t *Topology) less(a, b string) bool {
	pa, pb := t.nodes[a].Definition.Priority.Rank(), t.nodes[b].Definition.Priority.Rank()
	if pa != pb {
		return pa < pb
	}
	return a < b
}

func (t *Topology) sortedIDs() []string {
	ids := make([]string, 0, len(t.nodes))
	for id := range t.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ExecutionOrder returns the stable topological order, tie-broken by
// (priority, id).
func (t *Topology) ExecutionOrder() []string {
	return append([]string(nil), t.order...)
}

// Node returns the topology node for id.
func (t *Topology) Node(id string) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Ready returns validators whose predecessors are all in completed, and
// which are not themselves in completed, running, or failed (spec.md §4.3).
// The result is sorted by (priority, id) for deterministic consumption by
// the executor.
func (t *Topology) Ready(completed, running, failed set.Set[string]) []string {
	var ready []string
	for _, id := range t.sortedIDs() {
		if completed.Contains(id) || running.Contains(id) || failed.Contains(id) {
			continue
		}
		n := t.nodes[id]
		ok := true
		for _, p := range n.Predecessors {
			if !completed.Contains(p) {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, id)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return t.less(ready[i], ready[j]) })
	return ready
}

// TransitiveSuccessors returns every validator reachable by following
// successor edges from id.
func (t *Topology) TransitiveSuccessors(id string) []string {
	return t.transitive(id, func(n *Node) []string { return n.Successors })
}

// TransitivePredecessors returns every validator reachable by following
// predecessor edges from id.
func (t *Topology) TransitivePredecessors(id string) []string {
	return t.transitive(id, func(n *Node) []string { return n.Predecessors })
}

func (t *Topology) transitive(id string, edges func(*Node) []string) []string {
	visited := set.New[string](0)
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		n, ok := t.nodes[cur]
		if !ok {
			continue
		}
		for _, next := range edges(n) {
			if visited.Contains(next) {
				continue
			}
			visited.Add(next)
			queue = append(queue, next)
		}
	}
	out := visited.List()
	sort.Strings(out)
	return out
}

// ValidatorsForPhase returns every validator id declared under phase.
func (t *Topology) ValidatorsForPhase(phase taxonomy.PhaseID) []string {
	var out []string
	for _, id := range t.sortedIDs() {
		if t.nodes[id].Definition.Phase == phase {
			out = append(out, id)
		}
	}
	return out
}

// GateValidatorsForPhase returns ValidatorsForPhase(phase) intersected with
// IsGateCondition.
func (t *Topology) GateValidatorsForPhase(phase taxonomy.PhaseID) []string {
	var out []string
	for _, id := range t.ValidatorsForPhase(phase) {
		if t.nodes[id].Definition.IsGateCondition {
			out = append(out, id)
		}
	}
	return out
}

// StaleDependents implements state.DependentsResolver: given a path just
// written, it returns every path produced by a validator that directly
// consumes it (spec.md §4.1). Store.propagateStaleLocked performs the
// further BFS over the resulting paths, so this need only resolve one hop.
func (t *Topology) StaleDependents(path state.Path) []state.Path {
	consumers := t.paramConsumers[string(path)]
	if len(consumers) == 0 {
		return nil
	}
	seen := make(map[string]struct{})
	var out []state.Path
	for _, validatorID := range consumers {
		n, ok := t.nodes[validatorID]
		if !ok {
			continue
		}
		for _, produced := range n.Definition.ProducesParameters {
			if _, dup := seen[produced]; dup {
				continue
			}
			seen[produced] = struct{}{}
			out = append(out, state.Path(produced))
		}
	}
	return out
}
