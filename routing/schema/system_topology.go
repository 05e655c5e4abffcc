package schema

import (
	"fmt"
	"sort"
)

// TopologyStatus is the lifecycle state of one SystemType's routing.
type TopologyStatus string

const (
	TopologyEmpty     TopologyStatus = "empty"
	TopologyPartial   TopologyStatus = "partial"
	TopologyRouted    TopologyStatus = "routed"
	TopologyValidated TopologyStatus = "validated"
	TopologyFailed    TopologyStatus = "failed"
)

// SystemTopology is the per-system-type aggregate of nodes and trunks
// (spec.md §3): its own connectivity, totals, and validation state.
type SystemTopology struct {
	SystemType SystemType

	Nodes  map[string]*SystemNode
	Trunks map[string]*TrunkSegment

	Status             TopologyStatus
	ValidationErrors   []string
	ValidationWarnings []string

	TotalCapacity float64
	TotalDemand   float64
	TotalLengthM  float64

	HasRedundancy bool
	RedundantPaths [][2]string
}

// NewSystemTopology returns an empty topology for systemType.
func NewSystemTopology(systemType SystemType) *SystemTopology {
	return &SystemTopology{
		SystemType: systemType,
		Nodes:      make(map[string]*SystemNode),
		Trunks:     make(map[string]*TrunkSegment),
		Status:     TopologyEmpty,
	}
}

// AddNode adds node, rejecting a system-type mismatch.
func (t *SystemTopology) AddNode(node *SystemNode) error {
	if node.SystemType != t.SystemType {
		return fmt.Errorf("schema: node system type %s doesn't match topology system type %s", node.SystemType, t.SystemType)
	}
	t.Nodes[node.ID] = node
	t.updateStatus()
	t.updateAggregates()
	return nil
}

// RemoveNode removes nodeID and every trunk attached to it.
func (t *SystemTopology) RemoveNode(nodeID string) *SystemNode {
	node, ok := t.Nodes[nodeID]
	if !ok {
		return nil
	}
	delete(t.Nodes, nodeID)
	for id, trunk := range t.Trunks {
		if trunk.FromNodeID == nodeID || trunk.ToNodeID == nodeID {
			delete(t.Trunks, id)
		}
	}
	t.updateStatus()
	t.updateAggregates()
	return node
}

func (t *SystemTopology) GetNode(nodeID string) *SystemNode { return t.Nodes[nodeID] }

func (t *SystemTopology) NodesByType(nodeType NodeType) []*SystemNode {
	var out []*SystemNode
	for _, n := range t.Nodes {
		if n.NodeType == nodeType {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *SystemTopology) Sources() []*SystemNode   { return t.NodesByType(NodeSource) }
func (t *SystemTopology) Consumers() []*SystemNode { return t.NodesByType(NodeConsumer) }
func (t *SystemTopology) Junctions() []*SystemNode { return t.NodesByType(NodeJunction) }

// AddTrunk adds trunk, validating system-type match and that both endpoints
// already exist as nodes.
func (t *SystemTopology) AddTrunk(trunk *TrunkSegment) error {
	if trunk.SystemType != t.SystemType {
		return fmt.Errorf("schema: trunk system type %s doesn't match topology system type %s", trunk.SystemType, t.SystemType)
	}
	if _, ok := t.Nodes[trunk.FromNodeID]; !ok {
		return fmt.Errorf("schema: from_node_id %s not in topology", trunk.FromNodeID)
	}
	if _, ok := t.Nodes[trunk.ToNodeID]; !ok {
		return fmt.Errorf("schema: to_node_id %s not in topology", trunk.ToNodeID)
	}
	t.Trunks[trunk.ID] = trunk
	t.Nodes[trunk.FromNodeID].AddTrunk(trunk.ID)
	t.Nodes[trunk.ToNodeID].AddTrunk(trunk.ID)
	t.updateStatus()
	t.updateAggregates()
	return nil
}

func (t *SystemTopology) RemoveTrunk(trunkID string) *TrunkSegment {
	trunk, ok := t.Trunks[trunkID]
	if !ok {
		return nil
	}
	delete(t.Trunks, trunkID)
	if n, ok := t.Nodes[trunk.FromNodeID]; ok {
		n.RemoveTrunk(trunkID)
	}
	if n, ok := t.Nodes[trunk.ToNodeID]; ok {
		n.RemoveTrunk(trunkID)
	}
	t.updateStatus()
	t.updateAggregates()
	return trunk
}

func (t *SystemTopology) GetTrunk(trunkID string) *TrunkSegment { return t.Trunks[trunkID] }

func (t *SystemTopology) TrunksForNode(nodeID string) []*TrunkSegment {
	var out []*TrunkSegment
	for _, trunk := range t.Trunks {
		if trunk.FromNodeID == nodeID || trunk.ToNodeID == nodeID {
			out = append(out, trunk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ConnectedNodes returns the set of node ids directly joined to nodeID by a
// trunk.
func (t *SystemTopology) ConnectedNodes(nodeID string) map[string]struct{} {
	connected := make(map[string]struct{})
	for _, trunk := range t.Trunks {
		if trunk.FromNodeID == nodeID {
			connected[trunk.ToNodeID] = struct{}{}
		} else if trunk.ToNodeID == nodeID {
			connected[trunk.FromNodeID] = struct{}{}
		}
	}
	return connected
}

// IsConnected reports whether every node is reachable, by BFS, from the
// first source (by sorted id). An empty topology is vacuously connected; a
// non-empty topology with no sources is not.
func (t *SystemTopology) IsConnected() bool {
	if len(t.Nodes) == 0 {
		return true
	}
	sources := t.Sources()
	if len(sources) == 0 {
		return false
	}
	visited := t.reachableFrom(sources[0].ID)
	return len(visited) == len(t.Nodes)
}

// UnconnectedNodes returns every node id not reachable from the first
// source, sorted.
func (t *SystemTopology) UnconnectedNodes() []string {
	if len(t.Sources()) == 0 {
		out := make([]string, 0, len(t.Nodes))
		for id := range t.Nodes {
			out = append(out, id)
		}
		sort.Strings(out)
		return out
	}
	visited := t.reachableFrom(t.Sources()[0].ID)
	var out []string
	for id := range t.Nodes {
		if _, ok := visited[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (t *SystemTopology) reachableFrom(start string) map[string]struct{} {
	visited := map[string]struct{}{start: {}}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for id := range t.ConnectedNodes(cur) {
			if _, ok := visited[id]; !ok {
				visited[id] = struct{}{}
				queue = append(queue, id)
			}
		}
	}
	return visited
}

func (t *SystemTopology) updateStatus() {
	switch {
	case len(t.Nodes) == 0:
		t.Status = TopologyEmpty
	case len(t.Trunks) == 0:
		t.Status = TopologyPartial
	case !t.IsConnected():
		t.Status = TopologyPartial
	case len(t.ValidationErrors) > 0:
		t.Status = TopologyFailed
	case len(t.ValidationWarnings) > 0:
		t.Status = TopologyRouted
	default:
		t.Status = TopologyValidated
	}
}

func (t *SystemTopology) updateAggregates() {
	var capacity, demand, length float64
	for _, n := range t.Nodes {
		if n.NodeType == NodeSource {
			capacity += n.CapacityUnits
		}
		if n.NodeType == NodeConsumer {
			demand += n.DemandUnits
		}
	}
	for _, trunk := range t.Trunks {
		length += trunk.LengthM
	}
	t.TotalCapacity = capacity
	t.TotalDemand = demand
	t.TotalLengthM = length
}

// Validate recomputes ValidationErrors/Warnings and Status, returning true
// if no errors were found (spec.md §3's "validation errors/warnings").
func (t *SystemTopology) Validate() bool {
	t.ValidationErrors = nil
	t.ValidationWarnings = nil

	if len(t.Nodes) == 0 {
		t.ValidationErrors = append(t.ValidationErrors, "No nodes defined")
		t.updateStatus()
		return false
	}
	if len(t.Sources()) == 0 {
		t.ValidationErrors = append(t.ValidationErrors, "No source nodes defined")
	}
	if len(t.Consumers()) == 0 {
		t.ValidationErrors = append(t.ValidationErrors, "No consumer nodes defined")
	}
	if unconnected := t.UnconnectedNodes(); len(unconnected) > 0 {
		t.ValidationErrors = append(t.ValidationErrors, fmt.Sprintf("Unconnected nodes: %v", unconnected))
	}
	if t.TotalCapacity < t.TotalDemand {
		t.ValidationWarnings = append(t.ValidationWarnings,
			fmt.Sprintf("Total capacity (%g) < total demand (%g)", t.TotalCapacity, t.TotalDemand))
	}

	trunkIDs := make([]string, 0, len(t.Trunks))
	for id := range t.Trunks {
		trunkIDs = append(trunkIDs, id)
	}
	sort.Strings(trunkIDs)
	for _, id := range trunkIDs {
		trunk := t.Trunks[id]
		if !trunk.IsZoneCompliant {
			t.ValidationErrors = append(t.ValidationErrors, fmt.Sprintf("Trunk %s: %s", trunk.ID, trunk.ZoneViolationReason))
		}
	}

	props := GetSystemProperties(t.SystemType)
	if props.RequiresRedundancy && !t.HasRedundancy {
		t.ValidationWarnings = append(t.ValidationWarnings,
			fmt.Sprintf("System %s requires redundancy but none found", t.SystemType))
	}

	t.updateStatus()
	return len(t.ValidationErrors) == 0
}

func (t *SystemTopology) NodeCount() int     { return len(t.Nodes) }
func (t *SystemTopology) TrunkCount() int    { return len(t.Trunks) }
func (t *SystemTopology) SourceCount() int   { return len(t.Sources()) }
func (t *SystemTopology) ConsumerCount() int { return len(t.Consumers()) }

// Statistics is the snapshot structure behind SystemTopology.get_statistics.
type Statistics struct {
	SystemType     SystemType
	Status         TopologyStatus
	NodeCount      int
	SourceCount    int
	ConsumerCount  int
	JunctionCount  int
	TrunkCount     int
	TotalCapacity  float64
	TotalDemand    float64
	TotalLengthM   float64
	HasRedundancy  bool
	IsConnected    bool
	ErrorCount     int
	WarningCount   int
}

func (t *SystemTopology) GetStatistics() Statistics {
	return Statistics{
		SystemType:    t.SystemType,
		Status:        t.Status,
		NodeCount:     t.NodeCount(),
		SourceCount:   t.SourceCount(),
		ConsumerCount: t.ConsumerCount(),
		JunctionCount: len(t.Junctions()),
		TrunkCount:    t.TrunkCount(),
		TotalCapacity: t.TotalCapacity,
		TotalDemand:   t.TotalDemand,
		TotalLengthM:  t.TotalLengthM,
		HasRedundancy: t.HasRedundancy,
		IsConnected:   t.IsConnected(),
		ErrorCount:    len(t.ValidationErrors),
		WarningCount:  len(t.ValidationWarnings),
	}
}
