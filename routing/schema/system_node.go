package schema

// NodeType is the role a SystemNode plays in its system topology.
type NodeType string

const (
	NodeSource      NodeType = "source"
	NodeJunction    NodeType = "junction"
	NodeConsumer    NodeType = "consumer"
	NodePassThrough NodeType = "pass_through"
)

func (n NodeType) Valid() bool {
	switch n {
	case NodeSource, NodeJunction, NodeConsumer, NodePassThrough:
		return true
	}
	return false
}

// SystemNode is a point where a system's routing starts, ends, branches, or
// passes through (spec.md §3). Sources carry capacity, consumers carry
// demand; NewSystemNode enforces that one excludes the other, mirroring the
// original's __post_init__ normalization.
type SystemNode struct {
	ID         string
	NodeType   NodeType
	SystemType SystemType

	SpaceID string

	CapacityUnits float64
	DemandUnits   float64

	ConnectedTrunks []string

	IsCritical            bool
	RequiresRedundantFeed bool

	Name string
}

// NewSystemNode constructs a node, normalizing capacity/demand exactly as
// the original's SystemNode.__post_init__ does: a SOURCE given a demand
// value instead treats it as capacity; a CONSUMER given a capacity value
// instead treats it as demand.
func NewSystemNode(id string, nodeType NodeType, systemType SystemType, spaceID string, capacity, demand float64) *SystemNode {
	n := &SystemNode{
		ID: id, NodeType: nodeType, SystemType: systemType, SpaceID: spaceID,
		CapacityUnits: capacity, DemandUnits: demand,
	}
	if n.NodeType == NodeSource && n.DemandUnits > 0 {
		if n.DemandUnits > n.CapacityUnits {
			n.CapacityUnits = n.DemandUnits
		}
		n.DemandUnits = 0
	}
	if n.NodeType == NodeConsumer && n.CapacityUnits > 0 {
		if n.CapacityUnits > n.DemandUnits {
			n.DemandUnits = n.CapacityUnits
		}
		n.CapacityUnits = 0
	}
	return n
}

func (n *SystemNode) IsSource() bool      { return n.NodeType == NodeSource }
func (n *SystemNode) IsConsumer() bool    { return n.NodeType == NodeConsumer }
func (n *SystemNode) IsJunction() bool    { return n.NodeType == NodeJunction }
func (n *SystemNode) IsPassThrough() bool { return n.NodeType == NodePassThrough }
func (n *SystemNode) IsEndpoint() bool    { return n.IsSource() || n.IsConsumer() }

// EffectiveValue returns capacity for a source, demand for a consumer, and
// zero otherwise.
func (n *SystemNode) EffectiveValue() float64 {
	switch n.NodeType {
	case NodeSource:
		return n.CapacityUnits
	case NodeConsumer:
		return n.DemandUnits
	default:
		return 0
	}
}

func (n *SystemNode) AddTrunk(trunkID string) {
	for _, t := range n.ConnectedTrunks {
		if t == trunkID {
			return
		}
	}
	n.ConnectedTrunks = append(n.ConnectedTrunks, trunkID)
}

func (n *SystemNode) RemoveTrunk(trunkID string) {
	out := n.ConnectedTrunks[:0]
	for _, t := range n.ConnectedTrunks {
		if t != trunkID {
			out = append(out, t)
		}
	}
	n.ConnectedTrunks = out
}

// Validate returns every configuration error found in n, matching the
// original's SystemNode.validate().
func (n *SystemNode) Validate() []string {
	var errs []string
	if n.ID == "" {
		errs = append(errs, "node_id is required")
	}
	if n.SpaceID == "" {
		errs = append(errs, "space_id is required")
	}
	if n.NodeType == NodeSource && n.CapacityUnits <= 0 {
		errs = append(errs, "SOURCE nodes must have capacity_units > 0")
	}
	if n.NodeType == NodeConsumer && n.DemandUnits <= 0 {
		errs = append(errs, "CONSUMER nodes must have demand_units > 0")
	}
	return errs
}

func (n *SystemNode) IsValid() bool { return len(n.Validate()) == 0 }
