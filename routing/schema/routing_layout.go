package schema

import (
	"sort"

	"github.com/magnetcad/pipeline/util"
)

// LayoutStatus is the overall routing status across every system type in a
// RoutingLayout.
type LayoutStatus string

const (
	LayoutEmpty     LayoutStatus = "empty"
	LayoutPartial   LayoutStatus = "partial"
	LayoutComplete  LayoutStatus = "complete"
	LayoutValidated LayoutStatus = "validated"
	LayoutFailed    LayoutStatus = "failed"
)

// RoutingLayout aggregates a SystemTopology per routed SystemType for one
// design (spec.md §3). It carries no lineage of its own — RoutingService
// computes and attaches the RoutingLineage alongside the layout, since
// lineage is a property of how the layout was derived, not of the layout's
// content.
type RoutingLayout struct {
	DesignID string

	Topologies map[SystemType]*SystemTopology

	Status         LayoutStatus
	RoutedSystems  map[SystemType]struct{}
	FailedSystems  map[SystemType]struct{}

	TotalTrunkLengthM  float64
	ZoneCrossingCount  int

	Version int

	// ContentHash is the layout's output hash, set by UpdateHash once every
	// topology has been routed (spec.md §4.7.7 step 6). Empty until then.
	ContentHash string
}

// NewRoutingLayout returns an empty layout for designID.
func NewRoutingLayout(designID string) *RoutingLayout {
	return &RoutingLayout{
		DesignID:      designID,
		Topologies:    make(map[SystemType]*SystemTopology),
		RoutedSystems: make(map[SystemType]struct{}),
		FailedSystems: make(map[SystemType]struct{}),
		Status:        LayoutEmpty,
		Version:       1,
	}
}

// AddTopology adds or replaces topology, updating the routed/failed tracking
// sets and aggregate status from its TopologyStatus.
func (l *RoutingLayout) AddTopology(topology *SystemTopology) {
	l.Topologies[topology.SystemType] = topology

	switch topology.Status {
	case TopologyRouted, TopologyValidated:
		l.RoutedSystems[topology.SystemType] = struct{}{}
		delete(l.FailedSystems, topology.SystemType)
	case TopologyFailed:
		l.FailedSystems[topology.SystemType] = struct{}{}
		delete(l.RoutedSystems, topology.SystemType)
	}

	l.updateStatus()
	l.updateAggregates()
}

func (l *RoutingLayout) RemoveTopology(systemType SystemType) *SystemTopology {
	topology, ok := l.Topologies[systemType]
	if !ok {
		return nil
	}
	delete(l.Topologies, systemType)
	delete(l.RoutedSystems, systemType)
	delete(l.FailedSystems, systemType)
	l.updateStatus()
	l.updateAggregates()
	return topology
}

func (l *RoutingLayout) GetTopology(systemType SystemType) *SystemTopology {
	return l.Topologies[systemType]
}

func (l *RoutingLayout) HasTopology(systemType SystemType) bool {
	_, ok := l.Topologies[systemType]
	return ok
}

func (l *RoutingLayout) updateStatus() {
	switch {
	case len(l.Topologies) == 0:
		l.Status = LayoutEmpty
	case len(l.FailedSystems) > 0:
		l.Status = LayoutFailed
	case len(l.RoutedSystems) == 0:
		l.Status = LayoutPartial
	default:
		allValidated, allRoutedOrValidated := true, true
		for _, t := range l.Topologies {
			if t.Status != TopologyValidated {
				allValidated = false
			}
			if t.Status != TopologyRouted && t.Status != TopologyValidated {
				allRoutedOrValidated = false
			}
		}
		switch {
		case allValidated:
			l.Status = LayoutValidated
		case allRoutedOrValidated:
			l.Status = LayoutComplete
		default:
			l.Status = LayoutPartial
		}
	}
}

func (l *RoutingLayout) updateAggregates() {
	var length float64
	var crossings int
	for _, t := range l.Topologies {
		length += t.TotalLengthM
		for _, trunk := range t.Trunks {
			crossings += len(trunk.ZoneCrossings)
		}
	}
	l.TotalTrunkLengthM = length
	l.ZoneCrossingCount = crossings
}

// ValidateAll validates every topology, returning true only if all pass.
func (l *RoutingLayout) ValidateAll() bool {
	allValid := true
	for _, topology := range l.Topologies {
		if !topology.Validate() {
			allValid = false
			l.FailedSystems[topology.SystemType] = struct{}{}
			delete(l.RoutedSystems, topology.SystemType)
		} else {
			l.RoutedSystems[topology.SystemType] = struct{}{}
			delete(l.FailedSystems, topology.SystemType)
		}
	}
	l.updateStatus()
	return allValid
}

// UpdateHash recomputes ContentHash from the layout's finalized topologies:
// every system type's routed node and trunk ids, in deterministic order
// (spec.md §4.7.7 step 6). Call once routing for every system type has
// settled.
func (l *RoutingLayout) UpdateHash() {
	systemTypes := make([]string, 0, len(l.Topologies))
	for st := range l.Topologies {
		systemTypes = append(systemTypes, string(st))
	}
	sort.Strings(systemTypes)

	systemShape := make([]any, 0, len(systemTypes))
	for _, st := range systemTypes {
		topology := l.Topologies[SystemType(st)]

		nodeIDs := make([]string, 0, len(topology.Nodes))
		for id := range topology.Nodes {
			nodeIDs = append(nodeIDs, id)
		}
		sort.Strings(nodeIDs)

		trunkIDs := make([]string, 0, len(topology.Trunks))
		for id := range topology.Trunks {
			trunkIDs = append(trunkIDs, id)
		}
		sort.Strings(trunkIDs)

		systemShape = append(systemShape, map[string]any{
			"system": st,
			"status": string(topology.Status),
			"nodes":  nodeIDs,
			"trunks": trunkIDs,
		})
	}

	shape := map[string]any{
		"design":   l.DesignID,
		"version":  l.Version,
		"systems":  systemShape,
	}
	h, err := util.ContentHashValue(shape)
	if err != nil {
		return
	}
	l.ContentHash = util.TruncatedHash(h, 32)
}

func (l *RoutingLayout) SystemCount() int { return len(l.Topologies) }

func (l *RoutingLayout) TotalNodeCount() int {
	n := 0
	for _, t := range l.Topologies {
		n += t.NodeCount()
	}
	return n
}

func (l *RoutingLayout) TotalTrunkCount() int {
	n := 0
	for _, t := range l.Topologies {
		n += t.TrunkCount()
	}
	return n
}

// SystemsByStatus returns every SystemType whose topology has the given
// status, sorted.
func (l *RoutingLayout) SystemsByStatus(status TopologyStatus) []SystemType {
	var out []SystemType
	for st, t := range l.Topologies {
		if t.Status == status {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SpacesWithSystems maps every space id reachable through any node or trunk
// path to the sorted list of SystemTypes passing through it.
func (l *RoutingLayout) SpacesWithSystems() map[string][]SystemType {
	out := make(map[string][]SystemType)
	add := func(spaceID string, st SystemType) {
		for _, existing := range out[spaceID] {
			if existing == st {
				return
			}
		}
		out[spaceID] = append(out[spaceID], st)
	}
	systemTypes := make([]SystemType, 0, len(l.Topologies))
	for st := range l.Topologies {
		systemTypes = append(systemTypes, st)
	}
	sort.Slice(systemTypes, func(i, j int) bool { return systemTypes[i] < systemTypes[j] })

	for _, st := range systemTypes {
		topology := l.Topologies[st]
		for _, node := range topology.Nodes {
			add(node.SpaceID, st)
		}
		for _, trunk := range topology.Trunks {
			for _, spaceID := range trunk.PathSpaces {
				add(spaceID, st)
			}
		}
	}
	return out
}

// SystemDensityBySpace counts distinct systems per space.
func (l *RoutingLayout) SystemDensityBySpace() map[string]int {
	density := make(map[string]int)
	for spaceID, systems := range l.SpacesWithSystems() {
		density[spaceID] = len(systems)
	}
	return density
}

// HighDensitySpaces returns space ids with at least threshold distinct
// systems, sorted.
func (l *RoutingLayout) HighDensitySpaces(threshold int) []string {
	var out []string
	for spaceID, count := range l.SystemDensityBySpace() {
		if count >= threshold {
			out = append(out, spaceID)
		}
	}
	sort.Strings(out)
	return out
}
