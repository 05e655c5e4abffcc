package service

import (
	"sort"

	"github.com/magnetcad/pipeline/routing/schema"
)

// SystemDiff summarizes how one system type's topology changed between two
// layouts.
type SystemDiff struct {
	SystemType     schema.SystemType
	TrunkCountFrom int
	TrunkCountTo   int
	LengthFromM    float64
	LengthToM      float64
	StatusFrom     schema.TopologyStatus
	StatusTo       schema.TopologyStatus
}

// LayoutDiff is the result of comparing two RoutingLayouts for the same
// design at different versions (a supplemental feature grounded on the
// original's routing_diff.py).
type LayoutDiff struct {
	AddedSystems   []schema.SystemType
	RemovedSystems []schema.SystemType
	ChangedSystems []SystemDiff

	TotalLengthDeltaM float64
	TrunkCountDelta    int
}

// DiffLayouts compares a (before) against b (after), reporting which system
// types were added, removed, or changed, plus aggregate deltas.
func DiffLayouts(a, b *schema.RoutingLayout) LayoutDiff {
	var diff LayoutDiff

	aTypes := make(map[schema.SystemType]*schema.SystemTopology)
	if a != nil {
		for st, t := range a.Topologies {
			aTypes[st] = t
		}
	}
	bTypes := make(map[schema.SystemType]*schema.SystemTopology)
	if b != nil {
		for st, t := range b.Topologies {
			bTypes[st] = t
		}
	}

	for st := range bTypes {
		if _, ok := aTypes[st]; !ok {
			diff.AddedSystems = append(diff.AddedSystems, st)
		}
	}
	for st := range aTypes {
		if _, ok := bTypes[st]; !ok {
			diff.RemovedSystems = append(diff.RemovedSystems, st)
		}
	}
	for st, bTopo := range bTypes {
		aTopo, ok := aTypes[st]
		if !ok {
			continue
		}
		if aTopo.TrunkCount() != bTopo.TrunkCount() || aTopo.TotalLengthM != bTopo.TotalLengthM || aTopo.Status != bTopo.Status {
			diff.ChangedSystems = append(diff.ChangedSystems, SystemDiff{
				SystemType:     st,
				TrunkCountFrom: aTopo.TrunkCount(),
				TrunkCountTo:   bTopo.TrunkCount(),
				LengthFromM:    aTopo.TotalLengthM,
				LengthToM:      bTopo.TotalLengthM,
				StatusFrom:     aTopo.Status,
				StatusTo:       bTopo.Status,
			})
		}
	}

	sortSystemTypes(diff.AddedSystems)
	sortSystemTypes(diff.RemovedSystems)
	sort.Slice(diff.ChangedSystems, func(i, j int) bool {
		return diff.ChangedSystems[i].SystemType < diff.ChangedSystems[j].SystemType
	})

	if a != nil && b != nil {
		diff.TotalLengthDeltaM = b.TotalTrunkLengthM - a.TotalTrunkLengthM
		diff.TrunkCountDelta = b.TotalTrunkCount() - a.TotalTrunkCount()
	} else if b != nil {
		diff.TotalLengthDeltaM = b.TotalTrunkLengthM
		diff.TrunkCountDelta = b.TotalTrunkCount()
	}

	return diff
}

func sortSystemTypes(types []schema.SystemType) {
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
}
