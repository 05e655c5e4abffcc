// Package contract implements spec.md §4.7.6's RoutingInputContract and
// §4.7.7's RoutingLineage: the immutable, content-hashed handoff between a
// design and the routing service, grounded on the original's
// magnet/routing/contracts/{routing_input,routing_lineage}.py.
package contract

import (
	"sort"

	"github.com/magnetcad/pipeline/routing/schema"
	"github.com/magnetcad/pipeline/util"
)

// RoutingInputContract is a frozen snapshot of every input a routing run
// needs, decoupling the router from any design-state internals (spec.md
// §4.7.6). Constructed once via New; every accessor returns a defensive
// copy, so callers can never mutate the frozen contract through its return
// values.
type RoutingInputContract struct {
	spaces           map[string]schema.SpaceInfo
	adjacency        map[string][]string
	fireZones        map[string][]string
	watertight       [][2]string
	systemNodes      map[schema.SystemType][]*schema.SystemNode
	excludedSpaces   map[string]struct{}
	maxZoneCrossings int
}

// New freezes mutable input collections into an immutable contract,
// sorting every collection so the content hash and iteration order are
// independent of map/slice construction order.
func New(
	spaces map[string]schema.SpaceInfo,
	adjacency map[string][]string,
	fireZones map[string][]string,
	watertightPairs [][2]string,
	systemNodes map[schema.SystemType][]*schema.SystemNode,
	excludedSpaces []string,
	maxZoneCrossings int,
) *RoutingInputContract {
	c := &RoutingInputContract{
		spaces:           make(map[string]schema.SpaceInfo, len(spaces)),
		adjacency:        make(map[string][]string, len(adjacency)),
		fireZones:        make(map[string][]string, len(fireZones)),
		systemNodes:      make(map[schema.SystemType][]*schema.SystemNode, len(systemNodes)),
		excludedSpaces:   make(map[string]struct{}, len(excludedSpaces)),
		maxZoneCrossings: maxZoneCrossings,
	}
	for id, info := range spaces {
		if len(info.ZoneIDs) > 0 {
			info.ZoneIDs = sortedUnique(info.ZoneIDs)
		}
		c.spaces[id] = info
	}
	for id, neighbors := range adjacency {
		c.adjacency[id] = sortedUnique(neighbors)
	}
	for zoneID, spaceIDs := range fireZones {
		c.fireZones[zoneID] = sortedUnique(spaceIDs)
	}
	seen := make(map[[2]string]struct{}, len(watertightPairs))
	for _, pair := range watertightPairs {
		a, b := pair[0], pair[1]
		if a > b {
			a, b = b, a
		}
		seen[[2]string{a, b}] = struct{}{}
	}
	for pair := range seen {
		c.watertight = append(c.watertight, pair)
	}
	sort.Slice(c.watertight, func(i, j int) bool {
		if c.watertight[i][0] != c.watertight[j][0] {
			return c.watertight[i][0] < c.watertight[j][0]
		}
		return c.watertight[i][1] < c.watertight[j][1]
	})
	for st, nodes := range systemNodes {
		cp := append([]*schema.SystemNode(nil), nodes...)
		sort.Slice(cp, func(i, j int) bool { return cp[i].ID < cp[j].ID })
		c.systemNodes[st] = cp
	}
	for _, id := range excludedSpaces {
		c.excludedSpaces[id] = struct{}{}
	}
	return c
}

func sortedUnique(ss []string) []string {
	seen := make(map[string]struct{}, len(ss))
	for _, s := range ss {
		seen[s] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Spaces returns a copy of the frozen space map.
func (c *RoutingInputContract) Spaces() map[string]schema.SpaceInfo {
	out := make(map[string]schema.SpaceInfo, len(c.spaces))
	for k, v := range c.spaces {
		out[k] = v
	}
	return out
}

// Adjacency returns a copy of the frozen adjacency map, each neighbor list
// sorted and de-duplicated.
func (c *RoutingInputContract) Adjacency() map[string][]string {
	out := make(map[string][]string, len(c.adjacency))
	for k, v := range c.adjacency {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// FireZones returns a copy of the frozen zone-to-spaces map.
func (c *RoutingInputContract) FireZones() map[string][]string {
	out := make(map[string][]string, len(c.fireZones))
	for k, v := range c.fireZones {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// WatertightBoundaries returns the frozen, normalized (a<b) watertight pairs.
func (c *RoutingInputContract) WatertightBoundaries() [][2]string {
	return append([][2]string(nil), c.watertight...)
}

// SystemNodes returns a copy of the frozen per-system-type node map.
func (c *RoutingInputContract) SystemNodes() map[schema.SystemType][]*schema.SystemNode {
	out := make(map[schema.SystemType][]*schema.SystemNode, len(c.systemNodes))
	for st, nodes := range c.systemNodes {
		out[st] = append([]*schema.SystemNode(nil), nodes...)
	}
	return out
}

// NodesForSystem returns the nodes declared for systemType, or nil.
func (c *RoutingInputContract) NodesForSystem(systemType schema.SystemType) []*schema.SystemNode {
	return append([]*schema.SystemNode(nil), c.systemNodes[systemType]...)
}

// ExcludedSpaces returns the set of space ids routing must avoid.
func (c *RoutingInputContract) ExcludedSpaces() map[string]struct{} {
	out := make(map[string]struct{}, len(c.excludedSpaces))
	for k := range c.excludedSpaces {
		out[k] = struct{}{}
	}
	return out
}

func (c *RoutingInputContract) MaxZoneCrossings() int { return c.maxZoneCrossings }

// IsAdjacent reports whether spaceB is a registered neighbor of spaceA.
func (c *RoutingInputContract) IsAdjacent(spaceA, spaceB string) bool {
	for _, n := range c.adjacency[spaceA] {
		if n == spaceB {
			return true
		}
	}
	return false
}

// SpaceZone returns the fire zone containing spaceID, if any.
func (c *RoutingInputContract) SpaceZone(spaceID string) (string, bool) {
	zoneIDs := make([]string, 0, len(c.fireZones))
	for zoneID := range c.fireZones {
		zoneIDs = append(zoneIDs, zoneID)
	}
	sort.Strings(zoneIDs)
	for _, zoneID := range zoneIDs {
		for _, s := range c.fireZones[zoneID] {
			if s == spaceID {
				return zoneID, true
			}
		}
	}
	return "", false
}

// IsWatertightBoundary reports whether (spaceA, spaceB) is a registered
// watertight boundary, in either order.
func (c *RoutingInputContract) IsWatertightBoundary(spaceA, spaceB string) bool {
	if spaceA > spaceB {
		spaceA, spaceB = spaceB, spaceA
	}
	for _, pair := range c.watertight {
		if pair[0] == spaceA && pair[1] == spaceB {
			return true
		}
	}
	return false
}

// ContentHash computes spec.md §4.7.6's content hash: SHA-256 over a
// canonical encoding of spaces, adjacency, fire zones, and system node
// counts, hex-truncated to 32 chars.
func (c *RoutingInputContract) ContentHash() string {
	spaceIDs := make([]string, 0, len(c.spaces))
	for id := range c.spaces {
		spaceIDs = append(spaceIDs, id)
	}
	sort.Strings(spaceIDs)
	spaceShape := make([]any, 0, len(spaceIDs))
	for _, id := range spaceIDs {
		spaceShape = append(spaceShape, map[string]any{"id": id, "type": c.spaces[id].SpaceType})
	}

	adjIDs := make([]string, 0, len(c.adjacency))
	for id := range c.adjacency {
		adjIDs = append(adjIDs, id)
	}
	sort.Strings(adjIDs)
	adjShape := make([]any, 0, len(adjIDs))
	for _, id := range adjIDs {
		adjShape = append(adjShape, map[string]any{"space": id, "neighbors": toAnySlice(c.adjacency[id])})
	}

	zoneIDs := make([]string, 0, len(c.fireZones))
	for id := range c.fireZones {
		zoneIDs = append(zoneIDs, id)
	}
	sort.Strings(zoneIDs)
	zoneShape := make([]any, 0, len(zoneIDs))
	for _, id := range zoneIDs {
		zoneShape = append(zoneShape, map[string]any{"zone": id, "spaces": toAnySlice(c.fireZones[id])})
	}

	systemTypes := make([]string, 0, len(c.systemNodes))
	for st := range c.systemNodes {
		systemTypes = append(systemTypes, string(st))
	}
	sort.Strings(systemTypes)
	systemShape := make([]any, 0, len(systemTypes))
	for _, st := range systemTypes {
		systemShape = append(systemShape, map[string]any{"system": st, "count": len(c.systemNodes[schema.SystemType(st)])})
	}

	shape := map[string]any{
		"spaces":  spaceShape,
		"adjacency": adjShape,
		"zones":   zoneShape,
		"systems": systemShape,
	}
	h, err := util.ContentHashValue(shape)
	if err != nil {
		return ""
	}
	return util.TruncatedHash(h, 32)
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
