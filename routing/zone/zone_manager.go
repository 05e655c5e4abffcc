// Package zone validates zone-crossing compliance for routed trunks: fire
// zone, watertight, and other boundary rules layered on top of a design's
// CompartmentGraph (spec.md §4.7's zone compliance checks, grounded on
// the original's magnet/routing/router/zone_manager.py).
package zone

import (
	"fmt"
	"sort"
	"strings"

	"github.com/magnetcad/pipeline/routing/graph"
	"github.com/magnetcad/pipeline/routing/schema"
)

// ZoneType classifies a zone for crossing-compliance purposes.
type ZoneType string

const (
	ZoneFire          ZoneType = "fire"
	ZoneWatertight    ZoneType = "watertight"
	ZoneHazardous     ZoneType = "hazardous"
	ZoneAccommodation ZoneType = "accommodation"
	ZoneMachinery     ZoneType = "machinery"
	ZoneCargo         ZoneType = "cargo"
	ZoneOther         ZoneType = "other"
)

// CrossingStatus is the outcome of one zone-crossing compliance check.
type CrossingStatus string

const (
	CrossingAllowed     CrossingStatus = "allowed"
	CrossingConditional CrossingStatus = "conditional"
	CrossingProhibited  CrossingStatus = "prohibited"
)

// ZoneCrossingResult is the outcome of checking whether a system may cross
// from one space to another.
type ZoneCrossingResult struct {
	IsAllowed bool
	Status    CrossingStatus

	FromZone string
	ToZone   string

	FromZoneType ZoneType
	ToZoneType   ZoneType

	Reason       string
	Requirements []string
}

// Manager validates zone crossings for system routing against system
// type properties (can_cross_fire_zone / can_cross_watertight), explicit
// boundary overrides, and prohibited-zone policy.
type Manager struct {
	zoneTypes   map[string]ZoneType
	zoneSpaces  map[string]map[string]struct{}
	spaceToZone map[string]string
	boundaries  map[[2]string]string
}

func NewManager() *Manager {
	return &Manager{
		zoneTypes:   make(map[string]ZoneType),
		zoneSpaces:  make(map[string]map[string]struct{}),
		spaceToZone: make(map[string]string),
		boundaries:  make(map[[2]string]string),
	}
}

// AddZone registers zoneID as containing spaceIDs, classified as
// zoneType.
func (m *Manager) AddZone(zoneID string, zoneType ZoneType, spaceIDs []string) {
	m.zoneTypes[zoneID] = zoneType
	spaces := make(map[string]struct{}, len(spaceIDs))
	for _, s := range spaceIDs {
		spaces[s] = struct{}{}
		m.spaceToZone[s] = zoneID
	}
	m.zoneSpaces[zoneID] = spaces
}

func (m *Manager) RemoveZone(zoneID string) {
	for spaceID := range m.zoneSpaces[zoneID] {
		delete(m.spaceToZone, spaceID)
	}
	delete(m.zoneSpaces, zoneID)
	delete(m.zoneTypes, zoneID)
}

func boundaryKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

// AddBoundary registers an explicit boundary override between two spaces,
// independent of their zone membership.
func (m *Manager) AddBoundary(spaceA, spaceB, boundaryType string) {
	m.boundaries[boundaryKey(spaceA, spaceB)] = boundaryType
}

func (m *Manager) ZoneForSpace(spaceID string) (string, bool) {
	zoneID, ok := m.spaceToZone[spaceID]
	return zoneID, ok
}

func (m *Manager) ZoneType(zoneID string) (ZoneType, bool) {
	t, ok := m.zoneTypes[zoneID]
	return t, ok
}

// IsZoneBoundary reports whether two spaces belong to different zones or
// have an explicit boundary override.
func (m *Manager) IsZoneBoundary(spaceA, spaceB string) bool {
	zoneA, zoneB := m.spaceToZone[spaceA], m.spaceToZone[spaceB]
	if zoneA != "" && zoneB != "" && zoneA != zoneB {
		return true
	}
	_, ok := m.boundaries[boundaryKey(spaceA, spaceB)]
	return ok
}

// BoundaryType returns the effective boundary classification between two
// spaces: an explicit override if set, otherwise inferred from the
// differing zone types, "" if the spaces are not a boundary at all.
func (m *Manager) BoundaryType(spaceA, spaceB string) string {
	if t, ok := m.boundaries[boundaryKey(spaceA, spaceB)]; ok {
		return t
	}
	zoneA, zoneB := m.spaceToZone[spaceA], m.spaceToZone[spaceB]
	if zoneA == "" || zoneB == "" || zoneA == zoneB {
		return ""
	}
	typeA, typeB := m.zoneTypes[zoneA], m.zoneTypes[zoneB]
	switch {
	case typeA == ZoneFire || typeB == ZoneFire:
		return "fire"
	case typeA == ZoneWatertight || typeB == ZoneWatertight:
		return "watertight"
	default:
		return "zone"
	}
}

// CheckCrossing validates whether systemType may route from fromSpace to
// toSpace, applying fire-zone, watertight, and prohibited-zone policy in
// that order.
func (m *Manager) CheckCrossing(fromSpace, toSpace string, systemType schema.SystemType) ZoneCrossingResult {
	fromZone, toZone := m.spaceToZone[fromSpace], m.spaceToZone[toSpace]

	if fromZone == toZone && !m.IsZoneBoundary(fromSpace, toSpace) {
		return ZoneCrossingResult{IsAllowed: true, Status: CrossingAllowed, FromZone: fromZone, ToZone: toZone}
	}

	fromType, toType := m.zoneTypes[fromZone], m.zoneTypes[toZone]
	props := schema.GetSystemProperties(systemType)
	boundaryType := m.BoundaryType(fromSpace, toSpace)

	if boundaryType == "fire" || fromType == ZoneFire || toType == ZoneFire {
		if !props.CanCrossFireZone {
			return ZoneCrossingResult{
				IsAllowed: false, Status: CrossingProhibited,
				FromZone: fromZone, ToZone: toZone, FromZoneType: fromType, ToZoneType: toType,
				Reason: fmt.Sprintf("%s cannot cross fire zone boundary", systemType),
			}
		}
		return ZoneCrossingResult{
			IsAllowed: true, Status: CrossingConditional,
			FromZone: fromZone, ToZone: toZone, FromZoneType: fromType, ToZoneType: toType,
			Requirements: []string{"Fire damper or penetration seal required"},
		}
	}

	if boundaryType == "watertight" || fromType == ZoneWatertight || toType == ZoneWatertight {
		if !props.CanCrossWatertight {
			return ZoneCrossingResult{
				IsAllowed: false, Status: CrossingProhibited,
				FromZone: fromZone, ToZone: toZone, FromZoneType: fromType, ToZoneType: toType,
				Reason: fmt.Sprintf("%s cannot cross watertight boundary", systemType),
			}
		}
		return ZoneCrossingResult{
			IsAllowed: true, Status: CrossingConditional,
			FromZone: fromZone, ToZone: toZone, FromZoneType: fromType, ToZoneType: toType,
			Requirements: []string{"Watertight penetration required"},
		}
	}

	prohibited := make([]string, 0, len(props.ProhibitedZones))
	for p := range props.ProhibitedZones {
		prohibited = append(prohibited, p)
	}
	sort.Strings(prohibited)
	for _, p := range prohibited {
		if toType != "" && strings.Contains(strings.ToLower(string(toType)), strings.ToLower(p)) {
			return ZoneCrossingResult{
				IsAllowed: false, Status: CrossingProhibited,
				FromZone: fromZone, ToZone: toZone, FromZoneType: fromType, ToZoneType: toType,
				Reason: fmt.Sprintf("%s prohibited in %s zones", systemType, p),
			}
		}
	}

	return ZoneCrossingResult{
		IsAllowed: true, Status: CrossingAllowed,
		FromZone: fromZone, ToZone: toZone, FromZoneType: fromType, ToZoneType: toType,
	}
}

// CheckPath validates every adjacent crossing along pathSpaces, returning
// whether the whole path is free of prohibited crossings alongside the
// per-crossing results.
func (m *Manager) CheckPath(pathSpaces []string, systemType schema.SystemType) (bool, []ZoneCrossingResult) {
	if len(pathSpaces) < 2 {
		return true, nil
	}
	allValid := true
	results := make([]ZoneCrossingResult, 0, len(pathSpaces)-1)
	for i := 0; i < len(pathSpaces)-1; i++ {
		result := m.CheckCrossing(pathSpaces[i], pathSpaces[i+1], systemType)
		if result.Status == CrossingProhibited {
			allValid = false
		}
		results = append(results, result)
	}
	return allValid, results
}

// FindCompliantPath returns the first of up to maxPaths shortest simple
// paths between start and end (in g) whose every crossing is compliant
// for systemType, or false if none qualifies.
func (m *Manager) FindCompliantPath(start, end string, systemType schema.SystemType, g *graph.CompartmentGraph, maxPaths int) ([]string, bool) {
	candidates := g.Underlying().ShortestSimplePaths(start, end, maxPaths)
	for _, path := range candidates {
		if valid, _ := m.CheckPath(path, systemType); valid {
			return path, true
		}
	}
	return nil, false
}

// Statistics summarizes zone manager configuration.
type Statistics struct {
	ZoneCount     int
	SpaceCount    int
	BoundaryCount int
	ZonesByType   map[ZoneType]int
}

func (m *Manager) GetStatistics() Statistics {
	typeCounts := make(map[ZoneType]int)
	for _, t := range m.zoneTypes {
		typeCounts[t]++
	}
	return Statistics{
		ZoneCount:     len(m.zoneTypes),
		SpaceCount:    len(m.spaceToZone),
		BoundaryCount: len(m.boundaries),
		ZonesByType:   typeCounts,
	}
}
