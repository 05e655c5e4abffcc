// Package service implements spec.md §4.7.7's RoutingService: the façade
// that turns a frozen RoutingInputContract into a routed RoutingLayout plus
// its RoutingLineage, with result caching and staleness re-routing. Grounded
// on the original's magnet/routing/service/routing_service.py.
package service

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/magnetcad/pipeline/routing/contract"
	"github.com/magnetcad/pipeline/routing/graph"
	"github.com/magnetcad/pipeline/routing/router"
	"github.com/magnetcad/pipeline/routing/schema"
	"github.com/magnetcad/pipeline/routing/zone"
)

// Config tunes a Service's routing and caching behavior.
type Config struct {
	AllowZoneViolations bool
	MaxRerouteAttempts  int
	MaxRedundantPaths   int
	GeometryPrecisionM  float64
	EnableCaching       bool
}

// DefaultConfig returns the service's baseline tuning.
func DefaultConfig() Config {
	return Config{
		MaxRerouteAttempts: 5,
		MaxRedundantPaths:  5,
		GeometryPrecisionM: 0.01,
		EnableCaching:      true,
	}
}

type cachedResult struct {
	layout  *schema.RoutingLayout
	lineage *contract.RoutingLineage
}

// Service is the single entry point for turning a design's routing inputs
// into a routed layout (spec.md §4.7.7).
type Service struct {
	cfg Config

	mu    sync.Mutex
	cache map[string]cachedResult
}

// New builds a Service.
func New(cfg Config) *Service {
	return &Service{cfg: cfg, cache: make(map[string]cachedResult)}
}

// Route runs the full routing algorithm for c, routing every declared
// system type's nodes and assembling the resulting layout and lineage
// (spec.md §4.7.7's seven steps). Returns any non-fatal warnings (e.g. a
// system with fewer than two nodes, skipped) alongside the result.
func (s *Service) Route(c *contract.RoutingInputContract, designID string, designVersion int) (*schema.RoutingLayout, *contract.RoutingLineage, []string, error) {
	inputHash := c.ContentHash()

	if s.cfg.EnableCaching {
		s.mu.Lock()
		cached, hit := s.cache[inputHash]
		s.mu.Unlock()
		if hit {
			return cached.layout, cached.lineage, nil, nil
		}
	}

	spaceCenters := make(map[string]schema.Point3D, len(c.Spaces()))
	spaces := c.Spaces()
	for id, info := range spaces {
		spaceCenters[id] = info.Center
	}
	adjacency := c.Adjacency()
	fireZones := c.FireZones()
	watertight := c.WatertightBoundaries()

	lineage := contract.NewLineage(designID, designVersion, s.cfg.GeometryPrecisionM)
	lineage.ComputeFromInputs(spaceCenters, adjacency, fireZones, watertight, inputHash)

	compGraph := s.buildCompartmentGraph(spaces, adjacency, fireZones, watertight)
	zoneMgr := s.buildZoneManager(fireZones, watertight)

	layout := schema.NewRoutingLayout(designID)

	systemNodes := c.SystemNodes()
	systemTypes := make([]string, 0, len(systemNodes))
	for st := range systemNodes {
		systemTypes = append(systemTypes, string(st))
	}
	sort.Strings(systemTypes)

	routerCfg := router.Config{
		AllowZoneViolations: s.cfg.AllowZoneViolations,
		MaxRerouteAttempts:  s.cfg.MaxRerouteAttempts,
		MaxRedundantPaths:   s.cfg.MaxRedundantPaths,
	}

	var warnings []string
	zoneBoundaries := graph.ZoneBoundaries(fireZones)

	for _, stStr := range systemTypes {
		st := schema.SystemType(stStr)
		nodes := systemNodes[st]
		if len(nodes) < 2 {
			warnings = append(warnings, fmt.Sprintf("system %q has fewer than two nodes; skipped", st))
			continue
		}

		nodeGraph := graph.NewNodeGraph(st)
		nodeGraph.Build(nodes, compGraph, zoneBoundaries)

		tr := router.New(st, compGraph, zoneMgr, routerCfg)
		topology, err := tr.Route(nodeGraph, nodes)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("system %q failed to route: %v", st, err))
			continue
		}
		layout.AddTopology(topology)
	}

	layout.UpdateHash()
	lineage.SetOutputHash(layout.ContentHash)
	lineage.Status = contract.LineageCurrent

	if s.cfg.EnableCaching {
		s.mu.Lock()
		s.cache[inputHash] = cachedResult{layout: layout, lineage: lineage}
		s.mu.Unlock()
	}

	return layout, lineage, warnings, nil
}

// CheckStaleness recomputes c's geometry, arrangement, and input hashes and
// compares them against lineage's recorded ones.
func (s *Service) CheckStaleness(lineage *contract.RoutingLineage, c *contract.RoutingInputContract) contract.LineageStatus {
	spaces := c.Spaces()
	spaceCenters := make(map[string]schema.Point3D, len(spaces))
	for id, info := range spaces {
		spaceCenters[id] = info.Center
	}
	geometryHash := contract.ComputeGeometryHash(spaceCenters, lineage.GeometryPrecisionM)
	arrangementHash := contract.ComputeArrangementHash(c.Adjacency(), c.FireZones(), c.WatertightBoundaries())
	return lineage.CheckStaleness(geometryHash, arrangementHash, c.ContentHash())
}

// RouteIfStale re-routes only if the current layout/lineage pair is stale
// against c, otherwise returns the layout and lineage unchanged.
func (s *Service) RouteIfStale(layout *schema.RoutingLayout, lineage *contract.RoutingLineage, c *contract.RoutingInputContract, designID string, designVersion int) (*schema.RoutingLayout, *contract.RoutingLineage, []string, error) {
	if s.CheckStaleness(lineage, c) == contract.LineageCurrent {
		return layout, lineage, nil, nil
	}
	return s.Route(c, designID, designVersion)
}

// ClearCache empties the result cache, returning the number of entries
// removed.
func (s *Service) ClearCache() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.cache)
	s.cache = make(map[string]cachedResult)
	return n
}

func (s *Service) buildCompartmentGraph(spaces map[string]schema.SpaceInfo, adjacency map[string][]string, fireZones map[string][]string, watertight [][2]string) *graph.CompartmentGraph {
	g := graph.NewCompartmentGraph()

	ids := make([]string, 0, len(spaces))
	for id := range spaces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		g.AddSpace(spaces[id])
	}

	spaceZone := make(map[string]string, len(spaces))
	zoneIDs := make([]string, 0, len(fireZones))
	for zoneID := range fireZones {
		zoneIDs = append(zoneIDs, zoneID)
	}
	sort.Strings(zoneIDs)
	for _, zoneID := range zoneIDs {
		for _, spaceID := range fireZones[zoneID] {
			spaceZone[spaceID] = zoneID
		}
	}

	watertightSet := make(map[[2]string]bool, len(watertight))
	for _, pair := range watertight {
		watertightSet[pair] = true
	}

	seen := make(map[[2]string]bool)
	for _, a := range ids {
		neighbors := append([]string(nil), adjacency[a]...)
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

			infoA, infoB := spaces[a], spaces[b]
			distance := euclidean(infoA.Center, infoB.Center)
			zoneBoundary := spaceZone[a] != spaceZone[b]
			isWatertight := watertightSet[key]
			deckCrossing := infoA.DeckID != "" && infoB.DeckID != "" && infoA.DeckID != infoB.DeckID
			g.AddAdjacency(a, b, distance, zoneBoundary, isWatertight, deckCrossing)
		}
	}
	return g
}

func (s *Service) buildZoneManager(fireZones map[string][]string, watertight [][2]string) *zone.Manager {
	m := zone.NewManager()

	zoneIDs := make([]string, 0, len(fireZones))
	for zoneID := range fireZones {
		zoneIDs = append(zoneIDs, zoneID)
	}
	sort.Strings(zoneIDs)
	for _, zoneID := range zoneIDs {
		m.AddZone(zoneID, zone.ZoneFire, fireZones[zoneID])
	}

	for _, pair := range watertight {
		m.AddBoundary(pair[0], pair[1], "watertight")
	}
	return m
}

func euclidean(a, b schema.Point3D) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
