package contract

import (
	"math"
	"sort"

	"github.com/magnetcad/pipeline/routing/schema"
	"github.com/magnetcad/pipeline/util"
)

// LineageStatus reports whether a RoutingLayout's routing is still valid
// against the geometry, compartment arrangement, and input contract it was
// computed from (spec.md §4.7.7).
type LineageStatus string

const (
	LineageCurrent          LineageStatus = "current"
	LineageStaleGeometry    LineageStatus = "stale_geometry"
	LineageStaleArrangement LineageStatus = "stale_arrangement"
	LineageStaleInput       LineageStatus = "stale_input"
	LineageStaleMultiple    LineageStatus = "stale_multiple"
	LineageUnknown          LineageStatus = "unknown"
)

// RoutingLineage records the hashes a routed layout was derived from, so a
// later staleness check can tell exactly which upstream input changed
// (spec.md §4.7.7).
type RoutingLineage struct {
	SourceDesignID     string
	SourceVersion      int
	GeometryPrecisionM float64

	GeometryHash    string
	ArrangementHash string
	InputHash       string
	OutputHash      string

	Status           LineageStatus
	StalenessReasons []string
}

// NewLineage starts an unknown-status lineage for one routing run.
func NewLineage(designID string, version int, geometryPrecisionM float64) *RoutingLineage {
	return &RoutingLineage{
		SourceDesignID:     designID,
		SourceVersion:      version,
		GeometryPrecisionM: geometryPrecisionM,
		Status:             LineageUnknown,
	}
}

// ComputeGeometryHash hashes every space center quantized to precision, so
// sub-precision geometry jitter does not spuriously mark a layout stale.
func ComputeGeometryHash(spaceCenters map[string]schema.Point3D, precision float64) string {
	ids := make([]string, 0, len(spaceCenters))
	for id := range spaceCenters {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	quantize := func(v float64) float64 {
		if precision <= 0 {
			return v
		}
		return math.Round(v/precision) * precision
	}

	shape := make([]any, 0, len(ids))
	for _, id := range ids {
		c := spaceCenters[id]
		shape = append(shape, map[string]any{
			"id": id,
			"x":  quantize(c.X),
			"y":  quantize(c.Y),
			"z":  quantize(c.Z),
		})
	}
	h, err := util.ContentHashValue(shape)
	if err != nil {
		return ""
	}
	return util.TruncatedHash(h, 32)
}

// ComputeArrangementHash hashes the compartment adjacency, fire zones, and
// watertight boundaries: the parts of a design's layout that change
// independently of exact geometry (e.g. re-zoning a space).
func ComputeArrangementHash(adjacency map[string][]string, fireZones map[string][]string, watertight [][2]string) string {
	adjIDs := make([]string, 0, len(adjacency))
	for id := range adjacency {
		adjIDs = append(adjIDs, id)
	}
	sort.Strings(adjIDs)
	adjShape := make([]any, 0, len(adjIDs))
	for _, id := range adjIDs {
		adjShape = append(adjShape, map[string]any{"space": id, "neighbors": toAnySlice(sortedUnique(adjacency[id]))})
	}

	zoneIDs := make([]string, 0, len(fireZones))
	for id := range fireZones {
		zoneIDs = append(zoneIDs, id)
	}
	sort.Strings(zoneIDs)
	zoneShape := make([]any, 0, len(zoneIDs))
	for _, id := range zoneIDs {
		zoneShape = append(zoneShape, map[string]any{"zone": id, "spaces": toAnySlice(sortedUnique(fireZones[id]))})
	}

	wt := append([][2]string(nil), watertight...)
	sort.Slice(wt, func(i, j int) bool {
		if wt[i][0] != wt[j][0] {
			return wt[i][0] < wt[j][0]
		}
		return wt[i][1] < wt[j][1]
	})
	wtShape := make([]any, 0, len(wt))
	for _, pair := range wt {
		wtShape = append(wtShape, map[string]any{"a": pair[0], "b": pair[1]})
	}

	shape := map[string]any{
		"adjacency":  adjShape,
		"zones":      zoneShape,
		"watertight": wtShape,
	}
	h, err := util.ContentHashValue(shape)
	if err != nil {
		return ""
	}
	return util.TruncatedHash(h, 32)
}

// ComputeFromInputs fills in l's geometry, arrangement, and input hashes at
// the moment routing is performed.
func (l *RoutingLineage) ComputeFromInputs(
	spaceCenters map[string]schema.Point3D,
	adjacency map[string][]string,
	fireZones map[string][]string,
	watertight [][2]string,
	routingInputHash string,
) {
	l.GeometryHash = ComputeGeometryHash(spaceCenters, l.GeometryPrecisionM)
	l.ArrangementHash = ComputeArrangementHash(adjacency, fireZones, watertight)
	l.InputHash = routingInputHash
}

// SetOutputHash records the finalized layout's content hash.
func (l *RoutingLineage) SetOutputHash(h string) {
	l.OutputHash = h
}

// CheckStaleness compares l's recorded hashes against freshly computed ones,
// recording which upstream input(s) diverged and returning the resulting
// status.
func (l *RoutingLineage) CheckStaleness(currentGeometryHash, currentArrangementHash, currentInputHash string) LineageStatus {
	var reasons []string
	if currentGeometryHash != l.GeometryHash {
		reasons = append(reasons, "geometry changed")
	}
	if currentArrangementHash != l.ArrangementHash {
		reasons = append(reasons, "compartment arrangement changed")
	}
	if currentInputHash != l.InputHash {
		reasons = append(reasons, "routing input changed")
	}

	l.StalenessReasons = reasons
	switch len(reasons) {
	case 0:
		l.Status = LineageCurrent
	case 1:
		switch {
		case currentGeometryHash != l.GeometryHash:
			l.Status = LineageStaleGeometry
		case currentArrangementHash != l.ArrangementHash:
			l.Status = LineageStaleArrangement
		default:
			l.Status = LineageStaleInput
		}
	default:
		l.Status = LineageStaleMultiple
	}
	return l.Status
}
