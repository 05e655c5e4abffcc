package schema

// Point3D is an immutable 3D coordinate in the vessel's design frame.
type Point3D struct {
	X, Y, Z float64
}

// SpaceInfo describes a single compartment: identity, its type tag, the 3D
// center used for geometry hashing and edge-length computation, whether
// systems may route through it, its deck, and the zone ids it belongs to
// (spec.md §3's Routing data model). Immutable once constructed.
type SpaceInfo struct {
	ID       string
	SpaceType string
	Center   Point3D
	Routable bool
	DeckID   string
	ZoneIDs  []string // sorted, de-duplicated by the constructing contract
}
