package state

import (
	"sync"
	"time"
)

// historyDepth bounds the per-path write history ring buffer returned by
// History, per SPEC_FULL.md's supplement grounded on the original's
// state_manager.py history.
const historyDepth = 8

// Metadata is the per-path record spec.md §3 calls FieldMetadata: writer
// identity, monotonic write sequence number, wall-clock write time, and a
// stale flag.
type Metadata struct {
	Writer   string
	WriteSeq uint64
	WrittenAt time.Time
	Stale    bool
}

// DependentsResolver supplies the reverse dependency edges a Store consults
// on every write to flip the stale bit of transitively dependent paths
// (spec.md §4.1). The Topology package implements this interface; Store
// depends only on the interface to avoid an import cycle.
type DependentsResolver interface {
	// StaleDependents returns every path that transitively depends on path,
	// via the producer/consumer graph of validators.
	StaleDependents(path Path) []Path
}

type noopResolver struct{}

func (noopResolver) StaleDependents(Path) []Path { return nil }

// Store maps parameter path to (value, metadata). It is the only shared
// mutable structure in the pipeline (spec.md §4.1): writers are either
// user-driven setup code or validators writing exactly the paths they
// declared as outputs.
type Store struct {
	mu       sync.Mutex
	values   map[Path]Value
	meta     map[Path]*Metadata
	history  map[Path][]Metadata
	seq      uint64
	resolver DependentsResolver
}

// New creates an empty Store. A nil resolver disables stale propagation
// (StaleDependents always returns nil) — useful for unit tests that don't
// need a Topology.
func New(resolver DependentsResolver) *Store {
	if resolver == nil {
		resolver = noopResolver{}
	}
	return &Store{
		values:   make(map[Path]Value),
		meta:     make(map[Path]*Metadata),
		history:  make(map[Path][]Metadata),
		resolver: resolver,
	}
}

// SetResolver rewires the resolver after construction, for callers that
// build the Topology only once the Store already exists (e.g. to seed user
// parameters before the validator set is finalized).
func (s *Store) SetResolver(r DependentsResolver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r == nil {
		r = noopResolver{}
	}
	s.resolver = r
}

// Get returns def if path has never been written.
func (s *Store) Get(path Path, def Value) Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[path]; ok {
		return v
	}
	return def
}

// Has reports whether path has ever been written.
func (s *Store) Has(path Path) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[path]
	return ok
}

// Write unconditionally overwrites path, bumps the write sequence, records
// writer, and flips the stale bit of every transitively dependent path.
func (s *Store) Write(path Path, v Value, writer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	now := time.Now()
	md := &Metadata{Writer: writer, WriteSeq: s.seq, WrittenAt: now, Stale: false}

	s.values[path] = v
	s.meta[path] = md
	s.pushHistory(path, *md)

	s.propagateStaleLocked(path)
}

func (s *Store) pushHistory(path Path, md Metadata) {
	h := append(s.history[path], md)
	if len(h) > historyDepth {
		h = h[len(h)-historyDepth:]
	}
	s.history[path] = h
}

// propagateStaleLocked marks every path transitively dependent on path as
// stale. Must be called with s.mu held.
func (s *Store) propagateStaleLocked(origin Path) {
	visited := map[Path]bool{origin: true}
	queue := []Path{origin}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dep := range s.resolver.StaleDependents(cur) {
			if visited[dep] {
				continue
			}
			visited[dep] = true
			if md, ok := s.meta[dep]; ok {
				md.Stale = true
			} else {
				// Path never written but declared as an output: record a
				// stale placeholder so IsStale/get_metadata behave
				// sensibly once it is eventually written.
				s.meta[dep] = &Metadata{Stale: true}
			}
			queue = append(queue, dep)
		}
	}
}

// Metadata returns the metadata for path, if it has ever been written or
// has been marked stale by a write upstream of it.
func (s *Store) Metadata(path Path) (Metadata, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	md, ok := s.meta[path]
	if !ok {
		return Metadata{}, false
	}
	return *md, true
}

// IsStale reports whether path is stale. A path that was never written is
// stale only if a write to a path it depends on has marked it so (see
// propagateStaleLocked); otherwise it is not stale.
func (s *Store) IsStale(path Path) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	md, ok := s.meta[path]
	return ok && md.Stale
}

// History returns up to historyDepth most recent metadata entries for path,
// oldest first.
func (s *Store) History(path Path) []Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.history[path]
	out := make([]Metadata, len(h))
	copy(out, h)
	return out
}

// Paths returns every path ever written, unordered.
func (s *Store) Paths() []Path {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Path, 0, len(s.values))
	for p := range s.values {
		out = append(out, p)
	}
	return out
}
