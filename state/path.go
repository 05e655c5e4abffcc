package state

import (
	"errors"
	"strings"
)

// Path is a dot-separated string identifying a single value in the state
// store (spec.md §3: "hull.lwl", "stability.gm_transverse_m"). Paths are
// opaque keys; the store does not enforce any hierarchy beyond this dotted
// convention.
type Path string

// ErrEmptyPathSegment is returned by NewPath when a segment is empty, e.g.
// "hull..lwl" or a leading/trailing dot.
var ErrEmptyPathSegment = errors.New("state: empty path segment")

// NewPath validates and constructs a Path from a raw string.
func NewPath(raw string) (Path, error) {
	if raw == "" {
		return "", ErrEmptyPathSegment
	}
	for _, seg := range strings.Split(raw, ".") {
		if seg == "" {
			return "", ErrEmptyPathSegment
		}
	}
	return Path(raw), nil
}

// Phase returns the conventional phase prefix of the path — the segment
// before the first dot — without enforcing that it is a canonical phase id.
func (p Path) Phase() string {
	if i := strings.IndexByte(string(p), '.'); i >= 0 {
		return string(p)[:i]
	}
	return string(p)
}

func (p Path) String() string { return string(p) }
