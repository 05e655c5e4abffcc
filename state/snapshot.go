package state

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/magnetcad/pipeline/util"
)

// snapshotMetadata mirrors the flat metadata entry in spec.md §6:
// {writer, write_seq, written_at, stale}.
type snapshotMetadata struct {
	Writer    string    `json:"writer"`
	WriteSeq  uint64    `json:"write_seq"`
	WrittenAt time.Time `json:"written_at"`
	Stale     bool      `json:"stale"`
}

// snapshotDoc is the two-top-level-key JSON document spec.md §6 defines.
type snapshotDoc struct {
	Values   map[string]any              `json:"values"`
	Metadata map[string]snapshotMetadata `json:"metadata"`
}

// Snapshot serializes the store deterministically: a `values` object
// mirroring dotted-path structure (nested, sorted) and a `metadata` map
// keyed by the flat path. Floats are quantized to six decimals via
// util.Determinize.
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nested := map[string]any{}
	for path, v := range s.values {
		setNested(nested, string(path), v.Native())
	}

	metaOut := make(map[string]snapshotMetadata, len(s.meta))
	for path, md := range s.meta {
		metaOut[string(path)] = snapshotMetadata{
			Writer:    md.Writer,
			WriteSeq:  md.WriteSeq,
			WrittenAt: md.WrittenAt,
			Stale:     md.Stale,
		}
	}

	doc := snapshotDoc{Values: nested, Metadata: metaOut}
	det := util.Determinize(docToNative(doc), util.DefaultPrecision)
	return util.CanonicalJSON(det)
}

// docToNative round-trips through encoding/json to obtain a plain
// map[string]any/[]any tree that util.Determinize/CanonicalJSON understand,
// since snapshotDoc carries typed fields (time.Time, uint64) that those
// helpers don't special-case directly.
func docToNative(doc snapshotDoc) any {
	b, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		panic(err)
	}
	return generic
}

func setNested(root map[string]any, path string, v any) {
	segs := strings.Split(path, ".")
	cur := root
	for i, seg := range segs {
		if i == len(segs)-1 {
			cur[seg] = v
			return
		}
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[seg] = next
		}
		cur = next
	}
}

// Restore replaces the store's contents with a previously captured
// Snapshot. The write-sequence counter is reset to the maximum write_seq
// found in the snapshot, so subsequent writes keep incrementing forward.
func (s *Store) Restore(data []byte) error {
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	flat := map[string]any{}
	flattenNested(doc.Values, "", flat)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = make(map[Path]Value, len(flat))
	s.meta = make(map[Path]*Metadata, len(doc.Metadata))
	s.history = make(map[Path][]Metadata)
	s.seq = 0

	for p, native := range flat {
		s.values[Path(p)] = FromNative(native)
	}
	for p, md := range doc.Metadata {
		copied := Metadata{Writer: md.Writer, WriteSeq: md.WriteSeq, WrittenAt: md.WrittenAt, Stale: md.Stale}
		s.meta[Path(p)] = &copied
		s.pushHistory(Path(p), copied)
		if md.WriteSeq > s.seq {
			s.seq = md.WriteSeq
		}
	}
	return nil
}

func flattenNested(node map[string]any, prefix string, out map[string]any) {
	for k, v := range node {
		full := k
		if prefix != "" {
			full = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok {
			flattenNested(child, full, out)
			continue
		}
		out[full] = v
	}
}
