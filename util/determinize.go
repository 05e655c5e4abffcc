// Package util implements the deterministic serialization and hashing
// primitives spec.md §4.8 requires: Determinize is the only place floats are
// quantized, and every content hash in the system flows through it so
// hashes are stable under re-runs of identical computations.
package util

import (
	"encoding/json"
	"math"
	"sort"
)

// DefaultPrecision is the six-decimal quantization spec.md mandates for
// floats in content hashes and snapshots.
const DefaultPrecision = 6

// Determinize recursively canonicalizes a decoded JSON-ish value: maps are
// rewritten with sorted keys (via an ordered representation, see
// CanonicalJSON), lists preserve order, and floats are rounded to precision
// digits using round-half-to-even ("banker's rounding"), matching
// spec.md §4.8.
func Determinize(v any, precision int) any {
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		return roundHalfEven(t, precision)
	case float32:
		return roundHalfEven(float64(t), precision)
	case int, int64, int32, bool, string:
		return t
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Determinize(e, precision)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Determinize(e, precision)
		}
		return out
	default:
		// Non-primitive: stringify via its default JSON/Stringer form.
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		var generic any
		if err := json.Unmarshal(b, &generic); err != nil {
			return string(b)
		}
		return Determinize(generic, precision)
	}
}

// roundHalfEven rounds f to the given number of decimal digits using
// round-half-to-even, so Determinize is idempotent: Determinize(Determinize(
// x)) == Determinize(x).
func roundHalfEven(f float64, precision int) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	scale := math.Pow(10, float64(precision))
	scaled := f * scale
	floor := math.Floor(scaled)
	diff := scaled - floor
	var rounded float64
	switch {
	case diff < 0.5:
		rounded = floor
	case diff > 0.5:
		rounded = floor + 1
	default:
		// Exactly .5: round to even.
		if math.Mod(floor, 2) == 0 {
			rounded = floor
		} else {
			rounded = floor + 1
		}
	}
	return rounded / scale
}

// CanonicalJSON renders a Determinize-d value as canonical JSON: sorted
// object keys, no extra whitespace, stable float formatting. It is the
// single encoding every content hash in the system is computed over.
func CanonicalJSON(v any) ([]byte, error) {
	det := Determinize(v, DefaultPrecision)
	var buf []byte
	var err error
	buf, err = appendCanonical(buf, det)
	return buf, err
}

func appendCanonical(buf []byte, v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return append(buf, "null"...), nil
	case bool:
		if t {
			return append(buf, "true"...), nil
		}
		return append(buf, "false"...), nil
	case string:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return append(buf, b...), nil
	case int:
		b, _ := json.Marshal(t)
		return append(buf, b...), nil
	case int64:
		b, _ := json.Marshal(t)
		return append(buf, b...), nil
	case float64:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return append(buf, b...), nil
	case []any:
		buf = append(buf, '[')
		for i, e := range t {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			buf, err = appendCanonical(buf, e)
			if err != nil {
				return nil, err
			}
		}
		return append(buf, ']'), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf = append(buf, '{')
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf = append(buf, kb...)
			buf = append(buf, ':')
			buf, err = appendCanonical(buf, t[k])
			if err != nil {
				return nil, err
			}
		}
		return append(buf, '}'), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return append(buf, b...), nil
	}
}
