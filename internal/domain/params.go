package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Unset is the sentinel value that deletes a previously merged key.
const Unset = "unset"

// ParameterSet maps generation-service parameter names to values. Values
// are strings, numbers, booleans, or ordered string slices for the
// multi-valued LoRA fields. Keys are case-sensitive service names; the
// set is an open bag — unknown keys pass through to the server opaquely.
type ParameterSet map[string]any

// internalKeys are consumed client-side and never forwarded to the
// generation service.
var internalKeys = []string{
	"swarm_version",
	"rounding",
	"fix_resolution",
	"host",
	"port",
}

// arrayKeys are sent to the service as comma-joined strings but kept as
// ordered slices internally.
var arrayKeys = []string{
	"loras",
	"loraweights",
	"loratencweights",
	"lorasectionconfinement",
}

// MergeParams combines parameter sets in order. Later sets dominate
// earlier ones for every key they touch; a value equal to Unset deletes
// the key from the accumulator instead. Source sets are not mutated.
func MergeParams(sets ...ParameterSet) ParameterSet {
	out := ParameterSet{}
	for _, s := range sets {
		for k, v := range s {
			if sv, ok := v.(string); ok && sv == Unset {
				delete(out, k)
				continue
			}
			out[k] = v
		}
	}
	return out
}

// Clone returns a shallow copy with array-valued fields duplicated, so
// appends on the copy never alias the original.
func (p ParameterSet) Clone() ParameterSet {
	out := make(ParameterSet, len(p))
	for k, v := range p {
		if vs, ok := v.([]string); ok {
			cp := make([]string, len(vs))
			copy(cp, vs)
			out[k] = cp
			continue
		}
		out[k] = v
	}
	return out
}

// StripInternal removes client-side keys that would generate warnings in
// the server logs.
func (p ParameterSet) StripInternal() {
	for _, k := range internalKeys {
		delete(p, k)
	}
}

// StringList returns the value of k normalized to an ordered string
// slice, accepting the comma-joined wire form, a slice, or absence.
func (p ParameterSet) StringList(k string) []string {
	switch v := p[k].(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, it := range v {
			out = append(out, fmt.Sprint(it))
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return strings.Split(v, ",")
	default:
		return []string{fmt.Sprint(v)}
	}
}

// String returns the value of k rendered as a string, with "" for absent.
func (p ParameterSet) String(k string) string {
	v, ok := p[k]
	if !ok {
		return ""
	}
	return fmt.Sprint(v)
}

// Bool reports whether k is present and truthy (any value other than
// false, "false", "", or 0 counts as set).
func (p ParameterSet) Bool(k string) bool {
	switch v := p[k].(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != "" && !strings.EqualFold(v, "false")
	case int:
		return v != 0
	case float64:
		return v != 0
	default:
		return true
	}
}

// EncodeWire converts array-valued fields to the comma-joined strings the
// service request format expects. The returned set is a copy.
func (p ParameterSet) EncodeWire() ParameterSet {
	out := p.Clone()
	for _, k := range arrayKeys {
		if v, ok := out[k]; ok {
			if vs, ok := v.([]string); ok {
				out[k] = strings.Join(vs, ",")
			}
		}
	}
	return out
}

// DecodeWire converts comma-joined array fields back to ordered slices,
// as found in server-returned image metadata. The set is modified in place.
func (p ParameterSet) DecodeWire() {
	for _, k := range arrayKeys {
		if v, ok := p[k]; ok {
			if vs, ok := v.(string); ok {
				p[k] = strings.Split(vs, ",")
			}
		}
	}
}

// SortedKeys returns the parameter names in lexical order, for stable
// key=value dumps.
func (p ParameterSet) SortedKeys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
