// Package props defines Properties, the ordered string-to-Value mapping
// that describes one data blob as it moves through a converter chain.
// Order is preserved for deterministic serialization and for the
// planner's canonical state key; semantically Properties behaves as a
// map. The core treats Properties as opaque beyond pattern matching: it
// never interprets what a particular key means.
package props

import (
	"sort"
	"strings"

	"github.com/carlodf/morphetl/value"
)

// Properties is an ordered mapping from string keys to value.Value.
// The zero Properties is a valid, empty map. Properties is treated as
// immutable by convention: every mutating method returns a new
// Properties rather than modifying the receiver in place, mirroring the
// teacher's opener/connector structs, which are always copied rather
// than shared mutably across goroutines.
type Properties struct {
	keys   []string
	values map[string]value.Value
}

// New returns an empty Properties.
func New() Properties {
	return Properties{}
}

func (p Properties) cloneMap() map[string]value.Value {
	if p.values == nil {
		return make(map[string]value.Value)
	}
	m := make(map[string]value.Value, len(p.values))
	for k, v := range p.values {
		m[k] = v
	}
	return m
}

// With returns a copy of p with key set to v. If key already exists its
// value is replaced in place (insertion order is preserved); otherwise
// key is appended at the end.
func (p Properties) With(key string, v value.Value) Properties {
	keys := p.keys
	values := p.cloneMap()
	if _, ok := values[key]; !ok {
		keys = append(append([]string(nil), p.keys...), key)
	}
	values[key] = v
	return Properties{keys: keys, values: values}
}

// Insert is an alias for With, matching the spec's vocabulary
// (insert/get/remove) alongside the builder-style With.
func (p Properties) Insert(key string, v value.Value) Properties {
	return p.With(key, v)
}

// Remove returns a copy of p with key removed, if present.
func (p Properties) Remove(key string) Properties {
	if _, ok := p.values[key]; !ok {
		return p
	}
	keys := make([]string, 0, len(p.keys)-1)
	for _, k := range p.keys {
		if k != key {
			keys = append(keys, k)
		}
	}
	values := p.cloneMap()
	delete(values, key)
	return Properties{keys: keys, values: values}
}

// Get returns the Value at key and true if present.
func (p Properties) Get(key string) (value.Value, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Has reports whether key is present in p.
func (p Properties) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Len reports the number of keys in p.
func (p Properties) Len() int { return len(p.keys) }

// Keys returns p's keys in insertion order. The returned slice is a copy.
func (p Properties) Keys() []string {
	return append([]string(nil), p.keys...)
}

// ForEach calls fn for every (key, value) pair in insertion order. It
// stops early if fn returns false.
func (p Properties) ForEach(fn func(key string, v value.Value) bool) {
	for _, k := range p.keys {
		if !fn(k, p.values[k]) {
			return
		}
	}
}

// AsStr returns the string at key, or ("", false) if absent or not a
// string. No implicit coercion is performed between numeric and string
// variants.
func (p Properties) AsStr(key string) (string, bool) {
	v, ok := p.Get(key)
	if !ok {
		return "", false
	}
	return v.AsString()
}

// AsI64 returns the int64 at key, or (0, false) if absent or not an int.
func (p Properties) AsI64(key string) (int64, bool) {
	v, ok := p.Get(key)
	if !ok {
		return 0, false
	}
	return v.AsInt()
}

// AsF64 returns the float64 at key, or (0, false) if absent or not a
// float.
func (p Properties) AsF64(key string) (float64, bool) {
	v, ok := p.Get(key)
	if !ok {
		return 0, false
	}
	return v.AsFloat()
}

// AsBool returns the bool at key, or (false, false) if absent or not a
// bool.
func (p Properties) AsBool(key string) (bool, bool) {
	v, ok := p.Get(key)
	if !ok {
		return false, false
	}
	return v.AsBool()
}

// AsBytes returns the byte slice at key, or (nil, false) if absent or not
// bytes.
func (p Properties) AsBytes(key string) ([]byte, bool) {
	v, ok := p.Get(key)
	if !ok {
		return nil, false
	}
	return v.AsBytes()
}

// AsList returns the list at key, or (nil, false) if absent or not a
// list.
func (p Properties) AsList(key string) ([]value.Value, bool) {
	v, ok := p.Get(key)
	if !ok {
		return nil, false
	}
	return v.AsList()
}

// Equal reports whether p and other have identical key order and
// structurally-equal values. Compare Canonical() strings (or use
// EqualUnordered) to compare regardless of insertion order.
func (p Properties) Equal(other Properties) bool {
	if len(p.keys) != len(other.keys) {
		return false
	}
	for i, k := range p.keys {
		if other.keys[i] != k {
			return false
		}
		pv, pok := p.values[k]
		ov, ook := other.values[k]
		if pok != ook || !pv.Equal(ov) {
			return false
		}
	}
	return true
}

// EqualUnordered reports whether p and other have the same key set with
// structurally-equal values, ignoring insertion order.
func (p Properties) EqualUnordered(other Properties) bool {
	if len(p.keys) != len(other.keys) {
		return false
	}
	for k, v := range p.values {
		ov, ok := other.values[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Canonical returns a stable, sorted-by-key string serialization of p,
// suitable for use as a planner visited-set key or a cache key. Two
// Properties with the same content but different insertion order produce
// the same Canonical string.
//
// Canonical relies on value.Value.String(), which renders bytes/list/map
// values by length only (e.g. "bytes(12)"), collapsing distinct values of
// the same kind and length to one key. This is safe for the planner's
// actual visited states, which are built from scalar properties like
// format/charset/width; it would not distinguish two different 12-byte
// blobs stored under the same key.
func (p Properties) Canonical() string {
	keys := append([]string(nil), p.keys...)
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(p.values[k].String())
	}
	return b.String()
}
