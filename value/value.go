// Package value defines Value, the tagged scalar/collection type carried
// by Properties throughout morphetl. A Value is one of a closed set of
// variants (null, bool, int64, float64, string, bytes, list, map); it
// carries no schema, and two Values of different variants never compare
// equal.
package value

import (
	"fmt"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a tagged scalar or ordered collection. The zero Value is Null.
type Value struct {
	kind  Kind
	b     bool
	i     int64
	f     float64
	s     string
	bytes []byte
	list  []Value
	m     *orderedMap
}

// orderedMap preserves key insertion order for map-valued Values.
type orderedMap struct {
	keys   []string
	values map[string]Value
}

func newOrderedMap() *orderedMap {
	return &orderedMap{values: make(map[string]Value)}
}

func (o *orderedMap) clone() *orderedMap {
	cp := &orderedMap{
		keys:   append([]string(nil), o.keys...),
		values: make(map[string]Value, len(o.values)),
	}
	for k, v := range o.values {
		cp.values[k] = v
	}
	return cp
}

func (o *orderedMap) set(k string, v Value) {
	if _, ok := o.values[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.values[k] = v
}

// Null returns the Null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a Bool value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an Int value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a Float value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String returns a String value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Bytes returns a Bytes value. The given slice is copied.
func Bytes(b []byte) Value {
	cp := append([]byte(nil), b...)
	return Value{kind: KindBytes, bytes: cp}
}

// List returns a List value. The given slice is copied shallowly.
func List(items ...Value) Value {
	cp := append([]Value(nil), items...)
	return Value{kind: KindList, list: cp}
}

// Map returns an empty Map value. Use (Value).WithEntry to build it up,
// or MapFrom to construct one from key/value pairs in order.
func Map() Value {
	return Value{kind: KindMap, m: newOrderedMap()}
}

// MapFrom builds a Map value from keys and values, preserving the given
// order. len(keys) must equal len(values); mismatched lengths panic, since
// this is a programming error at the call site, not a runtime condition.
func MapFrom(keys []string, values []Value) Value {
	if len(keys) != len(values) {
		panic("value.MapFrom: keys and values length mismatch")
	}
	m := newOrderedMap()
	for i, k := range keys {
		m.set(k, values[i])
	}
	return Value{kind: KindMap, m: m}
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the Null variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns v's boolean value and true if v is a Bool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsInt returns v's integer value and true if v is an Int. There is no
// implicit coercion from Float.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// AsFloat returns v's float value and true if v is a Float. There is no
// implicit coercion from Int.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

// AsString returns v's string value and true if v is a String.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsBytes returns a copy of v's byte value and true if v is Bytes.
func (v Value) AsBytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	return append([]byte(nil), v.bytes...), true
}

// AsList returns a copy of v's list value and true if v is a List.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return append([]Value(nil), v.list...), true
}

// MapKeys returns the keys of v in insertion order, or nil if v is not a
// Map.
func (v Value) MapKeys() []string {
	if v.kind != KindMap || v.m == nil {
		return nil
	}
	return append([]string(nil), v.m.keys...)
}

// MapGet returns the value at key in v and true if v is a Map containing
// key.
func (v Value) MapGet(key string) (Value, bool) {
	if v.kind != KindMap || v.m == nil {
		return Value{}, false
	}
	mv, ok := v.m.values[key]
	return mv, ok
}

// WithEntry returns a copy of v (which must be a Map, or will become one)
// with key set to val. v itself is not mutated.
func (v Value) WithEntry(key string, val Value) Value {
	var m *orderedMap
	if v.kind == KindMap && v.m != nil {
		m = v.m.clone()
	} else {
		m = newOrderedMap()
	}
	m.set(key, val)
	return Value{kind: KindMap, m: m}
}

// Equal reports whether v and other are structurally equal. Values of
// different Kinds are never equal, even if numerically convertible
// (e.g. Int(1) != Float(1.0)).
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindBytes:
		return bytesEqual(v.bytes, other.bytes)
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return mapsEqual(v.m, other.m)
	default:
		return false
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func mapsEqual(a, b *orderedMap) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.keys) != len(b.keys) {
		return false
	}
	for i, k := range a.keys {
		if b.keys[i] != k {
			return false
		}
		av, bv := a.values[k], b.values[k]
		if !av.Equal(bv) {
			return false
		}
	}
	return true
}

// String renders v for debugging/logging. It is not a serialization
// format; use converters/serde for that.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindBytes:
		return fmt.Sprintf("bytes(%d)", len(v.bytes))
	case KindList:
		return fmt.Sprintf("list(%d)", len(v.list))
	case KindMap:
		if v.m == nil {
			return "map(0)"
		}
		return fmt.Sprintf("map(%d)", len(v.m.keys))
	default:
		return "?"
	}
}
