// Package pattern implements the predicate language converters use to
// declare what property state they consume and produce, without naming
// concrete format types. A Predicate is a single condition on one
// property value; a PropertyPattern AND-combines predicates across keys.
package pattern

import (
	"regexp"

	"github.com/carlodf/morphetl/value"
)

// Op identifies which predicate variant a Predicate holds.
type Op int

const (
	OpExists Op = iota
	OpEq
	OpNotEq
	OpOneOf
	OpMatches
	OpRange
	OpCustom
)

// Predicate is a closed set of variants over a single property value.
// The zero Predicate is OpExists.
type Predicate struct {
	op       Op
	value    value.Value
	oneOf    []value.Value
	re       *regexp.Regexp
	lo, hi   float64
	customID string
}

// Exists matches when the key is present, regardless of value.
func Exists() Predicate { return Predicate{op: OpExists} }

// Eq matches when the value structurally equals v.
func Eq(v value.Value) Predicate { return Predicate{op: OpEq, value: v} }

// NotEq matches when the key is present and its value does not
// structurally equal v.
func NotEq(v value.Value) Predicate { return Predicate{op: OpNotEq, value: v} }

// OneOf matches when the value structurally equals one of vs.
func OneOf(vs ...value.Value) Predicate {
	return Predicate{op: OpOneOf, oneOf: append([]value.Value(nil), vs...)}
}

// Matches matches when the value is a string and re matches it. Matches
// panics if expr fails to compile, since a malformed pattern is a
// programming error discovered at converter-registration time, not a
// runtime condition.
func Matches(expr string) Predicate {
	re := regexp.MustCompile(expr)
	return Predicate{op: OpMatches, re: re}
}

// Range matches when the value is numeric (Int or Float) and
// lo <= v <= hi, inclusive.
func Range(lo, hi float64) Predicate {
	return Predicate{op: OpRange, lo: lo, hi: hi}
}

// Custom is an escape hatch for predicates evaluated by a named,
// externally-registered function (see RegisterCustom). Implementations
// that never need this may omit it entirely.
func Custom(id string) Predicate {
	return Predicate{op: OpCustom, customID: id}
}

// Op reports which variant p holds.
func (p Predicate) Op() Op { return p.op }

// CustomID returns the id passed to Custom, or "" for other variants.
func (p Predicate) CustomID() string { return p.customID }

// customRegistry holds named Custom predicate evaluators. Registration is
// process-global, mirroring the registry.Registry's id-keyed shape but
// kept separate since custom predicates are a pattern-language concern,
// not a converter-registry concern.
var customRegistry = map[string]func(value.Value, bool) bool{}

// RegisterCustom associates a name with an evaluator function for Custom
// predicates. The evaluator receives the property's value and whether it
// was present; Evaluate only calls it for keys that are present.
func RegisterCustom(id string, eval func(v value.Value, present bool) bool) {
	customRegistry[id] = eval
}

// Evaluate reports whether pred holds against the given value. present
// indicates whether the key existed in the source Properties at all;
// when present is false, v is the zero Value and every predicate,
// Exists included, evaluates to false.
func Evaluate(pred Predicate, v value.Value, present bool) bool {
	if !present {
		// Exists requires the key to be present by definition, so a
		// missing key satisfies no predicate at all.
		return false
	}
	switch pred.op {
	case OpExists:
		return true
	case OpEq:
		return v.Equal(pred.value)
	case OpNotEq:
		return !v.Equal(pred.value)
	case OpOneOf:
		for _, candidate := range pred.oneOf {
			if v.Equal(candidate) {
				return true
			}
		}
		return false
	case OpMatches:
		s, ok := v.AsString()
		if !ok {
			return false
		}
		return pred.re.MatchString(s)
	case OpRange:
		return inRange(v, pred.lo, pred.hi)
	case OpCustom:
		eval, ok := customRegistry[pred.customID]
		if !ok {
			return false
		}
		return eval(v, present)
	default:
		return false
	}
}

func inRange(v value.Value, lo, hi float64) bool {
	if i, ok := v.AsInt(); ok {
		f := float64(i)
		return f >= lo && f <= hi
	}
	if f, ok := v.AsFloat(); ok {
		return f >= lo && f <= hi
	}
	return false
}
