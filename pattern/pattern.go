package pattern

import (
	"github.com/carlodf/morphetl/props"
	"github.com/carlodf/morphetl/value"
)

// PropertyPattern is an ordered mapping from key to Predicate, ANDed
// across keys: a Properties matches iff every (key, predicate) pair
// holds. The empty pattern matches anything.
type PropertyPattern struct {
	keys  []string
	preds map[string]Predicate
}

// New returns an empty PropertyPattern, which matches any Properties.
func New() PropertyPattern {
	return PropertyPattern{}
}

func (p PropertyPattern) add(key string, pred Predicate) PropertyPattern {
	keys := p.keys
	preds := make(map[string]Predicate, len(p.preds)+1)
	for k, v := range p.preds {
		preds[k] = v
	}
	if _, ok := preds[key]; !ok {
		keys = append(append([]string(nil), p.keys...), key)
	}
	preds[key] = pred
	return PropertyPattern{keys: keys, preds: preds}
}

// Exists adds an Exists predicate on key.
func (p PropertyPattern) Exists(key string) PropertyPattern { return p.add(key, Exists()) }

// Eq adds an Eq predicate on key, wrapping v.
func (p PropertyPattern) Eq(key string, v value.Value) PropertyPattern {
	return p.add(key, Eq(v))
}

// EqStr is a convenience wrapper for the common Eq(key, value.String(s))
// case, since string-valued keys (format, charset, pem_label, ...) are
// the overwhelming majority of real converter declarations.
func (p PropertyPattern) EqStr(key, s string) PropertyPattern {
	return p.add(key, Eq(value.String(s)))
}

// NotEq adds a NotEq predicate on key, wrapping v.
func (p PropertyPattern) NotEq(key string, v value.Value) PropertyPattern {
	return p.add(key, NotEq(v))
}

// OneOf adds a OneOf predicate on key.
func (p PropertyPattern) OneOf(key string, vs ...value.Value) PropertyPattern {
	return p.add(key, OneOf(vs...))
}

// MatchesRegex adds a Matches predicate on key with the given regular
// expression.
func (p PropertyPattern) MatchesRegex(key, expr string) PropertyPattern {
	return p.add(key, Matches(expr))
}

// Range adds a Range predicate on key.
func (p PropertyPattern) Range(key string, lo, hi float64) PropertyPattern {
	return p.add(key, Range(lo, hi))
}

// Custom adds a Custom predicate on key.
func (p PropertyPattern) Custom(key, id string) PropertyPattern {
	return p.add(key, Custom(id))
}

// With merges other's predicates into a copy of p. Duplicate keys: other
// wins, matching spec.md §3's "later wins" resolution for pattern
// composition.
func (p PropertyPattern) With(other PropertyPattern) PropertyPattern {
	out := p
	for _, k := range other.keys {
		out = out.add(k, other.preds[k])
	}
	return out
}

// Len reports the number of keyed predicates in p.
func (p PropertyPattern) Len() int { return len(p.keys) }

// Keys returns p's keys in insertion order.
func (p PropertyPattern) Keys() []string {
	return append([]string(nil), p.keys...)
}

// Predicate returns the predicate registered at key, and true if present.
func (p PropertyPattern) Predicate(key string) (Predicate, bool) {
	pred, ok := p.preds[key]
	return pred, ok
}

// Matches reports whether every (key, predicate) pair in p holds against
// properties.
func (p PropertyPattern) Matches(properties props.Properties) bool {
	for _, k := range p.keys {
		v, present := properties.Get(k)
		if !Evaluate(p.preds[k], v, present) {
			return false
		}
	}
	return true
}
