package pattern

import "github.com/carlodf/morphetl/props"

// Project computes the minimum Properties update implied by satisfying
// pattern against a Properties that already matches some upstream input
// pattern, per spec.md §4.5/§9:
//
//   - Eq(v): sets the key to v.
//   - OneOf with exactly one candidate value: sets the key to that value
//     (ambiguous with more than one candidate, so the key is left alone).
//   - Exists or any other predicate: leaves the key unchanged from the
//     input (present or absent).
//
// Project never removes keys — unrelated keys always survive a hop, per
// the Open Question resolved in DESIGN.md following the original
// source's behavior.
func Project(in props.Properties, out PropertyPattern) props.Properties {
	result := in
	for _, k := range out.keys {
		pred := out.preds[k]
		switch pred.op {
		case OpEq:
			result = result.With(k, pred.value)
		case OpOneOf:
			if len(pred.oneOf) == 1 {
				result = result.With(k, pred.oneOf[0])
			}
		}
	}
	return result
}
