package pattern

import (
	"testing"

	"github.com/carlodf/morphetl/props"
	"github.com/carlodf/morphetl/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_MissingKeySatisfiesNoPredicate(t *testing.T) {
	t.Parallel()

	preds := []Predicate{Exists(), Eq(value.Int(1)), NotEq(value.Int(1)), OneOf(value.Int(1)), Matches(".*"), Range(0, 10)}
	for _, p := range preds {
		assert.False(t, Evaluate(p, value.Value{}, false))
	}
}

func TestEvaluate_Eq(t *testing.T) {
	t.Parallel()

	assert.True(t, Evaluate(Eq(value.String("json")), value.String("json"), true))
	assert.False(t, Evaluate(Eq(value.String("json")), value.String("yaml"), true))
	assert.False(t, Evaluate(Eq(value.Int(1)), value.Float(1.0), true), "different variants never equal")
}

func TestEvaluate_Range(t *testing.T) {
	t.Parallel()

	assert.True(t, Evaluate(Range(0, 100), value.Int(50), true))
	assert.True(t, Evaluate(Range(0, 100), value.Float(99.9), true))
	assert.False(t, Evaluate(Range(0, 100), value.Int(101), true))
	assert.False(t, Evaluate(Range(0, 100), value.String("50"), true), "range on non-numeric is false, not a type error")
}

func TestEvaluate_Matches(t *testing.T) {
	t.Parallel()

	p := Matches("^image/")
	assert.True(t, Evaluate(p, value.String("image/png"), true))
	assert.False(t, Evaluate(p, value.String("text/plain"), true))
	assert.False(t, Evaluate(p, value.Int(5), true), "regex on non-string is false")
}

func TestEvaluate_Custom(t *testing.T) {
	t.Parallel()

	RegisterCustom("even-width", func(v value.Value, present bool) bool {
		i, ok := v.AsInt()
		return present && ok && i%2 == 0
	})

	assert.True(t, Evaluate(Custom("even-width"), value.Int(4), true))
	assert.False(t, Evaluate(Custom("even-width"), value.Int(5), true))
	assert.False(t, Evaluate(Custom("unregistered"), value.Int(4), true))
}

func TestPropertyPattern_Matches_ANDSemantics(t *testing.T) {
	t.Parallel()

	pat := New().EqStr("format", "json").Exists("charset")

	full := props.New().With("format", value.String("json")).With("charset", value.String("utf-8"))
	missingCharset := props.New().With("format", value.String("json"))
	wrongFormat := props.New().With("format", value.String("yaml")).With("charset", value.String("utf-8"))

	assert.True(t, pat.Matches(full))
	assert.False(t, pat.Matches(missingCharset))
	assert.False(t, pat.Matches(wrongFormat))
}

func TestPropertyPattern_Empty_MatchesAnything(t *testing.T) {
	t.Parallel()

	assert.True(t, New().Matches(props.New()))
	assert.True(t, New().Matches(props.New().With("x", value.Int(1))))
}

func TestPropertyPattern_With_LaterWins(t *testing.T) {
	t.Parallel()

	a := New().EqStr("format", "json")
	b := New().EqStr("format", "yaml")
	combined := a.With(b)

	pred, ok := combined.Predicate("format")
	require.True(t, ok)
	assert.True(t, Evaluate(pred, value.String("yaml"), true))
	assert.False(t, Evaluate(pred, value.String("json"), true))
}

func TestProject_EqSetsKey(t *testing.T) {
	t.Parallel()

	in := props.New().With("format", value.String("a")).With("width", value.Int(100))
	out := New().EqStr("format", "b")

	projected := Project(in, out)
	got, ok := projected.AsStr("format")
	require.True(t, ok)
	assert.Equal(t, "b", got)

	// unrelated keys survive
	w, ok := projected.AsI64("width")
	require.True(t, ok)
	assert.Equal(t, int64(100), w)
}

func TestProject_ExistsLeavesKeyUnchanged(t *testing.T) {
	t.Parallel()

	in := props.New().With("charset", value.String("utf-8"))
	out := New().Exists("charset")

	projected := Project(in, out)
	got, ok := projected.AsStr("charset")
	require.True(t, ok)
	assert.Equal(t, "utf-8", got)
}

func TestProject_OneOfSingleValueSetsKey(t *testing.T) {
	t.Parallel()

	in := props.New()
	out := New().OneOf("format", value.String("png"))

	projected := Project(in, out)
	got, ok := projected.AsStr("format")
	require.True(t, ok)
	assert.Equal(t, "png", got)
}

func TestProject_OneOfMultipleValuesLeavesKeyAlone(t *testing.T) {
	t.Parallel()

	in := props.New()
	out := New().OneOf("format", value.String("png"), value.String("jpg"))

	projected := Project(in, out)
	assert.False(t, projected.Has("format"), "ambiguous OneOf with >1 candidate should not set the key")
}

func TestProject_NeverRemovesKeys(t *testing.T) {
	t.Parallel()

	in := props.New().With("format", value.String("a")).With("extra", value.Bool(true))
	out := New().EqStr("format", "b")

	projected := Project(in, out)
	assert.True(t, projected.Has("extra"))
}
