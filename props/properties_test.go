package props

import (
	"testing"

	"github.com/carlodf/morphetl/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWith_PreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	p := New().With("format", value.String("json")).With("charset", value.String("utf-8"))
	assert.Equal(t, []string{"format", "charset"}, p.Keys())
}

func TestWith_ReplaceKeepsPosition(t *testing.T) {
	t.Parallel()

	p := New().With("a", value.Int(1)).With("b", value.Int(2)).With("a", value.Int(3))
	assert.Equal(t, []string{"a", "b"}, p.Keys())
	got, ok := p.AsI64("a")
	require.True(t, ok)
	assert.Equal(t, int64(3), got)
}

func TestRemove(t *testing.T) {
	t.Parallel()

	p := New().With("a", value.Int(1)).With("b", value.Int(2))
	p2 := p.Remove("a")

	assert.Equal(t, []string{"b"}, p2.Keys())
	assert.False(t, p2.Has("a"))
	// original untouched
	assert.True(t, p.Has("a"))
}

func TestEqual_OrderSensitive(t *testing.T) {
	t.Parallel()

	a := New().With("x", value.Int(1)).With("y", value.Int(2))
	b := New().With("y", value.Int(2)).With("x", value.Int(1))

	assert.False(t, a.Equal(b))
	assert.True(t, a.EqualUnordered(b))
}

func TestCanonical_OrderIndependent(t *testing.T) {
	t.Parallel()

	a := New().With("x", value.Int(1)).With("y", value.Int(2))
	b := New().With("y", value.Int(2)).With("x", value.Int(1))

	assert.Equal(t, a.Canonical(), b.Canonical())
}

func TestCanonical_DistinguishesDifferentValues(t *testing.T) {
	t.Parallel()

	a := New().With("format", value.String("json"))
	b := New().With("format", value.String("yaml"))

	assert.NotEqual(t, a.Canonical(), b.Canonical())
}

func TestTypedGetters_NoImplicitCoercion(t *testing.T) {
	t.Parallel()

	p := New().With("width", value.Int(100))

	_, ok := p.AsStr("width")
	assert.False(t, ok, "int should not coerce to string")

	_, ok = p.AsF64("width")
	assert.False(t, ok, "int should not coerce to float")

	i, ok := p.AsI64("width")
	require.True(t, ok)
	assert.Equal(t, int64(100), i)
}

func TestForEach_StopsEarly(t *testing.T) {
	t.Parallel()

	p := New().With("a", value.Int(1)).With("b", value.Int(2)).With("c", value.Int(3))
	var seen []string
	p.ForEach(func(key string, v value.Value) bool {
		seen = append(seen, key)
		return key != "b"
	})
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestCloneIndependence(t *testing.T) {
	t.Parallel()

	base := New().With("a", value.Int(1))
	derived := base.With("b", value.Int(2))

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, derived.Len())
}
