package planner

import (
	"testing"

	"github.com/carlodf/morphetl/converter"
	"github.com/carlodf/morphetl/pattern"
	"github.com/carlodf/morphetl/props"
	"github.com/carlodf/morphetl/registry"
	"github.com/carlodf/morphetl/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// formatConverter is a minimal fixture converter that rewrites the
// "format" property from one fixed value to another.
type formatConverter struct {
	decl converter.ConverterDecl
	to   string
}

func newFormatConverter(id, from, to string) *formatConverter {
	return &formatConverter{
		decl: converter.Simple(id, pattern.New().EqStr("format", from), pattern.New().EqStr("format", to)),
		to:   to,
	}
}

func (c *formatConverter) withCost(cost float64) *formatConverter {
	c.decl = c.decl.WithCost(cost)
	return c
}

func (c *formatConverter) Decl() converter.ConverterDecl { return c.decl }

func (c *formatConverter) Convert(data []byte, p props.Properties) (converter.ConvertOutput, error) {
	return converter.Single(data, p.With("format", value.String(c.to))), nil
}

func startProps(format string) props.Properties {
	return props.New().With("format", value.String(format))
}

func TestPlan_EmptyWhenAlreadyMatching(t *testing.T) {
	t.Parallel()

	r := registry.New()
	pl := New(r)

	target := pattern.New().EqStr("format", "a")
	plan, err := pl.Plan(startProps("a"), target, Budget{})
	require.NoError(t, err)
	assert.Equal(t, 0, plan.Len())
	assert.Equal(t, 0.0, plan.Cost)
}

func TestPlan_SingleHop(t *testing.T) {
	t.Parallel()

	r := registry.New()
	r.MustRegister(newFormatConverter("a-to-b", "a", "b"))
	pl := New(r)

	target := pattern.New().EqStr("format", "b")
	plan, err := pl.Plan(startProps("a"), target, Budget{})
	require.NoError(t, err)
	require.Equal(t, 1, plan.Len())
	assert.Equal(t, "a-to-b", plan.Steps[0].ConverterID)
	assert.Equal(t, 1.0, plan.Cost)
}

func TestPlan_PrefersCheaperTwoHopOverExpensiveDirect(t *testing.T) {
	t.Parallel()

	r := registry.New()
	r.MustRegister(newFormatConverter("a-to-b", "a", "b"))
	r.MustRegister(newFormatConverter("b-to-c", "b", "c"))
	r.MustRegister(newFormatConverter("a-to-c", "a", "c").withCost(3))
	pl := New(r)

	target := pattern.New().EqStr("format", "c")
	plan, err := pl.Plan(startProps("a"), target, Budget{})
	require.NoError(t, err)
	require.Equal(t, 2, plan.Len())
	assert.Equal(t, "a-to-b", plan.Steps[0].ConverterID)
	assert.Equal(t, "b-to-c", plan.Steps[1].ConverterID)
	assert.Equal(t, 2.0, plan.Cost)
}

func TestPlan_NoPath(t *testing.T) {
	t.Parallel()

	r := registry.New()
	r.MustRegister(newFormatConverter("a-to-b", "a", "b"))
	pl := New(r)

	target := pattern.New().EqStr("format", "z")
	_, err := pl.Plan(startProps("a"), target, Budget{})
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestPlan_BudgetExceededByMaxDepth(t *testing.T) {
	t.Parallel()

	r := registry.New()
	r.MustRegister(newFormatConverter("a-to-b", "a", "b"))
	r.MustRegister(newFormatConverter("b-to-c", "b", "c"))
	pl := New(r)

	target := pattern.New().EqStr("format", "c")
	_, err := pl.Plan(startProps("a"), target, Budget{MaxDepth: 1})

	var budgetErr *BudgetExceededError
	require.ErrorAs(t, err, &budgetErr)
}

func TestPlan_BudgetExceededByMaxCost(t *testing.T) {
	t.Parallel()

	r := registry.New()
	r.MustRegister(newFormatConverter("a-to-b", "a", "b").withCost(10))
	pl := New(r)

	target := pattern.New().EqStr("format", "b")
	_, err := pl.Plan(startProps("a"), target, Budget{MaxCost: 1})

	var budgetErr *BudgetExceededError
	require.ErrorAs(t, err, &budgetErr)
}

func TestPlan_DeterministicTieBreakOnRegistrationOrder(t *testing.T) {
	t.Parallel()

	r := registry.New()
	r.MustRegister(newFormatConverter("a-to-b-first", "a", "b"))
	r.MustRegister(newFormatConverter("a-to-b-second", "a", "b"))
	pl := New(r)

	target := pattern.New().EqStr("format", "b")
	plan, err := pl.Plan(startProps("a"), target, Budget{})
	require.NoError(t, err)
	require.Equal(t, 1, plan.Len())
	assert.Equal(t, "a-to-b-first", plan.Steps[0].ConverterID)
}

func TestPlan_ChainPropertiesMatchNextInputPattern(t *testing.T) {
	t.Parallel()

	r := registry.New()
	r.MustRegister(newFormatConverter("a-to-b", "a", "b"))
	r.MustRegister(newFormatConverter("b-to-c", "b", "c"))
	pl := New(r)

	target := pattern.New().EqStr("format", "c")
	plan, err := pl.Plan(startProps("a"), target, Budget{})
	require.NoError(t, err)
	require.Equal(t, 2, plan.Len())

	got, ok := plan.Steps[0].Properties.AsStr("format")
	require.True(t, ok)
	assert.Equal(t, "b", got)

	got, ok = plan.Steps[1].Properties.AsStr("format")
	require.True(t, ok)
	assert.Equal(t, "c", got)
}
