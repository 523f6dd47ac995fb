package executor

import (
	"testing"

	"github.com/carlodf/morphetl/converter"
	"github.com/carlodf/morphetl/pattern"
	"github.com/carlodf/morphetl/planner"
	"github.com/carlodf/morphetl/props"
	"github.com/carlodf/morphetl/registry"
	"github.com/carlodf/morphetl/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type identityConverter struct {
	decl converter.ConverterDecl
	to   string
}

func newIdentity(id, from, to string) *identityConverter {
	return &identityConverter{
		decl: converter.Simple(id, pattern.New().EqStr("format", from), pattern.New().EqStr("format", to)),
		to:   to,
	}
}

func (c *identityConverter) Decl() converter.ConverterDecl { return c.decl }

func (c *identityConverter) Convert(data []byte, p props.Properties) (converter.ConvertOutput, error) {
	return converter.Single(data, p.With("format", value.String(c.to))), nil
}

type failingConverter struct {
	decl converter.ConverterDecl
}

func newFailing(id, from, to string) *failingConverter {
	return &failingConverter{decl: converter.Simple(id, pattern.New().EqStr("format", from), pattern.New().EqStr("format", to))}
}

func (c *failingConverter) Decl() converter.ConverterDecl { return c.decl }

func (c *failingConverter) Convert(data []byte, p props.Properties) (converter.ConvertOutput, error) {
	return converter.ConvertOutput{}, converter.NewInvalidInput("bad bytes", nil)
}

type emptyMultipleConverter struct {
	decl converter.ConverterDecl
}

func newEmptyMultiple(id, from, to string) *emptyMultipleConverter {
	return &emptyMultipleConverter{decl: converter.Simple(id, pattern.New().EqStr("format", from), pattern.New().EqStr("format", to))}
}

func (c *emptyMultipleConverter) Decl() converter.ConverterDecl { return c.decl }

func (c *emptyMultipleConverter) Convert(data []byte, p props.Properties) (converter.ConvertOutput, error) {
	return converter.Multiple(), nil
}

func twoHopPlan() planner.Plan {
	return planner.Plan{
		Cost: 2.0,
		Steps: []planner.PlanStep{
			{
				ConverterID: "test.a-to-b",
				InputPort:   "in",
				OutputPort:  "out",
				Properties:  props.New().With("format", value.String("b")),
			},
			{
				ConverterID: "test.b-to-c",
				InputPort:   "in",
				OutputPort:  "out",
				Properties:  props.New().With("format", value.String("c")),
			},
		},
	}
}

func TestExecute_RunsStepsInOrder(t *testing.T) {
	t.Parallel()

	r := registry.New()
	r.MustRegister(newIdentity("test.a-to-b", "a", "b"))
	r.MustRegister(newIdentity("test.b-to-c", "b", "c"))

	ctx := NewExecutionContext(r)
	exec := NewSimpleExecutor()

	input := []byte("test data")
	p := props.New().With("format", value.String("a"))

	result, err := exec.Execute(ctx, twoHopPlan(), input, p)
	require.NoError(t, err)
	assert.Equal(t, input, result.Data)

	got, ok := result.Props.AsStr("format")
	require.True(t, ok)
	assert.Equal(t, "c", got)
	assert.Equal(t, 2, result.Stats.StepsExecuted)
}

func TestExecute_EmptyPlanReturnsInputUnchanged(t *testing.T) {
	t.Parallel()

	r := registry.New()
	ctx := NewExecutionContext(r)
	exec := NewSimpleExecutor()

	input := []byte("test data")
	p := props.New().With("format", value.String("a"))

	result, err := exec.Execute(ctx, planner.Plan{}, input, p)
	require.NoError(t, err)
	assert.Equal(t, input, result.Data)
	assert.True(t, p.Equal(result.Props))
	assert.Equal(t, 0, result.Stats.StepsExecuted)
}

func TestExecute_ConverterNotFound(t *testing.T) {
	t.Parallel()

	r := registry.New()
	ctx := NewExecutionContext(r)
	exec := NewSimpleExecutor()

	plan := planner.Plan{Steps: []planner.PlanStep{{ConverterID: "missing"}}}
	_, err := exec.Execute(ctx, plan, []byte("x"), props.New())

	var execErr *ExecuteError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, ConverterNotFound, execErr.Kind)
}

func TestExecute_ConversionFailedWrapsStepIndex(t *testing.T) {
	t.Parallel()

	r := registry.New()
	r.MustRegister(newIdentity("test.a-to-b", "a", "b"))
	r.MustRegister(newFailing("test.b-to-c", "b", "c"))
	ctx := NewExecutionContext(r)
	exec := NewSimpleExecutor()

	_, err := exec.Execute(ctx, twoHopPlan(), []byte("x"), props.New().With("format", value.String("a")))

	var execErr *ExecuteError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, ConversionFailed, execErr.Kind)
	assert.Equal(t, 1, execErr.StepIndex)
}

func TestExecute_EmptyMultipleOutput(t *testing.T) {
	t.Parallel()

	r := registry.New()
	r.MustRegister(newEmptyMultiple("test.a-to-b", "a", "b"))
	ctx := NewExecutionContext(r)
	exec := NewSimpleExecutor()

	plan := planner.Plan{Steps: []planner.PlanStep{{ConverterID: "test.a-to-b", InputPort: "in", OutputPort: "out"}}}
	_, err := exec.Execute(ctx, plan, []byte("x"), props.New().With("format", value.String("a")))

	var execErr *ExecuteError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, EmptyPlanOutput, execErr.Kind)
}

func TestExecute_MemoryLimitExceeded(t *testing.T) {
	t.Parallel()

	r := registry.New()
	r.MustRegister(newIdentity("test.a-to-b", "a", "b"))
	ctx := NewExecutionContext(r).WithMemoryLimit(2)
	exec := NewSimpleExecutor()

	plan := planner.Plan{Steps: []planner.PlanStep{{ConverterID: "test.a-to-b", InputPort: "in", OutputPort: "out"}}}
	_, err := exec.Execute(ctx, plan, []byte("abcdef"), props.New().With("format", value.String("a")))

	var execErr *ExecuteError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, MemoryLimitExceeded, execErr.Kind)
}

func TestExecuteBatch_Sequential(t *testing.T) {
	t.Parallel()

	r := registry.New()
	r.MustRegister(newIdentity("test.a-to-b", "a", "b"))
	ctx := NewExecutionContext(r)
	exec := NewSimpleExecutor()

	plan := planner.Plan{Steps: []planner.PlanStep{{ConverterID: "test.a-to-b", InputPort: "in", OutputPort: "out"}}}
	jobs := []Job{
		{Plan: plan, Input: []byte("one"), Props: props.New().With("format", value.String("a"))},
		{Plan: plan, Input: []byte("two"), Props: props.New().With("format", value.String("a"))},
		{Plan: plan, Input: []byte("three"), Props: props.New().With("format", value.String("a"))},
	}

	results := exec.ExecuteBatch(ctx, jobs)
	require.Len(t, results, 3)
	for i, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, i, r.Index)
	}
	assert.Equal(t, []byte("one"), results[0].Result.Data)
	assert.Equal(t, []byte("two"), results[1].Result.Data)
	assert.Equal(t, []byte("three"), results[2].Result.Data)
}

func TestExecuteBatch_Parallel(t *testing.T) {
	t.Parallel()

	r := registry.New()
	r.MustRegister(newIdentity("test.a-to-b", "a", "b"))
	ctx := NewExecutionContext(r).WithParallelism(4)
	exec := NewSimpleExecutor()

	plan := planner.Plan{Steps: []planner.PlanStep{{ConverterID: "test.a-to-b", InputPort: "in", OutputPort: "out"}}}
	jobs := make([]Job, 10)
	for i := range jobs {
		jobs[i] = Job{Plan: plan, Input: []byte{byte(i)}, Props: props.New().With("format", value.String("a"))}
	}

	results := exec.ExecuteBatch(ctx, jobs)
	require.Len(t, results, 10)
	for i, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, i, r.Index)
		assert.Equal(t, []byte{byte(i)}, r.Result.Data)
	}
}

func TestEstimateMemory_AppliesFamilyFactor(t *testing.T) {
	t.Parallel()

	plan := planner.Plan{Steps: []planner.PlanStep{{ConverterID: "audio.mp3-to-wav"}}}
	assert.Equal(t, 10000, EstimateMemory(1000, plan))
}

func TestEstimateMemory_ComposesAcrossRepeatedFamily(t *testing.T) {
	t.Parallel()

	plan := planner.Plan{Steps: []planner.PlanStep{
		{ConverterID: "image.png-to-jpeg"},
		{ConverterID: "image.jpeg-to-gif"},
	}}
	assert.Equal(t, 1000*4*4, EstimateMemory(1000, plan))
}

func TestEstimateMemory_UnknownFamilyLeavesEstimateUnchanged(t *testing.T) {
	t.Parallel()

	plan := planner.Plan{Steps: []planner.PlanStep{{ConverterID: "serde.json-to-yaml"}}}
	assert.Equal(t, 1000, EstimateMemory(1000, plan))
}
