// Package executor runs Plans produced by the planner. The split mirrors
// the source project's separation of WHAT to convert (planner) from HOW
// to run it (resource tracking, batching): the core stays pure, execution
// policy is pluggable behind the Executor interface.
package executor

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/carlodf/morphetl/planner"
	"github.com/carlodf/morphetl/props"
	"github.com/carlodf/morphetl/registry"
)

// ExecutionContext bundles the registry a Plan's converters are resolved
// against with optional resource limits.
type ExecutionContext struct {
	Registry    *registry.Registry
	MemoryLimit int // bytes; 0 means unbounded
	Parallelism int // max concurrent jobs in ExecuteBatch; 0 or 1 means sequential
}

// NewExecutionContext returns an ExecutionContext with no resource limits.
func NewExecutionContext(r *registry.Registry) ExecutionContext {
	return ExecutionContext{Registry: r}
}

// WithMemoryLimit returns a copy of ctx with its memory limit set.
func (ctx ExecutionContext) WithMemoryLimit(bytes int) ExecutionContext {
	ctx.MemoryLimit = bytes
	return ctx
}

// WithParallelism returns a copy of ctx with its batch parallelism set.
func (ctx ExecutionContext) WithParallelism(jobs int) ExecutionContext {
	ctx.Parallelism = jobs
	return ctx
}

// ExecutionStats reports what happened during a single Execute call.
type ExecutionStats struct {
	Duration      time.Duration
	PeakMemory    int
	StepsExecuted int
}

// ExecutionResult is the outcome of a successful Execute call.
type ExecutionResult struct {
	Data  []byte
	Props props.Properties
	Stats ExecutionStats
}

// Job is one unit of batch work: a plan paired with the input it runs
// against.
type Job struct {
	Plan  planner.Plan
	Input []byte
	Props props.Properties
}

// ErrorKind identifies which ExecuteError variant occurred.
type ErrorKind int

const (
	// ConversionFailed means a converter step returned an error.
	ConversionFailed ErrorKind = iota
	// ConverterNotFound means a plan step named a converter id the
	// registry doesn't know about.
	ConverterNotFound
	// MemoryLimitExceeded means a step's output would exceed ctx's
	// memory limit.
	MemoryLimitExceeded
	// EmptyPlanOutput means a step returned a Multiple output with no
	// entries, so there is nothing to take as "first".
	EmptyPlanOutput
)

// ExecuteError is the error type returned by Execute and the per-job
// entries of ExecuteBatch.
type ExecuteError struct {
	Kind        ErrorKind
	ConverterID string
	StepIndex   int
	Needed      int
	Limit       int
	Cause       error
}

func (e *ExecuteError) Error() string {
	switch e.Kind {
	case ConversionFailed:
		return fmt.Sprintf("conversion failed at step %d (%s): %v", e.StepIndex, e.ConverterID, e.Cause)
	case ConverterNotFound:
		return fmt.Sprintf("converter not found: %s", e.ConverterID)
	case MemoryLimitExceeded:
		return fmt.Sprintf("memory limit exceeded: need %d bytes, limit %d bytes", e.Needed, e.Limit)
	case EmptyPlanOutput:
		return fmt.Sprintf("step %d (%s) produced an empty Multiple output", e.StepIndex, e.ConverterID)
	default:
		return "executor: unknown error"
	}
}

func (e *ExecuteError) Unwrap() error { return e.Cause }

// Executor determines HOW a plan runs. SimpleExecutor is the only
// implementation the core ships; additional strategies (bounded memory,
// worker-pool parallelism) can satisfy the same interface.
type Executor interface {
	Execute(ctx ExecutionContext, plan planner.Plan, input []byte, p props.Properties) (ExecutionResult, error)
	ExecuteBatch(ctx ExecutionContext, jobs []Job) []Result
}

// Result pairs a batch job's outcome with its index, since ExecuteBatch
// makes no ordering guarantee about when each job completes.
type Result struct {
	Index  int
	Result ExecutionResult
	Err    error
}

// SimpleExecutor runs each plan's steps sequentially, reports the largest
// step output in its stats, and fails with MemoryLimitExceeded when a
// step's output is larger than ctx.MemoryLimit (0 = unlimited).
type SimpleExecutor struct{}

// NewSimpleExecutor returns a SimpleExecutor.
func NewSimpleExecutor() SimpleExecutor { return SimpleExecutor{} }

// Execute runs plan's steps in order against input/p, resolving each
// converter id against ctx.Registry. An empty plan returns input/p
// unchanged. Multiple-output steps take the first output, per the
// documented first-output policy (converter.ConvertOutput.First).
func (SimpleExecutor) Execute(ctx ExecutionContext, plan planner.Plan, input []byte, p props.Properties) (ExecutionResult, error) {
	start := time.Now()
	currentData := input
	currentProps := p
	peakMemory := len(currentData)

	for stepIdx, step := range plan.Steps {
		c, ok := ctx.Registry.Get(step.ConverterID)
		if !ok {
			return ExecutionResult{}, &ExecuteError{Kind: ConverterNotFound, ConverterID: step.ConverterID, StepIndex: stepIdx}
		}

		out, err := c.Convert(currentData, currentProps)
		if err != nil {
			return ExecutionResult{}, &ExecuteError{Kind: ConversionFailed, ConverterID: step.ConverterID, StepIndex: stepIdx, Cause: err}
		}

		data, outProps, ok := out.First()
		if !ok {
			return ExecutionResult{}, &ExecuteError{Kind: EmptyPlanOutput, ConverterID: step.ConverterID, StepIndex: stepIdx}
		}

		if ctx.MemoryLimit > 0 && len(data) > ctx.MemoryLimit {
			return ExecutionResult{}, &ExecuteError{Kind: MemoryLimitExceeded, Needed: len(data), Limit: ctx.MemoryLimit, StepIndex: stepIdx, ConverterID: step.ConverterID}
		}

		if len(data) > peakMemory {
			peakMemory = len(data)
		}
		currentData = data
		currentProps = outProps
	}

	return ExecutionResult{
		Data:  currentData,
		Props: currentProps,
		Stats: ExecutionStats{
			Duration:      time.Since(start),
			PeakMemory:    peakMemory,
			StepsExecuted: len(plan.Steps),
		},
	}, nil
}

// ExecuteBatch runs jobs independently, one Plan per Job. If
// ctx.Parallelism is 0 or 1, jobs run sequentially in order. Otherwise up
// to ctx.Parallelism jobs run concurrently, via a bounded worker pool in
// the style of connector's single-reader multiplexing goroutine, scaled
// to N workers. The returned slice is ordered by Result.Index, not
// completion order: callers must not assume jobs finish in submission
// order (spec's batch ordering guarantee only binds within a single
// Plan's steps).
func (e SimpleExecutor) ExecuteBatch(ctx ExecutionContext, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	run := func(i int) {
		job := jobs[i]
		res, err := e.Execute(ctx, job.Plan, job.Input, job.Props)
		results[i] = Result{Index: i, Result: res, Err: err}
	}

	if ctx.Parallelism <= 1 || len(jobs) <= 1 {
		for i := range jobs {
			run(i)
		}
		return results
	}

	workers := ctx.Parallelism
	if workers > len(jobs) {
		workers = len(jobs)
	}

	var wg sync.WaitGroup
	work := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				run(i)
			}
		}()
	}
	for i := range jobs {
		work <- i
	}
	close(work)
	wg.Wait()

	return results
}

// memoryFactors maps a converter id's family prefix to the heuristic
// expansion factor applied per matching plan step when estimating peak
// memory. Families not present in this table leave the running estimate
// unchanged.
var memoryFactors = []struct {
	prefix string
	factor int
}{
	{"audio.", 10},
	{"image.", 4},
	{"video.", 100},
}

// EstimateMemory heuristically estimates the peak memory a plan will use,
// starting from inputSize and applying each matching step's family
// multiplier in sequence. The factor composes multiplicatively across
// repeated families: a two-step image-to-image-to-image chain compounds
// 4x twice, not once.
func EstimateMemory(inputSize int, plan planner.Plan) int {
	estimate := inputSize
	for _, step := range plan.Steps {
		for _, mf := range memoryFactors {
			if strings.HasPrefix(step.ConverterID, mf.prefix) {
				estimate = saturatingMul(estimate, mf.factor)
				break
			}
		}
	}
	return estimate
}

// saturatingMul multiplies a by b, clamping to the maximum int on
// overflow rather than wrapping, matching the source heuristic's
// saturating_mul semantics.
func saturatingMul(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	result := a * b
	if result/b != a {
		return int(^uint(0) >> 1)
	}
	return result
}

var _ Executor = SimpleExecutor{}
