// Package workflow is a thin driver binding a Source, an ordered list of
// Steps, and a Sink: it resolves the source into initial bytes and
// properties, runs each step through the Planner and Executor in turn,
// and hands the final bytes to the sink. The workflow structure is pure
// data — nothing here holds state beyond one Run call.
package workflow

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/carlodf/morphetl/connector"
	"github.com/carlodf/morphetl/converter"
	"github.com/carlodf/morphetl/executor"
	"github.com/carlodf/morphetl/opener"
	"github.com/carlodf/morphetl/pattern"
	"github.com/carlodf/morphetl/planner"
	"github.com/carlodf/morphetl/props"
)

// Source describes where a workflow's input bytes and initial
// properties come from. Exactly one of its fields should be set;
// construct one with FromFile, FromStdin, or FromBytes rather than
// building the struct directly.
type Source struct {
	FilePath     string
	UseStdin     bool
	Inline       []byte
	inlineSet    bool
	InitialProps props.Properties
}

// FromFile describes a Source read from a filesystem path (or a glob that
// matches exactly one file; RunBatch takes several paths).
func FromFile(path string, initial props.Properties) Source {
	return Source{FilePath: path, InitialProps: initial}
}

// FromStdin describes a Source read from the process's standard input.
func FromStdin(initial props.Properties) Source {
	return Source{UseStdin: true, InitialProps: initial}
}

// FromBytes describes a Source whose bytes are already in memory.
func FromBytes(data []byte, initial props.Properties) Source {
	return Source{Inline: data, inlineSet: true, InitialProps: initial}
}

// Resolve reads src's bytes, opening a file or stdin if needed. maxBytes,
// when non-zero, rejects a file-backed source whose opener.Sizer-reported
// size already exceeds the limit, before any of it is read into memory;
// pass an executor.ExecutionContext's MemoryLimit here to fail a
// too-large input fast instead of discovering the same limit violation
// only after SimpleExecutor.Execute has already buffered it.
func (src Source) Resolve(ctx context.Context, maxBytes int) ([]byte, error) {
	if src.inlineSet {
		return src.Inline, nil
	}
	if src.UseStdin {
		rc, err := (opener.Stdin{}).Open(ctx)
		if err != nil {
			return nil, fmt.Errorf("workflow: reading stdin: %w", err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	ops, err := opener.OpenerFromSpec(src.FilePath)
	if err != nil {
		return nil, fmt.Errorf("workflow: resolving source %q: %w", src.FilePath, err)
	}
	if len(ops) != 1 {
		return nil, fmt.Errorf("workflow: source %q resolved to %d openers, expected exactly 1 (use RunBatch for multi-file sources)", src.FilePath, len(ops))
	}
	if maxBytes > 0 {
		if sizer, ok := ops[0].(opener.Sizer); ok {
			if n, known, err := sizer.Size(ctx); err == nil && known && n > int64(maxBytes) {
				return nil, fmt.Errorf("workflow: source %q is %d bytes, exceeds memory limit of %d bytes", src.FilePath, n, maxBytes)
			}
		}
	}
	rc, err := ops[0].Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("workflow: opening source %q: %w", src.FilePath, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Step is one stage of a workflow: either a target pattern (the planner
// finds a converter chain to it) or a property delta (keys applied
// directly, with no converter — typically used to label input
// properties before the first conversion step).
type Step struct {
	Target *pattern.PropertyPattern
	Delta  props.Properties
	Fanout bool
	Budget planner.Budget
}

// ToTarget builds a Step that asks the planner for a chain reaching target.
func ToTarget(target pattern.PropertyPattern, budget planner.Budget) Step {
	return Step{Target: &target, Budget: budget}
}

// ToTargetFanout is ToTarget with Fanout set, for use as the last Step of
// a Workflow driven through RunFanout instead of Run.
func ToTargetFanout(target pattern.PropertyPattern, budget planner.Budget) Step {
	return Step{Target: &target, Budget: budget, Fanout: true}
}

// WithDelta builds a Step that applies delta's keys directly, without
// invoking the planner.
func WithDelta(delta props.Properties) Step {
	return Step{Delta: delta}
}

// Sink describes where a workflow's final bytes and properties go.
type Sink struct {
	FilePath  string
	UseStdout bool
	Discard   bool
}

// ToFile describes a Sink that writes to a filesystem path.
func ToFile(path string) Sink { return Sink{FilePath: path} }

// ToStdout describes a Sink that writes to the process's standard output.
func ToStdout() Sink { return Sink{UseStdout: true} }

// ToDiscard describes a Sink that drops the final bytes (useful for
// "plan only" or validation-only workflows).
func ToDiscard() Sink { return Sink{Discard: true} }

// Write delivers data to sink.
func (sink Sink) Write(data []byte) error {
	switch {
	case sink.Discard:
		return nil
	case sink.UseStdout:
		_, err := os.Stdout.Write(data)
		return err
	default:
		return os.WriteFile(sink.FilePath, data, 0o644)
	}
}

// Workflow is a named Source/Steps/Sink description.
type Workflow struct {
	Name  string
	Src   Source
	Steps []Step
	Dest  Sink
}

// Result is the outcome of driving a Workflow through Run: the final
// bytes/properties, the concatenation of every step's Plan, and the
// executor stats accumulated across every step executed.
type Result struct {
	Data  []byte
	Props props.Properties
	Plan  planner.Plan
	Stats executor.ExecutionStats
}

// StepError reports which Step of a Workflow failed, and why.
type StepError struct {
	StepIndex int
	Cause     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("workflow: step %d failed: %v", e.StepIndex, e.Cause)
}

func (e *StepError) Unwrap() error { return e.Cause }

// Run resolves wf's Source, drives each Step through pl and ex in order,
// and writes the final result to wf's Sink.
func Run(ctx context.Context, wf Workflow, pl *planner.Planner, ex executor.Executor, execCtx executor.ExecutionContext) (Result, error) {
	data, err := wf.Src.Resolve(ctx, execCtx.MemoryLimit)
	if err != nil {
		return Result{}, err
	}
	currentProps := wf.Src.InitialProps

	var fullPlan planner.Plan
	var stats executor.ExecutionStats

	for i, step := range wf.Steps {
		switch {
		case step.Delta.Len() > 0:
			currentProps = applyDelta(currentProps, step.Delta)

		case step.Target != nil:
			plan, err := pl.Plan(currentProps, *step.Target, step.Budget)
			if err != nil {
				return Result{}, &StepError{StepIndex: i, Cause: err}
			}
			result, err := ex.Execute(execCtx, plan, data, currentProps)
			if err != nil {
				return Result{}, &StepError{StepIndex: i, Cause: err}
			}
			data = result.Data
			currentProps = result.Props
			fullPlan.Steps = append(fullPlan.Steps, plan.Steps...)
			fullPlan.Cost += plan.Cost
			stats.StepsExecuted += result.Stats.StepsExecuted
			stats.Duration += result.Stats.Duration
			if result.Stats.PeakMemory > stats.PeakMemory {
				stats.PeakMemory = result.Stats.PeakMemory
			}

		default:
			return Result{}, &StepError{StepIndex: i, Cause: fmt.Errorf("step has neither a target pattern nor a property delta")}
		}
	}

	if err := wf.Dest.Write(data); err != nil {
		return Result{}, fmt.Errorf("workflow: writing sink: %w", err)
	}

	return Result{Data: data, Props: currentProps, Plan: fullPlan, Stats: stats}, nil
}

// Branch is one output of a Fanout step: the bytes and properties of a
// single member of a Multiple-producing converter's output, written to
// its own Sink.
type Branch struct {
	Data  []byte
	Props props.Properties
}

// RunFanout is Run, except that if the last Step is marked Fanout, every
// output of that step's terminal converter is kept (not just the first,
// which is all Run and the default Executor ever see) and written to
// sinkFor(index). The planner does not distinguish fan-out converters,
// and every earlier hop keeps only the first output of a Multiple, so
// fan-out happens only at the very last hop of the very last Step —
// everything before that runs exactly as Run runs it.
func RunFanout(ctx context.Context, wf Workflow, pl *planner.Planner, ex executor.Executor, execCtx executor.ExecutionContext, sinkFor func(index int) Sink) ([]Branch, error) {
	if len(wf.Steps) == 0 || !wf.Steps[len(wf.Steps)-1].Fanout {
		result, err := Run(ctx, wf, pl, ex, execCtx)
		if err != nil {
			return nil, err
		}
		return []Branch{{Data: result.Data, Props: result.Props}}, nil
	}

	head := wf
	last := wf.Steps[len(wf.Steps)-1]
	head.Steps = wf.Steps[:len(wf.Steps)-1]
	head.Dest = ToDiscard()

	preResult, err := Run(ctx, head, pl, ex, execCtx)
	if err != nil {
		return nil, err
	}

	if last.Target == nil {
		return nil, &StepError{StepIndex: len(wf.Steps) - 1, Cause: fmt.Errorf("fanout step must have a target pattern")}
	}
	plan, err := pl.Plan(preResult.Props, *last.Target, last.Budget)
	if err != nil {
		return nil, &StepError{StepIndex: len(wf.Steps) - 1, Cause: err}
	}
	if plan.Len() == 0 {
		return []Branch{{Data: preResult.Data, Props: preResult.Props}}, nil
	}

	data, p := preResult.Data, preResult.Props
	for i, step := range plan.Steps[:plan.Len()-1] {
		c, ok := execCtx.Registry.Get(step.ConverterID)
		if !ok {
			return nil, &StepError{StepIndex: len(wf.Steps) - 1, Cause: fmt.Errorf("converter %q not found at hop %d", step.ConverterID, i)}
		}
		out, err := c.Convert(data, p)
		if err != nil {
			return nil, &StepError{StepIndex: len(wf.Steps) - 1, Cause: err}
		}
		d, outProps, ok := out.First()
		if !ok {
			return nil, &StepError{StepIndex: len(wf.Steps) - 1, Cause: fmt.Errorf("converter %q produced no output at hop %d", step.ConverterID, i)}
		}
		data, p = d, outProps
	}

	finalStep := plan.Steps[plan.Len()-1]
	c, ok := execCtx.Registry.Get(finalStep.ConverterID)
	if !ok {
		return nil, &StepError{StepIndex: len(wf.Steps) - 1, Cause: fmt.Errorf("converter %q not found", finalStep.ConverterID)}
	}
	out, err := c.Convert(data, p)
	if err != nil {
		return nil, &StepError{StepIndex: len(wf.Steps) - 1, Cause: err}
	}

	branches := toBranches(out)
	for i, b := range branches {
		if err := sinkFor(i).Write(b.Data); err != nil {
			return nil, fmt.Errorf("workflow: writing fanout sink %d: %w", i, err)
		}
	}
	return branches, nil
}

// toBranches flattens a ConvertOutput (Single or Multiple) into Branches.
func toBranches(out converter.ConvertOutput) []Branch {
	if data, p, ok := out.AsSingle(); ok {
		return []Branch{{Data: data, Props: p}}
	}
	datas, ps, _ := out.AsMultiple()
	branches := make([]Branch, len(datas))
	for i := range datas {
		branches[i] = Branch{Data: datas[i], Props: ps[i]}
	}
	return branches
}

// BatchBoundary records that Source's bytes begin at StartOffset in the
// raw, pre-conversion stream RunBatch assembled from its sources before
// handing it to a Workflow's Steps. The Steps may reshape that stream
// arbitrarily, so StartOffset doesn't locate Source within Result.Data —
// it's for diagnostics: e.g. reporting which input file a malformed row
// came from, by comparing its offset in the assembled input against
// consecutive boundaries.
type BatchBoundary struct {
	Source      string
	StartOffset int64
}

// BatchResult is Result plus the boundary log recorded while reading a
// batch's sources.
type BatchResult struct {
	Result
	Boundaries []BatchBoundary
}

// RunBatch resolves every path in paths (each may itself be a glob, per
// opener.OpenerFromSpec) into an opener, concatenates their bytes through
// connector.NewMuxReader into a single stream, and drives that stream
// through steps/dest exactly as Run drives a single Source. Use this for
// formats where many files logically form one document — e.g. a
// directory of CSV shards the tabular converters treat as one table.
//
// Unlike Run's single-file Source, initial properties are shared across
// every file in the batch: per-file property variation isn't supported
// here (use separate Run calls for that).
func RunBatch(ctx context.Context, paths []string, initial props.Properties, steps []Step, dest Sink, pl *planner.Planner, ex executor.Executor, execCtx executor.ExecutionContext) (BatchResult, error) {
	var ops []opener.Opener
	for _, path := range paths {
		fileOps, err := opener.OpenerFromSpec(path)
		if err != nil {
			return BatchResult{}, fmt.Errorf("workflow: resolving batch source %q: %w", path, err)
		}
		ops = append(ops, fileOps...)
	}
	if len(ops) == 0 {
		return BatchResult{}, fmt.Errorf("workflow: batch resolved to zero files")
	}

	mux := connector.NewMuxReader(ctx, ops)
	defer mux.Close()

	boundaries := make([]BatchBoundary, 0, len(ops))
	boundariesDone := make(chan struct{})
	go func() {
		defer close(boundariesDone)
		for {
			meta, err := mux.AwaitBoundary(ctx)
			if err != nil {
				return
			}
			boundaries = append(boundaries, BatchBoundary{Source: meta.Name, StartOffset: meta.GlobalOffset})
		}
	}()

	data, readErr := io.ReadAll(mux)
	<-boundariesDone
	if readErr != nil {
		return BatchResult{}, fmt.Errorf("workflow: reading batch sources: %w", readErr)
	}

	wf := Workflow{Name: "batch", Src: FromBytes(data, initial), Steps: steps, Dest: dest}
	result, err := Run(ctx, wf, pl, ex, execCtx)
	if err != nil {
		return BatchResult{}, err
	}
	return BatchResult{Result: result, Boundaries: boundaries}, nil
}

// applyDelta returns a copy of base with every key in delta set to
// delta's value for that key.
func applyDelta(base, delta props.Properties) props.Properties {
	out := base
	for _, key := range delta.Keys() {
		v, _ := delta.Get(key)
		out = out.With(key, v)
	}
	return out
}
