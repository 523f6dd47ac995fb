// Package planner searches a registry of converters for a cost-minimal
// chain that carries a starting Properties state to some state a target
// pattern matches. The search is uniform-cost (Dijkstra) over projected
// property states: nodes are Properties, edges are converter input/output
// port pairs, edge weight is the converter's cost hint.
package planner

import (
	"container/heap"
	"errors"
	"fmt"

	"github.com/carlodf/morphetl/pattern"
	"github.com/carlodf/morphetl/props"
	"github.com/carlodf/morphetl/registry"
)

// PlanStep is one hop in a Plan: the converter used, the input/output port
// names taken, and the properties the search projects after this hop.
type PlanStep struct {
	ConverterID string
	InputPort   string
	OutputPort  string
	Properties  props.Properties
}

// Plan is an ordered sequence of PlanSteps plus its cumulative cost. An
// empty Plan is valid: it represents the identity transformation, returned
// when the starting properties already satisfy the target pattern.
type Plan struct {
	Steps []PlanStep
	Cost  float64
}

// Len reports the number of steps in p.
func (p Plan) Len() int { return len(p.Steps) }

// ErrNoPath is returned when the open set is exhausted with no node
// satisfying the target pattern.
var ErrNoPath = errors.New("planner: no path to target")

// BudgetExceededError is returned when every remaining branch has been
// pruned by MaxCost or MaxDepth before a goal was found.
type BudgetExceededError struct {
	MaxCost  float64
	MaxDepth int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("planner: budget exceeded (max_cost=%g, max_depth=%d)", e.MaxCost, e.MaxDepth)
}

// Budget bounds a search. A zero value for either field means "no limit"
// on that dimension.
type Budget struct {
	MaxCost  float64
	MaxDepth int
}

func (b Budget) costOK(cost float64) bool {
	return b.MaxCost <= 0 || cost <= b.MaxCost
}

func (b Budget) depthOK(depth int) bool {
	return b.MaxDepth <= 0 || depth <= b.MaxDepth
}

// Planner runs searches against a fixed Registry.
type Planner struct {
	registry *registry.Registry
}

// New returns a Planner searching r.
func New(r *registry.Registry) *Planner {
	return &Planner{registry: r}
}

// searchNode is one entry in the priority queue: a property state reached
// with cumulative cost/depth and the path of steps taken to reach it.
type searchNode struct {
	state props.Properties
	cost  float64
	depth int
	path  []PlanStep
	seq   int // insertion order, for deterministic tie-breaking
}

type nodeHeap []*searchNode

func (h nodeHeap) Len() int { return len(h) }

func (h nodeHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	return h[i].seq < h[j].seq
}

func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *nodeHeap) Push(x any) {
	*h = append(*h, x.(*searchNode))
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Plan searches for a cost-minimal Plan taking start to a state target
// matches, subject to budget. An empty budget means unbounded cost and
// depth. Returns ErrNoPath if the open set empties with no goal found, or
// a *BudgetExceededError if every live branch was pruned by the budget
// before a goal was found.
func (pl *Planner) Plan(start props.Properties, target pattern.PropertyPattern, budget Budget) (Plan, error) {
	if target.Matches(start) {
		return Plan{}, nil
	}

	visited := make(map[string]float64)
	var pq nodeHeap
	seq := 0
	push := func(n *searchNode) {
		n.seq = seq
		seq++
		heap.Push(&pq, n)
	}
	push(&searchNode{state: start, cost: 0, depth: 0})

	pruned := false

	for pq.Len() > 0 {
		cur := heap.Pop(&pq).(*searchNode)

		key := cur.state.Canonical()
		if best, ok := visited[key]; ok && best <= cur.cost {
			continue
		}
		visited[key] = cur.cost

		if target.Matches(cur.state) {
			return Plan{Steps: cur.path, Cost: cur.cost}, nil
		}

		if !budget.depthOK(cur.depth + 1) {
			pruned = true
			continue
		}

		for _, cand := range pl.registry.Candidates(cur.state) {
			decl := cand.Converter.Decl()
			outNames := decl.Outputs.Names()
			if len(outNames) == 0 {
				continue
			}
			outPort, ok := decl.Outputs.Get(primaryOutputName(outNames))
			if !ok {
				continue
			}
			nextCost := cur.cost + decl.EffectiveCost()
			if !budget.costOK(nextCost) {
				pruned = true
				continue
			}
			nextState := pattern.Project(cur.state, outPort.Pattern)
			if prevBest, ok := visited[nextState.Canonical()]; ok && prevBest <= nextCost {
				continue
			}
			step := PlanStep{
				ConverterID: decl.ID,
				InputPort:   cand.PortName,
				OutputPort:  outPort.Name,
				Properties:  nextState,
			}
			path := make([]PlanStep, len(cur.path)+1)
			copy(path, cur.path)
			path[len(cur.path)] = step
			push(&searchNode{state: nextState, cost: nextCost, depth: cur.depth + 1, path: path})
		}
	}

	if pruned {
		return Plan{}, &BudgetExceededError{MaxCost: budget.MaxCost, MaxDepth: budget.MaxDepth}
	}
	return Plan{}, ErrNoPath
}

// primaryOutputName picks the output port the planner's main-path search
// expands: the conventional "out" port if declared, otherwise the first
// declared port. Converters with more than one output port are expected
// to name their primary single-value port "out" (converter.Simple always
// does); the main-path search only ever follows this conventional output,
// never a fan-out-only port, per the Cardinality rule in the search
// algorithm.
func primaryOutputName(names []string) string {
	for _, n := range names {
		if n == "out" {
			return n
		}
	}
	return names[0]
}
