// Package registry holds the dynamic collection of converters a Planner
// searches over. Shape mirrors the teacher's opener.RegisterOpener /
// opener.OpenerFromSpec registry almost directly: a mutex-guarded,
// insertion-ordered id map, registered once at startup and read many
// times from there on.
package registry

import (
	"fmt"
	"sync"

	"github.com/carlodf/morphetl/converter"
	"github.com/carlodf/morphetl/pattern"
	"github.com/carlodf/morphetl/props"
)

// Registry is an ordered collection of converters, keyed by their
// declared id. A Registry is safe for concurrent use: Register is
// expected to happen during startup composition, Get/Candidates/Len/Iter
// are expected to be called concurrently thereafter.
type Registry struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]converter.Converter
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{byID: make(map[string]converter.Converter)}
}

// Register adds c to the registry, keyed by c.Decl().ID. It returns an
// error if a converter with the same id is already registered — a
// programming error in composition, matching opener.RegisterOpener's
// duplicate-scheme handling.
func (r *Registry) Register(c converter.Converter) error {
	id := c.Decl().ID
	if id == "" {
		return fmt.Errorf("registry: converter has empty id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; ok {
		return fmt.Errorf("registry: converter %q already registered", id)
	}
	r.byID[id] = c
	r.order = append(r.order, id)
	return nil
}

// MustRegister is Register, panicking on error. Intended for
// RegisterAll-style composition functions where a duplicate id is a
// fatal wiring mistake, never a runtime condition to recover from.
func (r *Registry) MustRegister(c converter.Converter) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}

// Get returns the converter registered under id, and true if present.
func (r *Registry) Get(id string) (converter.Converter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	return c, ok
}

// Len reports the number of registered converters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Iter calls fn for every registered converter in registration order. It
// stops early if fn returns false.
func (r *Registry) Iter(fn func(c converter.Converter) bool) {
	r.mu.RLock()
	ids := append([]string(nil), r.order...)
	byID := r.byID
	r.mu.RUnlock()
	for _, id := range ids {
		if !fn(byID[id]) {
			return
		}
	}
}

// Candidate is one edge out of a property state: a converter together
// with the specific input port whose pattern matched.
type Candidate struct {
	Converter converter.Converter
	PortName  string
	Pattern   pattern.PropertyPattern
}

// Candidates returns every (converter, input port) pair whose input
// pattern matches p, in registration order — ties among equal-cost edges
// are broken by this order, per spec.md §4.5. The default implementation
// is a full scan across every registered converter's every input port;
// implementations needing faster lookup may add a secondary index keyed
// by a well-known property such as "format" (not required by the core
// contract).
func (r *Registry) Candidates(p props.Properties) []Candidate {
	r.mu.RLock()
	ids := append([]string(nil), r.order...)
	byID := r.byID
	r.mu.RUnlock()

	var out []Candidate
	for _, id := range ids {
		c := byID[id]
		decl := c.Decl()
		for _, portName := range decl.Inputs.Names() {
			port, _ := decl.Inputs.Get(portName)
			if port.Pattern.Matches(p) {
				out = append(out, Candidate{Converter: c, PortName: portName, Pattern: port.Pattern})
			}
		}
	}
	return out
}
