// Package converter defines the converter contract: named input/output
// ports each carrying a property pattern, plus a pure byte-and-property
// transformation. The core never names concrete converter types; it only
// ever talks to this interface.
package converter

import (
	"fmt"

	"github.com/carlodf/morphetl/pattern"
	"github.com/carlodf/morphetl/props"
)

// PortDecl is a named port with the property pattern it matches (for an
// input port) or guarantees (for an output port).
type PortDecl struct {
	Name    string
	Pattern pattern.PropertyPattern
}

// portMap is an ordered name->PortDecl mapping, matching the ordering
// discipline used throughout props.Properties and pattern.PropertyPattern.
type portMap struct {
	names []string
	decls map[string]PortDecl
}

func newPortMap() portMap {
	return portMap{decls: make(map[string]PortDecl)}
}

func (m portMap) with(d PortDecl) portMap {
	names := m.names
	decls := make(map[string]PortDecl, len(m.decls)+1)
	for k, v := range m.decls {
		decls[k] = v
	}
	if _, ok := decls[d.Name]; !ok {
		names = append(append([]string(nil), m.names...), d.Name)
	}
	decls[d.Name] = d
	return portMap{names: names, decls: decls}
}

// Get returns the port declaration for name, and true if present.
func (m portMap) Get(name string) (PortDecl, bool) {
	d, ok := m.decls[name]
	return d, ok
}

// Names returns port names in declaration order.
func (m portMap) Names() []string {
	return append([]string(nil), m.names...)
}

// Len reports the number of declared ports.
func (m portMap) Len() int { return len(m.names) }

// ConverterDecl is a converter's static metadata: a stable id unique
// within a registry, an optional description, a cost hint (defaults to
// 1.0 when unset), and ordered input/output port maps.
type ConverterDecl struct {
	ID          string
	Description string
	CostHint    float64
	Inputs      portMap
	Outputs     portMap
}

// Simple builds a ConverterDecl with the conventional single "in"/"out"
// port pair, matching ConverterDecl::simple in the original source and
// the overwhelming majority of real converters (cambium-image,
// cambium-serde).
func Simple(id string, inPattern, outPattern pattern.PropertyPattern) ConverterDecl {
	d := ConverterDecl{ID: id, CostHint: 1.0}
	d.Inputs = d.Inputs.with(PortDecl{Name: "in", Pattern: inPattern})
	d.Outputs = d.Outputs.with(PortDecl{Name: "out", Pattern: outPattern})
	return d
}

// WithInput returns a copy of d with an additional (or replacing) input
// port.
func (d ConverterDecl) WithInput(name string, p pattern.PropertyPattern) ConverterDecl {
	d.Inputs = d.Inputs.with(PortDecl{Name: name, Pattern: p})
	return d
}

// WithOutput returns a copy of d with an additional (or replacing) output
// port.
func (d ConverterDecl) WithOutput(name string, p pattern.PropertyPattern) ConverterDecl {
	d.Outputs = d.Outputs.with(PortDecl{Name: name, Pattern: p})
	return d
}

// WithDescription returns a copy of d with its description set.
func (d ConverterDecl) WithDescription(text string) ConverterDecl {
	d.Description = text
	return d
}

// WithCost returns a copy of d with its cost hint set. Panics on a
// non-positive cost: a zero or negative edge weight breaks the planner's
// Dijkstra assumption and is a programming error in the converter's
// registration, not a runtime condition.
func (d ConverterDecl) WithCost(cost float64) ConverterDecl {
	if cost <= 0 {
		panic(fmt.Sprintf("converter: cost hint must be positive, got %g", cost))
	}
	d.CostHint = cost
	return d
}

// EffectiveCost returns d.CostHint, or 1.0 if it was never set (zero
// value).
func (d ConverterDecl) EffectiveCost() float64 {
	if d.CostHint <= 0 {
		return 1.0
	}
	return d.CostHint
}

// ConvertOutput is the result of a successful Convert call: either a
// single (bytes, properties) pair, or multiple pairs for converters that
// fan out.
type ConvertOutput struct {
	single   *OutputPair
	multiple []OutputPair
}

// OutputPair is one (data, properties) result, either the sole payload of
// a Single output or one element of a Multiple output.
type OutputPair struct {
	Data  []byte
	Props props.Properties
}

// Single wraps a single (data, properties) output.
func Single(data []byte, p props.Properties) ConvertOutput {
	return ConvertOutput{single: &OutputPair{Data: data, Props: p}}
}

// Multiple wraps several (data, properties) outputs, for converters that
// fan out (e.g. archive extraction). ConverterDecl records no output
// multiplicity, so the planner treats a fan-out converter like any other
// edge; the executor keeps only the first output of a Multiple (see
// First), and only workflow.RunFanout keeps every output of the last hop.
func Multiple(pairs ...OutputPair) ConvertOutput {
	out := make([]OutputPair, len(pairs))
	copy(out, pairs)
	return ConvertOutput{multiple: out}
}

// IsSingle reports whether out holds a single output.
func (out ConvertOutput) IsSingle() bool { return out.single != nil }

// IsMultiple reports whether out holds multiple outputs.
func (out ConvertOutput) IsMultiple() bool { return out.multiple != nil }

// AsSingle returns out's single (data, properties) pair, and true if out
// holds exactly one (i.e. was built with Single).
func (out ConvertOutput) AsSingle() ([]byte, props.Properties, bool) {
	if out.single == nil {
		return nil, props.New(), false
	}
	return out.single.Data, out.single.Props, true
}

// AsMultiple returns out's (data, properties) pairs, and true if out was
// built with Multiple.
func (out ConvertOutput) AsMultiple() ([][]byte, []props.Properties, bool) {
	if out.multiple == nil {
		return nil, nil, false
	}
	data := make([][]byte, len(out.multiple))
	ps := make([]props.Properties, len(out.multiple))
	for i, p := range out.multiple {
		data[i] = p.Data
		ps[i] = p.Props
	}
	return data, ps, true
}

// First returns out's first (data, properties) pair regardless of
// whether out is Single or Multiple, and false only if out is an empty
// Multiple. This is the policy the default executor uses for Multiple
// outputs (spec.md §4.6/§9: "first-element policy").
func (out ConvertOutput) First() ([]byte, props.Properties, bool) {
	if out.single != nil {
		return out.single.Data, out.single.Props, true
	}
	if len(out.multiple) == 0 {
		return nil, props.New(), false
	}
	return out.multiple[0].Data, out.multiple[0].Props, true
}

// Converter is the runtime entity: it exposes its static declaration and
// the pure byte-and-property transformation. Implementations must be
// safe for concurrent invocation with different inputs (spec.md §5).
type Converter interface {
	Decl() ConverterDecl
	Convert(data []byte, p props.Properties) (ConvertOutput, error)
}

// ErrorKind identifies which ConvertError variant occurred.
type ErrorKind int

const (
	// InvalidInput means the payload itself is malformed.
	InvalidInput ErrorKind = iota
	// Failed means an internal encoding error occurred that isn't the
	// caller's fault (e.g. an encoder library rejected valid data).
	Failed
	// Unsupported means the converter declined a capability it formally
	// declared, at runtime (e.g. an optional feature wasn't compiled in).
	Unsupported
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case Failed:
		return "failed"
	case Unsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// ConvertError is the error type returned by Converter.Convert.
type ConvertError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *ConvertError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ConvertError) Unwrap() error { return e.Cause }

// NewInvalidInput builds an InvalidInput ConvertError.
func NewInvalidInput(msg string, cause error) *ConvertError {
	return &ConvertError{Kind: InvalidInput, Message: msg, Cause: cause}
}

// NewFailed builds a Failed ConvertError.
func NewFailed(msg string, cause error) *ConvertError {
	return &ConvertError{Kind: Failed, Message: msg, Cause: cause}
}

// NewUnsupported builds an Unsupported ConvertError.
func NewUnsupported(reason string) *ConvertError {
	return &ConvertError{Kind: Unsupported, Message: reason}
}
