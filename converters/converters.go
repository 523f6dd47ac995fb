// Package converters composes every concrete converter family into one
// Registry. This replaces the original project's Cargo feature flags
// (cambium-image, cambium-serde, ...) with a single Go-side composition
// root: every family is always compiled in, and RegisterAll wires them
// all at once.
package converters

import (
	"github.com/carlodf/morphetl/converters/image"
	"github.com/carlodf/morphetl/converters/pki"
	"github.com/carlodf/morphetl/converters/serde"
	"github.com/carlodf/morphetl/converters/subtitle"
	"github.com/carlodf/morphetl/converters/tabular"
	"github.com/carlodf/morphetl/registry"
)

// NewRegistry returns a Registry with every built-in converter family
// registered.
func NewRegistry() *registry.Registry {
	r := registry.New()
	RegisterAll(r)
	return r
}

// RegisterAll registers every built-in converter family with r.
func RegisterAll(r *registry.Registry) {
	tabular.RegisterAll(r)
	serde.RegisterAll(r)
	image.RegisterAll(r)
	subtitle.RegisterAll(r)
	pki.RegisterAll(r)
}
