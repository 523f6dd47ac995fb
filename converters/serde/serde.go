// Package serde registers converters between the three common
// self-describing serialization formats: JSON, YAML, and TOML. Each
// converter round-trips through a generic any value rather than a fixed
// schema, matching the Value model's own "opaque to the core" stance on
// payload shape.
package serde

import (
	"encoding/json"
	"fmt"

	"github.com/carlodf/morphetl/converter"
	"github.com/carlodf/morphetl/pattern"
	"github.com/carlodf/morphetl/props"
	"github.com/carlodf/morphetl/value"
	yaml "github.com/goccy/go-yaml"
	toml "github.com/pelletier/go-toml/v2"
)

// RegisterAll registers every serde converter with r.
func RegisterAll(r interface {
	MustRegister(c converter.Converter)
}) {
	formats := []string{"json", "yaml", "toml"}
	for _, from := range formats {
		for _, to := range formats {
			if from == to {
				continue
			}
			r.MustRegister(newSerdeConverter(from, to))
		}
	}
}

type decodeFunc func([]byte) (any, error)
type encodeFunc func(any) ([]byte, error)

var decoders = map[string]decodeFunc{
	"json": func(b []byte) (any, error) {
		var v any
		err := json.Unmarshal(b, &v)
		return v, err
	},
	"yaml": func(b []byte) (any, error) {
		var v any
		err := yaml.Unmarshal(b, &v)
		return v, err
	},
	"toml": func(b []byte) (any, error) {
		var v any
		err := toml.Unmarshal(b, &v)
		return v, err
	},
}

var encoders = map[string]encodeFunc{
	"json": func(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") },
	"yaml": func(v any) ([]byte, error) { return yaml.Marshal(v) },
	"toml": func(v any) ([]byte, error) { return toml.Marshal(v) },
}

// serdeConverter decodes its input format into a generic value and
// re-encodes it in its output format.
type serdeConverter struct {
	decl     converter.ConverterDecl
	from, to string
}

func newSerdeConverter(from, to string) *serdeConverter {
	decl := converter.Simple(
		fmt.Sprintf("serde.%s-to-%s", from, to),
		pattern.New().EqStr("format", from),
		pattern.New().EqStr("format", to),
	).WithDescription(fmt.Sprintf("%s to %s", from, to))
	return &serdeConverter{decl: decl, from: from, to: to}
}

func (c *serdeConverter) Decl() converter.ConverterDecl { return c.decl }

func (c *serdeConverter) Convert(data []byte, p props.Properties) (converter.ConvertOutput, error) {
	decode, ok := decoders[c.from]
	if !ok {
		return converter.ConvertOutput{}, converter.NewUnsupported(fmt.Sprintf("no decoder for %s", c.from))
	}
	encode, ok := encoders[c.to]
	if !ok {
		return converter.ConvertOutput{}, converter.NewUnsupported(fmt.Sprintf("no encoder for %s", c.to))
	}

	v, err := decode(data)
	if err != nil {
		return converter.ConvertOutput{}, converter.NewInvalidInput(fmt.Sprintf("parsing %s", c.from), err)
	}

	out, err := encode(v)
	if err != nil {
		return converter.ConvertOutput{}, converter.NewFailed(fmt.Sprintf("encoding %s", c.to), err)
	}

	outProps := p.With("format", value.String(c.to))
	return converter.Single(out, outProps), nil
}
