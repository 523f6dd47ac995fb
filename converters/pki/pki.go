// Package pki registers converters between PEM and DER encodings of the
// same underlying ASN.1 structure (certificates, keys, or any other PEM
// block). Both directions are a pure re-encoding: DER is PEM's payload
// with the base64 armor and block-type header stripped or added.
// Justified stdlib-only in SPEC_FULL.md §11.5: no pack library wraps
// encoding/pem or crypto/x509 more directly than the standard library
// itself.
package pki

import (
	"encoding/pem"
	"fmt"

	"github.com/carlodf/morphetl/converter"
	"github.com/carlodf/morphetl/pattern"
	"github.com/carlodf/morphetl/props"
	"github.com/carlodf/morphetl/value"
)

// defaultBlockType is used when encoding DER to PEM and the input
// properties carry no "pem_type" hint.
const defaultBlockType = "CERTIFICATE"

// RegisterAll registers every pki converter with r.
func RegisterAll(r interface {
	MustRegister(c converter.Converter)
}) {
	r.MustRegister(newPEMToDER())
	r.MustRegister(newDERToPEM())
}

type pemToDER struct{ decl converter.ConverterDecl }

func newPEMToDER() *pemToDER {
	decl := converter.Simple(
		"pki.pem-to-der",
		pattern.New().EqStr("format", "pem"),
		pattern.New().EqStr("format", "der"),
	).WithDescription("PEM to raw DER bytes")
	return &pemToDER{decl: decl}
}

func (c *pemToDER) Decl() converter.ConverterDecl { return c.decl }

func (c *pemToDER) Convert(data []byte, p props.Properties) (converter.ConvertOutput, error) {
	block, rest := pem.Decode(data)
	if block == nil {
		return converter.ConvertOutput{}, converter.NewInvalidInput("no PEM block found", nil)
	}
	if len(rest) > 0 {
		return converter.ConvertOutput{}, converter.NewUnsupported("input contains more than one PEM block; only the first is supported")
	}

	outProps := p.With("format", value.String("der")).With("pem_type", value.String(block.Type))
	return converter.Single(block.Bytes, outProps), nil
}

type derToPEM struct{ decl converter.ConverterDecl }

func newDERToPEM() *derToPEM {
	decl := converter.Simple(
		"pki.der-to-pem",
		pattern.New().EqStr("format", "der"),
		pattern.New().EqStr("format", "pem"),
	).WithDescription("raw DER bytes to PEM")
	return &derToPEM{decl: decl}
}

func (c *derToPEM) Decl() converter.ConverterDecl { return c.decl }

func (c *derToPEM) Convert(data []byte, p props.Properties) (converter.ConvertOutput, error) {
	if len(data) == 0 {
		return converter.ConvertOutput{}, converter.NewInvalidInput("empty DER payload", nil)
	}

	blockType := defaultBlockType
	if t, ok := p.AsStr("pem_type"); ok && t != "" {
		blockType = t
	}

	encoded := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: data})
	if encoded == nil {
		return converter.ConvertOutput{}, converter.NewFailed(fmt.Sprintf("encoding PEM block type %q", blockType), nil)
	}

	outProps := p.With("format", value.String("pem"))
	return converter.Single(encoded, outProps), nil
}
