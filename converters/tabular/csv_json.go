// Package tabular registers converters between row-oriented formats. The
// CSV side is decoded through transform.Decoder/Extractor, the same
// streaming record model the teacher's ETL pipeline builds on; here its
// output feeds a converter.ConvertOutput instead of a typed Go struct
// stream, and its dialect (delimiter) is driven by a converter property
// instead of being fixed at construction time.
package tabular

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/carlodf/morphetl/connector"
	"github.com/carlodf/morphetl/converter"
	"github.com/carlodf/morphetl/opener"
	"github.com/carlodf/morphetl/pattern"
	"github.com/carlodf/morphetl/props"
	"github.com/carlodf/morphetl/transform"
	"github.com/carlodf/morphetl/value"
)

// RegisterAll registers every tabular converter with r.
func RegisterAll(r interface {
	MustRegister(c converter.Converter)
}) {
	r.MustRegister(newCSVToJSON())
	r.MustRegister(newJSONToCSV())
}

// defaultDelimiter is the field delimiter used when a document carries no
// "delimiter" property, matching the encoding/csv default.
const defaultDelimiter = ','

// delimiterFromProps reads a single-rune "delimiter" property off p,
// falling back to defaultDelimiter. This is how a dialect CSV variant
// (semicolon-separated, tab-separated) rides through the planner as an
// ordinary property instead of a converter-specific flag: a source
// opened with delimiter=";" plans the same "csv"->"json" edge as any
// other CSV, and transform.CSVDecoderOptions.Comma is set from it.
func delimiterFromProps(p props.Properties) (rune, error) {
	s, ok := p.AsStr("delimiter")
	if !ok || s == "" {
		return defaultDelimiter, nil
	}
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, fmt.Errorf("delimiter property must be exactly one rune, got %q", s)
	}
	return runes[0], nil
}

// csvToJSON converts a CSV document (format=csv) into a JSON array of
// row objects (format=json), one object per CSV row keyed by header
// name, preserving header field order.
type csvToJSON struct {
	decl converter.ConverterDecl
}

func newCSVToJSON() *csvToJSON {
	decl := converter.Simple(
		"tabular.csv-to-json",
		pattern.New().EqStr("format", "csv"),
		pattern.New().EqStr("format", "json"),
	).WithDescription("CSV rows to a JSON array of row objects")
	return &csvToJSON{decl: decl}
}

func (c *csvToJSON) Decl() converter.ConverterDecl { return c.decl }

func (c *csvToJSON) Convert(data []byte, p props.Properties) (converter.ConvertOutput, error) {
	comma, err := delimiterFromProps(p)
	if err != nil {
		return converter.ConvertOutput{}, converter.NewInvalidInput("bad delimiter property", err)
	}

	ctx := context.Background()
	stream := connector.NewMuxReader(ctx, []opener.Opener{opener.InMemorySource{Data: data, SourceName: "in"}})
	defer stream.Close()

	dec := transform.NewCSVDecoder(transform.CSVDecoderOptions{Comma: comma})
	it, err := dec.Decode(ctx, stream)
	if err != nil {
		return converter.ConvertOutput{}, converter.NewInvalidInput("malformed csv", err)
	}
	defer it.Close()

	var buf bytes.Buffer
	buf.WriteByte('[')
	first := true
	for it.Next() {
		rec := it.Record()
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := writeRowObject(&buf, rec); err != nil {
			return converter.ConvertOutput{}, converter.NewFailed("encoding json row", err)
		}
	}
	if err := it.Err(); err != nil {
		return converter.ConvertOutput{}, converter.NewInvalidInput("reading csv rows", err)
	}
	buf.WriteByte(']')

	out := p.With("format", value.String("json"))
	return converter.Single(buf.Bytes(), out), nil
}

// writeRowObject writes rec as a JSON object, in header-declared field
// order, directly to buf. encoding/json would sort a map's keys; a
// manual writer is the only way to preserve column order without it.
func writeRowObject(buf *bytes.Buffer, rec transform.Extractor) error {
	buf.WriteByte('{')
	names := rec.Names()
	for i := 0; i < rec.Len(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		key := fmt.Sprintf("col%d", i)
		if i < len(names) && names[i] != "" {
			key = names[i]
		}
		keyJSON, err := json.Marshal(key)
		if err != nil {
			return err
		}
		val, _ := rec.ByIndex(i)
		valJSON, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return nil
}

// jsonToCSV converts a JSON array of flat row objects (format=json) into
// a CSV document (format=csv). The header is the union of all objects'
// keys in first-seen order (the first object's keys first); every row is
// serialized in that column order, emitting an empty field for keys it
// doesn't carry.
type jsonToCSV struct {
	decl converter.ConverterDecl
}

func newJSONToCSV() *jsonToCSV {
	decl := converter.Simple(
		"tabular.json-to-csv",
		pattern.New().EqStr("format", "json"),
		pattern.New().EqStr("format", "csv"),
	).WithDescription("JSON array of row objects to CSV")
	return &jsonToCSV{decl: decl}
}

func (c *jsonToCSV) Decl() converter.ConverterDecl { return c.decl }

func (c *jsonToCSV) Convert(data []byte, p props.Properties) (converter.ConvertOutput, error) {
	comma, err := delimiterFromProps(p)
	if err != nil {
		return converter.ConvertOutput{}, converter.NewInvalidInput("bad delimiter property", err)
	}

	rows, header, err := decodeOrderedRows(data)
	if err != nil {
		return converter.ConvertOutput{}, converter.NewInvalidInput("malformed json rows", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = comma
	if len(header) > 0 {
		if err := w.Write(header); err != nil {
			return converter.ConvertOutput{}, converter.NewFailed("writing csv header", err)
		}
	}
	for _, row := range rows {
		rec := make([]string, len(header))
		for i, key := range header {
			rec[i] = row[key]
		}
		if err := w.Write(rec); err != nil {
			return converter.ConvertOutput{}, converter.NewFailed("writing csv row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return converter.ConvertOutput{}, converter.NewFailed("flushing csv writer", err)
	}

	out := p.With("format", value.String("csv"))
	return converter.Single(buf.Bytes(), out), nil
}

// decodeOrderedRows decodes a JSON array of flat objects, returning each
// row as a string-keyed map alongside the union of keys in first-seen
// order (the header).
func decodeOrderedRows(data []byte) ([]map[string]string, []string, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, err
	}

	rows := make([]map[string]string, len(raw))
	var header []string
	seen := make(map[string]bool)

	for i, msg := range raw {
		dec := json.NewDecoder(bytes.NewReader(msg))
		row := make(map[string]string)

		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '{' {
			return nil, nil, fmt.Errorf("row %d: expected a JSON object", i)
		}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, nil, err
			}
			key := keyTok.(string)
			if !seen[key] {
				seen[key] = true
				header = append(header, key)
			}
			var val any
			if err := dec.Decode(&val); err != nil {
				return nil, nil, err
			}
			row[key] = stringifyScalar(val)
		}
		rows[i] = row
	}

	return rows, header, nil
}

func stringifyScalar(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}
