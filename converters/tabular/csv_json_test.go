package tabular

import (
	"encoding/json"
	"testing"

	"github.com/carlodf/morphetl/props"
	"github.com/carlodf/morphetl/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVToJSON_PreservesColumnOrder(t *testing.T) {
	t.Parallel()

	c := newCSVToJSON()
	csvData := []byte("name,age\nalice,30\nbob,40\n")

	out, err := c.Convert(csvData, props.New().With("format", value.String("csv")))
	require.NoError(t, err)

	data, p, ok := out.AsSingle()
	require.True(t, ok)
	got, _ := p.AsStr("format")
	assert.Equal(t, "json", got)

	var rows []map[string]string
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "alice", rows[0]["name"])
	assert.Equal(t, "30", rows[0]["age"])
	assert.Equal(t, "bob", rows[1]["name"])
}

func TestCSVToJSON_MalformedInput(t *testing.T) {
	t.Parallel()

	c := newCSVToJSON()
	_, err := c.Convert([]byte("\"unterminated"), props.New().With("format", value.String("csv")))
	assert.Error(t, err)
}

func TestJSONToCSV_RoundTrip(t *testing.T) {
	t.Parallel()

	jsonData := []byte(`[{"name":"alice","age":"30"},{"name":"bob","age":"40"}]`)
	c := newJSONToCSV()

	out, err := c.Convert(jsonData, props.New().With("format", value.String("json")))
	require.NoError(t, err)

	data, p, ok := out.AsSingle()
	require.True(t, ok)
	got, _ := p.AsStr("format")
	assert.Equal(t, "csv", got)
	assert.Equal(t, "name,age\nalice,30\nbob,40\n", string(data))
}

func TestJSONToCSV_MissingKeyBecomesEmptyField(t *testing.T) {
	t.Parallel()

	jsonData := []byte(`[{"name":"alice","age":"30"},{"name":"bob"}]`)
	c := newJSONToCSV()

	out, err := c.Convert(jsonData, props.New().With("format", value.String("json")))
	require.NoError(t, err)

	data, _, _ := out.AsSingle()
	assert.Equal(t, "name,age\nalice,30\nbob,\n", string(data))
}

func TestJSONToCSV_MalformedInput(t *testing.T) {
	t.Parallel()

	c := newJSONToCSV()
	_, err := c.Convert([]byte("not json"), props.New().With("format", value.String("json")))
	assert.Error(t, err)
}

func TestCSVToJSON_SemicolonDelimiter(t *testing.T) {
	t.Parallel()

	c := newCSVToJSON()
	csvData := []byte("name;age\nalice;30\n")
	in := props.New().With("format", value.String("csv")).With("delimiter", value.String(";"))

	out, err := c.Convert(csvData, in)
	require.NoError(t, err)

	data, _, ok := out.AsSingle()
	require.True(t, ok)
	var rows []map[string]string
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0]["name"])
}

func TestJSONToCSV_SemicolonDelimiter(t *testing.T) {
	t.Parallel()

	jsonData := []byte(`[{"name":"alice","age":"30"}]`)
	c := newJSONToCSV()
	in := props.New().With("format", value.String("json")).With("delimiter", value.String(";"))

	out, err := c.Convert(jsonData, in)
	require.NoError(t, err)

	data, _, _ := out.AsSingle()
	assert.Equal(t, "name;age\nalice;30\n", string(data))
}

func TestCSVToJSON_InvalidDelimiterProperty(t *testing.T) {
	t.Parallel()

	c := newCSVToJSON()
	in := props.New().With("format", value.String("csv")).With("delimiter", value.String("nope"))
	_, err := c.Convert([]byte("a,b\n1,2\n"), in)
	assert.Error(t, err)
}
