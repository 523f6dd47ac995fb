package subtitle

import (
	"testing"

	"github.com/carlodf/morphetl/props"
	"github.com/carlodf/morphetl/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSRT = "1\n00:00:01,000 --> 00:00:04,500\nHello there.\n\n2\n00:00:05,000 --> 00:00:07,250\nLine one\nLine two\n\n"

func TestSRTToVTT(t *testing.T) {
	t.Parallel()

	c := newSRTToVTT()
	out, err := c.Convert([]byte(sampleSRT), props.New().With("format", value.String("srt")))
	require.NoError(t, err)

	data, p, ok := out.AsSingle()
	require.True(t, ok)
	got, _ := p.AsStr("format")
	assert.Equal(t, "vtt", got)

	text := string(data)
	assert.Contains(t, text, "WEBVTT")
	assert.Contains(t, text, "00:00:01.000 --> 00:00:04.500")
	assert.Contains(t, text, "Hello there.")
	assert.Contains(t, text, "Line one\nLine two")
}

func TestVTTToSRT_RoundTrip(t *testing.T) {
	t.Parallel()

	toVTT := newSRTToVTT()
	out, err := toVTT.Convert([]byte(sampleSRT), props.New().With("format", value.String("srt")))
	require.NoError(t, err)
	vttData, _, _ := out.AsSingle()

	toSRT := newVTTToSRT()
	out2, err := toSRT.Convert(vttData, props.New().With("format", value.String("vtt")))
	require.NoError(t, err)
	srtData, p, ok := out2.AsSingle()
	require.True(t, ok)
	got, _ := p.AsStr("format")
	assert.Equal(t, "srt", got)
	assert.Equal(t, sampleSRT, string(srtData))
}

func TestParseSRT_TruncatedCueErrors(t *testing.T) {
	t.Parallel()

	c := newSRTToVTT()
	_, err := c.Convert([]byte("1\n"), props.New().With("format", value.String("srt")))
	assert.Error(t, err)
}

func TestParseVTT_MalformedTimingErrors(t *testing.T) {
	t.Parallel()

	c := newVTTToSRT()
	_, err := c.Convert([]byte("WEBVTT\n\nnot a timing line\n"), props.New().With("format", value.String("vtt")))
	assert.Error(t, err)
}
