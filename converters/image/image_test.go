package image

import (
	"bytes"
	stdimage "image"
	"image/color"
	"image/png"
	"testing"

	"github.com/carlodf/morphetl/props"
	"github.com/carlodf/morphetl/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleImage() *stdimage.RGBA {
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 0, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img stdimage.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPNGToJPEG_SetsDimensions(t *testing.T) {
	t.Parallel()

	c := newImageConverter("png", "jpeg")
	data := encodePNG(t, sampleImage())

	out, err := c.Convert(data, props.New().With("format", value.String("png")))
	require.NoError(t, err)

	_, p, ok := out.AsSingle()
	require.True(t, ok)
	got, _ := p.AsStr("format")
	assert.Equal(t, "jpeg", got)
	w, _ := p.AsI64("width")
	h, _ := p.AsI64("height")
	assert.Equal(t, int64(4), w)
	assert.Equal(t, int64(3), h)
}

func TestPNGToGIFToPNG_RoundTrips(t *testing.T) {
	t.Parallel()

	toGIF := newImageConverter("png", "gif")
	data := encodePNG(t, sampleImage())
	out, err := toGIF.Convert(data, props.New().With("format", value.String("png")))
	require.NoError(t, err)
	gifData, _, _ := out.AsSingle()

	toPNG := newImageConverter("gif", "png")
	out2, err := toPNG.Convert(gifData, props.New().With("format", value.String("gif")))
	require.NoError(t, err)
	pngData, p, ok := out2.AsSingle()
	require.True(t, ok)
	got, _ := p.AsStr("format")
	assert.Equal(t, "png", got)
	assert.NotEmpty(t, pngData)
}

func TestConvert_MalformedInput(t *testing.T) {
	t.Parallel()

	c := newImageConverter("png", "jpeg")
	_, err := c.Convert([]byte("not a png"), props.New().With("format", value.String("png")))
	assert.Error(t, err)
}

func TestConvert_CostHintIsAboveDefault(t *testing.T) {
	t.Parallel()

	c := newImageConverter("png", "jpeg")
	assert.Equal(t, 2.0, c.Decl().EffectiveCost())
}
