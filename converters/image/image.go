// Package image registers converters between raster image formats. PNG,
// JPEG, and GIF round-trip both ways through the standard library's
// image codecs; BMP and TIFF are decode-only (golang.org/x/image has no
// encoder for either), so those two converters only ever run one way,
// into PNG.
package image

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/carlodf/morphetl/converter"
	"github.com/carlodf/morphetl/pattern"
	"github.com/carlodf/morphetl/props"
	"github.com/carlodf/morphetl/value"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// RegisterAll registers every image converter with r.
func RegisterAll(r interface {
	MustRegister(c converter.Converter)
}) {
	roundTrip := []string{"png", "jpeg", "gif"}
	for _, from := range roundTrip {
		for _, to := range roundTrip {
			if from == to {
				continue
			}
			r.MustRegister(newImageConverter(from, to))
		}
	}
	r.MustRegister(newImageConverter("bmp", "png"))
	r.MustRegister(newImageConverter("tiff", "png"))
}

type imageDecodeFunc func([]byte) (image.Image, error)
type imageEncodeFunc func(image.Image) ([]byte, error)

var imageDecoders = map[string]imageDecodeFunc{
	"png":  func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) },
	"jpeg": func(b []byte) (image.Image, error) { return jpeg.Decode(bytes.NewReader(b)) },
	"gif":  func(b []byte) (image.Image, error) { return gif.Decode(bytes.NewReader(b)) },
	"bmp":  func(b []byte) (image.Image, error) { return bmp.Decode(bytes.NewReader(b)) },
	"tiff": func(b []byte) (image.Image, error) { return tiff.Decode(bytes.NewReader(b)) },
}

var imageEncoders = map[string]imageEncodeFunc{
	"png": func(img image.Image) ([]byte, error) {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	},
	"jpeg": func(img image.Image) ([]byte, error) {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	},
	"gif": func(img image.Image) ([]byte, error) {
		var buf bytes.Buffer
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	},
}

// imageConverter decodes one raster format and re-encodes in another.
type imageConverter struct {
	decl     converter.ConverterDecl
	from, to string
}

func newImageConverter(from, to string) *imageConverter {
	decl := converter.Simple(
		fmt.Sprintf("image.%s-to-%s", from, to),
		pattern.New().EqStr("format", from),
		pattern.New().EqStr("format", to),
	).WithDescription(fmt.Sprintf("%s to %s", from, to)).WithCost(2.0)
	return &imageConverter{decl: decl, from: from, to: to}
}

func (c *imageConverter) Decl() converter.ConverterDecl { return c.decl }

func (c *imageConverter) Convert(data []byte, p props.Properties) (converter.ConvertOutput, error) {
	decode, ok := imageDecoders[c.from]
	if !ok {
		return converter.ConvertOutput{}, converter.NewUnsupported(fmt.Sprintf("no decoder for %s", c.from))
	}
	encode, ok := imageEncoders[c.to]
	if !ok {
		return converter.ConvertOutput{}, converter.NewUnsupported(fmt.Sprintf("no encoder for %s", c.to))
	}

	img, err := decode(data)
	if err != nil {
		return converter.ConvertOutput{}, converter.NewInvalidInput(fmt.Sprintf("decoding %s", c.from), err)
	}

	out, err := encode(img)
	if err != nil {
		return converter.ConvertOutput{}, converter.NewFailed(fmt.Sprintf("encoding %s", c.to), err)
	}

	bounds := img.Bounds()
	outProps := p.With("format", value.String(c.to)).
		With("width", value.Int(int64(bounds.Dx()))).
		With("height", value.Int(int64(bounds.Dy())))

	return converter.Single(out, outProps), nil
}
