package template

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode reports template bytes that could not be decoded into an image.
var ErrDecode = errors.New("template decode error")

// Template is a decoded reference image. It is immutable once built and may
// be shared between goroutines.
type Template struct {
	Name  string
	Image *image.RGBA
}

// Size returns the template width and height.
func (t *Template) Size() image.Point {
	if t == nil || t.Image == nil {
		return image.Point{}
	}
	return t.Image.Bounds().Size()
}

// New wraps an already decoded image, copying it into a zero-origin RGBA buffer.
func New(name string, img image.Image) *Template {
	return &Template{Name: name, Image: toRGBA(img)}
}

// Decoder turns raw bytes into an image.
type Decoder interface {
	Decode(raw []byte) (image.Image, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(raw []byte) (image.Image, error)

func (f DecoderFunc) Decode(raw []byte) (image.Image, error) { return f(raw) }

// StdDecoder decodes any format registered with the image package: PNG,
// JPEG, GIF, BMP, TIFF and WebP.
var StdDecoder Decoder = DecoderFunc(func(raw []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	return img, err
})

func decode(d Decoder, name string, raw []byte) (*Template, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s: empty input", ErrDecode, name)
	}
	img, err := d.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, name, err)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %s: empty image", ErrDecode, name)
	}
	return New(name, img), nil
}

func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
