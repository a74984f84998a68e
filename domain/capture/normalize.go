package capture

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/soocke/pixel-clicker-go/domain/geometry"
)

// ReferenceWidth is the width templates are authored at. Wider windows are
// scaled down to it before matching.
const ReferenceWidth = 1920

// Normalize crops img (the capture of window, in the window's pixel space)
// and scales the crop down when the window is wider than referenceWidth.
// The crop is resolved against the window size and clamped to the buffer.
// The returned frame's Origin is the crop's screen-space region before
// scaling, which is what Locate needs to map matches back.
func Normalize(img *image.RGBA, crop *geometry.CropRatio, win geometry.Region, referenceWidth int) (*Frame, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", geometry.ErrGeometry)
	}
	if referenceWidth <= 0 {
		referenceWidth = ReferenceWidth
	}
	b := img.Bounds()
	cr := geometry.Region{Width: b.Dx(), Height: b.Dy()}
	if crop != nil {
		if err := crop.Validate(); err != nil {
			return nil, err
		}
		cr = crop.ToRegion(win.Width, win.Height)
	}
	rect := cr.Rect().Add(b.Min).Intersect(b)
	if rect.Empty() {
		return nil, fmt.Errorf("%w: crop %v outside %dx%d capture", geometry.ErrGeometry, cr, b.Dx(), b.Dy())
	}
	cr = geometry.RegionOf(rect.Sub(b.Min))

	origin := cr.Translate(win.X, win.Y)
	if win.Width <= referenceWidth {
		return &Frame{Image: copyRGBA(img, rect), Scale: 1, Origin: origin}, nil
	}
	scale := float64(referenceWidth) / float64(win.Width)
	dw := max(1, int(math.Round(float64(cr.Width)*scale)))
	dh := max(1, int(math.Round(float64(cr.Height)*scale)))
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, rect, draw.Src, nil)
	return &Frame{Image: dst, Scale: scale, Origin: origin}, nil
}

// NormalizeFrame is Normalize for a raw capture whose Origin is the window's
// client region.
func NormalizeFrame(f *Frame, crop *geometry.CropRatio, referenceWidth int) (*Frame, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil frame", geometry.ErrGeometry)
	}
	out, err := Normalize(f.Image, crop, f.Origin, referenceWidth)
	if err != nil {
		return nil, err
	}
	out.CapturedAt = f.CapturedAt
	return out, nil
}

func copyRGBA(src *image.RGBA, r image.Rectangle) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)
	return dst
}
