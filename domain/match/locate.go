package match

import (
	"fmt"
	"image"

	"github.com/soocke/pixel-clicker-go/domain/geometry"
)

// Locate maps a frame-space match back to screen space. The frame was
// produced at scale from a region whose screen-space top-left is origin.
// Both corners are truncated toward zero:
//
//	top_left     = int(location / scale) + origin
//	bottom_right = top_left + int(size / scale)
func Locate(location, size image.Point, scale float64, origin geometry.Region) (geometry.Box, error) {
	if scale <= 0 {
		return geometry.Box{}, fmt.Errorf("%w: scale %v", geometry.ErrGeometry, scale)
	}
	tl := geometry.Point{
		X: int(float64(location.X)/scale) + origin.X,
		Y: int(float64(location.Y)/scale) + origin.Y,
	}
	return geometry.Box{
		TopLeft: tl,
		BottomRight: geometry.Point{
			X: tl.X + int(float64(size.X)/scale),
			Y: tl.Y + int(float64(size.Y)/scale),
		},
	}, nil
}

// LocateResult is Locate for a Result matched inside a frame normalized at
// frameScale.
func LocateResult(r Result, frameScale float64, origin geometry.Region) (geometry.Box, error) {
	return Locate(r.Location, r.Size, frameScale, origin)
}
