package geometry

import (
	"errors"
	"fmt"
	"image"
)

// ErrGeometry reports an impossible geometric request, such as a template
// larger than the frame it is matched against or a non-positive scale.
var ErrGeometry = errors.New("geometry error")

// Region is an axis-aligned rectangle in pixel units. Whether it lives in
// screen space or frame space is up to the caller.
type Region struct {
	X, Y          int
	Width, Height int
}

// Rect converts r to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Empty reports whether r has no area.
func (r Region) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Contains reports whether p lies inside r. The right and bottom edges are
// inclusive, matching how window rectangles are reported by the OS.
func (r Region) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Translate returns r moved by (dx, dy).
func (r Region) Translate(dx, dy int) Region {
	return Region{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

func (r Region) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// RegionOf converts an image.Rectangle to a Region.
func RegionOf(rect image.Rectangle) Region {
	return Region{X: rect.Min.X, Y: rect.Min.Y, Width: rect.Dx(), Height: rect.Dy()}
}

// Point is a pixel position in screen space.
type Point struct {
	X, Y int
}

// Box is the screen-space rectangle of a located element.
type Box struct {
	TopLeft     Point
	BottomRight Point
}

// Center returns the integer midpoint of b.
func (b Box) Center() Point {
	return Point{X: (b.TopLeft.X + b.BottomRight.X) / 2, Y: (b.TopLeft.Y + b.BottomRight.Y) / 2}
}

// Region returns b as a Region.
func (b Box) Region() Region {
	return Region{X: b.TopLeft.X, Y: b.TopLeft.Y, Width: b.BottomRight.X - b.TopLeft.X, Height: b.BottomRight.Y - b.TopLeft.Y}
}
