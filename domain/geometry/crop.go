package geometry

import (
	"fmt"
	"math"
)

const ratioEpsilon = 1e-9

// CropRatio describes a sub-rectangle as fractions of a window's width and
// height. All components lie in [0, 1].
type CropRatio struct {
	X float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y float64 `json:"y" yaml:"y" mapstructure:"y"`
	W float64 `json:"w" yaml:"w" mapstructure:"w"`
	H float64 `json:"h" yaml:"h" mapstructure:"h"`
}

// FullFrame covers the whole window.
var FullFrame = CropRatio{X: 0, Y: 0, W: 1, H: 1}

// Validate rejects components outside [0, 1] and rectangles that extend past
// the far edge.
func (c CropRatio) Validate() error {
	for _, v := range []float64{c.X, c.Y, c.W, c.H} {
		if math.IsNaN(v) || v < -ratioEpsilon || v > 1+ratioEpsilon {
			return fmt.Errorf("%w: crop ratio %+v out of range", ErrGeometry, c)
		}
	}
	if c.X+c.W > 1+ratioEpsilon || c.Y+c.H > 1+ratioEpsilon {
		return fmt.Errorf("%w: crop ratio %+v exceeds window", ErrGeometry, c)
	}
	return nil
}

// ToRegion resolves c against a width x height window. Offsets and sizes are
// truncated toward zero; products within 1e-9 of an integer snap to it so
// that ratios produced by RatioOf come back exactly.
func (c CropRatio) ToRegion(width, height int) Region {
	return Region{
		X:      truncate(c.X * float64(width)),
		Y:      truncate(c.Y * float64(height)),
		Width:  truncate(c.W * float64(width)),
		Height: truncate(c.H * float64(height)),
	}
}

func truncate(v float64) int {
	return int(v + ratioEpsilon)
}

// RatioOf is the inverse of ToRegion: it expresses r as fractions of a
// width x height window.
func RatioOf(r Region, width, height int) CropRatio {
	if width <= 0 || height <= 0 {
		return CropRatio{}
	}
	w, h := float64(width), float64(height)
	return CropRatio{X: float64(r.X) / w, Y: float64(r.Y) / h, W: float64(r.Width) / w, H: float64(r.Height) / h}
}
