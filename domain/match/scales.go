package match

import "math"

const (
	// ScaleStep is the increment between sweep scales.
	ScaleStep = 0.05
	// scaleTolerance admits the upper bound despite float drift.
	scaleTolerance = 1e-4
	maxScaleSteps  = 200
)

// ScaleRange bounds a scale sweep. Lo > Hi yields no steps.
type ScaleRange struct {
	Lo float64 `json:"lo" yaml:"lo" mapstructure:"lo"`
	Hi float64 `json:"hi" yaml:"hi" mapstructure:"hi"`
}

// ScaleSteps lists Lo, Lo+0.05, ... while the step stays below Hi+1e-4.
// Each step is computed from Lo directly so error does not accumulate.
// Non-positive scales are dropped.
func ScaleSteps(lo, hi float64) []float64 {
	if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
		return nil
	}
	var steps []float64
	for i := 0; i < maxScaleSteps; i++ {
		s := lo + float64(i)*ScaleStep
		if s >= hi+scaleTolerance {
			break
		}
		if s <= 0 {
			continue
		}
		steps = append(steps, s)
	}
	return steps
}

// AutoScaleRange derives a sweep around the ratio between a window width and
// the reference width, rounded to one decimal. Windows wider than the
// reference are normalized down before matching, so the ratio saturates at 1.
func AutoScaleRange(windowWidth, referenceWidth int) ScaleRange {
	if windowWidth <= 0 || referenceWidth <= 0 {
		return ScaleRange{Lo: 1, Hi: 1}
	}
	s := float64(min(windowWidth, referenceWidth)) / float64(referenceWidth)
	return ScaleRange{Lo: round1(s - ScaleStep), Hi: round1(s + ScaleStep)}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
