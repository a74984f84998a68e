package match

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand"
	"testing"

	"github.com/soocke/pixel-clicker-go/domain/geometry"
	"github.com/soocke/pixel-clicker-go/domain/template"
)

// noiseImage returns a deterministic textured image.
func noiseImage(w, h int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(rng.Intn(256))
			img.SetRGBA(x, y, color.RGBA{v, uint8(rng.Intn(256)), v / 2, 0xFF})
		}
	}
	return img
}

// blockImage returns an image of random 4x4 blocks, which survives resizing
// better than per-pixel noise.
func blockImage(w, h int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for by := 0; by < h; by += 4 {
		for bx := 0; bx < w; bx += 4 {
			c := color.RGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 0xFF}
			draw.Draw(img, image.Rect(bx, by, bx+4, by+4), &image.Uniform{C: c}, image.Point{}, draw.Src)
		}
	}
	return img
}

func paste(dst *image.RGBA, src image.Image, at image.Point) {
	r := image.Rectangle{Min: at, Max: at.Add(src.Bounds().Size())}
	draw.Draw(dst, r, src, src.Bounds().Min, draw.Src)
}

func TestMatch_UnscaledPaste(t *testing.T) {
	frame := noiseImage(160, 120, 1)
	tm := template.New("t", blockImage(24, 20, 2))
	paste(frame, tm.Image, image.Pt(37, 58))

	r, err := New(Options{}).Match(frame, tm, 0.99, nil)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if !r.Matched(0.99) {
		t.Fatalf("expected match, score %v", r.Score)
	}
	if r.Location != image.Pt(37, 58) {
		t.Fatalf("expected location (37,58), got %v", r.Location)
	}
	if r.Scale != 1 || r.Size != image.Pt(24, 20) {
		t.Fatalf("unexpected scale/size %v %v", r.Scale, r.Size)
	}
	if r.ScalesEvaluated != 0 {
		t.Fatalf("no sweep expected, got %d", r.ScalesEvaluated)
	}
}

func TestMatch_ScaledPaste(t *testing.T) {
	base := blockImage(40, 40, 3)
	tm := template.New("t", base)
	for _, s := range []float64{0.8, 1.0, 1.2} {
		frame := noiseImage(200, 150, 4)
		sz, ok := ScaledSize(tm.Size(), s)
		if !ok {
			t.Fatalf("scale %v unusable", s)
		}
		paste(frame, ResizeTemplate(base, s, sz), image.Pt(70, 45))

		r, err := New(Options{}).Match(frame, tm, 0.95, &ScaleRange{Lo: s - 0.05, Hi: s + 0.05})
		if err != nil {
			t.Fatalf("scale %v: %v", s, err)
		}
		if !r.Matched(0.95) {
			t.Fatalf("scale %v: expected match, best score %v at scale %v", s, r.Score, r.Scale)
		}
		if r.Location != image.Pt(70, 45) {
			t.Fatalf("scale %v: expected location (70,45), got %v", s, r.Location)
		}
		if math.Abs(r.Scale-s) > 0.051 {
			t.Fatalf("scale %v: matched at %v", s, r.Scale)
		}
	}
}

func TestMatch_SweepIsExhaustiveByDefault(t *testing.T) {
	frame := noiseImage(120, 120, 5)
	tm := template.New("t", blockImage(20, 20, 6))
	paste(frame, tm.Image, image.Pt(10, 10))

	r, err := New(Options{}).Match(frame, tm, 0.9, &ScaleRange{Lo: 0.9, Hi: 1.1})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if r.ScalesEvaluated != 5 {
		t.Fatalf("expected 5 sweep steps, got %d", r.ScalesEvaluated)
	}
	if !r.Matched(0.9) || r.Location != image.Pt(10, 10) {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestMatch_StopOnThresholdSkipsSweep(t *testing.T) {
	frame := noiseImage(120, 120, 7)
	tm := template.New("t", blockImage(20, 20, 8))
	paste(frame, tm.Image, image.Pt(50, 30))

	r, err := New(Options{StopOnThreshold: true}).Match(frame, tm, 0.9, &ScaleRange{Lo: 0.9, Hi: 1.1})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if r.ScalesEvaluated != 0 || r.Scale != 1 {
		t.Fatalf("expected native short-circuit, got %+v", r)
	}
}

func TestMatch_BlackFrameNeverMatches(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for i := 3; i < len(frame.Pix); i += 4 {
		frame.Pix[i] = 0xFF
	}
	tm := template.New("t", blockImage(16, 16, 9))
	r, err := New(Options{}).Match(frame, tm, 0.0, &ScaleRange{Lo: 0.9, Hi: 1.1})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if r.Matched(0) || r.Matched(-1) {
		t.Fatalf("flat frame must not match, score %v", r.Score)
	}
	if !math.IsNaN(r.Score) {
		t.Fatalf("expected NaN score, got %v", r.Score)
	}
}

func TestMatch_FlatTemplateNeverMatches(t *testing.T) {
	frame := noiseImage(64, 64, 10)
	flat := image.NewRGBA(image.Rect(0, 0, 8, 8))
	draw.Draw(flat, flat.Bounds(), &image.Uniform{C: color.RGBA{200, 10, 10, 0xFF}}, image.Point{}, draw.Src)
	r, err := New(Options{}).Match(frame, template.New("flat", flat), 0.5, nil)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if r.Matched(-1) {
		t.Fatalf("flat template must not match, score %v", r.Score)
	}
}

func TestMatch_TemplateLargerThanFrame(t *testing.T) {
	frame := noiseImage(30, 30, 11)
	tm := template.New("big", blockImage(40, 20, 12))
	if _, err := New(Options{}).Match(frame, tm, 0.9, nil); !errors.Is(err, geometry.ErrGeometry) {
		t.Fatalf("expected geometry error, got %v", err)
	}
	if _, err := New(Options{}).Match(nil, tm, 0.9, nil); !errors.Is(err, geometry.ErrGeometry) {
		t.Fatalf("expected geometry error for nil frame, got %v", err)
	}
}

func TestMatch_SweepSkipsScalesThatDoNotFit(t *testing.T) {
	frame := noiseImage(42, 42, 13)
	tm := template.New("t", blockImage(40, 40, 14))
	paste(frame, tm.Image, image.Pt(1, 1))
	r, err := New(Options{}).Match(frame, tm, 0.9, &ScaleRange{Lo: 0.9, Hi: 1.1})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	// 1.05 and 1.1 produce 42x42 and 44x44; only the latter is too big.
	if r.ScalesEvaluated != 4 {
		t.Fatalf("expected 4 evaluated scales, got %d", r.ScalesEvaluated)
	}
}

func TestMatch_StrideWithRefine(t *testing.T) {
	frame := noiseImage(160, 120, 15)
	tm := template.New("t", blockImage(24, 24, 16))
	paste(frame, tm.Image, image.Pt(41, 23))
	r, err := New(Options{Stride: 4, Refine: true}).Match(frame, tm, 0.99, nil)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if !r.Matched(0.99) || r.Location != image.Pt(41, 23) {
		t.Fatalf("refine missed target: %+v", r)
	}
}

func TestBetter(t *testing.T) {
	nan := math.NaN()
	cases := []struct {
		a, b float64
		want bool
	}{
		{0.5, nan, true},
		{nan, 0.5, false},
		{nan, nan, false},
		{0.5, 0.5, false},
		{0.6, 0.5, true},
		{math.Inf(1), 0.5, false},
	}
	for _, c := range cases {
		if got := better(c.a, c.b); got != c.want {
			t.Fatalf("better(%v,%v)=%v want %v", c.a, c.b, got, c.want)
		}
	}
}
