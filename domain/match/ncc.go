package match

import (
	"image"
	"math"
)

// Luma weights (Rec. 709) applied to 8-bit channels.
const (
	lumaR = 0.2126
	lumaG = 0.7152
	lumaB = 0.0722
)

// grayPrecomp stores per-frame grayscale values and their summed-area tables
// (integral images). The integrals allow O(1) window sum and variance queries.
type grayPrecomp struct {
	gray       []float64 // per pixel grayscale (length W*H)
	integral   []float64 // summed-area table of grayscale
	integralSq []float64 // summed-area table of grayscale squared
	W, H       int
}

// templatePrecomp caches grayscale pixels and summary statistics for a
// template (or a scaled version of it).
type templatePrecomp struct {
	gray  []float32
	W, H  int
	meanT float64
	stdT  float64
}

// flat reports a template with no intensity variation. NCC is undefined for it.
func (pc *templatePrecomp) flat() bool { return pc.stdT <= 1e-9 }

// buildGrayPrecomp computes per-pixel grayscale values and their summed-area
// tables for a frame, reading the RGBA buffer directly.
func buildGrayPrecomp(frame *image.RGBA) *grayPrecomp {
	if frame == nil {
		return nil
	}
	b := frame.Bounds()
	W, H := b.Dx(), b.Dy()
	need := W * H
	p := &grayPrecomp{
		gray:       make([]float64, need),
		integral:   make([]float64, need),
		integralSq: make([]float64, need),
		W:          W,
		H:          H,
	}
	for y := 0; y < H; y++ {
		row := frame.Pix[y*frame.Stride : y*frame.Stride+W*4]
		var rowSum, rowSum2 float64
		for x := 0; x < W; x++ {
			px := row[x*4 : x*4+4 : x*4+4]
			gray := lumaR*float64(px[0]) + lumaG*float64(px[1]) + lumaB*float64(px[2])
			off := y*W + x
			p.gray[off] = gray
			rowSum += gray
			rowSum2 += gray * gray
			if y == 0 {
				p.integral[off] = rowSum
				p.integralSq[off] = rowSum2
			} else {
				p.integral[off] = p.integral[(y-1)*W+x] + rowSum
				p.integralSq[off] = p.integralSq[(y-1)*W+x] + rowSum2
			}
		}
	}
	return p
}

// buildTemplatePrecomp converts img to grayscale and records its mean and
// standard deviation.
func buildTemplatePrecomp(img image.Image) *templatePrecomp {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}
	gray := make([]float32, w*h)
	var sumT, sumT2 float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			gval := lumaR*float64(r>>8) + lumaG*float64(g>>8) + lumaB*float64(bb>>8)
			gray[y*w+x] = float32(gval)
			sumT += gval
			sumT2 += gval * gval
		}
	}
	n := float64(w * h)
	meanT := sumT / n
	varT := (sumT2 - sumT*sumT/n) / n
	stdT := 0.0
	if varT > 0 {
		stdT = math.Sqrt(varT)
	}
	return &templatePrecomp{gray: gray, W: w, H: h, meanT: meanT, stdT: stdT}
}

// nccResult is the best window found by a single-scale scan. Score is NaN
// when no window had a defined correlation.
type nccResult struct {
	X, Y  int
	Score float64
}

// matchNCC computes normalized cross-correlation (TM_CCOEFF_NORMED) of pc
// against every window of pre and returns the global maximum. Windows with
// no variance are undefined and never win. The caller guarantees the
// template fits inside the frame.
func matchNCC(pre *grayPrecomp, pc *templatePrecomp, stride int, refine bool) nccResult {
	best := nccResult{Score: math.NaN()}
	if pre == nil || pc == nil || pc.flat() || pc.W > pre.W || pc.H > pre.H {
		return best
	}
	if stride <= 0 {
		stride = 1
	}
	scan := func(minX, minY, maxX, maxY, step int) {
		for y := minY; y <= maxY; y += step {
			for x := minX; x <= maxX; x += step {
				score := windowScore(pre, pc, x, y)
				if better(score, best.Score) {
					best = nccResult{X: x, Y: y, Score: score}
				}
			}
		}
	}
	scan(0, 0, pre.W-pc.W, pre.H-pc.H, stride)
	if refine && stride > 1 && !math.IsNaN(best.Score) {
		scan(max(0, best.X-stride), max(0, best.Y-stride),
			min(pre.W-pc.W, best.X+stride), min(pre.H-pc.H, best.Y+stride), 1)
	}
	return best
}

// windowScore returns the NCC of pc placed at (x, y), or NaN if the frame
// window is flat.
func windowScore(pre *grayPrecomp, pc *templatePrecomp, x, y int) float64 {
	w, h := pc.W, pc.H
	n := float64(w * h)
	sumF := integralSum(pre.integral, pre.W, x, y, x+w-1, y+h-1)
	sumF2 := integralSum(pre.integralSq, pre.W, x, y, x+w-1, y+h-1)
	meanF := sumF / n
	varF := (sumF2 - sumF*sumF/n) / n
	// Integral differences lose precision on bright frames; scale the
	// flatness guard with the window mean.
	if varF <= 1e-9*(1+meanF*meanF) {
		return math.NaN()
	}
	stdF := math.Sqrt(varF)
	var sumFT float64
	for py := 0; py < h; py++ {
		frow := pre.gray[(y+py)*pre.W+x : (y+py)*pre.W+x+w]
		trow := pc.gray[py*w : py*w+w]
		for px, t := range trow {
			sumFT += frow[px] * float64(t)
		}
	}
	score := (sumFT - n*meanF*pc.meanT) / (n * stdF * pc.stdT)
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}
	return score
}

// better reports whether a beats b. NaN never beats anything and anything
// finite beats NaN. Equal scores keep b.
func better(a, b float64) bool {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return false
	}
	return math.IsNaN(b) || a > b
}

// integralSum returns the inclusive sum over rectangle [x0..x1] x [y0..y1]
// from an integral image stored in row-major order with width W.
func integralSum(I []float64, W int, x0, y0, x1, y1 int) float64 {
	if x0 > x1 || y0 > y1 {
		return 0
	}
	A := func(x, y int) float64 {
		if x < 0 || y < 0 {
			return 0
		}
		return I[y*W+x]
	}
	return A(x1, y1) - A(x0-1, y1) - A(x1, y0-1) + A(x0-1, y0-1)
}
