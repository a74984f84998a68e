package match

import (
	"fmt"
	"image"
	"math"
	"runtime"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/soocke/pixel-clicker-go/domain/geometry"
	"github.com/soocke/pixel-clicker-go/domain/template"
)

// Result is the best location of a template inside a frame. Location is the
// top-left corner relative to the frame's bounds and Size is the template
// size at Scale.
type Result struct {
	Score           float64
	Location        image.Point
	Scale           float64
	Size            image.Point
	ScalesEvaluated int
}

// Matched reports whether r is a positive match for threshold. Non-finite
// scores never match.
func (r Result) Matched(threshold float64) bool {
	return !math.IsNaN(r.Score) && !math.IsInf(r.Score, 0) && r.Score >= threshold
}

// Options tunes the scan. The zero value is an exhaustive, full-resolution
// search.
type Options struct {
	Stride int  // coarse scan stride in pixels (default 1)
	Refine bool // with Stride>1, rescan the neighbourhood of the best hit at stride 1
	// StopOnThreshold ends the search at the first scale that clears the
	// threshold instead of sweeping every scale. Scales are then evaluated in
	// order on the calling goroutine.
	StopOnThreshold bool
	Parallelism     int // concurrent sweep scales (default runtime.NumCPU)
}

type scaledKey struct {
	tmpl *template.Template
	w, h int
}

// Matcher finds templates in frames. It keeps grayscale statistics for every
// template and scaled size it has seen; like the template cache it never
// evicts.
type Matcher struct {
	opts   Options
	mu     sync.RWMutex
	native map[*template.Template]*templatePrecomp
	scaled map[scaledKey]*templatePrecomp
}

// New returns a Matcher with opts.
func New(opts Options) *Matcher {
	if opts.Stride <= 0 {
		opts.Stride = 1
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.NumCPU()
	}
	return &Matcher{
		opts:   opts,
		native: make(map[*template.Template]*templatePrecomp),
		scaled: make(map[scaledKey]*templatePrecomp),
	}
}

// Match locates tmpl in frame. The template is first matched at its native
// size; when scales is non-nil every scale of the sweep is then tried and the
// strictly best score wins, so ties keep the earlier candidate. A template
// larger than the frame is a geometry error. A result below threshold is not
// an error; use Result.Matched.
func (m *Matcher) Match(frame *image.RGBA, tmpl *template.Template, threshold float64, scales *ScaleRange) (Result, error) {
	if frame == nil || tmpl == nil || tmpl.Image == nil {
		return Result{}, fmt.Errorf("%w: nil frame or template", geometry.ErrGeometry)
	}
	fs, ts := frame.Bounds().Size(), tmpl.Size()
	if ts.X == 0 || ts.Y == 0 || ts.X > fs.X || ts.Y > fs.Y {
		return Result{}, fmt.Errorf("%w: template %q %dx%d does not fit frame %dx%d",
			geometry.ErrGeometry, tmpl.Name, ts.X, ts.Y, fs.X, fs.Y)
	}

	pre := buildGrayPrecomp(frame)
	nr := matchNCC(pre, m.nativePrecomp(tmpl), m.opts.Stride, m.opts.Refine)
	best := Result{Score: nr.Score, Location: image.Pt(nr.X, nr.Y), Scale: 1, Size: ts}
	if scales == nil {
		return best, nil
	}
	if m.opts.StopOnThreshold && best.Matched(threshold) {
		return best, nil
	}

	steps := ScaleSteps(scales.Lo, scales.Hi)
	var swept []Result
	if m.opts.StopOnThreshold {
		swept = m.sweepSequential(pre, tmpl, fs, steps, threshold)
	} else {
		swept = m.sweepParallel(pre, tmpl, fs, steps)
	}
	for _, r := range swept {
		if r.Size == (image.Point{}) {
			continue
		}
		best.ScalesEvaluated++
		if better(r.Score, best.Score) {
			evaluated := best.ScalesEvaluated
			best = r
			best.ScalesEvaluated = evaluated
		}
	}
	return best, nil
}

// sweepParallel evaluates every step concurrently. Results are indexed by
// step so the caller can reduce them in scale order.
func (m *Matcher) sweepParallel(pre *grayPrecomp, tmpl *template.Template, fs image.Point, steps []float64) []Result {
	results := make([]Result, len(steps))
	sem := make(chan struct{}, m.opts.Parallelism)
	var wg sync.WaitGroup
	for i, s := range steps {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, s float64) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = m.evalScale(pre, tmpl, fs, s)
		}(i, s)
	}
	wg.Wait()
	return results
}

func (m *Matcher) sweepSequential(pre *grayPrecomp, tmpl *template.Template, fs image.Point, steps []float64, threshold float64) []Result {
	results := make([]Result, 0, len(steps))
	for _, s := range steps {
		r := m.evalScale(pre, tmpl, fs, s)
		results = append(results, r)
		if r.Size != (image.Point{}) && r.Matched(threshold) {
			break
		}
	}
	return results
}

// evalScale matches tmpl resized by s. A zero Size marks a skipped scale:
// the resized template is under 2px or does not fit the frame.
func (m *Matcher) evalScale(pre *grayPrecomp, tmpl *template.Template, fs image.Point, s float64) Result {
	sz, ok := ScaledSize(tmpl.Size(), s)
	if !ok || sz.X > fs.X || sz.Y > fs.Y {
		return Result{Score: math.NaN(), Scale: s}
	}
	nr := matchNCC(pre, m.scaledPrecomp(tmpl, s, sz), m.opts.Stride, m.opts.Refine)
	return Result{Score: nr.Score, Location: image.Pt(nr.X, nr.Y), Scale: s, Size: sz}
}

func (m *Matcher) nativePrecomp(tmpl *template.Template) *templatePrecomp {
	m.mu.RLock()
	pc := m.native[tmpl]
	m.mu.RUnlock()
	if pc != nil {
		return pc
	}
	pc = buildTemplatePrecomp(tmpl.Image)
	m.mu.Lock()
	// Keep the first insert if another goroutine raced us.
	if existing := m.native[tmpl]; existing != nil {
		pc = existing
	} else {
		m.native[tmpl] = pc
	}
	m.mu.Unlock()
	return pc
}

func (m *Matcher) scaledPrecomp(tmpl *template.Template, s float64, sz image.Point) *templatePrecomp {
	key := scaledKey{tmpl: tmpl, w: sz.X, h: sz.Y}
	m.mu.RLock()
	pc := m.scaled[key]
	m.mu.RUnlock()
	if pc != nil {
		return pc
	}
	pc = buildTemplatePrecomp(ResizeTemplate(tmpl.Image, s, sz))
	m.mu.Lock()
	if existing := m.scaled[key]; existing != nil {
		pc = existing
	} else {
		m.scaled[key] = pc
	}
	m.mu.Unlock()
	return pc
}

// ScaledSize returns the template size at scale s, rounded to the nearest
// pixel. ok is false when either side would be under 2px.
func ScaledSize(size image.Point, s float64) (image.Point, bool) {
	if s <= 0 {
		return image.Point{}, false
	}
	w := int(math.Round(float64(size.X) * s))
	h := int(math.Round(float64(size.Y) * s))
	if w < 2 || h < 2 {
		return image.Point{}, false
	}
	return image.Pt(w, h), true
}

// ResizeTemplate resizes img to sz. Shrinking uses an area (box) filter and
// enlarging uses bilinear interpolation.
func ResizeTemplate(img image.Image, s float64, sz image.Point) image.Image {
	filter := imaging.Linear
	if s < 1 {
		filter = imaging.Box
	}
	return imaging.Resize(img, sz.X, sz.Y, filter)
}
