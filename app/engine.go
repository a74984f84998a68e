package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/soocke/pixel-clicker-go/config"
	"github.com/soocke/pixel-clicker-go/domain/action"
	"github.com/soocke/pixel-clicker-go/domain/capture"
	"github.com/soocke/pixel-clicker-go/domain/geometry"
	"github.com/soocke/pixel-clicker-go/domain/match"
	"github.com/soocke/pixel-clicker-go/domain/template"
	"github.com/soocke/pixel-clicker-go/domain/window"
)

// ErrNoFrame is returned by FindElement before any screenshot was taken.
var ErrNoFrame = fmt.Errorf("%w: no screenshot taken", geometry.ErrGeometry)

// Engine ties window lookup, capture, matching and input together. It keeps
// the most recent normalized screenshot so FindElement and ClickElement can
// run against it.
type Engine struct {
	cfg     *config.Config
	logger  *slog.Logger
	dir     window.Directory
	capture *capture.Service
	cache   *template.Cache
	matcher *match.Matcher
	clicker *action.Clicker

	frame  atomic.Pointer[capture.Frame]
	window atomic.Pointer[window.Handle]

	searches atomic.Uint64
	matches  atomic.Uint64
	clicks   atomic.Uint64

	// wait blocks for d or until ctx is done.
	wait func(ctx context.Context, d time.Duration) error
	now  func() time.Time
}

// EngineStats is a snapshot of engine counters.
type EngineStats struct {
	Searches uint64
	Matches  uint64
	Clicks   uint64
	Capture  capture.Stats
	Cache    template.CacheStats
}

// NewEngine wires the engine from its collaborators. A nil cache or matcher
// is created from cfg.
func NewEngine(cfg *config.Config, logger *slog.Logger, dir window.Directory, svc *capture.Service, cache *template.Cache, matcher *match.Matcher, clicker *action.Clicker) *Engine {
	if cache == nil {
		cache = template.NewCache(nil)
	}
	if matcher == nil {
		matcher = match.New(match.Options{
			Stride:          cfg.Stride,
			Refine:          cfg.Refine,
			StopOnThreshold: cfg.StopOnThreshold,
		})
	}
	return &Engine{
		cfg:     cfg,
		logger:  logger,
		dir:     dir,
		capture: svc,
		cache:   cache,
		matcher: matcher,
		clicker: clicker,
		wait:    sleepContext,
		now:     time.Now,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Window looks up the configured window. A missing window is reported as
// ok == false with a nil error.
func (e *Engine) Window() (window.Handle, bool, error) {
	h, ok, err := window.Find(e.dir, e.cfg.Window)
	if err != nil {
		return window.Handle{}, false, err
	}
	if !ok {
		e.window.Store(nil)
		return window.Handle{}, false, nil
	}
	e.window.Store(&h)
	return h, true, nil
}

// LastWindow returns the handle seen by the last successful Window call.
func (e *Engine) LastWindow() (window.Handle, bool) {
	h := e.window.Load()
	if h == nil {
		return window.Handle{}, false
	}
	return *h, true
}

// TakeScreenshot captures the configured window, applies crop and stores
// the normalized frame. It returns false when the window does not exist.
func (e *Engine) TakeScreenshot(ctx context.Context, crop *geometry.CropRatio) (bool, error) {
	h, ok, err := e.Window()
	if err != nil || !ok {
		return false, err
	}
	raw, err := e.captureWithBudget(ctx, h)
	if err != nil {
		return true, err
	}
	f, err := capture.NormalizeFrame(raw, crop, e.cfg.ReferenceWidth)
	if err != nil {
		return true, err
	}
	e.frame.Store(f)
	return true, nil
}

// Frame returns the stored normalized screenshot, or nil.
func (e *Engine) Frame() *capture.Frame { return e.frame.Load() }

// FindElement matches t against the stored screenshot. A nil box with a nil
// error means the target is not visible.
func (e *Engine) FindElement(t Target) (*geometry.Box, match.Result, error) {
	f := e.frame.Load()
	if f == nil {
		return nil, match.Result{}, ErrNoFrame
	}
	return e.findIn(f, t)
}

// ClickElement finds t in the stored screenshot and clicks its center. It
// reports whether the target was found.
func (e *Engine) ClickElement(t Target) (bool, error) {
	box, _, err := e.FindElement(t)
	if err != nil || box == nil {
		return false, err
	}
	if err := e.ClickBox(*box, t); err != nil {
		return true, err
	}
	return true, nil
}

// Stats returns engine, capture and cache counters.
func (e *Engine) Stats() EngineStats {
	st := EngineStats{
		Searches: e.searches.Load(),
		Matches:  e.matches.Load(),
		Clicks:   e.clicks.Load(),
		Cache:    e.cache.Stats(),
	}
	if e.capture != nil {
		st.Capture = e.capture.Stats()
	}
	return st
}

func (e *Engine) findIn(f *capture.Frame, t Target) (*geometry.Box, match.Result, error) {
	tmpl, err := e.cache.GetOrLoad(t.Name, t.Path)
	if err != nil {
		return nil, match.Result{}, err
	}
	threshold := t.threshold(e.cfg.Threshold)
	winWidth := f.Origin.Width
	if h, ok := e.LastWindow(); ok {
		winWidth = h.Width
	}
	e.searches.Add(1)
	res, err := e.matcher.Match(f.Image, tmpl, threshold, t.scaleRange(winWidth, e.cfg.ReferenceWidth))
	if err != nil {
		return nil, res, fmt.Errorf("match %s: %w", t.Name, err)
	}
	if e.logger != nil {
		e.logger.Debug("match.result",
			"target", t.Name,
			"score", res.Score,
			"scale", res.Scale,
			"scales_evaluated", res.ScalesEvaluated,
		)
	}
	if !res.Matched(threshold) {
		return nil, res, nil
	}
	box, err := match.LocateResult(res, f.Scale, f.Origin)
	if err != nil {
		return nil, res, err
	}
	e.matches.Add(1)
	return &box, res, nil
}

// ClickBox clicks the center of a box already located for t, using the
// target's button and click count.
func (e *Engine) ClickBox(box geometry.Box, t Target) error {
	if e.clicker == nil {
		return action.ErrUnsupported
	}
	for i := 0; i < t.Clicks; i++ {
		if err := e.clicker.ClickBox(box, t.button); err != nil {
			return err
		}
		e.clicks.Add(1)
	}
	return nil
}

// clickPointer clicks t.Clicks times at the pointer, spaced by the click
// interval, stopping as soon as the pointer leaves h.
func (e *Engine) clickPointer(ctx context.Context, h window.Handle, t Target) error {
	if e.clicker == nil {
		return action.ErrUnsupported
	}
	interval := time.Duration(e.cfg.ClickIntervalMs) * time.Millisecond
	for i := 0; i < t.Clicks; i++ {
		if i > 0 {
			if err := e.wait(ctx, interval); err != nil {
				return err
			}
		}
		if _, err := e.clicker.ClickInside(h.Region(), t.button); err != nil {
			return err
		}
		e.clicks.Add(1)
	}
	return nil
}

// captureWithBudget retries capture errors with a fixed backoff until the
// configured budget runs out. Other failures return immediately.
func (e *Engine) captureWithBudget(ctx context.Context, h window.Handle) (*capture.Frame, error) {
	budget := time.Duration(e.cfg.CaptureBudgetMs) * time.Millisecond
	backoff := time.Duration(e.cfg.CaptureBackoffMs) * time.Millisecond
	deadline := e.now().Add(budget)
	attempts := 0
	for {
		attempts++
		f, err := e.capture.Capture(h)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, capture.ErrCapture) || errors.Is(err, capture.ErrUnsupported) {
			return nil, err
		}
		if e.now().Add(backoff).After(deadline) {
			return nil, fmt.Errorf("capture %q after %d attempts: %w", h.Title, attempts, err)
		}
		if e.logger != nil {
			e.logger.Debug("capture.retry", "window", h.Title, "attempt", attempts, "error", err)
		}
		if werr := e.wait(ctx, backoff); werr != nil {
			return nil, werr
		}
	}
}
