package app

import (
	"context"
	"image"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/soocke/pixel-clicker-go/config"
	"github.com/soocke/pixel-clicker-go/domain/action"
	"github.com/soocke/pixel-clicker-go/domain/capture"
	"github.com/soocke/pixel-clicker-go/domain/window"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noiseImage(w, h int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		v := uint8(rng.Intn(256))
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 255
	}
	return img
}

// subImage copies r out of src into a zero-origin image.
func subImage(src *image.RGBA, r image.Rectangle) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)
	return dst
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}

type fakeDirectory struct {
	mu      sync.Mutex
	handles []window.Handle
	err     error
}

func (d *fakeDirectory) List() ([]window.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]window.Handle(nil), d.handles...), d.err
}

func (d *fakeDirectory) set(hs ...window.Handle) {
	d.mu.Lock()
	d.handles = hs
	d.mu.Unlock()
}

// fakeCapturer returns frame for every call after the first fail calls,
// which return failErr.
type fakeCapturer struct {
	mu      sync.Mutex
	frame   *image.RGBA
	fail    int
	failErr error
	calls   int
}

func (c *fakeCapturer) Capture(h window.Handle) (*capture.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.calls <= c.fail {
		return nil, c.failErr
	}
	return &capture.Frame{Image: c.frame, Scale: 1, Origin: h.Region(), CapturedAt: time.Now()}, nil
}

func (c *fakeCapturer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakePointer struct {
	mu       sync.Mutex
	x, y     int
	moves    []image.Point
	presses  []action.Button
	releases int
}

func (p *fakePointer) MovePointer(x, y int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.x, p.y = x, y
	p.moves = append(p.moves, image.Pt(x, y))
	return nil
}

func (p *fakePointer) PressButton(b action.Button) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.presses = append(p.presses, b)
	return nil
}

func (p *fakePointer) ReleaseButton(action.Button) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releases++
	return nil
}

func (p *fakePointer) Position() (int, int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.x, p.y, nil
}

// fakeClock drives the engine's budget loop without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return nil
}

type fixture struct {
	cfg     *config.Config
	dir     *fakeDirectory
	cap     *fakeCapturer
	pointer *fakePointer
	clock   *fakeClock
	engine  *Engine
}

const fixtureTitle = "Game Client"

// newFixture builds an engine over a 200x150 noise frame shown in a window
// whose client area starts at (100, 50).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Window = "Game"
	f := &fixture{
		cfg:     cfg,
		dir:     &fakeDirectory{},
		cap:     &fakeCapturer{frame: noiseImage(200, 150, 7)},
		pointer: &fakePointer{},
		clock:   &fakeClock{now: time.Unix(1700000000, 0)},
	}
	f.dir.set(window.Handle{ID: 1, Title: fixtureTitle, X: 100, Y: 50, Width: 200, Height: 150, Active: true})
	clicker := action.NewClicker(f.pointer, time.Millisecond, nil)
	svc := capture.NewService(f.cap, nil)
	f.engine = NewEngine(cfg, discardLogger(), f.dir, svc, nil, nil, clicker)
	f.engine.wait = f.clock.Wait
	f.engine.now = f.clock.Now
	return f
}

// target writes the frame region r as a template and returns a target for
// it.
func (f *fixture) target(t *testing.T, name string, r image.Rectangle) Target {
	t.Helper()
	path := writePNG(t, t.TempDir(), name+".png", subImage(f.cap.frame, r))
	return Target{Name: name, Path: path, Click: ClickNone, Clicks: 1}
}
