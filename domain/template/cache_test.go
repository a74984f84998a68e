package template

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 10), uint8(y * 10), 0, 0xFF})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

// spyDecoder counts decode calls and can be told to fail.
type spyDecoder struct {
	calls atomic.Int32
	fail  atomic.Bool
}

func (s *spyDecoder) Decode(raw []byte) (image.Image, error) {
	s.calls.Add(1)
	if s.fail.Load() {
		return nil, errors.New("boom")
	}
	return StdDecoder.Decode(raw)
}

func TestCache_DecodesOncePerName(t *testing.T) {
	spy := &spyDecoder{}
	c := NewCache(spy)
	raw := pngBytes(t, 8, 6)
	a, err := c.GetOrDecode("start", raw)
	if err != nil {
		t.Fatalf("first decode: %v", err)
	}
	b, err := c.GetOrDecode("start", raw)
	if err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if a != b {
		t.Fatalf("expected identical template pointers")
	}
	if n := spy.calls.Load(); n != 1 {
		t.Fatalf("expected 1 decode, got %d", n)
	}
	if sz := a.Size(); sz.X != 8 || sz.Y != 6 {
		t.Fatalf("unexpected size %v", sz)
	}
	st := c.Stats()
	if st.Entries != 1 || st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestCache_ConcurrentFirstCallsDecodeOnce(t *testing.T) {
	spy := &spyDecoder{}
	c := NewCache(spy)
	raw := pngBytes(t, 4, 4)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.GetOrDecode("select", raw); err != nil {
				t.Errorf("decode: %v", err)
			}
		}()
	}
	wg.Wait()
	if n := spy.calls.Load(); n != 1 {
		t.Fatalf("expected 1 decode, got %d", n)
	}
}

func TestCache_DecodeErrorNotCached(t *testing.T) {
	spy := &spyDecoder{}
	spy.fail.Store(true)
	c := NewCache(spy)
	raw := pngBytes(t, 4, 4)
	if _, err := c.GetOrDecode("x", raw); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("failed decode should not be cached")
	}
	spy.fail.Store(false)
	if _, err := c.GetOrDecode("x", raw); err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
	if n := spy.calls.Load(); n != 2 {
		t.Fatalf("expected 2 decode attempts, got %d", n)
	}
}

func TestCache_GarbageBytes(t *testing.T) {
	c := NewCache(nil)
	if _, err := c.GetOrDecode("junk", []byte("not an image")); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if _, err := c.GetOrDecode("empty", nil); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode for empty input, got %v", err)
	}
}

func TestCache_GetOrLoadReadsFileOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "start.png")
	if err := os.WriteFile(path, pngBytes(t, 5, 5), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c := NewCache(nil)
	if _, err := c.GetOrLoad("start", path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := c.GetOrLoad("start", path); err != nil {
		t.Fatalf("cached load should not touch disk: %v", err)
	}
}

func TestNew_NormalizesOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	sub := src.SubImage(image.Rect(3, 3, 7, 8))
	tm := New("sub", sub)
	if tm.Image.Bounds().Min != (image.Point{}) {
		t.Fatalf("expected zero origin, got %v", tm.Image.Bounds())
	}
	if sz := tm.Size(); sz.X != 4 || sz.Y != 5 {
		t.Fatalf("unexpected size %v", sz)
	}
}
