package capture

import (
	"fmt"
	"image"
	"time"

	kscreen "github.com/kbinani/screenshot"
	vscreen "github.com/vova616/screenshot"

	"github.com/soocke/pixel-clicker-go/domain/geometry"
	"github.com/soocke/pixel-clicker-go/domain/window"
)

// Displays returns the bounds of every active display.
func Displays() []image.Rectangle {
	n := kscreen.NumActiveDisplays()
	out := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, kscreen.GetDisplayBounds(i))
	}
	return out
}

// ScreenCapturer copies a window's client rectangle from the desktop instead
// of asking the window to render itself. Overlapping windows end up in the
// frame, but it works for surfaces that refuse PrintWindow or GetImage.
type ScreenCapturer struct {
	displays func() []image.Rectangle
	grab     func(image.Rectangle) (*image.RGBA, error)
}

// NewScreenCapturer returns a capturer backed by the desktop framebuffer.
func NewScreenCapturer() *ScreenCapturer {
	return &ScreenCapturer{displays: Displays, grab: vscreen.CaptureRect}
}

func (s *ScreenCapturer) Capture(h window.Handle) (*Frame, error) {
	want := h.Region().Rect()
	if want.Empty() {
		return nil, fmt.Errorf("%w: empty client area", ErrWindowGone)
	}
	var desktop image.Rectangle
	for _, d := range s.displays() {
		desktop = desktop.Union(d)
	}
	r := want.Intersect(desktop)
	if r.Empty() {
		return nil, fmt.Errorf("%w: window %v is off screen %v", ErrCaptureDenied, want, desktop)
	}
	img, err := s.grab(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureDenied, err)
	}
	return &Frame{
		Image:      img,
		Scale:      1,
		Origin:     geometry.RegionOf(r),
		CapturedAt: time.Now(),
	}, nil
}
