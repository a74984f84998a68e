package capture

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/soocke/pixel-clicker-go/domain/geometry"
	"github.com/soocke/pixel-clicker-go/domain/window"
)

var (
	// ErrCapture is the kind shared by every capture failure.
	ErrCapture = errors.New("capture error")
	// ErrWindowGone means the handle no longer refers to a live window.
	ErrWindowGone = fmt.Errorf("%w: window is gone", ErrCapture)
	// ErrCaptureDenied means the OS refused to render the window.
	ErrCaptureDenied = fmt.Errorf("%w: capture denied", ErrCapture)
	// ErrUnsupported means no capture backend exists for this platform.
	ErrUnsupported = fmt.Errorf("%w: unsupported platform", ErrCapture)
)

// Frame is a captured (and possibly normalized) pixel buffer. Scale is the
// factor applied to reach the buffer from screen pixels, 1.0 when untouched.
// Origin is the screen-space region the buffer covers before scaling.
type Frame struct {
	Image      *image.RGBA
	Scale      float64
	Origin     geometry.Region
	CapturedAt time.Time
}

// Capturer grabs the client area of a window. Implementations block and never
// retry; a failure is returned as an error wrapping ErrCapture.
type Capturer interface {
	Capture(h window.Handle) (*Frame, error)
}

// CapturerFunc adapts a function to the Capturer interface.
type CapturerFunc func(h window.Handle) (*Frame, error)

func (f CapturerFunc) Capture(h window.Handle) (*Frame, error) { return f(h) }

// bgraToRGBA converts a tightly packed BGRA buffer into a new RGBA image,
// forcing every pixel opaque.
func bgraToRGBA(src []byte, w, h, stride int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srow := src[y*stride : y*stride+w*4]
		drow := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		for i := 0; i < len(srow); i += 4 {
			drow[i+0] = srow[i+2]
			drow[i+1] = srow[i+1]
			drow[i+2] = srow[i+0]
			drow[i+3] = 0xFF
		}
	}
	return dst
}
