//go:build linux

package capture

import (
	"fmt"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xgraphics"

	"github.com/soocke/pixel-clicker-go/domain/geometry"
	"github.com/soocke/pixel-clicker-go/domain/window"
)

// X11Capturer reads window contents with GetImage. Obscured regions come back
// as whatever the server holds for them; there is no compositor fallback.
type X11Capturer struct {
	xu *xgbutil.XUtil
}

// NewWindowCapturer returns a capturer bound to an open X connection.
func NewWindowCapturer(xu *xgbutil.XUtil) *X11Capturer {
	return &X11Capturer{xu: xu}
}

func (c *X11Capturer) Capture(h window.Handle) (*Frame, error) {
	win := xproto.Window(h.ID)
	if _, err := xproto.GetGeometry(c.xu.Conn(), xproto.Drawable(win)).Reply(); err != nil {
		return nil, fmt.Errorf("%w: window=%#x: %v", ErrWindowGone, h.ID, err)
	}
	ximg, err := xgraphics.NewDrawable(c.xu, xproto.Drawable(win))
	if err != nil {
		return nil, fmt.Errorf("%w: window=%#x: %v", ErrCaptureDenied, h.ID, err)
	}
	defer ximg.Destroy()
	b := ximg.Bounds()
	img := bgraToRGBA(ximg.Pix, b.Dx(), b.Dy(), ximg.Stride)
	return &Frame{
		Image:      img,
		Scale:      1,
		Origin:     geometry.Region{X: h.X, Y: h.Y, Width: b.Dx(), Height: b.Dy()},
		CapturedAt: time.Now(),
	}, nil
}
