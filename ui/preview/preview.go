// Package preview shows the last captured frame with match boxes in a small
// Tk window while the poller runs.
package preview

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"

	"github.com/soocke/pixel-clicker-go/ui/images"
)

const (
	refresh     = 200 * time.Millisecond
	maxPreviewW = 640
	maxPreviewH = 360
)

// Marker is a labelled rectangle in frame coordinates.
type Marker struct {
	Label string
	Rect  image.Rectangle
}

// Snapshot is what the window renders on each refresh.
type Snapshot struct {
	At     time.Time
	Frame  image.Image
	Marks  []Marker
	Status string
	Lines  []string
}

// Source returns the latest snapshot, or nil when nothing is available yet.
type Source func() *Snapshot

var markColor = color.RGBA{R: 255, G: 40, B: 40, A: 255}

type window struct {
	ctx      context.Context
	source   Source
	status   *LabelWidget
	details  *LabelWidget
	frame    *LabelWidget
	photo    *Img
	afterID  string
	lastSeen time.Time
	stopped  bool
}

// Run opens the preview and blocks until it is closed or ctx is done. It
// must be called from the main goroutine. onClose runs when the user closes
// the window.
func Run(ctx context.Context, title string, src Source, onClose func()) {
	w := &window{ctx: ctx, source: src}
	App.WmTitle(title)
	WmProtocol(App, "WM_DELETE_WINDOW", func() {
		if onClose != nil {
			onClose()
		}
		w.exit()
	})
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", maxPreviewW+20, maxPreviewH+120))

	w.status = Label(Txt("status: waiting"), Borderwidth(1), Relief("ridge"))
	Pack(w.status, Fill("x"), Padx("1m"), Pady("1m"))
	w.details = Label(Txt(""), Justify("left"), Anchor("w"))
	Pack(w.details, Fill("x"), Padx("1m"))

	placeholder := image.NewRGBA(image.Rect(0, 0, maxPreviewW/2, maxPreviewH/2))
	w.photo = NewPhoto(Data(images.EncodePNG(placeholder)))
	w.frame = Label(Image(w.photo), Borderwidth(1), Relief("sunken"))
	Pack(w.frame, Padx("1m"), Pady("1m"))

	w.schedule()
	App.Wait()
}

func (w *window) schedule() {
	w.afterID = TclAfter(refresh, w.update)
}

func (w *window) update() {
	if w.stopped {
		return
	}
	// Tk is single threaded, so cancellation is noticed on the refresh tick.
	if w.ctx.Err() != nil {
		w.exit()
		return
	}
	if snap := w.source(); snap != nil && !snap.At.Equal(w.lastSeen) {
		w.lastSeen = snap.At
		w.render(snap)
	}
	w.schedule()
}

func (w *window) render(s *Snapshot) {
	w.status.Configure(Txt("status: " + s.Status))
	w.details.Configure(Txt(strings.Join(s.Lines, "\n")))
	if s.Frame == nil {
		return
	}
	var img image.Image = s.Frame
	for _, m := range s.Marks {
		img = images.Outline(img, m.Rect, markColor, 2)
	}
	scaled := images.ScaleToFit(img, maxPreviewW, maxPreviewH)
	// Replace the previous photo so old pixel buffers are released.
	if w.photo != nil {
		w.photo.Delete()
	}
	w.photo = NewPhoto(Data(images.EncodePNG(scaled)))
	w.frame.Configure(Image(w.photo))
}

func (w *window) exit() {
	if w.stopped {
		return
	}
	w.stopped = true
	if w.afterID != "" {
		TclAfterCancel(w.afterID)
	}
	Destroy(App)
}
