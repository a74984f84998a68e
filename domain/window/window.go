package window

import (
	"errors"
	"strings"

	"github.com/soocke/pixel-clicker-go/domain/geometry"
)

// ErrUnsupported is returned by directories on platforms without a backend.
var ErrUnsupported = errors.New("window directory not supported on this platform")

// Handle is a point-in-time snapshot of a top-level window. X, Y, Width and
// Height describe the client area in screen coordinates; Bounds is the
// window's visible frame as reported by the compositor.
type Handle struct {
	ID     uintptr
	Title  string
	Class  string
	PID    uint32
	X, Y   int
	Width  int
	Height int
	Bounds geometry.Region
	Active bool
}

// Region returns the client area.
func (h Handle) Region() geometry.Region {
	return geometry.Region{X: h.X, Y: h.Y, Width: h.Width, Height: h.Height}
}

// Directory enumerates capturable top-level windows.
type Directory interface {
	List() ([]Handle, error)
}

// Find returns the first window, in enumeration order, whose title contains
// substring. A missing window is reported with ok=false and a nil error.
func Find(d Directory, substring string) (Handle, bool, error) {
	list, err := d.List()
	if err != nil {
		return Handle{}, false, err
	}
	for _, h := range list {
		if strings.Contains(h.Title, substring) {
			return h, true, nil
		}
	}
	return Handle{}, false, nil
}

// candidate is what an OS backend learned about a window before deciding
// whether to list it.
type candidate struct {
	visible    bool
	ownProcess bool
	class      string
	title      string
	toolWindow bool
	cloaked    bool
	frame      geometry.Region
}

const trayClass = "Shell_TrayWnd"

// ignoredClasses are shell surfaces that are visible but never useful targets.
var ignoredClasses = map[string]bool{
	"Progman": true,
	"Button":  true,
}

// accept is the listing policy shared by every backend.
func accept(c candidate) bool {
	if !c.visible || c.ownProcess {
		return false
	}
	if c.class == "" {
		return false
	}
	if c.toolWindow && c.class != trayClass && c.title == "" {
		return false
	}
	if ignoredClasses[c.class] {
		return false
	}
	if c.cloaked {
		return false
	}
	return !c.frame.Empty()
}
