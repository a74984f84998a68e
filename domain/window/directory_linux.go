//go:build linux

package window

import (
	"fmt"
	"os"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/soocke/pixel-clicker-go/domain/geometry"
)

// toolTypes are EWMH window types treated like WS_EX_TOOLWINDOW.
var toolTypes = map[string]bool{
	"_NET_WM_WINDOW_TYPE_DOCK":         true,
	"_NET_WM_WINDOW_TYPE_TOOLBAR":      true,
	"_NET_WM_WINDOW_TYPE_UTILITY":      true,
	"_NET_WM_WINDOW_TYPE_SPLASH":       true,
	"_NET_WM_WINDOW_TYPE_NOTIFICATION": true,
}

// X11Directory lists managed client windows from the EWMH client list.
type X11Directory struct {
	xu  *xgbutil.XUtil
	pid uint
}

// NewDirectory returns a directory bound to an open X connection.
func NewDirectory(xu *xgbutil.XUtil) *X11Directory {
	return &X11Directory{xu: xu, pid: uint(os.Getpid())}
}

func (d *X11Directory) List() ([]Handle, error) {
	clients, err := ewmh.ClientListGet(d.xu)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}
	active, _ := ewmh.ActiveWindowGet(d.xu)
	out := make([]Handle, 0, len(clients))
	for _, win := range clients {
		h, ok := d.inspect(win)
		if !ok {
			continue
		}
		h.Active = win == active
		out = append(out, h)
	}
	return out, nil
}

func (d *X11Directory) inspect(win xproto.Window) (Handle, bool) {
	c := candidate{}
	attrs, err := xproto.GetWindowAttributes(d.xu.Conn(), win).Reply()
	if err != nil {
		return Handle{}, false
	}
	c.visible = attrs.MapState == xproto.MapStateViewable
	pid, _ := ewmh.WmPidGet(d.xu, win)
	c.ownProcess = pid != 0 && pid == d.pid
	if !c.visible || c.ownProcess {
		return Handle{}, false
	}
	if cls, err := icccm.WmClassGet(d.xu, win); err == nil && cls != nil {
		c.class = cls.Class
	}
	c.title = windowTitle(d.xu, win)
	if types, err := ewmh.WmWindowTypeGet(d.xu, win); err == nil {
		for _, t := range types {
			if t == "_NET_WM_WINDOW_TYPE_DESKTOP" {
				return Handle{}, false
			}
			if toolTypes[t] {
				c.toolWindow = true
			}
		}
	}
	if states, err := ewmh.WmStateGet(d.xu, win); err == nil {
		for _, s := range states {
			if s == "_NET_WM_STATE_HIDDEN" {
				c.cloaked = true
			}
		}
	}
	client, ok := d.clientRegion(win)
	if !ok {
		return Handle{}, false
	}
	c.frame = client
	if ext, err := ewmh.FrameExtentsGet(d.xu, win); err == nil && ext != nil {
		left, right, top, bottom := int(ext.Left), int(ext.Right), int(ext.Top), int(ext.Bottom)
		c.frame = geometry.Region{
			X:      client.X - left,
			Y:      client.Y - top,
			Width:  client.Width + left + right,
			Height: client.Height + top + bottom,
		}
	}
	if !accept(c) {
		return Handle{}, false
	}
	return Handle{
		ID:     uintptr(win),
		Title:  c.title,
		Class:  c.class,
		PID:    uint32(pid),
		X:      client.X,
		Y:      client.Y,
		Width:  client.Width,
		Height: client.Height,
		Bounds: c.frame,
	}, true
}

func windowTitle(xu *xgbutil.XUtil, win xproto.Window) string {
	if name, err := ewmh.WmNameGet(xu, win); err == nil && name != "" {
		return name
	}
	name, _ := icccm.WmNameGet(xu, win)
	return name
}

// clientRegion returns the window's size and its origin translated to root
// coordinates.
func (d *X11Directory) clientRegion(win xproto.Window) (geometry.Region, bool) {
	geom, err := xproto.GetGeometry(d.xu.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return geometry.Region{}, false
	}
	tr, err := xproto.TranslateCoordinates(d.xu.Conn(), win, d.xu.RootWin(), 0, 0).Reply()
	if err != nil {
		return geometry.Region{}, false
	}
	return geometry.Region{X: int(tr.DstX), Y: int(tr.DstY), Width: int(geom.Width), Height: int(geom.Height)}, true
}
