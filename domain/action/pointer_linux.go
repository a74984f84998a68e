//go:build linux

package action

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
	"github.com/BurntSushi/xgbutil"
)

// X11Pointer warps the pointer and injects button events through XTEST.
type X11Pointer struct {
	xu *xgbutil.XUtil
}

// NewSystemPointer initializes the XTEST extension on xu.
func NewSystemPointer(xu *xgbutil.XUtil) (*X11Pointer, error) {
	if err := xtest.Init(xu.Conn()); err != nil {
		return nil, fmt.Errorf("xtest init: %w", err)
	}
	return &X11Pointer{xu: xu}, nil
}

func (p *X11Pointer) MovePointer(x, y int) error {
	return xproto.WarpPointerChecked(p.xu.Conn(), xproto.WindowNone, p.xu.RootWin(),
		0, 0, 0, 0, int16(x), int16(y)).Check()
}

func (p *X11Pointer) PressButton(b Button) error {
	return p.fake(xproto.ButtonPress, b)
}

func (p *X11Pointer) ReleaseButton(b Button) error {
	return p.fake(xproto.ButtonRelease, b)
}

func (p *X11Pointer) fake(kind byte, b Button) error {
	detail := byte(1)
	if b == ButtonRight {
		detail = 3
	}
	return xtest.FakeInputChecked(p.xu.Conn(), kind, detail, 0, p.xu.RootWin(), 0, 0, 0).Check()
}

func (p *X11Pointer) Position() (int, int, error) {
	reply, err := xproto.QueryPointer(p.xu.Conn(), p.xu.RootWin()).Reply()
	if err != nil {
		return 0, 0, err
	}
	return int(reply.RootX), int(reply.RootY), nil
}
