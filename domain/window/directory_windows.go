//go:build windows

package window

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/soocke/pixel-clicker-go/domain/geometry"
)

const (
	gwlExStyle               = ^uintptr(19) // GWL_EXSTYLE (-20)
	wsExToolWindow           = 0x00000080
	dwmwaExtendedFrameBounds = 9
	dwmwaCloaked             = 14
	maxTitleChars            = 512
)

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	dwmapi                       = windows.NewLazySystemDLL("dwmapi.dll")
	procEnumWindows              = user32.NewProc("EnumWindows")
	procIsWindow                 = user32.NewProc("IsWindow")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procGetClassNameW            = user32.NewProc("GetClassNameW")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetWindowLongW           = user32.NewProc("GetWindowLongW")
	procGetWindowThreadProcessID = user32.NewProc("GetWindowThreadProcessId")
	procGetClientRect            = user32.NewProc("GetClientRect")
	procClientToScreen           = user32.NewProc("ClientToScreen")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procDwmGetWindowAttribute    = dwmapi.NewProc("DwmGetWindowAttribute")
)

type rect struct {
	Left, Top, Right, Bottom int32
}

type point struct {
	X, Y int32
}

// EnumWindows callbacks cannot be freed, so a single callback serves every
// enumeration. Each call registers its sink under a unique key that travels
// through lParam.
var (
	enumOnce     sync.Once
	enumCallback uintptr
	enumSeq      atomic.Uintptr
	enumSinks    sync.Map // uintptr -> *[]uintptr
)

func enumProc(hwnd, lparam uintptr) uintptr {
	if v, ok := enumSinks.Load(lparam); ok {
		sink := v.(*[]uintptr)
		*sink = append(*sink, hwnd)
	}
	return 1
}

// Win32Directory lists top-level windows through user32 and dwmapi.
type Win32Directory struct {
	pid uint32
}

// NewDirectory returns the Win32 directory.
func NewDirectory() *Win32Directory {
	return &Win32Directory{pid: uint32(os.Getpid())}
}

func (d *Win32Directory) List() ([]Handle, error) {
	hwnds, err := enumTopLevel()
	if err != nil {
		return nil, err
	}
	fg, _, _ := procGetForegroundWindow.Call()
	out := make([]Handle, 0, len(hwnds))
	for _, hwnd := range hwnds {
		h, ok := d.inspect(hwnd)
		if !ok {
			continue
		}
		h.Active = hwnd == fg
		out = append(out, h)
	}
	return out, nil
}

func enumTopLevel() ([]uintptr, error) {
	enumOnce.Do(func() { enumCallback = syscall.NewCallback(enumProc) })
	key := enumSeq.Add(1)
	sink := make([]uintptr, 0, 64)
	enumSinks.Store(key, &sink)
	defer enumSinks.Delete(key)
	if r, _, callErr := procEnumWindows.Call(enumCallback, key); r == 0 {
		return nil, fmt.Errorf("EnumWindows: %w", callErr)
	}
	return sink, nil
}

// inspect gathers the filter inputs for hwnd. The owner PID is checked before
// the title is read: GetWindowText on a window owned by this process sends a
// message to our own message loop and can block.
func (d *Win32Directory) inspect(hwnd uintptr) (Handle, bool) {
	if r, _, _ := procIsWindow.Call(hwnd); r == 0 {
		return Handle{}, false
	}
	c := candidate{}
	if r, _, _ := procIsWindowVisible.Call(hwnd); r != 0 {
		c.visible = true
	}
	var pid uint32
	_, _, _ = procGetWindowThreadProcessID.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	c.ownProcess = pid == d.pid
	if !c.visible || c.ownProcess {
		return Handle{}, false
	}
	c.class = className(hwnd)
	c.title = windowText(hwnd)
	exStyle, _, _ := procGetWindowLongW.Call(hwnd, gwlExStyle)
	c.toolWindow = uint32(exStyle)&wsExToolWindow != 0
	c.cloaked = isCloaked(hwnd)
	frame, ok := extendedFrame(hwnd)
	if ok {
		c.frame = frame
	}
	if !accept(c) {
		return Handle{}, false
	}
	client, ok := clientRegion(hwnd)
	if !ok {
		return Handle{}, false
	}
	return Handle{
		ID:     hwnd,
		Title:  c.title,
		Class:  c.class,
		PID:    pid,
		X:      client.X,
		Y:      client.Y,
		Width:  client.Width,
		Height: client.Height,
		Bounds: frame,
	}, true
}

func className(hwnd uintptr) string {
	buf := make([]uint16, 256)
	n, _, _ := procGetClassNameW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}

func windowText(hwnd uintptr) string {
	buf := make([]uint16, maxTitleChars)
	n, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}

func isCloaked(hwnd uintptr) bool {
	var cloaked uint32
	hr, _, _ := procDwmGetWindowAttribute.Call(hwnd, dwmwaCloaked, uintptr(unsafe.Pointer(&cloaked)), unsafe.Sizeof(cloaked))
	return hr == 0 && cloaked != 0
}

func extendedFrame(hwnd uintptr) (geometry.Region, bool) {
	var r rect
	hr, _, _ := procDwmGetWindowAttribute.Call(hwnd, dwmwaExtendedFrameBounds, uintptr(unsafe.Pointer(&r)), unsafe.Sizeof(r))
	if hr != 0 {
		return geometry.Region{}, false
	}
	return geometry.Region{X: int(r.Left), Y: int(r.Top), Width: int(r.Right - r.Left), Height: int(r.Bottom - r.Top)}, true
}

// clientRegion returns the client area in screen coordinates.
func clientRegion(hwnd uintptr) (geometry.Region, bool) {
	var r rect
	if ok, _, _ := procGetClientRect.Call(hwnd, uintptr(unsafe.Pointer(&r))); ok == 0 {
		return geometry.Region{}, false
	}
	var origin point
	if ok, _, _ := procClientToScreen.Call(hwnd, uintptr(unsafe.Pointer(&origin))); ok == 0 {
		return geometry.Region{}, false
	}
	return geometry.Region{X: int(origin.X), Y: int(origin.Y), Width: int(r.Right - r.Left), Height: int(r.Bottom - r.Top)}, true
}
