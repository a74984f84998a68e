//go:build windows

package action

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	mouseEventLeftDown  = 0x0002
	mouseEventLeftUp    = 0x0004
	mouseEventRightDown = 0x0008
	mouseEventRightUp   = 0x0010
)

var (
	user32           = windows.NewLazySystemDLL("user32.dll")
	procMouseEvent   = user32.NewProc("mouse_event")
	procSetCursorPos = user32.NewProc("SetCursorPos")
	procGetCursorPos = user32.NewProc("GetCursorPos")
)

// Win32Pointer drives the system cursor with SetCursorPos and mouse_event.
type Win32Pointer struct{}

// NewSystemPointer returns the Win32 pointer.
func NewSystemPointer() Win32Pointer { return Win32Pointer{} }

// MovePointer moves the OS mouse pointer to (x, y).
func (Win32Pointer) MovePointer(x, y int) error {
	if ok, _, err := procSetCursorPos.Call(uintptr(x), uintptr(y)); ok == 0 {
		return fmt.Errorf("SetCursorPos: %w", err)
	}
	return nil
}

func (Win32Pointer) PressButton(b Button) error {
	flag := uintptr(mouseEventLeftDown)
	if b == ButtonRight {
		flag = mouseEventRightDown
	}
	_, _, _ = procMouseEvent.Call(flag, 0, 0, 0, 0)
	return nil
}

func (Win32Pointer) ReleaseButton(b Button) error {
	flag := uintptr(mouseEventLeftUp)
	if b == ButtonRight {
		flag = mouseEventRightUp
	}
	_, _, _ = procMouseEvent.Call(flag, 0, 0, 0, 0)
	return nil
}

func (Win32Pointer) Position() (int, int, error) {
	var pt struct{ X, Y int32 }
	if ok, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt))); ok == 0 {
		return 0, 0, fmt.Errorf("GetCursorPos: %w", err)
	}
	return int(pt.X), int(pt.Y), nil
}
