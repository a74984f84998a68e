//go:build windows

package capture

// Window capture through GDI. The client area is rendered at the monitor's
// physical resolution with PrintWindow (falling back to BitBlt from the
// window DC), converted BGRA->RGBA, and resampled to the logical client size.

import (
	"fmt"
	"image"
	"time"
	"unsafe"

	"golang.org/x/image/draw"
	"golang.org/x/sys/windows"

	"github.com/soocke/pixel-clicker-go/domain/geometry"
	"github.com/soocke/pixel-clicker-go/domain/window"
)

// Win32 constants
const (
	srccopy                 = 0x00CC0020
	dibRGBColors            = 0
	biRgb                   = 0
	pwClientOnly            = 0x1
	pwRenderFullContent     = 0x2
	monitorDefaultToNearest = 0x2
	horzRes                 = 8
	desktopHorzRes          = 118
)

// Win32 DLL procs (lazy loaded)
var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	gdi32                  = windows.NewLazySystemDLL("gdi32.dll")
	procIsWindow           = user32.NewProc("IsWindow")
	procGetDC              = user32.NewProc("GetDC")
	procReleaseDC          = user32.NewProc("ReleaseDC")
	procGetClientRect      = user32.NewProc("GetClientRect")
	procPrintWindow        = user32.NewProc("PrintWindow")
	procMonitorFromWindow  = user32.NewProc("MonitorFromWindow")
	procGetMonitorInfoW    = user32.NewProc("GetMonitorInfoW")
	procCreateDCW          = gdi32.NewProc("CreateDCW")
	procGetDeviceCaps      = gdi32.NewProc("GetDeviceCaps")
	procCreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procSelectObject       = gdi32.NewProc("SelectObject")
	procBitBlt             = gdi32.NewProc("BitBlt")
	procCreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	procDeleteObject       = gdi32.NewProc("DeleteObject")
)

// BITMAPINFO structures (Win32 layout).
type bitmapInfoHeader struct {
	BiSize          uint32
	BiWidth         int32
	BiHeight        int32
	BiPlanes        uint16
	BiBitCount      uint16
	BiCompression   uint32
	BiSizeImage     uint32
	BiXPelsPerMeter int32
	BiYPelsPerMeter int32
	BiClrUsed       uint32
	BiClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	_      [4]byte // one RGBQUAD placeholder (unused for 32-bit)
}

type rect struct {
	Left, Top, Right, Bottom int32
}

// monitorInfoEx matches MONITORINFOEXW.
type monitorInfoEx struct {
	CbSize    uint32
	RcMonitor rect
	RcWork    rect
	DwFlags   uint32
	SzDevice  [32]uint16
}

// WindowCapturer captures window client areas through GDI.
type WindowCapturer struct{}

// NewWindowCapturer returns the GDI capturer.
func NewWindowCapturer() WindowCapturer { return WindowCapturer{} }

func (WindowCapturer) Capture(h window.Handle) (*Frame, error) {
	hwnd := h.ID
	if ok, _, _ := procIsWindow.Call(hwnd); ok == 0 {
		return nil, fmt.Errorf("%w: hwnd=%#x", ErrWindowGone, hwnd)
	}
	var cr rect
	if ok, _, _ := procGetClientRect.Call(hwnd, uintptr(unsafe.Pointer(&cr))); ok == 0 {
		return nil, fmt.Errorf("%w: hwnd=%#x", ErrWindowGone, hwnd)
	}
	w, hgt := int(cr.Right-cr.Left), int(cr.Bottom-cr.Top)
	if w <= 0 || hgt <= 0 {
		return nil, fmt.Errorf("%w: empty client area hwnd=%#x", ErrCaptureDenied, hwnd)
	}
	scale := MonitorScale(hwnd)
	pw, ph := int(float64(w)*scale), int(float64(hgt)*scale)
	phys, err := renderClient(hwnd, pw, ph)
	if err != nil {
		return nil, err
	}
	img := phys
	if pw != w || ph != hgt {
		img = image.NewRGBA(image.Rect(0, 0, w, hgt))
		draw.CatmullRom.Scale(img, img.Bounds(), phys, phys.Bounds(), draw.Src, nil)
	}
	return &Frame{
		Image:      img,
		Scale:      1,
		Origin:     geometry.Region{X: h.X, Y: h.Y, Width: w, Height: hgt},
		CapturedAt: time.Now(),
	}, nil
}

// MonitorScale returns the physical-to-logical pixel ratio of the monitor the
// window is on, or 1 when it cannot be determined.
func MonitorScale(hwnd uintptr) float64 {
	mon, _, _ := procMonitorFromWindow.Call(hwnd, monitorDefaultToNearest)
	if mon == 0 {
		return 1
	}
	mi := monitorInfoEx{CbSize: uint32(unsafe.Sizeof(monitorInfoEx{}))}
	if ok, _, _ := procGetMonitorInfoW.Call(mon, uintptr(unsafe.Pointer(&mi))); ok == 0 {
		return 1
	}
	dev := &mi.SzDevice[0]
	hdc, _, _ := procCreateDCW.Call(uintptr(unsafe.Pointer(dev)), uintptr(unsafe.Pointer(dev)), 0, 0)
	if hdc == 0 {
		return 1
	}
	defer procDeleteDC.Call(hdc)
	logical, _, _ := procGetDeviceCaps.Call(hdc, horzRes)
	physical, _, _ := procGetDeviceCaps.Call(hdc, desktopHorzRes)
	if int32(logical) <= 0 || int32(physical) <= 0 {
		return 1
	}
	return float64(int32(physical)) / float64(int32(logical))
}

// renderClient draws the client area into a top-down DIB section of w x h
// and returns a newly allocated *image.RGBA with its pixels.
func renderClient(hwnd uintptr, w, h int) (*image.RGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: invalid size %dx%d", ErrCaptureDenied, w, h)
	}
	winDC, _, _ := procGetDC.Call(hwnd)
	if winDC == 0 {
		return nil, fmt.Errorf("%w: GetDC failed: %v", ErrCaptureDenied, windows.GetLastError())
	}
	defer procReleaseDC.Call(hwnd, winDC)

	memDC, _, _ := procCreateCompatibleDC.Call(winDC)
	if memDC == 0 {
		return nil, fmt.Errorf("%w: CreateCompatibleDC failed", ErrCaptureDenied)
	}
	defer procDeleteDC.Call(memDC)

	var bi bitmapInfo
	bi.Header.BiSize = uint32(unsafe.Sizeof(bi.Header))
	bi.Header.BiWidth = int32(w)
	bi.Header.BiHeight = -int32(h) // top-down
	bi.Header.BiPlanes = 1
	bi.Header.BiBitCount = 32
	bi.Header.BiCompression = biRgb
	bi.Header.BiSizeImage = uint32(w * h * 4)

	var bitsPtr unsafe.Pointer
	bmp, _, _ := procCreateDIBSection.Call(memDC, uintptr(unsafe.Pointer(&bi)), dibRGBColors, uintptr(unsafe.Pointer(&bitsPtr)), 0, 0)
	if bmp == 0 || bitsPtr == nil {
		return nil, fmt.Errorf("%w: CreateDIBSection failed", ErrCaptureDenied)
	}
	defer procDeleteObject.Call(bmp)

	prev, _, _ := procSelectObject.Call(memDC, bmp)
	if prev == 0 || prev == ^uintptr(0) { // failure or GDI_ERROR
		return nil, fmt.Errorf("%w: SelectObject failed", ErrCaptureDenied)
	}
	defer procSelectObject.Call(memDC, prev)

	ok, _, _ := procPrintWindow.Call(hwnd, memDC, pwClientOnly|pwRenderFullContent)
	if ok == 0 {
		ok, _, _ = procBitBlt.Call(memDC, 0, 0, uintptr(w), uintptr(h), winDC, 0, 0, srccopy)
		if ok == 0 {
			return nil, fmt.Errorf("%w: PrintWindow and BitBlt failed w=%d h=%d", ErrCaptureDenied, w, h)
		}
	}

	pixLen := w * h * 4
	src := unsafe.Slice((*byte)(bitsPtr), pixLen)
	return bgraToRGBA(src, w, h, w*4), nil
}
