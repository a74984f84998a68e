//go:build !windows && !linux

package capture

import "github.com/soocke/pixel-clicker-go/domain/window"

// UnsupportedCapturer fails every capture.
type UnsupportedCapturer struct{}

// NewWindowCapturer returns the fallback capturer.
func NewWindowCapturer() UnsupportedCapturer { return UnsupportedCapturer{} }

func (UnsupportedCapturer) Capture(window.Handle) (*Frame, error) { return nil, ErrUnsupported }
