//go:build windows

package app

import (
	"github.com/soocke/pixel-clicker-go/config"
	"github.com/soocke/pixel-clicker-go/domain/action"
	"github.com/soocke/pixel-clicker-go/domain/capture"
	"github.com/soocke/pixel-clicker-go/domain/window"
)

func newBackends(*config.Config) (backends, error) {
	return backends{
		dir:     window.NewDirectory(),
		window:  capture.NewWindowCapturer(),
		pointer: action.NewSystemPointer(),
	}, nil
}
