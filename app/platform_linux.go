//go:build linux

package app

import (
	"fmt"
	"io"

	"github.com/BurntSushi/xgbutil"

	"github.com/soocke/pixel-clicker-go/config"
	"github.com/soocke/pixel-clicker-go/domain/action"
	"github.com/soocke/pixel-clicker-go/domain/capture"
	"github.com/soocke/pixel-clicker-go/domain/window"
)

type xconn struct{ xu *xgbutil.XUtil }

func (c xconn) Close() error {
	c.xu.Conn().Close()
	return nil
}

func newBackends(cfg *config.Config) (backends, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return backends{}, fmt.Errorf("connect to X server: %w", err)
	}
	b := backends{
		dir:     window.NewDirectory(xu),
		window:  capture.NewWindowCapturer(xu),
		closers: []io.Closer{xconn{xu}},
	}
	if cfg.Input == config.InputSerial {
		return b, nil
	}
	p, err := action.NewSystemPointer(xu)
	if err != nil {
		xu.Conn().Close()
		return backends{}, err
	}
	b.pointer = p
	return b, nil
}
