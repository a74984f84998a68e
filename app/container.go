package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/soocke/pixel-clicker-go/config"
	"github.com/soocke/pixel-clicker-go/domain/action"
	"github.com/soocke/pixel-clicker-go/domain/capture"
	"github.com/soocke/pixel-clicker-go/domain/match"
	"github.com/soocke/pixel-clicker-go/domain/template"
	"github.com/soocke/pixel-clicker-go/domain/window"
)

// Container assembles the platform backends and the engine built on them.
type Container struct {
	Config    *config.Config
	Logger    *slog.Logger
	Directory window.Directory
	Capture   *capture.Service
	Cache     *template.Cache
	Matcher   *match.Matcher
	Clicker   *action.Clicker
	Engine    *Engine

	closers []io.Closer
}

// backends are the platform specific pieces a container needs.
type backends struct {
	dir     window.Directory
	window  capture.Capturer
	pointer action.Pointer
	closers []io.Closer
}

// BuildContainer constructs all components for cfg. Close releases the
// display connection and serial port, if any.
func BuildContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b, err := newBackends(cfg)
	if err != nil {
		return nil, err
	}
	c := &Container{Config: cfg, Logger: logger, Directory: b.dir, closers: b.closers}

	var src capture.Capturer = b.window
	if cfg.Capture == config.CaptureScreen {
		src = capture.NewScreenCapturer()
	}
	c.Capture = capture.NewService(src, logger)

	pointer := b.pointer
	if cfg.Input == config.InputSerial {
		sp, closer, err := action.OpenSerialPointer(cfg.SerialPort, cfg.SerialBaud)
		if err != nil {
			c.Close()
			return nil, err
		}
		pointer = sp
		c.closers = append(c.closers, closer)
	}
	c.Clicker = action.NewClicker(pointer, time.Duration(cfg.SettleMs)*time.Millisecond, logger)

	c.Cache = template.NewCache(nil)
	c.Matcher = match.New(match.Options{
		Stride:          cfg.Stride,
		Refine:          cfg.Refine,
		StopOnThreshold: cfg.StopOnThreshold,
	})
	c.Engine = NewEngine(cfg, logger, c.Directory, c.Capture, c.Cache, c.Matcher, c.Clicker)
	return c, nil
}

// Close releases platform resources in reverse order of acquisition.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close: %w", err))
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
