package app

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/soocke/pixel-clicker-go/domain/action"
	"github.com/soocke/pixel-clicker-go/domain/capture"
	"github.com/soocke/pixel-clicker-go/domain/geometry"
	"github.com/soocke/pixel-clicker-go/domain/match"
	"github.com/soocke/pixel-clicker-go/domain/status"
	"github.com/soocke/pixel-clicker-go/domain/window"
)

// TargetReport is the outcome for one target in one cycle.
type TargetReport struct {
	Name    string
	Box     *geometry.Box
	Result  match.Result
	Clicked bool
	Skipped bool
	Err     error
}

// CycleReport summarizes one poll cycle.
type CycleReport struct {
	At      time.Time
	State   status.WindowState
	Window  window.Handle
	Frame   *capture.Frame
	Targets []TargetReport
	Err     error
}

// Found reports whether the named target matched in this cycle.
func (r *CycleReport) Found(name string) bool {
	for _, t := range r.Targets {
		if t.Name == name {
			return t.Box != nil
		}
	}
	return false
}

// Poller runs the engine against a manifest on a fixed interval.
type Poller struct {
	engine   *Engine
	manifest *Manifest
	tracker  *status.Tracker
	interval time.Duration
	logger   *slog.Logger

	latest  atomic.Pointer[CycleReport]
	onCycle func(CycleReport)
}

// NewPoller returns a poller for m. The manifest window overrides the
// configured one when set.
func NewPoller(e *Engine, m *Manifest, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if m.Window != "" {
		e.cfg.Window = m.Window
	}
	return &Poller{
		engine:   e,
		manifest: m,
		tracker:  status.NewTracker(e.cfg.Window, logger),
		interval: time.Duration(e.cfg.PollIntervalMs) * time.Millisecond,
		logger:   logger,
	}
}

// Tracker exposes the window status tracker for listeners.
func (p *Poller) Tracker() *status.Tracker { return p.tracker }

// OnCycle registers fn to receive every cycle report. It must be set before
// Run.
func (p *Poller) OnCycle(fn func(CycleReport)) { p.onCycle = fn }

// Latest returns the most recent cycle report, or nil.
func (p *Poller) Latest() *CycleReport { return p.latest.Load() }

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started",
		"window", p.engine.cfg.Window,
		"targets", len(p.manifest.Targets),
		"interval", p.interval,
	)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		p.Cycle(ctx)
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Cycle runs one pass: resolve the window, update status and, when the
// window is in the foreground, capture once and evaluate targets in order.
func (p *Poller) Cycle(ctx context.Context) CycleReport {
	rep := CycleReport{At: time.Now()}
	defer func() {
		p.latest.Store(&rep)
		if p.onCycle != nil {
			p.onCycle(rep)
		}
	}()

	h, ok, err := p.engine.Window()
	if err != nil {
		p.logger.Error("window lookup failed", "error", err)
		rep.Err = err
		rep.State = p.tracker.Current()
		return rep
	}
	switch {
	case !ok:
		rep.State = status.NotFound
	case h.Active:
		rep.State = status.Active
	default:
		rep.State = status.Inactive
	}
	p.tracker.Observe(rep.State)
	if rep.State != status.Active {
		return rep
	}
	rep.Window = h

	raw, err := p.engine.captureWithBudget(ctx, h)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Error("capture failed", "window", h.Title, "error", err)
		}
		rep.Err = err
		return rep
	}
	rep.Frame = raw

	found := make(map[string]bool, len(p.manifest.Targets))
	for _, t := range p.manifest.Targets {
		if ctx.Err() != nil {
			return rep
		}
		tr := TargetReport{Name: t.Name}
		if !t.satisfied(found) {
			tr.Skipped = true
			rep.Targets = append(rep.Targets, tr)
			continue
		}
		f, err := capture.NormalizeFrame(raw, t.Crop, p.engine.cfg.ReferenceWidth)
		if err != nil {
			p.logger.Error("normalize failed", "target", t.Name, "error", err)
			tr.Err = err
			rep.Err = err
			rep.Targets = append(rep.Targets, tr)
			continue
		}
		box, res, err := p.engine.findIn(f, t)
		tr.Box, tr.Result = box, res
		if err != nil {
			// A broken template only disables its own target.
			p.logger.Error("find failed", "target", t.Name, "error", err)
			tr.Err = err
			rep.Err = err
			rep.Targets = append(rep.Targets, tr)
			continue
		}
		if box != nil {
			found[t.Name] = true
			tr.Clicked = p.act(ctx, h, *box, t)
		}
		rep.Targets = append(rep.Targets, tr)
	}
	return rep
}

// act performs the target's click mode and reports whether input was sent.
func (p *Poller) act(ctx context.Context, h window.Handle, box geometry.Box, t Target) bool {
	var err error
	switch t.Click {
	case ClickCenter:
		err = p.engine.ClickBox(box, t)
	case ClickPointer:
		err = p.engine.clickPointer(ctx, h, t)
	default:
		return false
	}
	switch {
	case err == nil:
		p.logger.Info("target clicked", "target", t.Name, "mode", t.Click, "box", box.Region().String())
		return true
	case errors.Is(err, action.ErrBusy):
		p.logger.Debug("input busy", "target", t.Name)
	case errors.Is(err, action.ErrPointerOutside):
		p.logger.Debug("pointer outside window", "target", t.Name)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
	default:
		p.logger.Error("click failed", "target", t.Name, "error", err)
	}
	return false
}
