package capture

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/soocke/pixel-clicker-go/domain/window"
)

const captureStatsLogInterval = 5 * time.Second

// Service wraps a Capturer with timing statistics and remembers the most
// recent frame for observers such as the preview window.
type Service struct {
	capturer     Capturer
	logger       *slog.Logger
	latest       atomic.Pointer[Frame]
	captures     atomic.Uint64
	failures     atomic.Uint64
	captureNanos atomic.Uint64
	lastLog      atomic.Int64
}

// NewService returns a Service delegating to c.
func NewService(c Capturer, logger *slog.Logger) *Service {
	return &Service{capturer: c, logger: logger}
}

// Capture delegates to the wrapped capturer and records the outcome.
func (s *Service) Capture(h window.Handle) (*Frame, error) {
	start := time.Now()
	f, err := s.capturer.Capture(h)
	if err != nil {
		s.failures.Add(1)
		return nil, err
	}
	s.captureNanos.Add(uint64(time.Since(start).Nanoseconds()))
	s.captures.Add(1)
	s.latest.Store(f)
	s.maybeLogStats()
	return f, nil
}

// LatestFrame returns the last successful capture, or nil.
func (s *Service) LatestFrame() *Frame { return s.latest.Load() }

func (s *Service) Stats() Stats {
	captures := s.captures.Load()
	total := s.captureNanos.Load()
	var avg time.Duration
	avgMicros := 0.0
	if captures > 0 && total > 0 {
		avg = time.Duration(total / captures)
		avgMicros = float64(avg) / float64(time.Microsecond)
	}
	st := Stats{
		Captures:         captures,
		Failures:         s.failures.Load(),
		AvgCapture:       avg,
		AvgCaptureMicros: avgMicros,
	}
	if f := s.latest.Load(); f != nil && !f.CapturedAt.IsZero() {
		st.LastCapture = f.CapturedAt
		st.LatestFrameAge = time.Since(f.CapturedAt)
	}
	return st
}

func (s *Service) maybeLogStats() {
	if s.logger == nil {
		return
	}
	now := time.Now().UnixNano()
	last := s.lastLog.Load()
	if now-last < int64(captureStatsLogInterval) || !s.lastLog.CompareAndSwap(last, now) {
		return
	}
	stats := s.Stats()
	s.logger.Debug("capture.stats",
		"captures", stats.Captures,
		"failures", stats.Failures,
		"avg_capture", stats.AvgCapture,
	)
}
