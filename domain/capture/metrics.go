package capture

import "time"

// Stats summarises capture behaviour for instrumentation.
type Stats struct {
	Captures         uint64
	Failures         uint64
	AvgCapture       time.Duration
	AvgCaptureMicros float64
	LastCapture      time.Time
	LatestFrameAge   time.Duration
}
