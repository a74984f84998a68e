//go:build !windows

package app

import (
	"context"
	"log/slog"
)

// WatchStopHotkey is only available on Windows; elsewhere use Ctrl+C.
func WatchStopHotkey(_ context.Context, logger *slog.Logger, _ func()) {
	logger.Debug("stop hotkey not supported on this platform")
}
