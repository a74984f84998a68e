//go:build windows

package app

import (
	"context"
	"log/slog"

	"github.com/moutend/go-hook/pkg/keyboard"
	"github.com/moutend/go-hook/pkg/types"
)

// WatchStopHotkey installs a global keyboard hook and calls stop when
// Shift+Esc is pressed. The hook is removed when ctx is done.
func WatchStopHotkey(ctx context.Context, logger *slog.Logger, stop func()) {
	events := make(chan types.KeyboardEvent, 64)
	if err := keyboard.Install(nil, events); err != nil {
		logger.Warn("stop hotkey unavailable", "error", err)
		return
	}
	logger.Info("stop hotkey installed", "keys", "shift+esc")
	go func() {
		defer keyboard.Uninstall()
		shift := false
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				switch {
				case ev.VKCode == types.VK_LSHIFT || ev.VKCode == types.VK_RSHIFT:
					shift = ev.Message == types.WM_KEYDOWN
				case ev.Message == types.WM_KEYDOWN && ev.VKCode == types.VK_ESCAPE && shift:
					logger.Info("stop hotkey pressed")
					stop()
					return
				}
			}
		}
	}()
}
