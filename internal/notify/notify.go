// Package notify delivers desktop notifications for nudges. Delivery is best
// effort; a missing notification tool never fails a monitoring tick.
package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/rs/zerolog/log"
)

// Notifier shows a message to the user.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// DesktopNotifier uses the platform notification tool.
type DesktopNotifier struct{}

// NewDesktopNotifier creates a desktop notifier.
func NewDesktopNotifier() *DesktopNotifier {
	return &DesktopNotifier{}
}

// Notify shows a desktop notification.
func (n *DesktopNotifier) Notify(ctx context.Context, title, message string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q sound name \"Glass\"", message, title)
		cmd = exec.CommandContext(ctx, "osascript", "-e", script)
	case "linux":
		cmd = exec.CommandContext(ctx, "notify-send", "--urgency=normal", title, message)
	default:
		log.Warn().Str("os", runtime.GOOS).Msg("Desktop notifications not supported, nudge logged only")
		return nil
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("notification command: %w", err)
	}
	return nil
}

// NopNotifier discards notifications. Used in tests and headless setups.
type NopNotifier struct{}

// Notify does nothing.
func (NopNotifier) Notify(ctx context.Context, title, message string) error { return nil }
