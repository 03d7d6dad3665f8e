// Package capture grabs screenshots of the primary display for analysis.
// Images live only in memory; nothing is left on disk after a capture.
package capture

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Capturer produces a single screenshot as encoded image bytes.
type Capturer interface {
	Capture(ctx context.Context) ([]byte, error)
}

// ScreenCapturer shells out to the platform screenshot tool. The tool writes
// to a temp file which is read and removed before Capture returns.
type ScreenCapturer struct {
	// Command overrides the platform default. "%s" is replaced with the
	// output path.
	Command string
}

// NewScreenCapturer creates a capturer with an optional command override.
func NewScreenCapturer(command string) *ScreenCapturer {
	return &ScreenCapturer{Command: command}
}

// Capture takes one screenshot of the primary display.
func (c *ScreenCapturer) Capture(ctx context.Context) ([]byte, error) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("attune-%s.png", uuid.New().String()))
	defer os.Remove(path)

	argv, err := c.commandFor(path)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("screenshot command %q: %w: %s", argv[0], err, strings.TrimSpace(string(out)))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read screenshot: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("screenshot command produced an empty file")
	}

	log.Debug().
		Int("bytes", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("Screenshot captured")

	return data, nil
}

func (c *ScreenCapturer) commandFor(path string) ([]string, error) {
	if c.Command != "" {
		argv := strings.Fields(strings.ReplaceAll(c.Command, "%s", path))
		if len(argv) == 0 {
			return nil, fmt.Errorf("empty capture command")
		}
		return argv, nil
	}

	switch runtime.GOOS {
	case "darwin":
		return []string{"screencapture", "-x", "-t", "png", path}, nil
	case "linux":
		if _, err := exec.LookPath("gnome-screenshot"); err == nil {
			return []string{"gnome-screenshot", "-f", path}, nil
		}
		if _, err := exec.LookPath("import"); err == nil {
			return []string{"import", "-window", "root", path}, nil
		}
		return nil, fmt.Errorf("no screenshot tool found (tried gnome-screenshot, import)")
	default:
		return nil, fmt.Errorf("screen capture not supported on %s", runtime.GOOS)
	}
}
