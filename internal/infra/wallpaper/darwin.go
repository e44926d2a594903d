package wallpaper

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/jgreely/genaistuff/internal/domain"
	"github.com/jgreely/genaistuff/internal/ports"
)

// OSASetter sets macOS wallpapers through osascript. Setting fails if
// the desktop is configured to rotate pictures on its own.
type OSASetter struct{}

var _ ports.WallpaperSetter = OSASetter{}

// SetWallpaper points the given desktop at path. Displays are 0-based
// here, 1-based in AppleScript.
func (OSASetter) SetWallpaper(ctx context.Context, path string, display int) error {
	script := fmt.Sprintf(
		`tell application "System Events" to tell desktop %d to set picture to %q`,
		display+1, path)
	out, err := exec.CommandContext(ctx, "osascript", "-e", script).CombinedOutput()
	if err != nil {
		return &domain.OpError{
			Op:   "wallpaper.set",
			Kind: domain.KindExecution,
			Path: path,
			Err:  fmt.Errorf("osascript: %v: %s", err, strings.TrimSpace(string(out))),
		}
	}
	return nil
}

// ProfilerCounter counts connected displays with system_profiler.
type ProfilerCounter struct{}

var _ ports.DisplayCounter = ProfilerCounter{}

// DisplayCount parses the displays data type and counts resolution
// lines, one per connected display. Failures report a single display
// rather than an error.
func (ProfilerCounter) DisplayCount(ctx context.Context) (int, error) {
	out, err := exec.CommandContext(ctx, "system_profiler", "SPDisplaysDataType").Output()
	if err != nil {
		return 1, nil
	}
	n := strings.Count(string(out), "Resolution:")
	if n < 1 {
		n = 1
	}
	return n, nil
}
