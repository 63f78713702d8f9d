//go:build darwin

package capture

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

type darwinBackend struct{ tempDir string }

func (d *darwinBackend) captureRaw(r image.Rectangle) ([]byte, error) {
	tmpFile := filepath.Join(d.tempDir, "capture.png")
	region := fmt.Sprintf("%d,%d,%d,%d", r.Min.X, r.Min.Y, r.Dx(), r.Dy())
	cmd := exec.Command("screencapture", "-x", "-t", "png", "-R", region, tmpFile)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("screencapture failed: %w (%s)", err, stderr.String())
	}
	data, err := os.ReadFile(tmpFile)
	if err != nil {
		return nil, err
	}
	os.Remove(tmpFile)
	return data, nil
}

func (d *darwinBackend) cursorPosition() (image.Point, error) {
	// cliclick is the only common CLI that reports the cursor location.
	out, err := exec.Command("cliclick", "p").Output()
	if err != nil {
		return image.Point{}, fmt.Errorf("cursor position unavailable (install cliclick): %w", err)
	}
	parts := strings.Split(strings.TrimSpace(string(out)), ",")
	if len(parts) != 2 {
		return image.Point{}, fmt.Errorf("unexpected cliclick output %q", string(out))
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return image.Point{}, err
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return image.Point{}, err
	}
	return image.Pt(x, y), nil
}

func (d *darwinBackend) screenSize() (image.Point, error) {
	out, err := exec.Command("system_profiler", "SPDisplaysDataType").Output()
	if err != nil {
		return image.Point{}, err
	}
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Resolution:") {
			continue
		}
		fields := strings.Fields(line)
		// "Resolution: 2560 x 1440"
		if len(fields) >= 4 {
			w, werr := strconv.Atoi(fields[1])
			h, herr := strconv.Atoi(fields[3])
			if werr == nil && herr == nil {
				return image.Pt(w, h), nil
			}
		}
	}
	return image.Point{}, fmt.Errorf("resolution not found in display data")
}

func (d *darwinBackend) cleanup() {}

// New creates a platform-specific screen capturer
func New() Capturer {
	tmpDir, err := os.MkdirTemp("", "arclens-capture-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		tmpDir = os.TempDir()
	}
	return newBase(&darwinBackend{tempDir: tmpDir}, tmpDir)
}
