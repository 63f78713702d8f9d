//go:build linux

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

type linuxBackend struct{ tempDir string }

func (l *linuxBackend) captureRaw(r image.Rectangle) ([]byte, error) {
	tmpFile := filepath.Join(l.tempDir, "capture.png")
	geometry := fmt.Sprintf("%dx%d+%d+%d", r.Dx(), r.Dy(), r.Min.X, r.Min.Y)

	// Prefer maim for region grabs, fall back to ImageMagick import.
	var cmd *exec.Cmd
	if _, err := exec.LookPath("maim"); err == nil {
		cmd = exec.Command("maim", "-g", geometry, tmpFile)
	} else if _, err := exec.LookPath("import"); err == nil {
		cmd = exec.Command("import", "-window", "root", "-crop", geometry, tmpFile)
	} else {
		return nil, fmt.Errorf("no screenshot tool found (install maim or imagemagick)")
	}

	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("screenshot failed: %w (%s)", err, stderr.String())
	}
	data, err := os.ReadFile(tmpFile)
	if err != nil {
		return nil, err
	}
	os.Remove(tmpFile)
	return data, nil
}

func (l *linuxBackend) cursorPosition() (image.Point, error) {
	out, err := exec.Command("xdotool", "getmouselocation", "--shell").Output()
	if err != nil {
		return image.Point{}, fmt.Errorf("xdotool getmouselocation: %w", err)
	}
	var pt image.Point
	for _, line := range strings.Split(string(out), "\n") {
		if v, ok := strings.CutPrefix(line, "X="); ok {
			pt.X, _ = strconv.Atoi(strings.TrimSpace(v))
		}
		if v, ok := strings.CutPrefix(line, "Y="); ok {
			pt.Y, _ = strconv.Atoi(strings.TrimSpace(v))
		}
	}
	return pt, nil
}

func (l *linuxBackend) screenSize() (image.Point, error) {
	out, err := exec.Command("xdotool", "getdisplaygeometry").Output()
	if err != nil {
		return image.Point{}, fmt.Errorf("xdotool getdisplaygeometry: %w", err)
	}
	fields := strings.Fields(string(out))
	if len(fields) != 2 {
		return image.Point{}, fmt.Errorf("unexpected geometry output %q", string(out))
	}
	w, err := strconv.Atoi(fields[0])
	if err != nil {
		return image.Point{}, err
	}
	h, err := strconv.Atoi(fields[1])
	if err != nil {
		return image.Point{}, err
	}
	return image.Pt(w, h), nil
}

func (l *linuxBackend) cleanup() {}

// New creates a platform-specific screen capturer
func New() Capturer {
	tmpDir, err := os.MkdirTemp("", "arclens-capture-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		tmpDir = os.TempDir()
	}
	return newBase(&linuxBackend{tempDir: tmpDir}, tmpDir)
}
