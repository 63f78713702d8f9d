//go:build windows

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

type windowsBackend struct{ tempDir string }

// captureRaw grabs a region through .NET CopyFromScreen. Slower than a GDI
// binding but dependency-free, and the scan cadence tolerates it.
func (w *windowsBackend) captureRaw(r image.Rectangle) ([]byte, error) {
	tmpFile := filepath.Join(w.tempDir, "capture.png")
	script := fmt.Sprintf(`Add-Type -AssemblyName System.Drawing;`+
		`$bmp = New-Object System.Drawing.Bitmap %d, %d;`+
		`$g = [System.Drawing.Graphics]::FromImage($bmp);`+
		`$g.CopyFromScreen(%d, %d, 0, 0, $bmp.Size);`+
		`$bmp.Save('%s', [System.Drawing.Imaging.ImageFormat]::Png);`+
		`$g.Dispose(); $bmp.Dispose()`,
		r.Dx(), r.Dy(), r.Min.X, r.Min.Y, tmpFile)

	cmd := exec.Command("powershell", "-NoProfile", "-Command", script)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("powershell capture failed: %w (%s)", err, stderr.String())
	}
	data, err := os.ReadFile(tmpFile)
	if err != nil {
		return nil, err
	}
	os.Remove(tmpFile)
	return data, nil
}

func (w *windowsBackend) cursorPosition() (image.Point, error) {
	out, err := exec.Command("powershell", "-NoProfile", "-Command",
		`Add-Type -AssemblyName System.Windows.Forms;`+
			`$p = [System.Windows.Forms.Cursor]::Position;`+
			`Write-Output "$($p.X) $($p.Y)"`).Output()
	if err != nil {
		return image.Point{}, fmt.Errorf("cursor query failed: %w", err)
	}
	return parsePoint(string(out))
}

func (w *windowsBackend) screenSize() (image.Point, error) {
	out, err := exec.Command("powershell", "-NoProfile", "-Command",
		`Add-Type -AssemblyName System.Windows.Forms;`+
			`$b = [System.Windows.Forms.Screen]::PrimaryScreen.Bounds;`+
			`Write-Output "$($b.Width) $($b.Height)"`).Output()
	if err != nil {
		return image.Point{}, fmt.Errorf("screen query failed: %w", err)
	}
	return parsePoint(string(out))
}

func parsePoint(s string) (image.Point, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return image.Point{}, fmt.Errorf("unexpected output %q", s)
	}
	x, err := strconv.Atoi(fields[0])
	if err != nil {
		return image.Point{}, err
	}
	y, err := strconv.Atoi(fields[1])
	if err != nil {
		return image.Point{}, err
	}
	return image.Pt(x, y), nil
}

func (w *windowsBackend) cleanup() {}

// New creates a platform-specific screen capturer
func New() Capturer {
	tmpDir, err := os.MkdirTemp("", "arclens-capture-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		tmpDir = os.TempDir()
	}
	return newBase(&windowsBackend{tempDir: tmpDir}, tmpDir)
}
