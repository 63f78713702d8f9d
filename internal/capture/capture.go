// Package capture provides platform-agnostic screen capture, cursor and
// display queries
package capture

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"os"

	"github.com/arclens/arclens/internal/errors"
)

// Capturer grabs screen regions and reports cursor/display geometry.
type Capturer interface {
	// CaptureRegion grabs the given screen rectangle.
	CaptureRegion(r image.Rectangle) (image.Image, error)
	// CursorPosition returns the cursor location in physical pixels.
	CursorPosition() (image.Point, error)
	// ScreenSize returns the primary display resolution.
	ScreenSize() (image.Point, error)
	Close()
}

// backend implements platform-specific raw operations returning encoded
// image bytes.
type backend interface {
	captureRaw(r image.Rectangle) ([]byte, error)
	cursorPosition() (image.Point, error)
	screenSize() (image.Point, error)
	cleanup()
}

// baseCapturer decodes backend output and owns the temp directory.
type baseCapturer struct {
	backend
	tempDir string
}

func newBase(b backend, tempDir string) *baseCapturer {
	return &baseCapturer{backend: b, tempDir: tempDir}
}

func (c *baseCapturer) CaptureRegion(r image.Rectangle) (image.Image, error) {
	if r.Empty() {
		return nil, errors.New(errors.CodeCaptureFailed, "empty capture rectangle")
	}
	data, err := c.captureRaw(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCaptureFailed, "screen grab failed")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCaptureFailed, "decode screenshot")
	}
	return img, nil
}

func (c *baseCapturer) CursorPosition() (image.Point, error) {
	return c.cursorPosition()
}

func (c *baseCapturer) ScreenSize() (image.Point, error) {
	return c.screenSize()
}

func (c *baseCapturer) Close() {
	c.cleanup()
	if c.tempDir != "" {
		os.RemoveAll(c.tempDir)
	}
}

// Blank returns a black placeholder image, substituted when a grab fails so
// downstream stages always receive a well-formed frame.
func Blank(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{A: 255})
		}
	}
	return img
}
