package preprocess

import (
	"image"
	"image/color"
	"testing"
)

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func TestTriggerBinarizes(t *testing.T) {
	// Light glyphs on a dark background, the way the game renders the
	// trigger word.
	img := image.NewRGBA(image.Rect(0, 0, 10, 6))
	fill(img, img.Bounds(), color.RGBA{30, 30, 30, 255})
	fill(img, image.Rect(3, 2, 7, 4), color.RGBA{220, 220, 220, 255})

	out := Trigger(img)

	if out.Bounds().Dx() != 20 || out.Bounds().Dy() != 12 {
		t.Fatalf("expected 20x12 output, got %v", out.Bounds())
	}
	for _, v := range out.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("output is not two-level: found %d", v)
		}
	}
	// Glyph inverts to black, background to white.
	if out.GrayAt(9, 6).Y != 0 {
		t.Error("glyph interior should be black after invert+threshold")
	}
	if out.GrayAt(1, 1).Y != 255 {
		t.Error("background should be white after invert+threshold")
	}
}

func TestTooltipBlankFallback(t *testing.T) {
	// No pixel is inside the cream band: the result must be a deterministic
	// all-white placeholder at twice the input size, whatever the content.
	a := image.NewRGBA(image.Rect(0, 0, 40, 30))
	fill(a, a.Bounds(), color.RGBA{10, 80, 10, 255})
	b := image.NewRGBA(image.Rect(0, 0, 40, 30))
	fill(b, b.Bounds(), color.RGBA{120, 0, 200, 255})

	for _, img := range []*image.RGBA{a, b} {
		out := Tooltip(img)
		if out.Bounds().Dx() != 80 || out.Bounds().Dy() != 60 {
			t.Fatalf("expected 80x60 fallback, got %v", out.Bounds())
		}
		for _, v := range out.Pix {
			if v != 255 {
				t.Fatal("fallback must be all white")
			}
		}
	}
}

func TestTooltipExtractsDarkText(t *testing.T) {
	cream := color.RGBA{249, 238, 223, 255}
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	fill(img, img.Bounds(), color.RGBA{10, 80, 10, 255})
	// Tooltip panel.
	fill(img, image.Rect(4, 5, 36, 25), cream)
	// Item name text block.
	fill(img, image.Rect(6, 8, 14, 11), color.RGBA{10, 10, 10, 255})

	out := Tooltip(img)

	if out.Bounds().Dx() == 80 && out.Bounds().Dy() == 60 {
		t.Fatal("got blank fallback, expected a cropped tooltip")
	}
	// Interior of the text block survives as dark pixels.
	if out.GrayAt(12, 8).Y >= 128 {
		t.Error("text interior should be dark")
	}
	// Cream area away from the text is white.
	if out.GrayAt(out.Bounds().Dx()-4, out.Bounds().Dy()-4).Y != 255 {
		t.Error("background inside the tooltip should be white")
	}
}

func TestTooltipSuppressesTagRows(t *testing.T) {
	cream := color.RGBA{249, 238, 223, 255}
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	fill(img, img.Bounds(), color.RGBA{10, 80, 10, 255})
	fill(img, image.Rect(4, 5, 36, 25), cream)
	// Saturated tag chip spanning most of a row, with dark label text on it.
	fill(img, image.Rect(5, 13, 31, 14), color.RGBA{60, 160, 200, 255})
	img.SetRGBA(8, 13, color.RGBA{20, 20, 20, 255})
	img.SetRGBA(9, 13, color.RGBA{20, 20, 20, 255})

	out := Tooltip(img)

	// The tag row maps to y=16..17 in the 2x output; it must contain no
	// dark pixels because the whole row is excluded.
	for y := 16; y <= 17; y++ {
		for x := 0; x < out.Bounds().Dx(); x++ {
			if out.GrayAt(x, y).Y < 128 {
				t.Fatalf("tag row leaked dark pixel at (%d,%d)", x, y)
			}
		}
	}
}

func TestTooltipDoesNotMutateInput(t *testing.T) {
	cream := color.RGBA{249, 238, 223, 255}
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	fill(img, img.Bounds(), cream)
	before := make([]uint8, len(img.Pix))
	copy(before, img.Pix)

	_ = Tooltip(img)

	for i := range before {
		if img.Pix[i] != before[i] {
			t.Fatal("input image was mutated")
		}
	}
}
