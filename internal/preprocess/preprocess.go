// Package preprocess conditions screen captures for text recognition
package preprocess

import (
	"image"
	"image/draw"

	"github.com/nfnt/resize"
)

const (
	upscaleFactor   = 2
	binaryThreshold = 128
)

// Tooltip background is #f9eedf; the band tolerates anti-aliasing.
const (
	creamRMin, creamRMax = 240, 255
	creamGMin, creamGMax = 225, 250
	creamBMin, creamBMax = 210, 240
)

const (
	rowCreamFraction = 0.5
	colCreamFraction = 0.3
	tightColFraction = 0.5

	colorSpreadMin = 30
	colorMaxLow    = 80
	colorMaxHigh   = 240
	tagRowFraction = 0.05

	darkTextMax = 100
)

// Trigger prepares a capture of the trigger region for recognition:
// grayscale, 2x upscale, invert (the UI renders light glyphs on a dark
// background) and a hard threshold.
func Trigger(img image.Image) *image.Gray {
	gray := toGray(img)
	gray = upscale(gray)
	for i, v := range gray.Pix {
		inv := 255 - v
		if inv > binaryThreshold {
			gray.Pix[i] = 255
		} else {
			gray.Pix[i] = 0
		}
	}
	return gray
}

// Tooltip isolates the cream tooltip panel from a cursor-area capture and
// returns a binarized image holding only its dark text. Colored tag chips
// are suppressed row-wise. When no tooltip is present the result is an
// all-white image of exactly twice the input dimensions.
func Tooltip(img image.Image) *image.Gray {
	rgba := toRGBA(img)
	b := rgba.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return blank(w, h)
	}

	cream := creamMask(rgba)

	// Coarse crop: rows that are mostly cream, then columns within them.
	rows := fractionIndexes(rowFractions(cream, w, h), rowCreamFraction)
	cols := fractionIndexes(colFractions(cream, w, h, 0, h), colCreamFraction)
	if len(rows) == 0 || len(cols) == 0 {
		return blank(w, h)
	}
	y0, y1 := rows[0], rows[len(rows)-1]
	x0, x1 := cols[0], cols[len(cols)-1]
	if y1 <= y0 || x1 <= x0 {
		return blank(w, h)
	}

	// Tight crop: trims the colored panel border on the left and right.
	tight := fractionIndexes(subColFractions(cream, w, x0, x1, y0, y1), tightColFraction)
	if len(tight) == 0 {
		return blank(w, h)
	}
	tx0, tx1 := x0+tight[0], x0+tight[len(tight)-1]
	if tx1 <= tx0 {
		return blank(w, h)
	}

	tw, th := tx1-tx0, y1-y0
	out := image.NewGray(image.Rect(0, 0, tw, th))
	for i := range out.Pix {
		out.Pix[i] = 255
	}

	for ty := 0; ty < th; ty++ {
		sy := y0 + ty
		colored := 0
		for tx := 0; tx < tw; tx++ {
			if isColored(rgba, tx0+tx, sy) {
				colored++
			}
		}
		// Tag chips occupy whole rows; drop the row rather than trying to
		// carve the chip out of it.
		if float64(colored)/float64(tw) > tagRowFraction {
			continue
		}
		for tx := 0; tx < tw; tx++ {
			if isDark(rgba, tx0+tx, sy) {
				out.Pix[ty*out.Stride+tx] = 0
			}
		}
	}

	return upscale(out)
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		out := image.NewGray(g.Bounds())
		copy(out.Pix, g.Pix)
		return out
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func toRGBA(img image.Image) *image.RGBA {
	if r, ok := img.(*image.RGBA); ok && r.Bounds().Min == image.Pt(0, 0) {
		return r
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func upscale(g *image.Gray) *image.Gray {
	b := g.Bounds()
	scaled := resize.Resize(uint(b.Dx()*upscaleFactor), uint(b.Dy()*upscaleFactor), g, resize.Bilinear)
	if out, ok := scaled.(*image.Gray); ok {
		return out
	}
	return toGray(scaled)
}

func blank(w, h int) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, w*upscaleFactor, h*upscaleFactor))
	for i := range out.Pix {
		out.Pix[i] = 255
	}
	return out
}

func rgbAt(img *image.RGBA, x, y int) (uint8, uint8, uint8) {
	i := img.PixOffset(x, y)
	return img.Pix[i], img.Pix[i+1], img.Pix[i+2]
}

func creamMask(img *image.RGBA) []bool {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	mask := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl := rgbAt(img, x, y)
			mask[y*w+x] = r >= creamRMin && r <= creamRMax &&
				g >= creamGMin && g <= creamGMax &&
				bl >= creamBMin && bl <= creamBMax
		}
	}
	return mask
}

func rowFractions(mask []bool, w, h int) []float64 {
	fr := make([]float64, h)
	for y := 0; y < h; y++ {
		n := 0
		for x := 0; x < w; x++ {
			if mask[y*w+x] {
				n++
			}
		}
		fr[y] = float64(n) / float64(w)
	}
	return fr
}

func colFractions(mask []bool, w, h, y0, y1 int) []float64 {
	if y1 == 0 {
		y1 = h
	}
	fr := make([]float64, w)
	rows := y1 - y0
	for x := 0; x < w; x++ {
		n := 0
		for y := y0; y < y1; y++ {
			if mask[y*w+x] {
				n++
			}
		}
		fr[x] = float64(n) / float64(rows)
	}
	return fr
}

// subColFractions computes per-column cream fractions within the coarse crop.
func subColFractions(mask []bool, w, x0, x1, y0, y1 int) []float64 {
	fr := make([]float64, x1-x0)
	rows := y1 - y0
	for x := x0; x < x1; x++ {
		n := 0
		for y := y0; y < y1; y++ {
			if mask[y*w+x] {
				n++
			}
		}
		fr[x-x0] = float64(n) / float64(rows)
	}
	return fr
}

func fractionIndexes(fr []float64, min float64) []int {
	var idx []int
	for i, f := range fr {
		if f > min {
			idx = append(idx, i)
		}
	}
	return idx
}

// isColored flags saturated tag-chip pixels: a wide channel spread with a
// peak that is neither near-black text nor near-white background.
func isColored(img *image.RGBA, x, y int) bool {
	r, g, b := rgbAt(img, x, y)
	maxC := max(r, max(g, b))
	minC := min(r, min(g, b))
	return int(maxC)-int(minC) > colorSpreadMin && maxC > colorMaxLow && maxC < colorMaxHigh
}

func isDark(img *image.RGBA, x, y int) bool {
	r, g, b := rgbAt(img, x, y)
	return r < darkTextMax && g < darkTextMax && b < darkTextMax
}
