// Package ocr wraps the Tesseract recognition engine behind a small
// image-in, text-out contract.
package ocr

import (
	"bytes"
	"image"
	"image/png"
	"regexp"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/arclens/arclens/internal/errors"
)

// PageMode selects the engine's page segmentation strategy.
type PageMode int

const (
	// PageSingleLine expects exactly one line of text (trigger checks).
	PageSingleLine PageMode = iota
	// PageBlock expects a uniform block of text (tooltip bodies).
	PageBlock
)

// UppercaseWhitelist restricts recognition to capital letters, which is all
// the trigger word can contain.
const UppercaseWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Result is the outcome of one recognition call.
type Result struct {
	// Text is the cleaned recognized text, "" when nothing was read.
	Text string
	// Confidence is the mean per-word confidence, 0-100. 0 when no tokens.
	Confidence float64
	// RawText is the recognized text before artifact cleaning.
	RawText string
}

// Engine turns a bitmap into text.
type Engine interface {
	Recognize(img image.Image, mode PageMode, whitelist string) (Result, error)
	Close() error
}

var (
	artifactRe   = regexp.MustCompile(`[|\\/_]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Clean strips common recognition artifacts (stray separators and slashes)
// and collapses whitespace.
func Clean(text string) string {
	text = artifactRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Tesseract is the production Engine backed by gosseract. The underlying
// client holds native state, so calls are serialized.
type Tesseract struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseract creates the engine. tessdataPrefix may be "" to use the
// system default.
func NewTesseract(tessdataPrefix string) (*Tesseract, error) {
	client := gosseract.NewClient()
	if tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(tessdataPrefix); err != nil {
			_ = client.Close()
			return nil, errors.Wrap(err, errors.CodeConfigInvalid, "invalid tessdata prefix")
		}
	}
	if err := client.SetLanguage("eng"); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, errors.CodeConfigInvalid, "language data unavailable")
	}
	return &Tesseract{client: client}, nil
}

// Recognize runs one recognition pass and reports per-word confidence
// averaged into a single score.
func (t *Tesseract) Recognize(img image.Image, mode PageMode, whitelist string) (Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Result{}, errors.Wrap(err, errors.CodeInvalidImage, "encode image")
	}
	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return Result{}, errors.Wrap(err, errors.CodeOCRFailed, "set image")
	}

	psm := gosseract.PSM_SINGLE_LINE
	if mode == PageBlock {
		psm = gosseract.PSM_SINGLE_BLOCK
	}
	if err := t.client.SetPageSegMode(psm); err != nil {
		return Result{}, errors.Wrap(err, errors.CodeOCRFailed, "set page mode")
	}
	if err := t.client.SetWhitelist(whitelist); err != nil {
		return Result{}, errors.Wrap(err, errors.CodeOCRFailed, "set whitelist")
	}

	// Text preserves line breaks, which the tooltip parser depends on;
	// word boxes supply the per-token confidences. Tesseract recognizes
	// once and serves both from the same pass.
	raw, err := t.client.Text()
	if err != nil {
		return Result{}, errors.Wrap(err, errors.CodeOCRFailed, "recognize")
	}
	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return Result{}, errors.Wrap(err, errors.CodeOCRFailed, "word confidences")
	}

	return buildResult(raw, boxes), nil
}

// Close releases the native client.
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.Close()
}

func buildResult(raw string, boxes []gosseract.BoundingBox) Result {
	var (
		total float64
		n     int
	)
	for _, b := range boxes {
		if strings.TrimSpace(b.Word) == "" || b.Confidence <= 0 {
			continue
		}
		total += b.Confidence
		n++
	}

	raw = strings.TrimRight(raw, "\n")
	res := Result{Text: Clean(raw), RawText: raw}
	if n > 0 {
		res.Confidence = total / float64(n)
	}
	return res
}
