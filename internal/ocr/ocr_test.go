package ocr

import (
	"testing"

	"github.com/otiai10/gosseract/v2"
)

func TestClean(t *testing.T) {
	cases := []struct{ in, want string }{
		{"INVENTORY|", "INVENTORY"},
		{"/STEEL_ PLATE\\", "STEEL PLATE"},
		{"  spaced   out  ", "spaced out"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Clean(tc.in); got != tc.want {
			t.Errorf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildResult(t *testing.T) {
	boxes := []gosseract.BoundingBox{
		{Word: "ADVANCED", Confidence: 90},
		{Word: "ELECTRICAL", Confidence: 80},
		{Word: " ", Confidence: 99}, // whitespace tokens are ignored
		{Word: "junk", Confidence: 0},
	}
	res := buildResult("ADVANCED ELECTRICAL\nCOMPONENTS\n\n", boxes)

	if res.RawText != "ADVANCED ELECTRICAL\nCOMPONENTS" {
		t.Errorf("RawText = %q", res.RawText)
	}
	if res.Text != "ADVANCED ELECTRICAL COMPONENTS" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Confidence != 85 {
		t.Errorf("Confidence = %f, want 85", res.Confidence)
	}
}

func TestBuildResultNoTokens(t *testing.T) {
	res := buildResult("", nil)
	if res.Confidence != 0 {
		t.Errorf("Confidence = %f, want 0", res.Confidence)
	}
	if res.Text != "" || res.RawText != "" {
		t.Errorf("expected empty texts, got %+v", res)
	}
}
