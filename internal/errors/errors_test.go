package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	err := Wrap(fmt.Errorf("boom"), CodeCaptureFailed, "grab failed").WithMetadata("region", "50,50")
	s := err.Error()
	for _, want := range []string{"CAPTURE_FAILED", "grab failed", "region", "boom"} {
		if !strings.Contains(s, want) {
			t.Errorf("error string %q missing %q", s, want)
		}
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := Wrap(cause, CodeOCRFailed, "recognize failed")
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestCodeOf(t *testing.T) {
	if CodeOf(New(CodeStoreFailed, "x")) != CodeStoreFailed {
		t.Error("CodeOf should return the AppError code")
	}
	if CodeOf(fmt.Errorf("plain")) != CodeUnknown {
		t.Error("CodeOf should default to CodeUnknown")
	}
	wrapped := fmt.Errorf("outer: %w", New(CodeConfigInvalid, "bad"))
	if CodeOf(wrapped) != CodeConfigInvalid {
		t.Error("CodeOf should unwrap nested AppErrors")
	}
}

func TestIsRecoverable(t *testing.T) {
	if !IsRecoverable(New(CodeCaptureFailed, "x")) {
		t.Error("capture failures are recoverable")
	}
	if IsRecoverable(New(CodeConfigInvalid, "x")) {
		t.Error("config failures are not recoverable")
	}
	if IsRecoverable(fmt.Errorf("plain")) {
		t.Error("plain errors are not recoverable")
	}
}
