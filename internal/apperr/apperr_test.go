package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{ValidationFailure, http.StatusBadRequest},
		{UnsupportedLanguage, http.StatusBadRequest},
		{UnsupportedFormat, http.StatusBadRequest},
		{PayloadTooLarge, http.StatusBadRequest},
		{UpstreamQuotaExceeded, http.StatusTooManyRequests},
		{UpstreamInputRejected, http.StatusBadRequest},
		{SessionExpired, http.StatusUnauthorized},
		{NotFound, http.StatusNotFound},
		{Unimplemented, http.StatusNotImplemented},
		{Internal, http.StatusInternalServerError},
		{Kind("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := tt.kind.Status(); got != tt.want {
			t.Errorf("%s: expected status %d, got %d", tt.kind, tt.want, got)
		}
	}
}

func TestKindOfWrappedChain(t *testing.T) {
	base := E(UpstreamQuotaExceeded, "Speech quota exceeded")
	wrapped := fmt.Errorf("transcribe: %w", base)

	if KindOf(wrapped) != UpstreamQuotaExceeded {
		t.Errorf("Expected kind %s, got %s", UpstreamQuotaExceeded, KindOf(wrapped))
	}
	if StatusCode(wrapped) != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", StatusCode(wrapped))
	}
	if Message(wrapped) != "Speech quota exceeded" {
		t.Errorf("Unexpected message: %s", Message(wrapped))
	}
}

func TestUnclassifiedErrorIsInternal(t *testing.T) {
	err := errors.New("connection reset by peer")

	if KindOf(err) != Internal {
		t.Errorf("Expected Internal, got %s", KindOf(err))
	}
	if Message(err) != "Internal server error" {
		t.Errorf("Unclassified errors must not leak their text, got %q", Message(err))
	}
	if Detail(err) != "connection reset by peer" {
		t.Errorf("Expected raw detail, got %q", Detail(err))
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("tesseract: cannot read image")
	err := Wrap(cause, UpstreamInputRejected, "Invalid image")

	if !errors.Is(err, cause) {
		t.Error("Expected wrapped error to unwrap to cause")
	}
	if Detail(err) != cause.Error() {
		t.Errorf("Expected detail %q, got %q", cause.Error(), Detail(err))
	}
	if !Is(err, UpstreamInputRejected) {
		t.Error("Expected Is to match kind")
	}
	if Is(nil, UpstreamInputRejected) {
		t.Error("nil error must not match any kind")
	}
}
