package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os/exec"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/shiksha-ai/server/internal/apperr"
)

// ensureTesseractAvailable checks that the tesseract binary is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func TestClassifyTextError(t *testing.T) {
	err := classifyTextError(errors.New("PixImage is not set, use SetImage or SetImageFromBytes before Text or HOCRText"))
	if apperr.KindOf(err) != apperr.UpstreamInputRejected {
		t.Errorf("Expected undecodable image to be input rejected, got %v", err)
	}
	if apperr.Message(err) != "The image could not be read" {
		t.Errorf("Unexpected message %q", apperr.Message(err))
	}

	err = classifyTextError(errors.New("failed to initialize TessBaseAPI with code -1: missing eng.traineddata"))
	if apperr.KindOf(err) != apperr.Internal {
		t.Errorf("Expected engine failure to stay internal, got %v", err)
	}
}

func TestTesseractOCR_RejectsUndecodableImage(t *testing.T) {
	ensureTesseractAvailable(t)

	r := NewTesseractOCR(TesseractConfig{}, zaptest.NewLogger(t))
	_, err := r.Recognize(context.Background(), []byte("\x89PNG\r\n\x1a\nnot really a png"), []string{"eng"})
	if apperr.KindOf(err) != apperr.UpstreamInputRejected {
		t.Errorf("Expected input rejected, got %v", err)
	}
}

func TestTesseractOCR_BlankPage(t *testing.T) {
	ensureTesseractAvailable(t)

	img := image.NewRGBA(image.Rect(0, 0, 200, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	r := NewTesseractOCR(TesseractConfig{}, zaptest.NewLogger(t))
	payload, err := r.Recognize(context.Background(), buf.Bytes(), []string{"eng"})
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if payload == nil {
		t.Fatal("Expected a payload")
	}
}
