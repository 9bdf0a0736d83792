package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"

	"github.com/shiksha-ai/server/domain/repositories"
	"github.com/shiksha-ai/server/internal/apperr"
)

// TesseractConfig holds configuration for the Tesseract adapter
type TesseractConfig struct {
	// TessdataPrefix overrides the directory holding *.traineddata files.
	TessdataPrefix string
	// PageSegMode is passed to Tesseract as is; zero keeps the engine default.
	PageSegMode int
}

// TesseractOCR implements TextRecognizer with a local Tesseract install.
// A fresh client is created per call since gosseract clients are not safe
// for concurrent use.
type TesseractOCR struct {
	config        TesseractConfig
	clientFactory func() *gosseract.Client
	logger        *zap.Logger
}

// Ensure TesseractOCR implements the TextRecognizer interface
var _ repositories.TextRecognizer = (*TesseractOCR)(nil)

// NewTesseractOCR creates a Tesseract backed recognizer
func NewTesseractOCR(config TesseractConfig, logger *zap.Logger) *TesseractOCR {
	if config.TessdataPrefix == "" {
		logger.Info("Using default tessdata location")
	}
	return &TesseractOCR{
		config:        config,
		clientFactory: gosseract.NewClient,
		logger:        logger,
	}
}

type recognition struct {
	payload *repositories.OCRPayload
	err     error
}

// Recognize runs OCR on image with the given Tesseract language models.
// The engine call cannot be interrupted, so on cancellation the result is
// discarded and the context error returned.
func (t *TesseractOCR) Recognize(ctx context.Context, image []byte, languages []string) (*repositories.OCRPayload, error) {
	done := make(chan recognition, 1)
	go func() {
		payload, err := t.recognize(image, languages)
		done <- recognition{payload: payload, err: err}
	}()

	select {
	case <-ctx.Done():
		t.logger.Warn("OCR cancelled", zap.Error(ctx.Err()))
		return nil, ctx.Err()
	case r := <-done:
		return r.payload, r.err
	}
}

// classifyTextError separates images leptonica could not decode from engine
// failures. gosseract defers decoding to Text, which then reports a missing
// Pix image.
func classifyTextError(err error) error {
	if strings.Contains(strings.ToLower(err.Error()), "piximage") {
		return apperr.Wrap(err, apperr.UpstreamInputRejected, "The image could not be read")
	}
	return fmt.Errorf("recognize text: %w", err)
}

func (t *TesseractOCR) recognize(image []byte, languages []string) (*repositories.OCRPayload, error) {
	c := t.clientFactory()
	defer c.Close()

	if t.config.TessdataPrefix != "" {
		c.TessdataPrefix = t.config.TessdataPrefix
	}
	if len(languages) > 0 {
		if err := c.SetLanguage(languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if t.config.PageSegMode > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(t.config.PageSegMode)); err != nil {
			return nil, fmt.Errorf("set page segmentation mode: %w", err)
		}
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return nil, apperr.Wrap(err, apperr.UpstreamInputRejected, "The image could not be read")
	}

	text, err := c.Text()
	if err != nil {
		return nil, classifyTextError(err)
	}

	payload := &repositories.OCRPayload{Text: text}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		t.logger.Warn("Failed to read word boxes", zap.Error(err))
		return payload, nil
	}
	payload.Words = make([]repositories.OCRPayloadWord, 0, len(boxes))
	for _, b := range boxes {
		payload.Words = append(payload.Words, repositories.OCRPayloadWord{
			Text:       b.Word,
			Confidence: b.Confidence,
			X0:         b.Box.Min.X,
			Y0:         b.Box.Min.Y,
			X1:         b.Box.Max.X,
			Y1:         b.Box.Max.Y,
		})
	}

	t.logger.Debug("OCR completed",
		zap.Strings("languages", languages),
		zap.Int("words", len(payload.Words)))
	return payload, nil
}
