package repositories

import "context"

// TextRecognizer abstracts OCR engines
type TextRecognizer interface {
	// Recognize extracts text from an encoded image using the given engine
	// language models, e.g. "hin".
	Recognize(ctx context.Context, image []byte, languages []string) (*OCRPayload, error)
}

// OCRPayload is the engine response. A nil MeanConfidence means the engine
// did not report a page level score.
type OCRPayload struct {
	Text             string
	MeanConfidence   *float64
	Words            []OCRPayloadWord
	DetectedLanguage string
}

// OCRPayloadWord is a recognized word with its pixel box.
type OCRPayloadWord struct {
	Text       string
	Confidence float64
	X0, Y0     int
	X1, Y1     int
}
