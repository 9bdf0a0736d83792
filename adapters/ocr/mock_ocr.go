package ocr

import (
	"context"
	"sync"

	"github.com/shiksha-ai/server/domain/repositories"
)

// MockOCR is a TextRecognizer returning a fixed payload, used in development
// when Tesseract is not installed and in tests.
type MockOCR struct {
	mu        sync.Mutex
	Payload   *repositories.OCRPayload
	Err       error
	Calls     int
	Languages [][]string
}

// Ensure MockOCR implements the TextRecognizer interface
var _ repositories.TextRecognizer = (*MockOCR)(nil)

// NewMockOCR creates a recognizer that always reads text.
func NewMockOCR(text string) *MockOCR {
	conf := 90.0
	return &MockOCR{Payload: &repositories.OCRPayload{Text: text, MeanConfidence: &conf}}
}

func (m *MockOCR) Recognize(ctx context.Context, image []byte, languages []string) (*repositories.OCRPayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.Languages = append(m.Languages, languages)
	if m.Err != nil {
		return nil, m.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.Payload, nil
}

// CallCount is safe for concurrent use.
func (m *MockOCR) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}
