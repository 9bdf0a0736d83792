package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/domain/repositories"
	"github.com/shiksha-ai/server/internal/normalize"
)

// OCRService extracts text from images
type OCRService struct {
	recognizer repositories.TextRecognizer
	history    *HistoryService
	logger     *zap.Logger
}

// NewOCRService creates a new OCR service
func NewOCRService(recognizer repositories.TextRecognizer, history *HistoryService, logger *zap.Logger) *OCRService {
	return &OCRService{recognizer: recognizer, history: history, logger: logger}
}

// Extract runs OCR on a validated image
func (s *OCRService) Extract(ctx context.Context, userID string, in entities.OCRInput) (entities.OCRResult, error) {
	start := time.Now()
	payload, err := s.recognizer.Recognize(ctx, in.Image.Data, []string{in.Language.OCRCode})
	if err != nil {
		s.logger.Error("OCR failed", zap.String("language", in.Language.Code), zap.Error(err))
		return entities.OCRResult{}, err
	}

	result := normalize.OCR(payload, in.Language, time.Since(start))
	s.logger.Info("OCR completed",
		zap.String("language", result.LanguageCode),
		zap.Int("words", result.WordCount),
		zap.Float64("confidence", result.Confidence))

	s.history.Record(ctx, userID, entities.FeatureOCR, result.LanguageCode, in.Image.Filename, result.Text, result.Confidence/100)
	return result, nil
}
