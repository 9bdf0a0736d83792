package stt

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/shiksha-ai/server/domain/repositories"
)

// MockSpeechToText returns a fixed transcript with evenly spaced word
// timings. It is used in development and tests.
type MockSpeechToText struct {
	mu         sync.Mutex
	logger     *zap.Logger
	Transcript string
	Payload    *repositories.RecognitionPayload
	Err        error
	Calls      int
	Configs    []repositories.AudioConfig
}

// Ensure MockSpeechToText implements the SpeechToText interface
var _ repositories.SpeechToText = (*MockSpeechToText)(nil)

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(transcript string, logger *zap.Logger) *MockSpeechToText {
	return &MockSpeechToText{Transcript: transcript, logger: logger}
}

func (s *MockSpeechToText) Recognize(ctx context.Context, audioData []byte, config repositories.AudioConfig) (*repositories.RecognitionPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	s.Configs = append(s.Configs, config)

	s.logger.Info("Mock recognize",
		zap.Int("size", len(audioData)),
		zap.String("locale", config.Locale))

	if s.Err != nil {
		return nil, s.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Payload != nil {
		return s.Payload, nil
	}
	return mockPayload(s.Transcript, config.Locale), nil
}

// CallCount is safe for concurrent use.
func (s *MockSpeechToText) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls
}

func mockPayload(transcript, locale string) *repositories.RecognitionPayload {
	conf := 0.92
	words := strings.Fields(transcript)
	alt := repositories.RecognitionAlternative{Transcript: transcript, Confidence: &conf}
	for i, w := range words {
		wc := conf
		alt.Words = append(alt.Words, repositories.RecognizedWord{
			Word:       w,
			Start:      float64(i) * 0.5,
			End:        float64(i)*0.5 + 0.4,
			Confidence: &wc,
		})
	}
	return &repositories.RecognitionPayload{
		Locale:   locale,
		Segments: []repositories.RecognitionSegment{{Alternatives: []repositories.RecognitionAlternative{alt}}},
	}
}
