package tts

import (
	"context"
	"sync"

	"github.com/shiksha-ai/server/domain/repositories"
)

// MockTextToSpeech returns a fixed clip and records every call.
type MockTextToSpeech struct {
	mu        sync.Mutex
	Audio     []byte
	Err       error
	Texts     []string
	Languages []string
}

var _ repositories.TextToSpeech = (*MockTextToSpeech)(nil)

// NewMockTextToSpeech creates a mock producing a short fake MP3 frame.
func NewMockTextToSpeech() *MockTextToSpeech {
	return &MockTextToSpeech{Audio: []byte{0xFF, 0xFB, 0x90, 0x64, 0x00}}
}

func (m *MockTextToSpeech) Synthesize(ctx context.Context, text string, languageCode string) (*repositories.SynthesisPayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Texts = append(m.Texts, text)
	m.Languages = append(m.Languages, languageCode)
	if m.Err != nil {
		return nil, m.Err
	}
	return &repositories.SynthesisPayload{Audio: m.Audio, ContentType: "audio/mpeg"}, nil
}
