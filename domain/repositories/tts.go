package repositories

import "context"

// TextToSpeech abstracts speech synthesis services
type TextToSpeech interface {
	// Synthesize renders text as a complete audio clip
	Synthesize(ctx context.Context, text string, languageCode string) (*SynthesisPayload, error)
}

// SynthesisPayload is generated audio.
type SynthesisPayload struct {
	Audio       []byte
	ContentType string
}
