package repositories

import "context"

// SpeechToText abstracts speech recognition services
type SpeechToText interface {
	// Recognize transcribes a complete audio clip
	Recognize(ctx context.Context, audioData []byte, config AudioConfig) (*RecognitionPayload, error)
}

// AudioConfig represents audio configuration for speech recognition
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	MimeType   string `json:"mime_type"`
	// Locale is the primary recognition locale, e.g. "hi-IN".
	Locale string `json:"locale"`
	// AlternativeLocales lets the provider detect another supported language.
	AlternativeLocales []string `json:"alternative_locales"`
}

// RecognitionPayload is the provider response. Segments are consecutive
// portions of the audio; each carries ranked alternatives.
type RecognitionPayload struct {
	Segments []RecognitionSegment
	// Locale is the language the provider reports, if any.
	Locale string
}

// RecognitionSegment is one recognized portion of audio.
type RecognitionSegment struct {
	Alternatives []RecognitionAlternative
	Locale       string
}

// RecognitionAlternative is one hypothesis. A nil confidence means the
// provider did not report one.
type RecognitionAlternative struct {
	Transcript string
	Confidence *float64
	Words      []RecognizedWord
}

// RecognizedWord has offsets in seconds from the start of the audio.
type RecognizedWord struct {
	Word       string
	Start      float64
	End        float64
	Confidence *float64
}
