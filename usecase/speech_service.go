package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/domain/repositories"
	"github.com/shiksha-ai/server/internal/apperr"
	"github.com/shiksha-ai/server/internal/language"
	"github.com/shiksha-ai/server/internal/normalize"
)

// SpeechService handles transcription, pronunciation scoring and synthesis
type SpeechService struct {
	speechToText repositories.SpeechToText
	textToSpeech repositories.TextToSpeech
	history      *HistoryService
	logger       *zap.Logger
}

// NewSpeechService creates a new speech service. textToSpeech may be nil,
// in which case Synthesize reports Unimplemented.
func NewSpeechService(stt repositories.SpeechToText, tts repositories.TextToSpeech, history *HistoryService, logger *zap.Logger) *SpeechService {
	return &SpeechService{
		speechToText: stt,
		textToSpeech: tts,
		history:      history,
		logger:       logger,
	}
}

// Transcribe converts validated audio to text. The other supported
// languages are offered to the recognizer as alternatives.
func (s *SpeechService) Transcribe(ctx context.Context, userID string, in entities.SpeechInput) (entities.TranscriptionResult, error) {
	var alternatives []string
	for _, tag := range language.All() {
		if tag.Code != in.Language.Code {
			alternatives = append(alternatives, tag.Locale)
		}
	}

	result, err := s.recognize(ctx, in.Audio, in.Language, alternatives)
	if err != nil {
		return entities.TranscriptionResult{}, err
	}

	s.history.Record(ctx, userID, entities.FeatureSpeech, result.LanguageCode, in.Audio.Filename, result.Transcript, result.Confidence)
	return result, nil
}

// EvaluatePronunciation transcribes the learner's reading and scores it
// against the target text.
func (s *SpeechService) EvaluatePronunciation(ctx context.Context, userID string, in entities.PronunciationInput) (entities.PronunciationResult, error) {
	transcription, err := s.recognize(ctx, in.Audio, in.Language, nil)
	if err != nil {
		return entities.PronunciationResult{}, err
	}

	result := normalize.Pronunciation(transcription, in)
	s.logger.Info("Pronunciation evaluated",
		zap.String("language", in.Language.Code),
		zap.String("evaluationType", in.EvaluationType),
		zap.Float64("overall", result.Scores.Overall))

	s.history.Record(ctx, userID, entities.FeaturePronunciation, in.Language.Code, in.TargetText,
		fmt.Sprintf("%s (%.1f)", result.Grade, result.Scores.Overall), result.Scores.Overall/100)
	return result, nil
}

// Synthesize renders text as speech
func (s *SpeechService) Synthesize(ctx context.Context, userID string, in entities.SynthesisInput) (*entities.SpeechSynthesis, error) {
	if s.textToSpeech == nil {
		return nil, apperr.E(apperr.Unimplemented, "Speech synthesis is not configured")
	}
	payload, err := s.textToSpeech.Synthesize(ctx, in.Text, in.Language.Code)
	if err != nil {
		s.logger.Error("Speech synthesis failed", zap.String("language", in.Language.Code), zap.Error(err))
		return nil, err
	}
	return &entities.SpeechSynthesis{Audio: payload.Audio, ContentType: payload.ContentType}, nil
}

func (s *SpeechService) recognize(ctx context.Context, audio entities.Asset, lang language.Tag, alternatives []string) (entities.TranscriptionResult, error) {
	start := time.Now()
	payload, err := s.speechToText.Recognize(ctx, audio.Data, repositories.AudioConfig{
		MimeType:           audio.MimeType,
		Locale:             lang.Locale,
		AlternativeLocales: alternatives,
	})
	if err != nil {
		s.logger.Error("Transcription failed", zap.String("language", lang.Code), zap.Error(err))
		return entities.TranscriptionResult{}, err
	}

	result, err := normalize.Transcription(payload, lang, time.Since(start))
	if err != nil {
		return entities.TranscriptionResult{}, err
	}
	s.logger.Info("Transcription completed",
		zap.String("language", result.LanguageCode),
		zap.Int("words", result.WordCount),
		zap.Float64("confidence", result.Confidence))
	return result, nil
}
