package normalize

import (
	"math"
	"strings"
	"time"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/domain/repositories"
	"github.com/shiksha-ai/server/internal/apperr"
	"github.com/shiksha-ai/server/internal/language"
)

// Transcription builds the API result from a recognition payload. The best
// alternative of each segment is concatenated; the others are kept as
// alternatives. Duration is the latest word end time.
func Transcription(p *repositories.RecognitionPayload, requested language.Tag, elapsed time.Duration) (entities.TranscriptionResult, error) {
	if p == nil {
		p = &repositories.RecognitionPayload{}
	}

	var (
		parts        []string
		alternatives = make([]string, 0)
		segmentConfs []float64
		wordConfs    []float64
		words        = make([]entities.TranscriptWord, 0)
		duration     float64
		locale       = p.Locale
	)

	for _, seg := range p.Segments {
		if len(seg.Alternatives) == 0 {
			continue
		}
		best := seg.Alternatives[0]
		if t := strings.TrimSpace(best.Transcript); t != "" {
			parts = append(parts, t)
		}
		segConf, hasSegConf := optional(best.Confidence)
		if hasSegConf {
			segmentConfs = append(segmentConfs, Unit(segConf))
		}
		if locale == "" {
			locale = seg.Locale
		}

		for _, w := range best.Words {
			conf, ok := optional(w.Confidence)
			switch {
			case ok:
				wordConfs = append(wordConfs, Unit(conf))
			case hasSegConf:
				conf = segConf
			}
			start := Clamp(w.Start, 0, math.Inf(1))
			end := Clamp(w.End, start, math.Inf(1))
			if end > duration {
				duration = end
			}
			words = append(words, entities.TranscriptWord{
				Word:       w.Word,
				StartTime:  Round(start, 3),
				EndTime:    Round(end, 3),
				Confidence: Round(Unit(conf), 4),
			})
		}

		for _, alt := range seg.Alternatives[1:] {
			if t := strings.TrimSpace(alt.Transcript); t != "" {
				alternatives = append(alternatives, t)
			}
		}
	}

	transcript := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	if transcript == "" {
		return entities.TranscriptionResult{}, apperr.E(apperr.UpstreamInputRejected, "No speech detected in the audio")
	}

	confidence := mean(segmentConfs)
	if len(segmentConfs) == 0 {
		confidence = mean(wordConfs)
	}

	detected, ok := language.FromLocale(locale)
	if !ok {
		detected = language.DetectScript(transcript)
		if detected == language.English && requested != language.English && !hasLatinLetters(transcript) {
			detected = requested
		}
	}

	return entities.TranscriptionResult{
		Transcript:       transcript,
		Confidence:       Round(Unit(confidence), 4),
		Language:         detected.Name,
		LanguageCode:     detected.Code,
		Words:            words,
		Duration:         Round(duration, 3),
		WordCount:        len(strings.Fields(transcript)),
		Alternatives:     alternatives,
		ProcessingTimeMs: elapsed.Milliseconds(),
	}, nil
}

func hasLatinLetters(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
