package normalize

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/domain/repositories"
	"github.com/shiksha-ai/server/internal/language"
)

// OCR builds the API result from an engine payload. Word and page
// confidences are clamped to [0,100]; a missing page confidence is the mean
// of the word confidences. Without an engine-reported language the script
// of the text decides.
func OCR(p *repositories.OCRPayload, requested language.Tag, elapsed time.Duration) entities.OCRResult {
	if p == nil {
		p = &repositories.OCRPayload{}
	}
	text := strings.TrimSpace(p.Text)

	words := make([]entities.OCRWord, 0, len(p.Words))
	wordConfidences := make([]float64, 0, len(p.Words))
	for _, w := range p.Words {
		wt := strings.TrimSpace(w.Text)
		if wt == "" {
			continue
		}
		conf := Round(Percent(w.Confidence), 2)
		wordConfidences = append(wordConfidences, conf)
		words = append(words, entities.OCRWord{
			Text:       wt,
			Confidence: conf,
			BoundingBox: entities.BoundingBox{
				X0: w.X0, Y0: w.Y0, X1: w.X1, Y1: w.Y1,
			},
		})
	}

	confidence, ok := optional(p.MeanConfidence)
	if !ok {
		confidence = mean(wordConfidences)
	}

	detected := requested
	if t, ok := language.FromOCRCode(p.DetectedLanguage); ok {
		detected = t
	} else if t, ok := language.FromLocale(p.DetectedLanguage); ok {
		detected = t
	} else if text != "" {
		detected = language.DetectScript(text)
	}

	return entities.OCRResult{
		Text:              text,
		Confidence:        Round(Percent(confidence), 2),
		Language:          detected.Name,
		LanguageCode:      detected.Code,
		RequestedLanguage: requested.Name,
		Words:             words,
		WordCount:         len(strings.Fields(text)),
		LineCount:         countLines(text),
		CharacterCount:    utf8.RuneCountInString(text),
		ProcessingTimeMs:  elapsed.Milliseconds(),
	}
}

func countLines(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
