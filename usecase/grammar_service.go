package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/domain/repositories"
	"github.com/shiksha-ai/server/internal/language"
	"github.com/shiksha-ai/server/internal/normalize"
)

const (
	grammarTemperature = 0.2
	batchConcurrency   = 4
)

var checkTypeFocus = map[string]string{
	"comprehensive": "spelling, grammar, punctuation and style",
	"spelling":      "spelling mistakes only",
	"grammar":       "grammatical mistakes only (tense, agreement, articles, word order)",
	"punctuation":   "punctuation mistakes only",
	"style":         "clarity and style only; do not change correct grammar",
}

var languageNotes = map[string]string{
	"en": "The text is in English.",
	"hi": "The text is in Hindi written in Devanagari. Pay attention to gender and number agreement (लिंग, वचन), postpositions and matras. Keep the corrected text in Devanagari.",
	"pa": "The text is in Punjabi written in Gurmukhi. Pay attention to gender and number agreement, postpositions and vowel signs. Keep the corrected text in Gurmukhi.",
}

const grammarSystemPrompt = `You are a careful language teacher who corrects student writing.
Reply using exactly this format and nothing else:
CORRECTED: <the full corrected text>
CHANGES:
- <original> -> <corrected>: <short explanation>
SUGGESTIONS:
- <suggestion>
Write "None" under CHANGES or SUGGESTIONS when there is nothing to list.
Write explanations and suggestions in the same language as the text.`

// GrammarService checks and corrects text with a language model
type GrammarService struct {
	llm     repositories.LargeLanguageModel
	history *HistoryService
	logger  *zap.Logger
}

// NewGrammarService creates a new grammar service
func NewGrammarService(llm repositories.LargeLanguageModel, history *HistoryService, logger *zap.Logger) *GrammarService {
	return &GrammarService{llm: llm, history: history, logger: logger}
}

// Check corrects one validated text
func (s *GrammarService) Check(ctx context.Context, userID string, in entities.GrammarInput) (entities.GrammarResult, error) {
	result, err := s.check(ctx, in.Text, in.Language, in.CheckType)
	if err != nil {
		return entities.GrammarResult{}, err
	}
	s.history.Record(ctx, userID, entities.FeatureGrammar, in.Language.Code, in.Text, result.CorrectedText, result.Confidence)
	return result, nil
}

// CheckBatch corrects every text, keeping request order. Any upstream
// failure fails the whole batch.
func (s *GrammarService) CheckBatch(ctx context.Context, userID string, in entities.BatchGrammarInput) (entities.BatchGrammarResult, error) {
	results := make([]entities.GrammarResult, len(in.Texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, text := range in.Texts {
		g.Go(func() error {
			result, err := s.check(gctx, text, in.Language, in.CheckType)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return entities.BatchGrammarResult{}, err
	}

	batch := entities.BatchGrammarResult{Results: results, Summary: normalize.BatchSummary(results)}
	s.history.Record(ctx, userID, entities.FeatureGrammarBatch, in.Language.Code,
		fmt.Sprintf("%d texts", len(in.Texts)),
		fmt.Sprintf("%d with errors", batch.Summary.TextsWithErrors),
		batch.Summary.AverageConfidence)
	return batch, nil
}

func (s *GrammarService) check(ctx context.Context, text string, lang language.Tag, checkType string) (entities.GrammarResult, error) {
	raw, err := s.llm.Generate(ctx, repositories.GenerateRequest{
		SystemPrompt: grammarSystemPrompt,
		Prompt:       grammarPrompt(text, lang, checkType),
		Temperature:  grammarTemperature,
	})
	if err != nil {
		s.logger.Error("Grammar check failed", zap.String("language", lang.Code), zap.Error(err))
		return entities.GrammarResult{}, err
	}

	result := normalize.Grammar(text, raw, lang, checkType)
	s.logger.Info("Grammar check completed",
		zap.String("language", lang.Code),
		zap.String("checkType", checkType),
		zap.Int("changes", len(result.Changes)))
	return result, nil
}

func grammarPrompt(text string, lang language.Tag, checkType string) string {
	focus, ok := checkTypeFocus[checkType]
	if !ok {
		focus = checkTypeFocus["comprehensive"]
	}
	var b strings.Builder
	b.WriteString(languageNotes[lang.Code])
	b.WriteString("\nCheck the text for ")
	b.WriteString(focus)
	b.WriteString(".\n\nText:\n")
	b.WriteString(text)
	return b.String()
}
