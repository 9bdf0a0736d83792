package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/shiksha-ai/server/adapters/llm"
	"github.com/shiksha-ai/server/adapters/memory"
	"github.com/shiksha-ai/server/adapters/ocr"
	"github.com/shiksha-ai/server/adapters/stt"
	"github.com/shiksha-ai/server/adapters/tts"
	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/domain/repositories"
	"github.com/shiksha-ai/server/internal/apperr"
	"github.com/shiksha-ai/server/internal/language"
)

func TestOCRService_Extract(t *testing.T) {
	logger := zaptest.NewLogger(t)
	records := memory.NewHistoryStore()
	recognizer := ocr.NewMockOCR("नमस्ते दुनिया")
	svc := NewOCRService(recognizer, NewHistoryService(records, logger), logger)

	result, err := svc.Extract(context.Background(), "user-1", entities.OCRInput{
		Image:    entities.Asset{Data: []byte{0x89, 0x50}, MimeType: "image/png", Filename: "page.png"},
		Language: language.Hindi,
	})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got := recognizer.Languages[0]; len(got) != 1 || got[0] != "hin" {
		t.Errorf("Expected OCR model hin, got %v", got)
	}
	if result.LanguageCode != "hi" || result.Confidence != 90 {
		t.Errorf("Unexpected result: %+v", result)
	}

	list, _ := records.ListByUser(context.Background(), "user-1", entities.HistoryFilter{})
	if len(list) != 1 || list[0].Feature != entities.FeatureOCR {
		t.Errorf("Expected one OCR history record, got %+v", list)
	}
}

func TestOCRService_ErrorIsNotRecorded(t *testing.T) {
	logger := zaptest.NewLogger(t)
	records := memory.NewHistoryStore()
	recognizer := ocr.NewMockOCR("")
	recognizer.Err = errors.New("engine crashed")
	svc := NewOCRService(recognizer, NewHistoryService(records, logger), logger)

	if _, err := svc.Extract(context.Background(), "user-1", entities.OCRInput{Language: language.English}); err == nil {
		t.Fatal("Expected error")
	}
	list, _ := records.ListByUser(context.Background(), "user-1", entities.HistoryFilter{})
	if len(list) != 0 {
		t.Errorf("Expected no history for a failed call, got %d", len(list))
	}
}

func TestSpeechService_TranscribeOffersAlternatives(t *testing.T) {
	logger := zaptest.NewLogger(t)
	recognizer := stt.NewMockSpeechToText("hello world", logger)
	svc := NewSpeechService(recognizer, nil, nil, logger)

	result, err := svc.Transcribe(context.Background(), "user-1", entities.SpeechInput{
		Audio:    entities.Asset{Data: []byte("RIFF"), MimeType: "audio/wav"},
		Language: language.English,
	})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if result.Transcript != "hello world" || result.WordCount != 2 {
		t.Errorf("Unexpected transcription: %+v", result)
	}
	cfg := recognizer.Configs[0]
	if cfg.Locale != "en-US" {
		t.Errorf("Expected locale en-US, got %q", cfg.Locale)
	}
	if strings.Join(cfg.AlternativeLocales, ",") != "hi-IN,pa-IN" {
		t.Errorf("Expected hi-IN and pa-IN alternatives, got %v", cfg.AlternativeLocales)
	}
}

func TestSpeechService_EvaluatePronunciation(t *testing.T) {
	logger := zaptest.NewLogger(t)
	recognizer := stt.NewMockSpeechToText("the cat sat", logger)
	svc := NewSpeechService(recognizer, nil, nil, logger)

	result, err := svc.EvaluatePronunciation(context.Background(), "user-1", entities.PronunciationInput{
		Language:       language.English,
		TargetText:     "The cat sat on the mat",
		EvaluationType: "accuracy",
		Difficulty:     "beginner",
	})
	if err != nil {
		t.Fatalf("EvaluatePronunciation failed: %v", err)
	}
	if result.Scores.Accuracy != 50 {
		t.Errorf("Expected accuracy 50, got %v", result.Scores.Accuracy)
	}
	if result.Scores.Overall != result.Scores.Accuracy {
		t.Errorf("Expected overall to follow accuracy, got %v", result.Scores.Overall)
	}
	if len(recognizer.Configs[0].AlternativeLocales) != 0 {
		t.Error("Expected no alternative locales for pronunciation")
	}
}

func TestSpeechService_Synthesize(t *testing.T) {
	logger := zaptest.NewLogger(t)

	unconfigured := NewSpeechService(stt.NewMockSpeechToText("", logger), nil, nil, logger)
	if _, err := unconfigured.Synthesize(context.Background(), "user-1", entities.SynthesisInput{Text: "hi", Language: language.English}); !apperr.Is(err, apperr.Unimplemented) {
		t.Errorf("Expected Unimplemented without a TTS provider, got %v", err)
	}

	voice := tts.NewMockTextToSpeech()
	svc := NewSpeechService(stt.NewMockSpeechToText("", logger), voice, nil, logger)
	out, err := svc.Synthesize(context.Background(), "user-1", entities.SynthesisInput{Text: "नमस्ते", Language: language.Hindi})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if out.ContentType != "audio/mpeg" || len(out.Audio) == 0 {
		t.Errorf("Unexpected synthesis: %+v", out)
	}
	if voice.Languages[0] != "hi" {
		t.Errorf("Expected language hi, got %q", voice.Languages[0])
	}
}

func TestGrammarService_Check(t *testing.T) {
	logger := zaptest.NewLogger(t)
	model := llm.NewMockLLM("CORRECTED: She goes to school.\nCHANGES:\n- go -> goes: subject-verb agreement\nSUGGESTIONS:\n- Read it aloud.")
	svc := NewGrammarService(model, nil, logger)

	result, err := svc.Check(context.Background(), "user-1", entities.GrammarInput{
		Text:      "She go to school.",
		Language:  language.English,
		CheckType: "grammar",
	})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if result.CorrectedText != "She goes to school." || len(result.Changes) != 1 || !result.HasErrors {
		t.Errorf("Unexpected result: %+v", result)
	}
	req := model.Requests[0]
	if req.Temperature != grammarTemperature || req.SystemPrompt != grammarSystemPrompt {
		t.Errorf("Unexpected request: %+v", req)
	}
	if !strings.Contains(req.Prompt, checkTypeFocus["grammar"]) || !strings.Contains(req.Prompt, "She go to school.") {
		t.Errorf("Expected prompt to carry focus and text, got %q", req.Prompt)
	}
}

func TestGrammarService_BatchKeepsOrder(t *testing.T) {
	logger := zaptest.NewLogger(t)
	model := llm.NewMockLLM("")
	model.GenerateFunc = func(req repositories.GenerateRequest) (string, error) {
		text := req.Prompt[strings.LastIndex(req.Prompt, "\n")+1:]
		return fmt.Sprintf("CORRECTED: %s!\nCHANGES:\nNone\nSUGGESTIONS:\nNone", text), nil
	}
	svc := NewGrammarService(model, nil, logger)

	texts := []string{"one", "two", "three", "four", "five", "six"}
	batch, err := svc.CheckBatch(context.Background(), "user-1", entities.BatchGrammarInput{
		Texts:     texts,
		Language:  language.English,
		CheckType: "comprehensive",
	})
	if err != nil {
		t.Fatalf("CheckBatch failed: %v", err)
	}
	if len(batch.Results) != len(texts) {
		t.Fatalf("Expected %d results, got %d", len(texts), len(batch.Results))
	}
	for i, r := range batch.Results {
		if r.OriginalText != texts[i] || r.CorrectedText != texts[i]+"!" {
			t.Errorf("Result %d out of order: %+v", i, r)
		}
	}
	if batch.Summary.TotalTexts != len(texts) {
		t.Errorf("Expected summary of %d texts, got %+v", len(texts), batch.Summary)
	}
}

func TestGrammarService_BatchFailsAsAWhole(t *testing.T) {
	logger := zaptest.NewLogger(t)
	model := llm.NewMockLLM("")
	model.GenerateFunc = func(req repositories.GenerateRequest) (string, error) {
		if strings.HasSuffix(req.Prompt, "bad") {
			return "", apperr.E(apperr.UpstreamInputRejected, "The AI service rejected the input")
		}
		return "CORRECTED: fine", nil
	}
	svc := NewGrammarService(model, nil, logger)

	_, err := svc.CheckBatch(context.Background(), "user-1", entities.BatchGrammarInput{
		Texts:    []string{"good", "bad", "good"},
		Language: language.English,
	})
	if !apperr.Is(err, apperr.UpstreamInputRejected) {
		t.Errorf("Expected input rejected error, got %v", err)
	}
}

func TestHistoryService(t *testing.T) {
	ctx := context.Background()

	var disabled *HistoryService
	disabled.Record(ctx, "user-1", entities.FeatureOCR, "en", "in", "out", 1)
	if list, err := disabled.List(ctx, "user-1", entities.HistoryFilter{}); err != nil || len(list) != 0 {
		t.Errorf("Expected empty list from disabled history, got %v, %v", list, err)
	}

	records := memory.NewHistoryStore()
	svc := NewHistoryService(records, zap.NewNop())
	long := strings.Repeat("अ", 200)
	svc.Record(ctx, "user-1", entities.FeatureGrammar, "hi", long, "  spaced\n\nout  ", 0.5)
	svc.Record(ctx, "user-1", entities.FeatureOCR, "en", "img.png", "text", 0.9)

	list, err := svc.List(ctx, "user-1", entities.HistoryFilter{Feature: entities.FeatureGrammar})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("Expected 1 grammar record, got %d", len(list))
	}
	if n := len([]rune(list[0].InputSummary)); n != summaryLength {
		t.Errorf("Expected summary of %d characters, got %d", summaryLength, n)
	}
	if list[0].OutputSummary != "spaced out" {
		t.Errorf("Expected collapsed whitespace, got %q", list[0].OutputSummary)
	}

	stats, err := svc.Stats(ctx, "user-1")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 2 || stats.Languages["hi"] != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}
