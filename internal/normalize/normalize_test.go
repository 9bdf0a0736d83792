package normalize

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/domain/repositories"
	"github.com/shiksha-ai/server/internal/apperr"
	"github.com/shiksha-ai/server/internal/language"
)

func ptr(v float64) *float64 { return &v }

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		lo   float64
		hi   float64
		want float64
	}{
		{"nan", math.NaN(), 0, 1, 0},
		{"negative", -3, 0, 100, 0},
		{"over", 140, 0, 100, 100},
		{"inside", 0.42, 0, 1, 0.42},
		{"positive infinity", math.Inf(1), 0, 1, 1},
		{"negative infinity", math.Inf(-1), 0, 1, 0},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in, tt.lo, tt.hi); got != tt.want {
			t.Errorf("%s: Clamp(%v) = %v, want %v", tt.name, tt.in, got, tt.want)
		}
	}
}

func TestOCRClampsAndDefaults(t *testing.T) {
	payload := &repositories.OCRPayload{
		Text:           "Hello world\n\nsecond line",
		MeanConfidence: ptr(math.NaN()),
		Words: []repositories.OCRPayloadWord{
			{Text: "Hello", Confidence: 150, X0: 1, Y0: 2, X1: 30, Y1: 12},
			{Text: "world", Confidence: -4},
			{Text: "  "},
			{Text: "second", Confidence: math.NaN()},
			{Text: "line", Confidence: 80},
		},
	}

	res := OCR(payload, language.Hindi, 25*time.Millisecond)

	if len(res.Words) != 4 {
		t.Fatalf("Expected blank words dropped, got %d words", len(res.Words))
	}
	for _, w := range res.Words {
		if w.Confidence < 0 || w.Confidence > 100 || math.IsNaN(w.Confidence) {
			t.Errorf("Word confidence out of bounds: %+v", w)
		}
	}
	if res.Words[0].Confidence != 100 || res.Words[1].Confidence != 0 {
		t.Errorf("Expected clamped word confidences, got %+v", res.Words[:2])
	}
	if res.Confidence != 45 {
		t.Errorf("Expected mean of word confidences 45, got %v", res.Confidence)
	}
	if res.Language != "english" || res.RequestedLanguage != "hindi" {
		t.Errorf("Expected script detection to win, got %s (requested %s)", res.Language, res.RequestedLanguage)
	}
	if res.WordCount != 4 || res.LineCount != 2 {
		t.Errorf("Unexpected counts: words %d lines %d", res.WordCount, res.LineCount)
	}
	if res.ProcessingTimeMs != 25 {
		t.Errorf("Expected 25ms, got %d", res.ProcessingTimeMs)
	}
	if res.Words[0].BoundingBox != (entities.BoundingBox{X0: 1, Y0: 2, X1: 30, Y1: 12}) {
		t.Errorf("Unexpected bounding box: %+v", res.Words[0].BoundingBox)
	}
}

func TestOCRLanguageDetection(t *testing.T) {
	res := OCR(&repositories.OCRPayload{Text: "ਸਤ ਸ੍ਰੀ ਅਕਾਲ", MeanConfidence: ptr(91)}, language.English, 0)
	if res.LanguageCode != "pa" || res.Confidence != 91 {
		t.Errorf("Expected punjabi at 91, got %s at %v", res.LanguageCode, res.Confidence)
	}

	res = OCR(&repositories.OCRPayload{Text: "abc", DetectedLanguage: "hin"}, language.English, 0)
	if res.LanguageCode != "hi" {
		t.Errorf("Expected engine-reported language to win, got %s", res.LanguageCode)
	}

	res = OCR(nil, language.Punjabi, 0)
	if res.LanguageCode != "pa" || res.Text != "" || res.Words == nil {
		t.Errorf("Expected empty result in requested language, got %+v", res)
	}
}

func TestTranscription(t *testing.T) {
	payload := &repositories.RecognitionPayload{
		Segments: []repositories.RecognitionSegment{
			{
				Locale: "hi-in",
				Alternatives: []repositories.RecognitionAlternative{
					{
						Transcript: "नमस्ते ",
						Confidence: ptr(0.9),
						Words: []repositories.RecognizedWord{
							{Word: "नमस्ते", Start: 0, End: 0.8, Confidence: ptr(1.2)},
						},
					},
					{Transcript: "नमस्कार"},
				},
			},
			{
				Alternatives: []repositories.RecognitionAlternative{
					{
						Transcript: "दुनिया",
						Confidence: ptr(0.7),
						Words: []repositories.RecognizedWord{
							{Word: "दुनिया", Start: 1.0, End: 1.6},
						},
					},
				},
			},
			{},
		},
	}

	res, err := Transcription(payload, language.English, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Transcript != "नमस्ते दुनिया" {
		t.Errorf("Unexpected transcript %q", res.Transcript)
	}
	if res.LanguageCode != "hi" {
		t.Errorf("Expected reported locale to decide language, got %s", res.LanguageCode)
	}
	if res.Duration != 1.6 {
		t.Errorf("Expected duration 1.6, got %v", res.Duration)
	}
	if math.Abs(res.Confidence-0.8) > 1e-9 {
		t.Errorf("Expected mean segment confidence 0.8, got %v", res.Confidence)
	}
	if res.Words[0].Confidence != 1 {
		t.Errorf("Expected word confidence clamped to 1, got %v", res.Words[0].Confidence)
	}
	if res.Words[1].Confidence != 0.7 {
		t.Errorf("Expected missing word confidence to fall back to segment, got %v", res.Words[1].Confidence)
	}
	if len(res.Alternatives) != 1 || res.Alternatives[0] != "नमस्कार" {
		t.Errorf("Unexpected alternatives %v", res.Alternatives)
	}
}

func TestTranscriptionEmptyIsRejected(t *testing.T) {
	_, err := Transcription(&repositories.RecognitionPayload{}, language.English, 0)
	if apperr.KindOf(err) != apperr.UpstreamInputRejected {
		t.Errorf("Expected UpstreamInputRejected, got %v", err)
	}
}

func TestTranscriptionMissingConfidence(t *testing.T) {
	payload := &repositories.RecognitionPayload{Segments: []repositories.RecognitionSegment{
		{Alternatives: []repositories.RecognitionAlternative{{Transcript: "hello there"}}},
	}}
	res, err := Transcription(payload, language.English, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Confidence != 0 || res.Duration != 0 || res.LanguageCode != "en" {
		t.Errorf("Expected documented defaults, got %+v", res)
	}
}

const canonicalGrammar = "CORRECTED: She goes to school every day.\n" +
	"CHANGES:\n" +
	"- go -> goes: subject-verb agreement\n" +
	"- everyday -> every day\n" +
	"- Add a comma after introductory phrases.\n" +
	"SUGGESTIONS:\n" +
	"- Read more short stories.\n" +
	"- Practice present simple tense."

func TestParseFormatRoundTrip(t *testing.T) {
	parsed := ParseGrammar(canonicalGrammar)
	if got := FormatGrammar(parsed); got != canonicalGrammar {
		t.Errorf("Round trip mismatch:\n%s\n---\n%s", got, canonicalGrammar)
	}

	empty := "CORRECTED: \nCHANGES:\nSUGGESTIONS:"
	if got := FormatGrammar(ParseGrammar(empty)); got != empty {
		t.Errorf("Empty round trip mismatch: %q", got)
	}
}

func TestParseGrammarSections(t *testing.T) {
	p := ParseGrammar(canonicalGrammar)
	if !p.HasCorrected || p.Corrected != "She goes to school every day." {
		t.Errorf("Unexpected corrected %q", p.Corrected)
	}
	if len(p.Changes) != 3 {
		t.Fatalf("Expected 3 changes, got %+v", p.Changes)
	}
	first := p.Changes[0]
	if first.Original != "go" || first.Corrected != "goes" || first.Explanation != "subject-verb agreement" || first.Type != "agreement" {
		t.Errorf("Unexpected first change %+v", first)
	}
	if p.Changes[2].Original != "" || p.Changes[2].Type != "punctuation" {
		t.Errorf("Expected explanation-only change, got %+v", p.Changes[2])
	}
	if len(p.Suggestions) != 2 {
		t.Errorf("Expected 2 suggestions, got %v", p.Suggestions)
	}
}

func TestParseGrammarTolerance(t *testing.T) {
	raw := "Sure! Here is the result.\n\n" +
		"```\n" +
		"**Corrected Text:**\n" +
		"मैं स्कूल जाती हूँ।\n\n" +
		"## changes:\n" +
		"1. \"जाता\" → \"जाती\": लिंग की गलती\n" +
		"**SUGGESTIONS:** None\n" +
		"```"

	p := ParseGrammar(raw)
	if p.Corrected != "मैं स्कूल जाती हूँ।" {
		t.Errorf("Unexpected corrected %q", p.Corrected)
	}
	if len(p.Changes) != 1 || p.Changes[0].Original != "जाता" || p.Changes[0].Corrected != "जाती" {
		t.Errorf("Unexpected changes %+v", p.Changes)
	}
	if p.Changes[0].Type != "agreement" {
		t.Errorf("Expected agreement type, got %s", p.Changes[0].Type)
	}
	if len(p.Suggestions) != 0 {
		t.Errorf("Expected None to mean no suggestions, got %v", p.Suggestions)
	}
}

func TestParseGrammarHeaderLikeBodyLines(t *testing.T) {
	raw := "CORRECTED: Dear teacher,\n" +
		"Changes: we moved the exam to Monday.\n" +
		"Corrected: the date on the notice.\n" +
		"CHANGES:\n" +
		"- moves -> moved: tense\n" +
		"SUGGESTIONS:\n" +
		"- Changes: keep them short.\n" +
		"- Suggestions: read it aloud."

	p := ParseGrammar(raw)
	want := "Dear teacher,\nChanges: we moved the exam to Monday.\nCorrected: the date on the notice."
	if p.Corrected != want {
		t.Errorf("Unexpected corrected %q", p.Corrected)
	}
	if len(p.Changes) != 1 || p.Changes[0].Original != "moves" {
		t.Errorf("Unexpected changes %+v", p.Changes)
	}
	if len(p.Suggestions) != 2 || p.Suggestions[0] != "Changes: keep them short." {
		t.Errorf("Unexpected suggestions %v", p.Suggestions)
	}
}

func TestParseGrammarMissingSections(t *testing.T) {
	p := ParseGrammar("The model ignored the format entirely.")
	if p.HasCorrected || len(p.Changes) != 0 || len(p.Suggestions) != 0 {
		t.Errorf("Expected empty parse, got %+v", p)
	}
	if p.Changes == nil || p.Suggestions == nil {
		t.Error("Expected empty, non-nil slices")
	}
}

func TestGrammarConfidence(t *testing.T) {
	if c := GrammarConfidence("She goes to school.", "She goes to school."); c != 1 {
		t.Errorf("Identical text should have confidence 1, got %v", c)
	}
	c := GrammarConfidence("She go to school", "She goes to school")
	if c <= 0.5 || c >= 1 {
		t.Errorf("Expected high but imperfect confidence, got %v", c)
	}
	if c := GrammarConfidence("abc", strings.Repeat("completely different ", 20)); c != 0 {
		t.Errorf("Expected confidence clamped at 0, got %v", c)
	}
}

func TestGrammarResult(t *testing.T) {
	res := Grammar("She go to school everyday.", canonicalGrammar, language.English, "comprehensive")
	if res.CorrectedText != "She goes to school every day." {
		t.Errorf("Unexpected corrected text %q", res.CorrectedText)
	}
	if res.Statistics.TotalErrors != 3 || !res.HasErrors {
		t.Errorf("Expected 3 errors, got %+v", res.Statistics)
	}
	if res.Statistics.ChangesByType["agreement"] != 1 {
		t.Errorf("Unexpected changes by type %v", res.Statistics.ChangesByType)
	}
	if res.Confidence < 0 || res.Confidence > 1 {
		t.Errorf("Confidence out of bounds: %v", res.Confidence)
	}
	if strings.Contains(res.CorrectedText, "CHANGES") {
		t.Error("Raw block must not leak into the result")
	}
}

func TestGrammarResultChangedWithoutChangeList(t *testing.T) {
	res := Grammar("She go to school.", "CORRECTED: She goes to school.", language.English, "grammar")
	if res.Statistics.TotalErrors < 1 || !res.HasErrors {
		t.Errorf("Expected at least one error when text changed, got %+v", res.Statistics)
	}

	res = Grammar("All good here.", "no sections at all", language.English, "grammar")
	if res.CorrectedText != "All good here." || res.HasErrors {
		t.Errorf("Expected original kept without errors, got %+v", res)
	}
}

func TestBatchSummary(t *testing.T) {
	s := BatchSummary([]entities.GrammarResult{
		{HasErrors: true, Confidence: 0.8, Statistics: entities.GrammarStatistics{TotalErrors: 2}},
		{Confidence: 1},
	})
	if s.TotalTexts != 2 || s.TextsWithErrors != 1 || s.TotalErrors != 2 || s.AverageConfidence != 0.9 {
		t.Errorf("Unexpected summary %+v", s)
	}
}

func TestDetectSubject(t *testing.T) {
	tests := map[string]string{
		"Can you explain algebra to me?": "math",
		"मुझे व्याकरण समझाओ":             "grammar",
		"ਇਤਿਹਾਸ ਬਾਰੇ ਦੱਸੋ":               "history",
		"How are you today?":             "",
		"The aftermath was bad":          "",
	}
	for msg, want := range tests {
		if got := DetectSubject(msg); got != want {
			t.Errorf("DetectSubject(%q) = %q, want %q", msg, got, want)
		}
	}
}

func TestEnrichReply(t *testing.T) {
	long := strings.Repeat("a", EnrichThreshold+1)

	if out, ok := EnrichReply(strings.Repeat("a", EnrichThreshold), "math", language.English); ok || len(out) != EnrichThreshold {
		t.Error("Replies at the threshold must not be enriched")
	}
	if _, ok := EnrichReply(long, "", language.English); ok {
		t.Error("Replies without a subject must not be enriched")
	}

	out, ok := EnrichReply(long, "math", language.Hindi)
	if !ok {
		t.Fatal("Expected enrichment")
	}
	if !strings.Contains(out, "गणित") || !strings.Contains(out, long) {
		t.Errorf("Expected Hindi template with subject label, got %q", out)
	}
}

func TestPronunciationScores(t *testing.T) {
	transcription := entities.TranscriptionResult{
		Transcript: "the quick fox jumps",
		Confidence: 0.9,
		Duration:   3,
		Words: []entities.TranscriptWord{
			{Word: "the", StartTime: 0, EndTime: 0.4, Confidence: 0.95},
			{Word: "quick", StartTime: 0.5, EndTime: 1.0, Confidence: 0.9},
			{Word: "fox", StartTime: 1.1, EndTime: 1.5, Confidence: 0.85},
			{Word: "jumps", StartTime: 2.0, EndTime: 3.0, Confidence: 0.9},
		},
	}
	in := entities.PronunciationInput{
		Language:       language.English,
		TargetText:     "The quick brown fox jumps",
		EvaluationType: "comprehensive",
		Difficulty:     "intermediate",
	}

	res := Pronunciation(transcription, in)

	if res.Scores.Accuracy != 80 {
		t.Errorf("Expected accuracy 80, got %v", res.Scores.Accuracy)
	}
	if res.Scores.Completeness != 80 {
		t.Errorf("Expected completeness 80, got %v", res.Scores.Completeness)
	}
	if len(res.MissingWords) != 1 || res.MissingWords[0] != "brown" {
		t.Errorf("Expected brown missing, got %v", res.MissingWords)
	}
	for name, v := range map[string]float64{
		"pronunciation": res.Scores.Pronunciation,
		"fluency":       res.Scores.Fluency,
		"overall":       res.Scores.Overall,
	} {
		if v < 0 || v > 100 {
			t.Errorf("%s out of bounds: %v", name, v)
		}
	}
	if len(res.Feedback) == 0 {
		t.Error("Expected feedback")
	}
}

func TestPronunciationEmptyTarget(t *testing.T) {
	res := Pronunciation(entities.TranscriptionResult{Transcript: "hello"}, entities.PronunciationInput{
		Language: language.Punjabi, EvaluationType: "accuracy",
	})
	if res.Scores.Overall != 0 || res.Grade != "F" {
		t.Errorf("Expected zero score, got %+v", res.Scores)
	}
	if len(res.ExtraWords) != 1 {
		t.Errorf("Expected one extra word, got %v", res.ExtraWords)
	}
}
