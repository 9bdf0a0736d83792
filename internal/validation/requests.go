package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/internal/apperr"
	"github.com/shiksha-ai/server/internal/language"
)

// Length caps, in characters.
const (
	MaxGrammarText       = 5000
	MaxChatMessage       = 2000
	MaxBatchItem         = 2000
	MaxBatchTexts        = 20
	MaxExportText        = 100000
	MaxTargetText        = 500
	MaxSynthesisText     = 5000
	MaxTitle             = 200
	MaxSubject           = 100
	MaxImageBytes        = 5 << 20
	MaxAudioBytes        = 10 << 20
	MaxPronunciationSize = 10 << 20
)

// Defaults applied when a request omits a field.
const (
	DefaultMessageType    = "text"
	DefaultCheckType      = "comprehensive"
	DefaultEvaluationType = "pronunciation"
	DefaultDifficulty     = "intermediate"
	DefaultSessionType    = "general"
	DefaultUserLevel      = "beginner"
	DefaultExportTitle    = "Document"
)

// Allowed values.
var (
	ImageMimeTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}
	AudioMimeTypes = []string{
		"audio/wav", "audio/wave", "audio/x-wav", "audio/mpeg", "audio/mp3",
		"audio/mp4", "audio/m4a", "audio/webm", "audio/ogg",
	}
	CheckTypes      = []string{"comprehensive", "spelling", "grammar", "punctuation", "style"}
	EvaluationTypes = []string{"pronunciation", "fluency", "accuracy", "completeness", "comprehensive"}
	Difficulties    = []string{"beginner", "intermediate", "advanced"}
	MessageTypes    = []string{"text", "grammar_question", "pronunciation_help", "exercise_request"}
	SessionTypes    = []string{"general", "grammar_focused", "pronunciation_focused", "writing_help"}
	UserLevels      = []string{"beginner", "intermediate", "advanced"}

	TextExportFormats    = []string{"docx", "pdf", "txt"}
	GrammarExportFormats = []string{"docx", "pdf", "html"}
	RecordExportFormats  = []string{"pdf", "docx", "txt", "json", "csv"}
)

// NormalizeMimeType lowercases a media type and drops its parameters.
func NormalizeMimeType(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

func orDefault(value, def string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return def
	}
	return value
}

func languageRule() Rule {
	return Custom(apperr.UnsupportedLanguage,
		"Unsupported language. Supported languages: "+language.Supported(),
		func(value any) bool {
			s, _ := value.(string)
			_, err := language.ResolveOrDefault(s)
			return err == nil
		})
}

func textRules(label string, max int) []Rule {
	return []Rule{Required(label), MaxLength(label, max)}
}

func fileRules(label string, asset *entities.Asset, allowed []string, maxBytes int64) []Rule {
	return []Rule{
		Custom(apperr.ValidationFailure, label+" file is required", func(any) bool {
			return asset != nil && len(asset.Data) > 0
		}),
		Custom(apperr.UnsupportedFormat,
			fmt.Sprintf("Unsupported %s format. Supported formats: %s", strings.ToLower(label), strings.Join(allowed, ", ")),
			func(any) bool {
				mt := NormalizeMimeType(asset.MimeType)
				for _, a := range allowed {
					if mt == a {
						return true
					}
				}
				return false
			}),
		Custom(apperr.PayloadTooLarge,
			fmt.Sprintf("%s file must not exceed %dMB", label, maxBytes>>20),
			func(any) bool {
				return asset.Size <= maxBytes && int64(len(asset.Data)) <= maxBytes
			}),
	}
}

// OCR validates an image upload.
func OCR(image *entities.Asset, lang string) (entities.OCRInput, error) {
	if errs := First(
		Field{Name: "image", Value: image, Rules: fileRules("Image", image, ImageMimeTypes, MaxImageBytes)},
		Field{Name: "language", Value: lang, Rules: []Rule{languageRule()}},
	); len(errs) > 0 {
		return entities.OCRInput{}, errs.Err()
	}
	tag, _ := language.ResolveOrDefault(lang)
	return entities.OCRInput{Image: *image, Language: tag}, nil
}

// Speech validates an audio upload.
func Speech(audio *entities.Asset, lang string) (entities.SpeechInput, error) {
	if errs := First(
		Field{Name: "audio", Value: audio, Rules: fileRules("Audio", audio, AudioMimeTypes, MaxAudioBytes)},
		Field{Name: "language", Value: lang, Rules: []Rule{languageRule()}},
	); len(errs) > 0 {
		return entities.SpeechInput{}, errs.Err()
	}
	tag, _ := language.ResolveOrDefault(lang)
	return entities.SpeechInput{Audio: *audio, Language: tag}, nil
}

// Pronunciation validates a pronunciation evaluation upload.
func Pronunciation(audio *entities.Asset, lang, targetText, evaluationType, difficulty string) (entities.PronunciationInput, error) {
	evaluationType = orDefault(evaluationType, DefaultEvaluationType)
	difficulty = orDefault(difficulty, DefaultDifficulty)
	if errs := First(
		Field{Name: "audio", Value: audio, Rules: fileRules("Audio", audio, AudioMimeTypes, MaxPronunciationSize)},
		Field{Name: "language", Value: lang, Rules: []Rule{languageRule()}},
		Field{Name: "targetText", Value: targetText, Rules: textRules("Target text", MaxTargetText)},
		Field{Name: "evaluationType", Value: evaluationType, Rules: []Rule{OneOf("Evaluation type", EvaluationTypes)}},
		Field{Name: "difficulty", Value: difficulty, Rules: []Rule{OneOf("Difficulty", Difficulties)}},
	); len(errs) > 0 {
		return entities.PronunciationInput{}, errs.Err()
	}
	tag, _ := language.ResolveOrDefault(lang)
	return entities.PronunciationInput{
		Audio:          *audio,
		Language:       tag,
		TargetText:     strings.TrimSpace(targetText),
		EvaluationType: evaluationType,
		Difficulty:     difficulty,
	}, nil
}

// Synthesis validates a text-to-speech request.
func Synthesis(text, lang string) (entities.SynthesisInput, error) {
	if errs := All(
		Field{Name: "text", Value: text, Rules: textRules("Text", MaxSynthesisText)},
		Field{Name: "language", Value: lang, Rules: []Rule{languageRule()}},
	); len(errs) > 0 {
		return entities.SynthesisInput{}, errs.Err()
	}
	tag, _ := language.ResolveOrDefault(lang)
	return entities.SynthesisInput{Text: strings.TrimSpace(text), Language: tag}, nil
}

// Grammar validates a single grammar check.
func Grammar(text, lang, checkType string) (entities.GrammarInput, error) {
	checkType = orDefault(checkType, DefaultCheckType)
	if errs := All(
		Field{Name: "text", Value: text, Rules: textRules("Text", MaxGrammarText)},
		Field{Name: "language", Value: lang, Rules: []Rule{languageRule()}},
		Field{Name: "checkType", Value: checkType, Rules: []Rule{OneOf("Check type", CheckTypes)}},
	); len(errs) > 0 {
		return entities.GrammarInput{}, errs.Err()
	}
	tag, _ := language.ResolveOrDefault(lang)
	return entities.GrammarInput{Text: strings.TrimSpace(text), Language: tag, CheckType: checkType}, nil
}

// BatchGrammar validates a batch grammar check. Each text is checked on its
// own and reported as texts[i].
func BatchGrammar(texts []string, lang, checkType string) (entities.BatchGrammarInput, error) {
	checkType = orDefault(checkType, DefaultCheckType)
	fields := []Field{
		{Name: "texts", Value: texts, Rules: []Rule{
			Custom(apperr.ValidationFailure, "Texts array is required and must not be empty", func(any) bool {
				return len(texts) > 0
			}),
			Custom(apperr.ValidationFailure, fmt.Sprintf("Maximum %d texts allowed", MaxBatchTexts), func(any) bool {
				return len(texts) <= MaxBatchTexts
			}),
		}},
		{Name: "language", Value: lang, Rules: []Rule{languageRule()}},
		{Name: "checkType", Value: checkType, Rules: []Rule{OneOf("Check type", CheckTypes)}},
	}
	if len(texts) <= MaxBatchTexts {
		for i, text := range texts {
			fields = append(fields, Field{
				Name:  fmt.Sprintf("texts[%d]", i),
				Value: text,
				Rules: textRules(fmt.Sprintf("Text at index %d", i), MaxBatchItem),
			})
		}
	}
	if errs := All(fields...); len(errs) > 0 {
		return entities.BatchGrammarInput{}, errs.Err()
	}

	tag, _ := language.ResolveOrDefault(lang)
	trimmed := make([]string, len(texts))
	for i, text := range texts {
		trimmed[i] = strings.TrimSpace(text)
	}
	return entities.BatchGrammarInput{Texts: trimmed, Language: tag, CheckType: checkType}, nil
}

// Chat validates a chat message.
func Chat(message, sessionID, lang, messageType, subject string) (entities.ChatInput, error) {
	messageType = orDefault(messageType, DefaultMessageType)
	if errs := All(
		Field{Name: "message", Value: message, Rules: textRules("Message", MaxChatMessage)},
		Field{Name: "sessionId", Value: sessionID, Rules: []Rule{MaxLength("Session ID", 128)}},
		Field{Name: "language", Value: lang, Rules: []Rule{languageRule()}},
		Field{Name: "messageType", Value: messageType, Rules: []Rule{OneOf("Message type", MessageTypes)}},
		Field{Name: "subject", Value: subject, Rules: []Rule{MaxLength("Subject", MaxSubject)}},
	); len(errs) > 0 {
		return entities.ChatInput{}, errs.Err()
	}
	tag, _ := language.ResolveOrDefault(lang)
	return entities.ChatInput{
		Message:     strings.TrimSpace(message),
		SessionID:   strings.TrimSpace(sessionID),
		Language:    tag,
		MessageType: messageType,
		Subject:     strings.ToLower(strings.TrimSpace(subject)),
	}, nil
}

// Session validates a chat session start request.
func Session(lang, sessionType, userLevel string) (entities.SessionInput, error) {
	sessionType = orDefault(sessionType, DefaultSessionType)
	userLevel = orDefault(userLevel, DefaultUserLevel)
	if errs := All(
		Field{Name: "language", Value: lang, Rules: []Rule{languageRule()}},
		Field{Name: "sessionType", Value: sessionType, Rules: []Rule{OneOf("Session type", SessionTypes)}},
		Field{Name: "userLevel", Value: userLevel, Rules: []Rule{OneOf("User level", UserLevels)}},
	); len(errs) > 0 {
		return entities.SessionInput{}, errs.Err()
	}
	tag, _ := language.ResolveOrDefault(lang)
	return entities.SessionInput{Language: tag, SessionType: sessionType, UserLevel: userLevel}, nil
}

// SessionID validates a session id path parameter.
func SessionID(id string) (string, error) {
	if errs := First(Field{Name: "sessionId", Value: id, Rules: []Rule{
		Required("Session ID"), MaxLength("Session ID", 128),
	}}); len(errs) > 0 {
		return "", errs.Err()
	}
	return strings.TrimSpace(id), nil
}

// ExportText validates a free text export. Format comes from the route.
func ExportText(text, title, lang, format string, formatting *entities.FormattingOptions) (entities.ExportTextInput, error) {
	if strings.TrimSpace(title) == "" {
		title = DefaultExportTitle
	}
	if errs := All(
		Field{Name: "text", Value: text, Rules: textRules("Text", MaxExportText)},
		Field{Name: "title", Value: title, Rules: []Rule{MaxLength("Title", MaxTitle)}},
		Field{Name: "language", Value: lang, Rules: []Rule{languageRule()}},
		Field{Name: "format", Value: format, Rules: []Rule{OneOf("Format", TextExportFormats)}},
	); len(errs) > 0 {
		return entities.ExportTextInput{}, errs.Err()
	}
	tag, _ := language.ResolveOrDefault(lang)
	return entities.ExportTextInput{
		Text:       text,
		Title:      strings.TrimSpace(title),
		Language:   tag,
		Format:     entities.ExportFormat(strings.ToLower(format)),
		Formatting: formattingOrDefault(formatting),
	}, nil
}

// GrammarExport validates a grammar result export.
func GrammarExport(original, corrected string, changes []entities.GrammarChange, suggestions []string, title, lang, format string) (entities.GrammarExportInput, error) {
	if strings.TrimSpace(title) == "" {
		title = "Grammar Check Report"
	}
	format = orDefault(format, "pdf")
	if errs := All(
		Field{Name: "originalText", Value: original, Rules: textRules("Original text", MaxExportText)},
		Field{Name: "correctedText", Value: corrected, Rules: []Rule{MaxLength("Corrected text", MaxExportText)}},
		Field{Name: "title", Value: title, Rules: []Rule{MaxLength("Title", MaxTitle)}},
		Field{Name: "language", Value: lang, Rules: []Rule{languageRule()}},
		Field{Name: "format", Value: format, Rules: []Rule{OneOf("Format", GrammarExportFormats)}},
	); len(errs) > 0 {
		return entities.GrammarExportInput{}, errs.Err()
	}
	tag, _ := language.ResolveOrDefault(lang)
	if strings.TrimSpace(corrected) == "" {
		corrected = original
	}
	return entities.GrammarExportInput{
		OriginalText:  original,
		CorrectedText: corrected,
		Changes:       changes,
		Suggestions:   suggestions,
		Title:         strings.TrimSpace(title),
		Language:      tag,
		Format:        entities.ExportFormat(format),
	}, nil
}

// RecordExportFormat validates the format of a history or session export.
func RecordExportFormat(format string) (entities.ExportFormat, error) {
	format = orDefault(format, "pdf")
	if errs := First(Field{Name: "format", Value: format, Rules: []Rule{OneOf("Format", RecordExportFormats)}}); len(errs) > 0 {
		return "", errs.Err()
	}
	return entities.ExportFormat(format), nil
}

func formattingOrDefault(f *entities.FormattingOptions) entities.Formatting {
	out := entities.DefaultFormatting
	if f == nil {
		return out
	}
	if f.FontSize > 0 {
		out.FontSize = min(f.FontSize, 36)
	}
	if f.IncludeMetadata != nil {
		out.IncludeMetadata = *f.IncludeMetadata
	}
	out.Markdown = f.Markdown
	return out
}

// History list bounds.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// HistoryQuery validates the history listing filters. An empty feature
// lists every feature.
func HistoryQuery(feature, limit string) (entities.HistoryFilter, error) {
	features := make([]string, len(entities.Features))
	for i, f := range entities.Features {
		features[i] = string(f)
	}

	n := DefaultHistoryLimit
	validLimit := true
	if s := strings.TrimSpace(limit); s != "" {
		v, err := strconv.Atoi(s)
		validLimit = err == nil && v > 0
		n = v
	}

	fields := []Field{
		{Name: "limit", Value: limit, Rules: []Rule{
			Custom(apperr.ValidationFailure, "Limit must be a positive number", func(any) bool { return validLimit }),
		}},
	}
	if strings.TrimSpace(feature) != "" {
		fields = append(fields, Field{Name: "feature", Value: feature, Rules: []Rule{OneOf("Feature", features)}})
	}
	if errs := All(fields...); len(errs) > 0 {
		return entities.HistoryFilter{}, errs.Err()
	}
	return entities.HistoryFilter{
		Feature: entities.Feature(strings.ToLower(strings.TrimSpace(feature))),
		Limit:   min(n, MaxHistoryLimit),
	}, nil
}
