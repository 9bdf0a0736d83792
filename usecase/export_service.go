package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/domain/repositories"
	"github.com/shiksha-ai/server/internal/language"
)

// historyExportLimit bounds how many history records one export includes.
const historyExportLimit = 1000

var exportHeadings = map[string]map[string]string{
	"original":    {"en": "Original Text", "hi": "मूल पाठ", "pa": "ਮੂਲ ਪਾਠ"},
	"corrected":   {"en": "Corrected Text", "hi": "सुधारा गया पाठ", "pa": "ਸੁਧਾਰਿਆ ਪਾਠ"},
	"changes":     {"en": "Changes", "hi": "बदलाव", "pa": "ਬਦਲਾਅ"},
	"suggestions": {"en": "Suggestions", "hi": "सुझाव", "pa": "ਸੁਝਾਅ"},
	"details":     {"en": "Details", "hi": "विवरण", "pa": "ਵੇਰਵਾ"},
	"grammar":     {"en": "Grammar Check", "hi": "व्याकरण जाँच", "pa": "ਵਿਆਕਰਣ ਜਾਂਚ"},
	"session":     {"en": "Chat Session", "hi": "चैट सत्र", "pa": "ਚੈਟ ਸੈਸ਼ਨ"},
	"history":     {"en": "Activity History", "hi": "गतिविधि इतिहास", "pa": "ਗਤੀਵਿਧੀ ਇਤਿਹਾਸ"},
	"user":        {"en": "Student", "hi": "छात्र", "pa": "ਵਿਦਿਆਰਥੀ"},
	"assistant":   {"en": "Tutor", "hi": "शिक्षक", "pa": "ਅਧਿਆਪਕ"},
}

func heading(key, languageCode string) string {
	if h, ok := exportHeadings[key][languageCode]; ok {
		return h
	}
	return exportHeadings[key][language.English.Code]
}

// ExportService builds documents from user content and stored records and
// renders them through the exporter.
type ExportService struct {
	exporter repositories.DocumentExporter
	chat     *ChatService
	history  *HistoryService
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService creates a new export service
func NewExportService(exporter repositories.DocumentExporter, chat *ChatService, history *HistoryService, logger *zap.Logger) *ExportService {
	return &ExportService{
		exporter: exporter,
		chat:     chat,
		history:  history,
		logger:   logger,
		now:      time.Now,
	}
}

// ExportText renders free text as a document
func (s *ExportService) ExportText(ctx context.Context, userID string, in entities.ExportTextInput) (*entities.ExportArtifact, error) {
	doc := entities.Document{
		Title:      in.Title,
		Language:   in.Language.Code,
		Formatting: in.Formatting,
		Sections: []entities.Section{
			{Type: entities.SectionPlain, Content: in.Text, Markdown: in.Formatting.Markdown},
			s.metadata(in.Language,
				entities.KeyValue{Key: "Words", Value: strconv.Itoa(len(strings.Fields(in.Text)))},
				entities.KeyValue{Key: "Characters", Value: strconv.Itoa(utf8.RuneCountInString(in.Text))}),
		},
	}
	return s.export(ctx, userID, doc, in.Format, in.Text)
}

// ExportGrammar renders a grammar check result with the original text
// muted and the corrected text emphasized.
func (s *ExportService) ExportGrammar(ctx context.Context, userID string, in entities.GrammarExportInput) (*entities.ExportArtifact, error) {
	code := in.Language.Code
	title := in.Title
	if title == "" {
		title = heading("grammar", code)
	}

	changes := make([]string, 0, len(in.Changes))
	for _, c := range in.Changes {
		item := fmt.Sprintf("%s → %s", c.Original, c.Corrected)
		if c.Explanation != "" {
			item += ": " + c.Explanation
		}
		changes = append(changes, item)
	}

	sections := []entities.Section{
		{Heading: heading("original", code), Type: entities.SectionOriginal, Content: in.OriginalText},
		{Heading: heading("corrected", code), Type: entities.SectionCorrected, Content: in.CorrectedText},
	}
	if len(changes) > 0 {
		sections = append(sections, entities.Section{Heading: heading("changes", code), Type: entities.SectionChanges, Items: changes})
	}
	if len(in.Suggestions) > 0 {
		sections = append(sections, entities.Section{Heading: heading("suggestions", code), Type: entities.SectionList, Items: in.Suggestions})
	}
	sections = append(sections, s.metadata(in.Language,
		entities.KeyValue{Key: "Changes", Value: strconv.Itoa(len(in.Changes))}))

	rows := [][]string{{"original", "corrected", "explanation", "type"}}
	for _, c := range in.Changes {
		rows = append(rows, []string{c.Original, c.Corrected, c.Explanation, c.Type})
	}

	doc := entities.Document{
		Title:      title,
		Language:   code,
		Formatting: entities.DefaultFormatting,
		Sections:   sections,
		Rows:       rows,
	}
	return s.export(ctx, userID, doc, in.Format, in.OriginalText)
}

// ExportSession renders a chat session the user owns
func (s *ExportService) ExportSession(ctx context.Context, userID, sessionID string, format entities.ExportFormat) (*entities.ExportArtifact, error) {
	h, err := s.chat.History(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	lang, err := language.Resolve(h.Language)
	if err != nil {
		lang = language.English
	}

	sections := []entities.Section{s.metadata(lang,
		entities.KeyValue{Key: "Session", Value: h.SessionID},
		entities.KeyValue{Key: "Type", Value: h.SessionType},
		entities.KeyValue{Key: "Level", Value: h.UserLevel},
		entities.KeyValue{Key: "Subjects", Value: strings.Join(h.Subjects, ", ")},
		entities.KeyValue{Key: "Messages", Value: strconv.Itoa(h.MessageCount)})}
	rows := [][]string{{"timestamp", "role", "messageType", "subject", "content"}}
	for _, m := range h.Messages {
		sections = append(sections, entities.Section{
			Heading: fmt.Sprintf("%s (%s)", heading(string(m.Role), lang.Code), m.Timestamp.Format("2006-01-02 15:04")),
			Type:    entities.SectionPlain,
			Content: m.Content,
		})
		rows = append(rows, []string{m.Timestamp.Format(time.RFC3339), string(m.Role), m.MessageType, m.Subject, m.Content})
	}

	doc := entities.Document{
		Title:      heading("session", lang.Code),
		Language:   lang.Code,
		Formatting: entities.DefaultFormatting,
		Sections:   sections,
		Rows:       rows,
	}
	return s.export(ctx, userID, doc, format, sessionID)
}

// ExportHistory renders the user's recent activity
func (s *ExportService) ExportHistory(ctx context.Context, userID string, format entities.ExportFormat) (*entities.ExportArtifact, error) {
	records, err := s.history.List(ctx, userID, entities.HistoryFilter{Limit: historyExportLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	items := make([]string, 0, len(records))
	rows := [][]string{{"createdAt", "feature", "language", "input", "output", "confidence"}}
	for _, r := range records {
		items = append(items, fmt.Sprintf("%s  [%s/%s]  %s", r.CreatedAt.Format("2006-01-02 15:04"), r.Feature, r.Language, r.InputSummary))
		rows = append(rows, []string{
			r.CreatedAt.Format(time.RFC3339), string(r.Feature), r.Language,
			r.InputSummary, r.OutputSummary, strconv.FormatFloat(r.Confidence, 'f', 2, 64),
		})
	}

	doc := entities.Document{
		Title:      heading("history", language.English.Code),
		Language:   language.English.Code,
		Formatting: entities.DefaultFormatting,
		Sections: []entities.Section{
			s.metadata(language.English, entities.KeyValue{Key: "Records", Value: strconv.Itoa(len(records))}),
			{Type: entities.SectionList, Items: items},
		},
		Rows: rows,
	}
	return s.export(ctx, userID, doc, format, "history")
}

func (s *ExportService) metadata(lang language.Tag, extra ...entities.KeyValue) entities.Section {
	fields := []entities.KeyValue{
		{Key: "Language", Value: lang.DisplayName()},
		{Key: "Generated", Value: s.now().Format("2006-01-02 15:04:05")},
	}
	return entities.Section{
		Heading: heading("details", lang.Code),
		Type:    entities.SectionMetadata,
		Fields:  append(fields, extra...),
	}
}

func (s *ExportService) export(ctx context.Context, userID string, doc entities.Document, format entities.ExportFormat, input string) (*entities.ExportArtifact, error) {
	artifact, err := s.exporter.Export(ctx, doc, format)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Document exported",
		zap.String("format", string(format)),
		zap.String("filename", artifact.Filename),
		zap.Int("size", artifact.Size))
	s.history.Record(ctx, userID, entities.FeatureExport, doc.Language, input, artifact.Filename, 0)
	return artifact, nil
}
