package usecase

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/shiksha-ai/server/adapters/export"
	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/internal/apperr"
	"github.com/shiksha-ai/server/internal/language"
)

func newExportService(t *testing.T) (*ExportService, *ChatService) {
	t.Helper()
	chat, _, _, records := newChatService(t)
	logger := zaptest.NewLogger(t)
	registry := export.NewRegistry(export.TextRenderer{}, export.CSVRenderer{}, export.JSONRenderer{})
	return NewExportService(registry, chat, NewHistoryService(records, logger), logger), chat
}

func TestExportService_ExportText(t *testing.T) {
	svc, _ := newExportService(t)

	artifact, err := svc.ExportText(context.Background(), "user-1", entities.ExportTextInput{
		Text:       "My summer holiday",
		Title:      "Essay",
		Language:   language.English,
		Format:     entities.FormatTXT,
		Formatting: entities.Formatting{FontSize: 12},
	})
	if err != nil {
		t.Fatalf("ExportText failed: %v", err)
	}
	body := string(artifact.Data)
	if !strings.HasPrefix(body, "Essay\n=====\n") || !strings.Contains(body, "My summer holiday") {
		t.Errorf("Unexpected body: %q", body)
	}
	if strings.Contains(body, "Words:") {
		t.Error("Expected metadata to be left out when disabled")
	}
	if !strings.HasPrefix(artifact.Filename, "essay_") || !strings.HasSuffix(artifact.Filename, ".txt") {
		t.Errorf("Unexpected filename %q", artifact.Filename)
	}
	if artifact.Size != len(artifact.Data) {
		t.Errorf("Expected size %d, got %d", len(artifact.Data), artifact.Size)
	}
}

func TestExportService_UnsupportedFormat(t *testing.T) {
	svc, _ := newExportService(t)

	_, err := svc.ExportText(context.Background(), "user-1", entities.ExportTextInput{
		Text: "x", Title: "x", Language: language.English, Format: entities.FormatPDF,
	})
	if !apperr.Is(err, apperr.UnsupportedFormat) {
		t.Errorf("Expected UnsupportedFormat, got %v", err)
	}
}

func TestExportService_ExportGrammarLocalizedHeadings(t *testing.T) {
	svc, _ := newExportService(t)

	artifact, err := svc.ExportGrammar(context.Background(), "user-1", entities.GrammarExportInput{
		OriginalText:  "वह स्कूल जाता हैं",
		CorrectedText: "वह स्कूल जाता है",
		Changes:       []entities.GrammarChange{{Original: "हैं", Corrected: "है", Explanation: "वचन"}},
		Language:      language.Hindi,
		Format:        entities.FormatTXT,
	})
	if err != nil {
		t.Fatalf("ExportGrammar failed: %v", err)
	}
	body := string(artifact.Data)
	for _, want := range []string{"व्याकरण जाँच", "मूल पाठ", "सुधारा गया पाठ", "- हैं → है: वचन"} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected %q in body:\n%s", want, body)
		}
	}
	if strings.Index(body, "मूल पाठ") > strings.Index(body, "सुधारा गया पाठ") {
		t.Error("Expected original text before corrected text")
	}
	if !strings.HasPrefix(artifact.Filename, "document_") {
		t.Errorf("Expected non-Latin title to fall back to document, got %q", artifact.Filename)
	}
}

func TestExportService_ExportSession(t *testing.T) {
	svc, chat := newExportService(t)
	ctx := context.Background()

	result, err := chat.SendMessage(ctx, "user-1", chatInput("", "What is a verb?"))
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	artifact, err := svc.ExportSession(ctx, "user-1", result.SessionID, entities.FormatCSV)
	if err != nil {
		t.Fatalf("ExportSession failed: %v", err)
	}
	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(artifact.Data), "\ufeff"))).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header and 2 message rows, got %d", len(rows))
	}
	if rows[1][1] != "user" || rows[1][4] != "What is a verb?" || rows[2][1] != "assistant" {
		t.Errorf("Unexpected rows: %v", rows)
	}

	if _, err := svc.ExportSession(ctx, "someone-else", result.SessionID, entities.FormatCSV); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("Expected NotFound for another user's session, got %v", err)
	}
}

func TestExportService_ExportHistory(t *testing.T) {
	svc, chat := newExportService(t)
	ctx := context.Background()

	if _, err := chat.SendMessage(ctx, "user-1", chatInput("", "hello")); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	artifact, err := svc.ExportHistory(ctx, "user-1", entities.FormatTXT)
	if err != nil {
		t.Fatalf("ExportHistory failed: %v", err)
	}
	body := string(artifact.Data)
	if !strings.Contains(body, "Activity History") || !strings.Contains(body, "[chat/en]  hello") {
		t.Errorf("Unexpected body:\n%s", body)
	}

	// The export itself is recorded.
	list, _ := svc.history.List(ctx, "user-1", entities.HistoryFilter{Feature: entities.FeatureExport})
	if len(list) != 1 {
		t.Errorf("Expected 1 export record, got %d", len(list))
	}
}
