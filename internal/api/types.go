package api

import (
	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/internal/language"
)

// GrammarRequest represents a grammar check request
type GrammarRequest struct {
	Text      string `json:"text"`
	Language  string `json:"language"`
	CheckType string `json:"checkType"`
}

// BatchGrammarRequest represents a batch grammar check request
type BatchGrammarRequest struct {
	Texts     []string `json:"texts"`
	Language  string   `json:"language"`
	CheckType string   `json:"checkType"`
}

// ChatRequest represents a chat message
type ChatRequest struct {
	Message     string `json:"message"`
	SessionID   string `json:"sessionId"`
	Language    string `json:"language"`
	MessageType string `json:"messageType"`
	Subject     string `json:"subject"`
}

// SessionRequest represents a chat session start request
type SessionRequest struct {
	Language    string `json:"language"`
	SessionType string `json:"sessionType"`
	UserLevel   string `json:"userLevel"`
}

// SynthesisRequest represents a text-to-speech request
type SynthesisRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// ExportTextRequest represents a free text export request
type ExportTextRequest struct {
	Text       string               `json:"text"`
	Title      string               `json:"title"`
	Language   string               `json:"language"`
	Formatting *entities.FormattingOptions `json:"formatting"`
}

// GrammarExportRequest represents a grammar result export request
type GrammarExportRequest struct {
	OriginalText  string                   `json:"originalText"`
	CorrectedText string                   `json:"correctedText"`
	Changes       []entities.GrammarChange `json:"changes"`
	Suggestions   []string                 `json:"suggestions"`
	Title         string                   `json:"title"`
	Language      string                   `json:"language"`
	Format        string                   `json:"format"`
}

// RecordExportRequest represents a session or history export request
type RecordExportRequest struct {
	Format string `json:"format"`
}

// HealthResponse represents the health check payload
type HealthResponse struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	Environment string `json:"environment"`
	Timestamp   string `json:"timestamp"`
}

// LanguagesResponse lists the supported languages
type LanguagesResponse struct {
	Languages []language.Tag `json:"languages"`
	Default   string         `json:"default"`
}

// HistoryResponse represents a history listing
type HistoryResponse struct {
	Records []entities.HistoryRecord `json:"records"`
	Count   int                      `json:"count"`
}
