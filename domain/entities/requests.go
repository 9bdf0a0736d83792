package entities

import (
	"github.com/shiksha-ai/server/internal/language"
)

// Asset is an uploaded file held in memory for a single upstream call.
type Asset struct {
	Data     []byte
	MimeType string
	Size     int64
	Filename string
}

// OCRInput is a validated text extraction request.
type OCRInput struct {
	Image    Asset
	Language language.Tag
}

// SpeechInput is a validated transcription request.
type SpeechInput struct {
	Audio    Asset
	Language language.Tag
}

// PronunciationInput is a validated pronunciation evaluation request.
type PronunciationInput struct {
	Audio          Asset
	Language       language.Tag
	TargetText     string
	EvaluationType string
	Difficulty     string
}

// SynthesisInput is a validated text-to-speech request.
type SynthesisInput struct {
	Text     string
	Language language.Tag
}

// GrammarInput is a validated grammar check request.
type GrammarInput struct {
	Text      string
	Language  language.Tag
	CheckType string
}

// BatchGrammarInput is a validated batch grammar check request.
type BatchGrammarInput struct {
	Texts     []string
	Language  language.Tag
	CheckType string
}

// ChatInput is a validated chat message. SessionID may be empty, in which
// case a new session is started.
type ChatInput struct {
	Message     string
	SessionID   string
	Language    language.Tag
	MessageType string
	Subject     string
}

// SessionInput is a validated chat session start request.
type SessionInput struct {
	Language    language.Tag
	SessionType string
	UserLevel   string
}

// Formatting controls document rendering.
type Formatting struct {
	FontSize        float64 `json:"fontSize"`
	IncludeMetadata bool    `json:"includeMetadata"`
	Markdown        bool    `json:"markdown"`
}

// DefaultFormatting is applied when a request omits formatting options.
var DefaultFormatting = Formatting{FontSize: 12, IncludeMetadata: true}

// FormattingOptions is the formatting a client asked for. Omitted fields
// keep their DefaultFormatting value.
type FormattingOptions struct {
	FontSize        float64 `json:"fontSize"`
	IncludeMetadata *bool   `json:"includeMetadata"`
	Markdown        bool    `json:"markdown"`
}

// ExportTextInput is a validated free text export request.
type ExportTextInput struct {
	Text       string
	Title      string
	Language   language.Tag
	Format     ExportFormat
	Formatting Formatting
}

// GrammarExportInput is a validated grammar result export request.
type GrammarExportInput struct {
	OriginalText  string
	CorrectedText string
	Changes       []GrammarChange
	Suggestions   []string
	Title         string
	Language      language.Tag
	Format        ExportFormat
}
