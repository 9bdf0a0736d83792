package entities

import "time"

// BoundingBox is a word's pixel rectangle in the source image.
type BoundingBox struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

// OCRWord is one recognized word. Confidence is in [0,100].
type OCRWord struct {
	Text        string      `json:"text"`
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"boundingBox"`
}

// OCRResult is the normalized output of text extraction. Confidence is in [0,100].
type OCRResult struct {
	Text              string    `json:"text"`
	Confidence        float64   `json:"confidence"`
	Language          string    `json:"language"`
	LanguageCode      string    `json:"languageCode"`
	RequestedLanguage string    `json:"requestedLanguage"`
	Words             []OCRWord `json:"words"`
	WordCount         int       `json:"wordCount"`
	LineCount         int       `json:"lineCount"`
	CharacterCount    int       `json:"characterCount"`
	ProcessingTimeMs  int64     `json:"processingTimeMs"`
}

// TranscriptWord carries word timing in seconds and confidence in [0,1].
type TranscriptWord struct {
	Word       string  `json:"word"`
	StartTime  float64 `json:"startTime"`
	EndTime    float64 `json:"endTime"`
	Confidence float64 `json:"confidence"`
}

// TranscriptionResult is the normalized output of speech recognition.
// Confidence is in [0,1]; Duration is in seconds.
type TranscriptionResult struct {
	Transcript       string           `json:"transcript"`
	Confidence       float64          `json:"confidence"`
	Language         string           `json:"language"`
	LanguageCode     string           `json:"languageCode"`
	Words            []TranscriptWord `json:"words"`
	Duration         float64          `json:"duration"`
	WordCount        int              `json:"wordCount"`
	Alternatives     []string         `json:"alternatives"`
	ProcessingTimeMs int64            `json:"processingTimeMs"`
}

// PronunciationScores are all in [0,100].
type PronunciationScores struct {
	Pronunciation float64 `json:"pronunciation"`
	Fluency       float64 `json:"fluency"`
	Accuracy      float64 `json:"accuracy"`
	Completeness  float64 `json:"completeness"`
	Overall       float64 `json:"overall"`
}

// PronunciationResult compares a transcription against the text the learner
// was asked to read.
type PronunciationResult struct {
	Transcript     string              `json:"transcript"`
	TargetText     string              `json:"targetText"`
	Language       string              `json:"language"`
	EvaluationType string              `json:"evaluationType"`
	Difficulty     string              `json:"difficulty"`
	Scores         PronunciationScores `json:"scores"`
	Grade          string              `json:"grade"`
	MatchedWords   []string            `json:"matchedWords"`
	MissingWords   []string            `json:"missingWords"`
	ExtraWords     []string            `json:"extraWords"`
	Feedback       []string            `json:"feedback"`
	SpeakingRate   float64             `json:"speakingRate"`
	Duration       float64             `json:"duration"`
}

// GrammarChange is one correction extracted from model output.
type GrammarChange struct {
	Original    string `json:"original"`
	Corrected   string `json:"corrected"`
	Explanation string `json:"explanation"`
	Type        string `json:"type"`
}

// GrammarStatistics summarizes a grammar check.
type GrammarStatistics struct {
	TotalErrors    int            `json:"totalErrors"`
	WordCount      int            `json:"wordCount"`
	CharacterCount int            `json:"characterCount"`
	SentenceCount  int            `json:"sentenceCount"`
	ChangesByType  map[string]int `json:"changesByType"`
}

// GrammarResult is the normalized output of a grammar check. Confidence is in [0,1].
type GrammarResult struct {
	OriginalText  string            `json:"originalText"`
	CorrectedText string            `json:"correctedText"`
	Changes       []GrammarChange   `json:"changes"`
	Suggestions   []string          `json:"suggestions"`
	Confidence    float64           `json:"confidence"`
	HasErrors     bool              `json:"hasErrors"`
	Statistics    GrammarStatistics `json:"statistics"`
	Language      string            `json:"language"`
	CheckType     string            `json:"checkType"`
}

// BatchSummary aggregates a batch grammar check.
type BatchSummary struct {
	TotalTexts        int     `json:"totalTexts"`
	TextsWithErrors   int     `json:"textsWithErrors"`
	TotalErrors       int     `json:"totalErrors"`
	AverageConfidence float64 `json:"averageConfidence"`
}

// BatchGrammarResult keeps results in request order.
type BatchGrammarResult struct {
	Results []GrammarResult `json:"results"`
	Summary BatchSummary    `json:"summary"`
}

// ChatResult is the normalized reply to a chat message.
type ChatResult struct {
	SessionID     string    `json:"sessionId"`
	Response      string    `json:"response"`
	MessageType   string    `json:"messageType"`
	Subject       string    `json:"subject,omitempty"`
	Enriched      bool      `json:"enriched"`
	Language      string    `json:"language"`
	HistoryLength int       `json:"historyLength"`
	Timestamp     time.Time `json:"timestamp"`
}

// ChatSessionInfo describes a chat session without its messages.
type ChatSessionInfo struct {
	SessionID      string    `json:"sessionId"`
	Language       string    `json:"language"`
	SessionType    string    `json:"sessionType"`
	UserLevel      string    `json:"userLevel"`
	Status         string    `json:"status"`
	WelcomeMessage string    `json:"welcomeMessage,omitempty"`
	MessageCount   int       `json:"messageCount"`
	Subjects       []string  `json:"subjects"`
	CreatedAt      time.Time `json:"createdAt"`
	LastActiveAt   time.Time `json:"lastActiveAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

// ChatHistory is a session with its retained messages.
type ChatHistory struct {
	ChatSessionInfo
	Messages []ChatMessage `json:"messages"`
}

// ExportArtifact is a rendered document ready to be sent as a binary body.
type ExportArtifact struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
	Data        []byte `json:"-"`
}

// SpeechSynthesis is generated audio.
type SpeechSynthesis struct {
	Audio       []byte
	ContentType string
}
