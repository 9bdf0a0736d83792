package entities

import (
	"errors"
	"strings"
	"time"
)

// MaxHistory is the number of most recent messages a chat session retains.
const MaxHistory = 50

// DefaultSessionTTL is how long a session stays active without messages.
const DefaultSessionTTL = 24 * time.Hour

// SessionStatus represents the status of a chat session
type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusExpired SessionStatus = "expired"
)

// MessageRole represents the role of a message sender
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// ChatMessage is one turn of a tutoring conversation.
type ChatMessage struct {
	Timestamp   time.Time   `json:"timestamp" bson:"timestamp"`
	Role        MessageRole `json:"role" bson:"role"`
	Content     string      `json:"content" bson:"content"`
	MessageType string      `json:"messageType,omitempty" bson:"message_type,omitempty"`
	Subject     string      `json:"subject,omitempty" bson:"subject,omitempty"`
}

// ChatContext is the per-session conversation state of the tutor.
type ChatContext struct {
	ID           string            `json:"id" bson:"_id"`
	UserID       string            `json:"userId" bson:"user_id"`
	Language     string            `json:"language" bson:"language"`
	SessionType  string            `json:"sessionType" bson:"session_type"`
	UserLevel    string            `json:"userLevel" bson:"user_level"`
	Status       SessionStatus     `json:"status" bson:"status"`
	Messages     []ChatMessage     `json:"messages" bson:"messages"`
	Subjects     []string          `json:"subjects" bson:"subjects"`
	Preferences  map[string]string `json:"preferences" bson:"preferences"`
	CreatedAt    time.Time         `json:"createdAt" bson:"created_at"`
	LastActiveAt time.Time         `json:"lastActiveAt" bson:"last_active_at"`
	ExpiresAt    time.Time         `json:"expiresAt" bson:"expires_at"`
	TTL          time.Duration     `json:"-" bson:"ttl"`
}

// NewChatContext creates an active session. A zero ttl uses DefaultSessionTTL.
func NewChatContext(id, userID, languageCode, sessionType, userLevel string, ttl time.Duration) *ChatContext {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	now := time.Now()
	return &ChatContext{
		ID:           id,
		UserID:       userID,
		Language:     languageCode,
		SessionType:  sessionType,
		UserLevel:    userLevel,
		Status:       SessionStatusActive,
		Messages:     make([]ChatMessage, 0),
		Subjects:     make([]string, 0),
		Preferences:  make(map[string]string),
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    now.Add(ttl),
		TTL:          ttl,
	}
}

// AddMessage appends a message and drops the oldest ones beyond MaxHistory.
func (s *ChatContext) AddMessage(msg ChatMessage) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	s.Messages = append(s.Messages, msg)
	if over := len(s.Messages) - MaxHistory; over > 0 {
		trimmed := make([]ChatMessage, MaxHistory)
		copy(trimmed, s.Messages[over:])
		s.Messages = trimmed
	}
	s.UpdateLastActive()
}

// AddSubject records a subject once, keeping first-seen order.
func (s *ChatContext) AddSubject(subject string) {
	subject = strings.ToLower(strings.TrimSpace(subject))
	if subject == "" {
		return
	}
	for _, existing := range s.Subjects {
		if existing == subject {
			return
		}
	}
	s.Subjects = append(s.Subjects, subject)
}

// CurrentSubject is the most recently added subject, if any.
func (s *ChatContext) CurrentSubject() string {
	if len(s.Subjects) == 0 {
		return ""
	}
	return s.Subjects[len(s.Subjects)-1]
}

// RecentMessages returns up to n of the newest messages, oldest first.
func (s *ChatContext) RecentMessages(n int) []ChatMessage {
	if n <= 0 || n >= len(s.Messages) {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}

// UpdateLastActive updates the last active timestamp and extends expiration
func (s *ChatContext) UpdateLastActive() {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s.LastActiveAt = time.Now()
	s.ExpiresAt = s.LastActiveAt.Add(ttl)
}

// IsExpired checks if the session has expired
func (s *ChatContext) IsExpired() bool {
	return s.Status != SessionStatusActive || time.Now().After(s.ExpiresAt)
}

// Expire marks the session as expired
func (s *ChatContext) Expire() {
	s.Status = SessionStatusExpired
}

// Reactivate makes an expired session usable again.
func (s *ChatContext) Reactivate() {
	s.Status = SessionStatusActive
	s.UpdateLastActive()
}

// Clear drops the conversation but keeps the session itself.
func (s *ChatContext) Clear() {
	s.Messages = make([]ChatMessage, 0)
	s.Subjects = make([]string, 0)
	s.UpdateLastActive()
}

// Clone returns a deep copy so stores never hand out shared slices.
func (s *ChatContext) Clone() *ChatContext {
	c := *s
	c.Messages = append([]ChatMessage(nil), s.Messages...)
	c.Subjects = append([]string(nil), s.Subjects...)
	c.Preferences = make(map[string]string, len(s.Preferences))
	for k, v := range s.Preferences {
		c.Preferences[k] = v
	}
	return &c
}

// Info summarizes the session without its messages.
func (s *ChatContext) Info() ChatSessionInfo {
	subjects := s.Subjects
	if subjects == nil {
		subjects = []string{}
	}
	return ChatSessionInfo{
		SessionID:    s.ID,
		Language:     s.Language,
		SessionType:  s.SessionType,
		UserLevel:    s.UserLevel,
		Status:       string(s.Status),
		MessageCount: len(s.Messages),
		Subjects:     subjects,
		CreatedAt:    s.CreatedAt,
		LastActiveAt: s.LastActiveAt,
		ExpiresAt:    s.ExpiresAt,
	}
}

// Validate validates the session data
func (s *ChatContext) Validate() error {
	if s.ID == "" {
		return errors.New("session id is required")
	}
	if s.Language == "" {
		return errors.New("language is required")
	}
	if s.Status != SessionStatusActive && s.Status != SessionStatusExpired {
		return errors.New("invalid session status")
	}
	if len(s.Messages) > MaxHistory {
		return errors.New("message history exceeds limit")
	}
	return nil
}
