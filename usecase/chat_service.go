package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/domain/repositories"
	"github.com/shiksha-ai/server/internal/apperr"
	"github.com/shiksha-ai/server/internal/language"
	"github.com/shiksha-ai/server/internal/normalize"
)

const (
	// contextMessages is how many stored messages are sent to the model.
	contextMessages = 20
	chatTemperature = 0.7
)

var sessionTypeGoals = map[string]string{
	"general":               "Help with any school subject the student asks about.",
	"grammar_focused":       "Focus on grammar: explain rules simply and give short practice sentences.",
	"pronunciation_focused": "Focus on pronunciation: describe how words sound and suggest practice words.",
	"writing_help":          "Help the student plan and improve their writing without writing it for them.",
}

var userLevelStyles = map[string]string{
	"beginner":     "The student is a beginner. Use short sentences and everyday words.",
	"intermediate": "The student is at an intermediate level. Use clear explanations with examples.",
	"advanced":     "The student is advanced. You may use precise terminology and longer explanations.",
}

var messageTypeTasks = map[string]string{
	"text":               "",
	"grammar_question":   "The student is asking a grammar question. Explain the rule and give one example.",
	"pronunciation_help": "The student wants pronunciation help. Break difficult words into syllables.",
	"exercise_request":   "The student wants an exercise. Give three short practice questions and wait for answers.",
}

var welcomeMessages = map[string]string{
	"en": "Hello! I am your learning assistant. What would you like to learn today?",
	"hi": "नमस्ते! मैं आपका शिक्षण सहायक हूँ। आज आप क्या सीखना चाहेंगे?",
	"pa": "ਸਤ ਸ੍ਰੀ ਅਕਾਲ! ਮੈਂ ਤੁਹਾਡਾ ਸਿੱਖਣ ਸਹਾਇਕ ਹਾਂ। ਅੱਜ ਤੁਸੀਂ ਕੀ ਸਿੱਖਣਾ ਚਾਹੋਗੇ?",
}

// ChatService runs tutoring conversations over stored chat sessions
type ChatService struct {
	llm      repositories.LargeLanguageModel
	sessions repositories.SessionStore
	history  *HistoryService
	ttl      time.Duration
	logger   *zap.Logger
}

// NewChatService creates a new chat service. ttl is the idle time after
// which a session expires; zero uses the default.
func NewChatService(llm repositories.LargeLanguageModel, sessions repositories.SessionStore, history *HistoryService, ttl time.Duration, logger *zap.Logger) *ChatService {
	if ttl <= 0 {
		ttl = entities.DefaultSessionTTL
	}
	return &ChatService{
		llm:      llm,
		sessions: sessions,
		history:  history,
		ttl:      ttl,
		logger:   logger,
	}
}

// StartSession creates a new session owned by userID
func (s *ChatService) StartSession(ctx context.Context, userID string, in entities.SessionInput) (entities.ChatSessionInfo, error) {
	session := entities.NewChatContext(uuid.New().String(), userID, in.Language.Code, in.SessionType, in.UserLevel, s.ttl)
	if err := s.sessions.Create(ctx, session); err != nil {
		return entities.ChatSessionInfo{}, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("Chat session started",
		zap.String("session_id", session.ID),
		zap.String("language", session.Language),
		zap.String("session_type", session.SessionType))

	info := session.Info()
	info.WelcomeMessage = welcomeMessages[in.Language.Code]
	return info, nil
}

// SendMessage sends a message to the tutor and stores both turns. A
// missing session id starts a new session; an unknown one creates a
// session with that id. Messages to one session are processed one at a
// time in arrival order.
func (s *ChatService) SendMessage(ctx context.Context, userID string, in entities.ChatInput) (entities.ChatResult, error) {
	sessionID, err := s.ensureSession(ctx, userID, in)
	if err != nil {
		return entities.ChatResult{}, err
	}

	subject := strings.ToLower(strings.TrimSpace(in.Subject))
	if subject == "" {
		subject = normalize.DetectSubject(in.Message)
	}

	var result entities.ChatResult
	_, err = s.sessions.Update(ctx, sessionID, func(session *entities.ChatContext) error {
		if err := checkAccess(session, userID); err != nil {
			return err
		}
		if session.IsExpired() {
			return apperr.E(apperr.SessionExpired, "Chat session has expired. Continue it or start a new one")
		}

		lang, err := language.Resolve(session.Language)
		if err != nil {
			lang = in.Language
		}
		if subject == "" {
			subject = session.CurrentSubject()
		}

		chat, err := s.llm.GenerateChat(ctx, repositories.ChatConfig{
			SystemPrompt: systemPrompt(session, lang, in.MessageType),
			Temperature:  chatTemperature,
		}, toRepositoryHistory(session.RecentMessages(contextMessages)))
		if err != nil {
			return err
		}
		reply, err := chat.SendMessage(ctx, repositories.ChatMessage{Role: repositories.UserRole, Content: in.Message})
		if err != nil {
			return err
		}

		response, enriched := normalize.EnrichReply(reply.Content, subject, lang)
		now := time.Now()
		session.AddMessage(entities.ChatMessage{
			Timestamp:   now,
			Role:        entities.MessageRoleUser,
			Content:     in.Message,
			MessageType: in.MessageType,
			Subject:     subject,
		})
		session.AddMessage(entities.ChatMessage{
			Timestamp:   now,
			Role:        entities.MessageRoleAssistant,
			Content:     response,
			MessageType: in.MessageType,
			Subject:     subject,
		})
		session.AddSubject(subject)

		result = entities.ChatResult{
			SessionID:     session.ID,
			Response:      response,
			MessageType:   in.MessageType,
			Subject:       subject,
			Enriched:      enriched,
			Language:      lang.Code,
			HistoryLength: len(session.Messages),
			Timestamp:     now,
		}
		return nil
	})
	if err != nil {
		return entities.ChatResult{}, s.sessionError(err)
	}

	s.logger.Info("Chat message processed",
		zap.String("session_id", result.SessionID),
		zap.String("subject", result.Subject),
		zap.Int("history_length", result.HistoryLength))

	s.history.Record(ctx, userID, entities.FeatureChat, result.Language, in.Message, result.Response, 0)
	return result, nil
}

// History returns a session with its retained messages
func (s *ChatService) History(ctx context.Context, userID, sessionID string) (entities.ChatHistory, error) {
	session, err := s.owned(ctx, userID, sessionID)
	if err != nil {
		return entities.ChatHistory{}, err
	}
	messages := session.Messages
	if messages == nil {
		messages = make([]entities.ChatMessage, 0)
	}
	return entities.ChatHistory{ChatSessionInfo: session.Info(), Messages: messages}, nil
}

// Continue reactivates an expired session
func (s *ChatService) Continue(ctx context.Context, userID, sessionID string) (entities.ChatSessionInfo, error) {
	session, err := s.sessions.Update(ctx, sessionID, func(session *entities.ChatContext) error {
		if err := checkAccess(session, userID); err != nil {
			return err
		}
		session.Reactivate()
		return nil
	})
	if err != nil {
		return entities.ChatSessionInfo{}, s.sessionError(err)
	}
	return session.Info(), nil
}

// Clear empties a session's messages and subjects
func (s *ChatService) Clear(ctx context.Context, userID, sessionID string) (entities.ChatSessionInfo, error) {
	session, err := s.sessions.Update(ctx, sessionID, func(session *entities.ChatContext) error {
		if err := checkAccess(session, userID); err != nil {
			return err
		}
		session.Clear()
		return nil
	})
	if err != nil {
		return entities.ChatSessionInfo{}, s.sessionError(err)
	}
	return session.Info(), nil
}

// Delete removes a session
func (s *ChatService) Delete(ctx context.Context, userID, sessionID string) error {
	if _, err := s.owned(ctx, userID, sessionID); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return s.sessionError(err)
	}
	s.logger.Info("Chat session deleted", zap.String("session_id", sessionID))
	return nil
}

func (s *ChatService) ensureSession(ctx context.Context, userID string, in entities.ChatInput) (string, error) {
	id := in.SessionID
	if id == "" {
		id = uuid.New().String()
	} else if _, err := s.sessions.Get(ctx, id); err == nil {
		return id, nil
	} else if !errors.Is(err, repositories.ErrSessionNotFound) {
		return "", err
	}

	session := entities.NewChatContext(id, userID, in.Language.Code, "general", "beginner", s.ttl)
	if err := s.sessions.Create(ctx, session); err != nil {
		// Lost a race with a concurrent first message; use the winner's session.
		if _, getErr := s.sessions.Get(ctx, id); getErr == nil {
			return id, nil
		}
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	s.logger.Info("Chat session started by first message", zap.String("session_id", id))
	return id, nil
}

func (s *ChatService) owned(ctx context.Context, userID, sessionID string) (*entities.ChatContext, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, s.sessionError(err)
	}
	if err := checkAccess(session, userID); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChatService) sessionError(err error) error {
	if errors.Is(err, repositories.ErrSessionNotFound) {
		return apperr.Wrap(err, apperr.NotFound, "Chat session not found")
	}
	return err
}

// checkAccess hides sessions owned by other users.
func checkAccess(session *entities.ChatContext, userID string) error {
	if session.UserID != userID {
		return apperr.E(apperr.NotFound, "Chat session not found")
	}
	return nil
}

func systemPrompt(session *entities.ChatContext, lang language.Tag, messageType string) string {
	var b strings.Builder
	b.WriteString("You are a friendly and patient tutor for school students in India. ")
	fmt.Fprintf(&b, "Always reply in %s", lang.DisplayName())
	if lang.Code != language.English.Code {
		b.WriteString(" using its native script")
	}
	b.WriteString(".\n")
	if goal, ok := sessionTypeGoals[session.SessionType]; ok {
		b.WriteString(goal)
		b.WriteString("\n")
	}
	if style, ok := userLevelStyles[session.UserLevel]; ok {
		b.WriteString(style)
		b.WriteString("\n")
	}
	if task := messageTypeTasks[messageType]; task != "" {
		b.WriteString(task)
		b.WriteString("\n")
	}
	if len(session.Subjects) > 0 {
		fmt.Fprintf(&b, "Topics discussed so far: %s.\n", strings.Join(session.Subjects, ", "))
	}
	b.WriteString("Keep answers accurate, encouraging and suitable for children.")
	return b.String()
}

func toRepositoryHistory(messages []entities.ChatMessage) []repositories.ChatMessage {
	out := make([]repositories.ChatMessage, 0, len(messages))
	for _, m := range messages {
		role := repositories.UserRole
		if m.Role == entities.MessageRoleAssistant {
			role = repositories.AssistantRole
		}
		out = append(out, repositories.ChatMessage{Role: role, Content: m.Content})
	}
	return out
}
