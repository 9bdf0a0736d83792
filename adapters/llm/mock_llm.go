package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/shiksha-ai/server/domain/repositories"
)

// MockLLM is an in-process LargeLanguageModel for tests and offline runs.
// GenerateFunc and Err take precedence over the canned replies.
type MockLLM struct {
	mu sync.Mutex

	Reply        string
	ChatReply    string
	Err          error
	GenerateFunc func(req repositories.GenerateRequest) (string, error)

	Requests      []repositories.GenerateRequest
	ChatConfigs   []repositories.ChatConfig
	ChatMessages  []repositories.ChatMessage
	ChatHistories [][]repositories.ChatMessage
}

var _ repositories.LargeLanguageModel = (*MockLLM)(nil)

// NewMockLLM creates a mock that answers grammar prompts with reply.
func NewMockLLM(reply string) *MockLLM {
	return &MockLLM{Reply: reply}
}

// Generate implements repositories.LargeLanguageModel
func (m *MockLLM) Generate(ctx context.Context, req repositories.GenerateRequest) (string, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	fn, err, reply := m.GenerateFunc, m.Err, m.Reply
	m.mu.Unlock()

	if err != nil {
		return "", err
	}
	if fn != nil {
		return fn(req)
	}
	if reply == "" {
		reply = "CORRECTED: none\nCHANGES:\nSUGGESTIONS:\n- Looks good. Keep writing!"
	}
	return reply, nil
}

// GenerateChat implements repositories.LargeLanguageModel
func (m *MockLLM) GenerateChat(ctx context.Context, config repositories.ChatConfig, history []repositories.ChatMessage) (repositories.ChatSession, error) {
	m.mu.Lock()
	m.ChatConfigs = append(m.ChatConfigs, config)
	m.ChatHistories = append(m.ChatHistories, append([]repositories.ChatMessage(nil), history...))
	m.mu.Unlock()
	return &mockChatSession{llm: m, history: append([]repositories.ChatMessage(nil), history...)}, nil
}

// CallCount returns the number of Generate and SendMessage calls.
func (m *MockLLM) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests) + len(m.ChatMessages)
}

type mockChatSession struct {
	llm     *MockLLM
	history []repositories.ChatMessage
}

func (s *mockChatSession) SendMessage(ctx context.Context, message repositories.ChatMessage) (repositories.ChatMessage, error) {
	s.llm.mu.Lock()
	s.llm.ChatMessages = append(s.llm.ChatMessages, message)
	err, reply := s.llm.Err, s.llm.ChatReply
	s.llm.mu.Unlock()

	if err != nil {
		return repositories.ChatMessage{}, err
	}
	if reply == "" {
		reply = fmt.Sprintf("Thanks for your question about %q. Let's work through it together.", message.Content)
	}

	response := repositories.ChatMessage{Role: repositories.AssistantRole, Content: reply}
	s.history = append(s.history, message, response)
	return response, nil
}

func (s *mockChatSession) History() ([]repositories.ChatMessage, error) {
	return append([]repositories.ChatMessage(nil), s.history...), nil
}
