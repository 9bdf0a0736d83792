package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/shiksha-ai/server/domain/repositories"
	"github.com/shiksha-ai/server/internal/apperr"
)

func newOpenAITestServer(t *testing.T, status int, body string, seen *[]map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if seen != nil {
			*seen = append(*seen, req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const completionBody = `{"id":"1","object":"chat.completion","model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":"  A noun names a person, place or thing.  "},"finish_reason":"stop"}]}`

func TestOpenAILLM_Generate(t *testing.T) {
	var seen []map[string]any
	srv := newOpenAITestServer(t, http.StatusOK, completionBody, &seen)

	llm, err := NewOpenAILLM(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewOpenAILLM: %v", err)
	}

	reply, err := llm.Generate(context.Background(), repositories.GenerateRequest{
		SystemPrompt: "You are a tutor.",
		Prompt:       "What is a noun?",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if reply == "" {
		t.Error("expected reply")
	}
	if len(seen) != 1 {
		t.Fatalf("expected 1 request, got %d", len(seen))
	}
	messages, _ := seen[0]["messages"].([]any)
	if len(messages) != 2 {
		t.Errorf("expected system and user messages, got %d", len(messages))
	}
}

func TestOpenAIChatSession_History(t *testing.T) {
	var seen []map[string]any
	srv := newOpenAITestServer(t, http.StatusOK, completionBody, &seen)

	llm, err := NewOpenAILLM(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewOpenAILLM: %v", err)
	}
	session, err := llm.GenerateChat(context.Background(), repositories.ChatConfig{SystemPrompt: "tutor"}, []repositories.ChatMessage{
		{Role: repositories.UserRole, Content: "hi"},
		{Role: repositories.AssistantRole, Content: "hello"},
	})
	if err != nil {
		t.Fatalf("GenerateChat: %v", err)
	}

	reply, err := session.SendMessage(context.Background(), repositories.ChatMessage{Role: repositories.UserRole, Content: "What is a noun?"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if reply.Role != repositories.AssistantRole {
		t.Errorf("expected assistant role, got %s", reply.Role)
	}
	if reply.Content != "A noun names a person, place or thing." {
		t.Errorf("expected trimmed reply, got %q", reply.Content)
	}

	messages, _ := seen[0]["messages"].([]any)
	if len(messages) != 4 {
		t.Errorf("expected system, two history and one user message, got %d", len(messages))
	}
	history, _ := session.History()
	if len(history) != 4 {
		t.Errorf("expected 4 history messages, got %d", len(history))
	}
}

func TestOpenAILLM_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   apperr.Kind
	}{
		{"quota", http.StatusTooManyRequests, `{"error":{"message":"quota","type":"insufficient_quota","code":"insufficient_quota"}}`, apperr.UpstreamQuotaExceeded},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"bad","type":"invalid_request_error"}}`, apperr.UpstreamInputRejected},
		{"content filter", http.StatusOK, `{"id":"1","choices":[{"index":0,"message":{"role":"assistant","content":""},"finish_reason":"content_filter"}]}`, apperr.UpstreamInputRejected},
		{"server error", http.StatusInternalServerError, `{"error":{"message":"oops","type":"server_error"}}`, apperr.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newOpenAITestServer(t, tt.status, tt.body, nil)
			cfg := OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1"}
			llm, err := NewOpenAILLM(cfg, zaptest.NewLogger(t))
			if err != nil {
				t.Fatalf("NewOpenAILLM: %v", err)
			}
			_, err = llm.Generate(context.Background(), repositories.GenerateRequest{Prompt: "x"})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := apperr.KindOf(err); got != tt.want {
				t.Errorf("kind = %s, want %s (err %v)", got, tt.want, err)
			}
		})
	}
}
