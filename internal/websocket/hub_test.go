package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zaptest"

	"github.com/shiksha-ai/server/adapters/llm"
	"github.com/shiksha-ai/server/adapters/memory"
	"github.com/shiksha-ai/server/adapters/stt"
	"github.com/shiksha-ai/server/adapters/tts"
	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/internal/language"
	"github.com/shiksha-ai/server/usecase"
)

type testEnv struct {
	hub    *Hub
	model  *llm.MockLLM
	tts    *tts.MockTextToSpeech
	url    string
	cancel context.CancelFunc
}

func setupTestHub(t *testing.T, wrap ...func(ChatResponder) ChatResponder) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)

	model := llm.NewMockLLM("")
	model.ChatReply = "Nouns name people, places and things."
	synth := tts.NewMockTextToSpeech()
	history := usecase.NewHistoryService(memory.NewHistoryStore(), logger)
	chat := usecase.NewChatService(model, memory.NewSessionStore(), history, time.Hour, logger)
	speech := usecase.NewSpeechService(stt.NewMockSpeechToText("what is a noun", logger), synth, history, logger)

	var responder ChatResponder = chat
	for _, fn := range wrap {
		responder = fn(responder)
	}
	hub := NewHub(responder, speech, logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		lang, err := language.ResolveOrDefault(c.QueryParam("language"))
		if err != nil {
			return err
		}
		return Connect(hub, c, "user-1", c.QueryParam("sessionId"), lang)
	})
	server := httptest.NewServer(e)
	t.Cleanup(func() {
		cancel()
		server.Close()
	})

	return &testEnv{
		hub:    hub,
		model:  model,
		tts:    synth,
		url:    "ws" + strings.TrimPrefix(server.URL, "http") + "/ws",
		cancel: cancel,
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	msg := readJSON(t, conn)
	if msg["type"] != string(MessageTypeSession) {
		t.Fatalf("first message type = %v, want session", msg["type"])
	}
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) (int, []byte) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	return kind, data
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	kind, data := readFrame(t, conn)
	if kind != websocket.TextMessage {
		t.Fatalf("frame kind = %d, want text", kind)
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("invalid JSON %q: %v", data, err)
	}
	return msg
}

func writeJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
}

func TestHub_NewHub(t *testing.T) {
	hub := NewHub(nil, nil, zaptest.NewLogger(t))

	if hub.clients == nil {
		t.Error("Hub clients map not initialized")
	}
	if hub.register == nil || hub.unregister == nil {
		t.Error("Hub channels not initialized")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
}

func TestHub_ChatTurn(t *testing.T) {
	env := setupTestHub(t)
	conn := dial(t, env.url)

	writeJSON(t, conn, map[string]any{"type": "chat", "message": "what is a noun?"})
	msg := readJSON(t, conn)
	if msg["type"] != string(MessageTypeChatResponse) {
		t.Fatalf("type = %v, want chat_response (%v)", msg["type"], msg)
	}
	chat := msg["chat"].(map[string]any)
	sessionID, _ := chat["sessionId"].(string)
	if sessionID == "" {
		t.Fatal("chat response without session id")
	}
	if chat["response"] != env.model.ChatReply {
		t.Errorf("response = %v", chat["response"])
	}

	// The second turn reuses the session started by the first one.
	writeJSON(t, conn, map[string]any{"type": "chat", "message": "and a verb?"})
	msg = readJSON(t, conn)
	chat = msg["chat"].(map[string]any)
	if chat["sessionId"] != sessionID {
		t.Errorf("sessionId = %v, want %s", chat["sessionId"], sessionID)
	}
	if chat["historyLength"].(float64) != 4 {
		t.Errorf("historyLength = %v, want 4", chat["historyLength"])
	}
}

func TestHub_PingPong(t *testing.T) {
	env := setupTestHub(t)
	conn := dial(t, env.url)

	writeJSON(t, conn, map[string]any{"type": "ping"})
	if msg := readJSON(t, conn); msg["type"] != string(MessageTypePong) {
		t.Errorf("type = %v, want pong", msg["type"])
	}
}

type slowChat struct {
	ChatResponder
	delay time.Duration
}

func (s slowChat) SendMessage(ctx context.Context, userID string, in entities.ChatInput) (entities.ChatResult, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return entities.ChatResult{}, ctx.Err()
	}
	return s.ChatResponder.SendMessage(ctx, userID, in)
}

func TestHub_TurnLongerThanPongWait(t *testing.T) {
	oldPong, oldPing, oldTurn := pongWait, pingPeriod, turnTimeout
	pongWait, pingPeriod, turnTimeout = 300*time.Millisecond, 200*time.Millisecond, 5*time.Second
	t.Cleanup(func() { pongWait, pingPeriod, turnTimeout = oldPong, oldPing, oldTurn })

	env := setupTestHub(t, func(r ChatResponder) ChatResponder {
		return slowChat{ChatResponder: r, delay: 3 * pongWait}
	})
	conn := dial(t, env.url)

	writeJSON(t, conn, map[string]any{"type": "chat", "message": "What is a noun?"})
	if msg := readJSON(t, conn); msg["type"] != string(MessageTypeChatResponse) {
		t.Fatalf("type = %v, want chat_response", msg["type"])
	}

	writeJSON(t, conn, map[string]any{"type": "ping"})
	if msg := readJSON(t, conn); msg["type"] != string(MessageTypePong) {
		t.Errorf("type = %v, want pong after a slow turn", msg["type"])
	}
}

func TestHub_InvalidMessage(t *testing.T) {
	env := setupTestHub(t)
	conn := dial(t, env.url)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	msg := readJSON(t, conn)
	if msg["type"] != string(MessageTypeError) || msg["errorCode"] != "VALIDATION_ERROR" {
		t.Errorf("got %v, want validation error", msg)
	}

	// The connection stays usable.
	writeJSON(t, conn, map[string]any{"type": "ping"})
	if msg := readJSON(t, conn); msg["type"] != string(MessageTypePong) {
		t.Errorf("type = %v, want pong", msg["type"])
	}
}

func TestHub_InvalidChatMessageType(t *testing.T) {
	env := setupTestHub(t)
	conn := dial(t, env.url)

	writeJSON(t, conn, map[string]any{"type": "chat", "message": "hi", "messageType": "shout"})
	msg := readJSON(t, conn)
	if msg["type"] != string(MessageTypeError) {
		t.Fatalf("type = %v, want error", msg["type"])
	}
	if env.model.CallCount() != 0 {
		t.Errorf("model called %d times for invalid message", env.model.CallCount())
	}
}

func TestHub_VoiceTurnWithSpokenReply(t *testing.T) {
	env := setupTestHub(t)
	conn := dial(t, env.url+"?language=hi")

	writeJSON(t, conn, map[string]any{"type": "listening_start", "mimeType": "audio/wav", "speak": true})
	if err := conn.WriteMessage(websocket.BinaryMessage, []byte("RIFF....WAVEfmt ")); err != nil {
		t.Fatal(err)
	}
	writeJSON(t, conn, map[string]any{"type": "listening_end"})

	msg := readJSON(t, conn)
	if msg["type"] != string(MessageTypeTranscription) {
		t.Fatalf("type = %v, want transcription (%v)", msg["type"], msg)
	}
	transcription := msg["transcription"].(map[string]any)
	if transcription["transcript"] != "what is a noun" {
		t.Errorf("transcript = %v", transcription["transcript"])
	}

	msg = readJSON(t, conn)
	if msg["type"] != string(MessageTypeChatResponse) {
		t.Fatalf("type = %v, want chat_response", msg["type"])
	}
	chat := msg["chat"].(map[string]any)
	if chat["messageType"] != "pronunciation_help" {
		t.Errorf("messageType = %v, want pronunciation_help", chat["messageType"])
	}
	if chat["language"] != "hi" {
		t.Errorf("language = %v, want hi", chat["language"])
	}

	msg = readJSON(t, conn)
	if msg["type"] != string(MessageTypeSpeakingStart) {
		t.Fatalf("type = %v, want speaking_start", msg["type"])
	}
	kind, audio := readFrame(t, conn)
	if kind != websocket.BinaryMessage || string(audio) != string(env.tts.Audio) {
		t.Errorf("audio frame = (%d, %x)", kind, audio)
	}
	if msg := readJSON(t, conn); msg["type"] != string(MessageTypeSpeakingEnd) {
		t.Errorf("type = %v, want speaking_end", msg["type"])
	}
}

func TestHub_ListeningEndWithoutStart(t *testing.T) {
	env := setupTestHub(t)
	conn := dial(t, env.url)

	writeJSON(t, conn, map[string]any{"type": "listening_end"})
	if msg := readJSON(t, conn); msg["type"] != string(MessageTypeError) {
		t.Errorf("type = %v, want error", msg["type"])
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	env := setupTestHub(t)
	conn := dial(t, env.url)

	deadline := time.Now().Add(2 * time.Second)
	for env.hub.ClientCount() != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if env.hub.ClientCount() != 1 {
		t.Fatalf("ClientCount() = %d, want 1", env.hub.ClientCount())
	}

	env.cancel()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected connection to be closed after shutdown")
	}
	if env.hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after shutdown", env.hub.ClientCount())
	}
}
